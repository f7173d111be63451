// Package accelerator resolves, once per process, which compute device and
// which execution providers downstream inference should use, and publishes
// the answer as an immutable Environment.
package accelerator

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"

	"devicemgr/internal/gpu"
	"devicemgr/internal/provider"
)

// DeviceClass is the coarse compute target for tensors
type DeviceClass int

const (
	// ClassCPU places compute tensors on the host.
	ClassCPU DeviceClass = iota
	// ClassAccelerator places compute tensors on device 0.
	ClassAccelerator
)

// String returns the class name
func (c DeviceClass) String() string {
	if c == ClassAccelerator {
		return "ACCELERATOR"
	}
	return "CPU"
}

// ForcedCPUReason explains why a detected accelerator is not used for tensors
type ForcedCPUReason int

const (
	// ReasonNone means CPU was not forced.
	ReasonNone ForcedCPUReason = iota
	// ReasonIncompatibleProvider means the selected provider cannot share the device with the compute runtime.
	ReasonIncompatibleProvider
	// ReasonNoGPUProvider means the inference runtime has no provider for the detected vendor.
	ReasonNoGPUProvider
	// ReasonUserForced means the force-CPU flag was set.
	ReasonUserForced
)

// String returns the reason name, or "" for ReasonNone
func (r ForcedCPUReason) String() string {
	switch r {
	case ReasonIncompatibleProvider:
		return "INCOMPATIBLE_PROVIDER"
	case ReasonNoGPUProvider:
		return "NO_GPU_PROVIDER_INSTALLED"
	case ReasonUserForced:
		return "USER_FORCED"
	default:
		return ""
	}
}

// Environment is the frozen result of resolution. All fields are private and
// every accessor returns a copy, so a published value cannot be changed.
type Environment struct {
	class      DeviceClass
	handle     int
	vendor     gpu.Vendor
	providers  []provider.ID
	reason     ForcedCPUReason
	deviceName string
	properties gpu.Properties
	installed  []provider.ID
	warnings   []string
}

// Spec describes an Environment to construct directly, bypassing probing.
type Spec struct {
	Class           DeviceClass
	Vendor          gpu.Vendor
	Providers       []provider.ID
	ForcedCPUReason ForcedCPUReason
	DeviceName      string
	Properties      gpu.Properties
	Installed       []provider.ID
	Warnings        []string
}

// Invariant violations reported by NewEnvironment.
var (
	ErrNoProviders           = errors.New("providers must not be empty")
	ErrMissingCPUFallback    = errors.New("last provider must be the CPU fallback")
	ErrNoVendorAccelerated   = errors.New("vendor NONE cannot be accelerated")
	ErrNoAcceleratorProvider = errors.New("accelerated environment needs a compatible GPU provider")
)

// NewEnvironment builds an Environment from s after checking its invariants.
func NewEnvironment(s Spec) (*Environment, error) {
	env := &Environment{
		class:      s.Class,
		vendor:     s.Vendor,
		providers:  append([]provider.ID(nil), s.Providers...),
		reason:     s.ForcedCPUReason,
		deviceName: s.DeviceName,
		properties: s.Properties,
		installed:  append([]provider.ID(nil), s.Installed...),
		warnings:   append([]string(nil), s.Warnings...),
	}
	if err := env.validate(); err != nil {
		return nil, err
	}
	return env, nil
}

func (e *Environment) validate() error {
	if len(e.providers) == 0 {
		return ErrNoProviders
	}
	if !e.providers[len(e.providers)-1].IsCPU() {
		return ErrMissingCPUFallback
	}
	if e.class == ClassAccelerator {
		if e.vendor == gpu.VendorNone {
			return ErrNoVendorAccelerated
		}
		compatible := false
		for _, id := range e.providers {
			if compatibleWith(e.vendor, id) {
				compatible = true
			}
		}
		if !compatible {
			return fmt.Errorf("%w: vendor %s, providers %v", ErrNoAcceleratorProvider, e.vendor, e.providers)
		}
	}
	return nil
}

// Class returns the device class
func (e *Environment) Class() DeviceClass { return e.class }

// DeviceHandle returns the device ordinal; meaningful only when accelerated
func (e *Environment) DeviceHandle() int { return e.handle }

// Vendor returns the detected vendor
func (e *Environment) Vendor() gpu.Vendor { return e.vendor }

// ForcedCPUReason explains a CPU downgrade, ReasonNone otherwise
func (e *Environment) ForcedCPUReason() ForcedCPUReason { return e.reason }

// DeviceName returns the detected device name, "" when none
func (e *Environment) DeviceName() string { return e.deviceName }

// Properties returns the static device properties captured at detection
func (e *Environment) Properties() gpu.Properties { return e.properties }

// Providers returns the ordered provider list, highest priority first
func (e *Environment) Providers() []provider.ID {
	return append([]provider.ID(nil), e.providers...)
}

// ProviderStrings returns Providers as strings, the form inference sessions take
func (e *Environment) ProviderStrings() []string {
	out := make([]string, len(e.providers))
	for i, id := range e.providers {
		out[i] = string(id)
	}
	return out
}

// Installed returns the provider inventory seen during resolution
func (e *Environment) Installed() []provider.ID {
	return append([]provider.ID(nil), e.installed...)
}

// Warnings lists probe failures that were recovered during resolution
func (e *Environment) Warnings() []string {
	return append([]string(nil), e.warnings...)
}

// IsAccelerated reports whether compute tensors go to the device
func (e *Environment) IsAccelerated() bool {
	return e.class == ClassAccelerator
}

// IsDirectML reports whether DirectML is among the selected providers.
// It can be true while IsAccelerated is false.
func (e *Environment) IsDirectML() bool {
	for _, id := range e.providers {
		if id == provider.DirectML {
			return true
		}
	}
	return false
}

// DeviceType returns "cuda" or "cpu". ROCm devices use the cuda name too.
func (e *Environment) DeviceType() string {
	if e.IsAccelerated() {
		return "cuda"
	}
	return "cpu"
}

// DeviceString returns the handle downstream compute calls take: "cpu" or "cuda:<n>"
func (e *Environment) DeviceString() string {
	if e.IsAccelerated() {
		return fmt.Sprintf("cuda:%d", e.handle)
	}
	return "cpu"
}

// DetectionDevice returns the device string and type for detection models
func (e *Environment) DetectionDevice() (string, string) {
	return e.DeviceString(), e.DeviceType()
}

// Fingerprint is a stable digest of everything that changes which kernels a
// provider compiles, suitable as a cache key.
func (e *Environment) Fingerprint() string {
	parts := []string{
		e.class.String(),
		e.DeviceString(),
		e.vendor.String(),
		strings.Join(e.ProviderStrings(), ","),
		e.reason.String(),
		e.deviceName,
		e.properties.ComputeCapability(),
	}
	sum := blake2b.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:16])
}

// Equal reports structural equality
func (e *Environment) Equal(o *Environment) bool {
	if e == nil || o == nil {
		return e == o
	}
	if e.class != o.class || e.handle != o.handle || e.vendor != o.vendor ||
		e.reason != o.reason || e.deviceName != o.deviceName || e.properties != o.properties {
		return false
	}
	return equalIDs(e.providers, o.providers) && equalIDs(e.installed, o.installed)
}

func equalIDs(a, b []provider.ID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// compatibleWith reports whether id drives vendor's devices
func compatibleWith(vendor gpu.Vendor, id provider.ID) bool {
	switch vendor {
	case gpu.VendorNVIDIA:
		return id == provider.CUDA
	case gpu.VendorAMD:
		return id == provider.DirectML || id == provider.MIGraphX || id == provider.ROCm
	default:
		return false
	}
}
