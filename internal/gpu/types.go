package gpu

import "fmt"

// Vendor identifies the accelerator manufacturer
type Vendor int

const (
	// VendorNone means no accelerator was found.
	VendorNone Vendor = iota
	// VendorNVIDIA is a CUDA device.
	VendorNVIDIA
	// VendorAMD is a ROCm device, which the compute runtime exposes through the same CUDA API.
	VendorAMD
)

// String returns the vendor name used in logs and reports
func (v Vendor) String() string {
	switch v {
	case VendorNVIDIA:
		return "NVIDIA"
	case VendorAMD:
		return "AMD"
	default:
		return "NONE"
	}
}

// MarshalText implements encoding.TextMarshaler
func (v Vendor) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Properties are static device attributes
type Properties struct {
	TotalMemoryBytes uint64 `json:"total_memory_bytes" yaml:"total_memory_bytes"`
	ComputeMajor     int    `json:"compute_major" yaml:"compute_major"`
	ComputeMinor     int    `json:"compute_minor" yaml:"compute_minor"`
}

// ComputeCapability formats major.minor, or "" when unknown
func (p Properties) ComputeCapability() string {
	if p.ComputeMajor == 0 && p.ComputeMinor == 0 {
		return ""
	}
	return fmt.Sprintf("%d.%d", p.ComputeMajor, p.ComputeMinor)
}

// MemoryUsage is the compute runtime's view of device memory
type MemoryUsage struct {
	AllocatedBytes uint64
	ReservedBytes  uint64
}

// Runtime is the compute runtime's device API. Index 0 is the only device
// the resolver ever asks about.
type Runtime interface {
	Name() string
	DeviceCount() (int, error)
	DeviceName(index int) (string, error)
	DeviceProperties(index int) (Properties, error)
	MemoryUsage(index int) (MemoryUsage, error)
}

// Detection is the result of probing device 0
type Detection struct {
	Vendor     Vendor
	Name       string
	Properties Properties
	Runtime    string
}

// Present reports whether an accelerator was found
func (d Detection) Present() bool {
	return d.Vendor != VendorNone
}
