package accelerator

import (
	"devicemgr/internal/gpu"
	"devicemgr/internal/provider"
)

// rule is one row of the decision table. An empty requires matches
// unconditionally; rows are evaluated in order and the first match wins.
type rule struct {
	vendor   gpu.Vendor
	requires provider.ID
	class    DeviceClass
	reason   ForcedCPUReason
}

var decisionTable = []rule{
	{gpu.VendorNone, "", ClassCPU, ReasonNone},

	{gpu.VendorNVIDIA, provider.CUDA, ClassAccelerator, ReasonNone},
	{gpu.VendorNVIDIA, "", ClassCPU, ReasonNoGPUProvider},

	// DirectML owns its own device context; tensors on the compute runtime's
	// device would collide with it.
	{gpu.VendorAMD, provider.DirectML, ClassCPU, ReasonIncompatibleProvider},
	{gpu.VendorAMD, provider.MIGraphX, ClassAccelerator, ReasonNone},
	{gpu.VendorAMD, provider.ROCm, ClassAccelerator, ReasonNone},
	{gpu.VendorAMD, "", ClassCPU, ReasonNoGPUProvider},
}

// Decide maps a detection and the installed provider set to an Environment.
// It is pure: no probing, no logging.
func Decide(det gpu.Detection, installed provider.Set) *Environment {
	env := &Environment{
		class:      ClassCPU,
		vendor:     det.Vendor,
		providers:  []provider.ID{provider.CPU},
		deviceName: det.Name,
		properties: det.Properties,
		installed:  installed.List(),
	}

	for _, r := range decisionTable {
		if r.vendor != det.Vendor {
			continue
		}
		if r.requires != "" && !installed.Has(r.requires) {
			continue
		}
		env.class = r.class
		env.reason = r.reason
		if r.requires != "" {
			env.providers = []provider.ID{r.requires, provider.CPU}
		}
		break
	}

	if det.Vendor == gpu.VendorNone {
		env.deviceName = ""
		env.properties = gpu.Properties{}
	}
	return env
}

// Forced returns the CPU environment used when the user disables
// acceleration. Nothing is probed, so vendor and inventory stay empty.
func Forced() *Environment {
	return &Environment{
		class:     ClassCPU,
		vendor:    gpu.VendorNone,
		providers: []provider.ID{provider.CPU},
		reason:    ReasonUserForced,
	}
}
