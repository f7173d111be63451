package gpu

import "strings"

// amdMarkers are matched case-insensitively against the device name.
var amdMarkers = []string{"amd", "radeon"}

// ClassifyVendor decides the vendor of a device that is known to exist.
// The compute runtime reports ROCm devices through its CUDA API, so the name
// is the only signal: "AMD" or "Radeon" means AMD, anything else NVIDIA.
//
// This is a heuristic. A future device whose name contains neither marker,
// or a non-AMD device that does, will be misclassified.
func ClassifyVendor(name string) Vendor {
	lower := strings.ToLower(name)
	for _, marker := range amdMarkers {
		if strings.Contains(lower, marker) {
			return VendorAMD
		}
	}
	return VendorNVIDIA
}
