package gpu

import "testing"

func TestClassifyVendor(t *testing.T) {
	tests := []struct {
		name string
		want Vendor
	}{
		{"NVIDIA GeForce RTX 4090", VendorNVIDIA},
		{"Tesla T4", VendorNVIDIA},
		{"AMD Radeon RX 7900 XTX", VendorAMD},
		{"Radeon Pro W7800", VendorAMD},
		{"amd instinct mi300x", VendorAMD},
		{"Advanced Micro Devices, Inc. [AMD/ATI] Navi 31", VendorAMD},
		{"RADEON RX 580", VendorAMD},
		// Documented fragility: any name without a marker is NVIDIA
		{"", VendorNVIDIA},
		{"Instinct MI250X", VendorNVIDIA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyVendor(tt.name); got != tt.want {
				t.Errorf("ClassifyVendor(%q) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}

func TestVendor_String(t *testing.T) {
	tests := map[Vendor]string{
		VendorNone:   "NONE",
		VendorNVIDIA: "NVIDIA",
		VendorAMD:    "AMD",
		Vendor(42):   "NONE",
	}
	for v, want := range tests {
		if got := v.String(); got != want {
			t.Errorf("Vendor(%d).String() = %s, want %s", int(v), got, want)
		}
	}
}

func TestProperties_ComputeCapability(t *testing.T) {
	if got := (Properties{ComputeMajor: 8, ComputeMinor: 9}).ComputeCapability(); got != "8.9" {
		t.Errorf("ComputeCapability() = %s, want 8.9", got)
	}
	if got := (Properties{}).ComputeCapability(); got != "" {
		t.Errorf("ComputeCapability() = %q, want empty", got)
	}
}
