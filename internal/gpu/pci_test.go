package gpu

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"devicemgr/internal/probe"
)

func TestPCIRuntime_FiltersComputeVendors(t *testing.T) {
	rt := NewPCIRuntimeWith(func() ([]PCIDevice, error) {
		return []PCIDevice{
			{Address: "0000:00:02.0", VendorID: "8086", VendorName: "Intel Corporation", ProductName: "UHD Graphics 770"},
			{Address: "0000:03:00.0", VendorID: "1002", VendorName: "Advanced Micro Devices, Inc. [AMD/ATI]", ProductName: "Navi 21 [Radeon RX 6800 XT]"},
			{Address: "0000:04:00.0", VendorID: "10DE", VendorName: "NVIDIA Corporation", ProductName: "AD102 [GeForce RTX 4090]"},
		}, nil
	})

	count, err := rt.DeviceCount()
	if err != nil {
		t.Fatalf("DeviceCount() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Expected integrated Intel GPU to be skipped, got count %d", count)
	}

	name, err := rt.DeviceName(0)
	if err != nil {
		t.Fatalf("DeviceName() error = %v", err)
	}
	if ClassifyVendor(name) != VendorAMD {
		t.Errorf("Expected device 0 to classify as AMD, name: %s", name)
	}

	name, _ = rt.DeviceName(1)
	if ClassifyVendor(name) != VendorNVIDIA {
		t.Errorf("Expected device 1 to classify as NVIDIA, name: %s", name)
	}
}

func TestPCIRuntime_Errors(t *testing.T) {
	rt := NewPCIRuntimeWith(func() ([]PCIDevice, error) {
		return nil, errors.New("sysfs not mounted")
	})

	if _, err := rt.DeviceCount(); !errors.Is(err, probe.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got: %v", err)
	}

	empty := NewPCIRuntimeWith(func() ([]PCIDevice, error) { return nil, nil })
	if _, err := empty.DeviceName(0); !errors.Is(err, probe.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable for missing index, got: %v", err)
	}
}

func TestPCIRuntime_NVIDIAHasNoMemoryUsage(t *testing.T) {
	rt := NewPCIRuntimeWith(func() ([]PCIDevice, error) {
		return []PCIDevice{{Address: "0000:01:00.0", VendorID: "10de", VendorName: "NVIDIA Corporation", ProductName: "TU104GL [Tesla T4]"}}, nil
	}).WithSysfsRoot(t.TempDir())

	if _, err := rt.MemoryUsage(0); !errors.Is(err, probe.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got: %v", err)
	}
	props, err := rt.DeviceProperties(0)
	if err != nil || props != (Properties{}) {
		t.Errorf("Expected empty properties, got %+v, %v", props, err)
	}
}

// writeVRAM lays out the amdgpu counters for address below root
func writeVRAM(t *testing.T, root, address, total, used string) {
	t.Helper()
	dir := filepath.Join(root, "bus", "pci", "devices", address)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "mem_info_vram_total"), []byte(total), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "mem_info_vram_used"), []byte(used), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func amdCard() ([]PCIDevice, error) {
	return []PCIDevice{{
		Address:     "0000:03:00.0",
		VendorID:    "1002",
		VendorName:  "Advanced Micro Devices, Inc. [AMD/ATI]",
		ProductName: "Navi 31 [Radeon RX 7900 XTX]",
	}}, nil
}

func TestPCIRuntime_AMDMemoryFromSysfs(t *testing.T) {
	root := t.TempDir()
	writeVRAM(t, root, "0000:03:00.0", "25753026560\n", "1073741824\n")
	rt := NewPCIRuntimeWith(amdCard).WithSysfsRoot(root)

	props, err := rt.DeviceProperties(0)
	if err != nil {
		t.Fatalf("DeviceProperties() error = %v", err)
	}
	if props.TotalMemoryBytes != 25753026560 {
		t.Errorf("Expected total 25753026560, got: %d", props.TotalMemoryBytes)
	}

	usage, err := rt.MemoryUsage(0)
	if err != nil {
		t.Fatalf("MemoryUsage() error = %v", err)
	}
	if usage.ReservedBytes != 1<<30 {
		t.Errorf("Expected reserved 1GiB, got: %d", usage.ReservedBytes)
	}
}

func TestPCIRuntime_AMDSysfsErrors(t *testing.T) {
	missing := NewPCIRuntimeWith(amdCard).WithSysfsRoot(t.TempDir())
	if _, err := missing.MemoryUsage(0); !errors.Is(err, probe.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable without amdgpu counters, got: %v", err)
	}
	if _, err := missing.DeviceProperties(0); !errors.Is(err, probe.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable without amdgpu counters, got: %v", err)
	}

	root := t.TempDir()
	writeVRAM(t, root, "0000:03:00.0", "lots", "some")
	garbled := NewPCIRuntimeWith(amdCard).WithSysfsRoot(root)
	if _, err := garbled.MemoryUsage(0); !errors.Is(err, probe.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable for unparsable counter, got: %v", err)
	}

	empty := NewPCIRuntimeWith(func() ([]PCIDevice, error) { return nil, nil })
	if _, err := empty.MemoryUsage(0); !errors.Is(err, probe.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable for missing index, got: %v", err)
	}
}

func TestPCIDevice_Name(t *testing.T) {
	d := PCIDevice{VendorName: "NVIDIA Corporation", ProductName: "GA102"}
	if d.Name() != "NVIDIA Corporation GA102" {
		t.Errorf("Name() = %q", d.Name())
	}
	if (PCIDevice{ProductName: "GA102"}).Name() != "GA102" {
		t.Error("Expected name to be trimmed when vendor is missing")
	}
}
