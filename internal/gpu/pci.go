package gpu

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jaypipes/ghw"

	"devicemgr/internal/probe"
)

// PCI vendor IDs of devices the compute runtime can drive.
const (
	pciVendorNVIDIA = "10de"
	pciVendorAMD    = "1002"
)

// PCIDevice is a display controller seen on the PCI bus
type PCIDevice struct {
	Address     string
	VendorID    string
	VendorName  string
	ProductName string
}

// Name joins vendor and product names the way the classifier expects them
func (d PCIDevice) Name() string {
	return strings.TrimSpace(d.VendorName + " " + d.ProductName)
}

// DefaultSysfsRoot is where the amdgpu driver publishes VRAM counters
const DefaultSysfsRoot = "/sys"

// amdgpu VRAM counters, in bytes, under /sys/bus/pci/devices/<address>/
const (
	vramTotalFile = "mem_info_vram_total"
	vramUsedFile  = "mem_info_vram_used"
)

// PCIRuntime enumerates NVIDIA and AMD display controllers through ghw.
// AMD memory comes from the amdgpu sysfs counters. NVIDIA devices have
// names only, so their telemetry falls through to the diagnostic tool.
type PCIRuntime struct {
	list  func() ([]PCIDevice, error)
	sysfs string
}

// NewPCIRuntime creates a runtime reading the host's PCI bus
func NewPCIRuntime() *PCIRuntime {
	return &PCIRuntime{list: listGraphicsCards, sysfs: DefaultSysfsRoot}
}

// NewPCIRuntimeWith creates a runtime over a custom device lister (for testing)
func NewPCIRuntimeWith(list func() ([]PCIDevice, error)) *PCIRuntime {
	return &PCIRuntime{list: list, sysfs: DefaultSysfsRoot}
}

// WithSysfsRoot reads VRAM counters below root instead of /sys
func (r *PCIRuntime) WithSysfsRoot(root string) *PCIRuntime {
	r.sysfs = root
	return r
}

func listGraphicsCards() ([]PCIDevice, error) {
	info, err := ghw.GPU()
	if err != nil {
		return nil, probe.Unavailable("pci enumeration", err)
	}

	devices := make([]PCIDevice, 0, len(info.GraphicsCards))
	for _, card := range info.GraphicsCards {
		if card == nil || card.DeviceInfo == nil {
			continue
		}
		dev := PCIDevice{Address: card.Address}
		if v := card.DeviceInfo.Vendor; v != nil {
			dev.VendorID = v.ID
			dev.VendorName = v.Name
		}
		if p := card.DeviceInfo.Product; p != nil {
			dev.ProductName = p.Name
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

// computeCapable keeps only devices a CUDA or ROCm runtime would expose.
func computeCapable(devices []PCIDevice) []PCIDevice {
	out := make([]PCIDevice, 0, len(devices))
	for _, d := range devices {
		switch strings.ToLower(d.VendorID) {
		case pciVendorNVIDIA, pciVendorAMD:
			out = append(out, d)
		}
	}
	return out
}

func (r *PCIRuntime) devices() ([]PCIDevice, error) {
	all, err := r.list()
	if err != nil {
		return nil, asUnavailable("pci enumeration", err)
	}
	return computeCapable(all), nil
}

// Name identifies the runtime
func (r *PCIRuntime) Name() string {
	return "pci"
}

// DeviceCount returns the number of NVIDIA and AMD display controllers
func (r *PCIRuntime) DeviceCount() (int, error) {
	devices, err := r.devices()
	if err != nil {
		return 0, err
	}
	return len(devices), nil
}

func (r *PCIRuntime) device(index int) (PCIDevice, error) {
	devices, err := r.devices()
	if err != nil {
		return PCIDevice{}, err
	}
	if index < 0 || index >= len(devices) {
		return PCIDevice{}, probe.Unavailable("pci device", fmt.Errorf("no device at index %d", index))
	}
	return devices[index], nil
}

// DeviceName returns "<vendor> <product>" for device index
func (r *PCIRuntime) DeviceName(index int) (string, error) {
	dev, err := r.device(index)
	if err != nil {
		return "", err
	}
	return dev.Name(), nil
}

// DeviceProperties reports total VRAM for AMD devices. NVIDIA devices
// have no properties on the PCI path.
func (r *PCIRuntime) DeviceProperties(index int) (Properties, error) {
	dev, err := r.device(index)
	if err != nil {
		return Properties{}, err
	}
	if !dev.isAMD() {
		return Properties{}, nil
	}
	total, err := r.readVRAM(dev, vramTotalFile)
	if err != nil {
		return Properties{}, err
	}
	return Properties{TotalMemoryBytes: total}, nil
}

// MemoryUsage reports device-wide VRAM in use for AMD devices
func (r *PCIRuntime) MemoryUsage(index int) (MemoryUsage, error) {
	dev, err := r.device(index)
	if err != nil {
		return MemoryUsage{}, err
	}
	if !dev.isAMD() {
		return MemoryUsage{}, probe.Unavailable("pci runtime reports no memory usage for "+dev.VendorID, nil)
	}
	used, err := r.readVRAM(dev, vramUsedFile)
	if err != nil {
		return MemoryUsage{}, err
	}
	return MemoryUsage{AllocatedBytes: used, ReservedBytes: used}, nil
}

func (d PCIDevice) isAMD() bool {
	return strings.EqualFold(d.VendorID, pciVendorAMD)
}

func (r *PCIRuntime) readVRAM(dev PCIDevice, file string) (uint64, error) {
	if dev.Address == "" {
		return 0, probe.Unavailable("amdgpu "+file, fmt.Errorf("device has no PCI address"))
	}
	path := filepath.Join(r.sysfs, "bus", "pci", "devices", dev.Address, file)
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, probe.Unavailable("amdgpu "+file, err)
	}
	value, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, probe.Unavailable("amdgpu "+file, fmt.Errorf("parse %s: %w", path, err))
	}
	return value, nil
}
