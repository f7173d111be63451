//go:build cuda

package gpu

import (
	"errors"

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"devicemgr/internal/probe"
)

// DeviceInterface defines the NVML device calls the runtime needs (for mocking)
type DeviceInterface interface {
	GetName() (string, nvml.Return)
	GetMemoryInfo() (nvml.Memory, nvml.Return)
	GetCudaComputeCapability() (int, int, nvml.Return)
}

// NVMLInterface defines the NVML library calls the runtime needs (for mocking)
type NVMLInterface interface {
	Init() nvml.Return
	Shutdown() nvml.Return
	DeviceGetCount() (int, nvml.Return)
	DeviceGetHandleByIndex(index int) (DeviceInterface, nvml.Return)
}

// deviceWrapper wraps nvml.Device to implement DeviceInterface
type deviceWrapper struct {
	device nvml.Device
}

func (w deviceWrapper) GetName() (string, nvml.Return) {
	return w.device.GetName()
}

func (w deviceWrapper) GetMemoryInfo() (nvml.Memory, nvml.Return) {
	return w.device.GetMemoryInfo()
}

func (w deviceWrapper) GetCudaComputeCapability() (int, int, nvml.Return) {
	return w.device.GetCudaComputeCapability()
}

// RealNVML implements NVMLInterface using the actual NVML library
type RealNVML struct{}

// Init initializes NVML
func (RealNVML) Init() nvml.Return {
	return nvml.Init()
}

// Shutdown shuts down NVML
func (RealNVML) Shutdown() nvml.Return {
	return nvml.Shutdown()
}

// DeviceGetCount returns the number of GPU devices
func (RealNVML) DeviceGetCount() (int, nvml.Return) {
	return nvml.DeviceGetCount()
}

// DeviceGetHandleByIndex returns a handle to a GPU device
func (RealNVML) DeviceGetHandleByIndex(index int) (DeviceInterface, nvml.Return) {
	device, ret := nvml.DeviceGetHandleByIndex(index)
	if ret != nvml.SUCCESS {
		return nil, ret
	}
	return deviceWrapper{device: device}, ret
}

// NVMLRuntime is the compute runtime backed by NVML. Every call brackets
// itself with Init/Shutdown; NVML reference-counts initialisation, so
// concurrent callers do not interfere.
type NVMLRuntime struct {
	nvml NVMLInterface
}

// NewNVMLRuntime creates a runtime over the real NVML library
func NewNVMLRuntime() *NVMLRuntime {
	return &NVMLRuntime{nvml: RealNVML{}}
}

// NewNVMLRuntimeWith creates a runtime over a custom NVML (for testing)
func NewNVMLRuntimeWith(nvmlInterface NVMLInterface) *NVMLRuntime {
	return &NVMLRuntime{nvml: nvmlInterface}
}

// Name identifies the runtime
func (r *NVMLRuntime) Name() string {
	return "nvml"
}

func (r *NVMLRuntime) session(fn func() error) error {
	if ret := r.nvml.Init(); ret != nvml.SUCCESS {
		return probe.Unavailable("nvml init", errors.New(nvml.ErrorString(ret)))
	}
	defer r.nvml.Shutdown()
	return fn()
}

func (r *NVMLRuntime) device(index int) (DeviceInterface, error) {
	device, ret := r.nvml.DeviceGetHandleByIndex(index)
	if ret != nvml.SUCCESS {
		return nil, probe.Unavailable("nvml device handle", errors.New(nvml.ErrorString(ret)))
	}
	return device, nil
}

// DeviceCount returns the number of NVIDIA devices
func (r *NVMLRuntime) DeviceCount() (int, error) {
	var count int
	err := r.session(func() error {
		n, ret := r.nvml.DeviceGetCount()
		if ret != nvml.SUCCESS {
			return probe.Unavailable("nvml device count", errors.New(nvml.ErrorString(ret)))
		}
		count = n
		return nil
	})
	return count, err
}

// DeviceName returns the marketing name of device index
func (r *NVMLRuntime) DeviceName(index int) (string, error) {
	var name string
	err := r.session(func() error {
		device, err := r.device(index)
		if err != nil {
			return err
		}
		n, ret := device.GetName()
		if ret != nvml.SUCCESS {
			return probe.Unavailable("nvml device name", errors.New(nvml.ErrorString(ret)))
		}
		name = n
		return nil
	})
	return name, err
}

// DeviceProperties returns total memory and CUDA compute capability
func (r *NVMLRuntime) DeviceProperties(index int) (Properties, error) {
	var props Properties
	err := r.session(func() error {
		device, err := r.device(index)
		if err != nil {
			return err
		}
		if mem, ret := device.GetMemoryInfo(); ret == nvml.SUCCESS {
			props.TotalMemoryBytes = mem.Total
		}
		if major, minor, ret := device.GetCudaComputeCapability(); ret == nvml.SUCCESS {
			props.ComputeMajor, props.ComputeMinor = major, minor
		}
		return nil
	})
	return props, err
}

// MemoryUsage reports device-wide used memory as both allocated and reserved
func (r *NVMLRuntime) MemoryUsage(index int) (MemoryUsage, error) {
	var usage MemoryUsage
	err := r.session(func() error {
		device, err := r.device(index)
		if err != nil {
			return err
		}
		mem, ret := device.GetMemoryInfo()
		if ret != nvml.SUCCESS {
			return probe.Unavailable("nvml memory info", errors.New(nvml.ErrorString(ret)))
		}
		usage = MemoryUsage{AllocatedBytes: mem.Used, ReservedBytes: mem.Used}
		return nil
	})
	return usage, err
}
