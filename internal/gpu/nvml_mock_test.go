//go:build cuda

package gpu

import (
	"sync/atomic"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// MockNVML is a mock implementation of NVMLInterface for testing
type MockNVML struct {
	InitReturn                   nvml.Return
	DeviceCount                  int
	DeviceCountReturn            nvml.Return
	Devices                      []MockDevice
	DeviceGetHandleByIndexReturn nvml.Return

	inits     atomic.Int32
	shutdowns atomic.Int32
}

// MockDevice represents a mock GPU device
type MockDevice struct {
	Name             string
	NameReturn       nvml.Return
	MemoryTotal      uint64
	MemoryUsed       uint64
	MemoryInfoReturn nvml.Return
	ComputeMajor     int
	ComputeMinor     int
	ComputeReturn    nvml.Return
}

// NewMockNVML creates a new mock NVML instance
func NewMockNVML() *MockNVML {
	return &MockNVML{
		InitReturn:                   nvml.SUCCESS,
		DeviceCountReturn:            nvml.SUCCESS,
		DeviceGetHandleByIndexReturn: nvml.SUCCESS,
	}
}

func (m *MockNVML) Init() nvml.Return {
	m.inits.Add(1)
	return m.InitReturn
}

func (m *MockNVML) Shutdown() nvml.Return {
	m.shutdowns.Add(1)
	return nvml.SUCCESS
}

func (m *MockNVML) DeviceGetCount() (int, nvml.Return) {
	return m.DeviceCount, m.DeviceCountReturn
}

func (m *MockNVML) DeviceGetHandleByIndex(index int) (DeviceInterface, nvml.Return) {
	if index < 0 || index >= len(m.Devices) {
		return nil, nvml.ERROR_INVALID_ARGUMENT
	}
	return mockDeviceImpl{device: &m.Devices[index]}, m.DeviceGetHandleByIndexReturn
}

type mockDeviceImpl struct {
	device *MockDevice
}

func (m mockDeviceImpl) GetName() (string, nvml.Return) {
	return m.device.Name, m.device.NameReturn
}

func (m mockDeviceImpl) GetMemoryInfo() (nvml.Memory, nvml.Return) {
	return nvml.Memory{
		Total: m.device.MemoryTotal,
		Used:  m.device.MemoryUsed,
		Free:  m.device.MemoryTotal - m.device.MemoryUsed,
	}, m.device.MemoryInfoReturn
}

func (m mockDeviceImpl) GetCudaComputeCapability() (int, int, nvml.Return) {
	return m.device.ComputeMajor, m.device.ComputeMinor, m.device.ComputeReturn
}
