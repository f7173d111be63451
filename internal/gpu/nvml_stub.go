//go:build !cuda

package gpu

import "devicemgr/internal/probe"

const nvmlDisabled = "nvml disabled: rebuild with -tags cuda"

// NVMLRuntime reports NVML as unavailable in builds without CUDA support.
type NVMLRuntime struct{}

// NewNVMLRuntime returns the disabled runtime
func NewNVMLRuntime() *NVMLRuntime {
	return &NVMLRuntime{}
}

// Name identifies the runtime
func (r *NVMLRuntime) Name() string {
	return "nvml"
}

// DeviceCount always fails
func (r *NVMLRuntime) DeviceCount() (int, error) {
	return 0, probe.Unavailable(nvmlDisabled, nil)
}

// DeviceName always fails
func (r *NVMLRuntime) DeviceName(int) (string, error) {
	return "", probe.Unavailable(nvmlDisabled, nil)
}

// DeviceProperties always fails
func (r *NVMLRuntime) DeviceProperties(int) (Properties, error) {
	return Properties{}, probe.Unavailable(nvmlDisabled, nil)
}

// MemoryUsage always fails
func (r *NVMLRuntime) MemoryUsage(int) (MemoryUsage, error) {
	return MemoryUsage{}, probe.Unavailable(nvmlDisabled, nil)
}
