package gpu

import (
	"sync"
	"sync/atomic"
)

// AutoRuntime uses the primary runtime when it sees a device and the
// secondary otherwise. The choice is made on first use and kept.
type AutoRuntime struct {
	primary   Runtime
	secondary Runtime

	once   sync.Once
	chosen Runtime
	picked atomic.Bool
}

// NewAutoRuntime prefers NVML and falls back to PCI enumeration
func NewAutoRuntime() *AutoRuntime {
	return NewAutoRuntimeWith(NewNVMLRuntime(), NewPCIRuntime())
}

// NewAutoRuntimeWith creates an auto runtime over two arbitrary runtimes
func NewAutoRuntimeWith(primary, secondary Runtime) *AutoRuntime {
	return &AutoRuntime{primary: primary, secondary: secondary}
}

func (a *AutoRuntime) pick() Runtime {
	a.once.Do(func() {
		a.chosen = a.secondary
		if n, err := a.primary.DeviceCount(); err == nil && n > 0 {
			a.chosen = a.primary
		}
		a.picked.Store(true)
	})
	return a.chosen
}

// Name reports the chosen runtime, or "auto" before any device query.
// It never probes.
func (a *AutoRuntime) Name() string {
	if !a.picked.Load() {
		return "auto"
	}
	return "auto/" + a.chosen.Name()
}

// DeviceCount delegates to the chosen runtime
func (a *AutoRuntime) DeviceCount() (int, error) {
	return a.pick().DeviceCount()
}

// DeviceName delegates to the chosen runtime
func (a *AutoRuntime) DeviceName(index int) (string, error) {
	return a.pick().DeviceName(index)
}

// DeviceProperties delegates to the chosen runtime
func (a *AutoRuntime) DeviceProperties(index int) (Properties, error) {
	return a.pick().DeviceProperties(index)
}

// MemoryUsage delegates to the chosen runtime
func (a *AutoRuntime) MemoryUsage(index int) (MemoryUsage, error) {
	return a.pick().MemoryUsage(index)
}

// NoneRuntime sees no devices. It backs device.runtime: none.
type NoneRuntime struct{}

// Name identifies the runtime
func (NoneRuntime) Name() string { return "none" }

// DeviceCount is always zero
func (NoneRuntime) DeviceCount() (int, error) { return 0, nil }

// DeviceName is never called for a runtime with no devices
func (NoneRuntime) DeviceName(int) (string, error) { return "", nil }

// DeviceProperties is empty
func (NoneRuntime) DeviceProperties(int) (Properties, error) { return Properties{}, nil }

// MemoryUsage is empty
func (NoneRuntime) MemoryUsage(int) (MemoryUsage, error) { return MemoryUsage{}, nil }
