// Package telemetry samples device memory for a resolved environment.
package telemetry

import (
	"context"
	"errors"
	"fmt"

	"devicemgr/internal/gpu"
	"devicemgr/internal/probe"
)

const bytesPerMB = 1024 * 1024

// deviceIndex is fixed: multi-GPU selection is out of scope.
const deviceIndex = 0

// ErrImplausible marks a reading that came back but cannot be right,
// such as a zero total on an accelerated device.
var ErrImplausible = errors.New("implausible memory reading")

// Memory is one sample in MB
type Memory struct {
	UsedMB  int
	TotalMB int
}

// MemoryProbe reads device memory
type MemoryProbe interface {
	Name() string
	QueryMemory(ctx context.Context) (Memory, error)
}

// RuntimeProbe reads memory through the compute runtime
type RuntimeProbe struct {
	runtime gpu.Runtime
	// totalBytes is used when the runtime cannot report properties.
	totalBytes uint64
}

// NewRuntimeProbe creates a probe over runtime. fallbackTotal is the device
// total captured at detection, used when the runtime omits it.
func NewRuntimeProbe(runtime gpu.Runtime, fallbackTotal uint64) *RuntimeProbe {
	return &RuntimeProbe{runtime: runtime, totalBytes: fallbackTotal}
}

// Name returns the runtime name
func (p *RuntimeProbe) Name() string {
	return "runtime/" + p.runtime.Name()
}

// QueryMemory reports reserved memory as used, against the device total
func (p *RuntimeProbe) QueryMemory(ctx context.Context) (Memory, error) {
	if err := ctx.Err(); err != nil {
		return Memory{}, probe.Unavailable(p.Name(), err)
	}

	usage, err := p.runtime.MemoryUsage(deviceIndex)
	if err != nil {
		return Memory{}, fmt.Errorf("memory usage: %w", err)
	}

	total := p.totalBytes
	if props, err := p.runtime.DeviceProperties(deviceIndex); err == nil && props.TotalMemoryBytes > 0 {
		total = props.TotalMemoryBytes
	}
	if total == 0 {
		return Memory{}, fmt.Errorf("%w: total is zero", ErrImplausible)
	}

	return Memory{
		UsedMB:  int(usage.ReservedBytes / bytesPerMB),
		TotalMB: int(total / bytesPerMB),
	}, nil
}
