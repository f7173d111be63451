package telemetry

import (
	"context"

	"devicemgr/internal/gpu"
	"devicemgr/internal/logging"
)

// Target is what telemetry needs to know about the resolved environment
type Target interface {
	IsAccelerated() bool
	Vendor() gpu.Vendor
}

// Reading is a sample plus the probe that produced it. Source is empty
// when no probe ran or every probe failed.
type Reading struct {
	Memory
	Source string
}

// Telemetry samples device memory for one environment. It holds no mutable
// state and is safe for concurrent use.
type Telemetry struct {
	target   Target
	primary  MemoryProbe
	fallback MemoryProbe
	logger   *logging.Logger
}

// New creates a sampler. fallback is consulted only for NVIDIA devices and
// may be nil.
func New(target Target, primary, fallback MemoryProbe, logger *logging.Logger) *Telemetry {
	return &Telemetry{
		target:   target,
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// QueryMemory returns used and total device memory in MB, or (0, 0) on a CPU
// environment or when no probe succeeds. It never fails; readings are
// best-effort and not guaranteed accurate.
func (t *Telemetry) QueryMemory(ctx context.Context) (usedMB, totalMB int) {
	r := t.Sample(ctx)
	return r.UsedMB, r.TotalMB
}

// Sample is QueryMemory reporting which probe answered
func (t *Telemetry) Sample(ctx context.Context) Reading {
	if !t.target.IsAccelerated() {
		return Reading{}
	}

	var primaryErr error
	if t.primary != nil {
		m, err := t.primary.QueryMemory(ctx)
		if err == nil {
			return Reading{Memory: m, Source: t.primary.Name()}
		}
		primaryErr = err
		t.logger.Debug("telemetry.primary.failed", "Primary memory probe failed", map[string]interface{}{
			"probe": t.primary.Name(),
			"error": err.Error(),
		})
	}

	if t.fallback != nil && t.target.Vendor() == gpu.VendorNVIDIA {
		m, err := t.fallback.QueryMemory(ctx)
		if err == nil {
			return Reading{Memory: m, Source: t.fallback.Name()}
		}
		t.logger.Warn("telemetry.fallback.failed", "nvidia-smi failed", map[string]interface{}{
			"probe": t.fallback.Name(),
			"error": err.Error(),
		})
		return Reading{}
	}

	payload := map[string]interface{}{}
	if primaryErr != nil {
		payload["error"] = primaryErr.Error()
	}
	t.logger.Warn("telemetry.query.failed", "Could not get GPU memory info", payload)
	return Reading{}
}
