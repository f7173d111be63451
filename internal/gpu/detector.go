package gpu

import (
	"context"
	"fmt"

	"devicemgr/internal/logging"
	"devicemgr/internal/probe"
)

// deviceIndex is fixed: multi-GPU selection is out of scope.
const deviceIndex = 0

// Detector probes the compute runtime for device 0
type Detector struct {
	runtime Runtime
	logger  *logging.Logger
}

// NewDetector creates a detector over runtime
func NewDetector(runtime Runtime, logger *logging.Logger) *Detector {
	return &Detector{
		runtime: runtime,
		logger:  logger,
	}
}

// Runtime returns the compute runtime the detector probes
func (d *Detector) Runtime() Runtime {
	return d.runtime
}

// Detect returns the vendor and name of device 0, or a zero Detection when
// the runtime sees no device. Failures to query the runtime wrap
// probe.ErrUnavailable; missing properties are not an error.
func (d *Detector) Detect(ctx context.Context) (Detection, error) {
	if err := ctx.Err(); err != nil {
		return Detection{}, probe.Unavailable("device detection", err)
	}

	d.logger.Debug("gpu.detect.start", "Detecting compute device", map[string]interface{}{
		"runtime": d.runtime.Name(),
	})

	count, err := d.runtime.DeviceCount()
	if err != nil {
		return Detection{}, fmt.Errorf("device count: %w", asUnavailable(d.runtime.Name(), err))
	}

	if count == 0 {
		d.logger.Warn("gpu.detect.none", "No GPU detected, using CPU (will be slower)", map[string]interface{}{
			"runtime": d.runtime.Name(),
		})
		return Detection{Vendor: VendorNone, Runtime: d.runtime.Name()}, nil
	}

	name, err := d.runtime.DeviceName(deviceIndex)
	if err != nil {
		return Detection{}, fmt.Errorf("device name: %w", asUnavailable(d.runtime.Name(), err))
	}

	detection := Detection{
		Vendor:  ClassifyVendor(name),
		Name:    name,
		Runtime: d.runtime.Name(),
	}

	props, err := d.runtime.DeviceProperties(deviceIndex)
	if err != nil {
		d.logger.Debug("gpu.properties.failed", "Device properties unavailable", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		detection.Properties = props
	}

	d.logger.Info("gpu.device.detected", fmt.Sprintf("%s GPU detected", detection.Vendor), map[string]interface{}{
		"name":               detection.Name,
		"vendor":             detection.Vendor.String(),
		"count":              count,
		"compute_capability": detection.Properties.ComputeCapability(),
		"runtime":            detection.Runtime,
	})

	return detection, nil
}
