package accelerator

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"devicemgr/internal/gpu"
	"devicemgr/internal/logging"
	"devicemgr/internal/provider"
)

// DeviceDetector finds the accelerator at index 0
type DeviceDetector interface {
	Detect(ctx context.Context) (gpu.Detection, error)
}

// Options configures a Resolver
type Options struct {
	// ForceCPU skips all probing and yields the USER_FORCED environment.
	ForceCPU  bool
	Inventory provider.Inventory
	Detector  DeviceDetector
	Logger    *logging.Logger
}

// Resolver runs the inventory and detection probes once and publishes the
// resulting Environment. It is safe for concurrent use; callers that arrive
// before publication block until it completes.
type Resolver struct {
	opts Options
	once sync.Once
	env  *Environment
}

// NewResolver creates a resolver. Nothing is probed until Resolve.
func NewResolver(opts Options) *Resolver {
	return &Resolver{opts: opts}
}

// Resolve returns the published Environment, resolving it on first call.
// Only the first caller's ctx bounds the probes. Resolve never fails: every
// probe failure degrades towards CPU with a logged warning.
func (r *Resolver) Resolve(ctx context.Context) *Environment {
	r.once.Do(func() {
		r.env = r.resolve(ctx)
	})
	return r.env
}

func (r *Resolver) resolve(ctx context.Context) *Environment {
	logger := r.opts.Logger

	if r.opts.ForceCPU {
		logger.Warn("accel.force_cpu", "Force CPU mode enabled, skipping GPU detection", nil)
		return Forced()
	}

	logger.Debug("accel.resolve.start", "Resolving compute environment", nil)

	var (
		installed provider.Set
		inventErr error
		detection gpu.Detection
		detectErr error
		warnings  []string
		g         errgroup.Group
	)

	// Failures are kept per leaf rather than returned, so one failing
	// never cancels the other.
	g.Go(func() error {
		inventErr = guard(func() (err error) {
			installed, err = r.installed(ctx)
			return err
		})
		return nil
	})
	g.Go(func() error {
		detectErr = guard(func() (err error) {
			detection, err = r.detect(ctx)
			return err
		})
		return nil
	})
	_ = g.Wait()

	if inventErr != nil {
		logger.Warn("provider.inventory.failed", "Could not check ONNX Runtime providers", map[string]interface{}{
			"error": inventErr.Error(),
		})
		warnings = append(warnings, fmt.Sprintf("provider inventory: %v", inventErr))
		installed = provider.Fallback()
	}
	if detectErr != nil {
		logger.Warn("gpu.detect.failed", "Device detection failed, assuming no GPU", map[string]interface{}{
			"error": detectErr.Error(),
		})
		warnings = append(warnings, fmt.Sprintf("device detection: %v", detectErr))
		detection = gpu.Detection{Vendor: gpu.VendorNone}
	}

	env := Decide(detection, installed)
	env.warnings = warnings
	r.report(env)
	return env
}

// guard runs fn, turning a panic inside a probe into an error
func guard(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("probe panicked: %v", p)
		}
	}()
	return fn()
}

func (r *Resolver) installed(ctx context.Context) (provider.Set, error) {
	if r.opts.Inventory == nil {
		return provider.Set{}, fmt.Errorf("no provider inventory configured")
	}
	return r.opts.Inventory.Installed(ctx)
}

func (r *Resolver) detect(ctx context.Context) (gpu.Detection, error) {
	if r.opts.Detector == nil {
		return gpu.Detection{Vendor: gpu.VendorNone}, nil
	}
	return r.opts.Detector.Detect(ctx)
}

// report logs the outcome the way operators expect to read it
func (r *Resolver) report(env *Environment) {
	logger := r.opts.Logger
	payload := map[string]interface{}{
		"device":    env.DeviceString(),
		"vendor":    env.Vendor().String(),
		"providers": env.ProviderStrings(),
	}
	if env.DeviceName() != "" {
		payload["device_name"] = env.DeviceName()
	}

	switch {
	case env.ForcedCPUReason() == ReasonIncompatibleProvider:
		payload["reason"] = env.ForcedCPUReason().String()
		logger.Info("accel.directml", "Using DirectML GPU inference with CPU tensors", payload)
	case env.ForcedCPUReason() == ReasonNoGPUProvider && env.Vendor() == gpu.VendorAMD:
		payload["reason"] = env.ForcedCPUReason().String()
		logger.Warn("accel.amd.no_provider", "No AMD GPU providers available in ONNX Runtime, falling back to CPU", payload)
		logger.Warn("accel.amd.install_hint", "Install onnxruntime with GPU support", map[string]interface{}{
			"windows": "pip install onnxruntime-directml",
			"linux":   "pip install onnxruntime-rocm",
		})
	case env.ForcedCPUReason() == ReasonNoGPUProvider:
		payload["reason"] = env.ForcedCPUReason().String()
		logger.Warn("accel.cuda.no_provider", "CUDAExecutionProvider not available, using CPU", payload)
	case len(env.providers) > 0 && env.providers[0] == provider.ROCm:
		logger.Warn("accel.rocm.deprecated", "Using deprecated ROCMExecutionProvider, consider upgrading to MIGraphX", payload)
	default:
		logger.Info("accel.resolve.done", "Compute environment resolved", payload)
	}
}
