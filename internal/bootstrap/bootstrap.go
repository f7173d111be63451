// Package bootstrap turns a loaded configuration into a ready resolver and
// memory sampler.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"devicemgr/internal/accelerator"
	"devicemgr/internal/config"
	"devicemgr/internal/gpu"
	"devicemgr/internal/logging"
	"devicemgr/internal/probe"
	"devicemgr/internal/provider"
	"devicemgr/internal/telemetry"
)

// Deps are the seams to the outside world. Zero fields get real
// implementations derived from the configuration.
type Deps struct {
	Runtime        gpu.Runtime
	ProviderRunner probe.Runner
	SMIRunner      probe.Runner
}

// Stack is the wired resolver plus everything telemetry needs afterwards
type Stack struct {
	cfg       config.Config
	logger    *logging.Logger
	runtime   gpu.Runtime
	inventory provider.Inventory
	smiRunner probe.Runner
	resolver  *accelerator.Resolver
}

// New wires cfg with real runtimes and subprocess runners
func New(cfg config.Config, logger *logging.Logger) (*Stack, error) {
	return NewWith(cfg, logger, Deps{})
}

// NewWith wires cfg, preferring the given dependencies
func NewWith(cfg config.Config, logger *logging.Logger, deps Deps) (*Stack, error) {
	runtime := deps.Runtime
	if runtime == nil {
		rt, err := RuntimeFor(cfg.Device.Runtime)
		if err != nil {
			return nil, err
		}
		runtime = rt
	}

	providerRunner := deps.ProviderRunner
	if providerRunner == nil {
		providerRunner = probe.NewExecRunner(seconds(cfg.Providers.TimeoutSeconds))
	}
	inventory, err := InventoryFor(cfg.Providers, providerRunner)
	if err != nil {
		return nil, err
	}

	smiRunner := deps.SMIRunner
	if smiRunner == nil {
		smiRunner = probe.NewExecRunner(seconds(cfg.Telemetry.SMITimeoutSeconds))
	}

	s := &Stack{
		cfg:       cfg,
		logger:    logger,
		runtime:   runtime,
		inventory: inventory,
		smiRunner: smiRunner,
	}
	s.resolver = accelerator.NewResolver(accelerator.Options{
		ForceCPU:  cfg.Device.ForceCPU,
		Inventory: inventory,
		Detector:  gpu.NewDetector(runtime, logger),
		Logger:    logger,
	})

	logger.Debug("bootstrap.wired", "Resolver wired", map[string]interface{}{
		"runtime":   cfg.Device.Runtime,
		"inventory": inventory.Name(),
		"force_cpu": cfg.Device.ForceCPU,
	})
	return s, nil
}

// RuntimeFor maps a config runtime name to a compute runtime
func RuntimeFor(name string) (gpu.Runtime, error) {
	switch name {
	case config.RuntimeAuto, "":
		return gpu.NewAutoRuntime(), nil
	case config.RuntimeNVML:
		return gpu.NewNVMLRuntime(), nil
	case config.RuntimePCI:
		return gpu.NewPCIRuntime(), nil
	case config.RuntimeNone:
		return gpu.NoneRuntime{}, nil
	default:
		return nil, fmt.Errorf("unknown device runtime %q", name)
	}
}

// InventoryFor maps the providers section to an inventory
func InventoryFor(cfg config.ProvidersConfig, runner probe.Runner) (provider.Inventory, error) {
	switch cfg.Source {
	case config.SourceCommand, "":
		return provider.NewCommandInventory(cfg.Command, runner), nil
	case config.SourceStatic, config.SourceEnv:
		return provider.NewStaticInventory(cfg.Source, cfg.Installed), nil
	default:
		return nil, fmt.Errorf("unknown provider source %q", cfg.Source)
	}
}

// Environment resolves once and returns the published environment
func (s *Stack) Environment(ctx context.Context) *accelerator.Environment {
	return s.resolver.Resolve(ctx)
}

// Inventory returns the configured provider inventory
func (s *Stack) Inventory() provider.Inventory {
	return s.inventory
}

// Telemetry returns a memory sampler for the resolved environment
func (s *Stack) Telemetry(ctx context.Context) *telemetry.Telemetry {
	env := s.Environment(ctx)
	primary := telemetry.NewRuntimeProbe(s.runtime, env.Properties().TotalMemoryBytes)
	fallback := telemetry.NewSMIProbe(s.cfg.Telemetry.SMIPath, s.smiRunner)
	return telemetry.New(env, primary, fallback, s.logger)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
