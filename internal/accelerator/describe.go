package accelerator

import (
	"context"

	"devicemgr/internal/hostinfo"
)

// MemoryReader samples device memory in MB; Telemetry satisfies it
type MemoryReader interface {
	QueryMemory(ctx context.Context) (usedMB, totalMB int)
}

// Info is the full description of a resolved environment
type Info struct {
	DeviceType         string         `json:"device_type" yaml:"device_type"`
	DeviceString       string         `json:"device_string" yaml:"device_string"`
	Providers          []string       `json:"providers" yaml:"providers"`
	GPUAvailable       bool           `json:"gpu_available" yaml:"gpu_available"`
	DirectML           bool           `json:"directml" yaml:"directml"`
	Vendor             string         `json:"vendor" yaml:"vendor"`
	GPUName            string         `json:"gpu_name,omitempty" yaml:"gpu_name,omitempty"`
	ComputeCapability  string         `json:"compute_capability,omitempty" yaml:"compute_capability,omitempty"`
	MemoryUsedMB       *int           `json:"memory_used_mb,omitempty" yaml:"memory_used_mb,omitempty"`
	MemoryTotalMB      *int           `json:"memory_total_mb,omitempty" yaml:"memory_total_mb,omitempty"`
	ForcedCPUReason    string         `json:"forced_cpu_reason,omitempty" yaml:"forced_cpu_reason,omitempty"`
	InstalledProviders []string       `json:"installed_providers,omitempty" yaml:"installed_providers,omitempty"`
	Warnings           []string       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Fingerprint        string         `json:"fingerprint" yaml:"fingerprint"`
	Host               *hostinfo.Info `json:"host,omitempty" yaml:"host,omitempty"`
}

// Describe builds the description of env. Device name, compute capability
// and memory are filled in only when accelerated; mem may be nil.
func Describe(ctx context.Context, env *Environment, mem MemoryReader) Info {
	info := Info{
		DeviceType:      env.DeviceType(),
		DeviceString:    env.DeviceString(),
		Providers:       env.ProviderStrings(),
		GPUAvailable:    env.IsAccelerated(),
		DirectML:        env.IsDirectML(),
		Vendor:          env.Vendor().String(),
		ForcedCPUReason: env.ForcedCPUReason().String(),
		Warnings:        env.Warnings(),
		Fingerprint:     env.Fingerprint(),
	}
	for _, id := range env.Installed() {
		info.InstalledProviders = append(info.InstalledProviders, string(id))
	}

	if env.IsAccelerated() {
		info.GPUName = env.DeviceName()
		info.ComputeCapability = env.Properties().ComputeCapability()
		if mem != nil {
			used, total := mem.QueryMemory(ctx)
			info.MemoryUsedMB = &used
			info.MemoryTotalMB = &total
		}
	}
	return info
}
