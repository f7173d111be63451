package config

// Config represents the complete devicemgr configuration
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Providers ProvidersConfig `yaml:"providers"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DeviceConfig selects how the compute device is probed
type DeviceConfig struct {
	// ForceCPU disables accelerator probing entirely.
	ForceCPU bool `yaml:"force_cpu"`
	// Runtime is one of auto, nvml, pci or none.
	Runtime string `yaml:"runtime"`
}

// ProvidersConfig selects where the execution provider inventory comes from
type ProvidersConfig struct {
	// Source is one of command, static or env.
	Source         string   `yaml:"source"`
	Installed      []string `yaml:"installed"`
	Command        string   `yaml:"command"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// TelemetryConfig configures the vendor diagnostic tool fallback
type TelemetryConfig struct {
	SMIPath           string `yaml:"smi_path"`
	SMITimeoutSeconds int    `yaml:"smi_timeout_seconds"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Path + ": " + e.Message
}
