package config

const (
	// DefaultProviderCommand asks the inference runtime which providers it was built with.
	DefaultProviderCommand = `python3 -c "import onnxruntime as ort; print(ort.get_available_providers())"`
	// DefaultSMIPath is the NVIDIA diagnostic tool used as a memory fallback.
	DefaultSMIPath = "nvidia-smi"
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		Device: DeviceConfig{
			ForceCPU: false,
			Runtime:  RuntimeAuto,
		},
		Providers: ProvidersConfig{
			Source:         SourceCommand,
			Command:        DefaultProviderCommand,
			TimeoutSeconds: 20,
		},
		Telemetry: TelemetryConfig{
			SMIPath:           DefaultSMIPath,
			SMITimeoutSeconds: 5,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}
