package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"devicemgr/internal/configdir"
)

const (
	systemConfigFile = "config.yaml"
	userConfigDir    = ".devicemgr"
	userConfigFile   = "config.yaml"
)

// Environment variables read once while loading.
const (
	EnvForceCPU = "DEVICEMGR_FORCE_CPU"
	// EnvLegacyForceCPU is the variable the face-swap launcher sets for --force-cpu.
	EnvLegacyForceCPU = "ROPE_FORCE_CPU"
	EnvProviders      = "DEVICEMGR_PROVIDERS"
)

// fileConfig mirrors Config with pointers where the zero value is meaningful,
// so an absent key does not reset a lower-priority layer.
type fileConfig struct {
	Device struct {
		ForceCPU *bool  `yaml:"force_cpu"`
		Runtime  string `yaml:"runtime"`
	} `yaml:"device"`
	Providers ProvidersConfig `yaml:"providers"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Load loads and merges configuration from system, user and explicit files,
// then applies environment overrides.
// Priority: defaults < system config < user config < explicit file < environment
func Load(explicitPath string) (Config, error) {
	cfg := DefaultConfig()

	systemPath := SystemConfigPath()
	if err := mergeConfigFile(&cfg, systemPath); err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to load system config: %w", err)
		}
	}

	if userPath := UserConfigPath(); userPath != "" {
		if err := mergeConfigFile(&cfg, userPath); err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("failed to load user config: %w", err)
			}
		}
	}

	if explicitPath != "" {
		if err := mergeConfigFile(&cfg, explicitPath); err != nil {
			return cfg, fmt.Errorf("failed to load config from %s: %w", explicitPath, err)
		}
	}

	ApplyEnv(&cfg, os.LookupEnv)

	if validationErrors := cfg.Validate(); len(validationErrors) > 0 {
		return cfg, fmt.Errorf("config.validation.error: %v", formatValidationErrors(validationErrors))
	}

	return cfg, nil
}

// LoadFrom loads configuration from a specific file path only
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := mergeConfigFile(&cfg, path); err != nil {
		return cfg, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	if validationErrors := cfg.Validate(); len(validationErrors) > 0 {
		return cfg, fmt.Errorf("config.validation.error: %v", formatValidationErrors(validationErrors))
	}

	return cfg, nil
}

// ApplyEnv applies environment overrides using lookup.
// Any truthy force-CPU variable wins; it can never be switched off from the environment.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	for _, key := range []string{EnvForceCPU, EnvLegacyForceCPU} {
		if v, ok := lookup(key); ok && isTruthy(v) {
			cfg.Device.ForceCPU = true
		}
	}

	if v, ok := lookup(EnvProviders); ok && strings.TrimSpace(v) != "" && cfg.Providers.Source == SourceEnv {
		cfg.Providers.Installed = splitList(v)
	}
}

// mergeConfigFile reads a YAML file and merges it into the existing config
func mergeConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- path is constructed from trusted sources
	if err != nil {
		return err
	}

	var overlay fileConfig
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	mergeConfig(cfg, &overlay)
	return nil
}

// mergeConfig merges non-zero values from src into dst
func mergeConfig(dst *Config, src *fileConfig) {
	if src.Device.ForceCPU != nil {
		dst.Device.ForceCPU = *src.Device.ForceCPU
	}
	if src.Device.Runtime != "" {
		dst.Device.Runtime = src.Device.Runtime
	}

	if src.Providers.Source != "" {
		dst.Providers.Source = src.Providers.Source
	}
	if len(src.Providers.Installed) > 0 {
		dst.Providers.Installed = append([]string(nil), src.Providers.Installed...)
	}
	if src.Providers.Command != "" {
		dst.Providers.Command = src.Providers.Command
	}
	if src.Providers.TimeoutSeconds != 0 {
		dst.Providers.TimeoutSeconds = src.Providers.TimeoutSeconds
	}

	if src.Telemetry.SMIPath != "" {
		dst.Telemetry.SMIPath = src.Telemetry.SMIPath
	}
	if src.Telemetry.SMITimeoutSeconds != 0 {
		dst.Telemetry.SMITimeoutSeconds = src.Telemetry.SMITimeoutSeconds
	}

	if src.Logging.Level != "" {
		dst.Logging.Level = src.Logging.Level
	}
	if src.Logging.Format != "" {
		dst.Logging.Format = src.Logging.Format
	}
	if src.Logging.File != "" {
		dst.Logging.File = src.Logging.File
	}
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// formatValidationErrors formats validation errors for display
func formatValidationErrors(errors []ValidationError) string {
	if len(errors) == 0 {
		return ""
	}
	if len(errors) == 1 {
		return errors[0].Error()
	}
	result := fmt.Sprintf("%d validation errors:\n", len(errors))
	for _, err := range errors {
		result += "  - " + err.Error() + "\n"
	}
	return result
}

// SystemConfigPath returns the path to the system configuration file
func SystemConfigPath() string {
	return filepath.Join(configdir.ConfigDir(), systemConfigFile)
}

// UserConfigPath returns the path to the user configuration file
func UserConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, userConfigDir, userConfigFile)
}
