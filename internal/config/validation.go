package config

import (
	"fmt"
	"strings"
)

const (
	// RuntimeAuto prefers NVML and falls back to PCI enumeration.
	RuntimeAuto = "auto"
	// RuntimeNVML probes NVIDIA devices through NVML only.
	RuntimeNVML = "nvml"
	// RuntimePCI enumerates display controllers on the PCI bus.
	RuntimePCI = "pci"
	// RuntimeNone reports no compute device.
	RuntimeNone = "none"

	// SourceCommand runs the inference runtime's listing command.
	SourceCommand = "command"
	// SourceStatic uses providers.installed verbatim.
	SourceStatic = "static"
	// SourceEnv reads DEVICEMGR_PROVIDERS.
	SourceEnv = "env"
)

// Validate checks if the configuration is valid
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateDevice()...)
	errors = append(errors, c.validateProviders()...)
	errors = append(errors, c.validateTelemetry()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateDevice() []ValidationError {
	validRuntimes := []string{RuntimeAuto, RuntimeNVML, RuntimePCI, RuntimeNone}
	if contains(validRuntimes, c.Device.Runtime) {
		return nil
	}

	return []ValidationError{{
		Path:    "device.runtime",
		Message: fmt.Sprintf("must be one of %v, got '%s'", validRuntimes, c.Device.Runtime),
	}}
}

func (c *Config) validateProviders() []ValidationError {
	var errors []ValidationError

	validSources := []string{SourceCommand, SourceStatic, SourceEnv}
	if !contains(validSources, c.Providers.Source) {
		errors = append(errors, ValidationError{
			Path:    "providers.source",
			Message: fmt.Sprintf("must be one of %v, got '%s'", validSources, c.Providers.Source),
		})
	}

	if c.Providers.Source == SourceCommand && strings.TrimSpace(c.Providers.Command) == "" {
		errors = append(errors, ValidationError{
			Path:    "providers.command",
			Message: "must not be empty when source is 'command'",
		})
	}

	if c.Providers.TimeoutSeconds < 1 {
		errors = append(errors, ValidationError{
			Path:    "providers.timeout_seconds",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Providers.TimeoutSeconds),
		})
	}

	return errors
}

func (c *Config) validateTelemetry() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Telemetry.SMIPath) == "" {
		errors = append(errors, ValidationError{
			Path:    "telemetry.smi_path",
			Message: "must not be empty",
		})
	}

	if c.Telemetry.SMITimeoutSeconds < 1 || c.Telemetry.SMITimeoutSeconds > 300 {
		errors = append(errors, ValidationError{
			Path:    "telemetry.smi_timeout_seconds",
			Message: fmt.Sprintf("must be between 1 and 300, got %d", c.Telemetry.SMITimeoutSeconds),
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		errors = append(errors, ValidationError{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got '%s'", validLevels, c.Logging.Level),
		})
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, c.Logging.Format) {
		errors = append(errors, ValidationError{
			Path:    "logging.format",
			Message: fmt.Sprintf("must be one of %v, got '%s'", validFormats, c.Logging.Format),
		})
	}

	return errors
}

// contains checks if a string is in a slice
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
