package configdir

import (
	"os"
	"path/filepath"
)

const defaultConfigDir = "/etc/devicemgr"

// EnvConfigDir overrides the system configuration directory
const EnvConfigDir = "DEVICEMGR_CONFIG_DIR"

// ConfigDir resolves the configuration directory respecting overrides
func ConfigDir() string {
	if env := os.Getenv(EnvConfigDir); env != "" {
		if abs, err := filepath.Abs(env); err == nil {
			return abs
		}
	}
	return defaultConfigDir
}
