package userdata

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/concierge/firstrun/internal/branding"
)

// Directory and file name constants for the on-disk layout.
const (
	ModulesDir   = "modules"
	LogsDir      = "logs"
	ConfigFile   = "config.yaml"
	DefaultsFile = "defaults.json"
	DotEnvFile   = ".env"
)

// Permission constants.
const (
	DirPermNormal  os.FileMode = 0755
	FilePermNormal os.FileMode = 0644
	FilePermSecure os.FileMode = 0600
)

// GetHomeRoot returns the concierge home directory.
// It checks the CONCIERGE_HOME environment variable first,
// then falls back to ~/.concierge.
func GetHomeRoot() (string, error) {
	if v := os.Getenv(branding.EnvVar("HOME")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, branding.HomeDir()), nil
}

// GetRootPath returns the installation root that holds the bundled
// defaults.json. Checks CONCIERGE_ROOT first, then the home root.
func GetRootPath() (string, error) {
	if v := os.Getenv(branding.EnvVar("ROOT")); v != "" {
		return v, nil
	}
	return GetHomeRoot()
}

// GetModulesRoot returns the directory modules are installed into.
// Checks CONCIERGE_MODULES_ROOT first, then falls back to <home>/modules.
func GetModulesRoot() (string, error) {
	if v := os.Getenv(branding.EnvVar("MODULES_ROOT")); v != "" {
		return v, nil
	}
	root, err := GetHomeRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, ModulesDir), nil
}

// GetLogsDir returns the directory run logs are written to.
func GetLogsDir() (string, error) {
	root, err := GetHomeRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, LogsDir), nil
}

// GetConfigPath returns the path to config.yaml within the home root.
func GetConfigPath() (string, error) {
	root, err := GetHomeRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, ConfigFile), nil
}

// BundledDefaultsPath returns the path of the defaults.json shipped with the
// installation at rootPath.
func BundledDefaultsPath(rootPath string) string {
	return filepath.Join(rootPath, DefaultsFile)
}
