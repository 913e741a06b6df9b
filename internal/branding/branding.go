// Package branding provides compile-time identity values for the CLI.
//
// The values live in branding.yaml next to this file and are baked into the
// binary with //go:embed. Hard defaults below cover a missing or empty file.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName         string   `yaml:"cli_name"`
	DisplayName     string   `yaml:"display_name"`
	Description     string   `yaml:"description"`
	HomeDir         string   `yaml:"home_dir"`
	EnvPrefix       string   `yaml:"env_prefix"`
	UnitName        string   `yaml:"unit_name"`
	DefaultsURL     string   `yaml:"defaults_url"`
	DescriptorFiles []string `yaml:"descriptor_files"`
}

func load() {
	once.Do(func() {
		defaults = brand{
			CLIName:         "firstrun",
			DisplayName:     "Concierge First Run",
			Description:     "Installs the default Concierge modules on a fresh installation",
			HomeDir:         ".concierge",
			EnvPrefix:       "CONCIERGE",
			UnitName:        "firstrun",
			DefaultsURL:     "https://raw.githubusercontent.com/wiki/concierge/Concierge/Defaults.md",
			DescriptorFiles: []string{"kassy.json", "hubot.json", "package.json"},
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "firstrun").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".concierge").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "CONCIERGE").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// UnitName returns the module name the bootstrap unit is installed under.
func UnitName() string { load(); return defaults.UnitName }

// DefaultsURL returns the canonical remote defaults document.
func DefaultsURL() string { load(); return defaults.DefaultsURL }

// DescriptorFiles returns the descriptor file names in lookup order.
func DescriptorFiles() []string {
	load()
	out := make([]string, len(defaults.DescriptorFiles))
	copy(out, defaults.DescriptorFiles)
	return out
}

// EnvVar returns a fully qualified env var name, e.g., EnvVar("defaults") → "CONCIERGE_DEFAULTS".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
