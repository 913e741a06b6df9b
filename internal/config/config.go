package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/concierge/firstrun/internal/branding"
	"github.com/concierge/firstrun/internal/userdata"
)

const (
	fileType = "yaml"

	// GlobalScope is the system-wide section holding the defaults url/list.
	GlobalScope = "defaults"

	DefaultFetchTimeout = 30 * time.Second
	DefaultCloneTimeout = 5 * time.Minute
	DefaultCloneDepth   = 1
)

// Scope is one named configuration section as the host hands it to a module.
type Scope struct {
	URL  string     `mapstructure:"url"`
	List [][]string `mapstructure:"list"`
}

// Config holds the resolved first-run settings.
type Config struct {
	ModulesRoot  string        `mapstructure:"modules_root"`
	RootPath     string        `mapstructure:"root_path"`
	UnitName     string        `mapstructure:"unit_name"`
	UnitDir      string        `mapstructure:"unit_dir"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	CloneTimeout time.Duration `mapstructure:"clone_timeout"`
	CloneDepth   int           `mapstructure:"clone_depth"`
	LogLevel     string        `mapstructure:"log_level"`
	LogDir       string        `mapstructure:"log_dir"`
	Adapter      string        `mapstructure:"adapter"`

	// File is the config file that was read, or "" if none existed.
	File string `mapstructure:"-"`

	v *viper.Viper
}

// LoadOptions controls where configuration is read from.
// The zero value reads ~/.concierge/config.yaml.
type LoadOptions struct {
	// ConfigFile overrides the default config file path. It must exist.
	ConfigFile string
}

// Load reads configuration from file and environment.
//
// Precedence, highest first: CONCIERGE_* environment (including values
// loaded from <root_path>/.env), the config file, built-in defaults.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	v.SetConfigType(fileType)

	if err := setDefaults(v); err != nil {
		return nil, err
	}

	// Explicit bindings only. AutomaticEnv would map the "defaults" scope
	// onto CONCIERGE_DEFAULTS, which holds the JSON install list instead.
	for key, suffix := range map[string]string{
		"modules_root":  "MODULES_ROOT",
		"root_path":     "ROOT",
		"unit_dir":      "UNIT_DIR",
		"log_level":     "LOG_LEVEL",
		"fetch_timeout": "FETCH_TIMEOUT",
		"clone_timeout": "CLONE_TIMEOUT",
		"adapter":       "ADAPTER",
	} {
		if err := v.BindEnv(key, branding.EnvVar(suffix)); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	file := opts.ConfigFile
	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return nil, fmt.Errorf("config file %s: %w", file, err)
		}
	} else {
		p, err := userdata.GetConfigPath()
		if err != nil {
			return nil, err
		}
		file = p
	}

	v.SetConfigFile(file)
	readFile := file
	if err := v.ReadInConfig(); err != nil {
		// A missing default config file is fine; a broken one is not.
		if opts.ConfigFile != "" || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", file, err)
		}
		readFile = ""
	}

	// .env is loaded relative to the root path, so it has to wait until the
	// file and env have had their say about root_path.
	if err := loadDotEnv(v.GetString("root_path")); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.File = readFile
	cfg.v = v

	if cfg.UnitDir == "" {
		cfg.UnitDir = filepath.Join(cfg.ModulesRoot, cfg.UnitName)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that the bootstrap cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ModulesRoot) == "" {
		errs = append(errs, errors.New("modules_root must be set"))
	}
	if strings.TrimSpace(c.UnitName) == "" {
		errs = append(errs, errors.New("unit_name must be set"))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("fetch_timeout must be positive, got %s", c.FetchTimeout))
	}
	if c.CloneTimeout <= 0 {
		errs = append(errs, fmt.Errorf("clone_timeout must be positive, got %s", c.CloneTimeout))
	}
	if c.CloneDepth < 0 {
		errs = append(errs, fmt.Errorf("clone_depth must not be negative, got %d", c.CloneDepth))
	}
	return errors.Join(errs...)
}

// Scope returns the named configuration section. A missing section yields a
// zero Scope.
func (c *Config) Scope(name string) Scope {
	var s Scope
	if c.v == nil || !c.v.IsSet(name) {
		return s
	}
	// A malformed section is treated like an absent one; the resolver only
	// cares whether a usable url or list is present.
	_ = c.v.UnmarshalKey(name, &s)
	return s
}

// GlobalScope returns the system-wide "defaults" section.
func (c *Config) GlobalScope() Scope { return c.Scope(GlobalScope) }

// ModuleScope returns the bootstrap unit's own section.
func (c *Config) ModuleScope() Scope { return c.Scope(c.UnitName) }

func setDefaults(v *viper.Viper) error {
	modulesRoot, err := userdata.GetModulesRoot()
	if err != nil {
		return err
	}
	rootPath, err := userdata.GetRootPath()
	if err != nil {
		return err
	}
	logDir, err := userdata.GetLogsDir()
	if err != nil {
		return err
	}

	v.SetDefault("modules_root", modulesRoot)
	v.SetDefault("root_path", rootPath)
	v.SetDefault("unit_name", branding.UnitName())
	v.SetDefault("unit_dir", "")
	v.SetDefault("fetch_timeout", DefaultFetchTimeout)
	v.SetDefault("clone_timeout", DefaultCloneTimeout)
	v.SetDefault("clone_depth", DefaultCloneDepth)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", logDir)
	v.SetDefault("adapter", "")
	return nil
}

// loadDotEnv merges <rootPath>/.env into the process environment without
// overriding variables that are already set.
func loadDotEnv(rootPath string) error {
	if rootPath == "" {
		return nil
	}
	path := filepath.Join(rootPath, userdata.DotEnvFile)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}
