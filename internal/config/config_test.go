package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every CONCIERGE_* location at a fresh temp home.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("CONCIERGE_HOME", home)
	for _, k := range []string{
		"CONCIERGE_MODULES_ROOT", "CONCIERGE_ROOT", "CONCIERGE_UNIT_DIR",
		"CONCIERGE_LOG_LEVEL", "CONCIERGE_FETCH_TIMEOUT", "CONCIERGE_CLONE_TIMEOUT",
		"CONCIERGE_ADAPTER",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return home
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "modules"), cfg.ModulesRoot)
	assert.Equal(t, home, cfg.RootPath)
	assert.Equal(t, "firstrun", cfg.UnitName)
	assert.Equal(t, filepath.Join(home, "modules", "firstrun"), cfg.UnitDir)
	assert.Equal(t, DefaultFetchTimeout, cfg.FetchTimeout)
	assert.Equal(t, DefaultCloneTimeout, cfg.CloneTimeout)
	assert.Equal(t, "", cfg.File)
	assert.Equal(t, Scope{}, cfg.GlobalScope())
}

func TestLoad_FileAndScopes(t *testing.T) {
	home := isolate(t)
	content := `modules_root: /srv/modules
fetch_timeout: 5s
log_level: debug
adapter: slack
defaults:
  url: https://example.com/Defaults.md
  list:
    - ["https://example.com/a.git", "a"]
firstrun:
  url: https://example.com/module.md
`
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte(content), 0o644))

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "config.yaml"), cfg.File)
	assert.Equal(t, "/srv/modules", cfg.ModulesRoot)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "slack", cfg.Adapter)

	global := cfg.GlobalScope()
	assert.Equal(t, "https://example.com/Defaults.md", global.URL)
	assert.Equal(t, [][]string{{"https://example.com/a.git", "a"}}, global.List)

	module := cfg.ModuleScope()
	assert.Equal(t, "https://example.com/module.md", module.URL)
	assert.Empty(t, module.List)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	home := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("modules_root: /from/file\n"), 0o644))
	t.Setenv("CONCIERGE_MODULES_ROOT", "/from/env")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.ModulesRoot)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	isolate(t)
	_, err := Load(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestLoad_BrokenFile(t *testing.T) {
	home := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("modules_root: [unterminated\n"), 0o644))

	_, err := Load(LoadOptions{})
	assert.Error(t, err)
}

func TestLoad_DotEnv(t *testing.T) {
	home := isolate(t)
	t.Setenv("CONCIERGE_DEFAULTS", "")
	os.Unsetenv("CONCIERGE_DEFAULTS")
	require.NoError(t, os.WriteFile(filepath.Join(home, ".env"),
		[]byte(`CONCIERGE_DEFAULTS='[["https://example.com/env.git","env"]]'`+"\n"), 0o644))

	_, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, `[["https://example.com/env.git","env"]]`, os.Getenv("CONCIERGE_DEFAULTS"))
}

func TestValidate(t *testing.T) {
	cfg := &Config{ModulesRoot: "/m", UnitName: "firstrun", FetchTimeout: time.Second, CloneTimeout: time.Second}
	assert.NoError(t, cfg.Validate())

	bad := &Config{CloneDepth: -1}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "modules_root")
	assert.Contains(t, err.Error(), "fetch_timeout")
	assert.Contains(t, err.Error(), "clone_depth")
}
