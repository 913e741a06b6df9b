//go:build integration

package integration_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	HomeDir     string // CONCIERGE_HOME, also the root path holding defaults.json
	ModulesRoot string // <home>/modules
	SourcesDir  string // local git repositories to clone from
}

// setupTestEnv creates isolated temp directories and sets environment variables
// so every first-run operation is sandboxed. The env vars are restored after the test.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	env := &testEnv{
		HomeDir:    t.TempDir(),
		SourcesDir: t.TempDir(),
	}
	env.ModulesRoot = filepath.Join(env.HomeDir, "modules")

	t.Setenv("CONCIERGE_HOME", env.HomeDir)
	t.Setenv("CONCIERGE_DEFAULTS", "")
	t.Setenv("CONCIERGE_DEFAULTS_URL", "")

	return env
}

// createSourceRepo creates a git repository named name holding a single
// descriptor file and returns its file:// URL.
func createSourceRepo(t *testing.T, env *testEnv, name, descriptorFile, descriptor string) string {
	t.Helper()

	dir := filepath.Join(env.SourcesDir, name)
	writeFile(t, filepath.Join(dir, descriptorFile), descriptor)

	git(t, dir, "init", "--quiet")
	git(t, dir, "add", ".")
	git(t, dir, "commit", "--quiet", "-m", "initial")
	return "file://" + filepath.ToSlash(dir)
}

func git(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", append([]string{
		"-c", "user.email=test@example.com",
		"-c", "user.name=test",
		"-c", "commit.gpgsign=false",
		"-c", "init.defaultBranch=main",
	}, args...)...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
}

// writeFile creates a file with the given content, creating parent dirs.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// assertFileExists fails the test if path does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected %s to exist: %v", path, err)
	}
}

// assertNotExists fails the test if path exists.
func assertNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected %s to not exist", path)
	}
}
