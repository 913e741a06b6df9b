package userdata

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func testLayout(t *testing.T) Layout {
	t.Helper()
	home := t.TempDir()
	return Layout{
		Home:        home,
		RootPath:    home,
		ModulesRoot: filepath.Join(home, ModulesDir),
		LogsDir:     filepath.Join(home, LogsDir),
	}
}

func gitProblems() int {
	if _, err := exec.LookPath("git"); err != nil {
		return 1
	}
	return 0
}

func TestCheckInstallationReportsMissingDirs(t *testing.T) {
	l := testLayout(t)
	var buf bytes.Buffer

	got := CheckInstallation(&buf, l, false)
	if want := 2 + gitProblems(); got != want {
		t.Errorf("problems = %d, want %d\n%s", got, want, buf.String())
	}
	if !strings.Contains(buf.String(), "[MISS] "+l.ModulesRoot) {
		t.Errorf("output missing modules root report:\n%s", buf.String())
	}
	if _, err := os.Stat(l.ModulesRoot); !os.IsNotExist(err) {
		t.Error("check without fix must not create directories")
	}
}

func TestCheckInstallationFix(t *testing.T) {
	l := testLayout(t)
	var buf bytes.Buffer

	got := CheckInstallation(&buf, l, true)
	if want := gitProblems(); got != want {
		t.Errorf("problems = %d, want %d\n%s", got, want, buf.String())
	}
	for _, dir := range []string{l.ModulesRoot, l.LogsDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("expected %s to be created", dir)
		}
	}
}

func TestCheckInstallationEnvPerms(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on Windows")
	}
	l := testLayout(t)
	envPath := filepath.Join(l.RootPath, DotEnvFile)
	if err := os.WriteFile(envPath, []byte("CONCIERGE_DEFAULTS=[]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer

	CheckInstallation(&buf, l, true)
	info, err := os.Stat(envPath)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != FilePermSecure {
		t.Errorf(".env permissions = %o, want %o", perm, FilePermSecure)
	}
}
