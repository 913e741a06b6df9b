package userdata

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// Layout is the set of locations a first run touches.
type Layout struct {
	Home        string
	RootPath    string
	ModulesRoot string
	LogsDir     string
}

// CheckInstallation validates the directory layout and reports each finding
// to w. When fix is true, missing directories are created and a readable
// .env is tightened to owner-only. It returns the number of problems left.
func CheckInstallation(w io.Writer, l Layout, fix bool) int {
	fmt.Fprintln(w, "Installation check:")

	problems := 0
	if !checkDirExists(w, l.Home, fix) {
		problems++
	}
	if !checkDirExists(w, l.ModulesRoot, fix) {
		problems++
	}
	if !checkDirExists(w, l.LogsDir, fix) {
		problems++
	}
	checkFileExists(w, BundledDefaultsPath(l.RootPath))
	if !checkEnvFilePerms(w, filepath.Join(l.RootPath, DotEnvFile), fix) {
		problems++
	}
	if !checkGit(w) {
		problems++
	}
	return problems
}

func checkDirExists(w io.Writer, path string, fix bool) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		fmt.Fprintf(w, "  [MISS] %s does not exist\n", path)
		if !fix {
			return false
		}
		if mkErr := os.MkdirAll(path, DirPermNormal); mkErr != nil {
			fmt.Fprintf(w, "  [FAIL] Could not create %s: %v\n", path, mkErr)
			return false
		}
		fmt.Fprintf(w, "  [FIX ] Created %s\n", path)
		return true
	}
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %s: %v\n", path, err)
		return false
	}
	if !info.IsDir() {
		fmt.Fprintf(w, "  [WARN] %s exists but is not a directory\n", path)
		return false
	}
	fmt.Fprintf(w, "  [ OK ] %s exists\n", path)
	return true
}

// checkFileExists only reports; an absent file is not a problem.
func checkFileExists(w io.Writer, path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(w, "  [ -- ] %s not present\n", path)
		return
	}
	fmt.Fprintf(w, "  [ OK ] %s exists\n", path)
}

func checkEnvFilePerms(w io.Writer, path string, fix bool) bool {
	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	perm := info.Mode().Perm()
	if perm&0o077 == 0 {
		fmt.Fprintf(w, "  [ OK ] %s (permissions %o)\n", path, perm)
		return true
	}
	fmt.Fprintf(w, "  [WARN] %s has permissions %o (expected %o)\n", path, perm, FilePermSecure)
	if !fix {
		return false
	}
	if chErr := os.Chmod(path, FilePermSecure); chErr != nil {
		fmt.Fprintf(w, "  [FAIL] Could not fix permissions on %s: %v\n", path, chErr)
		return false
	}
	fmt.Fprintf(w, "  [FIX ] Fixed permissions on %s to %o\n", path, FilePermSecure)
	return true
}

func checkGit(w io.Writer) bool {
	path, err := exec.LookPath("git")
	if err != nil {
		fmt.Fprintln(w, "  [FAIL] git not found in PATH (required to install modules)")
		return false
	}
	fmt.Fprintf(w, "  [ OK ] git found at %s\n", path)
	return true
}
