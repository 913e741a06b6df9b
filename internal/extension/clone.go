package extension

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/concierge/firstrun/internal/userdata"
)

// tmpSuffix ends the name of every staging directory.
const tmpSuffix = ".tmp"

// ErrExists is returned when the destination directory is already present.
var ErrExists = errors.New("destination already exists")

// Cloner copies a module repository from source into dest.
type Cloner interface {
	Clone(ctx context.Context, source, dest string) error
}

// GitCloner clones with the git binary found on PATH.
type GitCloner struct {
	// Depth is passed as --depth when positive. Zero means a full clone.
	Depth int
	// Branch selects a branch with -b. Empty means the remote HEAD.
	Branch string
	// Git overrides the git executable. Empty means "git".
	Git string
}

// NewGitCloner returns a shallow cloner with the given depth.
func NewGitCloner(depth int) *GitCloner {
	return &GitCloner{Depth: depth}
}

// Clone runs git clone into dest. Cancelling ctx kills git and removes the
// partial clone.
func (g *GitCloner) Clone(ctx context.Context, source, dest string) error {
	if err := g.ensureGit(); err != nil {
		return err
	}
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, dest)
	}

	if err := os.MkdirAll(filepath.Dir(dest), userdata.DirPermNormal); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}
	// Each clone stages in its own hidden directory, so concurrent clones
	// aimed at the same dest cannot clobber each other.
	stage, err := os.MkdirTemp(filepath.Dir(dest), "."+filepath.Base(dest)+"-*"+tmpSuffix)
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	tmpDir := filepath.Join(stage, "repo")

	cmd := exec.CommandContext(ctx, g.git(), g.args(source, tmpDir)...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	output, err := cmd.CombinedOutput()
	if err != nil {
		_ = os.RemoveAll(stage)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("git clone %s: %w", source, ctxErr)
		}
		return fmt.Errorf("git clone %s: %w\n%s", source, err, strings.TrimSpace(string(output)))
	}

	// Rename refuses a non-empty dest, so the first clone to finish wins.
	err = os.Rename(tmpDir, dest)
	_ = os.RemoveAll(stage)
	if err != nil {
		if _, statErr := os.Stat(dest); statErr == nil {
			return fmt.Errorf("%w: %s", ErrExists, dest)
		}
		return fmt.Errorf("finalizing clone: %w", err)
	}
	return nil
}

func (g *GitCloner) args(source, target string) []string {
	args := []string{"clone", "--quiet"}
	if g.Depth > 0 {
		args = append(args, "--depth="+strconv.Itoa(g.Depth))
	}
	if g.Branch != "" {
		args = append(args, "-b", g.Branch)
	}
	return append(args, "--", source, target)
}

func (g *GitCloner) git() string {
	if g.Git != "" {
		return g.Git
	}
	return "git"
}

// ensureGit checks that git is available on PATH.
func (g *GitCloner) ensureGit() error {
	if _, err := exec.LookPath(g.git()); err != nil {
		return fmt.Errorf("git is required but not found in PATH")
	}
	return nil
}
