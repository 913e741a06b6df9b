package installer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"github.com/spf13/afero"

	"github.com/concierge/firstrun/internal/defaults"
	"github.com/concierge/firstrun/internal/descriptor"
	"github.com/concierge/firstrun/internal/extension"
	"github.com/concierge/firstrun/internal/logging"
)

// ErrInvalidEntry marks an entry that was rejected before cloning.
var ErrInvalidEntry = errors.New("invalid install entry")

// Outcome is the result of installing one entry.
type Outcome struct {
	Entry   defaults.Entry
	Success bool
	// Version is the normalized declared version, or "" when the module has
	// no readable descriptor or declares no version.
	Version string
	Err     error
}

// Options configures an Installer.
type Options struct {
	Cloner      extension.Cloner
	FS          afero.Fs // where installed descriptors are read; nil means the OS
	ModulesRoot string
	Logger      *log.Logger
	// CloneTimeout bounds each clone. Zero means no limit beyond ctx.
	CloneTimeout time.Duration
}

// Installer places modules under a modules root.
type Installer struct {
	cloner       extension.Cloner
	fs           afero.Fs
	root         string
	log          *log.Logger
	cloneTimeout time.Duration
}

// New creates an Installer.
func New(opts Options) *Installer {
	in := &Installer{
		cloner:       opts.Cloner,
		fs:           opts.FS,
		root:         opts.ModulesRoot,
		log:          opts.Logger,
		cloneTimeout: opts.CloneTimeout,
	}
	if in.fs == nil {
		in.fs = afero.NewOsFs()
	}
	if in.log == nil {
		in.log = logging.Discard()
	}
	return in
}

// Dest is the directory an entry is installed into.
func (in *Installer) Dest(e defaults.Entry) string {
	return filepath.Join(in.root, e.Name)
}

// InstallOne clones a single entry. Failures are logged and reported in the
// outcome; InstallOne itself never fails.
func (in *Installer) InstallOne(ctx context.Context, e defaults.Entry) Outcome {
	in.log.Infof("Attempting to install module from %q", e.Source)

	if err := e.Validate(); err != nil {
		return in.fail(e, fmt.Errorf("%w: %v", ErrInvalidEntry, err))
	}
	if in.cloner == nil {
		return in.fail(e, errors.New("no cloner configured"))
	}

	cloneCtx := ctx
	if in.cloneTimeout > 0 {
		var cancel context.CancelFunc
		cloneCtx, cancel = context.WithTimeout(ctx, in.cloneTimeout)
		defer cancel()
	}

	dest := in.Dest(e)
	if err := in.cloner.Clone(cloneCtx, e.Source, dest); err != nil {
		return in.fail(e, err)
	}

	out := Outcome{Entry: e, Success: true}
	d, err := descriptor.Read(in.fs, dest)
	switch {
	case err == nil && d.Version.Known():
		out.Version = d.Version.Normalize()
		in.log.Infof("%q (%s) is now installed.", e.Name, out.Version)
	case err != nil && !errors.Is(err, descriptor.ErrNotFound):
		in.log.Warn("Reading module descriptor", "module", e.Name, "err", err)
		fallthrough
	default:
		in.log.Infof("%q (version unknown) is now installed.", e.Name)
	}
	return out
}

// InstallAll installs every entry concurrently and waits for all of them.
// Outcomes are index-aligned with entries. A panic while installing an entry
// is reported as that entry's failure.
func (in *Installer) InstallAll(ctx context.Context, entries []defaults.Entry) []Outcome {
	outcomes := make([]Outcome, len(entries))

	var wg conc.WaitGroup
	for i, e := range entries {
		wg.Go(func() {
			var pc panics.Catcher
			pc.Try(func() { outcomes[i] = in.InstallOne(ctx, e) })
			if r := pc.Recovered(); r != nil {
				outcomes[i] = in.fail(e, fmt.Errorf("install panicked: %v", r.Value))
			}
		})
	}
	wg.Wait()

	installed := Succeeded(outcomes)
	in.log.Info("Install finished", "installed", installed, "failed", len(outcomes)-installed)
	return outcomes
}

func (in *Installer) fail(e defaults.Entry, err error) Outcome {
	in.log.Error(fmt.Sprintf("Failed to install module from %q", e.Source), "err", err)
	return Outcome{Entry: e, Err: err}
}

// Succeeded counts successful outcomes.
func Succeeded(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Success {
			n++
		}
	}
	return n
}
