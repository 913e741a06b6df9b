package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/concierge/firstrun/internal/defaults"
	"github.com/concierge/firstrun/internal/installer"
	"github.com/concierge/firstrun/internal/logging"
)

// ErrNoDefaults is returned by Run when no source yields a defaults list.
var ErrNoDefaults = defaults.ErrNoDefaults

// CleanupTimeout bounds unload, reload and adapter start after installs.
const CleanupTimeout = time.Minute

// ErrAlreadyRan is returned when Run is called a second time.
var ErrAlreadyRan = errors.New("bootstrap has already run")

// Host is the module system the unit runs inside.
type Host interface {
	// UnloadModule returns once name is no longer loaded.
	UnloadModule(ctx context.Context, name string) error
	LoadAllModules(ctx context.Context) error
}

// AdapterStarter is implemented by hosts that can start an integration
// after modules are reloaded.
type AdapterStarter interface {
	StartAdapter(ctx context.Context, name string) error
}

// Resolver produces the defaults list.
type Resolver interface {
	Resolve(ctx context.Context) (*defaults.Resolution, error)
}

// Installer installs a batch of entries.
type Installer interface {
	InstallAll(ctx context.Context, entries []defaults.Entry) []installer.Outcome
}

// Options configures a Controller.
type Options struct {
	Resolver  Resolver
	Installer Installer
	Host      Host
	FS        afero.Fs

	// UnitName is the name the host knows the bootstrap unit by.
	UnitName string
	// UnitDir is the unit's own directory, removed during cleanup.
	UnitDir string
	// Adapter is started after reload when set and the host supports it.
	Adapter string
	// DryRun stops after resolving and reports the entries.
	DryRun bool

	Logger *log.Logger
}

// Report summarizes a run.
type Report struct {
	RunID    string
	Source   string
	Entries  []defaults.Entry
	Outcomes []installer.Outcome
}

// Installed counts the successful installs.
func (r *Report) Installed() int { return installer.Succeeded(r.Outcomes) }

// Controller runs the first-run sequence once.
type Controller struct {
	opts  Options
	runID string
	log   *log.Logger

	state atomic.Int32

	mu      sync.Mutex
	history []State
}

// New creates a controller in StateIdle.
func New(opts Options) *Controller {
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	id := uuid.NewString()
	c := &Controller{
		opts:    opts,
		runID:   id,
		log:     logger.With("run", id),
		history: []State{StateIdle},
	}
	c.state.Store(int32(StateIdle))
	return c
}

// RunID identifies this controller's run in logs.
func (c *Controller) RunID() string { return c.runID }

// State returns the current state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Transitions returns every state entered so far, starting with StateIdle.
func (c *Controller) Transitions() []State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]State(nil), c.history...)
}

// Run executes the sequence. It returns ErrNoDefaults when nothing could be
// resolved, in which case nothing is installed and the unit stays loaded.
// Per-entry install failures are reported in the Report, not as an error.
func (c *Controller) Run(ctx context.Context) (*Report, error) {
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateResolvingDefaults)) {
		return nil, fmt.Errorf("%w (state: %s)", ErrAlreadyRan, c.State())
	}
	c.record(StateResolvingDefaults)

	report := &Report{RunID: c.runID}

	res, err := c.opts.Resolver.Resolve(ctx)
	if err != nil {
		c.transition(StateAborted)
		if errors.Is(err, defaults.ErrNoDefaults) {
			c.log.Error("No defaults list is available to install.")
			return report, ErrNoDefaults
		}
		c.log.Error("Resolving defaults", "err", err)
		return report, fmt.Errorf("resolving defaults: %w", err)
	}
	report.Source = res.Source
	report.Entries = res.Entries

	if c.opts.DryRun {
		for _, e := range res.Entries {
			c.log.Info("Would install module", "name", e.Name, "source", e.Source)
		}
		c.transition(StateDone)
		return report, nil
	}

	c.transition(StateInstalling)
	report.Outcomes = c.opts.Installer.InstallAll(ctx, res.Entries)

	c.transition(StateCleanup)
	// Cleanup must hand control back to the host even after an interrupt
	// during installs, so it ignores run cancellation but stays bounded.
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), CleanupTimeout)
	defer cancel()
	err = c.cleanup(cleanupCtx)
	c.transition(StateDone)
	return report, err
}

// cleanup unloads the unit, deletes its directory, reloads the host and
// starts the adapter. Only a failed reload is returned; everything else is
// logged.
func (c *Controller) cleanup(ctx context.Context) error {
	unloaded := true
	if err := c.opts.Host.UnloadModule(ctx, c.opts.UnitName); err != nil {
		unloaded = false
		c.log.Warn("Unloading bootstrap unit", "unit", c.opts.UnitName, "err", err)
	}

	switch {
	case !unloaded:
		c.log.Warn("Keeping bootstrap unit directory while it is still loaded", "dir", c.opts.UnitDir)
	case !safeToDelete(c.opts.UnitDir):
		c.log.Warn("Refusing to delete bootstrap unit directory", "dir", c.opts.UnitDir)
	default:
		if err := c.opts.FS.RemoveAll(c.opts.UnitDir); err != nil {
			c.log.Error("Deleting bootstrap unit directory", "dir", c.opts.UnitDir, "err", err)
		} else {
			c.log.Debug("Deleted bootstrap unit directory", "dir", c.opts.UnitDir)
		}
	}

	if err := c.opts.Host.LoadAllModules(ctx); err != nil {
		c.log.Error("Reloading modules", "err", err)
		return fmt.Errorf("reloading modules: %w", err)
	}

	if c.opts.Adapter == "" {
		return nil
	}
	starter, ok := c.opts.Host.(AdapterStarter)
	if !ok {
		c.log.Debug("Host cannot start adapters", "adapter", c.opts.Adapter)
		return nil
	}
	if err := starter.StartAdapter(ctx, c.opts.Adapter); err != nil {
		c.log.Error("Starting adapter", "adapter", c.opts.Adapter, "err", err)
	}
	return nil
}

func (c *Controller) transition(s State) {
	c.state.Store(int32(s))
	c.record(s)
	c.log.Debug("State changed", "state", s)
}

func (c *Controller) record(s State) {
	c.mu.Lock()
	c.history = append(c.history, s)
	c.mu.Unlock()
}

// safeToDelete rejects empty paths and filesystem roots.
func safeToDelete(dir string) bool {
	if dir == "" {
		return false
	}
	clean := filepath.Clean(dir)
	return clean != "." && clean != string(filepath.Separator) && filepath.Dir(clean) != clean
}
