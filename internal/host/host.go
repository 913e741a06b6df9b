package host

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/concierge/firstrun/internal/descriptor"
	"github.com/concierge/firstrun/internal/logging"
)

// ErrNotLoaded is returned when unloading a module that is not loaded.
var ErrNotLoaded = errors.New("module not loaded")

// Module is one discovered module directory.
type Module struct {
	Name       string
	Dir        string
	Descriptor *descriptor.Descriptor // nil when the directory has no readable descriptor
}

// Version returns the normalized declared version, or "".
func (m Module) Version() string {
	if m.Descriptor == nil {
		return ""
	}
	return m.Descriptor.Version.Normalize()
}

// Loader discovers and tracks modules under a root directory.
type Loader struct {
	fs   afero.Fs
	root string
	log  *log.Logger

	mu       sync.Mutex
	loaded   map[string]Module
	adapters []string
}

// NewLoader creates a loader over root. A nil fs means the OS filesystem.
func NewLoader(fsys afero.Fs, root string, logger *log.Logger) *Loader {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Loader{fs: fsys, root: root, log: logger, loaded: map[string]Module{}}
}

// Root returns the modules root.
func (l *Loader) Root() string { return l.root }

// Modules scans the root and returns modules sorted by name. Hidden
// directories and staging directories are ignored. A missing root has no
// modules.
func (l *Loader) Modules() ([]Module, error) {
	infos, err := afero.ReadDir(l.fs, l.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading modules directory: %w", err)
	}

	var mods []Module
	for _, info := range infos {
		name := info.Name()
		if !info.IsDir() || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".tmp") {
			continue
		}
		path := filepath.Join(l.root, name)
		d, err := descriptor.Read(l.fs, path)
		if err != nil {
			continue
		}
		mods = append(mods, Module{Name: name, Dir: path, Descriptor: d})
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i].Name < mods[j].Name })
	return mods, nil
}

// Count returns how many modules are installed, not counting the names in
// exclude.
func (l *Loader) Count(exclude ...string) (int, error) {
	mods, err := l.Modules()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range mods {
		if !slices.Contains(exclude, m.Name) {
			n++
		}
	}
	return n, nil
}

// LoadAllModules rescans the root and marks every module as loaded.
func (l *Loader) LoadAllModules(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mods, err := l.Modules()
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loaded = make(map[string]Module, len(mods))
	for _, m := range mods {
		l.loaded[m.Name] = m
		v := m.Version()
		if v == "" {
			v = "version unknown"
		}
		l.log.Info("Loaded module", "module", m.Name, "version", v)
	}
	l.log.Info("Modules loaded", "count", len(mods))
	return nil
}

// UnloadModule drops name from the loaded set. It returns once the module is
// no longer loaded.
func (l *Loader) UnloadModule(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.loaded[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotLoaded, name)
	}
	delete(l.loaded, name)
	l.log.Info("Unloaded module", "module", name)
	return nil
}

// Load marks a single module as loaded, e.g. the running bootstrap unit.
func (l *Loader) Load(m Module) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loaded[m.Name] = m
}

// Loaded returns the names of loaded modules, sorted.
func (l *Loader) Loaded() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, 0, len(l.loaded))
	for name := range l.loaded {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StartAdapter records that the named integration was started.
func (l *Loader) StartAdapter(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return errors.New("adapter name is empty")
	}
	l.mu.Lock()
	l.adapters = append(l.adapters, name)
	l.mu.Unlock()
	l.log.Info("Started integration", "adapter", name)
	return nil
}

// Adapters returns the adapters started so far, in order.
func (l *Loader) Adapters() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.adapters...)
}
