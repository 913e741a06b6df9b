package defaults

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/concierge/firstrun/internal/branding"
	"github.com/concierge/firstrun/internal/config"
	"github.com/concierge/firstrun/internal/logging"
)

var (
	// ErrNoDefaults means every source in the chain came up empty.
	ErrNoDefaults = errors.New("no defaults list is available to install")
	// ErrSourceUnavailable marks a single source that could not be read or
	// parsed. The resolver recovers from it by moving on.
	ErrSourceUnavailable = errors.New("defaults source unavailable")
)

// Source names, in chain order.
const (
	SourceBundled = "bundled file"
	SourceGlobal  = "global config"
	SourceModule  = "module config"
	SourceEnv     = "environment"
	SourceRemote  = "remote document"
)

// Lookup is one candidate source. Find returns no entries (and no error)
// when the source is simply absent.
type Lookup struct {
	Name string
	Find func(ctx context.Context) ([]Entry, error)
}

// Resolution is the winning source and its entries.
type Resolution struct {
	Source  string
	Entries []Entry
}

// Resolver walks a chain of lookups in order and stops at the first one
// yielding a non-empty list. Later lookups are never called once an earlier
// one succeeds.
type Resolver struct {
	lookups []Lookup
	log     *log.Logger
}

// NewResolver creates a resolver over lookups. A nil logger discards output.
func NewResolver(logger *log.Logger, lookups ...Lookup) *Resolver {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Resolver{lookups: lookups, log: logger}
}

// Resolve returns the first non-empty install list, or ErrNoDefaults.
func (r *Resolver) Resolve(ctx context.Context) (*Resolution, error) {
	for _, l := range r.lookups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := l.Find(ctx)
		if err != nil {
			r.log.Debug("Skipping defaults source", "source", l.Name, "err", err)
			continue
		}
		if len(entries) == 0 {
			r.log.Debug("Defaults source is empty", "source", l.Name)
			continue
		}
		r.log.Info("Using defaults list", "source", l.Name, "modules", len(entries))
		return &Resolution{Source: l.Name, Entries: entries}, nil
	}
	return nil, ErrNoDefaults
}

// Sources describes where the standard chain looks.
type Sources struct {
	// FS is used to read BundledFile. Nil means the OS filesystem.
	FS afero.Fs
	// BundledFile is the defaults.json shipped with the installation.
	BundledFile string
	// Global and Module are the "defaults" scope and the unit's own scope.
	Global config.Scope
	Module config.Scope
	// Getenv reads environment variables. Nil means os.Getenv.
	Getenv func(string) string
	// Fetcher retrieves the remote document. Nil disables the remote source.
	Fetcher Fetcher
	// DefaultURL is the last-resort remote document. Empty means the
	// branding default.
	DefaultURL string
}

// Lookups returns the standard chain: bundled file, global scope list,
// module scope list, CONCIERGE_DEFAULTS, remote document.
func (s Sources) Lookups() []Lookup {
	return []Lookup{
		{Name: SourceBundled, Find: s.bundled},
		{Name: SourceGlobal, Find: func(context.Context) ([]Entry, error) { return FromRows(s.Global.List), nil }},
		{Name: SourceModule, Find: func(context.Context) ([]Entry, error) { return FromRows(s.Module.List), nil }},
		{Name: SourceEnv, Find: s.env},
		{Name: SourceRemote, Find: s.remote},
	}
}

// RemoteURL picks the remote document location: global scope url, module
// scope url, CONCIERGE_DEFAULTS_URL, then the built-in default.
func (s Sources) RemoteURL() string {
	candidates := []func() string{
		func() string { return s.Global.URL },
		func() string { return s.Module.URL },
		func() string { return envURL(s.getenv(branding.EnvVar("DEFAULTS_URL"))) },
		func() string {
			if s.DefaultURL != "" {
				return s.DefaultURL
			}
			return branding.DefaultsURL()
		},
	}
	for _, c := range candidates {
		if u := strings.TrimSpace(c()); u != "" {
			return u
		}
	}
	return ""
}

func (s Sources) bundled(context.Context) ([]Entry, error) {
	if s.BundledFile == "" {
		return nil, nil
	}
	fsys := s.FS
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	data, err := afero.ReadFile(fsys, s.BundledFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrSourceUnavailable, s.BundledFile, err)
	}
	entries, err := DecodeList(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, s.BundledFile, err)
	}
	return entries, nil
}

func (s Sources) env(context.Context) ([]Entry, error) {
	key := branding.EnvVar("DEFAULTS")
	raw := strings.TrimSpace(s.getenv(key))
	if raw == "" {
		return nil, nil
	}
	entries, err := DecodeList([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, key, err)
	}
	return entries, nil
}

func (s Sources) remote(ctx context.Context) ([]Entry, error) {
	if s.Fetcher == nil {
		return nil, fmt.Errorf("%w: no fetcher configured", ErrSourceUnavailable)
	}
	url := s.RemoteURL()
	body, err := s.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return ParseTable(body), nil
}

func (s Sources) getenv(key string) string {
	if s.Getenv != nil {
		return s.Getenv(key)
	}
	return os.Getenv(key)
}

// envURL accepts the URL either bare or as a JSON string literal.
func envURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return ""
		}
		return s
	}
	return raw
}
