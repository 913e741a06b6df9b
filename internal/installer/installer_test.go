package installer

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concierge/firstrun/internal/defaults"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testLogger() (*log.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return log.NewWithOptions(buf, log.Options{Level: log.DebugLevel}), buf
}

// fakeCloner writes a descriptor into fs for each source it knows.
type fakeCloner struct {
	fs          afero.Fs
	descriptors map[string]string // source -> kassy.json content, "" for none
	errs        map[string]error
	panics      map[string]bool
	gates       map[string]chan struct{}
	started     chan string
}

func (f *fakeCloner) Clone(ctx context.Context, source, dest string) error {
	if f.started != nil {
		f.started <- source
	}
	if g, ok := f.gates[source]; ok {
		select {
		case <-g:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.panics[source] {
		panic("boom")
	}
	if err := f.errs[source]; err != nil {
		return err
	}
	if err := f.fs.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	if content := f.descriptors[source]; content != "" {
		return afero.WriteFile(f.fs, filepath.Join(dest, "kassy.json"), []byte(content), 0o644)
	}
	return nil
}

const root = "/modules"

func newTestInstaller(c *fakeCloner, logger *log.Logger) *Installer {
	return New(Options{Cloner: c, FS: c.fs, ModulesRoot: root, Logger: logger})
}

func TestInstallOne(t *testing.T) {
	tests := []struct {
		name       string
		descriptor string
		wantVer    string
		wantLog    string
	}{
		{"numeric version padded", `{"version":2}`, "2.0.0", `"help" (2.0.0) is now installed.`},
		{"string version verbatim", `{"version":"1.2"}`, "1.2", `"help" (1.2) is now installed.`},
		{"null version", `{"version":null}`, "", `"help" (version unknown) is now installed.`},
		{"no descriptor", "", "", `"help" (version unknown) is now installed.`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			c := &fakeCloner{fs: fs, descriptors: map[string]string{"https://x/help.git": tt.descriptor}}
			logger, buf := testLogger()

			out := newTestInstaller(c, logger).InstallOne(context.Background(), defaults.Entry{Source: "https://x/help.git", Name: "help"})
			require.True(t, out.Success, "err: %v", out.Err)
			assert.Equal(t, tt.wantVer, out.Version)
			assert.Contains(t, buf.String(), `Attempting to install module from "https://x/help.git"`)
			assert.Contains(t, buf.String(), tt.wantLog)

			exists, err := afero.DirExists(fs, "/modules/help")
			require.NoError(t, err)
			assert.True(t, exists)
		})
	}
}

func TestInstallOne_CloneFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	cloneErr := errors.New("repository not found")
	c := &fakeCloner{fs: fs, errs: map[string]error{"https://x/bad.git": cloneErr}}
	logger, buf := testLogger()

	out := newTestInstaller(c, logger).InstallOne(context.Background(), defaults.Entry{Source: "https://x/bad.git", Name: "bad"})
	assert.False(t, out.Success)
	assert.ErrorIs(t, out.Err, cloneErr)
	assert.Contains(t, buf.String(), `Failed to install module from "https://x/bad.git"`)
	assert.NotContains(t, buf.String(), "is now installed")
}

func TestInstallOne_InvalidEntries(t *testing.T) {
	entries := []defaults.Entry{
		{Source: "", Name: "a"},
		{Source: "https://x/a.git", Name: ""},
		{Source: "https://x/a.git", Name: "../escape"},
		{Source: "https://x/a.git", Name: ".."},
	}
	for _, e := range entries {
		t.Run(e.String(), func(t *testing.T) {
			c := &fakeCloner{fs: afero.NewMemMapFs()}
			out := newTestInstaller(c, nil).InstallOne(context.Background(), e)
			assert.False(t, out.Success)
			assert.ErrorIs(t, out.Err, ErrInvalidEntry)
		})
	}
}

func TestInstallOne_CloneTimeout(t *testing.T) {
	fs := afero.NewMemMapFs()
	c := &fakeCloner{fs: fs, gates: map[string]chan struct{}{"https://x/slow.git": make(chan struct{})}}
	in := New(Options{Cloner: c, FS: fs, ModulesRoot: root, CloneTimeout: 20 * time.Millisecond})

	out := in.InstallOne(context.Background(), defaults.Entry{Source: "https://x/slow.git", Name: "slow"})
	assert.False(t, out.Success)
	assert.ErrorIs(t, out.Err, context.DeadlineExceeded)
}

func TestInstallAll_JoinsAfterSlowest(t *testing.T) {
	fs := afero.NewMemMapFs()
	slow := make(chan struct{})
	c := &fakeCloner{
		fs: fs,
		descriptors: map[string]string{
			"https://x/a.git": `{"version":1}`,
			"https://x/c.git": `{"version":"3.1.4"}`,
		},
		errs:    map[string]error{"https://x/b.git": errors.New("auth required")},
		gates:   map[string]chan struct{}{"https://x/c.git": slow},
		started: make(chan string, 3),
	}
	logger, buf := testLogger()
	entries := []defaults.Entry{
		{Source: "https://x/a.git", Name: "a"},
		{Source: "https://x/b.git", Name: "b"},
		{Source: "https://x/c.git", Name: "c"},
	}

	done := make(chan []Outcome, 1)
	go func() { done <- newTestInstaller(c, logger).InstallAll(context.Background(), entries) }()

	for range entries {
		select {
		case <-c.started:
		case <-time.After(5 * time.Second):
			t.Fatal("entries were not started concurrently")
		}
	}
	select {
	case <-done:
		t.Fatal("InstallAll returned before the slowest entry finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(slow)
	var outcomes []Outcome
	select {
	case outcomes = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("InstallAll did not return")
	}

	require.Len(t, outcomes, 3)
	for i, o := range outcomes {
		assert.Equal(t, entries[i], o.Entry)
	}
	assert.True(t, outcomes[0].Success)
	assert.Equal(t, "1.0.0", outcomes[0].Version)
	assert.False(t, outcomes[1].Success)
	assert.True(t, outcomes[2].Success)
	assert.Equal(t, "3.1.4", outcomes[2].Version)
	assert.Equal(t, 2, Succeeded(outcomes))

	logs := buf.String()
	assert.Contains(t, logs, `"a" (1.0.0) is now installed.`)
	assert.Contains(t, logs, `Failed to install module from "https://x/b.git"`)
	assert.Contains(t, logs, `"c" (3.1.4) is now installed.`)
	assert.Contains(t, logs, "installed=2")
	assert.Contains(t, logs, "failed=1")
}

func TestInstallAll_RecoversPanics(t *testing.T) {
	fs := afero.NewMemMapFs()
	c := &fakeCloner{
		fs:          fs,
		descriptors: map[string]string{"https://x/ok.git": `{"version":"1.0.0"}`},
		panics:      map[string]bool{"https://x/panic.git": true},
	}
	entries := []defaults.Entry{
		{Source: "https://x/panic.git", Name: "panic"},
		{Source: "https://x/ok.git", Name: "ok"},
	}

	outcomes := newTestInstaller(c, nil).InstallAll(context.Background(), entries)
	require.Len(t, outcomes, 2)
	assert.False(t, outcomes[0].Success)
	assert.ErrorContains(t, outcomes[0].Err, "panicked")
	assert.Equal(t, entries[0], outcomes[0].Entry)
	assert.True(t, outcomes[1].Success)
}

func TestInstallAll_Empty(t *testing.T) {
	c := &fakeCloner{fs: afero.NewMemMapFs()}
	assert.Empty(t, newTestInstaller(c, nil).InstallAll(context.Background(), nil))
}
