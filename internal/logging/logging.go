// Package logging builds the structured logger shared by every bootstrap
// component. Output goes to stderr and, when a log directory is given, to a
// timestamped file so a failed first run can be inspected afterwards.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Options controls logger construction.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// Prefix is printed before every line.
	Prefix string
	// Dir, if set, receives a firstrun-<ts>.log copy of everything logged.
	Dir string
	// Out overrides stderr. Mostly useful in tests.
	Out io.Writer
}

// Logger wraps a charmbracelet logger together with the file it tees to.
type Logger struct {
	*log.Logger
	file *os.File
}

// New creates a logger according to opts.
func New(opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	var file *os.File
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		name := fmt.Sprintf("firstrun-%s.log", time.Now().Format("20060102-150405"))
		file, err = os.Create(filepath.Join(opts.Dir, name))
		if err != nil {
			return nil, fmt.Errorf("creating log file: %w", err)
		}
		out = io.MultiWriter(out, file)
	}

	l := log.NewWithOptions(out, log.Options{
		Prefix:          opts.Prefix,
		Level:           level,
		ReportTimestamp: true,
	})
	return &Logger{Logger: l, file: file}, nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// ParseLevel maps a config string onto a log level.
func ParseLevel(s string) (log.Level, error) {
	if strings.TrimSpace(s) == "" {
		return log.InfoLevel, nil
	}
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// Path returns the log file path, or "" when not writing to a file.
func (l *Logger) Path() string {
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
