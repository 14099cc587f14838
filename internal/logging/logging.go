// Package logging builds the process logger: human-readable text on stderr,
// plus an optional JSON log file and the systemd journal, all sharing one
// adjustable level.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
)

// Options selects the log destinations.
type Options struct {
	// Stderr receives text output. Defaults to os.Stderr.
	Stderr io.Writer

	// Verbose enables debug level.
	Verbose bool

	// File, when set, receives JSON lines (appended).
	File string

	// Journal also sends records to the systemd journal.
	Journal bool
}

// Logging is a configured logger and the resources behind it.
type Logging struct {
	Logger *slog.Logger
	level  *slog.LevelVar
	file   *os.File
}

// New builds the logger. An unavailable journal is reported through the text
// handler and skipped; an unwritable log file is an error.
func New(opts Options) (*Logging, error) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	l := &Logging{level: new(slog.LevelVar)}
	l.SetVerbose(opts.Verbose)

	terminal := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: l.level})
	handlers := []slog.Handler{terminal}

	if opts.File != "" {
		f, err := openLogFile(opts.File)
		if err != nil {
			return nil, err
		}
		l.file = f
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: l.level}))
	}

	if opts.Journal {
		journal, err := slogjournal.NewHandler(&slogjournal.Options{
			Level: l.level,
			ReplaceGroup: func(key string) string {
				return toJournalKey(key)
			},
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a.Key = toJournalKey(a.Key)
				return a
			},
		})
		if err != nil {
			record := slog.NewRecord(time.Now(), slog.LevelWarn, "systemd journal unavailable", 0)
			record.Add("error", err)
			_ = terminal.Handle(context.Background(), record)
		} else {
			handlers = append(handlers, journal)
		}
	}

	if len(handlers) == 1 {
		l.Logger = slog.New(terminal)
	} else {
		l.Logger = slog.New(slogmulti.Fanout(handlers...))
	}
	return l, nil
}

// SetVerbose switches between debug and info level for every destination.
func (l *Logging) SetVerbose(verbose bool) {
	if verbose {
		l.level.Set(slog.LevelDebug)
		return
	}
	l.level.Set(slog.LevelInfo)
}

// Level returns the current level.
func (l *Logging) Level() slog.Level {
	return l.level.Level()
}

// Close closes the log file, if any.
func (l *Logging) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// toJournalKey maps an attribute key to a valid journal field name.
func toJournalKey(str string) string {
	str = strings.ToUpper(str)
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, str)
}
