package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/habitpulse/internal/collection"
	"github.com/roach88/habitpulse/internal/config"
	"github.com/roach88/habitpulse/internal/engine"
	"github.com/roach88/habitpulse/internal/habit"
	"github.com/roach88/habitpulse/internal/logging"
	"github.com/roach88/habitpulse/internal/reminder"
	"github.com/roach88/habitpulse/internal/rollover"
	"github.com/roach88/habitpulse/internal/store"
)

// app is what a command that touches the habit database works with.
type app struct {
	v         *viper.Viper
	cfg       config.Config
	logging   *logging.Logging
	logger    *slog.Logger
	store     *store.Store
	coll      *collection.Collection
	scheduler *rollover.Scheduler
	reminders *reminder.Service
	notifier  string // resolved notifier kind: command or log
	out       *OutputFormatter
}

// openApp loads the configuration, opens the database and applies any day
// boundaries missed since the last run. Callers must call close.
func openApp(cmd *cobra.Command, opts *RootOptions) (*app, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	v := config.New(opts.ConfigFile)
	_ = v.BindPFlag("db_path", cmd.Root().PersistentFlags().Lookup("db"))
	_ = v.BindPFlag("verbose", cmd.Root().PersistentFlags().Lookup("verbose"))

	cfg, err := config.Load(v)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	lg, err := logging.New(logging.Options{
		Stderr:  cmd.ErrOrStderr(),
		Verbose: cfg.Verbose,
		File:    cfg.LogFile,
		Journal: cfg.Journal,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to set up logging", err)
	}
	logger := lg.Logger
	if file := config.File(v); file != "" {
		logger.Debug("config loaded", "file", file)
	}

	if err := ensureDir(cfg.DBPath); err != nil {
		lg.Close()
		return nil, WrapExitError(ExitCommandError, "failed to create database directory", err)
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		lg.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	coll, err := collection.Load(ctx, st, collection.WithLogger(logger))
	if err != nil {
		st.Close()
		lg.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load habits", err)
	}

	kind, notifier, permission := buildNotifier(cfg.Notifier, logger)
	a := &app{
		v:         v,
		cfg:       cfg,
		logging:   lg,
		logger:    logger,
		store:     st,
		coll:      coll,
		scheduler: rollover.New(st, coll, engine.SystemClock{}, logger),
		reminders: reminder.NewService(notifier, permission,
			reminder.WithSettings(cfg.Reminders),
			reminder.WithLogger(logger),
			reminder.WithWarningHour(cfg.WarningHour),
		),
		notifier: kind,
		out:      &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()},
	}

	// App-start catch-up.
	if _, err := a.scheduler.Tick(ctx); err != nil {
		a.close()
		return nil, WrapExitError(ExitCommandError, "failed to apply daily rollover", err)
	}

	return a, nil
}

// engine builds the background loop over the app's components.
func (a *app) engine(opts ...engine.Option) *engine.Engine {
	opts = append([]engine.Option{
		engine.WithLogger(a.logger),
		engine.WithRolloverInterval(a.cfg.RolloverInterval),
		engine.WithWarningInterval(a.cfg.WarningInterval),
	}, opts...)
	return engine.New(a.coll, a.scheduler, a.reminders, opts...)
}

// lastResetDate returns the persisted last reset date, or "".
func (a *app) lastResetDate(ctx context.Context) (string, error) {
	v, _, err := a.store.Get(ctx, store.KeyLastResetDate)
	return v, err
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing database", "error", err)
	}
	_ = a.logging.Close()
}

// resolveID finds the habit whose id is ref or starts with ref.
func (a *app) resolveID(ref string) (habit.Habit, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return habit.Habit{}, NewExitError(ExitCommandError, "habit id must not be empty")
	}

	var matches []habit.Habit
	for _, h := range a.coll.Habits() {
		if h.ID == ref {
			return h, nil
		}
		if strings.HasPrefix(h.ID, ref) {
			matches = append(matches, h)
		}
	}

	switch len(matches) {
	case 0:
		_ = a.out.Error(CodeNotFound, fmt.Sprintf("no habit matches %q", ref), nil)
		return habit.Habit{}, NewExitError(ExitFailure, fmt.Sprintf("no habit matches %q", ref))
	case 1:
		return matches[0], nil
	default:
		ids := make([]string, len(matches))
		for i, h := range matches {
			ids[i] = h.ID
		}
		_ = a.out.Error(CodeAmbiguous, fmt.Sprintf("%q matches %d habits", ref, len(matches)), ids)
		return habit.Habit{}, NewExitError(ExitCommandError, fmt.Sprintf("%q matches %d habits", ref, len(matches)))
	}
}

// buildNotifier resolves the configured delivery channel.
func buildNotifier(nc config.NotifierConfig, logger *slog.Logger) (string, reminder.Notifier, reminder.Permission) {
	command := reminder.CommandNotifier{Command: nc.Command, AppName: reminder.TitleSummary}
	logNotifier := reminder.LogNotifier{Logger: logger}

	switch nc.Kind {
	case config.NotifierCommand:
		return config.NotifierCommand, command, reminder.CommandPermission(nc.Command)
	case config.NotifierLog:
		return config.NotifierLog, logNotifier, reminder.Granted
	default:
		name := nc.Command
		if name == "" {
			name = reminder.DefaultCommand
		}
		if _, err := exec.LookPath(name); err == nil {
			return config.NotifierCommand, command, reminder.Granted
		}
		logger.Debug("notification command not found, logging notifications", "command", name)
		return config.NotifierLog, logNotifier, reminder.Granted
	}
}

func ensureDir(dbPath string) error {
	if dbPath == "" || dbPath == ":memory:" || strings.HasPrefix(dbPath, "file:") {
		return nil
	}
	return os.MkdirAll(filepath.Dir(dbPath), 0o755)
}
