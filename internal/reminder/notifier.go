package reminder

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// Notifier delivers notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// LogNotifier writes notifications to a logger. It is the fallback when no
// desktop notification command is available.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify logs n at info level (warn for streak warnings).
func (l LogNotifier) Notify(ctx context.Context, n Notification) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if n.Kind == KindWarning {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, n.Body, "title", n.Title, "kind", string(n.Kind))
	return nil
}

// DefaultCommand is the desktop notification command used by CommandNotifier.
const DefaultCommand = "notify-send"

// CommandNotifier delivers notifications by running a notify-send compatible
// command.
type CommandNotifier struct {
	// Command is the executable name or path. Empty means DefaultCommand.
	Command string

	// AppName is passed as --app-name. Empty means "HabitPulse".
	AppName string
}

// Notify runs the command and waits for it to exit.
func (c CommandNotifier) Notify(ctx context.Context, n Notification) error {
	name := c.command()
	cmd := exec.CommandContext(ctx, name, c.Args(n)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if msg := bytes.TrimSpace(out); len(msg) > 0 {
			return fmt.Errorf("run %s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}

// Args returns the command-line arguments for n. Streak warnings use critical
// urgency so they stay on screen until dismissed.
func (c CommandNotifier) Args(n Notification) []string {
	app := c.AppName
	if app == "" {
		app = "HabitPulse"
	}
	urgency := "normal"
	if n.Kind == KindWarning {
		urgency = "critical"
	}

	args := []string{
		"--app-name=" + app,
		"--urgency=" + urgency,
		"--category=habitpulse-" + string(n.Kind),
	}
	if n.Silent {
		args = append(args, "--hint=boolean:suppress-sound:true")
	}
	return append(args, n.Title, n.Body)
}

func (c CommandNotifier) command() string {
	if c.Command == "" {
		return DefaultCommand
	}
	return c.Command
}
