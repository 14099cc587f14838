package reminder

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandNotifier_Args(t *testing.T) {
	c := CommandNotifier{}

	assert.Equal(t, []string{
		"--app-name=HabitPulse",
		"--urgency=normal",
		"--category=habitpulse-reminder",
		"HabitPulse Reminder",
		"body",
	}, c.Args(Notification{Title: "HabitPulse Reminder", Body: "body", Kind: KindReminder}))

	args := CommandNotifier{AppName: "hp"}.Args(Notification{Title: "t", Body: "b", Kind: KindWarning, Silent: true})
	assert.Contains(t, args, "--app-name=hp")
	assert.Contains(t, args, "--urgency=critical")
	assert.Contains(t, args, "--hint=boolean:suppress-sound:true")
	assert.Equal(t, []string{"t", "b"}, args[len(args)-2:])
}

// fakeCommand writes a script that records its arguments, one per line.
func fakeCommand(t *testing.T, exitCode int) (cmd, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script notifier not supported on windows")
	}
	dir := t.TempDir()
	argsFile = filepath.Join(dir, "args")
	cmd = filepath.Join(dir, "notify")
	script := "#!/bin/sh\nfor a in \"$@\"; do echo \"$a\" >> " + argsFile + "; done\n"
	if exitCode != 0 {
		script += "echo 'no display' >&2\nexit 3\n"
	}
	require.NoError(t, os.WriteFile(cmd, []byte(script), 0o755))
	return cmd, argsFile
}

func TestCommandNotifier_Notify(t *testing.T) {
	cmd, argsFile := fakeCommand(t, 0)

	err := CommandNotifier{Command: cmd}.Notify(context.Background(), Notification{
		Title: "Streak Warning",
		Body:  "Don't break it",
		Kind:  KindWarning,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "--urgency=critical", lines[1])
	assert.Equal(t, "Don't break it", lines[len(lines)-1])
}

func TestCommandNotifier_Failure(t *testing.T) {
	cmd, _ := fakeCommand(t, 3)

	err := CommandNotifier{Command: cmd}.Notify(context.Background(), TestNotification)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no display")
}

func TestCommandNotifier_MissingCommand(t *testing.T) {
	err := CommandNotifier{Command: filepath.Join(t.TempDir(), "missing")}.Notify(context.Background(), TestNotification)
	assert.Error(t, err)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	err := LogNotifier{Logger: logger}.Notify(context.Background(), StreakWarning(h("Run", 2, false)))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "kind=warning")
}

func TestPermissions(t *testing.T) {
	assert.True(t, Granted.Granted())
	assert.False(t, Denied.Granted())
	assert.False(t, CommandPermission(filepath.Join(t.TempDir(), "missing")).Granted())

	cmd, _ := fakeCommand(t, 0)
	assert.True(t, CommandPermission(cmd).Granted())
}
