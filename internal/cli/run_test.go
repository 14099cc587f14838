package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runFor(t *testing.T, env *cliEnv, d time.Duration, args ...string) (string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--db", env.db, "run"}, args...))
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	env := newCLIEnv(t)
	addHabit(t, env, "Run")

	out, err := runFor(t, env, 300*time.Millisecond)
	require.NoError(t, err)
	assert.Contains(t, out, "HabitPulse running")

	// The database is still usable afterwards.
	assert.Len(t, listHabits(t, env), 1)
}

func TestRun_WithConfigAndMetrics(t *testing.T) {
	env := newCLIEnv(t)
	cfgFile := filepath.Join(env.dir, "habitpulse.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
rollover_interval: 50ms
warning_interval: 1h
notifier:
  kind: log
reminders:
  enabled: true
  reminder_time: "08:00"
`), 0o644))

	out, err := runFor(t, env, 300*time.Millisecond, "--config", cfgFile, "--metrics-addr", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Contains(t, out, "HabitPulse running")
}

func TestRun_BadMetricsAddr(t *testing.T) {
	env := newCLIEnv(t)

	_, err := runFor(t, env, time.Second, "--metrics-addr", "not an address")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_MissingConfigFile(t *testing.T) {
	env := newCLIEnv(t)

	_, err := runFor(t, env, time.Second, "--config", filepath.Join(env.dir, "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}
