package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/habitpulse/internal/reminder"
)

func TestNotifyStatus_Defaults(t *testing.T) {
	env := newCLIEnv(t)

	status := decodeData[NotifyStatus](t, env.mustRun("--format", "json", "notify", "status"))
	assert.False(t, status.Enabled)
	assert.Equal(t, "log", status.Notifier)
	assert.Equal(t, reminder.DefaultSettings(), status.Settings)
	assert.Nil(t, status.NextReminder)

	out := env.mustRun("notify", "status")
	assert.Contains(t, out, "Notifications:  off")
	assert.Contains(t, out, "Daily reminder: on at 09:00")
}

func TestNotifyStatus_EnabledFromEnv(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv("HABITPULSE_REMINDERS_ENABLED", "true")
	t.Setenv("HABITPULSE_REMINDERS_REMINDER_TIME", "07:30")

	status := decodeData[NotifyStatus](t, env.mustRun("--format", "json", "notify", "status"))
	assert.True(t, status.Enabled)
	assert.Equal(t, "07:30", status.Settings.ReminderTime)
	require.NotNil(t, status.NextReminder)
	assert.Equal(t, 7, status.NextReminder.Hour())
	assert.Equal(t, 30, status.NextReminder.Minute())
}

func TestNotifyTest(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run("notify", "test")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.ErrorIs(t, err, reminder.ErrDisabled)
	assert.Contains(t, out, "Error [E_NOTIFICATIONS_DISABLED]")

	t.Setenv("HABITPULSE_REMINDERS_ENABLED", "true")
	assert.Equal(t, "Test notification sent\n", env.mustRun("notify", "test"))
}

func TestNotifyRemind(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv("HABITPULSE_REMINDERS_ENABLED", "true")

	res := decodeData[map[string]bool](t, env.mustRun("--format", "json", "notify", "remind"))
	assert.False(t, res["sent"], "nothing to remind about without habits")

	addHabit(t, env, "Run")
	res = decodeData[map[string]bool](t, env.mustRun("--format", "json", "notify", "remind"))
	assert.True(t, res["sent"])
}

func TestNotifyWarn_NoStreaks(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv("HABITPULSE_REMINDERS_ENABLED", "true")
	addHabit(t, env, "Run")

	assert.Equal(t, "0 streak warning(s) sent\n", env.mustRun("notify", "warn"))
}

func TestNotifyInvalidConfig(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv("HABITPULSE_REMINDERS_REMINDER_TIME", "9am")

	_, err := env.run("notify", "status")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, reminder.ErrInvalidReminderTime)
}
