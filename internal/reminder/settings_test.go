package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.False(t, s.Enabled)
	assert.True(t, s.DailyReminder)
	assert.True(t, s.StreakWarning)
	assert.Equal(t, "09:00", s.ReminderTime)
	assert.True(t, s.Sound)
	assert.True(t, s.Vibration)
	assert.NoError(t, s.Validate())
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("21:45")
	require.NoError(t, err)
	assert.Equal(t, 21, h)
	assert.Equal(t, 45, m)

	for _, bad := range []string{"", "9am", "25:00", "12:60", "12"} {
		_, _, err := ParseClock(bad)
		assert.ErrorIs(t, err, ErrInvalidReminderTime, bad)
	}
}

func TestNextReminder(t *testing.T) {
	loc := time.FixedZone("test", 2*3600)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "later today",
			now:  time.Date(2026, 10, 19, 8, 0, 0, 0, loc),
			want: time.Date(2026, 10, 19, 9, 0, 0, 0, loc),
		},
		{
			name: "exactly now rolls to tomorrow",
			now:  time.Date(2026, 10, 19, 9, 0, 0, 0, loc),
			want: time.Date(2026, 10, 20, 9, 0, 0, 0, loc),
		},
		{
			name: "passed today",
			now:  time.Date(2026, 10, 19, 22, 0, 0, 0, loc),
			want: time.Date(2026, 10, 20, 9, 0, 0, 0, loc),
		},
		{
			name: "end of month",
			now:  time.Date(2026, 10, 31, 23, 0, 0, 0, loc),
			want: time.Date(2026, 11, 1, 9, 0, 0, 0, loc),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextReminder(tt.now, "09:00")
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}

	_, err := NextReminder(time.Now(), "nine")
	assert.ErrorIs(t, err, ErrInvalidReminderTime)
}
