package reminder

import (
	"errors"
	"fmt"
	"time"
)

// DefaultReminderTime is the daily reminder time used when none is configured.
const DefaultReminderTime = "09:00"

// ErrInvalidReminderTime is returned for a reminder time that is not HH:MM.
var ErrInvalidReminderTime = errors.New("reminder time must be HH:MM")

// Settings are the user's notification preferences.
type Settings struct {
	Enabled       bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	DailyReminder bool   `json:"dailyReminder" yaml:"daily_reminder" mapstructure:"daily_reminder"`
	StreakWarning bool   `json:"streakWarning" yaml:"streak_warning" mapstructure:"streak_warning"`
	ReminderTime  string `json:"reminderTime" yaml:"reminder_time" mapstructure:"reminder_time"`
	Sound         bool   `json:"soundEnabled" yaml:"sound" mapstructure:"sound"`
	Vibration     bool   `json:"vibrationEnabled" yaml:"vibration" mapstructure:"vibration"`
}

// DefaultSettings returns the settings of a fresh install: notifications off,
// both reminder kinds on once enabled.
func DefaultSettings() Settings {
	return Settings{
		Enabled:       false,
		DailyReminder: true,
		StreakWarning: true,
		ReminderTime:  DefaultReminderTime,
		Sound:         true,
		Vibration:     true,
	}
}

// Validate checks the reminder time.
func (s Settings) Validate() error {
	_, _, err := ParseClock(s.ReminderTime)
	return err
}

// ParseClock parses an "HH:MM" wall-clock time.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidReminderTime, s)
	}
	return t.Hour(), t.Minute(), nil
}

// NextReminder returns the next daily reminder at or after now: today at the
// reminder time if that is still ahead, otherwise tomorrow.
func NextReminder(now time.Time, reminderTime string) (time.Time, error) {
	hour, minute, err := ParseClock(reminderTime)
	if err != nil {
		return time.Time{}, err
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, now.Location())
	}
	return next, nil
}
