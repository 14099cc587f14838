package reminder

import (
	"fmt"
	"time"

	"github.com/roach88/habitpulse/internal/habit"
)

// Kind classifies a notification.
type Kind string

const (
	KindReminder Kind = "reminder"
	KindWarning  Kind = "warning"
	KindSuccess  Kind = "success"
)

// DefaultWarningHour is the local hour from which streak warnings are sent.
const DefaultWarningHour = 18

// Notification titles.
const (
	TitleSummary  = "HabitPulse"
	TitleReminder = "HabitPulse Reminder"
	TitleWarning  = "Streak Warning"
	TitleTest     = "HabitPulse Test"
)

// Notification is one message for the user.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Kind  Kind   `json:"kind"`

	// Silent asks the notifier not to play a sound.
	Silent bool `json:"silent,omitempty"`
}

// TestNotification is sent by Service.SendTest.
var TestNotification = Notification{
	Title: TitleTest,
	Body:  "This is a test notification! 🎉",
	Kind:  KindSuccess,
}

// DailySummary builds the daily reminder for habits. It reports false for an
// empty collection, where there is nothing to remind about.
func DailySummary(habits []habit.Habit) (Notification, bool) {
	if len(habits) == 0 {
		return Notification{}, false
	}

	var pending []habit.Habit
	for _, h := range habits {
		if !h.DoneToday {
			pending = append(pending, h)
		}
	}

	switch len(pending) {
	case 0:
		return Notification{
			Title: TitleSummary,
			Body:  "Amazing! All your habits are completed for today! 🎉",
			Kind:  KindSuccess,
		}, true
	case 1:
		return Notification{
			Title: TitleReminder,
			Body:  fmt.Sprintf("Don't forget to complete \"%s\" today!", pending[0].Title),
			Kind:  KindReminder,
		}, true
	default:
		return Notification{
			Title: TitleReminder,
			Body:  fmt.Sprintf("You have %d habits to complete today!", len(pending)),
			Kind:  KindReminder,
		}, true
	}
}

// StreakWarning builds the warning for a habit whose streak is at risk.
func StreakWarning(h habit.Habit) Notification {
	return Notification{
		Title: TitleWarning,
		Body:  fmt.Sprintf("Don't break your %d-day streak! Complete \"%s\" today! 🔥", h.Streak, h.Title),
		Kind:  KindWarning,
	}
}

// StreakWarnings returns one warning per habit with a running streak that is
// not done today, provided now is at or after fromHour local time.
func StreakWarnings(habits []habit.Habit, now time.Time, fromHour int) []Notification {
	if now.Hour() < fromHour {
		return nil
	}
	var out []Notification
	for _, h := range habits {
		if h.Streak > 0 && !h.DoneToday {
			out = append(out, StreakWarning(h))
		}
	}
	return out
}

// CompletionToast is the transient message shown when a habit is completed.
func CompletionToast(title string) string {
	return fmt.Sprintf("Great job! \"%s\" completed!", title)
}
