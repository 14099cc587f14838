package habit

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Default classification for habits created without explicit choices.
const (
	DefaultEmoji    = "🏃‍♂️"
	DefaultCategory = "Health"
)

// Backfill values for records persisted before a field existed.
const (
	LegacyEmoji    = "✨"
	LegacyCategory = "Other"
)

// Categories lists the built-in categories offered when adding a habit.
// Category is free text; this list is only a suggestion.
var Categories = []string{
	"Health",
	"Productivity",
	"Learning",
	"Mindfulness",
	"Creativity",
	"Social",
	"Other",
}

// ErrEmptyTitle is returned when a title is blank after normalization.
var ErrEmptyTitle = errors.New("habit title must not be empty")

// Habit is one tracked behavior.
//
// JSON names match the records written by the browser version of HabitPulse so
// exported data can be imported unchanged.
type Habit struct {
	ID            string    `json:"id" yaml:"id" toml:"id"`
	Title         string    `json:"title" yaml:"title" toml:"title"`
	Emoji         string    `json:"emoji" yaml:"emoji" toml:"emoji"`
	Category      string    `json:"category" yaml:"category" toml:"category"`
	Streak        int       `json:"streak" yaml:"streak" toml:"streak"`
	DoneToday     bool      `json:"doneToday" yaml:"doneToday" toml:"doneToday"`
	TotalDays     int       `json:"totalDays" yaml:"totalDays" toml:"totalDays"`
	CompletedDays int       `json:"completedDays" yaml:"completedDays" toml:"completedDays"`
	CreatedAt     time.Time `json:"createdAt" yaml:"createdAt" toml:"createdAt"`
}

// New creates a habit with zeroed progress counters.
// Empty emoji and category fall back to DefaultEmoji and DefaultCategory.
func New(id, title, emoji, category string, now time.Time) (Habit, error) {
	t, err := NormalizeTitle(title)
	if err != nil {
		return Habit{}, err
	}
	if strings.TrimSpace(emoji) == "" {
		emoji = DefaultEmoji
	}
	category = NormalizeCategory(category)
	if category == "" {
		category = DefaultCategory
	}
	return Habit{
		ID:        id,
		Title:     t,
		Emoji:     strings.TrimSpace(emoji),
		Category:  category,
		CreatedAt: now,
	}, nil
}

// NormalizeTitle trims surrounding whitespace and converts the title to NFC so
// visually identical titles compare equal.
func NormalizeTitle(title string) (string, error) {
	t := norm.NFC.String(strings.TrimSpace(title))
	if t == "" {
		return "", ErrEmptyTitle
	}
	return t, nil
}

// NormalizeCategory trims and NFC-normalizes a category. The result is empty
// for a blank category.
func NormalizeCategory(category string) string {
	return norm.NFC.String(strings.TrimSpace(category))
}

// CompletionRate returns the lifetime completion percentage, rounded.
// A habit with no tracked days reports 0.
func (h Habit) CompletionRate() int {
	return percent(h.CompletedDays, h.TotalDays)
}

// Valid reports whether the counter invariants hold.
func (h Habit) Valid() bool {
	return h.Streak >= 0 &&
		h.CompletedDays >= 0 &&
		h.CompletedDays <= h.TotalDays
}

// Clone returns a copy of the slice. Habit holds no references, so a shallow
// copy is a full copy.
func Clone(habits []Habit) []Habit {
	if habits == nil {
		return nil
	}
	out := make([]Habit, len(habits))
	copy(out, habits)
	return out
}
