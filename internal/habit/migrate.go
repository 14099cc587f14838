package habit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// storedHabit mirrors Habit with every field optional so records written by
// older versions can be told apart from zero values.
type storedHabit struct {
	ID            *string `json:"id"`
	Title         *string `json:"title"`
	Emoji         *string `json:"emoji"`
	Category      *string `json:"category"`
	Streak        *int    `json:"streak"`
	DoneToday     *bool   `json:"doneToday"`
	TotalDays     *int    `json:"totalDays"`
	CompletedDays *int    `json:"completedDays"`
	CreatedAt     *string `json:"createdAt"`
}

// MigrationReport describes what Decode changed while loading.
type MigrationReport struct {
	Backfilled int      // records that had at least one field filled in
	Repaired   int      // records whose counters violated an invariant
	Dropped    []string // reasons for records that could not be kept
}

// Changed reports whether the decoded collection differs from the input.
func (r MigrationReport) Changed() bool {
	return r.Backfilled > 0 || r.Repaired > 0 || len(r.Dropped) > 0
}

// Decode parses a persisted collection, backfilling fields that older versions
// did not write:
//
//	emoji         "✨"
//	category      "Other"
//	totalDays     0
//	completedDays 0
//	createdAt     now
//
// Records without an id get one from newID. Records with a blank title are
// dropped. Negative counters are clamped to zero and a completedDays larger than
// totalDays raises totalDays.
//
// An error is returned only when data is not a JSON array of objects.
func Decode(data []byte, now time.Time, newID func() string) ([]Habit, MigrationReport, error) {
	var report MigrationReport

	var raw []storedHabit
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, report, fmt.Errorf("decode habits: %w", err)
	}

	habits := make([]Habit, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, r := range raw {
		h, backfilled, repaired, reason := migrateRecord(r, now, newID)
		if reason != "" {
			report.Dropped = append(report.Dropped, fmt.Sprintf("record %d: %s", i, reason))
			continue
		}
		if seen[h.ID] {
			report.Dropped = append(report.Dropped, fmt.Sprintf("record %d: duplicate id %s", i, h.ID))
			continue
		}
		seen[h.ID] = true
		if backfilled {
			report.Backfilled++
		}
		if repaired {
			report.Repaired++
		}
		habits = append(habits, h)
	}
	return habits, report, nil
}

// Encode serializes a collection in the persisted format.
func Encode(habits []Habit) ([]byte, error) {
	if habits == nil {
		habits = []Habit{}
	}
	data, err := json.Marshal(habits)
	if err != nil {
		return nil, fmt.Errorf("encode habits: %w", err)
	}
	return data, nil
}

func migrateRecord(r storedHabit, now time.Time, newID func() string) (h Habit, backfilled, repaired bool, dropReason string) {
	if r.Title == nil {
		return h, false, false, "missing title"
	}
	title, err := NormalizeTitle(*r.Title)
	if err != nil {
		return h, false, false, "blank title"
	}
	h.Title = title

	if r.ID != nil && strings.TrimSpace(*r.ID) != "" {
		h.ID = *r.ID
	} else {
		h.ID = newID()
		backfilled = true
	}

	h.Emoji, backfilled = stringOr(r.Emoji, LegacyEmoji, backfilled)
	h.Category, backfilled = stringOr(r.Category, LegacyCategory, backfilled)

	if r.Streak != nil {
		h.Streak = *r.Streak
	}
	if r.DoneToday != nil {
		h.DoneToday = *r.DoneToday
	}
	if r.TotalDays != nil {
		h.TotalDays = *r.TotalDays
	} else {
		backfilled = true
	}
	if r.CompletedDays != nil {
		h.CompletedDays = *r.CompletedDays
	} else {
		backfilled = true
	}

	h.CreatedAt = now
	if r.CreatedAt != nil {
		if t, err := time.Parse(time.RFC3339Nano, *r.CreatedAt); err == nil {
			h.CreatedAt = t
		} else {
			backfilled = true
		}
	} else {
		backfilled = true
	}

	return h, backfilled, repair(&h), ""
}

func stringOr(v *string, fallback string, backfilled bool) (string, bool) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return fallback, true
	}
	return *v, backfilled
}

// repair restores the counter invariants and reports whether anything changed.
func repair(h *Habit) bool {
	changed := false
	if h.Streak < 0 {
		h.Streak = 0
		changed = true
	}
	if h.CompletedDays < 0 {
		h.CompletedDays = 0
		changed = true
	}
	if h.TotalDays < 0 {
		h.TotalDays = 0
		changed = true
	}
	if h.CompletedDays > h.TotalDays {
		h.TotalDays = h.CompletedDays
		changed = true
	}
	return changed
}
