package streak

import (
	"time"

	"github.com/roach88/habitpulse/internal/habit"
)

// EventKind distinguishes events surfaced by Toggle.
type EventKind string

const (
	// EventCompleted fires whenever a habit is marked done for today.
	EventCompleted EventKind = "completed"

	// EventMilestone fires when a completion brings the streak to a milestone.
	EventMilestone EventKind = "milestone"
)

// Milestone names a celebrated streak length.
type Milestone string

const (
	MilestoneFirstDay Milestone = "first-day"
	MilestoneWeek     Milestone = "week"
	MilestoneMonth    Milestone = "month"
)

// milestones maps streak lengths to their names.
var milestones = map[int]Milestone{
	1:  MilestoneFirstDay,
	7:  MilestoneWeek,
	30: MilestoneMonth,
}

// MilestoneFor returns the milestone reached at streak n, if any.
func MilestoneFor(n int) (Milestone, bool) {
	m, ok := milestones[n]
	return m, ok
}

// Event is a side effect of a completion, for transient feedback.
type Event struct {
	Kind      EventKind `json:"kind"`
	HabitID   string    `json:"habit_id"`
	Title     string    `json:"title"`
	Streak    int       `json:"streak"`
	Milestone Milestone `json:"milestone,omitempty"`
	At        time.Time `json:"at"`
}

// Toggle flips h.DoneToday and adjusts the counters accordingly.
//
// Marking done increments CompletedDays, TotalDays and Streak and returns an
// EventCompleted, followed by an EventMilestone when the new streak is 1, 7 or
// 30. Undoing reverses the increments (each floored at zero) and returns no
// events.
func Toggle(h habit.Habit, now time.Time) (habit.Habit, []Event) {
	if h.DoneToday {
		return undo(h), nil
	}

	h.DoneToday = true
	h.CompletedDays++
	h.TotalDays++
	h.Streak++

	events := []Event{{
		Kind:    EventCompleted,
		HabitID: h.ID,
		Title:   h.Title,
		Streak:  h.Streak,
		At:      now,
	}}
	if m, ok := MilestoneFor(h.Streak); ok {
		events = append(events, Event{
			Kind:      EventMilestone,
			HabitID:   h.ID,
			Title:     h.Title,
			Streak:    h.Streak,
			Milestone: m,
			At:        now,
		})
	}
	return h, events
}

func undo(h habit.Habit) habit.Habit {
	h.DoneToday = false
	h.Streak = max(0, h.Streak-1)
	h.CompletedDays = max(0, h.CompletedDays-1)
	h.TotalDays = max(h.CompletedDays, h.TotalDays-1)
	return h
}

// Rollover closes the calendar day ended for h. loc is the user's time zone,
// the one ended is a day in.
//
// A habit completed on that day keeps its streak. Otherwise the streak resets
// to zero and the missed day is added to TotalDays, unless h was created
// after ended: a day before the habit existed does not count against its
// completion rate. DoneToday is cleared in every case.
func Rollover(h habit.Habit, ended habit.Date, loc *time.Location) habit.Habit {
	if !h.DoneToday {
		h.Streak = 0
		if !createdAfter(h, ended, loc) {
			h.TotalDays++
		}
	}
	h.DoneToday = false
	return h
}

// createdAfter reports whether h was created on a later local day than d.
// Timestamps are compared in loc, since imported records may carry another
// zone (browser exports are UTC).
func createdAfter(h habit.Habit, d habit.Date, loc *time.Location) bool {
	if h.CreatedAt.IsZero() {
		return false
	}
	if loc == nil {
		loc = time.Local
	}
	return habit.DateOf(h.CreatedAt.In(loc)).After(d)
}
