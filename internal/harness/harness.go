package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/habitpulse/internal/collection"
	"github.com/roach88/habitpulse/internal/engine"
	"github.com/roach88/habitpulse/internal/habit"
	"github.com/roach88/habitpulse/internal/reminder"
	"github.com/roach88/habitpulse/internal/rollover"
	"github.com/roach88/habitpulse/internal/store"
	"github.com/roach88/habitpulse/internal/streak"
	"github.com/roach88/habitpulse/internal/testutil"
)

// IDPrefix prefixes the habit ids assigned during a scenario: habit-1,
// habit-2, ...
const IDPrefix = "habit"

// Harness wires the real components over an in-memory store and a fake
// clock.
type Harness struct {
	store  *store.Store
	clock  *testutil.FakeClock
	coll   *collection.Collection
	engine *engine.Engine
	seq    *engine.Sequence
	result *Result
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database, seeded with last_reset_date
// 2. Wire collection, rollover scheduler, reminder service and engine
// 3. Execute steps, recording each step and its effects in the trace
// 4. Evaluate assertions against the trace and the persisted state
//
// A step that fails (for example adding a blank title) is recorded as an
// error event and execution continues. Only infrastructure failures are
// returned as errors.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	start, err := scenario.startTime()
	if err != nil {
		return nil, fmt.Errorf("invalid start: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if scenario.LastResetDate != "" {
		if err := st.Set(ctx, store.KeyLastResetDate, scenario.LastResetDate); err != nil {
			return nil, fmt.Errorf("failed to seed last reset date: %w", err)
		}
	}

	// Suppress logs in scenarios
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := &Harness{
		store:  st,
		clock:  testutil.NewFakeClock(start),
		seq:    engine.NewSequence(),
		result: NewResult(),
	}

	h.coll, err = collection.Load(ctx, st,
		collection.WithClock(h.clock),
		collection.WithIDGenerator(testutil.NewSequentialIDs(IDPrefix)),
		collection.WithLogger(logger),
		collection.WithObserver(h.recordStreakEvent),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}

	settings := reminder.DefaultSettings()
	settings.Enabled = true
	if scenario.Reminders != nil {
		settings = *scenario.Reminders
	}
	warningHour := reminder.DefaultWarningHour
	if scenario.WarningHour != nil {
		warningHour = *scenario.WarningHour
	}

	reminders := reminder.NewService(
		reminder.NotifierFunc(h.recordNotification),
		reminder.Granted,
		reminder.WithSettings(settings),
		reminder.WithClock(h.clock),
		reminder.WithLogger(logger),
		reminder.WithWarningHour(warningHour),
	)
	scheduler := rollover.New(st, h.coll, h.clock, logger)

	h.engine = engine.New(h.coll, scheduler, reminders,
		engine.WithClock(h.clock),
		engine.WithLogger(logger),
		engine.WithRolloverObserver(h.recordRollover),
	)

	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, step); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Action, err)
		}
	}

	lastReset, _, err := st.Get(ctx, store.KeyLastResetDate)
	if err != nil {
		return nil, fmt.Errorf("failed to read last reset date: %w", err)
	}

	actx := &AssertionContext{
		Habits:        h.coll.Habits(),
		LastResetDate: lastReset,
	}
	for _, errMsg := range EvaluateAssertions(h.result.Trace, scenario.Assertions, actx) {
		h.result.AddError(errMsg)
	}

	return h.result, nil
}

// executeStep runs one step. Invalid user input is traced, not returned.
func (h *Harness) executeStep(ctx context.Context, step Step) error {
	var stepErr error

	switch step.Action {
	case StepAdd:
		h.record(TraceEvent{Type: EventStep, Action: step.Action, Message: step.Title})
		var habits []habit.Habit
		habits, stepErr = h.coll.Add(ctx, step.Title, step.Emoji, step.Category)
		if stepErr == nil {
			// New habits are placed first.
			h.result.Trace[len(h.result.Trace)-1].HabitID = habits[0].ID
		}

	case StepToggle:
		h.record(TraceEvent{Type: EventStep, Action: step.Action, HabitID: step.ID})
		_, _, stepErr = h.coll.Toggle(ctx, step.ID)

	case StepEdit:
		h.record(TraceEvent{Type: EventStep, Action: step.Action, HabitID: step.ID})
		if step.Title != "" || step.Category != "" {
			_, stepErr = h.coll.Edit(ctx, step.ID, step.Title, step.Category)
		}
		if stepErr == nil && step.Emoji != "" {
			_, stepErr = h.coll.SetEmoji(ctx, step.ID, step.Emoji)
		}

	case StepDelete:
		h.record(TraceEvent{Type: EventStep, Action: step.Action, HabitID: step.ID})
		_, stepErr = h.coll.Delete(ctx, step.ID)

	case StepAdvance:
		d, err := time.ParseDuration(step.Duration)
		if err != nil {
			return err
		}
		h.clock.Advance(d)
		h.record(TraceEvent{Type: EventStep, Action: step.Action, Message: step.Duration})

	case StepSetTime:
		at, err := time.Parse(time.RFC3339, step.At)
		if err != nil {
			return err
		}
		h.clock.Set(at)
		h.record(TraceEvent{Type: EventStep, Action: step.Action, Message: step.At})

	case StepTick:
		h.record(TraceEvent{Type: EventStep, Action: step.Action})
		stepErr = h.engine.Process(ctx, engine.EventRollover)

	case StepRemind:
		h.record(TraceEvent{Type: EventStep, Action: step.Action})
		stepErr = h.engine.Process(ctx, engine.EventDailyReminder)

	case StepWarn:
		h.record(TraceEvent{Type: EventStep, Action: step.Action})
		stepErr = h.engine.Process(ctx, engine.EventStreakCheck)

	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}

	if stepErr != nil {
		h.record(TraceEvent{Type: EventError, Action: step.Action, HabitID: step.ID, Message: stepErr.Error()})
	}
	return nil
}

func (h *Harness) record(ev TraceEvent) {
	ev.Seq = h.seq.Next()
	ev.At = h.clock.Now().Format(time.RFC3339)
	h.result.Trace = append(h.result.Trace, ev)
}

func (h *Harness) recordStreakEvent(ev streak.Event) {
	te := TraceEvent{
		Type:    EventCompleted,
		HabitID: ev.HabitID,
		Streak:  ev.Streak,
		Message: reminder.CompletionToast(ev.Title),
	}
	if ev.Kind == streak.EventMilestone {
		te.Type = EventMilestone
		te.Kind = string(ev.Milestone)
		te.Message = ""
	}
	h.record(te)
}

func (h *Harness) recordRollover(res rollover.Result) {
	days := make([]string, len(res.Closed))
	for i, d := range res.Closed {
		days[i] = d.String()
	}
	h.record(TraceEvent{Type: EventRollover, Days: days})
}

func (h *Harness) recordNotification(_ context.Context, n reminder.Notification) error {
	h.record(TraceEvent{Type: EventNotification, Kind: string(n.Kind), Message: n.Body})
	return nil
}
