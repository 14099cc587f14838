package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/habitpulse/internal/collection"
	"github.com/roach88/habitpulse/internal/reminder"
	"github.com/roach88/habitpulse/internal/rollover"
)

// Default task intervals.
const (
	DefaultRolloverInterval = time.Minute
	DefaultWarningInterval  = 30 * time.Minute
)

// Engine is the single-writer background loop.
//
// CRITICAL: All collection mutations and notifications happen in the Run loop
// goroutine. Tasks and external callers use Enqueue() to submit events.
//
// Thread-safety model:
//   - Enqueue(), UpdateSettings(), Stop(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
type Engine struct {
	coll      *collection.Collection
	scheduler *rollover.Scheduler
	reminders *reminder.Service
	clock     Clock
	logger    *slog.Logger
	seq       *Sequence
	queue     *eventQueue

	rolloverInterval time.Duration
	warningInterval  time.Duration

	// Owned by the Run goroutine.
	tasks map[EventType]*Task

	// Called after each processed event. For tests.
	onEvent func(Event, error)

	onRollover func(rollover.Result)
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithClock sets the clock used for the reminder alarm.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRolloverInterval sets how often the day rollover is checked.
//
// Default: 1 minute (DefaultRolloverInterval)
func WithRolloverInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.rolloverInterval = d
		}
	}
}

// WithWarningInterval sets how often streak warnings are checked.
//
// Default: 30 minutes (DefaultWarningInterval)
func WithWarningInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.warningInterval = d
		}
	}
}

// WithEventHook registers fn to be called after every processed event with
// the processing error, if any.
func WithEventHook(fn func(Event, error)) Option {
	return func(e *Engine) { e.onEvent = fn }
}

// WithRolloverObserver registers fn to be called whenever a rollover closed
// at least one day.
func WithRolloverObserver(fn func(rollover.Result)) Option {
	return func(e *Engine) { e.onRollover = fn }
}

// New creates an Engine over the given collection, scheduler and reminder
// service.
func New(coll *collection.Collection, scheduler *rollover.Scheduler, reminders *reminder.Service, opts ...Option) *Engine {
	e := &Engine{
		coll:             coll,
		scheduler:        scheduler,
		reminders:        reminders,
		clock:            SystemClock{},
		logger:           slog.Default(),
		seq:              NewSequence(),
		queue:            newEventQueue(),
		rolloverInterval: DefaultRolloverInterval,
		warningInterval:  DefaultWarningInterval,
		tasks:            make(map[EventType]*Task),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Enqueue submits an event of type t for processing by the Run loop.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(t EventType) bool {
	return e.queue.Enqueue(Event{Type: t, Seq: e.seq.Next()})
}

// UpdateSettings submits new reminder settings. They take effect between
// events; the daily reminder alarm is rescheduled when needed.
func (e *Engine) UpdateSettings(s reminder.Settings) bool {
	return e.queue.Enqueue(Event{Type: EventSettings, Seq: e.seq.Next(), Settings: &s})
}

// Process handles one event of type t synchronously in the caller's
// goroutine, without starting any task. It must not be called while Run is
// active. Scenario runs and one-shot commands use it to reuse the loop's
// handlers.
func (e *Engine) Process(ctx context.Context, t EventType) error {
	return e.processEvent(ctx, Event{Type: t, Seq: e.seq.Next()})
}

// Run starts the recurring tasks and the single-writer event loop.
// Blocks until context is cancelled or Stop() is called.
//
// A rollover check is queued at start so days missed while the loop was not
// running are applied immediately.
//
// ERROR HANDLING: On event processing failure, the error is logged and
// processing continues. The next tick of the same kind retries.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting",
		"rollover_interval", e.rolloverInterval.String(),
		"warning_interval", e.warningInterval.String(),
	)

	e.startTasks()
	defer e.stopTasks()

	e.Enqueue(EventRollover)

	for {
		event, ok := e.queue.TryDequeue()
		if ok {
			err := e.processEvent(ctx, event)
			if err != nil {
				e.logger.Error("event processing failed",
					"type", event.Type.String(),
					"seq", event.Seq,
					"error", err,
				)
			}
			if e.onEvent != nil {
				e.onEvent(event, err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel closes when the queue is closed,
			// which will cause this case to fire immediately
			if e.queue.Len() == 0 {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop gracefully shuts down the engine.
// Closes the event queue, which will cause Run() to return.
func (e *Engine) Stop() {
	e.queue.Close()
}

// processEvent routes an event to the appropriate handler.
// CRITICAL: Called only from Run() goroutine - single-writer guarantee.
func (e *Engine) processEvent(ctx context.Context, event Event) error {
	e.logger.Debug("processing event", "type", event.Type.String(), "seq", event.Seq)

	switch event.Type {
	case EventRollover:
		return e.rollover(ctx)

	case EventStreakCheck:
		if err := e.rollover(ctx); err != nil {
			return err
		}
		n := e.reminders.CheckStreakWarnings(ctx, e.coll.Habits())
		if n > 0 {
			e.logger.Info("streak warnings sent", "count", n)
		}
		return nil

	case EventDailyReminder:
		if err := e.rollover(ctx); err != nil {
			return err
		}
		if e.reminders.SendDailyReminder(ctx, e.coll.Habits()) {
			e.logger.Info("daily reminder sent")
		}
		return nil

	case EventSettings:
		if event.Settings == nil {
			return fmt.Errorf("settings event missing settings")
		}
		return e.applySettings(*event.Settings)

	default:
		return fmt.Errorf("unknown event type: %d", event.Type)
	}
}

// rollover reloads the collection and applies any missed day boundaries.
func (e *Engine) rollover(ctx context.Context) error {
	if err := e.coll.Reload(ctx); err != nil {
		return err
	}
	res, err := e.scheduler.Tick(ctx)
	if err != nil {
		return err
	}
	if res.Conflict {
		return e.coll.Reload(ctx)
	}
	if res.Rolled() {
		e.logger.Debug("rollover applied", "days", len(res.Closed), "today", res.Today.String())
		if e.onRollover != nil {
			e.onRollover(res)
		}
	}
	return nil
}

func (e *Engine) applySettings(next reminder.Settings) error {
	prev := e.reminders.Settings()
	if err := e.reminders.UpdateSettings(next); err != nil {
		return fmt.Errorf("apply reminder settings: %w", err)
	}
	if prev.Enabled != next.Enabled ||
		prev.DailyReminder != next.DailyReminder ||
		prev.ReminderTime != next.ReminderTime {
		e.scheduleReminder()
	}
	return nil
}

func (e *Engine) startTasks() {
	e.tasks[EventRollover] = Every("rollover", e.rolloverInterval, func() {
		e.Enqueue(EventRollover)
	})
	e.tasks[EventStreakCheck] = Every("streak-check", e.warningInterval, func() {
		e.Enqueue(EventStreakCheck)
	})
	e.scheduleReminder()
}

// scheduleReminder replaces the daily reminder alarm.
func (e *Engine) scheduleReminder() {
	if t, ok := e.tasks[EventDailyReminder]; ok {
		t.Stop()
		delete(e.tasks, EventDailyReminder)
	}

	next, ok := e.reminders.NextReminder(e.clock.Now())
	if !ok {
		e.logger.Debug("daily reminder not scheduled")
		return
	}
	e.logger.Info("daily reminder scheduled", "at", next.Format(time.RFC3339))

	e.tasks[EventDailyReminder] = Alarm("daily-reminder", e.clock, e.reminders.NextReminder, func() {
		e.Enqueue(EventDailyReminder)
	})
}

// Tasks returns the names of the running tasks. Must be called from the Run
// goroutine (e.g. from an event hook).
func (e *Engine) Tasks() []string {
	names := make([]string, 0, len(e.tasks))
	for _, typ := range []EventType{EventRollover, EventStreakCheck, EventDailyReminder} {
		if t, ok := e.tasks[typ]; ok {
			names = append(names, t.Name())
		}
	}
	return names
}

func (e *Engine) stopTasks() {
	for typ, t := range e.tasks {
		t.Stop()
		delete(e.tasks, typ)
	}
}
