// Package rollover detects calendar-day boundaries and applies each one to the
// habit collection exactly once.
//
// The only shared state is the persisted last reset date. A tick compares it
// with today's date; when they differ, every day from the last reset date up
// to yesterday is closed, oldest first, and the new date is written in the same
// transaction as the rolled collection. That transaction first checks that the
// stored date is still the one the tick read, so when two processes race only
// the first closes the days and the second reports a conflict.
//
// # States
//
//	Idle --tick detects date change--> Rolling --persisted--> Idle
//
// A tick that arrives while the scheduler is Rolling is ignored.
package rollover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/roach88/habitpulse/internal/habit"
	"github.com/roach88/habitpulse/internal/metrics"
	"github.com/roach88/habitpulse/internal/store"
)

// State is the scheduler's lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateRolling
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRolling:
		return "rolling"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Reader reads persisted values.
type Reader interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

// Roller applies closed days to the collection and persists the result
// together with extra entries in one transaction, provided the stored last
// reset date still equals lastReset. Otherwise it returns an error wrapping
// store.ErrConflict.
// *collection.Collection satisfies it.
type Roller interface {
	Rollover(ctx context.Context, lastReset string, days []habit.Date, extra ...store.Entry) ([]habit.Habit, error)
}

// Clock supplies the current time. Its location defines the local day.
type Clock interface {
	Now() time.Time
}

// Result describes what a tick did.
type Result struct {
	// Busy is set when the tick was ignored because another was running.
	Busy bool

	// FirstRun is set when no previous reset date existed.
	FirstRun bool

	// Conflict is set when another process moved the reset date between
	// the read and the write. Nothing was written by this tick.
	Conflict bool

	// Today is the date the tick evaluated.
	Today habit.Date

	// Closed lists the days that were closed, oldest first.
	Closed []habit.Date
}

// Rolled reports whether any day was closed.
func (r Result) Rolled() bool {
	return len(r.Closed) > 0
}

// Scheduler applies day rollovers.
//
// Thread-safety: Tick may be called from any goroutine; concurrent calls
// collapse into one.
type Scheduler struct {
	kv     Reader
	roller Roller
	clock  Clock
	logger *slog.Logger
	state  atomic.Int32
}

// New creates an idle scheduler. A nil logger uses slog.Default().
func New(kv Reader, roller Roller, clock Clock, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{kv: kv, roller: roller, clock: clock, logger: logger}
}

// State returns the current state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Tick checks for a date change and applies any missed rollovers.
//
//   - No stored date (or an unreadable one): today is recorded, nothing rolls.
//   - Stored date is today: nothing happens.
//   - Stored date is after today (the clock moved back): nothing happens and
//     the stored date is kept, so the same days are not closed twice later.
//   - Otherwise every day from the stored date through yesterday is closed.
//
// On error nothing is persisted and the next tick retries from the same date.
func (s *Scheduler) Tick(ctx context.Context) (Result, error) {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRolling)) {
		s.logger.Debug("rollover tick ignored: already rolling")
		metrics.RecordRolloverTick("busy", 0)
		return Result{Busy: true}, nil
	}
	defer s.state.Store(int32(StateIdle))

	res, err := s.tick(ctx)
	switch {
	case err != nil:
		metrics.RecordRolloverTick("error", 0)
	case res.Conflict:
		metrics.RecordRolloverTick("conflict", 0)
	case res.Rolled():
		metrics.RecordRolloverTick("rolled", len(res.Closed))
	default:
		metrics.RecordRolloverTick("noop", 0)
	}
	return res, err
}

func (s *Scheduler) tick(ctx context.Context) (Result, error) {
	now := s.clock.Now()
	today := habit.DateOf(now)
	res := Result{Today: today}

	last, raw, ok, err := s.lastResetDate(ctx, now.Location())
	if err != nil {
		return res, err
	}
	if !ok {
		res.FirstRun = true
		if _, err := s.roller.Rollover(ctx, raw, nil, resetEntry(today)); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return s.conflict(res, err), nil
			}
			return res, fmt.Errorf("record first reset date: %w", err)
		}
		s.logger.Info("recorded first reset date", "date", today.String())
		return res, nil
	}

	switch {
	case last == today:
		return res, nil
	case last.After(today):
		s.logger.Warn("last reset date is in the future; skipping rollover",
			"last_reset", last.String(),
			"today", today.String(),
		)
		return res, nil
	}

	closed := make([]habit.Date, 0, last.DaysUntil(today))
	for d := last; d.Before(today); d = d.AddDays(1) {
		closed = append(closed, d)
	}

	if _, err := s.roller.Rollover(ctx, raw, closed, resetEntry(today)); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return s.conflict(res, err), nil
		}
		return res, fmt.Errorf("apply rollover %s..%s: %w", last, today, err)
	}
	res.Closed = closed

	s.logger.Info("applied daily rollover",
		"from", last.String(),
		"to", today.String(),
		"days", len(closed),
	)
	return res, nil
}

func (s *Scheduler) conflict(res Result, err error) Result {
	s.logger.Info("rollover already applied by another process", "error", err)
	res.FirstRun = false
	res.Conflict = true
	return res
}

// lastResetDate returns the stored date and its raw value, which is empty
// when nothing is stored. ok is false when there is no usable date.
func (s *Scheduler) lastResetDate(ctx context.Context, loc *time.Location) (d habit.Date, raw string, ok bool, err error) {
	raw, ok, err = s.kv.Get(ctx, store.KeyLastResetDate)
	if err != nil {
		return habit.Date{}, "", false, fmt.Errorf("read last reset date: %w", err)
	}
	if !ok {
		return habit.Date{}, "", false, nil
	}
	d, err = habit.ParseDate(raw, loc)
	if err != nil {
		s.logger.Warn("ignoring unreadable last reset date", "value", raw, "error", err)
		return habit.Date{}, raw, false, nil
	}
	return d, raw, true, nil
}

func resetEntry(d habit.Date) store.Entry {
	return store.Entry{Key: store.KeyLastResetDate, Value: d.String()}
}
