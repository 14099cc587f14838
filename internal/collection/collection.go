// Package collection owns the ordered set of habits and keeps it persisted.
//
// Every mutation re-reads the stored collection, is computed on a copy,
// written through the Persistence collaborator in the same transaction, and
// only then made visible. Writes from other processes are therefore never
// overwritten by a stale in-memory copy. A failed write leaves the in-memory
// collection untouched.
//
// Lookups by id are fail-soft: toggling, editing or deleting an id that does
// not exist returns the current collection unchanged and writes nothing.
package collection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/habitpulse/internal/habit"
	"github.com/roach88/habitpulse/internal/metrics"
	"github.com/roach88/habitpulse/internal/store"
	"github.com/roach88/habitpulse/internal/streak"
)

// Persistence is the key-value collaborator the collection is stored in.
// *store.Store satisfies it.
type Persistence interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetMany(ctx context.Context, entries ...store.Entry) error
	Update(ctx context.Context, fn func(get store.Getter) ([]store.Entry, error)) error
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// IDGenerator assigns ids to new habits.
type IDGenerator interface {
	NewID() string
}

// Observer receives streak events after the change that produced them has
// been persisted.
type Observer func(streak.Event)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Collection is the in-memory habit list backed by Persistence.
//
// Thread-safety: all methods are safe for concurrent use. Observers are called
// without the lock held and may call back into the collection.
type Collection struct {
	mu     sync.Mutex
	habits []habit.Habit

	kv        Persistence
	clock     Clock
	ids       IDGenerator
	logger    *slog.Logger
	observers []Observer
}

// Option configures a Collection.
type Option func(*Collection)

// WithClock sets the time source. Default: the system clock.
func WithClock(c Clock) Option {
	return func(col *Collection) { col.clock = c }
}

// WithIDGenerator sets the habit id source. Default: UUIDv7.
func WithIDGenerator(g IDGenerator) Option {
	return func(col *Collection) { col.ids = g }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(col *Collection) { col.logger = l }
}

// WithObserver registers an observer for streak events.
func WithObserver(o Observer) Option {
	return func(col *Collection) { col.observers = append(col.observers, o) }
}

// Load reads the collection from kv.
//
// A missing value yields an empty collection. A malformed value is logged and
// also yields an empty collection; the bad value stays in storage until the
// next mutation overwrites it. Records from older versions are migrated (see
// habit.Decode) and the migrated form is written back.
//
// Only a failing read is returned as an error.
func Load(ctx context.Context, kv Persistence, opts ...Option) (*Collection, error) {
	c := &Collection{
		kv:     kv,
		clock:  systemClock{},
		ids:    UUIDGenerator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload replaces the in-memory collection with the persisted one, picking up
// changes written by other processes.
func (c *Collection) Reload(ctx context.Context) error {
	raw, ok, err := c.kv.Get(ctx, store.KeyHabits)
	if err != nil {
		return fmt.Errorf("load habits: %w", err)
	}

	var habits []habit.Habit
	if ok {
		decoded, report, err := habit.Decode([]byte(raw), c.clock.Now(), c.ids.NewID)
		if err != nil {
			c.logger.Warn("ignoring malformed habit data", "error", err)
		} else {
			habits = decoded
			if report.Changed() {
				c.logger.Info("migrated stored habits",
					"backfilled", report.Backfilled,
					"repaired", report.Repaired,
					"dropped", len(report.Dropped),
				)
				for _, reason := range report.Dropped {
					c.logger.Warn("dropped stored habit", "reason", reason)
				}
				if err := c.write(ctx, habits); err != nil {
					c.logger.Warn("could not persist migrated habits", "error", err)
				}
			}
		}
	}

	c.mu.Lock()
	c.habits = habits
	c.mu.Unlock()
	metrics.Habits.Set(float64(len(habits)))
	return nil
}

// Habits returns a copy of the collection in display order.
func (c *Collection) Habits() []habit.Habit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return habit.Clone(c.habits)
}

// Find returns the habit with the given id.
func (c *Collection) Find(id string) (habit.Habit, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := indexOf(c.habits, id)
	if i < 0 {
		return habit.Habit{}, false
	}
	return c.habits[i], true
}

// Add creates a habit and places it first. Empty emoji and category get the
// defaults from package habit.
func (c *Collection) Add(ctx context.Context, title, emoji, category string) ([]habit.Habit, error) {
	h, err := habit.New(c.ids.NewID(), title, emoji, category, c.clock.Now())
	if err != nil {
		return nil, err
	}

	return c.update(ctx, func(habits []habit.Habit) ([]habit.Habit, bool) {
		return append([]habit.Habit{h}, habits...), true
	})
}

// Import adds habits that are not already present, keeping their progress.
// Habits without an id get a fresh one. Imported habits are placed after the
// existing ones in the given order. It returns the number of habits added.
func (c *Collection) Import(ctx context.Context, incoming []habit.Habit) (int, error) {
	added := 0
	_, err := c.update(ctx, func(habits []habit.Habit) ([]habit.Habit, bool) {
		for _, h := range incoming {
			if h.ID == "" {
				h.ID = c.ids.NewID()
			}
			if indexOf(habits, h.ID) >= 0 {
				continue
			}
			habits = append(habits, h)
			added++
		}
		return habits, added > 0
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// Toggle flips today's completion of the habit with the given id and returns
// the streak events it produced.
func (c *Collection) Toggle(ctx context.Context, id string) ([]habit.Habit, []streak.Event, error) {
	now := c.clock.Now()
	var events []streak.Event
	var found, done bool

	habits, err := c.update(ctx, func(habits []habit.Habit) ([]habit.Habit, bool) {
		i := indexOf(habits, id)
		if i < 0 {
			return habits, false
		}
		habits[i], events = streak.Toggle(habits[i], now)
		found, done = true, habits[i].DoneToday
		return habits, true
	})
	if err != nil {
		return nil, nil, err
	}

	if found {
		metrics.RecordToggle(done)
	}
	c.notify(events)
	return habits, events, nil
}

// Edit changes the title and category of a habit. An empty argument leaves
// that field unchanged; a title that is blank after trimming is rejected with
// habit.ErrEmptyTitle. Both are normalized as in habit.New, and a blank
// category is ignored.
func (c *Collection) Edit(ctx context.Context, id, newTitle, newCategory string) ([]habit.Habit, error) {
	newCategory = habit.NormalizeCategory(newCategory)
	var title string
	if newTitle != "" {
		t, err := habit.NormalizeTitle(newTitle)
		if err != nil {
			return nil, err
		}
		title = t
	}

	return c.update(ctx, func(habits []habit.Habit) ([]habit.Habit, bool) {
		i := indexOf(habits, id)
		if i < 0 || (title == "" && newCategory == "") {
			return habits, false
		}
		if title != "" {
			habits[i].Title = title
		}
		if newCategory != "" {
			habits[i].Category = newCategory
		}
		return habits, true
	})
}

// SetEmoji changes the emoji of a habit. An empty emoji is ignored.
func (c *Collection) SetEmoji(ctx context.Context, id, emoji string) ([]habit.Habit, error) {
	return c.update(ctx, func(habits []habit.Habit) ([]habit.Habit, bool) {
		i := indexOf(habits, id)
		if i < 0 || emoji == "" {
			return habits, false
		}
		habits[i].Emoji = emoji
		return habits, true
	})
}

// Delete removes the habit with the given id.
func (c *Collection) Delete(ctx context.Context, id string) ([]habit.Habit, error) {
	return c.update(ctx, func(habits []habit.Habit) ([]habit.Habit, bool) {
		i := indexOf(habits, id)
		if i < 0 {
			return habits, false
		}
		return append(habits[:i], habits[i+1:]...), true
	})
}

// Rollover closes each day in days, oldest first, for every habit, and writes
// the result together with extra in one transaction.
//
// lastReset is the stored last reset date the days were computed from, empty
// when there was none. If another process has changed it since, nothing is
// written and the error wraps store.ErrConflict, so a day boundary is never
// applied twice.
func (c *Collection) Rollover(ctx context.Context, lastReset string, days []habit.Date, extra ...store.Entry) ([]habit.Habit, error) {
	if len(days) == 0 && len(extra) == 0 {
		return c.Habits(), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	loc := c.clock.Now().Location()
	var next []habit.Habit
	err := c.kv.Update(ctx, func(get store.Getter) ([]store.Entry, error) {
		got, _, err := get(store.KeyLastResetDate)
		if err != nil {
			return nil, fmt.Errorf("rollover: %w", err)
		}
		if got != lastReset {
			return nil, fmt.Errorf("rollover from %q: last reset date is now %q: %w", lastReset, got, store.ErrConflict)
		}

		next, err = c.stored(get)
		if err != nil {
			return nil, err
		}
		for i := range next {
			for _, d := range days {
				next[i] = streak.Rollover(next[i], d, loc)
			}
		}
		return c.entries(next, extra...)
	})
	if err != nil {
		return nil, fmt.Errorf("save habits: %w", err)
	}
	c.habits = next
	metrics.Habits.Set(float64(len(next)))
	return habit.Clone(next), nil
}

// update applies fn to a fresh copy of the stored collection and persists the
// result in the same transaction when fn reports a change.
func (c *Collection) update(ctx context.Context, fn func([]habit.Habit) ([]habit.Habit, bool)) ([]habit.Habit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var next []habit.Habit
	err := c.kv.Update(ctx, func(get store.Getter) ([]store.Entry, error) {
		current, err := c.stored(get)
		if err != nil {
			return nil, err
		}
		var changed bool
		next, changed = fn(current)
		if !changed {
			return nil, nil
		}
		return c.entries(next)
	})
	if err != nil {
		return nil, fmt.Errorf("save habits: %w", err)
	}
	c.habits = next
	metrics.Habits.Set(float64(len(next)))
	return habit.Clone(next), nil
}

// stored reads the collection through get. A missing value is an empty
// collection; a malformed one keeps the in-memory copy, as in Load.
// Caller must hold c.mu.
func (c *Collection) stored(get store.Getter) ([]habit.Habit, error) {
	raw, ok, err := get(store.KeyHabits)
	if err != nil {
		return nil, fmt.Errorf("load habits: %w", err)
	}
	if !ok {
		return nil, nil
	}
	habits, _, err := habit.Decode([]byte(raw), c.clock.Now(), c.ids.NewID)
	if err != nil {
		c.logger.Warn("ignoring malformed habit data", "error", err)
		return habit.Clone(c.habits), nil
	}
	return habits, nil
}

func (c *Collection) entries(habits []habit.Habit, extra ...store.Entry) ([]store.Entry, error) {
	data, err := habit.Encode(habits)
	if err != nil {
		return nil, err
	}
	return append([]store.Entry{{Key: store.KeyHabits, Value: string(data)}}, extra...), nil
}

func (c *Collection) write(ctx context.Context, habits []habit.Habit) error {
	entries, err := c.entries(habits)
	if err != nil {
		return err
	}
	if err := c.kv.SetMany(ctx, entries...); err != nil {
		return fmt.Errorf("save habits: %w", err)
	}
	return nil
}

func (c *Collection) notify(events []streak.Event) {
	for _, ev := range events {
		for _, o := range c.observers {
			o(ev)
		}
	}
}

func indexOf(habits []habit.Habit, id string) int {
	for i, h := range habits {
		if h.ID == id {
			return i
		}
	}
	return -1
}
