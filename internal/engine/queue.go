package engine

import (
	"fmt"
	"sync"

	"github.com/roach88/habitpulse/internal/reminder"
)

// EventType distinguishes between event kinds.
type EventType int

const (
	// EventRollover asks for a day rollover check.
	EventRollover EventType = iota + 1
	// EventStreakCheck asks for streak warnings.
	EventStreakCheck
	// EventDailyReminder asks for the daily summary notification.
	EventDailyReminder
	// EventSettings carries new reminder settings.
	EventSettings
)

// String returns the event type name used in logs.
func (t EventType) String() string {
	switch t {
	case EventRollover:
		return "rollover"
	case EventStreakCheck:
		return "streak_check"
	case EventDailyReminder:
		return "daily_reminder"
	case EventSettings:
		return "settings"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event is one unit of work for the Run loop.
type Event struct {
	Type EventType
	Seq  int64

	// Settings is set for EventSettings.
	Settings *reminder.Settings
}

// eventQueue is a thread-safe FIFO queue for events.
//
// At most one event per type is pending: enqueuing a type that is already
// queued replaces its payload in place (latest settings win) and keeps its
// position. The queue is therefore bounded by the number of event types and
// a loop that falls behind never builds a backlog of stale ticks.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop (prevents goroutine hangs on context cancellation).
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{} // Signals event availability (buffered, size 1)
}

// newEventQueue creates an empty event queue.
func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 4),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue, or merges it into a pending
// event of the same type. Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	merged := false
	for i := range q.events {
		if q.events[i].Type == e.Type {
			q.events[i].Settings = e.Settings
			merged = true
			break
		}
	}
	if !merged {
		q.events = append(q.events, e)
	}

	// Signal availability (non-blocking - buffer of 1 coalesces multiple signals)
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (Event{}, false) if queue is empty.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}

	e := q.events[0]
	q.events[0] = Event{}

	if len(q.events) == 1 {
		// Last element - reset to empty slice with original capacity
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Wait returns a channel that signals when events may be available.
// Use with select for context-aware waiting:
//
//	select {
//	case <-ctx.Done():
//	    return ctx.Err()
//	case <-q.Wait():
//	    // Try TryDequeue
//	}
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close signals that no more events will be enqueued.
// Wakes any blocked waiters by closing the signal channel.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
