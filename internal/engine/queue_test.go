package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/habitpulse/internal/reminder"
)

func TestEventQueue_EnqueueDequeue(t *testing.T) {
	q := newEventQueue()

	ok := q.Enqueue(Event{Type: EventRollover, Seq: 1})
	require.True(t, ok, "enqueue should succeed")

	got, ok := q.TryDequeue()
	require.True(t, ok, "dequeue should succeed")
	assert.Equal(t, EventRollover, got.Type)
	assert.Equal(t, int64(1), got.Seq)
}

func TestEventQueue_FIFO(t *testing.T) {
	q := newEventQueue()

	q.Enqueue(Event{Type: EventStreakCheck})
	q.Enqueue(Event{Type: EventRollover})
	q.Enqueue(Event{Type: EventDailyReminder})

	var order []EventType
	for {
		e, ok := q.TryDequeue()
		if !ok {
			break
		}
		order = append(order, e.Type)
	}
	assert.Equal(t, []EventType{EventStreakCheck, EventRollover, EventDailyReminder}, order)
}

func TestEventQueue_CoalescesSameType(t *testing.T) {
	q := newEventQueue()

	q.Enqueue(Event{Type: EventRollover, Seq: 1})
	q.Enqueue(Event{Type: EventStreakCheck, Seq: 2})
	q.Enqueue(Event{Type: EventRollover, Seq: 3})
	q.Enqueue(Event{Type: EventRollover, Seq: 4})

	assert.Equal(t, 2, q.Len())

	first, _ := q.TryDequeue()
	assert.Equal(t, EventRollover, first.Type)
	assert.Equal(t, int64(1), first.Seq, "merged event keeps its place")
}

func TestEventQueue_LatestSettingsWin(t *testing.T) {
	q := newEventQueue()

	a := reminder.DefaultSettings()
	b := reminder.DefaultSettings()
	b.ReminderTime = "20:00"

	q.Enqueue(Event{Type: EventSettings, Settings: &a})
	q.Enqueue(Event{Type: EventSettings, Settings: &b})

	got, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, "20:00", got.Settings.ReminderTime)
	assert.Zero(t, q.Len())
}

func TestEventQueue_TryDequeue_Empty(t *testing.T) {
	q := newEventQueue()

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestEventQueue_EnqueueAfterClose(t *testing.T) {
	q := newEventQueue()
	q.Close()
	q.Close() // idempotent

	assert.False(t, q.Enqueue(Event{Type: EventRollover}))
}

func TestEventQueue_WaitSignals(t *testing.T) {
	q := newEventQueue()

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Enqueue(Event{Type: EventRollover})
	}()

	select {
	case <-q.Wait():
		assert.Equal(t, 1, q.Len())
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for signal")
	}
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "rollover", EventRollover.String())
	assert.Equal(t, "streak_check", EventStreakCheck.String())
	assert.Equal(t, "daily_reminder", EventDailyReminder.String())
	assert.Equal(t, "settings", EventSettings.String())
	assert.Equal(t, "EventType(42)", EventType(42).String())
}
