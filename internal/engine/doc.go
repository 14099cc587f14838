// Package engine runs HabitPulse's background loop.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// Recurring tasks never touch habit state themselves. They only enqueue
// events; Engine.Run dequeues them one at a time in a single goroutine. This
// ensures:
// - A rollover and a reminder check never interleave
// - Settings changes apply between events, never during one
// - Simple reasoning about what the user saw and when
//
// Event Processing Flow:
// 1. Tasks enqueue events (rollover, streak check, daily reminder, settings)
// 2. Identical pending events coalesce; a burst of ticks is handled once
// 3. Engine.Run() dequeues events one at a time
// 4. The collection is reloaded from the store, so changes written by other
//    processes (one-shot CLI commands) are seen
// 5. processEvent() routes to the rollover scheduler or reminder service
//
// Recurring tasks:
// - Rollover check every minute (also once at start, for catch-up)
// - Streak warning check every 30 minutes
// - Daily reminder alarm at the configured reminder time
//
// Every task is a *Task with Stop(); Run stops all of them on return.
package engine
