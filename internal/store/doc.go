// Package store provides SQLite-backed key-value persistence for HabitPulse.
//
// The whole application state is a handful of values:
//   - habits: the habit collection as a JSON array
//   - last_reset_date: the last day a rollover pass was applied (YYYY-MM-DD)
//
// Each value is rewritten in full on every change, so the store needs only
// point reads and (batched) point writes. SetMany writes several keys in one
// transaction; the rollover scheduler depends on this to persist the rolled
// collection and the new reset date atomically.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads while the background loop writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: CLI invocations wait for the loop instead of failing
//
// Schema changes are tracked with PRAGMA user_version.
package store
