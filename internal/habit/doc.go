// Package habit defines the HabitPulse record model.
//
// A Habit is a plain value. It carries no behavior beyond validation and
// migration: streak transitions live in package streak, ordering and
// persistence in package collection.
//
// # Invariants
//
//   - 0 <= CompletedDays <= TotalDays
//   - Streak >= 0
//   - ID and CreatedAt never change after creation
//
// # Calendar Days
//
// All day arithmetic uses Date, a local calendar day. Two timestamps belong to
// the same day when DateOf returns equal values for them in the same location.
package habit
