// Package streak implements the pure transitions of a habit's progress.
//
// Two transforms exist:
//
//   - Toggle flips today's completion in response to the user.
//   - Rollover closes a calendar day.
//
// Neither touches storage or the clock. Callers pass the current time and are
// responsible for invoking Rollover at most once per habit per day boundary
// (see package rollover).
//
// # Counting Policy
//
// Undoing a completion decrements the streak by one, floored at zero. It is the
// exact inverse of completing, so toggle followed by undo restores the habit.
//
// TotalDays counts a day exactly once: when the habit is completed on it, or
// when the day closes without a completion. A completed day therefore adds to
// TotalDays at toggle time and not again at rollover.
//
// A day that closed before a habit was created does not enter TotalDays. It
// still clears DoneToday and resets an uncompleted streak, so records with a
// backfilled or foreign-zone createdAt cannot skip a rollover.
package streak
