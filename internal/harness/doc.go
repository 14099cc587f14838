// Package harness runs HabitPulse scenarios: scripted sequences of user
// actions and clock movements, checked against assertions and, optionally,
// golden trace files.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	start: "2026-10-19T08:00:00Z"
//	last_reset_date: "2026-10-19"   # optional; omitted means first run
//	warning_hour: 18                # optional
//	reminders:                      # optional; default is enabled
//	  enabled: true
//	  reminder_time: "09:00"
//	steps:
//	  - action: add
//	    title: Run
//	  - action: toggle
//	    id: habit-1
//	  - action: advance
//	    duration: 48h
//	  - action: tick
//	assertions:
//	  - type: habit
//	    id: habit-1
//	    expect: { streak: 0, totalDays: 2 }
//
// # Step Actions
//
//   - add: create a habit (title, emoji, category)
//   - toggle, delete: act on the habit with the given id
//   - edit: change title, category and/or emoji of id
//   - advance: move the clock forward by duration
//   - set_time: jump the clock to at (RFC 3339)
//   - tick: run one rollover check
//   - remind: send the daily reminder
//   - warn: run the streak warning check
//
// tick, remind and warn go through the same engine handlers as the
// background loop.
//
// # Assertion Types
//
//   - habit: the habit with id exists and matches expect (subset match)
//   - habit_missing: no habit with id exists
//   - habit_count: the collection has count habits
//   - last_reset_date: the persisted last reset date equals date
//   - stats: the progress statistics match expect (subset match)
//   - trace_contains: an event of the given type (and kind, habit_id,
//     message when set) appears in the trace
//   - trace_count: exactly count such events appear
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory database with a fake clock
// starting at start and habit ids habit-1, habit-2, ... so traces are
// byte-identical across runs and can be compared with golden files.
package harness
