package harness

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/habitpulse/internal/habit"
)

// AssertionContext holds the final state assertions are checked against.
type AssertionContext struct {
	Habits        []habit.Habit
	LastResetDate string
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s", event.Seq, event.At, event.Type)
			if event.Action != "" {
				fmt.Fprintf(&buf, " %s", event.Action)
			}
			if event.HabitID != "" {
				fmt.Fprintf(&buf, " %s", event.HabitID)
			}
			if event.Kind != "" {
				fmt.Fprintf(&buf, " (%s)", event.Kind)
			}
			if event.Message != "" {
				fmt.Fprintf(&buf, ": %s", event.Message)
			}
			buf.WriteString("\n")
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure messages.
func EvaluateAssertions(trace []TraceEvent, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(trace, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertHabit:
		return assertHabit(actx.Habits, a)
	case AssertHabitMissing:
		return assertHabitMissing(actx.Habits, a)
	case AssertHabitCount:
		return assertHabitCount(actx.Habits, a)
	case AssertLastResetDate:
		return assertLastResetDate(actx.LastResetDate, a)
	case AssertStats:
		return assertStats(actx.Habits, a)
	case AssertTraceContains:
		return assertTraceContains(trace, a)
	case AssertTraceCount:
		return assertTraceCount(trace, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

func assertHabit(habits []habit.Habit, a Assertion) error {
	for _, h := range habits {
		if h.ID != a.ID {
			continue
		}
		mismatches, err := matchFields(h, a.Expect)
		if err != nil {
			return err
		}
		if len(mismatches) > 0 {
			return &AssertionError{
				Type:     AssertHabit,
				Expected: fmt.Sprintf("habit %s with %s", a.ID, formatExpect(a.Expect)),
				Actual:   strings.Join(mismatches, ", "),
			}
		}
		return nil
	}
	return &AssertionError{
		Type:     AssertHabit,
		Expected: fmt.Sprintf("habit %s", a.ID),
		Actual:   fmt.Sprintf("not found among %s", habitIDs(habits)),
	}
}

func assertHabitMissing(habits []habit.Habit, a Assertion) error {
	for _, h := range habits {
		if h.ID == a.ID {
			return &AssertionError{
				Type:     AssertHabitMissing,
				Expected: fmt.Sprintf("no habit %s", a.ID),
				Actual:   fmt.Sprintf("habit %s (%s) exists", h.ID, h.Title),
			}
		}
	}
	return nil
}

func assertHabitCount(habits []habit.Habit, a Assertion) error {
	if len(habits) != *a.Count {
		return &AssertionError{
			Type:     AssertHabitCount,
			Expected: fmt.Sprintf("%d habits", *a.Count),
			Actual:   fmt.Sprintf("%d habits %s", len(habits), habitIDs(habits)),
		}
	}
	return nil
}

func assertLastResetDate(got string, a Assertion) error {
	if got != a.Date {
		if got == "" {
			got = "unset"
		}
		return &AssertionError{
			Type:     AssertLastResetDate,
			Expected: a.Date,
			Actual:   got,
		}
	}
	return nil
}

func assertStats(habits []habit.Habit, a Assertion) error {
	mismatches, err := matchFields(habit.Summarize(habits), a.Expect)
	if err != nil {
		return err
	}
	if len(mismatches) > 0 {
		return &AssertionError{
			Type:     AssertStats,
			Expected: formatExpect(a.Expect),
			Actual:   strings.Join(mismatches, ", "),
		}
	}
	return nil
}

// assertTraceContains checks that at least one trace event matches the
// assertion's filters.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	if countMatches(trace, a) > 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describeFilter(a),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceCount checks that exactly Count trace events match.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	n := countMatches(trace, a)
	if n != *a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d x %s", *a.Count, describeFilter(a)),
			Actual:   fmt.Sprintf("%d matching events", n),
			Trace:    trace,
		}
	}
	return nil
}

func countMatches(trace []TraceEvent, a Assertion) int {
	n := 0
	for _, ev := range trace {
		if ev.Type != a.Event {
			continue
		}
		if a.ID != "" && ev.HabitID != a.ID {
			continue
		}
		if a.Kind != "" && ev.Kind != a.Kind {
			continue
		}
		if a.Message != "" && !strings.Contains(ev.Message, a.Message) {
			continue
		}
		n++
	}
	return n
}

func describeFilter(a Assertion) string {
	parts := []string{"event " + a.Event}
	if a.ID != "" {
		parts = append(parts, "habit_id "+a.ID)
	}
	if a.Kind != "" {
		parts = append(parts, "kind "+a.Kind)
	}
	if a.Message != "" {
		parts = append(parts, fmt.Sprintf("message containing %q", a.Message))
	}
	return strings.Join(parts, ", ")
}

// matchFields compares the JSON form of v against expect (subset match) and
// returns one description per mismatching field. Values are compared by
// their JSON encoding so YAML integers match JSON numbers.
func matchFields(v any, expect map[string]any) ([]string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var actual map[string]json.RawMessage
	if err := json.Unmarshal(data, &actual); err != nil {
		return nil, err
	}

	var mismatches []string
	for _, key := range sortedKeys(expect) {
		want, err := json.Marshal(expect[key])
		if err != nil {
			return nil, fmt.Errorf("expect.%s: %w", key, err)
		}
		got, ok := actual[key]
		if !ok {
			mismatches = append(mismatches, fmt.Sprintf("%s: no such field", key))
			continue
		}
		if string(got) != string(want) {
			mismatches = append(mismatches, fmt.Sprintf("%s: got %s, want %s", key, got, want))
		}
	}
	return mismatches, nil
}

func formatExpect(expect map[string]any) string {
	parts := make([]string, 0, len(expect))
	for _, key := range sortedKeys(expect) {
		parts = append(parts, fmt.Sprintf("%s=%v", key, expect[key]))
	}
	return strings.Join(parts, ", ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func habitIDs(habits []habit.Habit) string {
	ids := make([]string, len(habits))
	for i, h := range habits {
		ids[i] = h.ID
	}
	return "[" + strings.Join(ids, " ") + "]"
}
