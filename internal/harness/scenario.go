package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/habitpulse/internal/habit"
	"github.com/roach88/habitpulse/internal/reminder"
)

// Scenario is a scripted HabitPulse session.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Start is the initial clock time (RFC 3339). Its offset is the user's
	// time zone for the whole scenario.
	Start string `yaml:"start"`

	// LastResetDate seeds the persisted last reset date (YYYY-MM-DD).
	LastResetDate string `yaml:"last_reset_date,omitempty"`

	// WarningHour overrides the streak warning hour.
	WarningHour *int `yaml:"warning_hour,omitempty"`

	// Reminders overrides the notification settings. Defaults to the
	// standard settings with notifications enabled.
	Reminders *reminder.Settings `yaml:"reminders,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one scenario action.
type Step struct {
	Action   string `yaml:"action"`
	ID       string `yaml:"id,omitempty"`
	Title    string `yaml:"title,omitempty"`
	Emoji    string `yaml:"emoji,omitempty"`
	Category string `yaml:"category,omitempty"`
	Duration string `yaml:"duration,omitempty"`
	At       string `yaml:"at,omitempty"`
}

// Step action constants.
const (
	StepAdd     = "add"
	StepToggle  = "toggle"
	StepEdit    = "edit"
	StepDelete  = "delete"
	StepAdvance = "advance"
	StepSetTime = "set_time"
	StepTick    = "tick"
	StepRemind  = "remind"
	StepWarn    = "warn"
)

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type; see the package documentation.
	Type string `yaml:"type"`

	// ID is the habit id (habit, habit_missing) or a trace filter.
	ID string `yaml:"id,omitempty"`

	// Expect contains expected field values (habit, stats).
	// Subset match - only specified fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number (habit_count, trace_count).
	Count *int `yaml:"count,omitempty"`

	// Date is the expected last reset date (last_reset_date).
	Date string `yaml:"date,omitempty"`

	// Event, Kind and Message filter trace events (trace_contains,
	// trace_count). Empty filters match anything.
	Event   string `yaml:"event,omitempty"`
	Kind    string `yaml:"kind,omitempty"`
	Message string `yaml:"message,omitempty"`
}

// Assertion type constants.
const (
	AssertHabit         = "habit"
	AssertHabitMissing  = "habit_missing"
	AssertHabitCount    = "habit_count"
	AssertLastResetDate = "last_reset_date"
	AssertStats         = "stats"
	AssertTraceContains = "trace_contains"
	AssertTraceCount    = "trace_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// startTime parses Start.
func (s *Scenario) startTime() (time.Time, error) {
	return time.Parse(time.RFC3339, s.Start)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if _, err := s.startTime(); err != nil {
		return fmt.Errorf("start must be an RFC 3339 time: %w", err)
	}

	if s.LastResetDate != "" {
		if _, err := time.Parse(habit.DateLayout, s.LastResetDate); err != nil {
			return fmt.Errorf("last_reset_date must be YYYY-MM-DD: %w", err)
		}
	}

	if s.WarningHour != nil && (*s.WarningHour < 0 || *s.WarningHour > 23) {
		return fmt.Errorf("warning_hour must be between 0 and 23")
	}

	if s.Reminders != nil {
		if err := s.Reminders.Validate(); err != nil {
			return fmt.Errorf("reminders: %w", err)
		}
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, s Step) error {
	switch s.Action {
	case StepAdd:
		if s.Title == "" {
			return fmt.Errorf("steps[%d]: add requires title", index)
		}
	case StepToggle, StepDelete:
		if s.ID == "" {
			return fmt.Errorf("steps[%d]: %s requires id", index, s.Action)
		}
	case StepEdit:
		if s.ID == "" {
			return fmt.Errorf("steps[%d]: edit requires id", index)
		}
		if s.Title == "" && s.Category == "" && s.Emoji == "" {
			return fmt.Errorf("steps[%d]: edit requires title, category or emoji", index)
		}
	case StepAdvance:
		d, err := time.ParseDuration(s.Duration)
		if err != nil {
			return fmt.Errorf("steps[%d]: advance requires a duration: %w", index, err)
		}
		if d <= 0 {
			return fmt.Errorf("steps[%d]: advance duration must be positive", index)
		}
	case StepSetTime:
		if _, err := time.Parse(time.RFC3339, s.At); err != nil {
			return fmt.Errorf("steps[%d]: set_time requires an RFC 3339 time: %w", index, err)
		}
	case StepTick, StepRemind, StepWarn:
	case "":
		return fmt.Errorf("steps[%d]: action is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown action %q", index, s.Action)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertHabit:
		if a.ID == "" || len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: habit requires id and expect", index)
		}
	case AssertHabitMissing:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: habit_missing requires id", index)
		}
	case AssertHabitCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: habit_count requires count", index)
		}
	case AssertLastResetDate:
		if a.Date == "" {
			return fmt.Errorf("assertions[%d]: last_reset_date requires date", index)
		}
	case AssertStats:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: stats requires expect", index)
		}
	case AssertTraceContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: trace_contains requires event", index)
		}
	case AssertTraceCount:
		if a.Event == "" || a.Count == nil {
			return fmt.Errorf("assertions[%d]: trace_count requires event and count", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown type %q", index, a.Type)
	}
	return nil
}
