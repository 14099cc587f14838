package harness

// Trace event types.
const (
	EventStep         = "step"
	EventCompleted    = "completed"
	EventMilestone    = "milestone"
	EventRollover     = "rollover"
	EventNotification = "notification"
	EventError        = "error"
)

// TraceEvent is one observable effect of a scenario step.
type TraceEvent struct {
	Seq     int64    `json:"seq"`
	At      string   `json:"at"`
	Type    string   `json:"type"`
	Action  string   `json:"action,omitempty"`
	HabitID string   `json:"habit_id,omitempty"`
	Kind    string   `json:"kind,omitempty"`
	Streak  int      `json:"streak,omitempty"`
	Days    []string `json:"days,omitempty"`
	Message string   `json:"message,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every assertion held.
	Pass bool `json:"pass"`

	// Trace contains every step and effect in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
