package harness

// TraceEvent is one dispatched event as recorded by the harness.
type TraceEvent struct {
	// Step is the 1-based index of the scenario step that caused the event.
	Step          int            `json:"step"`
	Name          string         `json:"name"`
	CorrelationID string         `json:"correlation_id"`
	Seq           int64          `json:"seq"`
	TaskID        int64          `json:"task_id"`
	Payload       map[string]any `json:"payload"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains every dispatched event in publish order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Refs maps task references to the ids they were bound to.
	Refs map[string]int64 `json:"refs"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Refs:   make(map[string]int64),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Names returns the event names of the trace in order.
func (r *Result) Names() []string {
	names := make([]string, len(r.Trace))
	for i, e := range r.Trace {
		names[i] = e.Name
	}
	return names
}
