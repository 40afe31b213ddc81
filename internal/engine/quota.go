package engine

import (
	"errors"
	"fmt"
)

// QuotaEnforcer counts the events dispatched for one correlation and
// enforces a maximum.
//
// Each dispatch has its own QuotaEnforcer. A misconfigured recurrence chain
// (for instance a successor whose trigger fires again on creation) would
// otherwise keep generating tasks forever.
type QuotaEnforcer struct {
	maxSteps int
	current  int
}

// NewQuotaEnforcer creates a new quota enforcer with the given limit.
func NewQuotaEnforcer(maxSteps int) *QuotaEnforcer {
	return &QuotaEnforcer{maxSteps: maxSteps}
}

// Check increments the step counter and validates against the limit.
//
// Returns StepsExceededError if the quota is exceeded.
func (q *QuotaEnforcer) Check(correlationID string) error {
	q.current++
	if q.current > q.maxSteps {
		return &StepsExceededError{
			CorrelationID: correlationID,
			Steps:         q.current,
			Limit:         q.maxSteps,
		}
	}
	return nil
}

// Current returns the current step count.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxSteps returns the maximum steps limit.
func (q *QuotaEnforcer) MaxSteps() int {
	return q.maxSteps
}

// StepsExceededError reports a dispatch that hit its step quota. The
// remaining queued events are dropped.
type StepsExceededError struct {
	CorrelationID string
	Steps         int
	Limit         int
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("dispatch %s exceeded max steps quota: %d steps > %d limit",
		e.CorrelationID, e.Steps, e.Limit)
}

// IsStepsExceededError returns true if the error is a StepsExceededError.
// Uses errors.As to handle wrapped errors.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
