package task

import (
	"fmt"
	"strings"
)

// RecurrenceStatus gates at-most-once successor generation.
type RecurrenceStatus int

const (
	RecurrenceNone      RecurrenceStatus = 0
	RecurrencePending   RecurrenceStatus = 1
	RecurrenceProcessed RecurrenceStatus = 2
)

// Trigger is the lifecycle event kind that authorizes generation.
type Trigger int

const (
	TriggerOnClose            Trigger = 0
	TriggerOnLeaveFirstColumn Trigger = 1
	TriggerOnEnterLastColumn  Trigger = 2
)

// Timeframe is the unit the recurrence factor is expressed in.
type Timeframe int

const (
	TimeframeDays   Timeframe = 0
	TimeframeMonths Timeframe = 1
	TimeframeYears  Timeframe = 2
)

// BaseDate selects the reference timestamp for the successor's due date.
type BaseDate int

const (
	BaseDateDueDate    BaseDate = 0
	BaseDateActionDate BaseDate = 1
)

// Recurrence is the recurrence configuration embedded in a task.
type Recurrence struct {
	Status    RecurrenceStatus `json:"status"`
	Trigger   Trigger          `json:"trigger"`
	Factor    int              `json:"factor"`
	Timeframe Timeframe        `json:"timeframe"`
	BaseDate  BaseDate         `json:"basedate"`
}

// Pending reports whether the task may still generate a successor.
func (r Recurrence) Pending() bool {
	return r.Status == RecurrencePending
}

// Successor returns the configuration a generated task inherits: identical
// except for the status, which starts over as pending.
func (r Recurrence) Successor() Recurrence {
	r.Status = RecurrencePending
	return r
}

var statusNames = map[RecurrenceStatus]string{
	RecurrenceNone:      "none",
	RecurrencePending:   "pending",
	RecurrenceProcessed: "processed",
}

var triggerNames = map[Trigger]string{
	TriggerOnClose:            "close",
	TriggerOnLeaveFirstColumn: "leave_first_column",
	TriggerOnEnterLastColumn:  "enter_last_column",
}

var timeframeNames = map[Timeframe]string{
	TimeframeDays:   "days",
	TimeframeMonths: "months",
	TimeframeYears:  "years",
}

var baseDateNames = map[BaseDate]string{
	BaseDateDueDate:    "due_date",
	BaseDateActionDate: "action_date",
}

func (s RecurrenceStatus) String() string { return nameOr(statusNames, s) }
func (t Trigger) String() string          { return nameOr(triggerNames, t) }
func (t Timeframe) String() string        { return nameOr(timeframeNames, t) }
func (b BaseDate) String() string         { return nameOr(baseDateNames, b) }

func (s RecurrenceStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (t Trigger) MarshalText() ([]byte, error)          { return []byte(t.String()), nil }
func (t Timeframe) MarshalText() ([]byte, error)        { return []byte(t.String()), nil }
func (b BaseDate) MarshalText() ([]byte, error)         { return []byte(b.String()), nil }

func (s *RecurrenceStatus) UnmarshalText(b []byte) (err error) {
	*s, err = ParseRecurrenceStatus(string(b))
	return err
}

func (t *Trigger) UnmarshalText(b []byte) (err error) {
	*t, err = ParseTrigger(string(b))
	return err
}

func (t *Timeframe) UnmarshalText(b []byte) (err error) {
	*t, err = ParseTimeframe(string(b))
	return err
}

func (b *BaseDate) UnmarshalText(text []byte) (err error) {
	*b, err = ParseBaseDate(string(text))
	return err
}

// Label returns the option text shown in recurrence settings forms.
func (s RecurrenceStatus) Label() string {
	if s == RecurrencePending || s == RecurrenceProcessed {
		return "Yes"
	}
	return "No"
}

// Label returns the option text shown in recurrence settings forms.
func (t Trigger) Label() string {
	switch t {
	case TriggerOnLeaveFirstColumn:
		return "When task is moved from first column"
	case TriggerOnEnterLastColumn:
		return "When task is moved to last column"
	default:
		return "When task is closed"
	}
}

// Label returns the option text shown in recurrence settings forms.
func (t Timeframe) Label() string {
	switch t {
	case TimeframeMonths:
		return "Month(s)"
	case TimeframeYears:
		return "Year(s)"
	default:
		return "Day(s)"
	}
}

// Label returns the option text shown in recurrence settings forms.
func (b BaseDate) Label() string {
	if b == BaseDateActionDate {
		return "Action date"
	}
	return "Existing due date"
}

// ParseTrigger accepts the String() form of a Trigger.
func ParseTrigger(s string) (Trigger, error) { return parseName(triggerNames, "trigger", s) }

// ParseTimeframe accepts the String() form of a Timeframe.
func ParseTimeframe(s string) (Timeframe, error) { return parseName(timeframeNames, "timeframe", s) }

// ParseBaseDate accepts the String() form of a BaseDate.
func ParseBaseDate(s string) (BaseDate, error) { return parseName(baseDateNames, "basedate", s) }

// ParseRecurrenceStatus accepts the String() form of a RecurrenceStatus.
func ParseRecurrenceStatus(s string) (RecurrenceStatus, error) {
	return parseName(statusNames, "recurrence status", s)
}

func nameOr[K ~int](names map[K]string, k K) string {
	if n, ok := names[k]; ok {
		return n
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

func parseName[K ~int](names map[K]string, kind, s string) (K, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for k, n := range names {
		if n == want {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, s)
}

// RecurrenceSettings is the input of a recurrence settings change. Nil
// pointers mean "not provided".
type RecurrenceSettings struct {
	Enabled   bool
	Trigger   *Trigger
	Factor    *int
	Timeframe *Timeframe
	BaseDate  *BaseDate
}

// Normalize turns settings into a stored configuration. Enabling fills in
// defaults for missing values (trigger on close, factor 1, days, due date);
// disabling clears every field.
func (s RecurrenceSettings) Normalize() Recurrence {
	if !s.Enabled {
		return Recurrence{}
	}

	r := Recurrence{
		Status:    RecurrencePending,
		Trigger:   TriggerOnClose,
		Factor:    1,
		Timeframe: TimeframeDays,
		BaseDate:  BaseDateDueDate,
	}
	if s.Trigger != nil {
		r.Trigger = *s.Trigger
	}
	// A zero factor counts as missing.
	if s.Factor != nil && *s.Factor != 0 {
		r.Factor = *s.Factor
	}
	if s.Timeframe != nil {
		r.Timeframe = *s.Timeframe
	}
	if s.BaseDate != nil {
		r.BaseDate = *s.BaseDate
	}
	return r
}
