package harness

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/roach88/taskflow/internal/store"
	"github.com/roach88/taskflow/internal/task"
	"github.com/roach88/taskflow/internal/testutil"
)

// AssertionError is returned when an assertion fails.
// It includes the trace to help debug the failure.
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
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] step %d %s task=%d\n", i+1, event.Step, event.Name, event.TaskID)
		}
	}
	return buf.String()
}

// AssertionContext provides what board assertions read.
type AssertionContext struct {
	Ctx     context.Context
	Store   *store.Store
	layouts *layouts
	refs    map[string]int64
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertBoard:
			err = assertBoard(actx, a)
		case AssertTask:
			err = assertTask(actx, a)
		case AssertEventCount:
			err = assertEventCount(result.Trace, a)
		case AssertEventOrder:
			err = assertEventOrder(result.Trace, a)
		case AssertContiguous:
			err = assertContiguous(actx)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}

// assertBoard compares the open tasks of one slot, in position order.
func assertBoard(actx *AssertionContext, a Assertion) error {
	p, err := actx.layouts.project(a.Project)
	if err != nil {
		return err
	}
	col, err := column(p, a.Column)
	if err != nil {
		return err
	}
	lane, err := swimlane(p, a.Swimlane)
	if err != nil {
		return err
	}

	tasks, err := actx.Store.Slot(actx.Ctx, p.ID, col, lane)
	if err != nil {
		return fmt.Errorf("read slot: %w", err)
	}
	got := make([]string, len(tasks))
	for i, t := range tasks {
		got[i] = nameOf(actx.refs, t.ID)
	}

	want := a.Tasks
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(got, want) {
		return &AssertionError{
			Type:     AssertBoard,
			Expected: fmt.Sprintf("%s/%s/%s holds %v", p.Name, a.Column, laneLabel(a.Swimlane), want),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

func laneLabel(name string) string {
	if name == "" {
		return "(default)"
	}
	return name
}

// assertTask checks field values of one task (subset match).
func assertTask(actx *AssertionContext, a Assertion) error {
	id := actx.refs[a.Task]
	t, err := actx.Store.Task(actx.Ctx, id)
	if err != nil {
		return &AssertionError{
			Type:     AssertTask,
			Expected: fmt.Sprintf("task %s (#%d)", a.Task, id),
			Actual:   fmt.Sprintf("read error: %v", err),
		}
	}

	fields := actx.taskFields(t)
	keys := make([]string, 0, len(a.Expect))
	for k := range a.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Stable error messages

	for _, k := range keys {
		got, ok := fields[k]
		if !ok {
			return fmt.Errorf("task %s: unknown field %q", a.Task, k)
		}
		want := normalize(a.Expect[k])
		if fmt.Sprint(got) != want {
			return &AssertionError{
				Type:     AssertTask,
				Expected: fmt.Sprintf("task %s %s = %s", a.Task, k, want),
				Actual:   fmt.Sprint(got),
			}
		}
	}
	return nil
}

// normalize renders an expected YAML value the way taskFields renders the
// actual one.
func normalize(v any) string {
	if ts, ok := v.(time.Time); ok {
		return ts.Format(time.DateOnly)
	}
	return fmt.Sprint(v)
}

func (actx *AssertionContext) taskFields(t task.Task) map[string]any {
	p := actx.layouts.byID[t.ProjectID]
	due := ""
	if !t.DateDue.IsZero() {
		due = t.DateDue.Format(time.DateOnly)
	}
	return map[string]any{
		"title":             t.Title,
		"project":           p.Name,
		"column":            nameOf(p.Columns, t.ColumnID),
		"swimlane":          nameOf(p.Swimlanes, t.SwimlaneID),
		"position":          t.Position,
		"active":            t.Active,
		"due":               due,
		"recurrence_status": t.Recurrence.Status.String(),
		"trigger":           t.Recurrence.Trigger.String(),
		"factor":            t.Recurrence.Factor,
		"timeframe":         t.Recurrence.Timeframe.String(),
		"basedate":          t.Recurrence.BaseDate.String(),
	}
}

// assertEventCount checks if the event appears exactly the specified number of times.
func assertEventCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, e := range trace {
		if e.Name == a.Event {
			count++
		}
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Event),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertEventOrder checks that the events appear in the specified order.
// Events don't need to be consecutive.
func assertEventOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, e := range trace {
		if next < len(a.Events) && e.Name == a.Events[next] {
			next++
		}
	}
	if next == len(a.Events) {
		return nil
	}

	return &AssertionError{
		Type:     AssertEventOrder,
		Expected: fmt.Sprintf("events in order: %v", a.Events),
		Actual:   fmt.Sprintf("no %s after %v", a.Events[next], a.Events[:next]),
		Trace:    trace,
	}
}

// assertContiguous checks slot positions of every project.
func assertContiguous(actx *AssertionContext) error {
	names := make([]string, 0, len(actx.layouts.byName))
	for n := range actx.layouts.byName {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		p := actx.layouts.byName[n]
		if err := testutil.CheckContiguous(actx.Ctx, actx.Store, p.ID); err != nil {
			return &AssertionError{
				Type:     AssertContiguous,
				Expected: fmt.Sprintf("project %s slots hold 1..N", n),
				Actual:   err.Error(),
			}
		}
	}
	return nil
}
