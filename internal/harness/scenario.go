package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/taskflow/internal/engine"
	"github.com/roach88/taskflow/internal/task"
)

// DefaultProject is the name of the scenario board when none is given.
const DefaultProject = "board"

// Scenario defines a board, a sequence of operations against it, and
// assertions on the resulting board and event trace.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Now is the RFC 3339 instant the fixed clock starts at.
	// Defaults to 2024-01-15T09:30:00Z.
	Now string `yaml:"now,omitempty"`

	Board Board `yaml:"board"`

	Steps []Step `yaml:"steps"`

	// Assertions validate the final board and the trace.
	// Supported types: board, task, event_count, event_order, contiguous
	Assertions []Assertion `yaml:"assertions"`
}

// Project is a board layout with its initial tasks.
type Project struct {
	Name      string   `yaml:"name,omitempty"`
	Columns   []string `yaml:"columns"`
	Swimlanes []string `yaml:"swimlanes,omitempty"`
	Tasks     []Task   `yaml:"tasks,omitempty"`
}

// Board is the scenario's main project plus any extra projects used as
// copy and move targets.
type Board struct {
	Project  `yaml:",inline"`
	Projects []Project `yaml:"projects,omitempty"`
}

// Task is an initial task. Tasks are appended to their slot in order.
type Task struct {
	// Ref names the task in steps and assertions. Defaults to Title.
	Ref        string      `yaml:"ref,omitempty"`
	Title      string      `yaml:"title"`
	Column     string      `yaml:"column"`
	Swimlane   string      `yaml:"swimlane,omitempty"`
	Due        string      `yaml:"due,omitempty"`
	Closed     bool        `yaml:"closed,omitempty"`
	Recurrence *Recurrence `yaml:"recurrence,omitempty"`
}

// Recurrence configures a recurring task. Empty values take the defaults:
// trigger close, factor 1, days, due_date.
type Recurrence struct {
	Trigger   string `yaml:"trigger,omitempty"`
	Factor    *int   `yaml:"factor,omitempty"`
	Timeframe string `yaml:"timeframe,omitempty"`
	BaseDate  string `yaml:"basedate,omitempty"`
}

// Step is one operation. Exactly one of the operation fields is set.
//
// Task references are refs bound by the board or an earlier step's As, or
// "#<id>" for a literal task id.
type Step struct {
	Create     *CreateStep     `yaml:"create,omitempty"`
	Move       *MoveStep       `yaml:"move,omitempty"`
	Close      string          `yaml:"close,omitempty"`
	Open       string          `yaml:"open,omitempty"`
	Recur      string          `yaml:"recur,omitempty"`
	Recurrence *RecurrenceStep `yaml:"recurrence,omitempty"`
	Duplicate  *DuplicateStep  `yaml:"duplicate,omitempty"`

	// Advance moves the clock forward by a Go duration ("36h").
	Advance string `yaml:"advance,omitempty"`

	// As binds a ref to the first task created while the step ran.
	As string `yaml:"as,omitempty"`

	// Expect checks the step outcome. Without it the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// CreateStep creates a task in the main project, or in Project.
type CreateStep struct {
	Title    string `yaml:"title"`
	Project  string `yaml:"project,omitempty"`
	Column   string `yaml:"column,omitempty"`
	Swimlane string `yaml:"swimlane,omitempty"`
	Due      string `yaml:"due,omitempty"`
}

// MoveStep moves a task within its project. A nil Swimlane keeps the
// task's swimlane; "" is the default swimlane.
type MoveStep struct {
	Task     string  `yaml:"task"`
	Column   string  `yaml:"column"`
	Position int     `yaml:"position"`
	Swimlane *string `yaml:"swimlane,omitempty"`
}

// RecurrenceStep changes a task's recurrence settings.
type RecurrenceStep struct {
	Task       string `yaml:"task"`
	Enabled    bool   `yaml:"enabled"`
	Recurrence `yaml:",inline"`
}

// DuplicateStep copies a task in place, copies it to Project, or with Move
// moves it to Project.
type DuplicateStep struct {
	Task    string `yaml:"task"`
	Project string `yaml:"project,omitempty"`
	Move    bool   `yaml:"move,omitempty"`
}

// Expect specifies the expected step outcome.
type Expect struct {
	// Error is the expected engine error code (e.g. INVALID_PLACEMENT).
	Error string `yaml:"error,omitempty"`

	// Generated is the expected result of a recur step.
	Generated *bool `yaml:"generated,omitempty"`
}

// Assertion validates the final board or the trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "board": the open tasks of a slot, in position order
	// - "task": field values of one task
	// - "event_count": an event appears exactly N times
	// - "event_order": events appear in order (gaps allowed)
	// - "contiguous": every slot of every project holds positions 1..N
	Type string `yaml:"type"`

	// Project defaults to the main project (used by board).
	Project  string `yaml:"project,omitempty"`
	Column   string `yaml:"column,omitempty"`
	Swimlane string `yaml:"swimlane,omitempty"`

	// Tasks are the expected refs of the slot (used by board).
	Tasks []string `yaml:"tasks,omitempty"`

	// Task is the ref to check (used by task).
	Task string `yaml:"task,omitempty"`

	// Expect contains expected field values (used by task). Subset match.
	// Fields: title, project, column, swimlane, position, active, due,
	// recurrence_status, trigger, factor, timeframe, basedate
	Expect map[string]any `yaml:"expect,omitempty"`

	// Event and Count are used by event_count.
	Event string `yaml:"event,omitempty"`
	Count int    `yaml:"count,omitempty"`

	// Events is the expected order (used by event_order).
	Events []string `yaml:"events,omitempty"`
}

// Assertion type constants.
const (
	AssertBoard      = "board"
	AssertTask       = "task"
	AssertEventCount = "event_count"
	AssertEventOrder = "event_order"
	AssertContiguous = "contiguous"
)

var defaultNow = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

var errorCodes = []string{
	string(engine.ErrCodeInvalidPlacement),
	string(engine.ErrCodeTaskNotFound),
	string(engine.ErrCodeProjectNotFound),
	string(engine.ErrCodePersistenceFailure),
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields, or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // typos like "assertion:" are errors
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Board.Name == "" {
		scenario.Board.Name = DefaultProject
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// StartTime returns the instant the scenario clock starts at.
func (s *Scenario) StartTime() (time.Time, error) {
	if s.Now == "" {
		return defaultNow, nil
	}
	t, err := time.Parse(time.RFC3339, s.Now)
	if err != nil {
		return time.Time{}, fmt.Errorf("now: %w", err)
	}
	return t.UTC(), nil
}

// AllProjects returns the main project followed by the extra ones.
func (b Board) AllProjects() []Project {
	return append([]Project{b.Project}, b.Projects...)
}

// Kind names the operation of a step.
func (s Step) Kind() string {
	kinds := s.kinds()
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

func (s Step) kinds() []string {
	var kinds []string
	if s.Create != nil {
		kinds = append(kinds, "create")
	}
	if s.Move != nil {
		kinds = append(kinds, "move")
	}
	if s.Close != "" {
		kinds = append(kinds, "close")
	}
	if s.Open != "" {
		kinds = append(kinds, "open")
	}
	if s.Recur != "" {
		kinds = append(kinds, "recur")
	}
	if s.Recurrence != nil {
		kinds = append(kinds, "recurrence")
	}
	if s.Duplicate != nil {
		kinds = append(kinds, "duplicate")
	}
	if s.Advance != "" {
		kinds = append(kinds, "advance")
	}
	return kinds
}

// settings converts r into engine recurrence settings.
func (r Recurrence) settings(enabled bool) (task.RecurrenceSettings, error) {
	s := task.RecurrenceSettings{Enabled: enabled, Factor: r.Factor}
	if r.Trigger != "" {
		v, err := task.ParseTrigger(r.Trigger)
		if err != nil {
			return s, err
		}
		s.Trigger = &v
	}
	if r.Timeframe != "" {
		v, err := task.ParseTimeframe(r.Timeframe)
		if err != nil {
			return s, err
		}
		s.Timeframe = &v
	}
	if r.BaseDate != "" {
		v, err := task.ParseBaseDate(r.BaseDate)
		if err != nil {
			return s, err
		}
		s.BaseDate = &v
	}
	if r.Factor != nil && *r.Factor < 0 {
		return s, fmt.Errorf("factor must not be negative")
	}
	return s, nil
}

// literalID parses a "#<id>" task reference.
func literalID(ref string) (int64, bool) {
	if !strings.HasPrefix(ref, "#") {
		return 0, false
	}
	id, err := strconv.ParseInt(ref[1:], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// validateScenario checks that required fields are present and that every
// name a step or assertion uses is declared.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if _, err := s.StartTime(); err != nil {
		return err
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	projects := make(map[string]Project)
	refs := make(map[string]bool)
	for i, p := range s.Board.AllProjects() {
		if p.Name == "" {
			return fmt.Errorf("board.projects[%d]: name is required", i-1)
		}
		if _, dup := projects[p.Name]; dup {
			return fmt.Errorf("project %q: declared twice", p.Name)
		}
		if err := validateProject(p, refs); err != nil {
			return err
		}
		projects[p.Name] = p
	}

	for i, step := range s.Steps {
		if err := validateStep(step, projects, refs); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		if step.As != "" {
			if refs[step.As] {
				return fmt.Errorf("steps[%d]: ref %q already bound", i, step.As)
			}
			refs[step.As] = true
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a, s.Board.Name, projects, refs); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateProject(p Project, refs map[string]bool) error {
	if len(p.Columns) == 0 {
		return fmt.Errorf("project %q: columns list is required and must be non-empty", p.Name)
	}
	for i, t := range p.Tasks {
		ref := t.ref()
		if t.Title == "" {
			return fmt.Errorf("project %q: tasks[%d]: title is required", p.Name, i)
		}
		if refs[ref] {
			return fmt.Errorf("project %q: tasks[%d]: ref %q already bound", p.Name, i, ref)
		}
		refs[ref] = true
		if !slices.Contains(p.Columns, t.Column) {
			return fmt.Errorf("project %q: tasks[%d]: unknown column %q", p.Name, i, t.Column)
		}
		if t.Swimlane != "" && !slices.Contains(p.Swimlanes, t.Swimlane) {
			return fmt.Errorf("project %q: tasks[%d]: unknown swimlane %q", p.Name, i, t.Swimlane)
		}
		if t.Due != "" {
			if _, err := time.Parse(time.DateOnly, t.Due); err != nil {
				return fmt.Errorf("project %q: tasks[%d]: due: %w", p.Name, i, err)
			}
		}
		if t.Recurrence != nil {
			if _, err := t.Recurrence.settings(true); err != nil {
				return fmt.Errorf("project %q: tasks[%d]: recurrence: %w", p.Name, i, err)
			}
		}
	}
	return nil
}

func (t Task) ref() string {
	if t.Ref != "" {
		return t.Ref
	}
	return t.Title
}

func validateStep(step Step, projects map[string]Project, refs map[string]bool) error {
	kinds := step.kinds()
	switch len(kinds) {
	case 0:
		return fmt.Errorf("no operation")
	case 1:
	default:
		return fmt.Errorf("more than one operation: %v", kinds)
	}

	checkRef := func(ref string) error {
		if ref == "" {
			return fmt.Errorf("%s: task is required", kinds[0])
		}
		if _, ok := literalID(ref); ok || refs[ref] {
			return nil
		}
		return fmt.Errorf("%s: unknown task ref %q", kinds[0], ref)
	}
	checkProject := func(name string) error {
		if _, ok := projects[name]; !ok {
			return fmt.Errorf("%s: unknown project %q", kinds[0], name)
		}
		return nil
	}

	var err error
	switch kinds[0] {
	case "create":
		if step.Create.Title == "" {
			return fmt.Errorf("create: title is required")
		}
		if step.Create.Project != "" {
			err = checkProject(step.Create.Project)
		}
		if err == nil && step.Create.Due != "" {
			if _, perr := time.Parse(time.DateOnly, step.Create.Due); perr != nil {
				err = fmt.Errorf("create: due: %w", perr)
			}
		}
	case "move":
		err = checkRef(step.Move.Task)
		if err == nil && step.Move.Column == "" {
			err = fmt.Errorf("move: column is required")
		}
	case "close":
		err = checkRef(step.Close)
	case "open":
		err = checkRef(step.Open)
	case "recur":
		err = checkRef(step.Recur)
	case "recurrence":
		err = checkRef(step.Recurrence.Task)
		if err == nil {
			if _, serr := step.Recurrence.settings(step.Recurrence.Enabled); serr != nil {
				err = fmt.Errorf("recurrence: %w", serr)
			}
		}
	case "duplicate":
		err = checkRef(step.Duplicate.Task)
		if err == nil && step.Duplicate.Move && step.Duplicate.Project == "" {
			err = fmt.Errorf("duplicate: move requires a project")
		}
		if err == nil && step.Duplicate.Project != "" {
			err = checkProject(step.Duplicate.Project)
		}
	case "advance":
		if _, perr := time.ParseDuration(step.Advance); perr != nil {
			err = fmt.Errorf("advance: %w", perr)
		}
	}
	if err != nil {
		return err
	}

	if e := step.Expect; e != nil {
		if e.Error != "" && !slices.Contains(errorCodes, e.Error) {
			return fmt.Errorf("expect: unknown error code %q", e.Error)
		}
		if e.Generated != nil && kinds[0] != "recur" {
			return fmt.Errorf("expect: generated only applies to recur")
		}
		if e.Error != "" && step.As != "" {
			return fmt.Errorf("as: a failing step creates no task")
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(a Assertion, main string, projects map[string]Project, refs map[string]bool) error {
	switch a.Type {
	case "":
		return fmt.Errorf("type is required")
	case AssertBoard:
		name := a.Project
		if name == "" {
			name = main
		}
		p, ok := projects[name]
		if !ok {
			return fmt.Errorf("unknown project %q", name)
		}
		if !slices.Contains(p.Columns, a.Column) {
			return fmt.Errorf("unknown column %q in project %q", a.Column, name)
		}
		if a.Swimlane != "" && !slices.Contains(p.Swimlanes, a.Swimlane) {
			return fmt.Errorf("unknown swimlane %q in project %q", a.Swimlane, name)
		}
		for _, ref := range a.Tasks {
			if !refs[ref] {
				return fmt.Errorf("unknown task ref %q", ref)
			}
		}
	case AssertTask:
		if !refs[a.Task] {
			return fmt.Errorf("unknown task ref %q", a.Task)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("expect is required for task")
		}
	case AssertEventCount:
		if a.Event == "" {
			return fmt.Errorf("event is required for event_count")
		}
		if a.Count < 0 {
			return fmt.Errorf("count must be non-negative for event_count")
		}
	case AssertEventOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("events list is required for event_order")
		}
	case AssertContiguous:
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
