package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/taskflow/internal/engine"
	"github.com/roach88/taskflow/internal/event"
	"github.com/roach88/taskflow/internal/seed"
	"github.com/roach88/taskflow/internal/store"
	"github.com/roach88/taskflow/internal/task"
	"github.com/roach88/taskflow/internal/trigger"
)

// IDPrefix prefixes the deterministic event and correlation ids.
const IDPrefix = "evt"

// Harness is the scenario execution engine.
// It runs scenarios against a real engine with a fixed clock and
// sequential ids, so traces are reproducible.
type Harness struct {
	store    *store.Store
	engine   *engine.Engine
	clock    *engine.FixedClock
	recorder *event.Recorder
	layouts  *layouts
	result   *Result
}

// layouts resolves project, column and swimlane names of the seeded board.
type layouts struct {
	main   string
	byName map[string]seed.Seeded
	byID   map[int64]seed.Seeded
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and seed the board
// 2. Wire the engine with a recording sink and the recurrence triggers
// 3. Execute steps, checking each step's expectation
// 4. Evaluate assertions against the final board and the trace
//
// The returned error reports a scenario that could not run (a bad ref,
// an unknown column); failed expectations land in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	start, err := scenario.StartTime()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	seeded, err := seed.Apply(ctx, st, seedFile(scenario.Board), start)
	if err != nil {
		return nil, fmt.Errorf("failed to seed board: %w", err)
	}

	clock := engine.NewFixedClock(start)
	recorder := &event.Recorder{}
	eng := engine.New(st,
		engine.WithClock(clock),
		engine.WithIDGenerator(engine.NewSequenceGenerator(IDPrefix)),
		engine.WithSink(recorder),
	)
	eng.RegisterHandler(trigger.NewListener(eng, st))

	h := &Harness{
		store:    st,
		engine:   eng,
		clock:    clock,
		recorder: recorder,
		layouts:  newLayouts(scenario.Board.Name, seeded),
		result:   NewResult(),
	}
	h.bindSeeded(scenario.Board, seeded)

	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Kind(), err)
		}
	}

	actx := &AssertionContext{
		Ctx:     ctx,
		Store:   st,
		layouts: h.layouts,
		refs:    h.result.Refs,
	}
	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions, actx) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

func newLayouts(main string, seeded []seed.Seeded) *layouts {
	l := &layouts{
		main:   main,
		byName: make(map[string]seed.Seeded, len(seeded)),
		byID:   make(map[int64]seed.Seeded, len(seeded)),
	}
	for _, p := range seeded {
		l.byName[p.Name] = p
		l.byID[p.ID] = p
	}
	return l
}

// project returns the layout named name, or the main one for "".
func (l *layouts) project(name string) (seed.Seeded, error) {
	if name == "" {
		name = l.main
	}
	p, ok := l.byName[name]
	if !ok {
		return seed.Seeded{}, fmt.Errorf("unknown project %q", name)
	}
	return p, nil
}

func column(p seed.Seeded, name string) (int64, error) {
	id, ok := p.Columns[name]
	if !ok {
		return 0, fmt.Errorf("unknown column %q in project %q", name, p.Name)
	}
	return id, nil
}

func swimlane(p seed.Seeded, name string) (int64, error) {
	id, ok := p.Swimlanes[name]
	if !ok {
		return 0, fmt.Errorf("unknown swimlane %q in project %q", name, p.Name)
	}
	return id, nil
}

// nameOf is the reverse lookup of a layout map; unknown ids render as "#<id>".
func nameOf(names map[string]int64, id int64) string {
	for n, v := range names {
		if v == id {
			return n
		}
	}
	return fmt.Sprintf("#%d", id)
}

func seedFile(b Board) *seed.File {
	f := &seed.File{}
	for _, p := range b.AllProjects() {
		sp := seed.Project{Name: p.Name, Columns: p.Columns, Swimlanes: p.Swimlanes}
		for _, t := range p.Tasks {
			sp.Tasks = append(sp.Tasks, seed.Task{
				Title:      t.Title,
				Column:     t.Column,
				Swimlane:   t.Swimlane,
				Due:        t.Due,
				Closed:     t.Closed,
				Recurrence: t.Recurrence.seed(),
			})
		}
		f.Projects = append(f.Projects, sp)
	}
	return f
}

// seed fills in the defaults a seed recurrence block requires.
func (r *Recurrence) seed() *seed.Recurrence {
	if r == nil {
		return nil
	}
	out := &seed.Recurrence{
		Trigger:   task.TriggerOnClose.String(),
		Factor:    1,
		Timeframe: task.TimeframeDays.String(),
		BaseDate:  task.BaseDateDueDate.String(),
	}
	if r.Trigger != "" {
		out.Trigger = r.Trigger
	}
	if r.Factor != nil {
		out.Factor = *r.Factor
	}
	if r.Timeframe != "" {
		out.Timeframe = r.Timeframe
	}
	if r.BaseDate != "" {
		out.BaseDate = r.BaseDate
	}
	return out
}

func (h *Harness) bindSeeded(b Board, seeded []seed.Seeded) {
	for i, p := range b.AllProjects() {
		for j, t := range p.Tasks {
			h.result.Refs[t.ref()] = seeded[i].Tasks[j]
		}
	}
}

// resolve turns a task ref into an id.
func (h *Harness) resolve(ref string) (int64, error) {
	if id, ok := literalID(ref); ok {
		return id, nil
	}
	id, ok := h.result.Refs[ref]
	if !ok {
		return 0, fmt.Errorf("unknown task ref %q", ref)
	}
	return id, nil
}

// operation is a prepared step: every name is resolved, only the engine
// call remains. generated is non-nil for recur.
type operation func(ctx context.Context) (generated *bool, err error)

// executeStep runs one step and records its events and outcome.
func (h *Harness) executeStep(ctx context.Context, i int, step Step) error {
	op, err := h.prepare(ctx, step)
	if err != nil {
		return err
	}

	before := len(h.recorder.Events())
	generated, opErr := op(ctx)
	events := h.recorder.Events()[before:]

	for _, e := range events {
		h.result.Trace = append(h.result.Trace, TraceEvent{
			Step:          i + 1,
			Name:          string(e.Name),
			CorrelationID: e.CorrelationID,
			Seq:           e.Seq,
			TaskID:        e.Task.ID,
			Payload:       e.Payload(),
		})
	}

	h.checkOutcome(i, step, generated, opErr)

	if step.As != "" && opErr == nil {
		for _, e := range events {
			if e.Name == event.Create {
				h.result.Refs[step.As] = e.Task.ID
				return nil
			}
		}
		h.result.AddError(fmt.Sprintf("step %d (%s): as %q: no task was created", i+1, step.Kind(), step.As))
	}
	return nil
}

func (h *Harness) checkOutcome(i int, step Step, generated *bool, err error) {
	prefix := fmt.Sprintf("step %d (%s)", i+1, step.Kind())
	want := step.Expect
	if want == nil {
		want = &Expect{}
	}

	switch {
	case want.Error == "" && err != nil:
		h.result.AddError(fmt.Sprintf("%s: unexpected error: %v", prefix, err))
	case want.Error != "" && err == nil:
		h.result.AddError(fmt.Sprintf("%s: expected error %s, got success", prefix, want.Error))
	case want.Error != "" && string(engine.CodeOf(err)) != want.Error:
		h.result.AddError(fmt.Sprintf("%s: expected error %s, got %v", prefix, want.Error, err))
	}

	if want.Generated != nil && err == nil && generated != nil && *generated != *want.Generated {
		h.result.AddError(fmt.Sprintf("%s: expected generated=%t, got %t", prefix, *want.Generated, *generated))
	}
}

// prepare resolves the refs and names of a step.
func (h *Harness) prepare(ctx context.Context, step Step) (operation, error) {
	switch step.Kind() {
	case "create":
		return h.prepareCreate(step.Create)
	case "move":
		return h.prepareMove(ctx, step.Move)
	case "close":
		id, err := h.resolve(step.Close)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) (*bool, error) {
			return nil, h.engine.Close(ctx, id)
		}, nil
	case "open":
		id, err := h.resolve(step.Open)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) (*bool, error) {
			return nil, h.engine.Open(ctx, id)
		}, nil
	case "recur":
		id, err := h.resolve(step.Recur)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) (*bool, error) {
			_, generated, err := h.engine.Generate(ctx, id)
			return &generated, err
		}, nil
	case "recurrence":
		return h.prepareRecurrence(step.Recurrence)
	case "duplicate":
		return h.prepareDuplicate(step.Duplicate)
	case "advance":
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			return nil, err
		}
		return func(context.Context) (*bool, error) {
			h.clock.Advance(d)
			return nil, nil
		}, nil
	}
	return nil, fmt.Errorf("step has %d operations", len(step.kinds()))
}

func (h *Harness) prepareCreate(s *CreateStep) (operation, error) {
	p, err := h.layouts.project(s.Project)
	if err != nil {
		return nil, err
	}
	d := task.Durable{Title: s.Title, ProjectID: p.ID}.Draft()
	if s.Column != "" {
		if d.ColumnID, err = column(p, s.Column); err != nil {
			return nil, err
		}
	}
	if d.SwimlaneID, err = swimlane(p, s.Swimlane); err != nil {
		return nil, err
	}
	if s.Due != "" {
		if d.DateDue, err = time.Parse(time.DateOnly, s.Due); err != nil {
			return nil, err
		}
	}
	return func(ctx context.Context) (*bool, error) {
		_, err := h.engine.Create(ctx, d)
		return nil, err
	}, nil
}

func (h *Harness) prepareMove(ctx context.Context, s *MoveStep) (operation, error) {
	id, err := h.resolve(s.Task)
	if err != nil {
		return nil, err
	}

	// A missing task resolves names against the main project so the move
	// itself can report TASK_NOT_FOUND.
	p, _ := h.layouts.project("")
	current := task.DefaultSwimlane
	if t, err := h.store.Task(ctx, id); err == nil {
		p = h.layouts.byID[t.ProjectID]
		current = t.SwimlaneID
	}

	col, err := column(p, s.Column)
	if err != nil {
		return nil, err
	}
	lane := current
	if s.Swimlane != nil {
		if lane, err = swimlane(p, *s.Swimlane); err != nil {
			return nil, err
		}
	}

	req := engine.MoveRequest{
		TaskID:     id,
		ColumnID:   col,
		Position:   s.Position,
		SwimlaneID: lane,
	}
	return func(ctx context.Context) (*bool, error) {
		return nil, h.engine.Move(ctx, req)
	}, nil
}

func (h *Harness) prepareRecurrence(s *RecurrenceStep) (operation, error) {
	id, err := h.resolve(s.Task)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings(s.Enabled)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) (*bool, error) {
		_, err := h.engine.UpdateRecurrence(ctx, id, settings)
		return nil, err
	}, nil
}

func (h *Harness) prepareDuplicate(s *DuplicateStep) (operation, error) {
	id, err := h.resolve(s.Task)
	if err != nil {
		return nil, err
	}
	if s.Project == "" {
		return func(ctx context.Context) (*bool, error) {
			_, err := h.engine.Duplicate(ctx, id)
			return nil, err
		}, nil
	}

	p, err := h.layouts.project(s.Project)
	if err != nil {
		return nil, err
	}
	if s.Move {
		return func(ctx context.Context) (*bool, error) {
			return nil, h.engine.MoveToProject(ctx, id, p.ID)
		}, nil
	}
	return func(ctx context.Context) (*bool, error) {
		_, err := h.engine.DuplicateToProject(ctx, id, p.ID)
		return nil, err
	}, nil
}
