// Package seed loads board seed files and writes them to a store.
//
// A seed file is CUE. It is unified with an embedded schema, so enum
// values, date formats and factors are checked before anything is written:
//
//	projects: demo: {
//		columns: ["Backlog", "Doing", "Done"]
//		swimlanes: ["Ops"]
//		tasks: [
//			{title: "rotate keys", column: "Backlog", due: "2024-01-31",
//			 recurrence: {factor: 1, timeframe: "months"}},
//		]
//	}
package seed

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/taskflow/internal/task"
)

//go:embed schema.cue
var schemaSource string

// File is a decoded seed file. Projects keep their declaration order.
type File struct {
	Projects []Project
}

// Project is one board to create.
type Project struct {
	Name      string   `json:"-"`
	Columns   []string `json:"columns"`
	Swimlanes []string `json:"swimlanes,omitempty"`
	Tasks     []Task   `json:"tasks,omitempty"`
}

// Task is one task to create, addressed by column and swimlane name.
type Task struct {
	Title       string      `json:"title"`
	Column      string      `json:"column"`
	Swimlane    string      `json:"swimlane,omitempty"`
	Description string      `json:"description,omitempty"`
	Due         string      `json:"due,omitempty"`
	OwnerID     int64       `json:"owner_id,omitempty"`
	CategoryID  int64       `json:"category_id,omitempty"`
	Score       int         `json:"score,omitempty"`
	Color       string      `json:"color,omitempty"`
	Closed      bool        `json:"closed,omitempty"`
	Recurrence  *Recurrence `json:"recurrence,omitempty"`
}

// Recurrence is the recurrence block of a seeded task. Its presence makes
// the task pending.
type Recurrence struct {
	Trigger   string `json:"trigger"`
	Factor    int    `json:"factor"`
	Timeframe string `json:"timeframe"`
	BaseDate  string `json:"basedate"`
}

// Error is a seed validation error, with the CUE position when known.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads and validates a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return Parse(path, data)
}

// Parse validates seed source against the schema and decodes it. filename
// is only used in error positions.
func Parse(filename string, src []byte) (*File, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile seed schema: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v = schema.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	projects := v.LookupPath(cue.ParsePath("projects"))
	if !projects.Exists() {
		return nil, &Error{Field: "projects", Message: "at least one project is required", Pos: v.Pos()}
	}

	iter, err := projects.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	f := &File{}
	for iter.Next() {
		var p Project
		if err := iter.Value().Decode(&p); err != nil {
			return nil, formatCUEError(err)
		}
		p.Name = iter.Label()
		if err := p.check(iter.Value().Pos()); err != nil {
			return nil, err
		}
		f.Projects = append(f.Projects, p)
	}
	if len(f.Projects) == 0 {
		return nil, &Error{Field: "projects", Message: "at least one project is required", Pos: projects.Pos()}
	}
	return f, nil
}

// check enforces the cross-references the schema cannot express.
func (p Project) check(pos token.Pos) error {
	for i, c := range p.Columns {
		if slices.Contains(p.Columns[:i], c) {
			return &Error{Field: "projects." + p.Name + ".columns", Message: fmt.Sprintf("duplicate column %q", c), Pos: pos}
		}
	}
	for i, s := range p.Swimlanes {
		if s == "" || slices.Contains(p.Swimlanes[:i], s) {
			return &Error{Field: "projects." + p.Name + ".swimlanes", Message: fmt.Sprintf("invalid or duplicate swimlane %q", s), Pos: pos}
		}
	}
	for i, t := range p.Tasks {
		field := fmt.Sprintf("projects.%s.tasks[%d]", p.Name, i)
		if !slices.Contains(p.Columns, t.Column) {
			return &Error{Field: field, Message: fmt.Sprintf("unknown column %q", t.Column), Pos: pos}
		}
		if t.Swimlane != "" && !slices.Contains(p.Swimlanes, t.Swimlane) {
			return &Error{Field: field, Message: fmt.Sprintf("unknown swimlane %q", t.Swimlane), Pos: pos}
		}
		if t.Due != "" {
			if _, err := time.Parse(time.DateOnly, t.Due); err != nil {
				return &Error{Field: field + ".due", Message: err.Error(), Pos: pos}
			}
		}
	}
	return nil
}

// recurrence converts the seeded block. Values were checked by the schema.
func (r *Recurrence) recurrence() (task.Recurrence, error) {
	if r == nil {
		return task.Recurrence{}, nil
	}
	trigger, err := task.ParseTrigger(r.Trigger)
	if err != nil {
		return task.Recurrence{}, err
	}
	timeframe, err := task.ParseTimeframe(r.Timeframe)
	if err != nil {
		return task.Recurrence{}, err
	}
	base, err := task.ParseBaseDate(r.BaseDate)
	if err != nil {
		return task.Recurrence{}, err
	}
	return task.Recurrence{
		Status:    task.RecurrencePending,
		Trigger:   trigger,
		Factor:    r.Factor,
		Timeframe: timeframe,
		BaseDate:  base,
	}, nil
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	e := &Error{Field: "cue", Message: first.Error()}
	if path := first.Path(); len(path) > 0 {
		e.Field = strings.Join(path, ".")
	}
	if positions := errors.Positions(first); len(positions) > 0 {
		e.Pos = positions[0]
	}
	return e
}
