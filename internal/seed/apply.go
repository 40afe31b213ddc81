package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/taskflow/internal/store"
	"github.com/roach88/taskflow/internal/task"
)

// Seeded reports what Apply created for one project.
type Seeded struct {
	Name      string           `json:"name"`
	ID        int64            `json:"id"`
	Columns   map[string]int64 `json:"columns"`
	Swimlanes map[string]int64 `json:"swimlanes"`
	Tasks     []int64          `json:"tasks"`
}

// Apply writes every project of f in one transaction. Tasks are appended to
// their slot in file order, so each slot ends up with positions 1..N. A
// project whose name already exists aborts the whole seed.
func Apply(ctx context.Context, s *store.Store, f *File, now time.Time) ([]Seeded, error) {
	var out []Seeded

	err := s.InTx(ctx, func(tx *store.Tx) error {
		for _, p := range f.Projects {
			seeded, err := applyProject(ctx, tx, p, now)
			if err != nil {
				return err
			}
			out = append(out, seeded)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, p := range out {
		slog.Info("project seeded", "project", p.Name, "project_id", p.ID, "tasks", len(p.Tasks))
	}
	return out, nil
}

func applyProject(ctx context.Context, tx *store.Tx, p Project, now time.Time) (Seeded, error) {
	if _, err := tx.ProjectByName(ctx, p.Name); err == nil {
		return Seeded{}, fmt.Errorf("seed project %q: already exists", p.Name)
	}

	id, err := tx.CreateProject(ctx, p.Name)
	if err != nil {
		return Seeded{}, fmt.Errorf("seed project %q: %w", p.Name, err)
	}
	out := Seeded{
		Name:      p.Name,
		ID:        id,
		Columns:   make(map[string]int64, len(p.Columns)),
		Swimlanes: map[string]int64{"": task.DefaultSwimlane},
	}

	for _, c := range p.Columns {
		cid, err := tx.CreateColumn(ctx, id, c)
		if err != nil {
			return Seeded{}, fmt.Errorf("seed column %q: %w", c, err)
		}
		out.Columns[c] = cid
	}
	for _, l := range p.Swimlanes {
		lid, err := tx.CreateSwimlane(ctx, id, l)
		if err != nil {
			return Seeded{}, fmt.Errorf("seed swimlane %q: %w", l, err)
		}
		out.Swimlanes[l] = lid
	}

	for i, t := range p.Tasks {
		d, err := t.draft(id, out, now)
		if err != nil {
			return Seeded{}, fmt.Errorf("seed task %d of %q: %w", i, p.Name, err)
		}
		tid, err := tx.CreateTask(ctx, d, now)
		if err != nil {
			return Seeded{}, fmt.Errorf("seed task %q: %w", t.Title, err)
		}
		out.Tasks = append(out.Tasks, tid)
	}
	return out, nil
}

func (t Task) draft(projectID int64, layout Seeded, now time.Time) (task.Draft, error) {
	d := task.Durable{
		Title:       t.Title,
		Description: t.Description,
		ColorID:     t.Color,
		ProjectID:   projectID,
		ColumnID:    layout.Columns[t.Column],
		SwimlaneID:  layout.Swimlanes[t.Swimlane],
		OwnerID:     t.OwnerID,
		CategoryID:  t.CategoryID,
		Score:       t.Score,
	}.Draft()

	if t.Due != "" {
		due, err := time.Parse(time.DateOnly, t.Due)
		if err != nil {
			return task.Draft{}, err
		}
		d.DateDue = due
	}
	if t.Closed {
		d.Active = false
		d.DateCompleted = now
	}

	rec, err := t.Recurrence.recurrence()
	if err != nil {
		return task.Draft{}, err
	}
	d.Recurrence = rec
	return d, nil
}
