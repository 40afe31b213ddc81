// Package trigger turns lifecycle events into recurrence generation.
//
// A Listener is registered as an engine handler. For each dispatched event
// it decides which recurrence trigger, if any, the event fires, re-reads the
// task and asks the generator for a successor when the task is pending on
// exactly that trigger.
package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/taskflow/internal/event"
	"github.com/roach88/taskflow/internal/task"
)

// Generator creates recurrence successors. Implemented by *engine.Engine.
type Generator interface {
	Generate(ctx context.Context, taskID int64) (newID int64, generated bool, err error)
}

// Board answers the reads the listener needs. Implemented by *store.Store.
type Board interface {
	Task(ctx context.Context, id int64) (task.Task, error)
	FirstColumn(ctx context.Context, projectID int64) (int64, error)
	LastColumn(ctx context.Context, projectID int64) (int64, error)
}

// Listener fires recurrence triggers from dispatched events.
type Listener struct {
	gen   Generator
	board Board
}

// NewListener creates a listener.
func NewListener(gen Generator, board Board) *Listener {
	return &Listener{gen: gen, board: board}
}

// Handle implements engine.Handler.
func (l *Listener) Handle(ctx context.Context, e event.Event) error {
	kinds, err := l.fired(ctx, e)
	if err != nil {
		return err
	}
	if len(kinds) == 0 {
		return nil
	}

	t, err := l.board.Task(ctx, e.Task.ID)
	if err != nil {
		return fmt.Errorf("trigger: read task %d: %w", e.Task.ID, err)
	}
	if !matches(t.Recurrence, kinds) {
		return nil
	}

	newID, generated, err := l.gen.Generate(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("trigger: generate from task %d: %w", t.ID, err)
	}
	if generated {
		slog.Debug("recurrence triggered",
			"task_id", t.ID,
			"successor_id", newID,
			"trigger", t.Recurrence.Trigger.String(),
			"event", string(e.Name),
		)
	}
	return nil
}

// fired returns the triggers an event satisfies.
//
// The rules are:
//  1. task.close fires OnClose
//  2. a column or swimlane move out of the first column fires
//     OnLeaveFirstColumn
//  3. a column or swimlane move into the last column fires
//     OnEnterLastColumn
//
// Moves that stay in the first (or last) column fire nothing. Position-only
// moves and project moves never fire.
func (l *Listener) fired(ctx context.Context, e event.Event) ([]task.Trigger, error) {
	switch e.Name {
	case event.Close:
		return []task.Trigger{task.TriggerOnClose}, nil
	case event.MoveColumn, event.MoveSwimlane:
	default:
		return nil, nil
	}
	if e.Move == nil {
		return nil, nil
	}

	projectID := e.Task.ProjectID
	first, err := l.board.FirstColumn(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("trigger: first column of project %d: %w", projectID, err)
	}
	last, err := l.board.LastColumn(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("trigger: last column of project %d: %w", projectID, err)
	}

	var kinds []task.Trigger
	src, dst := e.Move.SrcColumnID, e.Move.DstColumnID
	if src == first && dst != first {
		kinds = append(kinds, task.TriggerOnLeaveFirstColumn)
	}
	if dst == last && src != last {
		kinds = append(kinds, task.TriggerOnEnterLastColumn)
	}
	return kinds, nil
}

// matches requires a pending recurrence whose trigger is one of kinds.
func matches(r task.Recurrence, kinds []task.Trigger) bool {
	return r.Pending() && slices.Contains(kinds, r.Trigger)
}
