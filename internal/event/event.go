// Package event defines the task lifecycle events the engine dispatches and
// the sinks that receive them.
package event

import (
	"time"

	"github.com/roach88/taskflow/internal/task"
)

// Name identifies an event kind.
type Name string

const (
	MoveColumn   Name = "task.move.column"
	MovePosition Name = "task.move.position"
	MoveSwimlane Name = "task.move.swimlane"
	MoveProject  Name = "task.move.project"
	Create       Name = "task.create"
	Close        Name = "task.close"
	Open         Name = "task.open"
	Update       Name = "task.update"
)

// IsMove reports whether n is one of the placement change events.
func (n Name) IsMove() bool {
	switch n {
	case MoveColumn, MovePosition, MoveSwimlane, MoveProject:
		return true
	}
	return false
}

// MoveDetails carries the before/after placement of a move.
type MoveDetails struct {
	SrcProjectID  int64 `json:"src_project_id,omitempty"`
	DstProjectID  int64 `json:"dst_project_id,omitempty"`
	SrcColumnID   int64 `json:"src_column_id"`
	DstColumnID   int64 `json:"dst_column_id"`
	SrcSwimlaneID int64 `json:"src_swimlane_id"`
	DstSwimlaneID int64 `json:"dst_swimlane_id"`
	SrcPosition   int   `json:"src_position"`
	Position      int   `json:"position"`
}

// Event is a task lifecycle notification.
//
// ID is a UUIDv7. CorrelationID is shared by every event caused by one
// top-level operation, including successors generated by triggers. Seq
// orders events within a correlation.
type Event struct {
	ID            string       `json:"id"`
	Name          Name         `json:"name"`
	CorrelationID string       `json:"correlation_id"`
	Seq           int64        `json:"seq"`
	OccurredAt    time.Time    `json:"occurred_at"`
	Task          task.Task    `json:"task"`
	Move          *MoveDetails `json:"move,omitempty"`
}

// Payload renders the event body: the full task record, plus the placement
// fields of a move.
func (e Event) Payload() map[string]any {
	m := e.Task.CanonicalMap()
	if mv := e.Move; mv != nil {
		m["src_column_id"] = mv.SrcColumnID
		m["dst_column_id"] = mv.DstColumnID
		m["src_swimlane_id"] = mv.SrcSwimlaneID
		m["dst_swimlane_id"] = mv.DstSwimlaneID
		m["src_position"] = mv.SrcPosition
		m["position"] = mv.Position
		if mv.SrcProjectID != 0 {
			m["src_project_id"] = mv.SrcProjectID
			m["dst_project_id"] = mv.DstProjectID
		}
	}
	return m
}

// CanonicalPayload is the canonical JSON of Payload.
func (e Event) CanonicalPayload() ([]byte, error) {
	return task.MarshalCanonical(e.Payload())
}
