package task

import "time"

// Durable lists exactly the attributes carried over when a task is copied,
// whether by duplication or by recurrence.
type Durable struct {
	Title         string
	Description   string
	DateDue       time.Time
	ColorID       string
	ProjectID     int64
	ColumnID      int64
	OwnerID       int64
	Score         int
	CategoryID    int64
	TimeEstimated int
	SwimlaneID    int64
}

// Durable extracts the copyable attributes of t.
func (t Task) Durable() Durable {
	return Durable{
		Title:         t.Title,
		Description:   t.Description,
		DateDue:       t.DateDue,
		ColorID:       t.ColorID,
		ProjectID:     t.ProjectID,
		ColumnID:      t.ColumnID,
		OwnerID:       t.OwnerID,
		Score:         t.Score,
		CategoryID:    t.CategoryID,
		TimeEstimated: t.TimeEstimated,
		SwimlaneID:    t.SwimlaneID,
	}
}

// Draft is a task that has not been persisted yet.
type Draft struct {
	Durable

	Active        bool
	DateCompleted time.Time
	Recurrence    Recurrence

	// AtHead places the task at position 1 of its slot instead of appending.
	AtHead bool
}

// Draft starts an open task from the copyable attributes.
func (d Durable) Draft() Draft {
	return Draft{Durable: d, Active: true}
}
