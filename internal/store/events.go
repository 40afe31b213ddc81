package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// EventRecord is one row of the event log. Payload is the canonical JSON of
// the event.
type EventRecord struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	CorrelationID string    `json:"correlation_id"`
	Seq           int64     `json:"seq"`
	TaskID        int64     `json:"task_id"`
	OccurredAt    time.Time `json:"occurred_at"`
	Payload       string    `json:"payload"`
}

// EventFilter narrows an event log query. Zero fields match everything.
type EventFilter struct {
	CorrelationID string
	TaskID        int64
	Name          string
	Limit         int
}

// AppendEvent adds a record to the event log.
// Uses ON CONFLICT(id) DO NOTHING so a re-published event is ignored.
func (q queries) AppendEvent(ctx context.Context, rec EventRecord) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO events (id, name, correlation_id, seq, task_id, occurred_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, rec.ID, rec.Name, rec.CorrelationID, rec.Seq, rec.TaskID, toUnix(rec.OccurredAt), rec.Payload)
	if err != nil {
		return fmt.Errorf("append event %s: %w", rec.Name, err)
	}
	return nil
}

// Events returns logged events in insertion order.
func (q queries) Events(ctx context.Context, f EventFilter) ([]EventRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.CorrelationID != "" {
		where = append(where, "correlation_id = ?")
		args = append(args, f.CorrelationID)
	}
	if f.TaskID != 0 {
		where = append(where, "task_id = ?")
		args = append(args, f.TaskID)
	}
	if f.Name != "" {
		where = append(where, "name = ?")
		args = append(args, f.Name)
	}

	query := `SELECT id, name, correlation_id, seq, task_id, occurred_at, payload FROM events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY rowid ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	records := []EventRecord{}
	for rows.Next() {
		var (
			rec EventRecord
			at  int64
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.CorrelationID, &rec.Seq, &rec.TaskID, &at, &rec.Payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		rec.OccurredAt = fromUnix(at)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return records, nil
}
