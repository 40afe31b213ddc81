package event

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultStream is the stream RedisSink writes to when none is configured.
const DefaultStream = "taskflow:events"

// RedisSink appends events to a Redis stream so other services can consume
// them with XREAD / consumer groups.
type RedisSink struct {
	Client redis.Cmdable
	Stream string
	// MaxLen caps the stream (approximate trimming). Zero keeps everything.
	MaxLen int64
}

func (s RedisSink) Publish(ctx context.Context, e Event) error {
	payload, err := e.CanonicalPayload()
	if err != nil {
		return fmt.Errorf("redis sink: %s: %w", e.Name, err)
	}

	stream := s.Stream
	if stream == "" {
		stream = DefaultStream
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"id":             e.ID,
			"name":           string(e.Name),
			"correlation_id": e.CorrelationID,
			"seq":            e.Seq,
			"task_id":        e.Task.ID,
			"occurred_at":    e.OccurredAt.Unix(),
			"payload":        string(payload),
		},
	}
	if s.MaxLen > 0 {
		args.MaxLen = s.MaxLen
		args.Approx = true
	}

	if err := s.Client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis sink: xadd %s: %w", stream, err)
	}
	return nil
}
