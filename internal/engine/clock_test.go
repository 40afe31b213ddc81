package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/taskflow/internal/testutil"
)

func TestSystemClock(t *testing.T) {
	now := SystemClock{}.Now()

	assert.Equal(t, time.UTC, now.Location())
	assert.Zero(t, now.Nanosecond(), "truncated to seconds")
	assert.WithinDuration(t, time.Now(), now, 2*time.Second)
}

func TestFixedClock(t *testing.T) {
	c := NewFixedClock(testutil.Epoch)
	assert.True(t, c.Now().Equal(testutil.Epoch))
	assert.True(t, c.Now().Equal(c.Now()), "stopped")

	c.Advance(36 * time.Hour)
	assert.True(t, c.Now().Equal(testutil.Epoch.Add(36*time.Hour)))

	later := time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
	c.Set(later)
	assert.True(t, c.Now().Equal(later))
}

func TestFixedClock_DrivesDateStamps(t *testing.T) {
	f := newFixture(t)
	id := f.board.AddTask("x", "A", "")

	f.clock.Advance(24 * time.Hour)
	assert.NoError(t, f.move(id, "B", 1, ""))

	assert.True(t, f.board.Task(id).DateMoved.Equal(testutil.Epoch.Add(24*time.Hour)))
}
