package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoard(t *testing.T) {
	s := OpenStore(t)
	b := NewBoard(t, s, "demo", []string{"A", "B"}, "S")

	assert.NotZero(t, b.Col("A"))
	assert.NotZero(t, b.Lane("S"))
	assert.Zero(t, b.Lane(""))

	t1 := b.AddTask("one", "A", "S")
	t2 := b.AddTask("two", "A", "S")
	assert.Equal(t, []int64{t1, t2}, b.Slot("A", "S"))
	assert.Equal(t, "two", b.Task(t2).Title)

	b.RequireContiguous()
}

func TestCheckContiguous_DetectsGap(t *testing.T) {
	s := OpenStore(t)
	b := NewBoard(t, s, "demo", []string{"A"})
	ctx := context.Background()

	t1 := b.AddTask("one", "A", "")
	b.AddTask("two", "A", "")

	// closing through the store alone does not repack: "two" keeps position 2
	_, err := s.CloseTask(ctx, t1, Epoch)
	require.NoError(t, err)

	assert.Error(t, CheckContiguous(ctx, s, b.Project))
}
