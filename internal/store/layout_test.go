package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumns_BoardOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	b := createTestBoard(t, s)

	ids, err := s.ColumnIDs(ctx, b.project)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.a, b.b, b.c}, ids)

	columns, err := s.Columns(ctx, b.project)
	require.NoError(t, err)
	require.Len(t, columns, 3)
	assert.Equal(t, "A", columns[0].Title)
	assert.Equal(t, 3, columns[2].Position)

	first, err := s.FirstColumn(ctx, b.project)
	require.NoError(t, err)
	assert.Equal(t, b.a, first)

	last, err := s.LastColumn(ctx, b.project)
	require.NoError(t, err)
	assert.Equal(t, b.c, last)
}

func TestFirstColumn_EmptyProject(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	p, err := s.CreateProject(ctx, "empty")
	require.NoError(t, err)

	_, err = s.FirstColumn(ctx, p)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.LastColumn(ctx, p)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSwimlanes(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	b := createTestBoard(t, s)

	second, err := s.CreateSwimlane(ctx, b.project, "T")
	require.NoError(t, err)

	lanes, err := s.Swimlanes(ctx, b.project)
	require.NoError(t, err)
	require.Len(t, lanes, 2)
	assert.Equal(t, b.swimlane, lanes[0].ID)
	assert.Equal(t, second, lanes[1].ID)

	byName, err := s.SwimlaneByName(ctx, b.project, "T")
	require.NoError(t, err)
	assert.Equal(t, second, byName.ID)

	_, err = s.SwimlaneByName(ctx, b.project, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	byID, err := s.Swimlane(ctx, b.swimlane)
	require.NoError(t, err)
	assert.Equal(t, "S", byID.Name)
}

func TestProject(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	b := createTestBoard(t, s)

	p, err := s.Project(ctx, b.project)
	require.NoError(t, err)
	assert.Equal(t, "demo", p.Name)

	_, err = s.Project(ctx, 4242)
	assert.ErrorIs(t, err, ErrNotFound)
}
