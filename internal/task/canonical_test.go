package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"zebra": "z",
		"apple": int64(1),
		"mango": []any{true, 2},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"apple":1,"mango":[true,2],"zebra":"z"}`, string(got))
}

func TestMarshalCanonical_NoHTMLEscape(t *testing.T) {
	got, err := MarshalCanonical("a<b>&c")
	require.NoError(t, err)
	assert.Equal(t, `"a<b>&c"`, string(got))
}

func TestMarshalCanonical_NFC(t *testing.T) {
	// "e" + combining acute accent normalizes to a single code point
	got, err := MarshalCanonical("cafe\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"caf\u00e9\"", string(got))
}

func TestMarshalCanonical_Rejects(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"x": 1.5})
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"x": nil})
	assert.Error(t, err)

	_, err = MarshalCanonical(struct{}{})
	assert.Error(t, err)
}

func TestMarshalCanonical_IDList(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{"ids": []int64{3, 1, 2}})
	require.NoError(t, err)
	assert.Equal(t, `{"ids":[3,1,2]}`, string(got))
}

func TestTask_CanonicalMap(t *testing.T) {
	due := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	tk := Task{
		ID:        7,
		ProjectID: 1,
		ColumnID:  2,
		Position:  1,
		Active:    true,
		Title:     "Pay rent",
		DateDue:   due,
		Recurrence: Recurrence{
			Status: RecurrencePending,
			Factor: 1,
		},
	}

	m := tk.CanonicalMap()
	assert.Equal(t, due.Unix(), m["date_due"])
	assert.NotContains(t, m, "date_completed")
	assert.NotContains(t, m, "description")

	_, err := MarshalCanonical(m)
	require.NoError(t, err)
}

func TestTask_DurableRoundTrip(t *testing.T) {
	tk := Task{
		ID: 9, ProjectID: 1, ColumnID: 3, SwimlaneID: 2, Position: 4,
		Title: "t", Description: "d", OwnerID: 5, CategoryID: 6,
		TimeEstimated: 7, Score: 8, ColorID: "green",
		DateDue: time.Unix(1700000000, 0),
	}

	d := tk.Durable().Draft()

	assert.True(t, d.Active)
	assert.Equal(t, "t", d.Title)
	assert.Equal(t, int64(3), d.ColumnID)
	assert.Equal(t, int64(2), d.SwimlaneID)
	assert.Equal(t, "green", d.ColorID)
	assert.Equal(t, tk.DateDue, d.DateDue)
	assert.Equal(t, Recurrence{}, d.Recurrence)
}
