package task

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecurrence_Successor(t *testing.T) {
	parent := Recurrence{
		Status:    RecurrenceProcessed,
		Trigger:   TriggerOnEnterLastColumn,
		Factor:    3,
		Timeframe: TimeframeMonths,
		BaseDate:  BaseDateActionDate,
	}

	next := parent.Successor()

	assert.Equal(t, RecurrencePending, next.Status)
	assert.Equal(t, parent.Trigger, next.Trigger)
	assert.Equal(t, parent.Factor, next.Factor)
	assert.Equal(t, parent.Timeframe, next.Timeframe)
	assert.Equal(t, parent.BaseDate, next.BaseDate)
	assert.Equal(t, RecurrenceProcessed, parent.Status, "parent must not be mutated")
}

func TestRecurrenceSettings_EnableFillsDefaults(t *testing.T) {
	got := RecurrenceSettings{Enabled: true}.Normalize()

	assert.Equal(t, Recurrence{
		Status:    RecurrencePending,
		Trigger:   TriggerOnClose,
		Factor:    1,
		Timeframe: TimeframeDays,
		BaseDate:  BaseDateDueDate,
	}, got)
}

func TestRecurrenceSettings_ZeroFactorCountsAsMissing(t *testing.T) {
	zero := 0
	got := RecurrenceSettings{Enabled: true, Factor: &zero}.Normalize()
	assert.Equal(t, 1, got.Factor)
}

func TestRecurrenceSettings_EnableKeepsProvidedValues(t *testing.T) {
	trig := TriggerOnLeaveFirstColumn
	factor := 4
	tf := TimeframeYears
	bd := BaseDateActionDate

	got := RecurrenceSettings{
		Enabled:   true,
		Trigger:   &trig,
		Factor:    &factor,
		Timeframe: &tf,
		BaseDate:  &bd,
	}.Normalize()

	assert.Equal(t, Recurrence{
		Status:    RecurrencePending,
		Trigger:   TriggerOnLeaveFirstColumn,
		Factor:    4,
		Timeframe: TimeframeYears,
		BaseDate:  BaseDateActionDate,
	}, got)
}

func TestRecurrenceSettings_DisableClearsEverything(t *testing.T) {
	trig := TriggerOnEnterLastColumn
	factor := 9

	got := RecurrenceSettings{Enabled: false, Trigger: &trig, Factor: &factor}.Normalize()

	assert.Equal(t, Recurrence{}, got)
	assert.False(t, got.Pending())
}

func TestParseEnums(t *testing.T) {
	trig, err := ParseTrigger("Enter_Last_Column")
	require.NoError(t, err)
	assert.Equal(t, TriggerOnEnterLastColumn, trig)

	tf, err := ParseTimeframe("months")
	require.NoError(t, err)
	assert.Equal(t, TimeframeMonths, tf)

	bd, err := ParseBaseDate(" action_date ")
	require.NoError(t, err)
	assert.Equal(t, BaseDateActionDate, bd)

	st, err := ParseRecurrenceStatus("processed")
	require.NoError(t, err)
	assert.Equal(t, RecurrenceProcessed, st)

	_, err = ParseTimeframe("weeks")
	assert.Error(t, err)
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "leave_first_column", TriggerOnLeaveFirstColumn.String())
	assert.Equal(t, "unknown(7)", Timeframe(7).String())
	assert.Equal(t, "When task is moved to last column", TriggerOnEnterLastColumn.Label())
	assert.Equal(t, "Month(s)", TimeframeMonths.Label())
	assert.Equal(t, "Action date", BaseDateActionDate.Label())
	assert.Equal(t, "No", RecurrenceNone.Label())
	assert.Equal(t, "Yes", RecurrencePending.Label())
}

func TestRecurrence_JSON(t *testing.T) {
	r := Recurrence{
		Status:    RecurrencePending,
		Trigger:   TriggerOnEnterLastColumn,
		Factor:    2,
		Timeframe: TimeframeMonths,
		BaseDate:  BaseDateActionDate,
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"pending","trigger":"enter_last_column","factor":2,"timeframe":"months","basedate":"action_date"}`, string(data))

	var back Recurrence
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r, back)

	assert.Error(t, json.Unmarshal([]byte(`{"trigger":"hourly"}`), &back))
}
