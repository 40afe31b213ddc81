package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/taskflow/internal/engine"
	"github.com/roach88/taskflow/internal/event"
	"github.com/roach88/taskflow/internal/task"
	"github.com/roach88/taskflow/internal/testutil"
	"github.com/roach88/taskflow/internal/trigger"
)

type fixture struct {
	e      *echo.Echo
	engine *engine.Engine
	board  *testutil.Board
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := testutil.OpenStore(t)
	eng := engine.New(s,
		engine.WithSink(event.StoreSink{Log: s}),
		engine.WithClock(engine.NewFixedClock(testutil.Epoch)),
	)
	eng.RegisterHandler(trigger.NewListener(eng, s))

	return &fixture{
		e:      New(eng, s),
		engine: eng,
		board:  testutil.NewBoard(t, s, "demo", []string{"A", "B", "C"}, "S"),
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", "").Code)
}

func TestCreateAndGetTask(t *testing.T) {
	f := newFixture(t)
	body := fmt.Sprintf(`{"title":"write docs","column_id":%d,"date_due":"2024-02-01","score":5}`, f.board.Col("B"))

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/projects/%d/tasks", f.board.Project), body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[createdResponse](t, rec).TaskID

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/tasks/%d", id), "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[task.Task](t, rec)
	assert.Equal(t, "write docs", got.Title)
	assert.Equal(t, f.board.Col("B"), got.ColumnID)
	assert.Equal(t, 1, got.Position)
	assert.Equal(t, 5, got.Score)
	assert.Equal(t, "2024-02-01", got.DateDue.Format("2006-01-02"))
}

func TestCreateTask_BadRequest(t *testing.T) {
	f := newFixture(t)
	path := fmt.Sprintf("/projects/%d/tasks", f.board.Project)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, path, `{"title":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, path, `{"title":"x","date_due":"soon"}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/projects/abc/tasks", `{"title":"x"}`).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/projects/999/tasks", `{"title":"x"}`).Code)
}

func TestBoard(t *testing.T) {
	f := newFixture(t)
	t1 := f.board.AddTask("one", "A", "S")
	t2 := f.board.AddTask("two", "A", "S")

	rec := f.do(t, http.MethodGet, fmt.Sprintf("/projects/%d/board?swimlane=%d", f.board.Project, f.board.Lane("S")), "")
	require.Equal(t, http.StatusOK, rec.Code)

	view := decode[engine.BoardView](t, rec)
	require.Len(t, view.Columns, 3)
	assert.Equal(t, []int64{t1, t2}, view.Ordering().Column(f.board.Col("A")))

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/projects/404/board", "").Code)
	assert.Equal(t, http.StatusBadRequest,
		f.do(t, http.MethodGet, fmt.Sprintf("/projects/%d/board?swimlane=x", f.board.Project), "").Code)
}

func TestMoveTask(t *testing.T) {
	f := newFixture(t)
	t1 := f.board.AddTask("one", "A", "")
	t2 := f.board.AddTask("two", "A", "")

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/tasks/%d/move", t2),
		fmt.Sprintf(`{"column_id":%d,"position":1}`, f.board.Col("A")))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[task.Task](t, rec).Position)
	assert.Equal(t, []int64{t2, t1}, f.board.Slot("A", ""))
}

func TestMoveTask_Errors(t *testing.T) {
	f := newFixture(t)
	t1 := f.board.AddTask("one", "A", "")

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/tasks/%d/move", t1),
		fmt.Sprintf(`{"column_id":%d,"position":0}`, f.board.Col("A")))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "INVALID_PLACEMENT", decode[errorResponse](t, rec).Code)

	rec = f.do(t, http.MethodPost, "/tasks/999/move",
		fmt.Sprintf(`{"column_id":%d,"position":1}`, f.board.Col("A")))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "TASK_NOT_FOUND", decode[errorResponse](t, rec).Code)

	rec = f.do(t, http.MethodPost, "/tasks/0/move", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecur(t *testing.T) {
	f := newFixture(t)
	d := f.board.Draft("daily", "B", "")
	d.Recurrence = task.Recurrence{Status: task.RecurrencePending, Factor: 1}
	id := f.board.AddDraft(d)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/tasks/%d/recur", id), "")
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode[recurResponse](t, rec)
	assert.True(t, first.Generated)
	assert.NotZero(t, first.TaskID)

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/tasks/%d/recur", id), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[recurResponse](t, rec).Generated)
}

func TestCloseTriggersRecurrence(t *testing.T) {
	f := newFixture(t)
	d := f.board.Draft("weekly", "B", "")
	d.Recurrence = task.Recurrence{Status: task.RecurrencePending, Factor: 7}
	id := f.board.AddDraft(d)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/tasks/%d/close", id), "")
	require.Equal(t, http.StatusOK, rec.Code)
	closed := decode[task.Task](t, rec)
	assert.False(t, closed.Active)
	assert.Equal(t, task.RecurrenceProcessed, closed.Recurrence.Status)
	assert.Len(t, f.board.Slot("A", ""), 1)

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/tasks/%d/open", id), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[task.Task](t, rec).Active)
}

func TestUpdateRecurrence(t *testing.T) {
	f := newFixture(t)
	id := f.board.AddTask("x", "A", "")
	path := fmt.Sprintf("/tasks/%d/recurrence", id)

	rec := f.do(t, http.MethodPut, path, `{"enabled":true,"timeframe":"months","factor":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, recurrenceResponse{
		Status:    "pending",
		Trigger:   "close",
		Factor:    2,
		Timeframe: "months",
		BaseDate:  "due_date",
	}, decode[recurrenceResponse](t, rec))

	rec = f.do(t, http.MethodPut, path, `{"enabled":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "none", decode[recurrenceResponse](t, rec).Status)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPut, path, `{"enabled":true,"trigger":"hourly"}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPut, path, `{"enabled":true,"factor":-3}`).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPut, "/tasks/999/recurrence", `{"enabled":true}`).Code)
}

func TestDuplicateAndCopy(t *testing.T) {
	f := newFixture(t)
	other := testutil.NewBoard(t, f.engine.Store(), "other", []string{"Todo"})
	id := f.board.AddTask("x", "B", "")

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/tasks/%d/duplicate", id), "")
	require.Equal(t, http.StatusCreated, rec.Code)
	dup := decode[createdResponse](t, rec).TaskID
	assert.Equal(t, []int64{id, dup}, f.board.Slot("B", ""))

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/tasks/%d/copy", id), fmt.Sprintf(`{"project_id":%d}`, other.Project))
	require.Equal(t, http.StatusCreated, rec.Code)
	copied := decode[createdResponse](t, rec).TaskID
	assert.Equal(t, []int64{copied}, other.Slot("Todo", ""))

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, fmt.Sprintf("/tasks/%d/copy", id), `{}`).Code)
}

func TestMoveToProject(t *testing.T) {
	f := newFixture(t)
	other := testutil.NewBoard(t, f.engine.Store(), "other", []string{"Todo"})
	id := f.board.AddTask("x", "B", "")

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/tasks/%d/move-project", id), fmt.Sprintf(`{"project_id":%d}`, other.Project))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, other.Project, decode[task.Task](t, rec).ProjectID)
	assert.Empty(t, f.board.Slot("B", ""))

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/tasks/%d/move-project", id), fmt.Sprintf(`{"project_id":%d}`, other.Project))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestEvents(t *testing.T) {
	f := newFixture(t)
	id := f.board.AddTask("x", "A", "")
	require.NoError(t, f.engine.Move(context.Background(), engine.MoveRequest{
		TaskID: id, ColumnID: f.board.Col("B"), Position: 1,
	}))

	rec := f.do(t, http.MethodGet, fmt.Sprintf("/events?task_id=%d", id), "")
	require.Equal(t, http.StatusOK, rec.Code)
	events := decode[[]eventView](t, rec)
	require.Len(t, events, 1)
	assert.Equal(t, "task.move.column", events[0].Name)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.EqualValues(t, f.board.Col("A"), payload["src_column_id"])

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/events?limit=0", "").Code)
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decode[errorResponse](t, rec).Code)
}
