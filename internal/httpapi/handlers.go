package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/roach88/taskflow/internal/engine"
	"github.com/roach88/taskflow/internal/store"
	"github.com/roach88/taskflow/internal/task"
)

type handlers struct {
	eng    Engine
	events EventLog
}

type createTaskRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	ColumnID      int64  `json:"column_id"`
	SwimlaneID    int64  `json:"swimlane_id"`
	OwnerID       int64  `json:"owner_id"`
	CategoryID    int64  `json:"category_id"`
	Score         int    `json:"score"`
	TimeEstimated int    `json:"time_estimated"`
	ColorID       string `json:"color_id"`
	DateDue       string `json:"date_due"` // YYYY-MM-DD
}

type moveRequest struct {
	ColumnID   int64 `json:"column_id"`
	Position   int   `json:"position"`
	SwimlaneID int64 `json:"swimlane_id"`
}

type projectRequest struct {
	ProjectID int64 `json:"project_id"`
}

type recurrenceRequest struct {
	Enabled   bool    `json:"enabled"`
	Trigger   *string `json:"trigger"`
	Factor    *int    `json:"factor"`
	Timeframe *string `json:"timeframe"`
	BaseDate  *string `json:"basedate"`
}

type recurrenceResponse struct {
	Status    string `json:"status"`
	Trigger   string `json:"trigger"`
	Factor    int    `json:"factor"`
	Timeframe string `json:"timeframe"`
	BaseDate  string `json:"basedate"`
}

type recurResponse struct {
	Generated bool  `json:"generated"`
	TaskID    int64 `json:"task_id,omitempty"`
}

// eventView inlines the stored canonical payload.
type eventView struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	CorrelationID string          `json:"correlation_id"`
	Seq           int64           `json:"seq"`
	TaskID        int64           `json:"task_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

type createdResponse struct {
	TaskID int64 `json:"task_id"`
}

func (h *handlers) getBoard(c echo.Context) error {
	projectID, err := idParam(c, "project")
	if err != nil {
		return err
	}
	var swimlaneID int64
	if s := c.QueryParam("swimlane"); s != "" {
		swimlaneID, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid swimlane")
		}
	}

	view, err := h.eng.Board(c.Request().Context(), projectID, swimlaneID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (h *handlers) createTask(c echo.Context) error {
	projectID, err := idParam(c, "project")
	if err != nil {
		return err
	}
	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	d := task.Durable{
		Title:         req.Title,
		Description:   req.Description,
		ColorID:       req.ColorID,
		ProjectID:     projectID,
		ColumnID:      req.ColumnID,
		SwimlaneID:    req.SwimlaneID,
		OwnerID:       req.OwnerID,
		CategoryID:    req.CategoryID,
		Score:         req.Score,
		TimeEstimated: req.TimeEstimated,
	}
	if req.DateDue != "" {
		d.DateDue, err = time.Parse(time.DateOnly, req.DateDue)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date_due")
		}
	}

	id, err := h.eng.Create(c.Request().Context(), d.Draft())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createdResponse{TaskID: id})
}

func (h *handlers) getTask(c echo.Context) error {
	id, err := idParam(c, "task")
	if err != nil {
		return err
	}
	t, err := h.eng.Task(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (h *handlers) moveTask(c echo.Context) error {
	id, err := idParam(c, "task")
	if err != nil {
		return err
	}
	var req moveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ctx := c.Request().Context()
	err = h.eng.Move(ctx, engine.MoveRequest{
		TaskID:     id,
		ColumnID:   req.ColumnID,
		Position:   req.Position,
		SwimlaneID: req.SwimlaneID,
	})
	if err != nil {
		return err
	}
	return h.respondTask(c, id)
}

func (h *handlers) recur(c echo.Context) error {
	id, err := idParam(c, "task")
	if err != nil {
		return err
	}
	newID, generated, err := h.eng.Generate(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, recurResponse{Generated: generated, TaskID: newID})
}

func (h *handlers) closeTask(c echo.Context) error {
	id, err := idParam(c, "task")
	if err != nil {
		return err
	}
	if err := h.eng.Close(c.Request().Context(), id); err != nil {
		return err
	}
	return h.respondTask(c, id)
}

func (h *handlers) openTask(c echo.Context) error {
	id, err := idParam(c, "task")
	if err != nil {
		return err
	}
	if err := h.eng.Open(c.Request().Context(), id); err != nil {
		return err
	}
	return h.respondTask(c, id)
}

func (h *handlers) updateRecurrence(c echo.Context) error {
	id, err := idParam(c, "task")
	if err != nil {
		return err
	}
	var req recurrenceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	settings, err := req.settings()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rec, err := h.eng.UpdateRecurrence(c.Request().Context(), id, settings)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, recurrenceResponse{
		Status:    rec.Status.String(),
		Trigger:   rec.Trigger.String(),
		Factor:    rec.Factor,
		Timeframe: rec.Timeframe.String(),
		BaseDate:  rec.BaseDate.String(),
	})
}

func (r recurrenceRequest) settings() (task.RecurrenceSettings, error) {
	s := task.RecurrenceSettings{Enabled: r.Enabled, Factor: r.Factor}
	if r.Factor != nil && *r.Factor < 0 {
		return s, fmt.Errorf("factor must not be negative")
	}
	if r.Trigger != nil {
		v, err := task.ParseTrigger(*r.Trigger)
		if err != nil {
			return s, err
		}
		s.Trigger = &v
	}
	if r.Timeframe != nil {
		v, err := task.ParseTimeframe(*r.Timeframe)
		if err != nil {
			return s, err
		}
		s.Timeframe = &v
	}
	if r.BaseDate != nil {
		v, err := task.ParseBaseDate(*r.BaseDate)
		if err != nil {
			return s, err
		}
		s.BaseDate = &v
	}
	return s, nil
}

func (h *handlers) duplicate(c echo.Context) error {
	id, err := idParam(c, "task")
	if err != nil {
		return err
	}
	newID, err := h.eng.Duplicate(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createdResponse{TaskID: newID})
}

func (h *handlers) copyToProject(c echo.Context) error {
	id, req, err := h.projectTarget(c)
	if err != nil {
		return err
	}
	newID, err := h.eng.DuplicateToProject(c.Request().Context(), id, req.ProjectID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createdResponse{TaskID: newID})
}

func (h *handlers) moveToProject(c echo.Context) error {
	id, req, err := h.projectTarget(c)
	if err != nil {
		return err
	}
	if err := h.eng.MoveToProject(c.Request().Context(), id, req.ProjectID); err != nil {
		return err
	}
	return h.respondTask(c, id)
}

func (h *handlers) projectTarget(c echo.Context) (int64, projectRequest, error) {
	id, err := idParam(c, "task")
	if err != nil {
		return 0, projectRequest{}, err
	}
	var req projectRequest
	if err := c.Bind(&req); err != nil || req.ProjectID == 0 {
		return 0, projectRequest{}, echo.NewHTTPError(http.StatusBadRequest, "project_id is required")
	}
	return id, req, nil
}

func (h *handlers) listEvents(c echo.Context) error {
	f := store.EventFilter{
		CorrelationID: c.QueryParam("correlation_id"),
		Name:          c.QueryParam("name"),
		Limit:         100,
	}
	if s := c.QueryParam("task_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid task_id")
		}
		f.TaskID = id
	}
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		f.Limit = n
	}

	records, err := h.events.Events(c.Request().Context(), f)
	if err != nil {
		return err
	}
	out := make([]eventView, len(records))
	for i, r := range records {
		out[i] = eventView{
			ID:            r.ID,
			Name:          r.Name,
			CorrelationID: r.CorrelationID,
			Seq:           r.Seq,
			TaskID:        r.TaskID,
			OccurredAt:    r.OccurredAt,
			Payload:       json.RawMessage(r.Payload),
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (h *handlers) respondTask(c echo.Context, id int64) error {
	t, err := h.eng.Task(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func idParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name+" id")
	}
	return id, nil
}
