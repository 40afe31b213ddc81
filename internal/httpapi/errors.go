package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/roach88/taskflow/internal/engine"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusOf maps engine error codes to HTTP statuses.
func statusOf(code engine.ErrorCode) int {
	switch code {
	case engine.ErrCodeInvalidPlacement:
		return http.StatusUnprocessableEntity
	case engine.ErrCodeTaskNotFound, engine.ErrCodeProjectNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorHandler renders engine errors and echo HTTP errors as JSON.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := errorResponse{Code: "INTERNAL", Message: err.Error()}

	var he *echo.HTTPError
	var ee *engine.Error
	switch {
	case errors.As(err, &ee):
		status = statusOf(ee.Code)
		body.Code = string(ee.Code)
	case errors.As(err, &he):
		status = he.Code
		body.Code = http.StatusText(he.Code)
		if msg, ok := he.Message.(string); ok {
			body.Message = msg
		}
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request error", "method", c.Request().Method, "path", c.Path(), "error", err)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, body)
	}
	if writeErr != nil {
		slog.Error("write error response", "error", writeErr)
	}
}
