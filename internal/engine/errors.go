package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/taskflow/internal/position"
	"github.com/roach88/taskflow/internal/store"
)

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeInvalidPlacement indicates a position below 1, a column or
	// swimlane outside the project, or a closed task. Nothing was written.
	ErrCodeInvalidPlacement ErrorCode = "INVALID_PLACEMENT"

	// ErrCodeTaskNotFound indicates the task does not exist.
	ErrCodeTaskNotFound ErrorCode = "TASK_NOT_FOUND"

	// ErrCodeProjectNotFound indicates the project does not exist or has no
	// columns.
	ErrCodeProjectNotFound ErrorCode = "PROJECT_NOT_FOUND"

	// ErrCodePersistenceFailure indicates a storage error. The transaction
	// was rolled back.
	ErrCodePersistenceFailure ErrorCode = "PERSISTENCE_FAILURE"
)

// Error is returned by every engine operation.
type Error struct {
	Code    ErrorCode
	Op      string
	TaskID  int64
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Code)
	if e.TaskID != 0 {
		msg += fmt.Sprintf(" (task=%d)", e.TaskID)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf returns the code of an engine error, or "" for other errors.
func CodeOf(err error) ErrorCode {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// IsInvalidPlacement returns true if err is an invalid placement error.
func IsInvalidPlacement(err error) bool { return CodeOf(err) == ErrCodeInvalidPlacement }

// IsTaskNotFound returns true if err is a task not found error.
func IsTaskNotFound(err error) bool { return CodeOf(err) == ErrCodeTaskNotFound }

// IsProjectNotFound returns true if err is a project not found error.
func IsProjectNotFound(err error) bool { return CodeOf(err) == ErrCodeProjectNotFound }

// IsPersistenceFailure returns true if err is a persistence failure.
func IsPersistenceFailure(err error) bool { return CodeOf(err) == ErrCodePersistenceFailure }

func invalidPlacement(op string, taskID int64, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeInvalidPlacement,
		Op:      op,
		TaskID:  taskID,
		Message: fmt.Sprintf(format, args...),
		Err:     position.ErrInvalidPlacement,
	}
}

// classify turns an error from inside a transaction into an *Error.
// Errors that already are *Error pass through.
func classify(op string, taskID int64, err error) error {
	if err == nil {
		return nil
	}
	var ee *Error
	if errors.As(err, &ee) {
		return err
	}
	if errors.Is(err, position.ErrInvalidPlacement) {
		return &Error{Code: ErrCodeInvalidPlacement, Op: op, TaskID: taskID, Err: err}
	}
	return &Error{Code: ErrCodePersistenceFailure, Op: op, TaskID: taskID, Err: err}
}

// taskLookup maps a failed task read to TASK_NOT_FOUND or
// PERSISTENCE_FAILURE.
func taskLookup(op string, taskID int64, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return &Error{Code: ErrCodeTaskNotFound, Op: op, TaskID: taskID, Err: err}
	}
	return &Error{Code: ErrCodePersistenceFailure, Op: op, TaskID: taskID, Err: err}
}

// projectLookup maps a failed project or column read.
func projectLookup(op string, projectID int64, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return &Error{
			Code:    ErrCodeProjectNotFound,
			Op:      op,
			Message: fmt.Sprintf("project %d", projectID),
			Err:     err,
		}
	}
	return &Error{Code: ErrCodePersistenceFailure, Op: op, Err: err}
}

func isNotFound(err error) bool { return errors.Is(err, store.ErrNotFound) }
