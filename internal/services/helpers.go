package services

import (
	"errors"
	"net/http"
	"time"

	"github.com/aftras/crm/internal/docstore"
	"github.com/aftras/crm/internal/utils"
)

// Clock returns the current instant. Services store times in UTC.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// storeError turns a document store failure into an AppError carrying the
// matching status.
func storeError(message string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return &utils.AppError{StatusCode: http.StatusNotFound, Code: utils.ErrCodeNotFound, Message: message, Err: err}
	case errors.Is(err, docstore.ErrConflict):
		return &utils.AppError{StatusCode: http.StatusConflict, Code: utils.ErrCodeConflict, Message: message, Err: err}
	case errors.Is(err, docstore.ErrUnavailable):
		return &utils.AppError{StatusCode: http.StatusServiceUnavailable, Code: utils.ErrCodeStoreUnavailable, Message: message, Err: err}
	case errors.Is(err, docstore.ErrPermissionDenied):
		return &utils.AppError{StatusCode: http.StatusForbidden, Code: utils.ErrCodeForbidden, Message: message, Err: err}
	case errors.Is(err, docstore.ErrInvalidFilter):
		return &utils.AppError{StatusCode: http.StatusBadRequest, Code: utils.ErrCodeInvalidPayload, Message: message, Err: err}
	}
	return utils.Internal(message, err)
}

// DayWindow returns [local midnight, next local midnight) around now in loc.
func DayWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	return start, end
}

func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
