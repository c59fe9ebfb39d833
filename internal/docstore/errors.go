package docstore

import "errors"

// Error kinds. Backends wrap driver failures so that callers can match them
// with errors.Is.
var (
	ErrUnavailable      = errors.New("docstore: unavailable")
	ErrPermissionDenied = errors.New("docstore: permission denied")
	ErrNotFound         = errors.New("docstore: not found")
	ErrConflict         = errors.New("docstore: write conflict")
	ErrInvalidFilter    = errors.New("docstore: invalid filter")
)

// Reason reports the label of an error kind, used for metrics and logs.
func Reason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidFilter):
		return "invalid_filter"
	default:
		return "unknown"
	}
}

// Expected reports whether err is an availability or permission failure
// that read paths degrade on without alarming.
func Expected(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrPermissionDenied)
}
