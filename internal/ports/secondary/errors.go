package secondary

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRemoteNotFound marks a remote 404. Right after a create it is usually
// propagation lag, so callers may retry it once.
var ErrRemoteNotFound = errors.New("remote resource not found")

// ErrDecode marks a remote response that lacks a field the caller needs.
var ErrDecode = errors.New("failed to decode remote response")

// RemoteError is a failed remote call.
type RemoteError struct {
	Op         string
	StatusCode int
	Code       int // remote error code, 0 if absent
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: remote returned %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: remote returned %d: %s", e.Op, e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrRemoteNotFound) match 404 responses.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemoteNotFound && e.StatusCode == http.StatusNotFound
}

// Transient reports whether err is the one failure class worth a retry.
func Transient(err error) bool {
	return errors.Is(err, ErrRemoteNotFound)
}

// ErrNotFound marks a missing local record. Its text reads naturally after
// the record name, e.g. "plot 42 not found".
var ErrNotFound = errors.New("not found")
