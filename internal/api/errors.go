package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRequestFailed matches every non-2xx response returned by the backend.
var ErrRequestFailed = errors.New("request failed")

// RequestFailedError describes a non-2xx response. 4xx and 5xx are treated alike.
type RequestFailedError struct {
	Op      string
	Status  int
	Message string
}

func (e *RequestFailedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("failed to %s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("failed to %s: status %d: %s", e.Op, e.Status, e.Message)
}

func (e *RequestFailedError) Is(target error) bool {
	return target == ErrRequestFailed
}

// StatusCode returns the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var rf *RequestFailedError
	if errors.As(err, &rf) {
		return rf.Status, true
	}
	return 0, false
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	status, ok := StatusCode(err)
	return ok && status == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	status, ok := StatusCode(err)
	return ok && status == http.StatusNotFound
}
