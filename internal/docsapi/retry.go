package docsapi

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
)

const (
	OpFetch = "fetch"
	OpApply = "apply"
)

const MaxRetries = 3

// Error is a failed Docs API call.
type Error struct {
	Op         string
	DocumentID string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("docs api %s %s: %v", e.Op, e.DocumentID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode is the HTTP status the API answered with, or 0.
func (e *Error) StatusCode() int {
	var gerr *googleapi.Error
	if errors.As(e.Err, &gerr) {
		return gerr.Code
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}

// IsRetryable checks if an error is worth retrying: rate limits and server
// errors.
func IsRetryable(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}
