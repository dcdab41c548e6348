package soda

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
)

// Sentinel errors for the failure classes a query can produce. Callers
// match them with errors.Is.
var (
	// ErrMissingDataset is returned before any network I/O when the query
	// has no dataset identifier.
	ErrMissingDataset = errors.New("dataset id is required")

	// ErrTimeout is returned when the request did not complete within the
	// configured timeout.
	ErrTimeout = errors.New("query timed out")

	// ErrNetwork is returned for connection-level failures (DNS, refused
	// connections, resets).
	ErrNetwork = errors.New("network failure")
)

// StatusError reports a non-2xx response from the API. Body holds a
// truncated snippet of the response body.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// classifyTransportError distinguishes timeouts from other network failures
// so callers can treat them differently.
func classifyTransportError(err error) error {
	if err == nil {
		return nil
	}
	if isTimeout(err) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
