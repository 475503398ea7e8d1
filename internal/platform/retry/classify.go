package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned for a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// ClassifyHTTP retries transport failures and 5xx responses, backs off longer
// on 429 and stops on every other status or on cancellation.
func ClassifyHTTP(err error) Action {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Stop
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return Retry
	}

	switch {
	case statusErr.StatusCode == http.StatusTooManyRequests:
		return After
	case statusErr.StatusCode >= 500:
		return Retry
	default:
		return Stop
	}
}
