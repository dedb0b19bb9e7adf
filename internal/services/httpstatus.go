package services

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HTTPStatusError carries a non-2xx response from an external service. Rate
// limits (429), request timeouts (408), and server errors (5xx) classify as
// transient; everything else is permanent.
type HTTPStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *HTTPStatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, body)
}

func (e *HTTPStatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusRequestTimeout,
		e.StatusCode == http.StatusTooManyRequests,
		e.StatusCode >= http.StatusInternalServerError:
		return ErrTransient
	default:
		return ErrPermanent
	}
}

// ParseRetryAfter interprets a Retry-After header value, accepting both the
// delta-seconds and HTTP-date forms. A zero duration means no usable hint.
func ParseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds <= 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay <= 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
