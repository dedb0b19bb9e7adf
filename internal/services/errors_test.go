package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestWrapPreservesMarkerAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(ErrTransient, "3a", "analyze", "vision call failed", cause)
	if !errors.Is(err, ErrTransient) {
		t.Fatal("marker lost")
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause lost")
	}
	want := "transient failure: 3a: analyze: vision call failed: connection reset"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "transient marker", err: fmt.Errorf("x: %w", ErrTransient), want: true},
		{name: "permanent marker", err: fmt.Errorf("x: %w", ErrPermanent), want: false},
		{name: "validation", err: ErrValidation, want: false},
		{name: "context canceled", err: context.Canceled, want: false},
		{name: "deadline", err: context.DeadlineExceeded, want: false},
		{name: "rate limited", err: &HTTPStatusError{StatusCode: http.StatusTooManyRequests}, want: true},
		{name: "server error", err: &HTTPStatusError{StatusCode: http.StatusBadGateway}, want: true},
		{name: "bad request", err: &HTTPStatusError{StatusCode: http.StatusBadRequest}, want: false},
		{name: "unauthorized", err: &HTTPStatusError{StatusCode: http.StatusUnauthorized}, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTransient(tc.err); got != tc.want {
				t.Fatalf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	if delay, ok := ParseRetryAfter("5"); !ok || delay != 5*time.Second {
		t.Fatalf("ParseRetryAfter(5) = (%v, %v)", delay, ok)
	}
	if _, ok := ParseRetryAfter(""); ok {
		t.Fatal("empty header parsed")
	}
	if _, ok := ParseRetryAfter("-3"); ok {
		t.Fatal("negative header parsed")
	}
	future := time.Now().Add(10 * time.Second).UTC().Format(http.TimeFormat)
	if delay, ok := ParseRetryAfter(future); !ok || delay <= 0 {
		t.Fatalf("ParseRetryAfter(date) = (%v, %v)", delay, ok)
	}
}
