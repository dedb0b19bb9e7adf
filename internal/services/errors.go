package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrTransient marks failures worth retrying: rate limits, timeouts,
	// transient network errors, 5xx responses.
	ErrTransient = errors.New("transient failure")

	// ErrPermanent marks failures that retrying cannot fix: authentication
	// errors, malformed requests, unsupported input.
	ErrPermanent = errors.New("permanent failure")

	// ErrValidation marks artifact or input contract violations detected at a
	// stage boundary.
	ErrValidation = errors.New("validation error")

	// ErrConfiguration marks missing or inconsistent configuration.
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound marks a missing required input (file, artifact, directory).
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsTransient reports whether err should be retried. Context cancellation is
// never transient: the caller asked to stop.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrPermanent) || errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConfiguration) || errors.Is(err, ErrNotFound) {
		return false
	}
	if errors.Is(err, ErrTransient) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
