// Package retry wraps fallible operations with bounded exponential backoff.
// Transient failures are retried with jittered, capped delays; permanent
// failures and context cancellation propagate immediately. Rate-limit
// responses carrying a Retry-After hint have the hint honored in place of
// the computed backoff.
package retry
