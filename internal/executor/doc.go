// Package executor runs pipeline stages in order, skipping any stage whose
// input digest matches its last recorded run and whose artifact still
// exists. A stage that runs invalidates everything downstream of it; a stage
// that fails leaves the cache manifest untouched so the next run resumes at
// the same point. A file lock serializes runs against the same project.
package executor
