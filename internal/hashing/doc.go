// Package hashing computes deterministic digests over stage inputs. A stage's
// input digest covers the relative paths and contents of its input files plus
// a canonical snapshot of the configuration values that influence it, so any
// change to either produces a new digest and invalidates cached work.
package hashing
