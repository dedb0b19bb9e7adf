// Package memo persists per-unit results of expensive external calls, keyed
// by content digest. A photo whose bytes are unchanged between runs reuses
// its stored analysis instead of calling the vision service again, and
// concurrent workers computing the same key are collapsed into a single
// in-flight call. Failures are never memoized.
package memo
