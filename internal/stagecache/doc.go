// Package stagecache persists the per-stage cache manifest that makes
// pipeline runs resumable. Each entry records the input digest a stage last
// ran with and the artifact it produced; on the next run a stage whose digest
// is unchanged is skipped, and a changed digest invalidates the stage and
// everything downstream of it.
package stagecache
