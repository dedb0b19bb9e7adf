// Package services defines the shared error taxonomy and context annotations
// for external-service integrations (vision analysis, text embeddings).
//
// Errors produced by service clients are tagged with one of the sentinel
// markers below so the retry wrapper and the stage executor can classify them
// without knowing transport details: ErrTransient failures are retried,
// everything else propagates immediately.
package services
