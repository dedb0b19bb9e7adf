// Package match assigns photos and notes to agenda sessions by combining two
// weighted evidence sources: how well a photo's timestamp fits a session's
// time window, and how similar the photo's extracted text is to the session's
// topic. Semantic similarity uses text embeddings when an embedder is
// available and falls back to token overlap when it is not, so matching still
// works offline.
package match
