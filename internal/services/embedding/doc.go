// Package embedding calls an OpenAI-compatible embeddings endpoint. Requests
// are chunked into configurable batches; each batch is a single attempt and
// callers compose retries around it.
package embedding
