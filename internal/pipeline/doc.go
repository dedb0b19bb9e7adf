// Package pipeline implements the six document stages: ingest project
// inputs, process photos, enrich them through the vision service, match
// content to agenda sessions, lay out pages, and render the final document.
// Each stage reads its predecessor's artifact from the project cache and
// writes its own; the executor decides which stages actually need to run.
package pipeline
