package testsupport

import (
	"path/filepath"
	"testing"

	"fotoprotokoll/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config rooted in a unique temp project directory per
// test. External service keys are cleared so no test accidentally calls out.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Project.Dir = filepath.Join(t.TempDir(), "project")
	cfg.Vision.APIKey = ""
	cfg.Embedding.APIKey = ""
	cfg.Pipeline.RetryAttempts = 2
	cfg.Pipeline.RetryBaseDelayMS = 1
	cfg.Pipeline.RetryMaxDelayMS = 5

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure project directories: %v", err)
	}
	return &cfg
}

// WithWorkers overrides the enrichment worker count.
func WithWorkers(workers int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Pipeline.Workers = workers
	}
}

// WithSectionDividers enables divider pages between sessions.
func WithSectionDividers() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Layout.SectionDividers = true
	}
}
