package pipeline

import (
	"log/slog"
	"time"

	"fotoprotokoll/internal/config"
	"fotoprotokoll/internal/executor"
	"fotoprotokoll/internal/match"
	"fotoprotokoll/internal/memo"
	"fotoprotokoll/internal/retry"
	"fotoprotokoll/internal/services/embedding"
	"fotoprotokoll/internal/services/vision"
)

type stageDeps struct {
	analyzer PhotoAnalyzer
	embedder match.Embedder
}

// StageOption replaces an external service dependency, mainly for tests.
type StageOption func(*stageDeps)

// WithAnalyzer overrides the vision service client.
func WithAnalyzer(analyzer PhotoAnalyzer) StageOption {
	return func(d *stageDeps) { d.analyzer = analyzer }
}

// WithEmbedder overrides the embedding service client.
func WithEmbedder(embedder match.Embedder) StageOption {
	return func(d *stageDeps) { d.embedder = embedder }
}

// RetryPolicy builds the retry policy for external calls from configuration.
func RetryPolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{
		MaxAttempts: cfg.Pipeline.RetryAttempts,
		BaseDelay:   time.Duration(cfg.Pipeline.RetryBaseDelayMS) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.Pipeline.RetryMaxDelayMS) * time.Millisecond,
	}
}

// BuildStages assembles all six stages in execution order. Without a
// configured embedding API key the matcher scores text overlap offline
// instead of calling the embedding service.
func BuildStages(cfg *config.Config, memoStore *memo.Store, logger *slog.Logger, opts ...StageOption) []executor.Stage {
	deps := stageDeps{}
	for _, opt := range opts {
		opt(&deps)
	}

	if deps.analyzer == nil {
		deps.analyzer = vision.NewClient(vision.Config{
			APIKey:         cfg.Vision.APIKey,
			BaseURL:        cfg.Vision.BaseURL,
			Model:          cfg.Vision.Model,
			Detail:         cfg.Vision.Detail,
			TimeoutSeconds: cfg.Vision.TimeoutSeconds,
		})
	}
	if deps.embedder == nil && cfg.Embedding.APIKey != "" {
		deps.embedder = embedding.NewClient(embedding.Config{
			APIKey:         cfg.Embedding.APIKey,
			BaseURL:        cfg.Embedding.BaseURL,
			Model:          cfg.Embedding.Model,
			TimeoutSeconds: cfg.Embedding.TimeoutSeconds,
			BatchSize:      cfg.Embedding.BatchSize,
		})
	}

	policy := RetryPolicy(cfg)

	engineOpts := []match.EngineOption{
		match.WithMemoizer(memoStore),
		match.WithRetryPolicy(policy),
	}
	if deps.embedder != nil {
		engineOpts = append(engineOpts, match.WithEmbedder(deps.embedder))
	}
	engine := match.NewEngine(match.Options{
		ConfidenceThreshold: cfg.Match.ConfidenceThreshold,
		TemporalWeight:      cfg.Match.TemporalWeight,
		SemanticWeight:      cfg.Match.SemanticWeight,
		MaxDecayMinutes:     cfg.Match.MaxDecayMinutes,
		MinNoteConfidence:   cfg.Match.MinNoteConfidence,
	}, logger, engineOpts...)

	return []executor.Stage{
		NewIngestStage(cfg, logger),
		NewProcessStage(cfg, logger),
		NewEnrichStage(cfg, deps.analyzer, memoStore, policy, logger),
		NewMatchStage(cfg, engine, logger),
		NewLayoutStage(cfg, logger),
		NewRenderStage(cfg, logger),
	}
}
