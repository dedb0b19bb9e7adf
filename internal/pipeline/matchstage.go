package pipeline

import (
	"context"
	"log/slog"

	"fotoprotokoll/internal/config"
	"fotoprotokoll/internal/hashing"
	"fotoprotokoll/internal/logging"
	"fotoprotokoll/internal/match"
	"fotoprotokoll/internal/stagecache"
)

// MatchStage assigns photos and notes to agenda sessions via the matching
// engine and records the full candidate audit trail in the content plan.
type MatchStage struct {
	cfg    *config.Config
	engine *match.Engine
	logger *slog.Logger
}

// NewMatchStage constructs the match stage.
func NewMatchStage(cfg *config.Config, engine *match.Engine, logger *slog.Logger) *MatchStage {
	return &MatchStage{cfg: cfg, engine: engine, logger: logging.NewComponentLogger(logger, "match")}
}

func (s *MatchStage) ID() stagecache.StageID { return stagecache.StageMatch }

func (s *MatchStage) Artifact() string { return artifactContentPlan }

// Inputs covers both upstream artifacts and every knob that influences
// scoring.
func (s *MatchStage) Inputs(_ context.Context) (hashing.InputSet, error) {
	return hashing.InputSet{
		Root:  s.cfg.Project.Dir,
		Files: []string{artifactManifest, artifactEnriched},
		Params: map[string]any{
			"confidence_threshold": s.cfg.Match.ConfidenceThreshold,
			"temporal_weight":      s.cfg.Match.TemporalWeight,
			"semantic_weight":      s.cfg.Match.SemanticWeight,
			"max_decay_minutes":    s.cfg.Match.MaxDecayMinutes,
			"min_note_confidence":  s.cfg.Match.MinNoteConfidence,
			"embedding_model":      s.cfg.Embedding.Model,
		},
	}, nil
}

func (s *MatchStage) Execute(ctx context.Context) error {
	manifest, err := loadManifest(s.cfg, "3b")
	if err != nil {
		return err
	}
	enriched, err := loadEnrichedPhotos(s.cfg, "3b")
	if err != nil {
		return err
	}

	plan, err := s.engine.BuildPlan(ctx, manifest, enriched)
	if err != nil {
		return err
	}

	s.logger.Info("content plan built",
		logging.Int("items", len(plan.Items)),
		logging.Int("needs_review", plan.ReviewCount()),
		logging.Int("notes", len(plan.Notes)),
		logging.Int("unassigned_notes", len(plan.UnassignedNotes)))

	return writeArtifact(s.cfg, artifactContentPlan, plan)
}
