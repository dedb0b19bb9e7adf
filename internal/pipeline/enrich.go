package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"fotoprotokoll/internal/config"
	"fotoprotokoll/internal/hashing"
	"fotoprotokoll/internal/logging"
	"fotoprotokoll/internal/memo"
	"fotoprotokoll/internal/model"
	"fotoprotokoll/internal/retry"
	"fotoprotokoll/internal/services"
	"fotoprotokoll/internal/stagecache"
)

// PhotoAnalyzer produces a structured analysis for one photo.
// *vision.Client satisfies this.
type PhotoAnalyzer interface {
	AnalyzePhoto(ctx context.Context, imageData []byte, mimeType string) (model.PhotoAnalysis, error)
	Model() string
}

// EnrichStage runs every processed photo through the vision service.
// Analyses are memoized by content digest, so a photo whose bytes are
// unchanged between runs never hits the service twice; a worker pool bounds
// concurrent calls.
type EnrichStage struct {
	cfg      *config.Config
	analyzer PhotoAnalyzer
	memoizer *memo.Store
	policy   retry.Policy
	logger   *slog.Logger
}

// NewEnrichStage constructs the enrich stage.
func NewEnrichStage(cfg *config.Config, analyzer PhotoAnalyzer, memoizer *memo.Store, policy retry.Policy, logger *slog.Logger) *EnrichStage {
	return &EnrichStage{
		cfg:      cfg,
		analyzer: analyzer,
		memoizer: memoizer,
		policy:   policy,
		logger:   logging.NewComponentLogger(logger, "enrich"),
	}
}

func (s *EnrichStage) ID() stagecache.StageID { return stagecache.StageEnrich }

func (s *EnrichStage) Artifact() string { return artifactEnriched }

// Inputs covers the upstream photo results plus the vision settings: a model
// change must re-enrich even though photo bytes are unchanged.
func (s *EnrichStage) Inputs(_ context.Context) (hashing.InputSet, error) {
	return hashing.InputSet{
		Root:  s.cfg.Project.Dir,
		Files: []string{artifactPhotos},
		Params: map[string]any{
			"model":  s.cfg.Vision.Model,
			"detail": s.cfg.Vision.Detail,
		},
	}, nil
}

func (s *EnrichStage) Execute(ctx context.Context) error {
	results, err := loadPhotoResults(s.cfg, "3a")
	if err != nil {
		return err
	}

	workers := s.cfg.Pipeline.Workers
	if workers <= 0 {
		workers = 1
	}

	var mu sync.Mutex
	enriched := make([]model.EnrichedPhoto, len(results.ProcessedPhotos))
	hits := 0

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for i, photo := range results.ProcessedPhotos {
		i, photo := i, photo
		group.Go(func() error {
			record, cached, err := s.enrichPhoto(groupCtx, photo)
			if err != nil {
				return err
			}
			mu.Lock()
			enriched[i] = record
			if cached {
				hits++
			}
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	set := &model.EnrichedPhotoSet{EnrichedPhotos: enriched}
	if err := set.Validate(); err != nil {
		return err
	}

	s.logger.Info("photos enriched",
		logging.Int("count", len(enriched)),
		logging.Int("memo_hits", hits))

	return writeArtifact(s.cfg, artifactEnriched, set)
}

func (s *EnrichStage) enrichPhoto(ctx context.Context, photo model.ProcessedPhoto) (model.EnrichedPhoto, bool, error) {
	memoKey := "analysis:" + s.analyzer.Model() + ":" + photo.ContentHash

	payload, cached, err := s.memoizer.Do(ctx, memoKey, s.analyzer.Model(), func(ctx context.Context) ([]byte, error) {
		analysis, err := s.analyzePhoto(ctx, photo)
		if err != nil {
			return nil, err
		}
		return json.Marshal(analysis)
	})
	if err != nil {
		return model.EnrichedPhoto{}, false, fmt.Errorf("enrich %s: %w", photo.PhotoID, err)
	}

	var analysis model.PhotoAnalysis
	if err := json.Unmarshal(payload, &analysis); err != nil {
		return model.EnrichedPhoto{}, false, services.Wrap(services.ErrValidation, "3a", "decode analysis",
			photo.PhotoID, err)
	}

	if cached {
		s.logger.Debug("reused memoized analysis",
			logging.String(logging.FieldPhotoID, photo.PhotoID),
			logging.String(logging.FieldInputHash, photo.ContentHash))
	}

	return model.NewEnrichedPhoto(photo.PhotoID, analysis, s.analyzer.Model(), photo.ProcessedPath), cached, nil
}

func (s *EnrichStage) analyzePhoto(ctx context.Context, photo model.ProcessedPhoto) (model.PhotoAnalysis, error) {
	path := filepath.Join(s.cfg.Project.Dir, photo.ProcessedPath)
	data, err := os.ReadFile(path)
	if err != nil {
		return model.PhotoAnalysis{}, fmt.Errorf("read processed photo: %w", err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	return retry.Do(ctx, s.policy, "analyze "+photo.PhotoID, func(ctx context.Context, attempt int) (model.PhotoAnalysis, error) {
		if attempt > 1 {
			s.logger.Debug("retrying photo analysis",
				logging.String(logging.FieldPhotoID, photo.PhotoID),
				logging.Int("attempt", attempt))
		}
		return s.analyzer.AnalyzePhoto(ctx, data, mimeType)
	})
}
