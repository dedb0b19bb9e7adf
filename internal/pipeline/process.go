package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fotoprotokoll/internal/config"
	"fotoprotokoll/internal/fileutil"
	"fotoprotokoll/internal/hashing"
	"fotoprotokoll/internal/logging"
	"fotoprotokoll/internal/model"
	"fotoprotokoll/internal/stagecache"
)

// ProcessStage normalizes every inventoried photo: it computes the content
// digest later stages key their caches on and materializes a working copy
// under the processed cache directory.
type ProcessStage struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewProcessStage constructs the process stage.
func NewProcessStage(cfg *config.Config, logger *slog.Logger) *ProcessStage {
	return &ProcessStage{cfg: cfg, logger: logging.NewComponentLogger(logger, "process")}
}

func (s *ProcessStage) ID() stagecache.StageID { return stagecache.StageProcess }

func (s *ProcessStage) Artifact() string { return artifactPhotos }

// Inputs covers the upstream manifest and the photo files themselves.
func (s *ProcessStage) Inputs(_ context.Context) (hashing.InputSet, error) {
	root := s.cfg.Project.Dir
	files, err := hashing.ListFiles(root, s.cfg.FotosDir())
	if err != nil {
		return hashing.InputSet{}, err
	}
	files = append(files, artifactManifest)
	return hashing.InputSet{Root: root, Files: files}, nil
}

func (s *ProcessStage) Execute(ctx context.Context) error {
	manifest, err := loadManifest(s.cfg, "2")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.cfg.ProcessedDir(), 0o755); err != nil {
		return fmt.Errorf("create processed directory: %w", err)
	}

	results := &model.PhotoResults{}
	for _, photo := range manifest.Photos {
		if err := ctx.Err(); err != nil {
			return err
		}
		processed, err := s.processPhoto(photo)
		if err != nil {
			return fmt.Errorf("process %s: %w", photo.ID, err)
		}
		results.ProcessedPhotos = append(results.ProcessedPhotos, processed)
	}

	if err := results.Validate(); err != nil {
		return err
	}

	s.logger.Info("photos processed",
		logging.Int("count", len(results.ProcessedPhotos)))

	return writeArtifact(s.cfg, artifactPhotos, results)
}

func (s *ProcessStage) processPhoto(photo model.Photo) (model.ProcessedPhoto, error) {
	var processed model.ProcessedPhoto

	srcPath := filepath.Join(s.cfg.Project.Dir, photo.Path)
	contentHash, err := hashing.HashFile(srcPath)
	if err != nil {
		return processed, err
	}

	// The processed copy is named by digest so a re-run with unchanged bytes
	// reuses the file.
	destName := contentHash + filepath.Ext(photo.Filename)
	destPath := filepath.Join(s.cfg.ProcessedDir(), destName)
	if _, statErr := os.Stat(destPath); statErr != nil {
		if err := fileutil.CopyFileVerified(srcPath, destPath); err != nil {
			return processed, err
		}
	}

	rel, err := filepath.Rel(s.cfg.Project.Dir, destPath)
	if err != nil {
		return processed, fmt.Errorf("relativize processed path: %w", err)
	}

	return model.ProcessedPhoto{
		PhotoID:       photo.ID,
		ProcessedPath: filepath.ToSlash(rel),
		ContentHash:   contentHash,
		Orientation:   photo.Orientation,
	}, nil
}
