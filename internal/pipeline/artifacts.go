package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"fotoprotokoll/internal/config"
	"fotoprotokoll/internal/fileutil"
	"fotoprotokoll/internal/model"
	"fotoprotokoll/internal/services"
)

// Artifact paths relative to the project directory.
const (
	artifactManifest    = ".cache/manifest.json"
	artifactPhotos      = ".cache/photo_results.json"
	artifactEnriched    = ".cache/enriched_photos.json"
	artifactContentPlan = ".cache/content_plan.json"
	artifactPagePlan    = ".cache/page_plan.json"
	artifactDocument    = "output/protokoll.html"
)

// writeArtifact marshals v as indented JSON and writes it atomically.
func writeArtifact(cfg *config.Config, rel string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", rel, err)
	}
	path := filepath.Join(cfg.Project.Dir, rel)
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

// readArtifact unmarshals an artifact produced by an earlier stage. A
// missing artifact is a pipeline contract violation: the executor should
// have run the producing stage first.
func readArtifact(cfg *config.Config, stage, rel string, v any) error {
	path := filepath.Join(cfg.Project.Dir, rel)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return services.Wrap(services.ErrNotFound, stage, "read artifact",
				fmt.Sprintf("%s missing; run the producing stage first", rel), nil)
		}
		return fmt.Errorf("read %s: %w", rel, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return services.Wrap(services.ErrValidation, stage, "read artifact",
			fmt.Sprintf("%s is not valid JSON", rel), err)
	}
	return nil
}

func loadManifest(cfg *config.Config, stage string) (*model.ProjectManifest, error) {
	var manifest model.ProjectManifest
	if err := readArtifact(cfg, stage, artifactManifest, &manifest); err != nil {
		return nil, err
	}
	if err := manifest.Validate(); err != nil {
		return nil, services.Wrap(services.ErrValidation, stage, "validate manifest", "", err)
	}
	return &manifest, nil
}

func loadPhotoResults(cfg *config.Config, stage string) (*model.PhotoResults, error) {
	var results model.PhotoResults
	if err := readArtifact(cfg, stage, artifactPhotos, &results); err != nil {
		return nil, err
	}
	if err := results.Validate(); err != nil {
		return nil, services.Wrap(services.ErrValidation, stage, "validate photo results", "", err)
	}
	return &results, nil
}

func loadEnrichedPhotos(cfg *config.Config, stage string) (*model.EnrichedPhotoSet, error) {
	var set model.EnrichedPhotoSet
	if err := readArtifact(cfg, stage, artifactEnriched, &set); err != nil {
		return nil, err
	}
	if err := set.Validate(); err != nil {
		return nil, services.Wrap(services.ErrValidation, stage, "validate enriched photos", "", err)
	}
	return &set, nil
}

func loadContentPlan(cfg *config.Config, stage string, manifest *model.ProjectManifest) (*model.ContentPlan, error) {
	var plan model.ContentPlan
	if err := readArtifact(cfg, stage, artifactContentPlan, &plan); err != nil {
		return nil, err
	}
	if err := plan.Validate(manifest); err != nil {
		return nil, services.Wrap(services.ErrValidation, stage, "validate content plan", "", err)
	}
	return &plan, nil
}

func loadPagePlan(cfg *config.Config, stage string) (*model.PagePlan, error) {
	var plan model.PagePlan
	if err := readArtifact(cfg, stage, artifactPagePlan, &plan); err != nil {
		return nil, err
	}
	if err := plan.Validate(); err != nil {
		return nil, services.Wrap(services.ErrValidation, stage, "validate page plan", "", err)
	}
	return &plan, nil
}
