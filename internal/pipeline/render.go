package pipeline

import (
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fotoprotokoll/internal/config"
	"fotoprotokoll/internal/hashing"
	"fotoprotokoll/internal/logging"
	"fotoprotokoll/internal/stagecache"
)

//go:embed template.gohtml
var documentTemplate string

// RenderStage renders the page plan into the final HTML document. The output
// is print-ready: one A4 landscape block per page, suitable for printing to
// PDF.
type RenderStage struct {
	cfg    *config.Config
	logger *slog.Logger
	now    func() time.Time
}

// NewRenderStage constructs the render stage.
func NewRenderStage(cfg *config.Config, logger *slog.Logger) *RenderStage {
	return &RenderStage{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "render"),
		now:    time.Now,
	}
}

func (s *RenderStage) ID() stagecache.StageID { return stagecache.StageRender }

func (s *RenderStage) Artifact() string { return artifactDocument }

func (s *RenderStage) Inputs(_ context.Context) (hashing.InputSet, error) {
	return hashing.InputSet{
		Root:  s.cfg.Project.Dir,
		Files: []string{artifactPagePlan},
		Params: map[string]any{
			"language": s.cfg.Project.Language,
		},
	}, nil
}

func (s *RenderStage) Execute(ctx context.Context) error {
	plan, err := loadPagePlan(s.cfg, "5")
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	outputDir := s.cfg.OutputDir()
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	// Image paths in artifacts are project-relative; the document lives in
	// output/, so rewrite them relative to it.
	funcs := template.FuncMap{
		"imageref": func(rel string) (string, error) {
			abs := filepath.Join(s.cfg.Project.Dir, rel)
			ref, err := filepath.Rel(outputDir, abs)
			if err != nil {
				return "", fmt.Errorf("relativize image path %s: %w", rel, err)
			}
			return filepath.ToSlash(ref), nil
		},
	}

	tmpl, err := template.New("document").Funcs(funcs).Parse(documentTemplate)
	if err != nil {
		return fmt.Errorf("parse document template: %w", err)
	}

	outputPath := filepath.Join(s.cfg.Project.Dir, artifactDocument)
	tmpPath := outputPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	data := struct {
		Plan      any
		Language  string
		Generated string
	}{
		Plan:      plan,
		Language:  s.cfg.Project.Language,
		Generated: s.now().Format("02.01.2006 15:04"),
	}
	if err := tmpl.Execute(out, data); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("render document: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close document: %w", err)
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("finalize document: %w", err)
	}

	s.logger.Info("document rendered",
		logging.Int("pages", len(plan.Pages)),
		logging.String("path", outputPath))

	return nil
}
