package pipeline

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"fotoprotokoll/internal/config"
	"fotoprotokoll/internal/hashing"
	"fotoprotokoll/internal/logging"
	"fotoprotokoll/internal/model"
	"fotoprotokoll/internal/services"
	"fotoprotokoll/internal/stagecache"
)

// IngestStage inventories the project inputs: it parses the agenda, lists
// and measures all photos, and collects free-form notes.
type IngestStage struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewIngestStage constructs the ingest stage.
func NewIngestStage(cfg *config.Config, logger *slog.Logger) *IngestStage {
	return &IngestStage{cfg: cfg, logger: logging.NewComponentLogger(logger, "ingest")}
}

func (s *IngestStage) ID() stagecache.StageID { return stagecache.StageIngest }

func (s *IngestStage) Artifact() string { return artifactManifest }

// Inputs covers the agenda, photo, and text directories plus the settings
// that shape the manifest.
func (s *IngestStage) Inputs(_ context.Context) (hashing.InputSet, error) {
	root := s.cfg.Project.Dir
	var files []string
	for _, dir := range []string{s.cfg.AgendaDir(), s.cfg.FotosDir(), s.cfg.TextDir()} {
		listed, err := hashing.ListFiles(root, dir)
		if err != nil {
			return hashing.InputSet{}, err
		}
		files = append(files, listed...)
	}
	return hashing.InputSet{
		Root:  root,
		Files: files,
		Params: map[string]any{
			"language": s.cfg.Project.Language,
			"title":    s.cfg.Project.Title,
		},
	}, nil
}

func (s *IngestStage) Execute(ctx context.Context) error {
	agendaPath, err := findAgendaFile(s.cfg.AgendaDir())
	if err != nil {
		return err
	}
	content, err := os.ReadFile(agendaPath)
	if err != nil {
		return fmt.Errorf("read agenda: %w", err)
	}
	meta, sessions, err := parseAgenda(string(content))
	if err != nil {
		return err
	}
	if s.cfg.Project.Title != "" {
		meta.Title = s.cfg.Project.Title
	}
	if meta.Title == "" {
		meta.Title = "Workshop-Protokoll"
	}

	photos, err := s.inventoryPhotos(ctx)
	if err != nil {
		return err
	}
	if len(photos) == 0 {
		return services.Wrap(services.ErrValidation, "1", "inventory photos",
			fmt.Sprintf("no photos found under %s", s.cfg.FotosDir()), nil)
	}

	snippets, err := s.collectTextSnippets()
	if err != nil {
		return err
	}

	manifest := &model.ProjectManifest{
		Meta:         meta,
		Sessions:     sessions,
		Photos:       photos,
		TextSnippets: snippets,
	}
	if err := manifest.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, "1", "validate manifest", "", err)
	}

	s.logger.Info("project inventoried",
		logging.Int("sessions", len(sessions)),
		logging.Int("photos", len(photos)),
		logging.Int("text_snippets", len(snippets)))

	return writeArtifact(s.cfg, artifactManifest, manifest)
}

// findAgendaFile picks the first text file in the agenda directory,
// alphabetically.
func findAgendaFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "1", "find agenda",
			fmt.Sprintf("agenda directory %s unreadable", dir), err)
	}
	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".txt", ".md":
			candidates = append(candidates, entry.Name())
		}
	}
	if len(candidates) == 0 {
		return "", services.Wrap(services.ErrNotFound, "1", "find agenda",
			fmt.Sprintf("no .txt or .md agenda file in %s", dir), nil)
	}
	sort.Strings(candidates)
	return filepath.Join(dir, candidates[0]), nil
}

func (s *IngestStage) inventoryPhotos(ctx context.Context) ([]model.Photo, error) {
	entries, err := os.ReadDir(s.cfg.FotosDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "1", "inventory photos",
				fmt.Sprintf("photo directory %s does not exist", s.cfg.FotosDir()), nil)
		}
		return nil, fmt.Errorf("read photo directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	photos := make([]model.Photo, 0, len(names))
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(s.cfg.FotosDir(), name)
		photo, err := s.inspectPhoto(path, name)
		if err != nil {
			s.logger.Warn("skipping unreadable photo",
				logging.String("filename", name),
				logging.Error(err))
			continue
		}
		photo.ID = fmt.Sprintf("photo_%03d", i+1)
		photos = append(photos, photo)
	}
	return photos, nil
}

func (s *IngestStage) inspectPhoto(path, name string) (model.Photo, error) {
	var photo model.Photo

	f, err := os.Open(path)
	if err != nil {
		return photo, fmt.Errorf("open photo: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return photo, fmt.Errorf("decode photo header: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return photo, fmt.Errorf("stat photo: %w", err)
	}

	rel, err := filepath.Rel(s.cfg.Project.Dir, path)
	if err != nil {
		return photo, fmt.Errorf("relativize photo path: %w", err)
	}

	photo = model.Photo{
		Filename:      name,
		Path:          filepath.ToSlash(rel),
		TimestampFile: info.ModTime(),
		Width:         cfg.Width,
		Height:        cfg.Height,
		Orientation:   orientationFor(cfg.Width, cfg.Height),
	}

	if captured, ok := exifTimestamp(f); ok {
		photo.TimestampEXIF = &captured
	}

	return photo, nil
}

// exifTimestamp reads the capture timestamp from EXIF metadata. Photos
// without EXIF (PNG exports, screenshots) simply have none.
func exifTimestamp(f *os.File) (time.Time, bool) {
	if _, err := f.Seek(0, 0); err != nil {
		return time.Time{}, false
	}
	meta, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, false
	}
	captured, err := meta.DateTime()
	if err != nil {
		return time.Time{}, false
	}
	return captured, true
}

func orientationFor(width, height int) string {
	switch {
	case width > height:
		return model.OrientationLandscape
	case height > width:
		return model.OrientationPortrait
	default:
		return model.OrientationSquare
	}
}

func (s *IngestStage) collectTextSnippets() ([]model.TextSnippet, error) {
	entries, err := os.ReadDir(s.cfg.TextDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // notes are optional
		}
		return nil, fmt.Errorf("read text directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".txt", ".md":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	snippets := make([]model.TextSnippet, 0, len(names))
	for i, name := range names {
		content, err := os.ReadFile(filepath.Join(s.cfg.TextDir(), name))
		if err != nil {
			return nil, fmt.Errorf("read text snippet %s: %w", name, err)
		}
		text := strings.TrimSpace(string(content))
		if text == "" {
			continue
		}
		snippets = append(snippets, model.TextSnippet{
			ID:        fmt.Sprintf("text_%03d", i+1),
			Filename:  name,
			Content:   text,
			WordCount: len(strings.Fields(text)),
		})
	}
	return snippets, nil
}
