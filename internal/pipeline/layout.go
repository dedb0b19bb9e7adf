package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"fotoprotokoll/internal/config"
	"fotoprotokoll/internal/hashing"
	"fotoprotokoll/internal/logging"
	"fotoprotokoll/internal/model"
	"fotoprotokoll/internal/stagecache"
)

// LayoutStage turns the content plan into a concrete page sequence: a cover,
// optional section dividers, content pages with one or two photos each, and
// a closing page.
type LayoutStage struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewLayoutStage constructs the layout stage.
func NewLayoutStage(cfg *config.Config, logger *slog.Logger) *LayoutStage {
	return &LayoutStage{cfg: cfg, logger: logging.NewComponentLogger(logger, "layout")}
}

func (s *LayoutStage) ID() stagecache.StageID { return stagecache.StageLayout }

func (s *LayoutStage) Artifact() string { return artifactPagePlan }

func (s *LayoutStage) Inputs(_ context.Context) (hashing.InputSet, error) {
	return hashing.InputSet{
		Root:  s.cfg.Project.Dir,
		Files: []string{artifactManifest, artifactPhotos, artifactEnriched, artifactContentPlan},
		Params: map[string]any{
			"max_photos_per_page": s.cfg.Layout.MaxPhotosPerPage,
			"section_dividers":    s.cfg.Layout.SectionDividers,
			"language":            s.cfg.Project.Language,
		},
	}, nil
}

func (s *LayoutStage) Execute(ctx context.Context) error {
	manifest, err := loadManifest(s.cfg, "4")
	if err != nil {
		return err
	}
	results, err := loadPhotoResults(s.cfg, "4")
	if err != nil {
		return err
	}
	enriched, err := loadEnrichedPhotos(s.cfg, "4")
	if err != nil {
		return err
	}
	plan, err := loadContentPlan(s.cfg, "4", manifest)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	pagePlan := s.composePages(manifest, results, enriched, plan)
	if err := pagePlan.Validate(); err != nil {
		return err
	}

	s.logger.Info("pages composed",
		logging.Int("pages", len(pagePlan.Pages)))

	return writeArtifact(s.cfg, artifactPagePlan, pagePlan)
}

func (s *LayoutStage) composePages(manifest *model.ProjectManifest, results *model.PhotoResults, enriched *model.EnrichedPhotoSet, plan *model.ContentPlan) *model.PagePlan {
	titleCaser := cases.Title(languageTag(s.cfg.Project.Language))

	pagePlan := &model.PagePlan{
		Title: manifest.Meta.Title,
		Date:  manifest.Meta.Date,
	}
	addPage := func(page model.Page) {
		page.Number = len(pagePlan.Pages) + 1
		pagePlan.Pages = append(pagePlan.Pages, page)
	}

	subtitle := manifest.Meta.Location
	if manifest.Meta.Participants > 0 {
		if subtitle != "" {
			subtitle += " · "
		}
		subtitle += fmt.Sprintf("%d Teilnehmer", manifest.Meta.Participants)
	}
	addPage(model.Page{
		Kind:     model.PageCover,
		Title:    manifest.Meta.Title,
		Subtitle: subtitle,
	})

	maxPhotos := s.cfg.Layout.MaxPhotosPerPage
	if maxPhotos < 1 || maxPhotos > 2 {
		maxPhotos = 2
	}

	notesBySession := make(map[string][]model.AssignedNote)
	for _, note := range plan.Notes {
		notesBySession[note.SessionID] = append(notesBySession[note.SessionID], note)
	}

	for _, session := range manifest.Sessions {
		items := plan.ItemsForSession(session.ID)
		notes := notesBySession[session.ID]
		if len(items) == 0 && len(notes) == 0 {
			continue
		}

		heading := titleCaser.String(session.Name)
		if s.cfg.Layout.SectionDividers {
			divider := model.Page{
				Kind:      model.PageSectionDivider,
				SessionID: session.ID,
				Title:     heading,
			}
			if session.Start != "" {
				divider.Subtitle = session.Start
				if session.End != "" {
					divider.Subtitle += " – " + session.End
				}
			}
			addPage(divider)
		}

		textBlocks := make([]model.TextBlock, 0, len(notes))
		for _, note := range notes {
			textBlocks = append(textBlocks, model.TextBlock{Text: note.Text})
		}

		if len(items) == 0 {
			addPage(model.Page{
				Kind:       model.PageContent,
				Layout:     model.LayoutTextOnly,
				SessionID:  session.ID,
				Title:      heading,
				TextBlocks: textBlocks,
			})
			continue
		}

		for start := 0; start < len(items); start += maxPhotos {
			end := start + maxPhotos
			if end > len(items) {
				end = len(items)
			}
			chunk := items[start:end]

			page := model.Page{
				Kind:      model.PageContent,
				SessionID: session.ID,
				Title:     heading,
				Layout:    model.LayoutOnePhoto,
			}
			if len(chunk) == 2 {
				page.Layout = model.LayoutTwoPhoto
			}
			for _, item := range chunk {
				page.Photos = append(page.Photos, s.photoSlot(item, results, enriched))
			}
			// Session notes render alongside the first photo page.
			if start == 0 {
				page.TextBlocks = textBlocks
			}
			addPage(page)
		}
	}

	addPage(model.Page{
		Kind:  model.PageClosing,
		Title: manifest.Meta.Title,
	})

	return pagePlan
}

func (s *LayoutStage) photoSlot(item model.ContentItem, results *model.PhotoResults, enriched *model.EnrichedPhotoSet) model.PhotoSlot {
	slot := model.PhotoSlot{
		PhotoID:     item.PhotoID,
		NeedsReview: item.NeedsReview,
	}
	if processed, ok := results.ByPhotoID(item.PhotoID); ok {
		slot.ImagePath = processed.ProcessedPath
	}
	if record, ok := enriched.ByPhotoID(item.PhotoID); ok {
		slot.Caption = record.Description
	}
	return slot
}

// languageTag parses the configured language, defaulting to German when the
// tag is missing or malformed.
func languageTag(value string) language.Tag {
	tag, err := language.Parse(value)
	if err != nil {
		return language.German
	}
	return tag
}
