package model

import (
	"fmt"
	"strings"
)

// ProcessedPhoto is the stage-2 output for a single photo. ProcessedPath is
// relative to the project directory and points at the normalized copy under
// .cache/processed/. ContentHash is the SHA-256 of the original photo bytes
// and is the memo key for the enrichment stage.
type ProcessedPhoto struct {
	PhotoID       string `json:"photo_id"`
	ProcessedPath string `json:"processed_path"`
	ContentHash   string `json:"content_hash"`
	Orientation   string `json:"orientation"`
}

// PhotoResults is the stage-2 artifact.
type PhotoResults struct {
	ProcessedPhotos []ProcessedPhoto `json:"processed_photos"`
}

// ByPhotoID returns the processed record for the given photo, if present.
func (r *PhotoResults) ByPhotoID(id string) (ProcessedPhoto, bool) {
	for _, p := range r.ProcessedPhotos {
		if p.PhotoID == id {
			return p, true
		}
	}
	return ProcessedPhoto{}, false
}

// Validate checks the stage-2 artifact contract.
func (r *PhotoResults) Validate() error {
	for _, p := range r.ProcessedPhotos {
		if p.PhotoID == "" {
			return fmt.Errorf("photo results: entry with empty photo_id")
		}
		if len(p.ContentHash) != 64 {
			return fmt.Errorf("photo results: %s has malformed content hash %q", p.PhotoID, p.ContentHash)
		}
		if p.ProcessedPath == "" {
			return fmt.Errorf("photo results: %s has no processed path", p.PhotoID)
		}
	}
	return nil
}

// Scene classifications returned by the vision service.
const (
	SceneFlipchart = "flipchart"
	SceneGroup     = "group"
	SceneActivity  = "activity"
	SceneResult    = "result"
	SceneUnknown   = "unknown"
)

// CropBox holds normalized crop coordinates (0.0–1.0) relative to image
// dimensions. Only present for document-style photos.
type CropBox struct {
	XMin float64 `json:"x_min"`
	YMin float64 `json:"y_min"`
	XMax float64 `json:"x_max"`
	YMax float64 `json:"y_max"`
}

// PhotoAnalysis is the structured result of one vision call.
type PhotoAnalysis struct {
	SceneType     string   `json:"scene_type"`
	Description   string   `json:"description"`
	OCRText       string   `json:"ocr_text,omitempty"`
	TopicKeywords []string `json:"topic_keywords,omitempty"`
	CropBox       *CropBox `json:"crop_box,omitempty"`
}

// EnrichedPhoto couples a vision analysis with pipeline metadata.
type EnrichedPhoto struct {
	PhotoID       string   `json:"photo_id"`
	SceneType     string   `json:"scene_type"`
	Description   string   `json:"description"`
	OCRText       string   `json:"ocr_text,omitempty"`
	TopicKeywords []string `json:"topic_keywords,omitempty"`
	CropBox       *CropBox `json:"crop_box,omitempty"`
	ProcessedPath string   `json:"processed_path,omitempty"`
	AnalysisModel string   `json:"analysis_model"`
}

// NewEnrichedPhoto builds an EnrichedPhoto from a raw analysis.
func NewEnrichedPhoto(photoID string, analysis PhotoAnalysis, modelName, processedPath string) EnrichedPhoto {
	return EnrichedPhoto{
		PhotoID:       photoID,
		SceneType:     analysis.SceneType,
		Description:   analysis.Description,
		OCRText:       analysis.OCRText,
		TopicKeywords: analysis.TopicKeywords,
		CropBox:       analysis.CropBox,
		ProcessedPath: processedPath,
		AnalysisModel: modelName,
	}
}

// SearchText concatenates the textual evidence the matcher scores against.
func (e EnrichedPhoto) SearchText() string {
	parts := make([]string, 0, 3)
	if len(e.TopicKeywords) > 0 {
		parts = append(parts, strings.Join(e.TopicKeywords, " "))
	}
	if e.OCRText != "" {
		parts = append(parts, e.OCRText)
	}
	if e.Description != "" {
		parts = append(parts, e.Description)
	}
	return strings.Join(parts, " ")
}

// EnrichedPhotoSet is the stage-3a artifact.
type EnrichedPhotoSet struct {
	EnrichedPhotos []EnrichedPhoto `json:"enriched_photos"`
}

// ByPhotoID returns the enriched record for the given photo, if present.
func (s *EnrichedPhotoSet) ByPhotoID(id string) (EnrichedPhoto, bool) {
	for _, e := range s.EnrichedPhotos {
		if e.PhotoID == id {
			return e, true
		}
	}
	return EnrichedPhoto{}, false
}

// Validate checks the stage-3a artifact contract.
func (s *EnrichedPhotoSet) Validate() error {
	for _, e := range s.EnrichedPhotos {
		if e.PhotoID == "" {
			return fmt.Errorf("enriched photos: entry with empty photo_id")
		}
		switch e.SceneType {
		case SceneFlipchart, SceneGroup, SceneActivity, SceneResult, SceneUnknown:
		default:
			return fmt.Errorf("enriched photos: %s has unknown scene type %q", e.PhotoID, e.SceneType)
		}
	}
	return nil
}
