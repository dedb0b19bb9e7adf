package model

import (
	"strings"
	"testing"
	"time"
)

func TestSessionClockParsing(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int
		wantOK  bool
	}{
		{name: "morning", value: "09:05", want: 9*60 + 5, wantOK: true},
		{name: "midnight", value: "00:00", want: 0, wantOK: true},
		{name: "late", value: "23:59", want: 23*60 + 59, wantOK: true},
		{name: "empty", value: "", wantOK: false},
		{name: "no colon", value: "0930", wantOK: false},
		{name: "hour out of range", value: "24:00", wantOK: false},
		{name: "minute out of range", value: "12:60", wantOK: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Session{Start: tc.value}.StartMinutes()
			if ok != tc.wantOK {
				t.Fatalf("StartMinutes(%q) ok = %v, want %v", tc.value, ok, tc.wantOK)
			}
			if ok && got != tc.want {
				t.Fatalf("StartMinutes(%q) = %d, want %d", tc.value, got, tc.want)
			}
		})
	}
}

func TestFormatClockClamps(t *testing.T) {
	if got := FormatClock(10*60 + 30); got != "10:30" {
		t.Fatalf("FormatClock = %q, want 10:30", got)
	}
	if got := FormatClock(-15); got != "00:00" {
		t.Fatalf("FormatClock(-15) = %q, want 00:00", got)
	}
	if got := FormatClock(26 * 60); got != "23:59" {
		t.Fatalf("FormatClock(26h) = %q, want 23:59", got)
	}
}

func TestPhotoBestTimestamp(t *testing.T) {
	fileTime := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	exifTime := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

	p := Photo{TimestampFile: fileTime}
	if got := p.BestTimestamp(); !got.Equal(fileTime) {
		t.Fatalf("BestTimestamp without EXIF = %v, want %v", got, fileTime)
	}
	p.TimestampEXIF = &exifTime
	if got := p.BestTimestamp(); !got.Equal(exifTime) {
		t.Fatalf("BestTimestamp with EXIF = %v, want %v", got, exifTime)
	}
}

func TestProjectManifestValidate(t *testing.T) {
	valid := func() *ProjectManifest {
		return &ProjectManifest{
			Meta: WorkshopMeta{Title: "Strategie-Workshop"},
			Sessions: []Session{
				{ID: "session_001", Order: 1, Name: "Begrüßung", Start: "09:00", End: "09:30"},
				{ID: "session_002", Order: 2, Name: "Brainstorming", Start: "09:30"},
			},
			Photos: []Photo{
				{ID: "photo_001", Filename: "IMG_0001.jpg", Path: "fotos/IMG_0001.jpg", Width: 4032, Height: 3024, Orientation: OrientationLandscape},
			},
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("Validate() on valid manifest: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*ProjectManifest)
		wantErr string
	}{
		{
			name:    "empty title",
			mutate:  func(m *ProjectManifest) { m.Meta.Title = "  " },
			wantErr: "meta.title",
		},
		{
			name:    "duplicate session id",
			mutate:  func(m *ProjectManifest) { m.Sessions[1].ID = "session_001" },
			wantErr: "duplicate session id",
		},
		{
			name:    "malformed start time",
			mutate:  func(m *ProjectManifest) { m.Sessions[0].Start = "9am" },
			wantErr: "malformed start time",
		},
		{
			name:    "photo without path",
			mutate:  func(m *ProjectManifest) { m.Photos[0].Path = "" },
			wantErr: "missing id or path",
		},
		{
			name:    "photo with zero dimensions",
			mutate:  func(m *ProjectManifest) { m.Photos[0].Width = 0 },
			wantErr: "non-positive dimensions",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := valid()
			tc.mutate(m)
			err := m.Validate()
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Validate() = %q, want error containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestEnrichedPhotoSearchText(t *testing.T) {
	e := EnrichedPhoto{
		TopicKeywords: []string{"Roadmap", "Quartalsziele"},
		OCRText:       "Q3 Meilensteine",
		Description:   "Flipchart mit Zeitplan",
	}
	got := e.SearchText()
	for _, want := range []string{"Roadmap", "Quartalsziele", "Q3 Meilensteine", "Flipchart mit Zeitplan"} {
		if !strings.Contains(got, want) {
			t.Fatalf("SearchText() = %q, missing %q", got, want)
		}
	}
	if got := (EnrichedPhoto{}).SearchText(); got != "" {
		t.Fatalf("SearchText() on empty photo = %q, want empty", got)
	}
}

func TestEnrichedPhotoSetValidate(t *testing.T) {
	set := &EnrichedPhotoSet{EnrichedPhotos: []EnrichedPhoto{
		{PhotoID: "photo_001", SceneType: SceneFlipchart},
		{PhotoID: "photo_002", SceneType: "selfie"},
	}}
	err := set.Validate()
	if err == nil || !strings.Contains(err.Error(), "unknown scene type") {
		t.Fatalf("Validate() = %v, want unknown scene type error", err)
	}
	set.EnrichedPhotos[1].SceneType = SceneUnknown
	if err := set.Validate(); err != nil {
		t.Fatalf("Validate() after fix: %v", err)
	}
}

func TestContentPlanValidate(t *testing.T) {
	manifest := &ProjectManifest{
		Meta:     WorkshopMeta{Title: "Workshop"},
		Sessions: []Session{{ID: "session_001", Order: 1, Name: "Intro"}},
	}
	plan := &ContentPlan{Items: []ContentItem{
		{ItemID: "item_001", PhotoID: "photo_001", SessionID: "session_001", Confidence: 0.82},
		{ItemID: "item_002", PhotoID: "photo_001", SessionID: "session_001", Confidence: 0.5},
	}}
	err := plan.Validate(manifest)
	if err == nil || !strings.Contains(err.Error(), "assigned more than once") {
		t.Fatalf("Validate() = %v, want duplicate assignment error", err)
	}

	plan.Items[1].PhotoID = "photo_002"
	plan.Items[1].SessionID = "session_999"
	err = plan.Validate(manifest)
	if err == nil || !strings.Contains(err.Error(), "unknown session") {
		t.Fatalf("Validate() = %v, want unknown session error", err)
	}

	plan.Items[1].SessionID = "session_001"
	if err := plan.Validate(manifest); err != nil {
		t.Fatalf("Validate() after fix: %v", err)
	}
	if got := len(plan.ItemsForSession("session_001")); got != 2 {
		t.Fatalf("ItemsForSession = %d items, want 2", got)
	}
}

func TestPagePlanValidate(t *testing.T) {
	plan := &PagePlan{
		Title: "Workshop",
		Pages: []Page{
			{Number: 1, Kind: PageCover, Title: "Workshop"},
			{Number: 2, Kind: PageContent, Layout: LayoutTwoPhoto},
			{Number: 3, Kind: PageClosing},
		},
	}
	if err := plan.Validate(); err != nil {
		t.Fatalf("Validate() on valid plan: %v", err)
	}

	plan.Pages[1].Layout = "grid"
	err := plan.Validate()
	if err == nil || !strings.Contains(err.Error(), "unknown layout") {
		t.Fatalf("Validate() = %v, want unknown layout error", err)
	}

	plan.Pages[1].Layout = LayoutOnePhoto
	plan.Pages[2].Number = 7
	err = plan.Validate()
	if err == nil || !strings.Contains(err.Error(), "numbered") {
		t.Fatalf("Validate() = %v, want numbering error", err)
	}
}
