package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WorkshopMeta describes the workshop the project documents.
type WorkshopMeta struct {
	Title        string `json:"title"`
	Date         string `json:"date,omitempty"` // ISO date (YYYY-MM-DD) when known
	Location     string `json:"location,omitempty"`
	Participants int    `json:"participants,omitempty"`
}

// Session is one agenda item with an optional time window.
// Times are wall-clock "HH:MM" strings; an empty string means unknown.
type Session struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
	Name  string `json:"name"`
	Start string `json:"start_time,omitempty"`
	End   string `json:"end_time,omitempty"`
}

// StartMinutes returns the session start as minutes since midnight.
func (s Session) StartMinutes() (int, bool) { return parseClock(s.Start) }

// EndMinutes returns the session end as minutes since midnight.
func (s Session) EndMinutes() (int, bool) { return parseClock(s.End) }

func parseClock(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}

// FormatClock renders minutes since midnight as "HH:MM", clamped to the day.
func FormatClock(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	if minutes > 23*60+59 {
		minutes = 23*60 + 59
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Photo is one inventoried photo file.
type Photo struct {
	ID            string     `json:"id"`
	Filename      string     `json:"filename"`
	Path          string     `json:"path"` // relative to the project directory
	TimestampEXIF *time.Time `json:"timestamp_exif,omitempty"`
	TimestampFile time.Time  `json:"timestamp_file"`
	Width         int        `json:"width"`
	Height        int        `json:"height"`
	Orientation   string     `json:"orientation"`
}

// Photo orientations.
const (
	OrientationLandscape = "landscape"
	OrientationPortrait  = "portrait"
	OrientationSquare    = "square"
)

// BestTimestamp prefers the capture timestamp, falling back to file mtime.
func (p Photo) BestTimestamp() time.Time {
	if p.TimestampEXIF != nil {
		return *p.TimestampEXIF
	}
	return p.TimestampFile
}

// TextSnippet is one free-form note file from the project's text directory.
type TextSnippet struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Content   string `json:"content"`
	WordCount int    `json:"word_count"`
}

// ProjectManifest is the stage-1 artifact: everything later stages know about
// the project's inputs.
type ProjectManifest struct {
	Meta         WorkshopMeta  `json:"meta"`
	Sessions     []Session     `json:"sessions"`
	Photos       []Photo       `json:"photos"`
	TextSnippets []TextSnippet `json:"text_snippets"`
}

// SessionByID returns the session with the given ID, if present.
func (m *ProjectManifest) SessionByID(id string) (Session, bool) {
	for _, s := range m.Sessions {
		if s.ID == id {
			return s, true
		}
	}
	return Session{}, false
}

// Validate checks the manifest contract before downstream stages consume it.
func (m *ProjectManifest) Validate() error {
	if strings.TrimSpace(m.Meta.Title) == "" {
		return fmt.Errorf("manifest: meta.title is empty")
	}
	seen := make(map[string]struct{}, len(m.Sessions))
	for _, s := range m.Sessions {
		if s.ID == "" {
			return fmt.Errorf("manifest: session %q has no id", s.Name)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("manifest: duplicate session id %q", s.ID)
		}
		seen[s.ID] = struct{}{}
		if s.Start != "" {
			if _, ok := s.StartMinutes(); !ok {
				return fmt.Errorf("manifest: session %q has malformed start time %q", s.ID, s.Start)
			}
		}
		if s.End != "" {
			if _, ok := s.EndMinutes(); !ok {
				return fmt.Errorf("manifest: session %q has malformed end time %q", s.ID, s.End)
			}
		}
	}
	for _, p := range m.Photos {
		if p.ID == "" || p.Path == "" {
			return fmt.Errorf("manifest: photo %q missing id or path", p.Filename)
		}
		if p.Width <= 0 || p.Height <= 0 {
			return fmt.Errorf("manifest: photo %s has non-positive dimensions", p.ID)
		}
	}
	for _, t := range m.TextSnippets {
		if t.ID == "" {
			return fmt.Errorf("manifest: text snippet %q has no id", t.Filename)
		}
	}
	return nil
}
