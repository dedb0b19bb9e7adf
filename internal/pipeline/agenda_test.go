package pipeline

import (
	"strings"
	"testing"
)

func TestParseAgenda(t *testing.T) {
	content := `Titel: Strategie-Workshop
Datum: 14.03.2026
Ort: München
Teilnehmer: 8

09:00 Begrüßung und Zielbild
10:00 - 11:00 Roadmap Planung
11.15 Retrospektive
`
	meta, sessions, err := parseAgenda(content)
	if err != nil {
		t.Fatalf("parseAgenda: %v", err)
	}

	if meta.Title != "Strategie-Workshop" {
		t.Errorf("Title = %q", meta.Title)
	}
	if meta.Date != "2026-03-14" {
		t.Errorf("Date = %q, want 2026-03-14", meta.Date)
	}
	if meta.Location != "München" {
		t.Errorf("Location = %q", meta.Location)
	}
	if meta.Participants != 8 {
		t.Errorf("Participants = %d, want 8", meta.Participants)
	}

	if len(sessions) != 3 {
		t.Fatalf("got %d sessions, want 3", len(sessions))
	}
	if sessions[0].ID != "session_001" || sessions[0].Name != "Begrüßung und Zielbild" {
		t.Errorf("session 1 = %+v", sessions[0])
	}
	// First session has no explicit end: patched from the next start.
	if sessions[0].End != "10:00" {
		t.Errorf("session 1 end = %q, want 10:00", sessions[0].End)
	}
	if sessions[1].Start != "10:00" || sessions[1].End != "11:00" {
		t.Errorf("session 2 window = %q-%q", sessions[1].Start, sessions[1].End)
	}
	// Dotted time normalizes; the last session keeps an open end.
	if sessions[2].Start != "11:15" {
		t.Errorf("session 3 start = %q, want 11:15", sessions[2].Start)
	}
	if sessions[2].End != "" {
		t.Errorf("session 3 end = %q, want empty", sessions[2].End)
	}
}

func TestParseAgendaParticipantNames(t *testing.T) {
	content := `Teilnehmer: Anna Berger, Jonas Weber, Miriam Roth

09:00 Auftakt
`
	meta, _, err := parseAgenda(content)
	if err != nil {
		t.Fatalf("parseAgenda: %v", err)
	}
	if meta.Participants != 3 {
		t.Fatalf("Participants = %d, want 3", meta.Participants)
	}
}

func TestParseAgendaDateFormats(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "14.03.2026", want: "2026-03-14"},
		{input: "14.03.26", want: "2026-03-14"},
		{input: "2026-03-14", want: "2026-03-14"},
		{input: "Mitte März", want: "Mitte März"}, // passes through
	}
	for _, tc := range tests {
		if got := normalizeDate(tc.input); got != tc.want {
			t.Errorf("normalizeDate(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestParseAgendaWithoutSessions(t *testing.T) {
	_, _, err := parseAgenda("Titel: Nur Metadaten\n")
	if err == nil {
		t.Fatal("parseAgenda accepted agenda without sessions")
	}
	if !strings.Contains(err.Error(), "no session lines") {
		t.Fatalf("err = %v", err)
	}
}

func TestNormalizeClock(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "09:30", want: "09:30"},
		{input: "9:30", want: "09:30"},
		{input: "9.30", want: "09:30"},
		{input: "", want: ""},
	}
	for _, tc := range tests {
		if got := normalizeClock(tc.input); got != tc.want {
			t.Errorf("normalizeClock(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
