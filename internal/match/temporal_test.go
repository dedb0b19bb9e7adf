package match

import (
	"testing"
	"time"

	"fotoprotokoll/internal/model"
)

func clock(hour, minute int) time.Time {
	return time.Date(2026, 3, 14, hour, minute, 0, 0, time.Local)
}

func TestSessionWindows(t *testing.T) {
	sessions := []model.Session{
		{ID: "session_001", Order: 1, Name: "Intro", Start: "09:00", End: "09:30"},
		{ID: "session_002", Order: 2, Name: "Arbeit", Start: "09:30"},
		{ID: "session_003", Order: 3, Name: "Abschluss", Start: "11:00"},
	}
	windows := sessionWindows(sessions)

	if w := windows["session_001"]; !w.timed || w.start != 540 || w.end != 570 {
		t.Fatalf("session_001 window = %+v", w)
	}
	// Open-ended session runs until the next session starts.
	if w := windows["session_002"]; w.end != 660 {
		t.Fatalf("session_002 end = %d, want 660", w.end)
	}
	// Last session without an end gets the default duration.
	if w := windows["session_003"]; w.end != 660+defaultSessionMinutes {
		t.Fatalf("session_003 end = %d, want %d", w.end, 660+defaultSessionMinutes)
	}
}

func TestTemporalScore(t *testing.T) {
	w := window{start: 10 * 60, end: 11 * 60, timed: true}

	tests := []struct {
		name         string
		captured     time.Time
		hasTimestamp bool
		window       window
		hasTimed     bool
		decay        int
		want         float64
	}{
		{name: "inside window", captured: clock(10, 30), hasTimestamp: true, window: w, hasTimed: true, decay: 60, want: 1.0},
		{name: "at window edge", captured: clock(11, 0), hasTimestamp: true, window: w, hasTimed: true, decay: 60, want: 1.0},
		{name: "halfway through decay", captured: clock(11, 30), hasTimestamp: true, window: w, hasTimed: true, decay: 60, want: 0.5},
		{name: "past decay", captured: clock(12, 30), hasTimestamp: true, window: w, hasTimed: true, decay: 60, want: 0.0},
		{name: "before window decays too", captured: clock(9, 45), hasTimestamp: true, window: w, hasTimed: true, decay: 30, want: 0.5},
		{name: "no timestamp", hasTimestamp: false, window: w, hasTimed: true, decay: 60, want: neutralScore},
		{name: "no timed sessions", captured: clock(10, 30), hasTimestamp: true, window: window{}, hasTimed: false, decay: 60, want: neutralScore},
		{name: "untimed session among timed", captured: clock(10, 30), hasTimestamp: true, window: window{}, hasTimed: true, decay: 60, want: untimedPenalty},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := temporalScore(tc.captured, tc.hasTimestamp, tc.window, tc.hasTimed, tc.decay)
			if got != tc.want {
				t.Fatalf("temporalScore = %v, want %v", got, tc.want)
			}
		})
	}
}
