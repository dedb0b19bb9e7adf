package testsupport

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fotoprotokoll/internal/config"
)

// DefaultAgenda is a small parseable agenda used by most pipeline tests.
const DefaultAgenda = `Titel: Strategie-Workshop
Datum: 14.03.2026
Ort: München
Teilnehmer: 8

09:00 Begrüßung und Zielbild
10:00 Roadmap Planung
11:00 Retrospektive
`

// WriteAgenda places an agenda file in the project's agenda directory.
func WriteAgenda(t testing.TB, cfg *config.Config, content string) {
	t.Helper()
	writeFile(t, filepath.Join(cfg.AgendaDir(), "agenda.txt"), []byte(content))
}

// WritePhoto creates a decodable PNG of the given dimensions in the
// project's photo directory and sets its modification time, which stands in
// for the capture time.
func WritePhoto(t testing.TB, cfg *config.Config, name string, width, height int, taken time.Time) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	path := filepath.Join(cfg.FotosDir(), name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create photo directory: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create photo %s: %v", name, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		t.Fatalf("encode photo %s: %v", name, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close photo %s: %v", name, err)
	}
	if !taken.IsZero() {
		if err := os.Chtimes(path, taken, taken); err != nil {
			t.Fatalf("set photo mtime %s: %v", name, err)
		}
	}
}

// WriteNote places a text snippet in the project's text directory.
func WriteNote(t testing.TB, cfg *config.Config, name, content string) {
	t.Helper()
	writeFile(t, filepath.Join(cfg.TextDir(), name), []byte(content))
}

// SeedProject builds a complete minimal project: the default agenda, one
// photo per session, and one note.
func SeedProject(t testing.TB, cfg *config.Config) {
	t.Helper()
	WriteAgenda(t, cfg, DefaultAgenda)
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.Local)
	for i, hour := range []int{9, 10, 11} {
		// Distinct dimensions give each photo distinct bytes and digests.
		WritePhoto(t, cfg, fmt.Sprintf("IMG_%04d.png", i+1), 120+4*i, 80, day.Add(time.Duration(hour)*time.Hour+30*time.Minute))
	}
	WriteNote(t, cfg, "notizen.txt", "Roadmap Planung für das nächste Quartal besprochen.")
}

func writeFile(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
