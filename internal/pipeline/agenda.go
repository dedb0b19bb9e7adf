package pipeline

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"fotoprotokoll/internal/model"
	"fotoprotokoll/internal/services"
)

var (
	labelPattern   = regexp.MustCompile(`(?i)^\s*(titel|datum|ort|teilnehmer)\s*:\s*(.+?)\s*$`)
	sessionPattern = regexp.MustCompile(`^\s*(\d{1,2}[:.]\d{2})(?:\s*[-–]\s*(\d{1,2}[:.]\d{2}))?\s+(.+?)\s*$`)
)

// parseAgenda extracts workshop metadata and the session list from a plain
// text agenda. Recognized header labels are Titel, Datum, Ort and
// Teilnehmer; session lines start with a clock time, optionally followed by
// an end time. A session without an explicit end runs until the next one
// begins.
func parseAgenda(content string) (model.WorkshopMeta, []model.Session, error) {
	var meta model.WorkshopMeta
	var sessions []model.Session

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if m := labelPattern.FindStringSubmatch(line); m != nil {
			value := strings.TrimSpace(m[2])
			switch strings.ToLower(m[1]) {
			case "titel":
				meta.Title = value
			case "datum":
				meta.Date = normalizeDate(value)
			case "ort":
				meta.Location = value
			case "teilnehmer":
				meta.Participants = parseParticipants(value)
			}
			continue
		}

		if m := sessionPattern.FindStringSubmatch(line); m != nil {
			sessions = append(sessions, model.Session{
				ID:    fmt.Sprintf("session_%03d", len(sessions)+1),
				Order: len(sessions) + 1,
				Name:  strings.TrimSpace(m[3]),
				Start: normalizeClock(m[1]),
				End:   normalizeClock(m[2]),
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return meta, nil, fmt.Errorf("scan agenda: %w", err)
	}

	if len(sessions) == 0 {
		return meta, nil, services.Wrap(services.ErrValidation, "1", "parse agenda",
			"no session lines found; expected lines like \"09:00 Begrüßung\"", nil)
	}

	// Patch missing end times from the following session's start.
	for i := range sessions {
		if sessions[i].End != "" {
			continue
		}
		if i+1 < len(sessions) {
			sessions[i].End = sessions[i+1].Start
		}
	}

	return meta, sessions, nil
}

// normalizeClock turns "9.30" or "09:30" into "09:30"; empty input stays
// empty.
func normalizeClock(value string) string {
	value = strings.TrimSpace(strings.ReplaceAll(value, ".", ":"))
	if value == "" {
		return ""
	}
	parts := strings.SplitN(value, ":", 2)
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%02d:%s", hour, parts[1])
}

var dateLayouts = []string{"02.01.2006", "02.01.06", "2006-01-02"}

// normalizeDate parses German and ISO date forms into ISO. Unparseable
// values pass through untouched so the cover page still shows something.
func normalizeDate(value string) string {
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.Format("2006-01-02")
		}
	}
	return value
}

// parseParticipants accepts either a count ("12") or a comma-separated name
// list, in which case the names are counted.
func parseParticipants(value string) int {
	if count, err := strconv.Atoi(value); err == nil {
		return count
	}
	count := 0
	for _, name := range strings.Split(value, ",") {
		if strings.TrimSpace(name) != "" {
			count++
		}
	}
	return count
}
