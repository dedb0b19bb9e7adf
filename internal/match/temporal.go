package match

import (
	"time"

	"fotoprotokoll/internal/model"
)

const (
	// neutralScore applies when a photo has no timestamp or no session in the
	// agenda carries times: time evidence neither helps nor hurts.
	neutralScore = 0.5

	// untimedPenalty applies to a session without times when other sessions
	// do have them: the photo probably belongs to one of the timed sessions.
	untimedPenalty = 0.1

	// defaultSessionMinutes bounds the window of the last session when the
	// agenda gives it no end time.
	defaultSessionMinutes = 90
)

// window is a session's effective time range in minutes since midnight.
type window struct {
	start int
	end   int
	timed bool
}

// sessionWindows derives effective time windows for all sessions. A session
// without an end time runs until the next session's start; the last session
// gets a default duration.
func sessionWindows(sessions []model.Session) map[string]window {
	windows := make(map[string]window, len(sessions))
	for i, s := range sessions {
		start, ok := s.StartMinutes()
		if !ok {
			windows[s.ID] = window{}
			continue
		}
		end, hasEnd := s.EndMinutes()
		if !hasEnd {
			end = start + defaultSessionMinutes
			for j := i + 1; j < len(sessions); j++ {
				if next, nextOK := sessions[j].StartMinutes(); nextOK {
					end = next
					break
				}
			}
		}
		if end < start {
			end = start
		}
		windows[s.ID] = window{start: start, end: end, timed: true}
	}
	return windows
}

func anyTimed(windows map[string]window) bool {
	for _, w := range windows {
		if w.timed {
			return true
		}
	}
	return false
}

// temporalScore rates how well a capture time fits a session window. Inside
// the window scores 1.0; outside, the score decays linearly to zero over
// decayMinutes.
func temporalScore(captured time.Time, hasTimestamp bool, w window, hasTimedSessions bool, decayMinutes int) float64 {
	if !hasTimestamp || !hasTimedSessions {
		return neutralScore
	}
	if !w.timed {
		return untimedPenalty
	}

	minute := captured.Hour()*60 + captured.Minute()
	if minute >= w.start && minute <= w.end {
		return 1.0
	}

	distance := w.start - minute
	if minute > w.end {
		distance = minute - w.end
	}
	if decayMinutes <= 0 || distance >= decayMinutes {
		return 0.0
	}
	return 1.0 - float64(distance)/float64(decayMinutes)
}
