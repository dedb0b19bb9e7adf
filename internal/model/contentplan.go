package model

import "fmt"

// MatchCandidate records how a photo scored against one session. Scores are
// rounded to four decimal places before serialization.
type MatchCandidate struct {
	PhotoID   string  `json:"photo_id"`
	SessionID string  `json:"session_id"`
	Temporal  float64 `json:"temporal_score"`
	Semantic  float64 `json:"semantic_score"`
	Combined  float64 `json:"combined_score"`
}

// ContentItem is one photo placed into a session, identified as item_NNN in
// plan order.
type ContentItem struct {
	ItemID      string  `json:"item_id"`
	PhotoID     string  `json:"photo_id"`
	SessionID   string  `json:"session_id"`
	Confidence  float64 `json:"confidence"`
	NeedsReview bool    `json:"needs_review"`
}

// AssignedNote is a text snippet attached to the session it most likely
// belongs to.
type AssignedNote struct {
	Source     string  `json:"source"`
	Text       string  `json:"text"`
	SessionID  string  `json:"session_id"`
	Confidence float64 `json:"confidence"`
}

// UnassignedNote is a text snippet whose best session score fell below the
// note confidence floor.
type UnassignedNote struct {
	Source         string  `json:"source"`
	Text           string  `json:"text"`
	BestSessionID  string  `json:"best_session_id,omitempty"`
	BestConfidence float64 `json:"best_confidence"`
}

// ContentPlan is the stage-3b artifact: the full photo-to-session assignment
// plus the audit trail of per-pair candidates.
type ContentPlan struct {
	Items           []ContentItem    `json:"items"`
	Notes           []AssignedNote   `json:"notes,omitempty"`
	Candidates      []MatchCandidate `json:"candidates,omitempty"`
	UnassignedNotes []UnassignedNote `json:"unassigned_notes,omitempty"`
}

// ItemsForSession returns the plan items assigned to a session, in plan order.
func (p *ContentPlan) ItemsForSession(sessionID string) []ContentItem {
	var items []ContentItem
	for _, it := range p.Items {
		if it.SessionID == sessionID {
			items = append(items, it)
		}
	}
	return items
}

// ReviewCount reports how many items landed below the confidence threshold.
func (p *ContentPlan) ReviewCount() int {
	n := 0
	for _, it := range p.Items {
		if it.NeedsReview {
			n++
		}
	}
	return n
}

// Validate checks the stage-3b artifact contract against the manifest.
func (p *ContentPlan) Validate(manifest *ProjectManifest) error {
	seen := make(map[string]bool, len(p.Items))
	for _, it := range p.Items {
		if it.ItemID == "" {
			return fmt.Errorf("content plan: item with empty item_id")
		}
		if seen[it.PhotoID] {
			return fmt.Errorf("content plan: photo %s assigned more than once", it.PhotoID)
		}
		seen[it.PhotoID] = true
		if manifest != nil {
			if _, ok := manifest.SessionByID(it.SessionID); !ok {
				return fmt.Errorf("content plan: item %s references unknown session %s", it.ItemID, it.SessionID)
			}
		}
		if it.Confidence < 0 || it.Confidence > 1 {
			return fmt.Errorf("content plan: item %s has confidence %v outside [0,1]", it.ItemID, it.Confidence)
		}
	}
	return nil
}
