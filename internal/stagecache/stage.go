package stagecache

import "fmt"

// StageID identifies one pipeline stage. Stage identifiers are stable wire
// values: they appear in the manifest file, in log fields, and on the CLI.
type StageID string

const (
	StageIngest  StageID = "1"
	StageProcess StageID = "2"
	StageEnrich  StageID = "3a"
	StageMatch   StageID = "3b"
	StageLayout  StageID = "4"
	StageRender  StageID = "5"
)

// Order lists all stages in execution order.
var Order = []StageID{StageIngest, StageProcess, StageEnrich, StageMatch, StageLayout, StageRender}

var stageNames = map[StageID]string{
	StageIngest:  "ingest",
	StageProcess: "process",
	StageEnrich:  "enrich",
	StageMatch:   "match",
	StageLayout:  "layout",
	StageRender:  "render",
}

// ParseStageID validates a stage identifier from user input. It accepts both
// the short identifier ("3a") and the stage name ("enrich").
func ParseStageID(value string) (StageID, error) {
	id := StageID(value)
	if _, ok := stageNames[id]; ok {
		return id, nil
	}
	for stage, name := range stageNames {
		if name == value {
			return stage, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q (valid: 1, 2, 3a, 3b, 4, 5)", value)
}

// Name returns the human-readable stage name.
func (s StageID) Name() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return string(s)
}

// Index returns the stage's position in execution order, or -1 for an
// unknown stage.
func (s StageID) Index() int {
	for i, stage := range Order {
		if stage == s {
			return i
		}
	}
	return -1
}

// Before reports whether s runs earlier than other.
func (s StageID) Before(other StageID) bool {
	return s.Index() < other.Index()
}

// Downstream returns all stages that run after s, in order.
func (s StageID) Downstream() []StageID {
	idx := s.Index()
	if idx < 0 || idx+1 >= len(Order) {
		return nil
	}
	return Order[idx+1:]
}
