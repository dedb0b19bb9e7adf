package stagecache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"fotoprotokoll/internal/fileutil"
	"fotoprotokoll/internal/logging"
)

// Entry records one completed stage run.
type Entry struct {
	Stage     StageID   `json:"stage"`
	InputHash string    `json:"input_hash"`
	Artifact  string    `json:"artifact"` // path relative to the project directory
	WrittenAt time.Time `json:"written_at"`
}

// Store provides thread-safe access to the manifest file. The manifest is
// human-readable JSON so a stuck cache can be inspected and hand-edited; a
// corrupt or unreadable file degrades to an empty manifest rather than
// failing the run.
type Store struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[StageID]Entry
}

// NewStore opens the manifest at path, loading any existing entries.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "stagecache")

	s := &Store{
		path:    path,
		logger:  logger,
		entries: make(map[StageID]Entry),
	}

	if err := s.load(); err != nil {
		logger.Warn("failed to load stage manifest",
			logging.String(logging.FieldEventType, "stage_manifest_load_failed"),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "all stages will run from scratch"))
	}

	return s
}

// Get returns the recorded entry for a stage.
func (s *Store) Get(stage StageID) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, found := s.entries[stage]
	return entry, found
}

// Put records a completed stage run and persists the manifest.
func (s *Store) Put(entry Entry) error {
	if entry.Stage.Index() < 0 {
		return fmt.Errorf("unknown stage %q", entry.Stage)
	}
	if entry.InputHash == "" {
		return errors.New("input hash cannot be empty")
	}
	if entry.WrittenAt.IsZero() {
		entry.WrittenAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.Stage] = entry

	if err := s.save(); err != nil {
		return fmt.Errorf("persist stage manifest: %w", err)
	}

	s.logger.Debug("recorded stage completion",
		logging.String(logging.FieldStage, entry.Stage.Name()),
		logging.String(logging.FieldInputHash, entry.InputHash),
		logging.String("artifact", entry.Artifact))

	return nil
}

// InvalidateFrom removes the entry for stage and every stage after it.
// Invalidating a stage that has no entry still clears its downstream.
func (s *Store) InvalidateFrom(stage StageID) error {
	if stage.Index() < 0 {
		return fmt.Errorf("unknown stage %q", stage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, id := range Order[stage.Index():] {
		if _, found := s.entries[id]; found {
			delete(s.entries, id)
			removed++
		}
	}
	if removed == 0 {
		return nil
	}

	if err := s.save(); err != nil {
		return fmt.Errorf("persist stage manifest: %w", err)
	}

	s.logger.Debug("invalidated stages",
		logging.String(logging.FieldStage, stage.Name()),
		logging.Int("removed", removed))

	return nil
}

// InvalidateDownstream removes the entries for all stages after stage,
// leaving stage's own entry intact.
func (s *Store) InvalidateDownstream(stage StageID) error {
	downstream := stage.Downstream()
	if len(downstream) == 0 {
		if stage.Index() < 0 {
			return fmt.Errorf("unknown stage %q", stage)
		}
		return nil
	}
	return s.InvalidateFrom(downstream[0])
}

// Entries returns all recorded entries in stage order.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.entries))
	for _, id := range Order {
		if entry, found := s.entries[id]; found {
			entries = append(entries, entry)
		}
	}
	return entries
}

// Clear removes all entries and deletes the manifest file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[StageID]Entry)

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove stage manifest: %w", err)
	}

	s.logger.Debug("cleared stage manifest")
	return nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // fresh project
		}
		return fmt.Errorf("read stage manifest: %w", err)
	}

	if len(data) == 0 {
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse stage manifest: %w", err)
	}

	s.entries = make(map[StageID]Entry, len(entries))
	for _, entry := range entries {
		if entry.Stage.Index() >= 0 && entry.InputHash != "" {
			s.entries[entry.Stage] = entry
		}
	}

	s.logger.Debug("loaded stage manifest",
		logging.Int("entry_count", len(s.entries)),
		logging.String("path", s.path))

	return nil
}

func (s *Store) save() error {
	entries := make([]Entry, 0, len(s.entries))
	for _, id := range Order {
		if entry, found := s.entries[id]; found {
			entries = append(entries, entry)
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal stage manifest: %w", err)
	}

	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write stage manifest: %w", err)
	}

	return nil
}
