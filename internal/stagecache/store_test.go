package stagecache

import (
	"os"
	"path/filepath"
	"testing"

	"fotoprotokoll/internal/logging"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".cache", "manifest.json")
	return NewStore(path, logging.NewNop()), path
}

func TestParseStageID(t *testing.T) {
	tests := []struct {
		input   string
		want    StageID
		wantErr bool
	}{
		{input: "1", want: StageIngest},
		{input: "3a", want: StageEnrich},
		{input: "enrich", want: StageEnrich},
		{input: "render", want: StageRender},
		{input: "7", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseStageID(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseStageID(%q): expected error, got %q", tc.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseStageID(%q): %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseStageID(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestStageOrdering(t *testing.T) {
	if !StageEnrich.Before(StageMatch) {
		t.Error("enrich should run before match")
	}
	if StageMatch.Before(StageEnrich) {
		t.Error("match should not run before enrich")
	}
	down := StageMatch.Downstream()
	if len(down) != 2 || down[0] != StageLayout || down[1] != StageRender {
		t.Fatalf("StageMatch.Downstream() = %v, want [4 5]", down)
	}
	if got := StageRender.Downstream(); got != nil {
		t.Fatalf("StageRender.Downstream() = %v, want nil", got)
	}
}

func TestStorePutGet(t *testing.T) {
	store, path := newTestStore(t)

	if _, found := store.Get(StageIngest); found {
		t.Fatal("Get on empty store reported an entry")
	}

	entry := Entry{Stage: StageIngest, InputHash: "abc123", Artifact: ".cache/manifest.json"}
	if err := store.Put(entry); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, found := store.Get(StageIngest)
	if !found {
		t.Fatal("Get after Put reported no entry")
	}
	if got.InputHash != "abc123" {
		t.Fatalf("InputHash = %q, want abc123", got.InputHash)
	}
	if got.WrittenAt.IsZero() {
		t.Fatal("WrittenAt not defaulted")
	}

	// Entries survive a reload.
	reloaded := NewStore(path, logging.NewNop())
	if _, found := reloaded.Get(StageIngest); !found {
		t.Fatal("entry lost after reload")
	}
}

func TestStorePutRejectsBadEntries(t *testing.T) {
	store, _ := newTestStore(t)
	if err := store.Put(Entry{Stage: "9", InputHash: "x"}); err == nil {
		t.Error("Put accepted unknown stage")
	}
	if err := store.Put(Entry{Stage: StageIngest}); err == nil {
		t.Error("Put accepted empty input hash")
	}
}

func TestStoreInvalidateFrom(t *testing.T) {
	store, _ := newTestStore(t)
	for _, id := range Order {
		if err := store.Put(Entry{Stage: id, InputHash: "h-" + string(id)}); err != nil {
			t.Fatalf("Put %s: %v", id, err)
		}
	}

	if err := store.InvalidateFrom(StageEnrich); err != nil {
		t.Fatalf("InvalidateFrom: %v", err)
	}

	for _, id := range []StageID{StageIngest, StageProcess} {
		if _, found := store.Get(id); !found {
			t.Errorf("stage %s entry lost by invalidation", id)
		}
	}
	for _, id := range []StageID{StageEnrich, StageMatch, StageLayout, StageRender} {
		if _, found := store.Get(id); found {
			t.Errorf("stage %s entry survived invalidation", id)
		}
	}
}

func TestStoreInvalidateDownstream(t *testing.T) {
	store, _ := newTestStore(t)
	for _, id := range Order {
		if err := store.Put(Entry{Stage: id, InputHash: "h"}); err != nil {
			t.Fatalf("Put %s: %v", id, err)
		}
	}

	if err := store.InvalidateDownstream(StageProcess); err != nil {
		t.Fatalf("InvalidateDownstream: %v", err)
	}
	if _, found := store.Get(StageProcess); !found {
		t.Error("stage 2 entry removed by its own downstream invalidation")
	}
	if _, found := store.Get(StageEnrich); found {
		t.Error("stage 3a entry survived downstream invalidation")
	}
}

func TestStoreCorruptManifestStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt manifest: %v", err)
	}

	store := NewStore(path, logging.NewNop())
	if got := len(store.Entries()); got != 0 {
		t.Fatalf("corrupt manifest yielded %d entries, want 0", got)
	}

	// The store still works after the bad load.
	if err := store.Put(Entry{Stage: StageIngest, InputHash: "fresh"}); err != nil {
		t.Fatalf("Put after corrupt load: %v", err)
	}
}

func TestStoreClear(t *testing.T) {
	store, path := newTestStore(t)
	if err := store.Put(Entry{Stage: StageIngest, InputHash: "h"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got := len(store.Entries()); got != 0 {
		t.Fatalf("Entries after Clear = %d, want 0", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("manifest file still present after Clear")
	}
}

func TestStoreEntriesOrdered(t *testing.T) {
	store, _ := newTestStore(t)
	// Insert out of order; Entries must come back in stage order.
	for _, id := range []StageID{StageRender, StageIngest, StageMatch} {
		if err := store.Put(Entry{Stage: id, InputHash: "h"}); err != nil {
			t.Fatalf("Put %s: %v", id, err)
		}
	}
	entries := store.Entries()
	want := []StageID{StageIngest, StageMatch, StageRender}
	if len(entries) != len(want) {
		t.Fatalf("Entries = %d items, want %d", len(entries), len(want))
	}
	for i, id := range want {
		if entries[i].Stage != id {
			t.Fatalf("Entries[%d].Stage = %s, want %s", i, entries[i].Stage, id)
		}
	}
}
