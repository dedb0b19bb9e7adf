package hashing

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestHashInputSetDeterministic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "fotos/a.jpg", "aaa")
	writeFile(t, root, "fotos/b.jpg", "bbb")

	set := InputSet{
		Root:   root,
		Files:  []string{"fotos/a.jpg", "fotos/b.jpg"},
		Params: map[string]any{"threshold": 0.65, "language": "de"},
	}
	first, err := HashInputSet(set)
	if err != nil {
		t.Fatalf("HashInputSet: %v", err)
	}
	if len(first) != 64 {
		t.Fatalf("digest length = %d, want 64", len(first))
	}

	// File order must not matter.
	set.Files = []string{"fotos/b.jpg", "fotos/a.jpg"}
	second, err := HashInputSet(set)
	if err != nil {
		t.Fatalf("HashInputSet reordered: %v", err)
	}
	if first != second {
		t.Fatalf("digest changed with file order: %s vs %s", first, second)
	}
}

func TestHashInputSetChangesWithContent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "agenda/agenda.txt", "09:00 Begrüßung")

	set := InputSet{Root: root, Files: []string{"agenda/agenda.txt"}}
	before, err := HashInputSet(set)
	if err != nil {
		t.Fatalf("HashInputSet: %v", err)
	}

	writeFile(t, root, "agenda/agenda.txt", "09:30 Begrüßung")
	after, err := HashInputSet(set)
	if err != nil {
		t.Fatalf("HashInputSet after edit: %v", err)
	}
	if before == after {
		t.Fatal("digest unchanged after content edit")
	}
}

func TestHashInputSetChangesWithParams(t *testing.T) {
	root := t.TempDir()
	set := InputSet{Root: root, Params: map[string]any{"temporal_weight": 0.6}}
	before, err := HashInputSet(set)
	if err != nil {
		t.Fatalf("HashInputSet: %v", err)
	}
	set.Params["temporal_weight"] = 0.7
	after, err := HashInputSet(set)
	if err != nil {
		t.Fatalf("HashInputSet after param change: %v", err)
	}
	if before == after {
		t.Fatal("digest unchanged after param change")
	}
}

func TestHashInputSetMissingFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "fotos/a.jpg", "aaa")

	present, err := HashInputSet(InputSet{Root: root, Files: []string{"fotos/a.jpg"}})
	if err != nil {
		t.Fatalf("HashInputSet: %v", err)
	}

	if err := os.Remove(filepath.Join(root, "fotos/a.jpg")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	absent, err := HashInputSet(InputSet{Root: root, Files: []string{"fotos/a.jpg"}})
	if err != nil {
		t.Fatalf("HashInputSet with missing file: %v", err)
	}
	if present == absent {
		t.Fatal("digest unchanged after file deletion")
	}
}

func TestListFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "fotos/b.jpg", "b")
	writeFile(t, root, "fotos/a.jpg", "a")
	writeFile(t, root, "fotos/.hidden.jpg", "x")
	writeFile(t, root, "fotos/.thumbs/c.jpg", "c")

	files, err := ListFiles(root, filepath.Join(root, "fotos"))
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	want := []string{"fotos/a.jpg", "fotos/b.jpg"}
	if len(files) != len(want) {
		t.Fatalf("ListFiles = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("ListFiles[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestListFilesMissingDir(t *testing.T) {
	root := t.TempDir()
	files, err := ListFiles(root, filepath.Join(root, "text"))
	if err != nil {
		t.Fatalf("ListFiles missing dir: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("ListFiles missing dir = %v, want empty", files)
	}
}

func TestHashBytesAndFileAgree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "note.txt", "workshop notes")

	fromFile, err := HashFile(filepath.Join(root, "note.txt"))
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if fromBytes := HashBytes([]byte("workshop notes")); fromBytes != fromFile {
		t.Fatalf("HashBytes = %s, HashFile = %s", fromBytes, fromFile)
	}
}
