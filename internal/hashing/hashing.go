package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// InputSet describes everything that feeds a stage: files on disk (relative
// to Root) and the configuration values the stage reads. Params must be
// JSON-serializable; map keys are sorted during encoding so the digest is
// stable across runs.
type InputSet struct {
	Root   string
	Files  []string
	Params map[string]any
}

// HashInputSet returns the hex-encoded SHA-256 digest of the input set.
// Files are hashed in sorted path order; a missing file contributes a fixed
// absent marker rather than failing, so deleting an input changes the digest
// instead of breaking it.
func HashInputSet(set InputSet) (string, error) {
	paths := make([]string, len(set.Files))
	copy(paths, set.Files)
	sort.Strings(paths)

	h := sha256.New()
	for _, rel := range paths {
		io.WriteString(h, filepath.ToSlash(rel))
		h.Write([]byte{0})
		digest, err := hashFile(filepath.Join(set.Root, rel))
		if err != nil {
			return "", fmt.Errorf("hash input %s: %w", rel, err)
		}
		io.WriteString(h, digest)
		h.Write([]byte{0})
	}

	params, err := canonicalParams(set.Params)
	if err != nil {
		return "", fmt.Errorf("hash params: %w", err)
	}
	h.Write(params)

	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashFile returns the hex-encoded SHA-256 digest of a single file's contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes returns the hex-encoded SHA-256 digest of raw bytes.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ListFiles walks dir and returns all regular files as paths relative to
// root, sorted. Hidden files and directories (dot-prefixed) are skipped so
// cache and editor droppings never feed a digest. A missing dir yields an
// empty list.
func ListFiles(root, dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == dir {
				return filepath.SkipAll
			}
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list files under %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

func hashFile(path string) (string, error) {
	digest, err := HashFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "absent", nil
		}
		return "", err
	}
	return digest, nil
}

func canonicalParams(params map[string]any) ([]byte, error) {
	if len(params) == 0 {
		return []byte("{}"), nil
	}
	// encoding/json sorts map keys, which is all the canonicalization the
	// flat parameter maps used here need.
	return json.Marshal(params)
}
