package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Project contains the project directory and document-level settings.
type Project struct {
	Dir      string `toml:"dir"`
	Language string `toml:"language"`
	Title    string `toml:"title"`
}

// Vision contains connection settings for the photo analysis service.
type Vision struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Detail         string `toml:"detail"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Embedding contains connection settings for the text embedding service.
// When APIKey is empty the matcher falls back to offline keyword scoring.
type Embedding struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	BatchSize      int    `toml:"batch_size"`
}

// Match contains the confidence model for photo/note-to-session assignment.
type Match struct {
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	TemporalWeight      float64 `toml:"temporal_weight"`
	SemanticWeight      float64 `toml:"semantic_weight"`
	MaxDecayMinutes     int     `toml:"max_decay_minutes"`
	MinNoteConfidence   float64 `toml:"min_note_confidence"`
}

// Layout contains page composition settings.
type Layout struct {
	MaxPhotosPerPage int  `toml:"max_photos_per_page"`
	SectionDividers  bool `toml:"section_dividers"`
}

// Pipeline contains execution settings for the stage runner.
type Pipeline struct {
	Workers          int `toml:"workers"`
	RetryAttempts    int `toml:"retry_attempts"`
	RetryBaseDelayMS int `toml:"retry_base_delay_ms"`
	RetryMaxDelayMS  int `toml:"retry_max_delay_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for fotoprotokoll.
//
// Sections by subsystem:
//   - Project: project directory, language tag, document title override
//   - Vision: photo analysis service connection
//   - Embedding: text embedding service connection
//   - Match: confidence weights, threshold, temporal decay
//   - Layout: page composition
//   - Pipeline: worker pool size and retry budget
//   - Logging: log format and level
type Config struct {
	Project   Project   `toml:"project"`
	Vision    Vision    `toml:"vision"`
	Embedding Embedding `toml:"embedding"`
	Match     Match     `toml:"match"`
	Layout    Layout    `toml:"layout"`
	Pipeline  Pipeline  `toml:"pipeline"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/fotoprotokoll/config.toml")
}

// Load locates, parses, and validates a configuration file. An empty path
// falls back to $FOTOPROTOKOLL_CONFIG, then fotoprotokoll.toml in the
// working directory, then the default config path. The returned config has
// all path fields expanded and normalized. The second return is the
// resolved config path, the third reports whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv("FOTOPROTOKOLL_CONFIG"))
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("fotoprotokoll.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if strings.TrimSpace(c.Project.Dir) == "" {
		c.Project.Dir = defaultProjectDir
	}
	if c.Project.Dir, err = expandPath(c.Project.Dir); err != nil {
		return fmt.Errorf("project.dir: %w", err)
	}
	if strings.TrimSpace(c.Project.Language) == "" {
		c.Project.Language = defaultLanguage
	}

	if c.Vision.APIKey == "" {
		c.Vision.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = c.Vision.APIKey
	}
	if c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = defaultEmbeddingBaseURL
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}

// EnsureDirectories creates the directories a run needs.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.CacheDir(), c.ProcessedDir(), c.LogDir(), c.OutputDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// AgendaDir is where agenda documents live.
func (c *Config) AgendaDir() string { return filepath.Join(c.Project.Dir, "agenda") }

// FotosDir is where workshop photos live.
func (c *Config) FotosDir() string { return filepath.Join(c.Project.Dir, "fotos") }

// TextDir is where free-form text notes live.
func (c *Config) TextDir() string { return filepath.Join(c.Project.Dir, "text") }

// CacheDir holds all stage artifacts and caches for the project.
func (c *Config) CacheDir() string { return filepath.Join(c.Project.Dir, ".cache") }

// ProcessedDir holds orientation-classified photo copies keyed by content hash.
func (c *Config) ProcessedDir() string { return filepath.Join(c.CacheDir(), "processed") }

// LogDir holds the run log files.
func (c *Config) LogDir() string { return filepath.Join(c.CacheDir(), "logs") }

// OutputDir holds the rendered document.
func (c *Config) OutputDir() string { return filepath.Join(c.Project.Dir, "output") }

// StageManifestPath is the durable stage cache manifest.
func (c *Config) StageManifestPath() string {
	return filepath.Join(c.CacheDir(), "stage_manifest.json")
}

// MemoDBPath is the content-addressed memo store for external call results.
func (c *Config) MemoDBPath() string { return filepath.Join(c.CacheDir(), "analyses.db") }

// LockPath is the single-writer project lock.
func (c *Config) LockPath() string { return filepath.Join(c.CacheDir(), "run.lock") }

// SampleConfig returns the embedded sample configuration file contents.
func SampleConfig() string { return sampleConfig }

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
