package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProject(); err != nil {
		return err
	}
	if err := c.validateMatch(); err != nil {
		return err
	}
	if err := c.validateLayout(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateProject() error {
	if strings.TrimSpace(c.Project.Dir) == "" {
		return errors.New("project.dir must be set")
	}
	if _, err := language.Parse(c.Project.Language); err != nil {
		return fmt.Errorf("project.language: %q is not a valid language tag: %w", c.Project.Language, err)
	}
	return nil
}

func (c *Config) validateMatch() error {
	if c.Match.ConfidenceThreshold < 0 || c.Match.ConfidenceThreshold > 1 {
		return errors.New("match.confidence_threshold must be between 0 and 1")
	}
	if c.Match.MinNoteConfidence < 0 || c.Match.MinNoteConfidence > 1 {
		return errors.New("match.min_note_confidence must be between 0 and 1")
	}
	if c.Match.TemporalWeight < 0 || c.Match.SemanticWeight < 0 {
		return errors.New("match weights must not be negative")
	}
	if math.Abs(c.Match.TemporalWeight+c.Match.SemanticWeight-1.0) > 1e-9 {
		return fmt.Errorf("match.temporal_weight (%g) and match.semantic_weight (%g) must sum to 1",
			c.Match.TemporalWeight, c.Match.SemanticWeight)
	}
	if c.Match.MaxDecayMinutes <= 0 {
		return errors.New("match.max_decay_minutes must be positive")
	}
	return nil
}

func (c *Config) validateLayout() error {
	if c.Layout.MaxPhotosPerPage < 1 {
		return errors.New("layout.max_photos_per_page must be at least 1")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.Workers < 1 {
		return errors.New("pipeline.workers must be at least 1")
	}
	if c.Pipeline.RetryAttempts < 1 {
		return errors.New("pipeline.retry_attempts must be at least 1")
	}
	if c.Pipeline.RetryBaseDelayMS < 0 {
		return errors.New("pipeline.retry_base_delay_ms must not be negative")
	}
	return nil
}
