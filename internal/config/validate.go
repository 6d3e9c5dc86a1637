package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateEmbedding(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAudio() error {
	if err := ensurePositiveMap(map[string]int{
		"audio.max_upload_mb":      c.Audio.MaxUploadMB,
		"audio.conversion_timeout": c.Audio.ConversionTimeout,
	}); err != nil {
		return err
	}
	if c.Audio.SampleRate < 8000 {
		return errors.New("audio.sample_rate must be at least 8000")
	}
	if c.Audio.MinDurationSeconds < 0 {
		return errors.New("audio.min_duration_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateEmbedding() error {
	switch c.Embedding.Backend {
	case BackendBuiltin, BackendCommand:
	default:
		return fmt.Errorf("embedding.backend must be %q or %q, got %q", BackendBuiltin, BackendCommand, c.Embedding.Backend)
	}
	if err := ensurePositiveMap(map[string]int{
		"embedding.frame_ms":     c.Embedding.FrameMs,
		"embedding.hop_ms":       c.Embedding.HopMs,
		"embedding.mel_bands":    c.Embedding.MelBands,
		"embedding.coefficients": c.Embedding.Coefficients,
	}); err != nil {
		return err
	}
	if c.Embedding.HopMs > c.Embedding.FrameMs {
		return errors.New("embedding.hop_ms must not exceed embedding.frame_ms")
	}
	if c.Embedding.Coefficients < 2 {
		return errors.New("embedding.coefficients must be at least 2")
	}
	if c.Embedding.MelBands < c.Embedding.Coefficients {
		return errors.New("embedding.mel_bands must be >= embedding.coefficients")
	}
	if c.Embedding.TargetDBFS > 0 {
		return errors.New("embedding.target_dbfs must be <= 0")
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.SameSpeakerThreshold < -1 || c.Matching.SameSpeakerThreshold > 1 {
		return errors.New("matching.same_speaker_threshold must be between -1 and 1")
	}
	if c.Matching.ScorePrecision < 0 || c.Matching.ScorePrecision > 10 {
		return errors.New("matching.score_precision must be between 0 and 10")
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.RetentionDays < 0 {
		return errors.New("history.retention_days must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
