package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir     string `toml:"data_dir"`
	WorkDir     string `toml:"work_dir"`
	LogDir      string `toml:"log_dir"`
	FrontendDir string `toml:"frontend_dir"`
	APIBind     string `toml:"api_bind"`
	APIToken    string `toml:"api_token"`
}

// Audio contains settings for upload handling and ffmpeg conversion.
type Audio struct {
	FFmpegBinary       string  `toml:"ffmpeg_binary"`
	FFprobeBinary      string  `toml:"ffprobe_binary"`
	SampleRate         int     `toml:"sample_rate"`
	MaxUploadMB        int     `toml:"max_upload_mb"`
	ConversionTimeout  int     `toml:"conversion_timeout"`
	MinDurationSeconds float64 `toml:"min_duration_seconds"`
	DefaultExtension   string  `toml:"default_extension"`
}

// Embedding controls how speaker embeddings are produced.
type Embedding struct {
	// Backend is "builtin" (MFCC statistics computed in-process) or "command"
	// (an external embedding tool, resemblyzer via uvx by default).
	Backend      string  `toml:"backend"`
	Command      string  `toml:"command"`
	FrameMs      int     `toml:"frame_ms"`
	HopMs        int     `toml:"hop_ms"`
	MelBands     int     `toml:"mel_bands"`
	Coefficients int     `toml:"coefficients"`
	TrimSilence  bool    `toml:"trim_silence"`
	TargetDBFS   float64 `toml:"target_dbfs"`
}

// Matching contains the speaker decision settings.
type Matching struct {
	SameSpeakerThreshold float64 `toml:"same_speaker_threshold"`
	ScorePrecision       int     `toml:"score_precision"`
	MaxConcurrent        int     `toml:"max_concurrent"`
}

// History contains configuration for the comparison history database.
type History struct {
	Enabled       bool `toml:"enabled"`
	RetentionDays int  `toml:"retention_days"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for voicematch.
//
// Configuration sections by subsystem:
//   - Paths: directories, bind address, and API token
//   - Audio: upload limits and ffmpeg conversion
//   - Embedding: speaker embedding backend and feature extraction
//   - Matching: same-speaker threshold and score rounding
//   - History: comparison history persistence
//   - Logging: log format, level, and retention
type Config struct {
	Paths     Paths     `toml:"paths"`
	Audio     Audio     `toml:"audio"`
	Embedding Embedding `toml:"embedding"`
	Matching  Matching  `toml:"matching"`
	History   History   `toml:"history"`
	Logging   Logging   `toml:"logging"`

	bindFromFile bool
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/voicematch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		data, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
		var probe struct {
			Paths map[string]any `toml:"paths"`
		}
		if err := toml.Unmarshal(data, &probe); err == nil {
			_, cfg.bindFromFile = probe.Paths["api_bind"]
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
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
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

	projectPath, err := filepath.Abs("voicematch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for server operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.WorkDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryDBPath returns the location of the comparison history database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.DataDir, "history.db")
}

// LockPath returns the single-instance lock file used by the server.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "voicematch.lock")
}

// PIDPath returns the pid file written by a running server.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.DataDir, "voicematch.pid")
}

// MaxUploadBytes returns the per-file upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Audio.MaxUploadMB) << 20
}

// ConversionTimeout returns the ffmpeg conversion timeout.
func (c *Config) ConversionTimeout() time.Duration {
	return time.Duration(c.Audio.ConversionTimeout) * time.Second
}

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

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
