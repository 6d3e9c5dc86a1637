package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizeAudio()
	c.normalizeEmbedding()
	c.normalizeMatching()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = filepath.Join(c.Paths.DataDir, "work")
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.FrontendDir) != "" {
		if c.Paths.FrontendDir, err = expandPath(c.Paths.FrontendDir); err != nil {
			return fmt.Errorf("paths.frontend_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeAPI() {
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("VOICEMATCH_API_TOKEN"); ok {
			c.Paths.APIToken = value
		}
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)

	if !c.bindFromFile {
		if value := strings.TrimSpace(os.Getenv("VOICEMATCH_BIND")); value != "" {
			c.Paths.APIBind = value
		} else if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
			c.Paths.APIBind = "0.0.0.0:" + port
		}
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
}

func (c *Config) normalizeAudio() {
	c.Audio.FFmpegBinary = strings.TrimSpace(c.Audio.FFmpegBinary)
	if c.Audio.FFmpegBinary == "" {
		c.Audio.FFmpegBinary = defaultFFmpegBinary
	}
	c.Audio.FFprobeBinary = strings.TrimSpace(c.Audio.FFprobeBinary)
	if c.Audio.FFprobeBinary == "" {
		c.Audio.FFprobeBinary = defaultFFprobeBinary
	}
	ext := strings.ToLower(strings.TrimSpace(c.Audio.DefaultExtension))
	if ext == "" {
		ext = defaultUploadExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	c.Audio.DefaultExtension = ext
}

func (c *Config) normalizeEmbedding() {
	c.Embedding.Backend = strings.ToLower(strings.TrimSpace(c.Embedding.Backend))
	if c.Embedding.Backend == "" {
		c.Embedding.Backend = defaultEmbeddingBackend
	}
	c.Embedding.Command = strings.TrimSpace(c.Embedding.Command)
	if c.Embedding.Command == "" {
		c.Embedding.Command = defaultEmbeddingCommand
	}
}

func (c *Config) normalizeMatching() {
	if c.Matching.MaxConcurrent <= 0 {
		c.Matching.MaxConcurrent = runtime.NumCPU()
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "text":
		c.Logging.Format = "console"
	case "json":
		c.Logging.Format = "json"
	default:
		c.Logging.Format = format
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
