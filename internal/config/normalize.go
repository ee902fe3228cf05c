package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRender()
	c.normalizeDecoder()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.VoicesDir) == "" {
		c.Paths.VoicesDir = defaultVoicesDir
	}
	if c.Paths.VoicesDir, err = expandPath(c.Paths.VoicesDir); err != nil {
		return fmt.Errorf("paths.voices_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.FramesDir) == "" {
		c.Paths.FramesDir = defaultFramesDir
	}
	if c.Paths.FramesDir, err = expandPath(c.Paths.FramesDir); err != nil {
		return fmt.Errorf("paths.frames_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRender() {
	c.Render.FGColor = strings.TrimSpace(c.Render.FGColor)
	if c.Render.FGColor == "" {
		c.Render.FGColor = defaultFGColor
	}
	c.Render.FGColor2 = strings.TrimSpace(c.Render.FGColor2)
	if c.Render.FGColor2 == "" {
		c.Render.FGColor2 = defaultFGColor2
	}
	c.Render.BGColor = strings.TrimSpace(c.Render.BGColor)
	if c.Render.BGColor == "" {
		c.Render.BGColor = defaultBGColor
	}
	if c.Render.Workers <= 0 {
		c.Render.Workers = defaultWorkers
	}
}

func (c *Config) normalizeDecoder() {
	c.Decoder.Backend = strings.ToLower(strings.TrimSpace(c.Decoder.Backend))
	if c.Decoder.Backend == "" {
		c.Decoder.Backend = BackendFFmpeg
	}
	if value, ok := os.LookupEnv("WAVEBARS_FFMPEG"); ok && strings.TrimSpace(value) != "" {
		c.Decoder.FFmpegBinary = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("WAVEBARS_FFPROBE"); ok && strings.TrimSpace(value) != "" {
		c.Decoder.FFprobeBinary = strings.TrimSpace(value)
	}
	c.Decoder.FFmpegBinary = strings.TrimSpace(c.Decoder.FFmpegBinary)
	c.Decoder.FFprobeBinary = strings.TrimSpace(c.Decoder.FFprobeBinary)
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Paths.StateDir, defaultHistoryFile)
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
