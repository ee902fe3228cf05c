package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"wavebars/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_STATE_HOME", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "state", "wavebars")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.History.Path != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.History.Path)
	}
	if !filepath.IsAbs(cfg.Paths.VoicesDir) || !strings.HasSuffix(cfg.Paths.VoicesDir, filepath.Join("generated", "voices")) {
		t.Fatalf("unexpected voices dir: %q", cfg.Paths.VoicesDir)
	}
	if !filepath.IsAbs(cfg.Paths.FramesDir) || !strings.HasSuffix(cfg.Paths.FramesDir, filepath.Join("generated", "tmp")) {
		t.Fatalf("unexpected frames dir: %q", cfg.Paths.FramesDir)
	}
	if cfg.Render.Rate != 20 || cfg.Render.Bars != 50 || cfg.Render.Speed != 4 {
		t.Fatalf("unexpected render defaults: %+v", cfg.Render)
	}
	if cfg.Render.Time != 0.4 || cfg.Render.Oversample != 3 {
		t.Fatalf("unexpected window defaults: time=%v oversample=%d", cfg.Render.Time, cfg.Render.Oversample)
	}
	if cfg.Render.FGColor != "0.2,0.2,0.2" || cfg.Render.FGColor2 != "0.5,0.3,0.6" || cfg.Render.BGColor != "1,1,1" {
		t.Fatalf("unexpected color defaults: %+v", cfg.Render)
	}
	if cfg.Render.Width != 400 || cfg.Render.Height != 400 {
		t.Fatalf("unexpected size defaults: %dx%d", cfg.Render.Width, cfg.Render.Height)
	}
	if cfg.Render.Stereo {
		t.Fatal("expected mono by default")
	}
	if cfg.Render.ReleaseScale != 1.0 {
		t.Fatalf("expected release scale 1.0, got %v", cfg.Render.ReleaseScale)
	}
	if cfg.Decoder.Backend != config.BackendFFmpeg {
		t.Fatalf("expected ffmpeg backend, got %q", cfg.Decoder.Backend)
	}
	if cfg.FFmpegBinary() != "ffmpeg" || cfg.FFprobeBinary() != "ffprobe" {
		t.Fatalf("unexpected binaries: %q %q", cfg.FFmpegBinary(), cfg.FFprobeBinary())
	}
	if !cfg.History.Enabled {
		t.Fatal("expected history enabled by default")
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadCustomConfigOverridesDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_STATE_HOME", "")

	configPath := filepath.Join(tempHome, "config.toml")
	content := `
[paths]
voices_dir = "~/voices"
frames_dir = "~/frames"
state_dir = "~/state"

[render]
rate = 30
bars = 32
stereo = true
workers = 4
fg_color = " 1,0,0 "

[decoder]
backend = "NATIVE"

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Paths.VoicesDir != filepath.Join(tempHome, "voices") {
		t.Fatalf("unexpected voices dir: %q", cfg.Paths.VoicesDir)
	}
	if cfg.Paths.FramesDir != filepath.Join(tempHome, "frames") {
		t.Fatalf("unexpected frames dir: %q", cfg.Paths.FramesDir)
	}
	if cfg.History.Path != filepath.Join(tempHome, "state", "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.History.Path)
	}
	if cfg.Render.Rate != 30 || cfg.Render.Bars != 32 || !cfg.Render.Stereo || cfg.Render.Workers != 4 {
		t.Fatalf("render overrides not applied: %+v", cfg.Render)
	}
	if cfg.Render.Speed != 4 {
		t.Fatalf("expected untouched speed default, got %v", cfg.Render.Speed)
	}
	if cfg.Render.FGColor != "1,0,0" {
		t.Fatalf("expected trimmed fg color, got %q", cfg.Render.FGColor)
	}
	if cfg.Decoder.Backend != config.BackendNative {
		t.Fatalf("expected native backend, got %q", cfg.Decoder.Backend)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if got := cfg.ClipPath("42"); got != filepath.Join(tempHome, "voices", "42.mp3") {
		t.Fatalf("unexpected clip path: %q", got)
	}
}

func TestLoadBinaryOverridesFromEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("WAVEBARS_FFMPEG", "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv("WAVEBARS_FFPROBE", "/opt/ffmpeg/bin/ffprobe")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.FFmpegBinary() != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("unexpected ffmpeg binary: %q", cfg.FFmpegBinary())
	}
	if cfg.FFprobeBinary() != "/opt/ffmpeg/bin/ffprobe" {
		t.Fatalf("unexpected ffprobe binary: %q", cfg.FFprobeBinary())
	}
}

func TestValidateRejectsInvalidRender(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"zero bars", func(c *config.Config) { c.Render.Bars = 0 }, "render.bars"},
		{"negative rate", func(c *config.Config) { c.Render.Rate = -1 }, "render.rate"},
		{"zero time", func(c *config.Config) { c.Render.Time = 0 }, "render.time"},
		{"zero oversample", func(c *config.Config) { c.Render.Oversample = 0 }, "render.oversample"},
		{"zero width", func(c *config.Config) { c.Render.Width = 0 }, "render.width"},
		{"negative pad", func(c *config.Config) { c.Render.PadRatio = -0.1 }, "render.pad_ratio"},
		{"alpha above one", func(c *config.Config) { c.Render.ReleaseAlpha = 1.5 }, "render.release_alpha"},
		{"unknown backend", func(c *config.Config) { c.Decoder.Backend = "gstreamer" }, "decoder.backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "config.toml")
	if err := os.WriteFile(configPath, []byte("[render]\nbars = -3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for negative bars")
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	target := filepath.Join(tempHome, "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var parsed map[string]any
	if err := toml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}

	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Render.Bars != 50 {
		t.Fatalf("unexpected bars from sample: %d", cfg.Render.Bars)
	}
}

func TestEnsureDirectoriesCreatesPaths(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.FramesDir = filepath.Join(base, "frames")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.History.Path = filepath.Join(base, "ledger", "history.db")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.FramesDir, cfg.Paths.StateDir, filepath.Dir(cfg.History.Path)} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}

func TestEncodeRoundTripsThroughLoad(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg := config.Default()
	cfg.Render.Bars = 12
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	path := filepath.Join(tempHome, "encoded.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	loaded, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Render.Bars != 12 {
		t.Fatalf("expected bars 12, got %d", loaded.Render.Bars)
	}
}
