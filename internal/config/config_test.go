package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Export.MP3Quality != 2 {
		t.Fatalf("expected default mp3 quality 2, got %d", cfg.Export.MP3Quality)
	}
	if cfg.Workflow.NormalizeJobs != 1 {
		t.Fatalf("expected sequential normalization by default, got %d", cfg.Workflow.NormalizeJobs)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.Engine.Binary != "ffmpeg" {
		t.Fatalf("expected default engine binary, got %q", cfg.Engine.Binary)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`scratch_dir = "` + filepath.Join(dir, "scratch") + `"`,
		"[export]",
		"mp3_quality = 4",
		"[workflow]",
		"normalize_jobs = 3",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if cfg.Export.MP3Quality != 4 {
		t.Fatalf("expected quality override 4, got %d", cfg.Export.MP3Quality)
	}
	if cfg.Workflow.NormalizeJobs != 3 {
		t.Fatalf("expected normalize_jobs 3, got %d", cfg.Workflow.NormalizeJobs)
	}
	if cfg.Loudness.SampleRate != 48000 {
		t.Fatalf("expected default sample rate to survive partial config, got %d", cfg.Loudness.SampleRate)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"quality", "[export]\nmp3_quality = 12\n"},
		{"jobs_low", "[workflow]\nnormalize_jobs = 0\n"},
		{"jobs_high", "[workflow]\nnormalize_jobs = 9\n"},
		{"channels", "[loudness]\nchannels = 6\n"},
		{"target", "[loudness]\nanalysis_target_i = 3.0\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, _, _, err := Load(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	expanded, err := ExpandPath("~/episodes")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if expanded != filepath.Join(home, "episodes") {
		t.Fatalf("unexpected expansion: %q", expanded)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := Load(path); err != nil || !exists {
		t.Fatalf("sample config should load cleanly: exists=%v err=%v", exists, err)
	}
}
