package deps

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"podjoin/internal/services"
)

func TestLocateEngineExplicitPath(t *testing.T) {
	tmp := t.TempDir()
	engine := filepath.Join(tmp, executableName("ffmpeg"))
	if err := os.WriteFile(engine, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write engine stub: %v", err)
	}

	path, err := LocateEngine("ffmpeg", engine)
	if err != nil {
		t.Fatalf("LocateEngine: %v", err)
	}
	if path != engine {
		t.Fatalf("expected explicit path %q, got %q", engine, path)
	}
}

func TestLocateEngineExplicitPathMissing(t *testing.T) {
	_, err := LocateEngine("ffmpeg", filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, services.ErrEngineNotFound) {
		t.Fatalf("expected ErrEngineNotFound, got %v", err)
	}
}

func TestLocateEnginePathFallback(t *testing.T) {
	tmp := t.TempDir()
	engine := filepath.Join(tmp, executableName("ffmpeg"))
	if err := os.WriteFile(engine, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write engine stub: %v", err)
	}
	t.Setenv("PATH", tmp)

	path, err := LocateEngine("ffmpeg", "")
	if err != nil {
		t.Fatalf("LocateEngine: %v", err)
	}
	if path != engine {
		t.Fatalf("expected PATH hit %q, got %q", engine, path)
	}
}

func TestLocateEngineNotFound(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	_, err := LocateEngine("definitely-no-such-engine", "")
	if !errors.Is(err, services.ErrEngineNotFound) {
		t.Fatalf("expected ErrEngineNotFound, got %v", err)
	}
}

func TestCheckEngineReportsUnavailable(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	status := CheckEngine("definitely-no-such-engine", "")
	if status.Available {
		t.Fatal("expected engine to be unavailable")
	}
	if status.Detail == "" {
		t.Fatal("expected detail message when engine is unavailable")
	}
}

func TestExecutableName(t *testing.T) {
	name := executableName("ffmpeg")
	if runtime.GOOS == "windows" {
		if name != "ffmpeg.exe" {
			t.Fatalf("unexpected name %q", name)
		}
	} else if name != "ffmpeg" {
		t.Fatalf("unexpected name %q", name)
	}
}
