package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRequiresBinary(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestRunCapturesStreams(t *testing.T) {
	script := filepath.Join(t.TempDir(), "engine")
	body := "#!/bin/sh\necho out\necho diag >&2\nexit 0\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	client, err := New(script)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := client.Run(context.Background(), "-version")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(result.Stdout) != "out" {
		t.Fatalf("unexpected stdout: %q", result.Stdout)
	}
	if strings.TrimSpace(result.Stderr) != "diag" {
		t.Fatalf("unexpected stderr: %q", result.Stderr)
	}
}

func TestRunNonZeroExitKeepsStderr(t *testing.T) {
	script := filepath.Join(t.TempDir(), "engine")
	body := "#!/bin/sh\necho broken input >&2\nexit 1\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	client, err := New(script)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := client.Run(context.Background())
	if err == nil {
		t.Fatal("expected non-zero exit error")
	}
	if !strings.Contains(result.Stderr, "broken input") {
		t.Fatalf("expected captured stderr, got %q", result.Stderr)
	}
}

func TestRunCancelledContext(t *testing.T) {
	script := filepath.Join(t.TempDir(), "engine")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nsleep 30\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	client, err := New(script)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestStderrExcerpt(t *testing.T) {
	result := Result{Stderr: "one\ntwo\nthree\nfour\n"}
	got := StderrExcerpt(result, 2)
	if got != "three\nfour" {
		t.Fatalf("unexpected excerpt: %q", got)
	}
	if full := StderrExcerpt(result, 0); full != "one\ntwo\nthree\nfour" {
		t.Fatalf("unexpected full excerpt: %q", full)
	}
}
