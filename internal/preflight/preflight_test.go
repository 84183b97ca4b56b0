package preflight

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"podjoin/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDiskSpace(t *testing.T) {
	orig := statfsFn
	t.Cleanup(func() { statfsFn = orig })

	statfsFn = func(string) (uint64, uint64, error) {
		return 100 << 30, 50 << 30, nil
	}
	if result := CheckDiskSpace("test", "/scratch", 1<<30); !result.Passed {
		t.Fatalf("expected pass with ample space, got: %s", result.Detail)
	}

	statfsFn = func(string) (uint64, uint64, error) {
		return 100 << 30, 1 << 20, nil
	}
	if result := CheckDiskSpace("test", "/scratch", 1<<30); result.Passed {
		t.Fatal("expected failure with low space")
	}

	statfsFn = func(string) (uint64, uint64, error) {
		return 0, 0, errors.New("boom")
	}
	if result := CheckDiskSpace("test", "/scratch", 1<<30); result.Passed {
		t.Fatal("expected failure on statfs error")
	}
}

func TestCheckEngineMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	cfg := config.Default()
	cfg.Engine.Binary = "definitely-not-here"
	result := CheckEngine(&cfg)
	if result.Passed {
		t.Fatal("expected failure for missing engine")
	}
}

func TestRunAllReportsFailures(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	cfg := config.Default()
	cfg.Engine.Binary = "definitely-not-here"
	cfg.Paths.ScratchDir = filepath.Join(t.TempDir(), "missing")
	cfg.Paths.OutputDir = ""

	results := RunAll(&cfg)
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if Passed(results) {
		t.Fatal("expected at least one failing check")
	}
}
