package preflight_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/sys/unix"

	"vidmill/internal/config"
	"vidmill/internal/preflight"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()

	result := preflight.CheckDirectoryAccess("Output directory", dir, unix.R_OK|unix.W_OK|unix.X_OK)
	if !result.Passed {
		t.Errorf("existing writable directory failed: %+v", result)
	}

	result = preflight.CheckDirectoryAccess("Input directory", filepath.Join(dir, "missing"), unix.R_OK|unix.X_OK)
	if result.Passed {
		t.Errorf("missing directory passed: %+v", result)
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Errorf("missing directory detail = %q", result.Detail)
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	result = preflight.CheckDirectoryAccess("Input directory", file, unix.R_OK)
	if result.Passed || !strings.Contains(result.Detail, "not a directory") {
		t.Errorf("regular file result = %+v, want not-a-directory failure", result)
	}
}

func TestCheckFreeSpace(t *testing.T) {
	result := preflight.CheckFreeSpace("Output free space", t.TempDir())
	if result.Detail == "" {
		t.Error("free space check returned empty detail")
	}

	result = preflight.CheckFreeSpace("Output free space", filepath.Join(t.TempDir(), "missing"))
	if result.Passed {
		t.Errorf("statfs on a missing path passed: %+v", result)
	}
}

func TestRunAllCoversDirectoriesSpaceAndBinaries(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.InputDir = filepath.Join(dir, "input")
	cfg.Paths.OutputDir = filepath.Join(dir, "output")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	for _, d := range []string{cfg.Paths.InputDir, cfg.Paths.OutputDir, cfg.Paths.LogDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	results := preflight.RunAll(context.Background(), &cfg)

	seen := map[string]bool{}
	for _, result := range results {
		seen[result.Name] = true
	}
	for _, want := range []string{
		"Input directory",
		"Output directory",
		"Log directory",
		"Output free space",
		"FFmpeg",
		"FFprobe",
	} {
		if !seen[want] {
			t.Errorf("RunAll missing check %q in %+v", want, results)
		}
	}
}

func TestAllPassed(t *testing.T) {
	passing := []preflight.Result{{Passed: true}, {Passed: true}}
	if !preflight.AllPassed(passing) {
		t.Error("AllPassed = false for passing results")
	}
	if preflight.AllPassed([]preflight.Result{{Passed: true}, {}}) {
		t.Error("AllPassed = true with a failing result")
	}
	if !preflight.AllPassed(nil) {
		t.Error("AllPassed(nil) = false, want vacuous true")
	}
}
