package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidmill/internal/catalog"
)

func TestVideosCommandEmpty(t *testing.T) {
	configPath, _ := writeTestConfig(t)

	out, err := runCommand(t, "videos", "--config", configPath)
	if err != nil {
		t.Fatalf("videos: %v", err)
	}
	if !strings.Contains(out, "No converted videos") {
		t.Errorf("output = %q, want empty-listing message", out)
	}
}

func TestVideosCommandJSON(t *testing.T) {
	configPath, outputDir := writeTestConfig(t)
	if err := os.WriteFile(filepath.Join(outputDir, "movie.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCommand(t, "videos", "--json", "--config", configPath)
	if err != nil {
		t.Fatalf("videos --json: %v", err)
	}

	var videos []catalog.Entry
	if err := json.Unmarshal([]byte(out), &videos); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(videos) != 1 || videos[0].Name != "movie.mp4" {
		t.Errorf("videos = %+v, want one movie.mp4 entry", videos)
	}
}

func TestVideosCommandTable(t *testing.T) {
	configPath, outputDir := writeTestConfig(t)
	if err := os.WriteFile(filepath.Join(outputDir, "movie.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCommand(t, "videos", "--config", configPath)
	if err != nil {
		t.Fatalf("videos: %v", err)
	}
	if !strings.Contains(out, "movie.mp4") || !strings.Contains(out, "NAME") {
		t.Errorf("table output = %q, want header and entry", out)
	}
}
