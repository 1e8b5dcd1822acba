package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestConsoleLogger(buf *bytes.Buffer) *slog.Logger {
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelDebug)
	return slog.New(newConsoleHandler(buf, lvl))
}

func TestConsoleHandlerPrefixesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewComponentLogger(newTestConsoleLogger(&buf), "transcoder")

	logger.Info("conversion finished", String(FieldFile, "clip.avi"))

	line := buf.String()
	if !strings.Contains(line, " INFO transcoder: conversion finished") {
		t.Fatalf("unexpected console line: %q", line)
	}
	if !strings.Contains(line, "file=clip.avi") {
		t.Fatalf("missing file attribute: %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestConsoleLogger(&buf)

	logger.Warn("skip", String("reason", "stat failed: permission denied"))

	if !strings.Contains(buf.String(), `reason="stat failed: permission denied"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestWarnWithContextInjectsRequiredFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestConsoleLogger(&buf)

	WarnWithContext(logger, "status persist failed", "status_persist_failed")

	line := buf.String()
	for _, want := range []string{"event_type=status_persist_failed", "error_hint=", "impact="} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"unknown": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should not be enabled at any level")
	}
	logger.Error("ignored", Duration("elapsed", time.Second))
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
