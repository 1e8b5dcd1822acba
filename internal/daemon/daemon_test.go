package daemon_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vidmill/internal/catalog"
	"vidmill/internal/config"
	"vidmill/internal/daemon"
	"vidmill/internal/history"
	"vidmill/internal/logging"
	"vidmill/internal/status"
	"vidmill/internal/transcode"
	"vidmill/internal/workflow"
)

type noopConverter struct{}

func (noopConverter) Convert(_ context.Context, cand catalog.Candidate) (transcode.Report, error) {
	return transcode.Report{InputPath: cand.InputPath, OutputPath: cand.OutputPath}, nil
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.InputDir = filepath.Join(dir, "input")
	cfg.Paths.OutputDir = filepath.Join(dir, "output")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Paths.StatusFile = filepath.Join(cfg.Paths.OutputDir, config.StatusFileName)
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Workflow.ScanInterval = 3600
	for _, d := range []string{cfg.Paths.InputDir, cfg.Paths.OutputDir, cfg.Paths.LogDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return &cfg
}

func newTestDaemon(t *testing.T, cfg *config.Config, store *history.Store) *daemon.Daemon {
	t.Helper()
	scanner := catalog.NewScanner(cfg.Paths.InputDir, cfg.Paths.OutputDir, logging.NewNop())
	manager := workflow.NewManager(cfg, scanner, noopConverter{}, nil, logging.NewNop())
	d, err := daemon.New(cfg, manager, store, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func startDaemon(t *testing.T, d *daemon.Daemon) {
	t.Helper()
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(d.Stop)
}

func apiGet(t *testing.T, d *daemon.Daemon, path string, payload any) *http.Response {
	t.Helper()
	resp, err := http.Get(fmt.Sprintf("http://%s%s", d.APIAddr(), path))
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if payload != nil {
		if err := json.NewDecoder(resp.Body).Decode(payload); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp
}

func TestDaemonLifecycleAndLock(t *testing.T) {
	cfg := newTestConfig(t)
	d := newTestDaemon(t, cfg, nil)

	startDaemon(t, d)
	if !d.Running() {
		t.Fatal("Running() = false after Start")
	}
	if err := d.Start(context.Background()); err == nil {
		t.Error("second Start on the same daemon should fail")
	}

	other := newTestDaemon(t, cfg, nil)
	if err := other.Start(context.Background()); err == nil {
		other.Stop()
		t.Error("a second instance should not acquire the lock")
	}

	d.Stop()
	if d.Running() {
		t.Error("Running() = true after Stop")
	}

	// The lock is free again after Stop.
	startDaemon(t, other)
}

func TestAPIStatusServesDocument(t *testing.T) {
	cfg := newTestConfig(t)
	d := newTestDaemon(t, cfg, nil)
	startDaemon(t, d)

	var snap status.Snapshot
	resp := apiGet(t, d, "/api/status", &snap)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
	if snap.State != status.StateIdle || snap.Active {
		t.Errorf("snapshot = %+v, want inactive idle without a document", snap)
	}

	publisher := status.NewPublisher(cfg.Paths.StatusFile, logging.NewNop())
	publisher.BeginFile("movie.mkv")

	apiGet(t, d, "/status", &snap)
	if snap.State != status.StateStarting || !snap.Active {
		t.Errorf("snapshot after BeginFile = %+v, want active starting", snap)
	}
}

func TestAPIVideosListsOutputs(t *testing.T) {
	cfg := newTestConfig(t)
	d := newTestDaemon(t, cfg, nil)
	startDaemon(t, d)

	if err := os.WriteFile(filepath.Join(cfg.Paths.OutputDir, "movie.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	var payload struct {
		Videos []catalog.Entry `json:"videos"`
		Count  int             `json:"count"`
	}
	apiGet(t, d, "/api/videos", &payload)
	if payload.Count != 1 || len(payload.Videos) != 1 {
		t.Fatalf("videos payload = %+v, want one entry", payload)
	}
	if payload.Videos[0].Name != "movie.mp4" {
		t.Errorf("video name = %q, want movie.mp4", payload.Videos[0].Name)
	}
}

func TestAPIHistory(t *testing.T) {
	cfg := newTestConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	d := newTestDaemon(t, cfg, store)
	startDaemon(t, d)
	t.Cleanup(func() { d.Close() })

	entry := history.Entry{
		ID:         "attempt-1",
		InputPath:  "/input/movie.mkv",
		OutputPath: "/output/movie.mp4",
		Method:     "software",
		Outcome:    history.OutcomeCompleted,
		FinishedAt: time.Now().UTC(),
	}
	if err := store.Record(context.Background(), entry); err != nil {
		t.Fatalf("Record: %v", err)
	}

	var payload struct {
		History []history.Entry `json:"history"`
		Count   int             `json:"count"`
	}
	apiGet(t, d, "/api/history", &payload)
	if payload.Count != 1 || len(payload.History) != 1 {
		t.Fatalf("history payload = %+v, want one entry", payload)
	}
	if payload.History[0].ID != "attempt-1" {
		t.Errorf("history entry = %+v", payload.History[0])
	}

	resp := apiGet(t, d, "/api/history?limit=bogus", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", resp.StatusCode)
	}
}

func TestAPIHistoryDisabled(t *testing.T) {
	cfg := newTestConfig(t)
	d := newTestDaemon(t, cfg, nil)
	startDaemon(t, d)

	resp := apiGet(t, d, "/api/history", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("history without a store = %d, want 404", resp.StatusCode)
	}
}

func TestAPIDaemonStatus(t *testing.T) {
	cfg := newTestConfig(t)
	d := newTestDaemon(t, cfg, nil)
	startDaemon(t, d)

	var payload daemon.Status
	apiGet(t, d, "/api/daemon", &payload)
	if !payload.Running {
		t.Error("daemon status running = false")
	}
	if payload.PID != os.Getpid() {
		t.Errorf("daemon status pid = %d, want %d", payload.PID, os.Getpid())
	}
	if len(payload.Dependencies) == 0 {
		t.Error("daemon status has no dependency report")
	}
}

func TestAPIRejectsWrites(t *testing.T) {
	cfg := newTestConfig(t)
	d := newTestDaemon(t, cfg, nil)
	startDaemon(t, d)

	resp, err := http.Post(fmt.Sprintf("http://%s/api/status", d.APIAddr()), "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", resp.StatusCode)
	}
	if _, err := io.ReadAll(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
}
