package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"vidmill/internal/catalog"
	"vidmill/internal/config"
	"vidmill/internal/logging"
	"vidmill/internal/status"
)

const defaultHistoryLimit = 50

// videosResponse lists converted outputs for browsing consumers.
type videosResponse struct {
	Videos []catalog.Entry `json:"videos"`
	Count  int             `json:"count"`
}

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/videos", srv.handleVideos)
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/history", srv.handleHistory)
	mux.HandleFunc("/api/daemon", srv.handleDaemon)
	// Aliases kept for consumers that predate the /api prefix.
	mux.HandleFunc("/videos", srv.handleVideos)
	mux.HandleFunc("/status", srv.handleStatus)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening",
		logging.String(logging.FieldEventType, "api_started"),
		logging.String("address", listener.Addr().String()),
	)
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	s.mu.Lock()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
	s.mu.Unlock()
}

func (s *apiServer) addr() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// handleVideos lists converted files under the output root.
func (s *apiServer) handleVideos(w http.ResponseWriter, r *http.Request) {
	if !s.readOnly(w, r) {
		return
	}
	videos := catalog.ListOutputs(s.daemon.cfg.Paths.OutputDir)
	s.writeJSON(w, http.StatusOK, videosResponse{Videos: videos, Count: len(videos)})
}

// handleStatus serves the conversion status document. The document on
// disk is the source of truth; a missing or torn file reads as idle.
func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !s.readOnly(w, r) {
		return
	}
	s.writeJSON(w, http.StatusOK, status.Load(s.daemon.cfg.Paths.StatusFile))
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !s.readOnly(w, r) {
		return
	}
	if s.daemon.store == nil {
		s.writeError(w, http.StatusNotFound, "history disabled")
		return
	}

	limit := defaultHistoryLimit
	if value := strings.TrimSpace(r.URL.Query().Get("limit")); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	entries, err := s.daemon.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"history": entries,
		"count":   len(entries),
	})
}

func (s *apiServer) handleDaemon(w http.ResponseWriter, r *http.Request) {
	if !s.readOnly(w, r) {
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.Status())
}

// readOnly enforces the API's read-only contract: only GET and HEAD are
// served, and every response is CORS-open for local dashboards.
func (s *apiServer) readOnly(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func (s *apiServer) writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, code int, message string) {
	s.writeJSON(w, code, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return logging.NewComponentLogger(s.logger, "api-server")
	}
	return logging.NewNop()
}
