package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"vidmill/internal/config"
	"vidmill/internal/deps"
	"vidmill/internal/history"
	"vidmill/internal/logging"
	"vidmill/internal/workflow"
)

// Daemon coordinates the scan loop and the reporting API and enforces
// single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	manager *workflow.Manager
	store   *history.Store

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool                  `json:"running"`
	PID            int                   `json:"pid"`
	LockFilePath   string                `json:"lock_file"`
	StatusFilePath string                `json:"status_file"`
	HistoryDBPath  string                `json:"history_db,omitempty"`
	APIBind        string                `json:"api_bind,omitempty"`
	LastPass       *workflow.PassSummary `json:"last_pass,omitempty"`
	Dependencies   []deps.Status         `json:"dependencies"`
}

// New constructs a daemon with initialized dependencies. The history
// store may be nil when history is disabled.
func New(cfg *config.Config, manager *workflow.Manager, store *history.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || manager == nil || logger == nil {
		return nil, errors.New("daemon requires config, workflow manager, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "vidmilld.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		manager:  manager,
		store:    store,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock and launches the scan loop and API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another vidmill daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.manager.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx, d.cancel = nil, nil
		return fmt.Errorf("start workflow: %w", err)
	}
	if err := d.api.start(d.ctx); err != nil {
		d.manager.Stop()
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx, d.cancel = nil, nil
		return fmt.Errorf("start api: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("vidmill daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
	)
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.manager.Stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "could not release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "a stale lock file may remain until the process exits"),
		)
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("vidmill daemon stopped",
		logging.String(logging.FieldEventType, "daemon_stopped"),
	)
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the daemon has been started.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// APIAddr returns the bound API listener address, or "" when the API is
// disabled or not started.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// Status reports current runtime information.
func (d *Daemon) Status() Status {
	status := Status{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		LockFilePath:   d.lockPath,
		StatusFilePath: d.cfg.Paths.StatusFile,
		APIBind:        d.cfg.Paths.APIBind,
		Dependencies:   deps.CheckBinaries(deps.Requirements(d.cfg)),
	}
	if d.store != nil {
		status.HistoryDBPath = d.store.Path()
	}
	if pass, ok := d.manager.LastPass(); ok {
		status.LastPass = &pass
	}
	return status
}
