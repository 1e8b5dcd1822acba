// Package daemonrun boots the daemon process: logger, pid file, history
// store, conversion pipeline, and signal handling. Both the dedicated
// daemon binary and the CLI daemon command share this entry point.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"vidmill/internal/catalog"
	"vidmill/internal/config"
	"vidmill/internal/daemon"
	"vidmill/internal/fileutil"
	"vidmill/internal/history"
	"vidmill/internal/hwaccel"
	"vidmill/internal/logging"
	"vidmill/internal/media"
	"vidmill/internal/preflight"
	"vidmill/internal/status"
	"vidmill/internal/transcode"
	"vidmill/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the vidmill daemon runtime loop and blocks until the
// context is canceled or a termination signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("vidmill-%s.log", runID))

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update vidmill.log link: %v\n", err)
	}

	logPreflight(signalCtx, logger, cfg)

	pidPath := filepath.Join(cfg.Paths.LogDir, "vidmill.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg)
		if err != nil {
			logger.Error("open history store", logging.Error(err))
			return err
		}
		defer store.Close()
	}

	d, err := buildDaemon(cfg, store, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	monitor := hwaccel.NewMonitor(logger)
	if err := monitor.Start(signalCtx); err != nil {
		logging.WarnWithContext(logger, "device hotplug monitor unavailable", "hotplug_monitor_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "encoder selection still reprobes before every file"),
		)
	}
	defer monitor.Stop()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check directory configuration and that no other instance is running"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("vidmill daemon shutting down")
	return nil
}

// buildDaemon assembles the conversion pipeline behind a daemon.
func buildDaemon(cfg *config.Config, store *history.Store, logger *slog.Logger) (*daemon.Daemon, error) {
	var recorder workflow.Recorder
	if store != nil {
		recorder = store
	}
	return daemon.New(cfg, BuildManager(cfg, recorder, logger), store, logger)
}

// BuildManager wires the full conversion pipeline: status publisher,
// capability prober, transcode runner, and scanner. The CLI uses it for
// one-shot scan passes without a daemon lifecycle around it.
func BuildManager(cfg *config.Config, recorder workflow.Recorder, logger *slog.Logger) *workflow.Manager {
	publisher := status.NewPublisher(cfg.Paths.StatusFile, logger)

	var prober hwaccel.Prober
	if cfg.Encoder.HardwareEnabled {
		prober = hwaccel.NewQSVProber(cfg.Encoder.DeviceDir, cfg.Encoder.Device, cfg.FFmpegBinary(), logger)
	} else {
		prober = hwaccel.Software()
	}

	runner := transcode.NewRunner(cfg, prober,
		media.NewFFprobe(cfg.FFprobeBinary()),
		transcode.NewProcessRunner(),
		publisher, logger)

	scanner := catalog.NewScanner(cfg.Paths.InputDir, cfg.Paths.OutputDir, logger)
	return workflow.NewManager(cfg, scanner, runner, recorder, logger)
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "vidmill.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	return fileutil.WriteAtomic(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0o644)
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	results := preflight.RunAll(ctx, cfg)
	for _, result := range results {
		if result.Passed {
			logger.Debug("preflight check passed",
				logging.String(logging.FieldEventType, "preflight_check"),
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_check",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "conversions may fail until this is resolved"),
		)
	}
	if preflight.AllPassed(results) {
		logger.Info("preflight checks passed",
			logging.String(logging.FieldEventType, "preflight_passed"),
			logging.Int("checks", len(results)),
		)
	}
}
