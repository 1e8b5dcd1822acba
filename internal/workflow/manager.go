package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"vidmill/internal/catalog"
	"vidmill/internal/config"
	"vidmill/internal/history"
	"vidmill/internal/logging"
	"vidmill/internal/transcode"
)

// Converter runs one conversion attempt end to end.
type Converter interface {
	Convert(ctx context.Context, cand catalog.Candidate) (transcode.Report, error)
}

// Recorder persists finished attempts. It may be nil when history is
// disabled.
type Recorder interface {
	Record(ctx context.Context, entry history.Entry) error
}

// PassSummary describes one completed scan pass.
type PassSummary struct {
	Total     int           `json:"total"`
	Eligible  int           `json:"eligible"`
	Completed int           `json:"completed"`
	Failed    int           `json:"failed"`
	Started   time.Time     `json:"started"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Manager drives scan passes on a fixed interval.
type Manager struct {
	interval  time.Duration
	scanner   *catalog.Scanner
	converter Converter
	recorder  Recorder
	logger    *slog.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	lastPass *PassSummary
}

// NewManager wires a manager from configuration and collaborators.
func NewManager(cfg *config.Config, scanner *catalog.Scanner, converter Converter, recorder Recorder, logger *slog.Logger) *Manager {
	return &Manager{
		interval:  time.Duration(cfg.Workflow.ScanInterval) * time.Second,
		scanner:   scanner,
		converter: converter,
		recorder:  recorder,
		logger:    logging.NewComponentLogger(logger, "workflow"),
	}
}

// Start launches the scan loop. The first pass begins immediately.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return errors.New("workflow already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.loop(loopCtx, m.done)
	return nil
}

// Stop cancels the loop and waits for the current pass to unwind.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the scan loop is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

// LastPass returns the most recent pass summary, if any pass has finished.
func (m *Manager) LastPass() (PassSummary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastPass == nil {
		return PassSummary{}, false
	}
	return *m.lastPass, true
}

func (m *Manager) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	m.logger.Info("scan loop started",
		logging.String(logging.FieldEventType, "workflow_started"),
		logging.Duration("scan_interval", m.interval),
	)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.runLoggedPass(ctx)
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("scan loop stopped",
				logging.String(logging.FieldEventType, "workflow_stopped"),
			)
			return
		case <-ticker.C:
			m.runLoggedPass(ctx)
		}
	}
}

func (m *Manager) runLoggedPass(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := m.RunPass(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.WarnWithContext(m.logger, "scan pass did not complete", "pass_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the input directory exists and is readable"),
			logging.String(logging.FieldImpact, "no files were converted this pass; the loop retries on the next interval"),
		)
	}
}

// RunPass executes one scan-and-convert pass. Individual conversion
// failures are counted, not returned; the error covers conditions that
// prevented the pass itself, such as a missing input root.
func (m *Manager) RunPass(ctx context.Context) (PassSummary, error) {
	summary := PassSummary{Started: time.Now()}

	candidates, total, err := m.scanner.Scan(ctx)
	if err != nil {
		return summary, err
	}
	summary.Total = total
	summary.Eligible = len(candidates)

	m.logger.Info("scan pass",
		logging.String(logging.FieldEventType, "scan_completed"),
		logging.Int("video_files", total),
		logging.Int("eligible", len(candidates)),
	)

	for _, cand := range candidates {
		if ctx.Err() != nil {
			summary.Elapsed = time.Since(summary.Started)
			m.storeSummary(summary)
			return summary, ctx.Err()
		}

		report, convertErr := m.converter.Convert(ctx, cand)
		if convertErr != nil {
			summary.Failed++
		} else {
			summary.Completed++
		}
		m.record(ctx, report, convertErr)
	}

	summary.Elapsed = time.Since(summary.Started)
	m.storeSummary(summary)
	return summary, nil
}

func (m *Manager) storeSummary(summary PassSummary) {
	m.mu.Lock()
	m.lastPass = &summary
	m.mu.Unlock()
}

func (m *Manager) record(ctx context.Context, report transcode.Report, convertErr error) {
	if m.recorder == nil {
		return
	}

	entry := history.Entry{
		ID:            report.AttemptID,
		InputPath:     report.InputPath,
		OutputPath:    report.OutputPath,
		Method:        string(report.Method),
		Outcome:       history.OutcomeCompleted,
		SourceSeconds: report.SourceDuration.Seconds(),
		EncodeSeconds: report.EncodeTime.Seconds(),
		FinishedAt:    time.Now().UTC(),
	}
	if convertErr != nil {
		entry.Outcome = history.OutcomeFailed
		entry.Detail = convertErr.Error()
	}

	if err := m.recorder.Record(ctx, entry); err != nil {
		logging.WarnWithContext(m.logger, "could not record conversion history", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "the attempt ran normally but will not appear in history listings"),
		)
	}
}
