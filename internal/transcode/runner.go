package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"vidmill/internal/catalog"
	"vidmill/internal/config"
	"vidmill/internal/fileutil"
	"vidmill/internal/hwaccel"
	"vidmill/internal/logging"
	"vidmill/internal/media"
	"vidmill/internal/status"
)

// failureKeywords mark stderr lines worth surfacing even when ffmpeg
// exited zero.
var failureKeywords = []string{"error", "failed"}

// Report summarizes one finished conversion attempt.
type Report struct {
	AttemptID      string
	InputPath      string
	OutputPath     string
	Method         hwaccel.Method
	SourceDuration time.Duration
	EncodeTime     time.Duration
}

// Runner converts one candidate at a time, driving the status publisher
// through the starting, converting, and terminal transitions.
type Runner struct {
	ffmpeg        string
	encoder       config.Encoder
	prober        hwaccel.Prober
	durations     media.DurationProber
	proc          ProcessRunner
	publisher     *status.Publisher
	logger        *slog.Logger
	completedHold time.Duration
	errorHold     time.Duration
	encodeTimeout time.Duration

	// sleep is replaced in tests so terminal holds do not stall the suite.
	sleep func(time.Duration)
}

// NewRunner wires a runner from configuration and collaborators.
func NewRunner(cfg *config.Config, prober hwaccel.Prober, durations media.DurationProber, proc ProcessRunner, publisher *status.Publisher, logger *slog.Logger) *Runner {
	return &Runner{
		ffmpeg:        cfg.FFmpegBinary(),
		encoder:       cfg.Encoder,
		prober:        prober,
		durations:     durations,
		proc:          proc,
		publisher:     publisher,
		logger:        logging.NewComponentLogger(logger, "transcode"),
		completedHold: time.Duration(cfg.Workflow.CompletedHold) * time.Second,
		errorHold:     time.Duration(cfg.Workflow.ErrorHold) * time.Second,
		encodeTimeout: time.Duration(cfg.Workflow.EncodeTimeout) * time.Second,
		sleep:         time.Sleep,
	}
}

// Convert runs the full state machine for one candidate. A non-nil error
// means the attempt failed; the status document has already been driven
// through the error hold back to idle, so the caller only needs to log
// and record the outcome.
func (r *Runner) Convert(ctx context.Context, cand catalog.Candidate) (Report, error) {
	report := Report{
		AttemptID:  uuid.NewString(),
		InputPath:  cand.InputPath,
		OutputPath: cand.OutputPath,
	}
	logger := r.logger.With(
		logging.String(logging.FieldAttemptID, report.AttemptID),
		logging.String(logging.FieldFile, cand.Name()),
	)
	started := time.Now()

	r.publisher.BeginFile(cand.Name())

	sourceDuration, err := r.durations.Duration(ctx, cand.InputPath)
	if err != nil {
		logging.WarnWithContext(logger, "source duration unavailable", "probe_degraded",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "progress percentage and eta will not be reported for this file"),
			logging.String(logging.FieldImpact, "conversion proceeds without progress detail"),
		)
		sourceDuration = 0
	}
	report.SourceDuration = sourceDuration

	probe := r.prober.Probe(ctx)
	profile := BuildProfile(r.encoder, probe)
	report.Method = profile.Method
	r.publisher.SetMethod(string(profile.Method))
	logger.Info("conversion starting",
		logging.String(logging.FieldEventType, "conversion_started"),
		logging.String(logging.FieldMethod, string(profile.Method)),
		logging.Duration("source_duration", sourceDuration),
	)

	if err := fileutil.EnsureParentDir(cand.OutputPath); err != nil {
		return report, r.fail(logger, report, started, fmt.Errorf("prepare output directory: %w", err))
	}

	runCtx := ctx
	if r.encodeTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.encodeTimeout)
		defer cancel()
	}

	r.publisher.MarkConverting()

	var lastElapsed time.Duration
	onLine := func(line string) {
		update, ok := DecodeProgressLine(line)
		if !ok {
			return
		}
		switch update.Kind {
		case UpdateElapsed:
			lastElapsed = update.Elapsed
			if sourceDuration > 0 {
				percent := int(math.Round(100 * float64(update.Elapsed) / float64(sourceDuration)))
				r.publisher.UpdateProgress(percent)
			}
		case UpdateSpeed:
			var eta *int
			if sourceDuration > 0 && update.Speed > 0 {
				remaining := sourceDuration - lastElapsed
				if remaining < 0 {
					remaining = 0
				}
				seconds := int(math.Round(remaining.Seconds() / update.Speed))
				eta = &seconds
			}
			r.publisher.UpdateThroughput(update.Speed, eta)
		}
	}

	result, runErr := r.proc.Run(runCtx, r.ffmpeg, profile.Args(cand.InputPath, cand.OutputPath), onLine)
	report.EncodeTime = time.Since(started)

	if runErr != nil {
		return report, r.fail(logger, report, started, fmt.Errorf("launch encoder: %w", runErr))
	}
	if result.ExitCode != 0 {
		err := fmt.Errorf("ffmpeg exited with code %d", result.ExitCode)
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("encode exceeded %s watchdog: %w", r.encodeTimeout, err)
		}
		if diag := strings.TrimSpace(result.Stderr); diag != "" {
			logger.Error("encoder diagnostics",
				logging.String(logging.FieldEventType, "encoder_stderr"),
				logging.String("stderr", diag),
			)
		}
		return report, r.fail(logger, report, started, err)
	}

	if diag := diagnosticExcerpt(result.Stderr); diag != "" {
		logging.WarnWithContext(logger, "encoder reported problems on a successful run", "encoder_stderr",
			logging.String("stderr", diag),
			logging.String(logging.FieldImpact, "output was produced but may need review"),
		)
	}

	logger.Info("conversion completed",
		logging.String(logging.FieldEventType, "conversion_completed"),
		logging.String(logging.FieldMethod, string(profile.Method)),
		logging.Duration("encode_time", report.EncodeTime),
	)
	r.publisher.MarkCompleted()
	r.sleep(r.completedHold)
	r.publisher.MarkIdle()
	return report, nil
}

// fail drives the error transition, removes any partial output left by
// this attempt, and holds the error state so pollers can observe it.
// Output from a previous completed run predates the attempt and is kept.
func (r *Runner) fail(logger *slog.Logger, report Report, started time.Time, err error) error {
	logger.Error("conversion failed",
		logging.String(logging.FieldEventType, "conversion_failed"),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check encoder diagnostics above; the file is retried on a later scan pass"),
		logging.String(logging.FieldImpact, "this file is skipped until its next eligible pass"),
	)
	if info, statErr := os.Stat(report.OutputPath); statErr == nil && !info.ModTime().Before(started) {
		if removeErr := os.Remove(report.OutputPath); removeErr != nil {
			logging.WarnWithContext(logger, "could not remove partial output", "partial_output_retained",
				logging.Error(removeErr),
				logging.String(logging.FieldImpact, "the partial file may mask this candidate until it is deleted"),
			)
		}
	}
	r.publisher.MarkFailed()
	r.sleep(r.errorHold)
	r.publisher.MarkIdle()
	return err
}

// diagnosticExcerpt returns stderr when it contains failure keywords,
// trimmed for logging. Routine informational output is suppressed.
func diagnosticExcerpt(stderr string) string {
	trimmed := strings.TrimSpace(stderr)
	if trimmed == "" {
		return ""
	}
	lowered := strings.ToLower(trimmed)
	for _, keyword := range failureKeywords {
		if strings.Contains(lowered, keyword) {
			return trimmed
		}
	}
	return ""
}
