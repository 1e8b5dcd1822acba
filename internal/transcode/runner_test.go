package transcode_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vidmill/internal/catalog"
	"vidmill/internal/config"
	"vidmill/internal/hwaccel"
	"vidmill/internal/logging"
	"vidmill/internal/media"
	"vidmill/internal/status"
	"vidmill/internal/transcode"
)

// fakeProc replays a canned progress stream and result, optionally
// observing the run while it is in flight.
type fakeProc struct {
	lines  []string
	result transcode.ProcessResult
	err    error

	midRun  func(ctx context.Context)
	gotName string
	gotArgs []string
}

func (p *fakeProc) Run(ctx context.Context, name string, args []string, onLine func(string)) (transcode.ProcessResult, error) {
	p.gotName = name
	p.gotArgs = args
	for _, line := range p.lines {
		onLine(line)
	}
	if p.midRun != nil {
		p.midRun(ctx)
	}
	return p.result, p.err
}

type fixture struct {
	runner    *transcode.Runner
	publisher *status.Publisher
	candidate catalog.Candidate
	proc      *fakeProc
}

func newFixture(t *testing.T, prober hwaccel.Prober, durations media.DurationProber, proc *fakeProc) fixture {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Workflow.CompletedHold = 0
	cfg.Workflow.ErrorHold = 0

	publisher := status.NewPublisher(filepath.Join(dir, config.StatusFileName), logging.NewNop())
	input := filepath.Join(dir, "in", "movie.mkv")
	if err := os.MkdirAll(filepath.Dir(input), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(input, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}

	return fixture{
		runner:    transcode.NewRunner(&cfg, prober, durations, proc, publisher, logging.NewNop()),
		publisher: publisher,
		candidate: catalog.Candidate{
			InputPath:  input,
			OutputPath: filepath.Join(dir, "out", "movie.mp4"),
		},
		proc: proc,
	}
}

func TestConvertSuccessPublishesProgressAndSpeed(t *testing.T) {
	proc := &fakeProc{
		lines: []string{
			"frame=1024",
			"out_time_ms=50000000",
			"speed=2.0x",
			"progress=continue",
		},
	}
	var observed status.Snapshot
	fx := newFixture(t, hwaccel.Software(), media.StaticDuration{Value: 100 * time.Second}, proc)
	proc.midRun = func(context.Context) { observed = fx.publisher.Snapshot() }

	report, err := fx.runner.Convert(context.Background(), fx.candidate)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if observed.State != status.StateConverting {
		t.Errorf("mid-run state = %q, want converting", observed.State)
	}
	if !observed.Active {
		t.Error("mid-run snapshot should be active")
	}
	if observed.Progress != 50 {
		t.Errorf("mid-run progress = %d, want 50", observed.Progress)
	}
	if observed.Speed == nil || *observed.Speed != 2.0 {
		t.Errorf("mid-run speed = %v, want 2.0", observed.Speed)
	}
	if observed.ETA == nil || *observed.ETA != 25 {
		t.Errorf("mid-run eta = %v, want 25", observed.ETA)
	}
	if observed.CurrentFile == nil || *observed.CurrentFile != "movie.mkv" {
		t.Errorf("mid-run current_file = %v, want movie.mkv", observed.CurrentFile)
	}

	final := fx.publisher.Snapshot()
	if final.State != status.StateIdle || final.Active {
		t.Errorf("final snapshot = %+v, want inactive idle", final)
	}
	if report.Method != hwaccel.MethodSoftware {
		t.Errorf("report method = %q, want software", report.Method)
	}
	if report.SourceDuration != 100*time.Second {
		t.Errorf("report source duration = %v, want 100s", report.SourceDuration)
	}
	if report.AttemptID == "" {
		t.Error("report is missing an attempt id")
	}
}

func TestConvertUsesHardwareProfileWhenProbed(t *testing.T) {
	probe := hwaccel.Static{Result: hwaccel.Result{
		Method:      hwaccel.MethodHardware,
		Device:      "/dev/dri/renderD128",
		DeviceFound: true,
		CodecFound:  true,
	}}
	proc := &fakeProc{}
	var observed status.Snapshot
	fx := newFixture(t, probe, media.StaticDuration{Value: time.Minute}, proc)
	proc.midRun = func(context.Context) { observed = fx.publisher.Snapshot() }

	if _, err := fx.runner.Convert(context.Background(), fx.candidate); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if observed.Method == nil || *observed.Method != status.MethodHardware {
		t.Errorf("published method = %v, want hardware", observed.Method)
	}
	args := strings.Join(proc.gotArgs, " ")
	if !strings.Contains(args, "-init_hw_device qsv=hw:/dev/dri/renderD128") {
		t.Errorf("encoder args = %q, want qsv device init", args)
	}
	if proc.gotName != "ffmpeg" {
		t.Errorf("encoder binary = %q, want ffmpeg", proc.gotName)
	}
}

func TestConvertFailureRemovesPartialOutput(t *testing.T) {
	proc := &fakeProc{result: transcode.ProcessResult{ExitCode: 1, Stderr: "Error opening encoder"}}
	fx := newFixture(t, hwaccel.Software(), media.StaticDuration{Value: time.Minute}, proc)
	proc.midRun = func(context.Context) {
		if err := os.MkdirAll(filepath.Dir(fx.candidate.OutputPath), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(fx.candidate.OutputPath, []byte("partial"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	_, err := fx.runner.Convert(context.Background(), fx.candidate)
	if err == nil {
		t.Fatal("Convert should fail when ffmpeg exits nonzero")
	}
	if !strings.Contains(err.Error(), "exited with code 1") {
		t.Errorf("error = %v, want exit code detail", err)
	}
	if _, statErr := os.Stat(fx.candidate.OutputPath); !errors.Is(statErr, os.ErrNotExist) {
		t.Errorf("partial output still present after failure: %v", statErr)
	}
	final := fx.publisher.Snapshot()
	if final.State != status.StateIdle || final.Active {
		t.Errorf("final snapshot = %+v, want inactive idle", final)
	}
}

func TestConvertFailureKeepsOutputFromEarlierRun(t *testing.T) {
	proc := &fakeProc{result: transcode.ProcessResult{ExitCode: 1}}
	fx := newFixture(t, hwaccel.Software(), media.StaticDuration{Value: time.Minute}, proc)

	if err := os.MkdirAll(filepath.Dir(fx.candidate.OutputPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fx.candidate.OutputPath, []byte("earlier run"), 0o644); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(fx.candidate.OutputPath, past, past); err != nil {
		t.Fatal(err)
	}

	if _, err := fx.runner.Convert(context.Background(), fx.candidate); err == nil {
		t.Fatal("Convert should fail when ffmpeg exits nonzero")
	}
	data, err := os.ReadFile(fx.candidate.OutputPath)
	if err != nil {
		t.Fatalf("output from an earlier run was removed: %v", err)
	}
	if string(data) != "earlier run" {
		t.Errorf("output content = %q, want untouched earlier run", data)
	}
}

func TestConvertLaunchFailure(t *testing.T) {
	proc := &fakeProc{err: fmt.Errorf("exec: %w", os.ErrNotExist)}
	fx := newFixture(t, hwaccel.Software(), media.StaticDuration{Value: time.Minute}, proc)

	_, err := fx.runner.Convert(context.Background(), fx.candidate)
	if err == nil {
		t.Fatal("Convert should fail when the encoder cannot launch")
	}
	if !strings.Contains(err.Error(), "launch encoder") {
		t.Errorf("error = %v, want launch detail", err)
	}
}

func TestConvertProceedsWithoutSourceDuration(t *testing.T) {
	proc := &fakeProc{lines: []string{"out_time_ms=50000000", "speed=2.0x"}}
	var observed status.Snapshot
	fx := newFixture(t, hwaccel.Software(), media.StaticDuration{Err: media.ErrDurationUnavailable}, proc)
	proc.midRun = func(context.Context) { observed = fx.publisher.Snapshot() }

	report, err := fx.runner.Convert(context.Background(), fx.candidate)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if observed.Progress != 0 {
		t.Errorf("progress without a known duration = %d, want 0", observed.Progress)
	}
	if observed.ETA != nil {
		t.Errorf("eta without a known duration = %v, want nil", observed.ETA)
	}
	if observed.Speed == nil || *observed.Speed != 2.0 {
		t.Errorf("speed = %v, want 2.0 even without a duration", observed.Speed)
	}
	if report.SourceDuration != 0 {
		t.Errorf("report source duration = %v, want 0", report.SourceDuration)
	}
}

func TestConvertAppliesEncodeWatchdog(t *testing.T) {
	proc := &fakeProc{}
	fx := newFixture(t, hwaccel.Software(), media.StaticDuration{Value: time.Minute}, proc)

	var deadlineSet bool
	proc.midRun = func(ctx context.Context) { _, deadlineSet = ctx.Deadline() }
	if _, err := fx.runner.Convert(context.Background(), fx.candidate); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if deadlineSet {
		t.Error("no watchdog configured, run context should have no deadline")
	}

	cfg := config.Default()
	cfg.Workflow.CompletedHold = 0
	cfg.Workflow.ErrorHold = 0
	cfg.Workflow.EncodeTimeout = 30
	runner := transcode.NewRunner(&cfg, hwaccel.Software(), media.StaticDuration{Value: time.Minute}, proc, fx.publisher, logging.NewNop())
	if _, err := runner.Convert(context.Background(), fx.candidate); err != nil {
		t.Fatalf("Convert with watchdog: %v", err)
	}
	if !deadlineSet {
		t.Error("watchdog configured, run context should carry a deadline")
	}
}
