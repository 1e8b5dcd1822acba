// Package media probes source files with ffprobe.
package media

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

var commandContext = exec.CommandContext

// ErrDurationUnavailable reports that the source duration could not be
// determined. Callers degrade progress reporting instead of failing the
// conversion.
var ErrDurationUnavailable = errors.New("duration unavailable")

// DurationProber resolves the total stream duration of a source file.
type DurationProber interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// FFprobe resolves durations by shelling out to ffprobe.
type FFprobe struct {
	binary string
}

// NewFFprobe constructs a prober using the given binary name.
func NewFFprobe(binary string) *FFprobe {
	if binary == "" {
		binary = "ffprobe"
	}
	return &FFprobe{binary: binary}
}

// Duration runs ffprobe and parses the plain-text duration in seconds.
// Corrupt headers, missing binaries, and unparseable output all map to
// ErrDurationUnavailable.
func (p *FFprobe) Duration(ctx context.Context, path string) (time.Duration, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	out, err := commandContext(ctx, p.binary, args...).Output()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDurationUnavailable, err)
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil || seconds <= 0 {
		return 0, fmt.Errorf("%w: unparseable ffprobe output %q", ErrDurationUnavailable, strings.TrimSpace(string(out)))
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

var _ DurationProber = (*FFprobe)(nil)

// StaticDuration is a fixed-result prober for tests.
type StaticDuration struct {
	Value time.Duration
	Err   error
}

func (s StaticDuration) Duration(context.Context, string) (time.Duration, error) {
	return s.Value, s.Err
}
