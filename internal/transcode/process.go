package transcode

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

var commandContext = exec.CommandContext

// stderrLimit bounds how much diagnostic output is retained per run.
const stderrLimit = 64 * 1024

// ProcessResult reports how a finished encoder process ended.
type ProcessResult struct {
	ExitCode int
	Stderr   string
}

// ProcessRunner launches the encoder binary and streams its progress
// output line by line. Run returns an error only when the process could
// not be started or observed; a nonzero exit code is reported through
// the result so the caller can distinguish launch failures from encode
// failures.
type ProcessRunner interface {
	Run(ctx context.Context, name string, args []string, onLine func(string)) (ProcessResult, error)
}

type execProcessRunner struct{}

// NewProcessRunner returns the runner backed by os/exec.
func NewProcessRunner() ProcessRunner {
	return execProcessRunner{}
}

func (execProcessRunner) Run(ctx context.Context, name string, args []string, onLine func(string)) (ProcessResult, error) {
	cmd := commandContext(ctx, name, args...)

	stderr := &boundedBuffer{limit: stderrLimit}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return ProcessResult{}, fmt.Errorf("open progress pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return ProcessResult{}, fmt.Errorf("start %s: %w", name, err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if onLine != nil {
			onLine(scanner.Text())
		}
	}

	waitErr := cmd.Wait()
	result := ProcessResult{Stderr: stderr.String()}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, fmt.Errorf("wait for %s: %w", name, waitErr)
	}
	return result, nil
}

// boundedBuffer keeps the first limit bytes written and drops the rest.
type boundedBuffer struct {
	limit int
	buf   bytes.Buffer
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	if remaining := b.limit - b.buf.Len(); remaining > 0 {
		if len(p) > remaining {
			p = p[:remaining]
		}
		b.buf.Write(p)
	}
	return len(p), nil
}

func (b *boundedBuffer) String() string {
	return b.buf.String()
}
