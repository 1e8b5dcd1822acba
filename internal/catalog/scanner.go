package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"vidmill/internal/logging"
)

// ErrInputRootMissing reports that the input tree does not exist. A scan pass
// ends early on this and is retried on the next interval.
var ErrInputRootMissing = errors.New("input root does not exist")

// Scanner enumerates candidate files under an input root.
type Scanner struct {
	inputRoot  string
	outputRoot string
	logger     *slog.Logger
}

// NewScanner constructs a scanner over the given trees.
func NewScanner(inputRoot, outputRoot string, logger *slog.Logger) *Scanner {
	return &Scanner{
		inputRoot:  inputRoot,
		outputRoot: outputRoot,
		logger:     logging.NewComponentLogger(logger, "scanner"),
	}
}

// Scan walks the input tree and returns the candidates that need conversion,
// ordered lexicographically by input path for a deterministic run order. The
// second result is the total number of recognized videos found. Per-file stat
// failures are skipped with a warning; only a missing input root fails the
// scan.
func (s *Scanner) Scan(ctx context.Context) ([]Candidate, int, error) {
	if _, err := os.Stat(s.inputRoot); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: %s", ErrInputRootMissing, s.inputRoot)
		}
		return nil, 0, fmt.Errorf("stat input root: %w", err)
	}

	visited := make(map[string]struct{})
	var inputs []string
	if err := s.walk(ctx, s.inputRoot, visited, &inputs); err != nil {
		return nil, 0, err
	}
	sort.Strings(inputs)

	pending := make([]Candidate, 0, len(inputs))
	for _, inputPath := range inputs {
		outputPath, err := OutputPathFor(s.inputRoot, s.outputRoot, inputPath)
		if err != nil {
			s.warnSkip(inputPath, err)
			continue
		}
		need, err := NeedsConversion(inputPath, outputPath)
		if err != nil {
			s.warnSkip(inputPath, err)
			continue
		}
		if need {
			pending = append(pending, Candidate{InputPath: inputPath, OutputPath: outputPath})
		}
	}
	return pending, len(inputs), nil
}

// walk recurses through dir collecting recognized video files. Symlinked
// directories are followed; visited tracks resolved paths to break cycles.
func (s *Scanner) walk(ctx context.Context, dir string, visited map[string]struct{}, out *[]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		s.warnSkip(dir, err)
		return nil
	}
	if _, seen := visited[resolved]; seen {
		return nil
	}
	visited[resolved] = struct{}{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Shared mounts routinely contain unreadable subtrees.
		s.warnSkip(dir, err)
		return nil
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		mode := entry.Type()
		switch {
		case mode.IsDir():
			if err := s.walk(ctx, path, visited, out); err != nil {
				return err
			}
		case mode&fs.ModeSymlink != 0:
			info, err := os.Stat(path)
			if err != nil {
				s.warnSkip(path, err)
				continue
			}
			if info.IsDir() {
				if err := s.walk(ctx, path, visited, out); err != nil {
					return err
				}
			} else if IsVideo(path) {
				*out = append(*out, path)
			}
		case mode.IsRegular():
			if IsVideo(path) {
				*out = append(*out, path)
			}
		}
	}
	return nil
}

func (s *Scanner) warnSkip(path string, err error) {
	logging.WarnWithContext(s.logger, "skipping unreadable entry", "scan_entry_skipped",
		logging.Error(err),
		logging.String("path", path),
		logging.String(logging.FieldImpact, "entry excluded from this pass"),
		logging.String(logging.FieldErrorHint, "check mount permissions"),
	)
}
