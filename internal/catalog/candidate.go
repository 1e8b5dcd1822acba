package catalog

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// OutputExt is the target container extension forced on every output path.
const OutputExt = ".mp4"

// videoExtensions is the closed set of recognized source containers,
// matched case-insensitively.
var videoExtensions = map[string]struct{}{
	".mp4": {}, ".avi": {}, ".mkv": {}, ".mov": {}, ".wmv": {},
	".flv": {}, ".webm": {}, ".m4v": {}, ".3gp": {}, ".ogv": {},
}

// Candidate pairs a source video with its canonical output path. Candidates
// carry no identity beyond their paths and are recomputed every scan pass.
type Candidate struct {
	InputPath  string
	OutputPath string
}

// Name returns the basename shown in status updates and logs.
func (c Candidate) Name() string {
	return filepath.Base(c.InputPath)
}

// IsVideo reports whether path carries a recognized source container extension.
func IsVideo(path string) bool {
	_, ok := videoExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// OutputPathFor mirrors inputPath's position under inputRoot into outputRoot
// and forces the target container extension.
func OutputPathFor(inputRoot, outputRoot, inputPath string) (string, error) {
	rel, err := filepath.Rel(inputRoot, inputPath)
	if err != nil {
		return "", err
	}
	mirrored := filepath.Join(outputRoot, rel)
	return strings.TrimSuffix(mirrored, filepath.Ext(mirrored)) + OutputExt, nil
}

// NeedsConversion reports whether the output is missing or strictly older
// than the input. An output at least as new as its input is up to date.
func NeedsConversion(inputPath, outputPath string) (bool, error) {
	outInfo, err := os.Stat(outputPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return true, nil
		}
		return false, err
	}
	inInfo, err := os.Stat(inputPath)
	if err != nil {
		return false, err
	}
	return inInfo.ModTime().After(outInfo.ModTime()), nil
}
