package preflight

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"vidmill/internal/config"
	"vidmill/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// lowSpaceThreshold flags output volumes with less free space than a
// typical transcoded feature needs.
const lowSpaceThreshold = 2 << 30

// RunAll executes all applicable preflight checks for the given config.
// The input directory check requires only read access; a missing input
// root fails preflight informationally but never blocks the daemon, which
// retries on every scan pass.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Input directory", cfg.Paths.InputDir, unix.R_OK|unix.X_OK),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir, unix.R_OK|unix.W_OK|unix.X_OK),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir, unix.R_OK|unix.W_OK|unix.X_OK),
		CheckFreeSpace("Output free space", cfg.Paths.OutputDir),
	}
	for _, status := range CheckSystemDeps(ctx, cfg) {
		result := Result{Name: status.Name, Passed: status.Available || status.Optional}
		if status.Available {
			result.Detail = status.Command
		} else {
			result.Detail = status.Detail
		}
		results = append(results, result)
	}
	return results
}

// CheckDirectoryAccess verifies that the directory exists and grants the
// requested access bits.
func CheckDirectoryAccess(name, path string, accessBits uint32) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, accessBits); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (access ok)", path)}
}

// CheckFreeSpace reports the free space on the volume holding path.
func CheckFreeSpace(name, path string) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}

	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%s free on %s", humanize.IBytes(free), path)
	if free < lowSpaceThreshold {
		return Result{Name: name, Detail: detail + " (low)"}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckSystemDeps evaluates the external binary requirements. Both the
// daemon and the CLI status command use this to avoid duplicating the
// requirements list.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.Requirements(cfg))
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
