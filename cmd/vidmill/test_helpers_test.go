package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// writeTestConfig writes a minimal valid configuration file under a temp
// tree and returns its path.
func writeTestConfig(t *testing.T) (configPath, outputDir string) {
	t.Helper()
	dir := t.TempDir()
	inputDir := filepath.Join(dir, "input")
	outputDir = filepath.Join(dir, "output")
	logDir := filepath.Join(dir, "logs")
	for _, d := range []string{inputDir, outputDir, logDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	content := fmt.Sprintf(`[paths]
input_dir = %q
output_dir = %q
log_dir = %q
`, inputDir, outputDir, logDir)

	configPath = filepath.Join(dir, "vidmill.toml")
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return configPath, outputDir
}

// runCommand executes the CLI with args and returns captured stdout.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
