package config

import (
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.InputDir, err = expandPath(strings.TrimSpace(c.Paths.InputDir)); err != nil {
		return err
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return err
	}

	statusFile := strings.TrimSpace(c.Paths.StatusFile)
	if statusFile == "" {
		// Keep the document next to the outputs so the reporting endpoint and
		// independent readers find both under one mount.
		statusFile = filepath.Join(c.Paths.OutputDir, StatusFileName)
	}
	if c.Paths.StatusFile, err = expandPath(statusFile); err != nil {
		return err
	}

	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)

	if c.Encoder.DeviceDir, err = expandPath(strings.TrimSpace(c.Encoder.DeviceDir)); err != nil {
		return err
	}
	c.Encoder.Device = strings.TrimSpace(c.Encoder.Device)
	c.Encoder.Preset = strings.TrimSpace(c.Encoder.Preset)
	c.Encoder.AudioBitrate = strings.TrimSpace(c.Encoder.AudioBitrate)

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}

// HistoryDBPath returns the path of the conversion history database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.LogDir, "history.db")
}
