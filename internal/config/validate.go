package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.InputDir == "" {
		return errors.New("paths.input_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.InputDir == c.Paths.OutputDir {
		return errors.New("paths.input_dir and paths.output_dir must be distinct trees")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if c.Encoder.Quality < 1 || c.Encoder.Quality > 51 {
		return fmt.Errorf("encoder.quality must be between 1 and 51, got %d", c.Encoder.Quality)
	}
	if c.Encoder.Preset == "" {
		return errors.New("encoder.preset must be set")
	}
	if c.Encoder.AudioBitrate == "" {
		return errors.New("encoder.audio_bitrate must be set")
	}
	if c.Encoder.HardwareEnabled {
		if c.Encoder.DeviceDir == "" {
			return errors.New("encoder.device_dir must be set when hardware encoding is enabled")
		}
		if c.Encoder.Device == "" {
			return errors.New("encoder.device must be set when hardware encoding is enabled")
		}
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.ScanInterval <= 0 {
		return errors.New("workflow.scan_interval must be positive")
	}
	if c.Workflow.CompletedHold < 0 {
		return errors.New("workflow.completed_hold must not be negative")
	}
	if c.Workflow.ErrorHold < 0 {
		return errors.New("workflow.error_hold must not be negative")
	}
	if c.Workflow.EncodeTimeout < 0 {
		return errors.New("workflow.encode_timeout must not be negative")
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.Enabled && c.History.MaxEntries <= 0 {
		return errors.New("history.max_entries must be positive when history is enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
}
