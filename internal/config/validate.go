package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLoudness(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLoudness() error {
	if c.Loudness.AnalysisTargetI >= 0 {
		return errors.New("loudness.analysis_target_i must be negative (LUFS)")
	}
	if c.Loudness.TruePeak > 0 {
		return errors.New("loudness.true_peak must be zero or negative (dBTP)")
	}
	if c.Loudness.LoudnessRange <= 0 {
		return errors.New("loudness.loudness_range must be positive")
	}
	if c.Loudness.SampleRate <= 0 {
		return errors.New("loudness.sample_rate must be positive")
	}
	if c.Loudness.Channels != 1 && c.Loudness.Channels != 2 {
		return errors.New("loudness.channels must be 1 or 2")
	}
	return nil
}

func (c *Config) validateExport() error {
	if c.Export.MP3Quality < 0 || c.Export.MP3Quality > 9 {
		return errors.New("export.mp3_quality must be between 0 (best) and 9 (worst)")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.NormalizeJobs < 1 {
		return errors.New("workflow.normalize_jobs must be at least 1")
	}
	if c.Workflow.NormalizeJobs > maxNormalizeJobs {
		return fmt.Errorf("workflow.normalize_jobs must not exceed %d", maxNormalizeJobs)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic != "" && c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive when notifications.ntfy_topic is set")
	}
	return nil
}
