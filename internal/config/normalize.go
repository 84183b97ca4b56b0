package config

import "strings"

// normalize expands path fields and fills blanks with defaults before
// validation runs.
func (c *Config) normalize() error {
	var err error
	if c.Paths.ScratchDir, err = expandPath(valueOr(c.Paths.ScratchDir, defaultScratchDir)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(valueOr(c.Paths.LogDir, defaultLogDir)); err != nil {
		return err
	}
	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
			return err
		}
	} else {
		c.Paths.OutputDir = ""
	}

	c.Engine.Binary = valueOr(c.Engine.Binary, defaultEngineBinary)
	if strings.TrimSpace(c.Engine.Path) != "" {
		if c.Engine.Path, err = expandPath(c.Engine.Path); err != nil {
			return err
		}
	} else {
		c.Engine.Path = ""
	}

	c.Logging.Format = strings.ToLower(valueOr(c.Logging.Format, defaultLogFormat))
	c.Logging.Level = strings.ToLower(valueOr(c.Logging.Level, defaultLogLevel))
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	return nil
}

func valueOr(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
