package config

import "strings"

// normalize expands user-supplied paths and fills blanks with defaults so the
// rest of the system never has to re-check them.
func (c *Config) normalize() error {
	defaults := Default()

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaults.Paths.DataDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaults.Paths.LogDir
	}

	dataDir, err := expandPath(c.Paths.DataDir)
	if err != nil {
		return err
	}
	c.Paths.DataDir = dataDir

	logDir, err := expandPath(c.Paths.LogDir)
	if err != nil {
		return err
	}
	c.Paths.LogDir = logDir

	c.Campaign.LocalAreaCode = strings.TrimSpace(c.Campaign.LocalAreaCode)
	if c.Campaign.LocalAreaCode == "" {
		c.Campaign.LocalAreaCode = defaults.Campaign.LocalAreaCode
	}

	if c.Ingest.MaxRows == 0 {
		c.Ingest.MaxRows = defaults.Ingest.MaxRows
	}
	if c.Ingest.MinBirthYear == 0 {
		c.Ingest.MinBirthYear = defaults.Ingest.MinBirthYear
	}
	if c.Ingest.PreviewRows == 0 {
		c.Ingest.PreviewRows = defaults.Ingest.PreviewRows
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaults.Logging.Format
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}

	return nil
}
