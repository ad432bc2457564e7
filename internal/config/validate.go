package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCampaign(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateCampaign() error {
	code := strings.TrimSpace(c.Campaign.LocalAreaCode)
	if code == "" {
		return errors.New("campaign.local_area_code must be set")
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return fmt.Errorf("campaign.local_area_code must be digits, got %q", code)
		}
	}
	if len(code) != 3 {
		return fmt.Errorf("campaign.local_area_code must be three digits, got %q", code)
	}
	return nil
}

func (c *Config) validateIngest() error {
	if c.Ingest.MaxRows < 1 {
		return errors.New("ingest.max_rows must be positive")
	}
	if c.Ingest.MinBirthYear < 1800 || c.Ingest.MinBirthYear > 2100 {
		return fmt.Errorf("ingest.min_birth_year out of range: %d", c.Ingest.MinBirthYear)
	}
	if c.Ingest.PreviewRows < 1 {
		return errors.New("ingest.preview_rows must be positive")
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
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
