package app

import (
	"fmt"

	"github.com/roman-kulish/crane-telemetry/internal/config"
)

// Config represents the recorder configuration
type Config struct {
	Settings config.Settings      `yaml:"settings"`
	Feed     config.FeedConfig    `yaml:"feed"`
	Storage  config.StorageConfig `yaml:"storage"`
}

// LoadConfig reads the configuration file at path on top of the defaults
func LoadConfig(path string) (*Config, error) {
	c := Config{
		Feed:    config.DefaultFeed(),
		Storage: config.DefaultStorage(),
	}

	if err := config.Load(path, &c); err != nil {
		return nil, err
	}

	if err := c.Feed.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &c, nil
}
