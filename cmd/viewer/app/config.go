package app

import (
	"fmt"
	"strings"

	"github.com/roman-kulish/crane-telemetry/internal/config"
)

const (
	ModeLive    = "live"
	ModeHistory = "history"
)

// Config represents the viewer configuration
type Config struct {
	Settings      config.Settings            `yaml:"settings"`
	Mode          string                     `yaml:"mode"`
	Apparatus     config.ApparatusConfig     `yaml:"apparatus"`
	Interpolation config.InterpolationConfig `yaml:"interpolation"`
	Feed          config.FeedConfig          `yaml:"feed"`
	Storage       config.StorageConfig       `yaml:"storage"`
	Playback      config.PlaybackConfig      `yaml:"playback"`
}

// LoadConfig reads the configuration file at path on top of the defaults
func LoadConfig(path string) (*Config, error) {
	c := Config{
		Mode:          ModeLive,
		Apparatus:     config.DefaultApparatus(),
		Interpolation: config.DefaultInterpolation(),
		Feed:          config.DefaultFeed(),
		Storage:       config.DefaultStorage(),
		Playback:      config.DefaultPlayback(),
	}

	if err := config.Load(path, &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &c, nil
}

func (c *Config) Validate() error {
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	if c.Mode != ModeLive && c.Mode != ModeHistory {
		return fmt.Errorf("unknown mode '%s', expected '%s' or '%s'", c.Mode, ModeLive, ModeHistory)
	}

	validators := []interface{ Validate() error }{
		&c.Apparatus,
		&c.Interpolation,
		&c.Feed,
		&c.Storage,
		&c.Playback,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
