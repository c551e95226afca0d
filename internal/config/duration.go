package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration read from its string form ("500ms", "2s", "1m")
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	duration, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("config.Duration: failed to parse: %s", err)
	}

	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Validate checks the duration is not negative
func (d Duration) Validate() error {
	if d < 0 {
		return fmt.Errorf("config.Duration: must not be negative: %s", time.Duration(d))
	}
	return nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}
