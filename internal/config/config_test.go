package config

import (
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/crane-telemetry/internal/history"
	"github.com/roman-kulish/crane-telemetry/internal/kinematics"
	"github.com/roman-kulish/crane-telemetry/internal/telemetry"
)

type testConfig struct {
	Settings      Settings            `yaml:"settings"`
	Apparatus     ApparatusConfig     `yaml:"apparatus"`
	Interpolation InterpolationConfig `yaml:"interpolation"`
	Playback      PlaybackConfig      `yaml:"playback"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
settings:
  logLevel: debug
apparatus:
  initialAngle: 280
  finalAngle: 100
  hookHeight:
    min: 0
    max: 52
playback:
  range: 7d
  speed: 4
  statusInterval: 250ms
`)

	c := testConfig{
		Apparatus:     DefaultApparatus(),
		Interpolation: DefaultInterpolation(),
		Playback:      DefaultPlayback(),
	}
	require.NoError(t, Load(path, &c))

	assert.Equal(t, slog.LevelDebug, c.Settings.LogLevel)
	assert.Equal(t, 52.0, c.Apparatus.HookHeight.Max)
	assert.Equal(t, 45.0, c.Apparatus.BoomRadius.Max, "untouched sections keep defaults")
	assert.Equal(t, history.LastWeek, c.Playback.Range)
	assert.Equal(t, Duration(250*time.Millisecond), c.Playback.StatusInterval)
	assert.Equal(t, kinematics.DefaultEaseFactor, c.Interpolation.EaseFactor)

	n := c.Apparatus.Normalizer()
	assert.True(t, n.Arc.Wraps())
	require.NoError(t, c.Apparatus.Validate())
	require.NoError(t, c.Playback.Validate())
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "settings:\n  verbose: true\n")

	var c testConfig
	assert.Error(t, Load(path, &c))
}

func TestLoad_EmptyFile(t *testing.T) {
	c := testConfig{Playback: DefaultPlayback()}
	require.NoError(t, Load(writeConfig(t, ""), &c))
	assert.Equal(t, history.LastDay, c.Playback.Range)
}

func TestLoad_MissingFile(t *testing.T) {
	var c testConfig
	assert.Error(t, Load(filepath.Join(t.TempDir(), "missing.yaml"), &c))
}

func TestValidate(t *testing.T) {
	a := DefaultApparatus()
	a.BoomRadius = kinematics.Envelope{Min: 10, Max: 10}
	assert.Error(t, a.Validate())

	i := DefaultInterpolation()
	require.NoError(t, i.Validate())
	i.EaseFactor = 1
	assert.Error(t, i.Validate())

	f := DefaultFeed()
	require.NoError(t, f.Validate())
	f.BaudRate = 0
	assert.Error(t, f.Validate())

	s := DefaultStorage()
	require.NoError(t, s.Validate())
	s.Database = ""
	assert.Error(t, s.Validate())

	p := DefaultPlayback()
	require.NoError(t, p.Validate())
	p.Range = "1y"
	assert.Error(t, p.Validate())

	p = DefaultPlayback()
	p.Speed = 0
	assert.Error(t, p.Validate())

	start, end := time.Now(), time.Now().Add(-time.Hour)
	p = DefaultPlayback()
	p.Start, p.End = &start, &end
	assert.Error(t, p.Validate())
}

func TestApparatusConfig_ValidateAngles(t *testing.T) {
	tests := []struct {
		name         string
		initial, end float64
		wantErr      bool
	}{
		{"default", 0, 180, false},
		{"symmetric about zero", -30, 30, false},
		{"both negative", -90, -180, false},
		{"nan", math.NaN(), 180, true},
		{"infinite", 0, math.Inf(1), true},
		{"empty after reduction", 350, -10, true},
		{"full turn", 0, 360, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := DefaultApparatus()
			a.InitialAngle, a.FinalAngle = tt.initial, tt.end
			if tt.wantErr {
				assert.Error(t, a.Validate())
				return
			}
			require.NoError(t, a.Validate())

			arc := a.Normalizer().Arc
			assert.GreaterOrEqual(t, arc.Start, 0.0)
			assert.Less(t, arc.Start, 360.0)
			assert.GreaterOrEqual(t, arc.End, 0.0)
			assert.Less(t, arc.End, 360.0)
		})
	}
}

func TestLoad_NonFiniteAngle(t *testing.T) {
	path := writeConfig(t, "initialAngle: .nan\nfinalAngle: 180\n")

	a := DefaultApparatus()
	require.NoError(t, Load(path, &a))
	assert.ErrorContains(t, a.Validate(), "initial angle")
}

func TestPlaybackConfig_Query(t *testing.T) {
	now := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)

	p := DefaultPlayback()
	p.Range = history.LastHour
	q := p.Query(now)
	assert.Equal(t, now.Add(-time.Hour), q.Start)
	assert.Equal(t, now, q.End)
	assert.Equal(t, telemetry.Tags(), q.Tags)
	assert.Equal(t, DefaultMaxSamples, q.MaxSamples)
	assert.True(t, q.Downsample)

	start := now.Add(-3 * time.Hour)
	p.Range = history.Custom
	p.Start = &start
	q = p.Query(now)
	assert.Equal(t, now.Add(-24*time.Hour), q.Start, "custom range without an end falls back to the last day")
}

func TestStorageConfig_Path(t *testing.T) {
	dir := t.TempDir()

	s := DefaultStorage()
	s.DataDirectory = dir
	path, err := s.Path()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultDatabase), path)

	s.DataDirectory = filepath.Join(dir, "missing")
	_, err = s.Path()
	assert.Error(t, err)
}

func TestFeedConfig_OpenStdin(t *testing.T) {
	f := DefaultFeed()
	r, name, err := f.Open()
	require.NoError(t, err)
	assert.Equal(t, "stdin", name)
	assert.NoError(t, r.Close())
}
