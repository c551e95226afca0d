// Package config holds the YAML configuration sections shared by the
// commands.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/crane-telemetry/internal/feed"
	"github.com/roman-kulish/crane-telemetry/internal/history"
	"github.com/roman-kulish/crane-telemetry/internal/kinematics"
	"github.com/roman-kulish/crane-telemetry/internal/playback"
	"github.com/roman-kulish/crane-telemetry/internal/storage"
	"github.com/roman-kulish/crane-telemetry/internal/telemetry"
	"github.com/roman-kulish/crane-telemetry/internal/viewer"
)

const (
	DefaultDataDirectory  = "data"
	DefaultDatabase       = "crane_telemetry.sqlite"
	DefaultFeedBuffer     = 1024
	DefaultMaxSamples     = 100_000
	DefaultStatusInterval = Duration(time.Second)
)

// Settings represents global application settings
type Settings struct {
	LogLevel slog.Level `yaml:"logLevel"`
}

// ApparatusConfig describes the physical limits of the crane
type ApparatusConfig struct {
	InitialAngle    float64             `yaml:"initialAngle"`    // Slewing arc start, in degrees
	FinalAngle      float64             `yaml:"finalAngle"`      // Slewing arc end, in degrees
	BoomRadius      kinematics.Envelope `yaml:"boomRadius"`      // Working radius envelope, in meters
	HookHeight      kinematics.Envelope `yaml:"hookHeight"`      // Vertical envelope, in meters
	LoadThreshold   float64             `yaml:"loadThreshold"`   // Net load above which a load is attached, in tonnes
	HoistSpeedScale float64             `yaml:"hoistSpeedScale"` // Raw hoist speed multiplier
}

// InterpolationConfig tunes the smoothing of displayed values
type InterpolationConfig struct {
	EaseFactor    float64 `yaml:"easeFactor"`
	SnapThreshold float64 `yaml:"snapThreshold"`
	FrameRate     float64 `yaml:"frameRate"`
}

// FeedConfig represents the live feed transport settings
type FeedConfig struct {
	SerialPort string `yaml:"serialPort"` // Empty reads the feed from stdin
	BaudRate   int    `yaml:"baudRate"`
	BufferSize int    `yaml:"bufferSize"` // Messages buffered per subscriber
}

// StorageConfig represents storage settings
type StorageConfig struct {
	DataDirectory string `yaml:"dataDirectory"`
	Database      string `yaml:"database"`
	MaxBatchSize  int    `yaml:"maxBatchSize"`
}

// PlaybackConfig selects and replays a history window
type PlaybackConfig struct {
	Speed          float64       `yaml:"speed"`
	Range          history.Range `yaml:"range"`
	Start          *time.Time    `yaml:"start"` // Custom range start
	End            *time.Time    `yaml:"end"`   // Custom range end
	MaxSamples     int           `yaml:"maxSamples"`
	Downsample     bool          `yaml:"downsample"`
	AutoPlay       bool          `yaml:"autoPlay"`
	StatusInterval Duration      `yaml:"statusInterval"`
}

// DefaultApparatus returns the limits of the reference harbour crane
func DefaultApparatus() ApparatusConfig {
	c := telemetry.DefaultConfig()
	return ApparatusConfig{
		InitialAngle:    c.Arc.Start,
		FinalAngle:      c.Arc.End,
		BoomRadius:      c.BoomRadius,
		HookHeight:      c.HookHeight,
		LoadThreshold:   c.LoadThreshold,
		HoistSpeedScale: c.HoistSpeedScale,
	}
}

// DefaultInterpolation returns the default smoothing
func DefaultInterpolation() InterpolationConfig {
	return InterpolationConfig{
		EaseFactor:    kinematics.DefaultEaseFactor,
		SnapThreshold: kinematics.DefaultSnapThreshold,
		FrameRate:     viewer.DefaultFrameRate,
	}
}

// DefaultFeed returns the default feed settings
func DefaultFeed() FeedConfig {
	return FeedConfig{
		BaudRate:   feed.DefaultBaudRate,
		BufferSize: DefaultFeedBuffer,
	}
}

// DefaultStorage returns the default storage settings
func DefaultStorage() StorageConfig {
	return StorageConfig{
		DataDirectory: DefaultDataDirectory,
		Database:      DefaultDatabase,
		MaxBatchSize:  storage.DefaultMaxBatchSize,
	}
}

// DefaultPlayback returns the default playback settings
func DefaultPlayback() PlaybackConfig {
	return PlaybackConfig{
		Speed:          playback.DefaultSpeed,
		Range:          history.LastDay,
		MaxSamples:     DefaultMaxSamples,
		Downsample:     true,
		AutoPlay:       true,
		StatusInterval: DefaultStatusInterval,
	}
}

func (c *ApparatusConfig) Validate() error {
	for name, angle := range map[string]float64{"initial angle": c.InitialAngle, "final angle": c.FinalAngle} {
		if math.IsNaN(angle) || math.IsInf(angle, 0) {
			return fmt.Errorf("apparatus: %s must be a finite number: %g given", name, angle)
		}
	}
	if kinematics.NormalizeAngle(c.InitialAngle) == kinematics.NormalizeAngle(c.FinalAngle) {
		return fmt.Errorf("apparatus: initial and final angle describe an empty arc: %g and %g", c.InitialAngle, c.FinalAngle)
	}
	if c.BoomRadius.Max <= c.BoomRadius.Min {
		return fmt.Errorf("apparatus: boom radius max must be greater than min: %g <= %g", c.BoomRadius.Max, c.BoomRadius.Min)
	}
	if c.HookHeight.Max <= c.HookHeight.Min {
		return fmt.Errorf("apparatus: hook height max must be greater than min: %g <= %g", c.HookHeight.Max, c.HookHeight.Min)
	}
	return nil
}

// Normalizer returns the normalizer limits
func (c *ApparatusConfig) Normalizer() telemetry.Config {
	return telemetry.Config{
		Arc:             kinematics.NewArc(c.InitialAngle, c.FinalAngle),
		BoomRadius:      c.BoomRadius,
		HookHeight:      c.HookHeight,
		LoadThreshold:   c.LoadThreshold,
		HoistSpeedScale: c.HoistSpeedScale,
	}
}

func (c *InterpolationConfig) Validate() error {
	if c.EaseFactor <= 0 || c.EaseFactor >= 1 {
		return fmt.Errorf("interpolation: ease factor must be between 0 and 1: %g given", c.EaseFactor)
	}
	if c.SnapThreshold < 0 {
		return fmt.Errorf("interpolation: snap threshold must not be negative: %g given", c.SnapThreshold)
	}
	if c.FrameRate <= 0 {
		return fmt.Errorf("interpolation: frame rate must be positive: %g given", c.FrameRate)
	}
	return nil
}

// Options returns the interpolator options
func (c *InterpolationConfig) Options() []func(*kinematics.Interpolator) {
	return []func(*kinematics.Interpolator){
		kinematics.WithEaseFactor(c.EaseFactor),
		kinematics.WithSnapThreshold(c.SnapThreshold),
	}
}

func (c *FeedConfig) Validate() error {
	if c.BaudRate <= 0 {
		return fmt.Errorf("feed: baud rate must be positive: %d given", c.BaudRate)
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("feed: buffer size must not be negative: %d given", c.BufferSize)
	}
	return nil
}

// Open opens the configured transport: the serial port, or stdin when no
// port is set. The returned name identifies the source in recordings.
func (c *FeedConfig) Open() (io.ReadCloser, string, error) {
	if c.SerialPort == "" {
		return io.NopCloser(os.Stdin), "stdin", nil
	}

	port, err := feed.OpenSerial(c.SerialPort, c.BaudRate)
	if err != nil {
		return nil, "", err
	}
	return port, c.SerialPort, nil
}

func (c *StorageConfig) Validate() error {
	if c.Database == "" {
		return errors.New("storage: database file name is required")
	}
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("storage: max batch size must be positive: %d given", c.MaxBatchSize)
	}
	return nil
}

// Path returns the database path. The data directory must exist.
func (c *StorageConfig) Path() (string, error) {
	dir := c.DataDirectory
	if dir == "" {
		dir = DefaultDataDirectory
	}

	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving storage directory: %w", err)
	}

	stat, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("storage directory '%s' does not exist: %w", dir, err)
		}
		return "", fmt.Errorf("checking storage directory '%s': %w", dir, err)
	}
	if !stat.IsDir() {
		return "", fmt.Errorf("invalid storage directory '%s'", dir)
	}

	return filepath.Join(dir, c.Database), nil
}

func (c *PlaybackConfig) Validate() error {
	if c.Speed <= 0 {
		return fmt.Errorf("playback: %w: %g given", playback.ErrInvalidSpeed, c.Speed)
	}
	if _, err := history.ParseRange(string(c.Range)); err != nil {
		return fmt.Errorf("playback: %w", err)
	}
	if c.Start != nil && c.End != nil && c.End.Before(*c.Start) {
		return fmt.Errorf("playback: end %s is before start %s", c.End, c.Start)
	}
	if c.MaxSamples < 0 {
		return fmt.Errorf("playback: max samples must not be negative: %d given", c.MaxSamples)
	}
	if err := c.StatusInterval.Validate(); err != nil {
		return fmt.Errorf("playback: status interval: %w", err)
	}
	return nil
}

// Query returns the history query for the configured window ending at now
func (c *PlaybackConfig) Query(now time.Time) history.Query {
	r, err := history.ParseRange(string(c.Range))
	if err != nil {
		r = history.LastDay
	}

	start, end := r.Window(now, c.Start, c.End)
	return history.Query{
		Tags:       telemetry.Tags(),
		Start:      start,
		End:        end,
		MaxSamples: c.MaxSamples,
		Downsample: c.Downsample,
	}
}

// Load reads the YAML file at path into dst. Fields absent from the file
// keep the values dst already holds; unknown fields are rejected.
func Load(path string, dst any) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening configuration file: %w", err)
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	if err = dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding configuration file: %w", err)
	}
	return nil
}
