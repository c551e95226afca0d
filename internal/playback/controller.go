// Package playback drives frame-by-frame replay of reconstructed history.
package playback

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/roman-kulish/crane-telemetry/internal/history"
	"github.com/roman-kulish/crane-telemetry/internal/telemetry"
	"github.com/roman-kulish/crane-telemetry/internal/timeutil"
)

const (
	// DefaultSpeed advances one frame per second
	DefaultSpeed = 1.0

	minInterval = time.Millisecond
)

// ErrInvalidSpeed is returned when the playback speed is not a positive number
var ErrInvalidSpeed = errors.New("playback speed must be a positive number")

// Sink consumes the readings of each applied frame
type Sink interface {
	Apply(r telemetry.Readings)
}

// WithLogger sets the logger for the controller
func WithLogger(logger *slog.Logger) func(*Controller) {
	return func(c *Controller) {
		c.logger = logger.With(slog.String("component", "playback"))
	}
}

// WithClock sets the clock driving the frame timer
func WithClock(clock timeutil.Clock) func(*Controller) {
	return func(c *Controller) {
		c.loop = timeutil.NewLoop(clock)
	}
}

// WithSpeed sets the initial playback speed. Invalid speeds are ignored.
func WithSpeed(speed float64) func(*Controller) {
	return func(c *Controller) {
		if validSpeed(speed) {
			c.speed = speed
		}
	}
}

// WithOnFrame registers an observer called after every applied frame
func WithOnFrame(fn func(index int, frame history.Frame)) func(*Controller) {
	return func(c *Controller) {
		c.onFrame = fn
	}
}

// Controller owns a playback session: the loaded frames, the current index
// and the timer advancing it. Every applied frame is fed to the sink, the
// same path live readings take.
type Controller struct {
	sink Sink
	loop *timeutil.Loop

	mu      sync.Mutex
	frames  []history.Frame
	index   int
	speed   float64
	playing bool
	gen     uint64 // invalidates ticks scheduled by a previous run

	onFrame func(int, history.Frame)
	logger  *slog.Logger
}

// NewController creates a new stopped Controller with no frames
func NewController(sink Sink, options ...func(*Controller)) *Controller {
	c := Controller{
		sink:   sink,
		loop:   timeutil.NewLoop(timeutil.RealClock{}),
		speed:  DefaultSpeed,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&c)
	}

	return &c
}

// Load replaces the session frames, stops playback and applies the first
// frame, if any.
func (c *Controller) Load(frames []history.Frame) {
	c.mu.Lock()
	c.stop()
	c.frames = slices.Clone(frames)
	c.index = 0
	notify := c.applyCurrent()
	c.mu.Unlock()

	c.logger.Info("frames loaded", slog.Int("frames", len(frames)))
	notify()
}

// Play starts advancing one frame per 1/speed seconds. It is a no-op when
// already playing, when no frames are loaded or when the last frame is shown.
func (c *Controller) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.playing || c.index >= len(c.frames)-1 {
		return
	}
	c.start()
	c.logger.Debug("playing", slog.Int("index", c.index), slog.Float64("speed", c.speed))
}

// Pause stops advancing, keeping the current index. It is a no-op when stopped.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stop() {
		c.logger.Debug("paused", slog.Int("index", c.index))
	}
}

// Seek clamps index into the loaded range, applies that frame and makes it
// current. The play state is unchanged.
func (c *Controller) Seek(index int) {
	c.mu.Lock()
	notify := c.seek(index)
	c.mu.Unlock()

	notify()
}

// Skip seeks relative to the current index
func (c *Controller) Skip(delta int) {
	c.mu.Lock()
	n := len(c.frames)
	notify := c.seek(c.index + max(-n, min(delta, n)))
	c.mu.Unlock()

	notify()
}

// SetSpeed changes the playback speed. While playing the frame timer is
// rescheduled in place: ticks of the old period are dropped and only the new
// period is ever active.
func (c *Controller) SetSpeed(speed float64) error {
	if !validSpeed(speed) {
		return ErrInvalidSpeed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.speed = speed
	if c.playing {
		c.loop.Reset(c.interval())
		c.logger.Debug("speed changed", slog.Float64("speed", speed))
	}
	return nil
}

// Close stops playback and discards the loaded frames
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stop()
	c.frames = nil
	c.index = 0
}

// Index returns the current frame index
func (c *Controller) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Len returns the number of loaded frames
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

// Playing returns true while the frame timer is running
func (c *Controller) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Speed returns the playback speed
func (c *Controller) Speed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

// Frame returns the current frame, false if no frames are loaded
func (c *Controller) Frame() (history.Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.frames) == 0 {
		return history.Frame{}, false
	}
	return c.frames[c.index], true
}

func (c *Controller) start() {
	c.playing = true
	c.gen++
	gen := c.gen
	c.loop.Start(c.interval(), func() { c.advance(gen) })
}

func (c *Controller) stop() bool {
	if !c.playing {
		return false
	}
	c.playing = false
	c.gen++
	c.loop.Stop()
	return true
}

func (c *Controller) advance(gen uint64) {
	c.mu.Lock()
	if !c.playing || gen != c.gen {
		c.mu.Unlock()
		return
	}

	if c.index >= len(c.frames)-1 {
		c.stop()
		c.mu.Unlock()
		return
	}

	c.index++
	notify := c.applyCurrent()
	if c.index == len(c.frames)-1 {
		c.stop()
		c.logger.Debug("reached last frame", slog.Int("index", c.index))
	}
	c.mu.Unlock()

	notify()
}

func (c *Controller) seek(index int) func() {
	if len(c.frames) == 0 {
		return func() {}
	}

	c.index = max(0, min(index, len(c.frames)-1))
	return c.applyCurrent()
}

// applyCurrent feeds the current frame to the sink and returns the observer
// notification, to be run once the lock is released.
func (c *Controller) applyCurrent() func() {
	if len(c.frames) == 0 {
		return func() {}
	}

	index, frame := c.index, c.frames[c.index]
	if c.sink != nil {
		c.sink.Apply(frame.Readings)
	}

	if c.onFrame == nil {
		return func() {}
	}
	return func() { c.onFrame(index, frame) }
}

func (c *Controller) interval() time.Duration {
	return max(time.Duration(float64(time.Second)/c.speed), minInterval)
}

func validSpeed(speed float64) bool {
	return speed > 0 && !math.IsInf(speed, 0) && !math.IsNaN(speed)
}
