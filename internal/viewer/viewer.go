// Package viewer orchestrates the live and history modes of the crane view:
// it owns the normalizer, the interpolator, the animation loop and the
// playback session, and guarantees that leaving a mode cancels all of its
// periodic and pending work.
package viewer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/crane-telemetry/internal/feed"
	"github.com/roman-kulish/crane-telemetry/internal/history"
	"github.com/roman-kulish/crane-telemetry/internal/kinematics"
	"github.com/roman-kulish/crane-telemetry/internal/playback"
	"github.com/roman-kulish/crane-telemetry/internal/telemetry"
	"github.com/roman-kulish/crane-telemetry/internal/timeutil"
)

// DefaultFrameRate is the number of animation ticks per second
const DefaultFrameRate = 60

// ErrNotInHistory is returned by playback operations outside history mode
var ErrNotInHistory = errors.New("playback is only available in history mode")

const (
	Idle Mode = iota
	Live
	History
)

// Mode is the data source the view is currently driven by
type Mode int

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Live:
		return "live"
	case History:
		return "history"
	default:
		return "unknown"
	}
}

// Feed is a live readings publisher
type Feed interface {
	Subscribe() (string, <-chan telemetry.Readings)
	Unsubscribe(id string)
	Status() feed.Status
}

// Status is a point-in-time view of the viewer
type Status struct {
	Mode      Mode
	Loading   bool         // History request outstanding
	Error     string       // Last history error, empty if none
	Live      *feed.Status // Feed status, set in live mode only
	Frame     int          // Current playback frame index
	Frames    int          // Loaded playback frames
	FrameTime time.Time    // Timestamp of the current frame
	Playing   bool
	Speed     float64
	State     kinematics.State
}

// WithLogger sets the logger for the viewer and the components it owns
func WithLogger(logger *slog.Logger) func(*Viewer) {
	return func(v *Viewer) {
		v.logger = logger
	}
}

// WithClock sets the clock driving the animation and playback loops
func WithClock(clock timeutil.Clock) func(*Viewer) {
	return func(v *Viewer) {
		v.clock = clock
	}
}

// WithFrameRate sets the animation frame rate
func WithFrameRate(fps float64) func(*Viewer) {
	return func(v *Viewer) {
		if fps > 0 {
			v.frameRate = fps
		}
	}
}

// WithSource sets the history source used by StartHistory
func WithSource(source history.Source) func(*Viewer) {
	return func(v *Viewer) {
		v.source = source
	}
}

// WithInterpolatorOptions configures the smoothing of displayed channels
func WithInterpolatorOptions(options ...func(*kinematics.Interpolator)) func(*Viewer) {
	return func(v *Viewer) {
		v.interpOptions = append(v.interpOptions, options...)
	}
}

// WithPlaybackSpeed sets the initial playback speed
func WithPlaybackSpeed(speed float64) func(*Viewer) {
	return func(v *Viewer) {
		v.speed = speed
	}
}

// Viewer drives a kinematic state from either a live feed or recorded
// history. Exactly one mode is active at a time.
type Viewer struct {
	interp     *kinematics.Interpolator
	normalizer *telemetry.Normalizer
	controller *playback.Controller
	loader     *history.Loader
	animation  *timeutil.Loop

	mu      sync.Mutex
	mode    Mode
	gen     uint64 // invalidates callbacks of a previous mode
	loading bool
	err     string
	feed    Feed
	subID   string

	clock         timeutil.Clock
	frameRate     float64
	speed         float64
	source        history.Source
	interpOptions []func(*kinematics.Interpolator)
	logger        *slog.Logger
}

// NewViewer creates a new idle Viewer for an apparatus with the given limits
func NewViewer(config telemetry.Config, options ...func(*Viewer)) *Viewer {
	v := Viewer{
		clock:     timeutil.RealClock{},
		frameRate: DefaultFrameRate,
		speed:     playback.DefaultSpeed,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&v)
	}

	v.interp = kinematics.NewInterpolator(v.interpOptions...)
	v.normalizer = telemetry.NewNormalizer(v.interp, config,
		telemetry.WithLogger(v.logger),
		telemetry.WithClock(v.clock))
	v.controller = playback.NewController(v.normalizer,
		playback.WithLogger(v.logger),
		playback.WithClock(v.clock),
		playback.WithSpeed(v.speed),
		playback.WithOnFrame(v.frameApplied))
	v.loader = history.NewLoader(v.source, history.WithLogger(v.logger))
	v.animation = timeutil.NewLoop(v.clock)
	v.logger = v.logger.With(slog.String("component", "viewer"))

	return &v
}

// StartLive leaves the current mode and starts applying readings published
// by f.
func (v *Viewer) StartLive(f Feed) {
	v.mu.Lock()
	defer v.mu.Unlock()

	gen := v.enter(Live)

	id, ch := f.Subscribe()
	v.feed, v.subID = f, id
	go v.consume(gen, ch)

	v.startAnimation(gen)
	v.logger.Info("live mode started", slog.String("subscriber", id))
}

// StartHistory leaves the current mode and requests the history described
// by q. The frames are loaded into the playback session once the request
// completes; a failure is reported through Status.Error.
func (v *Viewer) StartHistory(ctx context.Context, q history.Query) {
	v.mu.Lock()
	defer v.mu.Unlock()

	gen := v.enter(History)
	v.loading = true

	v.loader.Load(ctx, q, func(frames []history.Frame, err error) {
		v.historyLoaded(gen, frames, err)
	})

	v.startAnimation(gen)
	v.logger.Info("history mode started",
		slog.String("from", humanize.Time(q.Start)),
		slog.String("to", humanize.Time(q.End)))
}

// Stop leaves the current mode. No periodic or pending work of the previous
// mode survives the call.
func (v *Viewer) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.mode == Idle {
		return
	}
	v.enter(Idle)
	v.logger.Info("viewer stopped")
}

// Snapshot returns the current status and kinematic state
func (v *Viewer) Snapshot() Status {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := Status{
		Mode:    v.mode,
		Loading: v.loading,
		Error:   v.err,
		Frame:   v.controller.Index(),
		Frames:  v.controller.Len(),
		Playing: v.controller.Playing(),
		Speed:   v.controller.Speed(),
		State:   v.normalizer.State(),
	}
	if frame, ok := v.controller.Frame(); ok {
		s.FrameTime = frame.Timestamp
	}
	if v.mode == Live && v.feed != nil {
		fs := v.feed.Status()
		s.Live = &fs
	}
	return s
}

// Telemetry returns the latest readings applied in either mode
func (v *Viewer) Telemetry() *telemetry.Telemetry {
	return v.normalizer.Get()
}

// Play starts playback of the loaded history
func (v *Viewer) Play() error {
	return v.withPlayback(func(c *playback.Controller) error {
		c.Play()
		return nil
	})
}

// Pause pauses playback, keeping the current frame
func (v *Viewer) Pause() error {
	return v.withPlayback(func(c *playback.Controller) error {
		c.Pause()
		return nil
	})
}

// Seek jumps to the frame at index, clamped to the loaded range
func (v *Viewer) Seek(index int) error {
	return v.withPlayback(func(c *playback.Controller) error {
		c.Seek(index)
		return nil
	})
}

// Skip moves delta frames from the current one, clamped to the loaded range
func (v *Viewer) Skip(delta int) error {
	return v.withPlayback(func(c *playback.Controller) error {
		c.Skip(delta)
		return nil
	})
}

// SetSpeed changes the playback speed
func (v *Viewer) SetSpeed(speed float64) error {
	return v.withPlayback(func(c *playback.Controller) error {
		return c.SetSpeed(speed)
	})
}

func (v *Viewer) withPlayback(fn func(c *playback.Controller) error) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.mode != History {
		return ErrNotInHistory
	}
	return fn(v.controller)
}

// enter tears down the current mode and switches to m, returning the
// generation of the new mode
func (v *Viewer) enter(m Mode) uint64 {
	v.animation.Stop()
	v.loader.Cancel()
	v.controller.Close()

	if v.feed != nil {
		v.feed.Unsubscribe(v.subID)
		v.feed, v.subID = nil, ""
	}

	v.loading = false
	v.err = ""
	v.mode = m
	v.gen++
	return v.gen
}

func (v *Viewer) startAnimation(gen uint64) {
	interval := time.Duration(float64(time.Second) / v.frameRate)
	v.animation.Start(interval, func() { v.animate(gen) })
}

func (v *Viewer) animate(gen uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.gen {
		return
	}
	v.interp.Tick()
}

func (v *Viewer) consume(gen uint64, ch <-chan telemetry.Readings) {
	for r := range ch {
		v.mu.Lock()
		if gen != v.gen {
			v.mu.Unlock()
			return
		}
		v.normalizer.Apply(r)
		v.mu.Unlock()
	}
}

func (v *Viewer) historyLoaded(gen uint64, frames []history.Frame, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.gen {
		return
	}

	v.loading = false
	if err != nil {
		v.err = err.Error()
		return
	}

	v.controller.Load(frames)
	if len(frames) > 0 {
		v.logger.Info("history ready",
			slog.String("frames", humanize.Comma(int64(len(frames)))),
			slog.String("from", humanize.Time(frames[0].Timestamp)),
			slog.String("to", humanize.Time(frames[len(frames)-1].Timestamp)))
	} else {
		v.logger.Info("no history in the requested window")
	}
}

func (v *Viewer) frameApplied(index int, frame history.Frame) {
	v.logger.Debug("frame applied",
		slog.Int("index", index),
		slog.Time("timestamp", frame.Timestamp),
		slog.Int("readings", len(frame.Readings)))
}
