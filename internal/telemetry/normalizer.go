package telemetry

import (
	"io"
	"log/slog"
	"sync"

	"github.com/roman-kulish/crane-telemetry/internal/kinematics"
	"github.com/roman-kulish/crane-telemetry/internal/timeutil"
)

// Config holds the apparatus limits the normalizer maps readings into
type Config struct {
	Arc             kinematics.Arc      // Slewing arc used for rotation progress
	BoomRadius      kinematics.Envelope // Working radius envelope, in meters
	HookHeight      kinematics.Envelope // Vertical envelope, in meters
	LoadThreshold   float64             // Net load above which a load counts as attached, in tonnes
	HoistSpeedScale float64             // Multiplier converting raw hoist speed into display units
}

// DefaultConfig returns the limits of the reference harbour crane
func DefaultConfig() Config {
	return Config{
		Arc:             kinematics.NewArc(0, 180),
		BoomRadius:      kinematics.Envelope{Min: 0, Max: 45},
		HookHeight:      kinematics.Envelope{Min: 0, Max: 47},
		LoadThreshold:   0,
		HoistSpeedScale: 1.0 / 60, // m/min -> m/s
	}
}

// WithLogger sets the logger for the normalizer
func WithLogger(logger *slog.Logger) func(*Normalizer) {
	return func(n *Normalizer) {
		n.logger = logger.With(slog.String("component", "normalizer"))
	}
}

// WithClock sets the clock used to timestamp applied readings
func WithClock(clock timeutil.Clock) func(*Normalizer) {
	return func(n *Normalizer) {
		n.clock = clock
	}
}

// Normalizer maps raw readings onto interpolation targets and immediate
// flags. It is the only writer of targets; displayed values belong to the
// interpolator.
type Normalizer struct {
	config Config
	interp *kinematics.Interpolator

	mu     sync.RWMutex
	flags  kinematics.Flags
	latest Telemetry

	clock  timeutil.Clock
	logger *slog.Logger
}

// NewNormalizer creates a new Normalizer feeding the given interpolator
func NewNormalizer(interp *kinematics.Interpolator, config Config, options ...func(*Normalizer)) *Normalizer {
	n := Normalizer{
		config: config,
		interp: interp,
		clock:  timeutil.RealClock{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&n)
	}

	return &n
}

// Config returns the apparatus limits
func (n *Normalizer) Config() Config {
	return n.config
}

// Apply maps every recognised tag present in the readings. Absent tags leave
// their channels untouched; out-of-range values are clamped, never rejected.
func (n *Normalizer) Apply(r Readings) {
	if len(r) == 0 {
		return
	}

	t := Parse(r)
	t.Timestamp = n.clock.Now()

	if t.SlewAngle != nil {
		n.interp.SetTarget(kinematics.Rotation, kinematics.NormalizeAngle(*t.SlewAngle))
	}
	if t.BoomRadius != nil {
		n.interp.SetTarget(kinematics.BoomProgress, n.config.BoomRadius.Percent(*t.BoomRadius))
	}
	if t.HookHeight != nil {
		// zero height means all rope is paid out
		n.interp.SetTarget(kinematics.HookProgress, 100-n.config.HookHeight.Percent(*t.HookHeight))
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.latest.Merge(t)

	f := &n.flags
	if t.LoadAttached != nil {
		f.LoadAttached = *t.LoadAttached
	}
	if t.NetLoad != nil {
		f.NetLoad = *t.NetLoad
		f.LoadAttached = *t.NetLoad > n.config.LoadThreshold
	}
	if t.HoistSpeed != nil {
		f.HoistSpeed = *t.HoistSpeed * n.config.HoistSpeedScale
	}
	setFlag(&f.Twinlift, t.TwinliftConnected)
	setFlag(&f.Spreader, t.SpreaderConnected)
	setFlag(&f.ContainerLocked, t.ContainerLocked)
	setFlag(&f.GrabMode, t.MotorGrabMode)
	setFlag(&f.GrabLeverClose, t.GrabLeverClose)
	setFlag(&f.GrabLeverOpen, t.GrabLeverOpen)

	n.logger.Debug("readings applied", slog.Int("tags", len(r)))
}

// State returns a kinematic snapshot recomputed from the current channels
// and flags
func (n *Normalizer) State() kinematics.State {
	n.mu.RLock()
	flags := n.flags
	n.mu.RUnlock()

	return kinematics.NewState(kinematics.Geometry{
		Arc:        n.config.Arc,
		BoomRadius: n.config.BoomRadius,
		HookHeight: n.config.HookHeight,
	}, n.interp, flags)
}

// Get returns a copy of the latest merged telemetry
func (n *Normalizer) Get() *Telemetry {
	n.mu.RLock()
	defer n.mu.RUnlock()

	var t Telemetry
	t.Merge(&n.latest)
	return &t
}

func setFlag(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
