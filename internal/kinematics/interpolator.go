package kinematics

import (
	"fmt"
	"math"
	"sync"
)

const (
	// DefaultEaseFactor is the fraction of the remaining distance covered per tick
	DefaultEaseFactor = 0.08

	// DefaultSnapThreshold is the distance under which displayed snaps to target
	DefaultSnapThreshold = 0.01
)

// Channel identifies an independently smoothed degree of freedom
type Channel uint8

const (
	Rotation     Channel = iota // slewing angle, degrees in [0,360)
	BoomProgress                // boom radius progress, percent in [0,100]
	HookProgress                // rope out progress, percent in [0,100]

	numChannels
)

var channelNames = [numChannels]string{"rotation", "boomProgress", "hookProgress"}

func (c Channel) String() string {
	if c < numChannels {
		return channelNames[c]
	}
	return fmt.Sprintf("channel(%d)", c)
}

// Channels returns all tracked channels
func Channels() []Channel {
	return []Channel{Rotation, BoomProgress, HookProgress}
}

type channelState struct {
	target    float64
	displayed float64
}

// WithEaseFactor sets the ease-out factor. Values outside (0,1) are ignored.
func WithEaseFactor(alpha float64) func(*Interpolator) {
	return func(i *Interpolator) {
		if alpha > 0 && alpha < 1 {
			i.alpha = alpha
		}
	}
}

// WithSnapThreshold sets the distance below which displayed snaps to target.
// Negative values are ignored.
func WithSnapThreshold(epsilon float64) func(*Interpolator) {
	return func(i *Interpolator) {
		if epsilon >= 0 {
			i.epsilon = epsilon
		}
	}
}

// Interpolator advances displayed values smoothly toward moving targets.
// Targets are written by telemetry, displayed values only change via Tick.
type Interpolator struct {
	mu       sync.RWMutex
	channels [numChannels]channelState

	alpha   float64
	epsilon float64
}

// NewInterpolator creates a new Interpolator with all channels at zero
func NewInterpolator(options ...func(*Interpolator)) *Interpolator {
	i := Interpolator{
		alpha:   DefaultEaseFactor,
		epsilon: DefaultSnapThreshold,
	}

	for _, option := range options {
		option(&i)
	}

	return &i
}

// SetTarget updates the target of the channel, leaving the displayed value
// untouched. Non-finite values are ignored; others are brought within the
// channel bounds.
func (i *Interpolator) SetTarget(ch Channel, value float64) {
	if ch >= numChannels || math.IsNaN(value) || math.IsInf(value, 0) {
		return
	}

	i.mu.Lock()
	i.channels[ch].target = bound(ch, value)
	i.mu.Unlock()
}

// Tick advances every channel one step toward its target with exponential
// ease-out, snapping exactly to target once within the snap threshold.
func (i *Interpolator) Tick() {
	i.mu.Lock()
	defer i.mu.Unlock()

	for ch := range i.channels {
		c := &i.channels[ch]
		c.displayed += (c.target - c.displayed) * i.alpha
		if math.Abs(c.target-c.displayed) < i.epsilon {
			c.displayed = c.target
		}
	}
}

// Target returns the current target of the channel
func (i *Interpolator) Target(ch Channel) float64 {
	if ch >= numChannels {
		return 0
	}

	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.channels[ch].target
}

// Displayed returns the current smoothed value of the channel
func (i *Interpolator) Displayed(ch Channel) float64 {
	if ch >= numChannels {
		return 0
	}

	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.channels[ch].displayed
}

// Settled returns true when every channel displays its target
func (i *Interpolator) Settled() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()

	for _, c := range i.channels {
		if c.displayed != c.target {
			return false
		}
	}
	return true
}

func bound(ch Channel, value float64) float64 {
	if ch == Rotation {
		return NormalizeAngle(value)
	}
	return clamp(value, 0, 100)
}
