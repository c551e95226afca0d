package kinematics

import "math"

// GrabAction is the motion requested from the motor grab levers
type GrabAction uint8

const (
	GrabIdle GrabAction = iota
	GrabOpening
	GrabClosing
)

func (g GrabAction) String() string {
	switch g {
	case GrabOpening:
		return "opening"
	case GrabClosing:
		return "closing"
	default:
		return "idle"
	}
}

// Envelope is the physical working range of a linear degree of freedom
type Envelope struct {
	Min float64 `yaml:"min"` // Lower physical limit, in meters
	Max float64 `yaml:"max"` // Upper physical limit, in meters
}

// Clamp brings v within the envelope
func (e Envelope) Clamp(v float64) float64 {
	return clamp(v, e.Min, e.Max)
}

// Percent rescales v, after clamping, onto [0,100]
func (e Envelope) Percent(v float64) float64 {
	span := e.Max - e.Min
	if span <= 0 {
		return 0
	}
	return (e.Clamp(v) - e.Min) / span * 100
}

// Value maps a percentage back onto the envelope
func (e Envelope) Value(percent float64) float64 {
	return e.Min + (e.Max-e.Min)*clamp(percent, 0, 100)/100
}

// Geometry describes the configured apparatus limits
type Geometry struct {
	Arc        Arc
	BoomRadius Envelope
	HookHeight Envelope
}

// Flags holds the immediate, unsmoothed telemetry values
type Flags struct {
	LoadAttached    bool
	NetLoad         float64
	HoistSpeed      float64
	Twinlift        bool
	Spreader        bool
	ContainerLocked bool
	GrabMode        bool
	GrabLeverClose  bool
	GrabLeverOpen   bool
}

// State is the externally visible kinematic snapshot. It is a pure function
// of the interpolated channels, the immediate flags and the geometry.
type State struct {
	Rotation         float64    `json:"rotation"`         // Displayed slewing angle in degrees
	Heading          float64    `json:"heading"`          // Sign-inverted slewing angle for screen-space rendering
	RotationProgress float64    `json:"rotationProgress"` // Slewing progress along the configured arc, 0-100
	BoomProgress     float64    `json:"boomProgress"`     // Boom radius progress, 0-100
	HookProgress     float64    `json:"hookProgress"`     // Rope out progress, 0-100
	BoomRadius       float64    `json:"boomRadius"`       // Boom radius in meters
	HookHeight       float64    `json:"hookHeight"`       // Hook height in meters
	TipX             float64    `json:"tipX"`             // Boom tip position east of the slewing centre, in meters
	TipY             float64    `json:"tipY"`             // Boom tip position north of the slewing centre, in meters
	LoadAttached     bool       `json:"loadAttached"`
	NetLoad          float64    `json:"netLoad"`
	HoistSpeed       float64    `json:"hoistSpeed"`
	Accessory        Accessory  `json:"accessory"`
	ContainerLocked  bool       `json:"containerLocked"`
	Grab             GrabAction `json:"grab"`
}

// NewState computes a snapshot from the current displayed channel values
func NewState(g Geometry, interp *Interpolator, f Flags) State {
	rotation := interp.Displayed(Rotation)
	boom := interp.Displayed(BoomProgress)
	hook := interp.Displayed(HookProgress)

	radius := g.BoomRadius.Value(boom)
	rad := rotation * math.Pi / 180

	return State{
		Rotation:         rotation,
		Heading:          NormalizeAngle(-rotation),
		RotationProgress: g.Arc.Progress(rotation) * 100,
		BoomProgress:     boom,
		HookProgress:     hook,
		BoomRadius:       radius,
		HookHeight:       g.HookHeight.Value(100 - hook),
		TipX:             radius * math.Sin(rad),
		TipY:             radius * math.Cos(rad),
		LoadAttached:     f.LoadAttached,
		NetLoad:          f.NetLoad,
		HoistSpeed:       f.HoistSpeed,
		Accessory:        Classify(f.Twinlift, f.Spreader, f.GrabMode),
		ContainerLocked:  f.ContainerLocked,
		Grab:             grabAction(f.GrabLeverOpen, f.GrabLeverClose),
	}
}

func grabAction(open, close bool) GrabAction {
	switch {
	case open && !close:
		return GrabOpening
	case close && !open:
		return GrabClosing
	default:
		return GrabIdle
	}
}
