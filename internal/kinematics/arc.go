package kinematics

import "math"

const fullTurn = 360.0

// Arc is a directed angular range on a 360° periodic scale, used to map a
// slewing angle onto a bounded progress value. When Start > End the arc
// crosses the 0/360 seam.
type Arc struct {
	Start float64 // Angle at which progress is 0, in degrees
	End   float64 // Angle at which progress is 1, in degrees
}

// NewArc creates a new Arc from start to end. Both endpoints are reduced
// into [0,360), so -30..30 is the wrapping arc 330..30.
func NewArc(start, end float64) Arc {
	return Arc{Start: NormalizeAngle(start), End: NormalizeAngle(end)}
}

// Wraps returns true if the arc crosses the 0/360 seam
func (a Arc) Wraps() bool {
	return a.Start > a.End
}

// Progress returns how far current lies along the arc, in [0,1].
// Angles outside a wrapping arc are clamped to the circularly nearer endpoint.
func (a Arc) Progress(current float64) float64 {
	if !finite(current) || !finite(a.Start) || !finite(a.End) {
		return 0
	}
	a = NewArc(a.Start, a.End)

	if !a.Wraps() {
		span := a.End - a.Start
		if span == 0 {
			if current <= a.Start {
				return 0
			}
			return 1
		}
		return clamp((current-a.Start)/span, 0, 1)
	}

	current = NormalizeAngle(current)
	arcLength := (fullTurn - a.Start) + a.End

	switch {
	case current >= a.Start:
		return (current - a.Start) / arcLength
	case current <= a.End:
		return ((fullTurn - a.Start) + current) / arcLength
	}

	// outside the arc: pick the nearer endpoint, start wins a tie
	if angularDistance(current, a.Start) <= angularDistance(current, a.End) {
		return 0
	}
	return 1
}

// Angle maps progress back to an angle by linear interpolation between Start
// and End. It is not wrap-aware: the pair is treated as a plain numeric range.
func (a Arc) Angle(progress float64) float64 {
	return NormalizeAngle(a.Start + (a.End-a.Start)*progress)
}

// NormalizeAngle reduces an angle into [0,360).
func NormalizeAngle(angle float64) float64 {
	r := math.Mod(angle, fullTurn)
	if r < 0 {
		r += fullTurn
	}
	if r >= fullTurn { // -tiny + 360 rounds up
		r = 0
	}
	return r
}

// angularDistance is the shortest distance between two angles around the circle
func angularDistance(a, b float64) float64 {
	d := math.Abs(math.Mod(a-b, fullTurn))
	return math.Min(d, fullTurn-d)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
