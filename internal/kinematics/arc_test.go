package kinematics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArc_ProgressNonWrapping(t *testing.T) {
	arc := NewArc(0, 180)

	tests := []struct {
		name    string
		current float64
		want    float64
	}{
		{"start", 0, 0},
		{"end", 180, 1},
		{"middle", 90, 0.5},
		{"ten degrees", 10, 10.0 / 180},
		{"below start clamps", -30, 0},
		{"above end clamps", 350, 1},
		{"nan", math.NaN(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, arc.Progress(tt.current), 1e-12)
		})
	}
}

func TestArc_ProgressNonWrappingBoundedAndMonotonic(t *testing.T) {
	for _, arc := range []Arc{NewArc(0, 180), NewArc(45, 90), NewArc(10, 350)} {
		prev := -1.0
		for current := -720.0; current <= 720.0; current += 0.5 {
			p := arc.Progress(current)
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 1.0)

			if current >= arc.Start && current <= arc.End {
				assert.GreaterOrEqual(t, p, prev, "arc %v at %v", arc, current)
				prev = p
			}
		}
	}
}

func TestArc_ProgressDegenerate(t *testing.T) {
	arc := NewArc(90, 90)
	assert.Equal(t, 0.0, arc.Progress(45))
	assert.Equal(t, 0.0, arc.Progress(90))
	assert.Equal(t, 1.0, arc.Progress(91))
}

func TestArc_ProgressWrappingEndpoints(t *testing.T) {
	for _, arc := range []Arc{NewArc(280, 100), NewArc(350, 10), NewArc(181, 179), NewArc(270, 0)} {
		assert.Equal(t, 0.0, arc.Progress(arc.Start), "arc %v", arc)
		assert.Equal(t, 1.0, arc.Progress(arc.End), "arc %v", arc)
	}
}

func TestArc_ProgressWrapping(t *testing.T) {
	arc := NewArc(280, 100) // arc length 180

	tests := []struct {
		name    string
		current float64
		want    float64
	}{
		{"before seam", 310, 30.0 / 180},
		{"at seam", 0, 80.0 / 180},
		{"after seam", 40, 120.0 / 180},
		{"negative angle on arc", -50, 30.0 / 180},
		{"outside nearer end", 150, 1},
		{"outside nearer start", 250, 0},
		{"outside tie goes to start", 190, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, arc.Progress(tt.current), 1e-12)
		})
	}
}

func TestNewArc_NormalizesEndpoints(t *testing.T) {
	tests := []struct {
		name       string
		start, end float64
		want       Arc
		wraps      bool
	}{
		{"symmetric about zero", -30, 30, Arc{Start: 330, End: 30}, true},
		{"both negative", -90, -180, Arc{Start: 270, End: 180}, true},
		{"same angle after reduction", 350, -10, Arc{Start: 350, End: 350}, false},
		{"start above full turn", 400, 100, Arc{Start: 40, End: 100}, false},
		{"already reduced", 0, 180, Arc{Start: 0, End: 180}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arc := NewArc(tt.start, tt.end)
			assert.Equal(t, tt.want, arc)
			assert.Equal(t, tt.wraps, arc.Wraps())
		})
	}
}

func TestArc_ProgressUnreducedEndpoints(t *testing.T) {
	tests := []struct {
		name    string
		arc     Arc
		current float64
		want    float64
	}{
		{"symmetric arc, reading -20 reduced", NewArc(-30, 30), 340, 10.0 / 60},
		{"symmetric arc, raw reading -20", NewArc(-30, 30), -20, 10.0 / 60},
		{"symmetric arc, centre", NewArc(-30, 30), 0, 0.5},
		{"both negative", NewArc(-90, -180), 300, 30.0 / 270},
		{"start above full turn", NewArc(400, 100), 0, 0},
		{"start above full turn, middle", NewArc(400, 100), 70, 0.5},
		{"same angle after reduction", NewArc(350, -10), 355, 1},
		{"literal outside range", Arc{Start: -30, End: 30}, 340, 10.0 / 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.arc.Progress(tt.current), 1e-12)
		})
	}
}

func TestArc_ProgressAlwaysBoundedAndFinite(t *testing.T) {
	endpoints := []float64{-720, -360, -180, -90, -30, -10, 0, 10, 30, 90, 180, 270, 350, 360, 400, 720}
	for _, start := range endpoints {
		for _, end := range endpoints {
			arc := NewArc(start, end)
			for current := -720.0; current <= 720.0; current += 2.5 {
				p := arc.Progress(current)
				if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1 {
					t.Fatalf("NewArc(%g, %g).Progress(%g) = %g, want finite value in [0,1]", start, end, current, p)
				}
			}
		}
	}
}

func TestArc_ProgressNonFiniteEndpoints(t *testing.T) {
	assert.Equal(t, 0.0, NewArc(math.NaN(), 180).Progress(90))
	assert.Equal(t, 0.0, Arc{Start: 0, End: math.Inf(1)}.Progress(90))
}

func TestArc_Angle(t *testing.T) {
	assert.InDelta(t, 90.0, NewArc(0, 180).Angle(0.5), 1e-12)
	assert.InDelta(t, 0.0, NewArc(0, 180).Angle(0), 1e-12)

	// not wrap-aware: 280 -> 100 is interpolated through 190
	assert.InDelta(t, 190.0, NewArc(280, 100).Angle(0.5), 1e-12)
	assert.InDelta(t, 340.0, NewArc(-20, 100).Angle(0), 1e-12)
}

func TestNormalizeAngle(t *testing.T) {
	assert.Equal(t, 0.0, NormalizeAngle(360))
	assert.Equal(t, 350.0, NormalizeAngle(-10))
	assert.Equal(t, 10.0, NormalizeAngle(730))
	assert.Equal(t, 0.0, NormalizeAngle(-1e-20))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		twinlift, spreader, grab bool
		want                     Accessory
	}{
		{false, false, false, Hook},
		{false, false, true, Grab},
		{false, true, false, Spreader},
		{false, true, true, Spreader},
		{true, false, false, Twinlift},
		{true, true, true, Twinlift},
		{true, false, true, Twinlift},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.twinlift, tt.spreader, tt.grab))
		})
	}
}
