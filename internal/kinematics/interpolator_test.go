package kinematics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpolator_ConvergesWithoutOvershoot(t *testing.T) {
	interp := NewInterpolator()
	interp.SetTarget(BoomProgress, 100)

	ticks := 0
	prev := interp.Displayed(BoomProgress)
	for interp.Displayed(BoomProgress) != 100 {
		interp.Tick()
		ticks++

		d := interp.Displayed(BoomProgress)
		require.LessOrEqual(t, d, 100.0, "overshoot after %d ticks", ticks)
		require.Greater(t, d, prev, "not monotonic after %d ticks", ticks)
		prev = d

		require.Less(t, ticks, 200, "did not converge")
	}

	// 100 * 0.92^n < 0.01 first holds at n = 111
	assert.Equal(t, 111, ticks)
	assert.Equal(t, 100.0, interp.Displayed(BoomProgress))
	assert.True(t, interp.Settled())
}

func TestInterpolator_SetTargetDoesNotMoveDisplayed(t *testing.T) {
	interp := NewInterpolator()
	interp.SetTarget(HookProgress, 50)
	interp.SetTarget(HookProgress, 70)

	assert.Equal(t, 0.0, interp.Displayed(HookProgress))
	assert.Equal(t, 70.0, interp.Target(HookProgress))
	assert.False(t, interp.Settled())
}

func TestInterpolator_FollowsLatestTarget(t *testing.T) {
	interp := NewInterpolator()
	interp.SetTarget(BoomProgress, 100)
	for range 10 {
		interp.Tick()
	}
	mid := interp.Displayed(BoomProgress)

	interp.SetTarget(BoomProgress, 20)
	prev := mid
	for range 300 {
		interp.Tick()
		d := interp.Displayed(BoomProgress)
		require.GreaterOrEqual(t, d, 20.0)
		if mid > 20 {
			require.LessOrEqual(t, d, prev)
		}
		prev = d
	}
	assert.Equal(t, 20.0, interp.Displayed(BoomProgress))
}

func TestInterpolator_ChannelsIndependent(t *testing.T) {
	interp := NewInterpolator(WithEaseFactor(0.5), WithSnapThreshold(0.001))
	interp.SetTarget(Rotation, 90)

	interp.Tick()
	assert.Equal(t, 45.0, interp.Displayed(Rotation))
	assert.Equal(t, 0.0, interp.Displayed(BoomProgress))
	assert.Equal(t, 0.0, interp.Displayed(HookProgress))
}

func TestInterpolator_Bounds(t *testing.T) {
	interp := NewInterpolator()

	interp.SetTarget(BoomProgress, 150)
	assert.Equal(t, 100.0, interp.Target(BoomProgress))

	interp.SetTarget(HookProgress, -5)
	assert.Equal(t, 0.0, interp.Target(HookProgress))

	interp.SetTarget(Rotation, -10)
	assert.Equal(t, 350.0, interp.Target(Rotation))

	interp.SetTarget(Rotation, math.NaN())
	interp.SetTarget(BoomProgress, math.Inf(1))
	assert.Equal(t, 350.0, interp.Target(Rotation))
	assert.Equal(t, 100.0, interp.Target(BoomProgress))

	for range 500 {
		interp.Tick()
		r := interp.Displayed(Rotation)
		require.GreaterOrEqual(t, r, 0.0)
		require.Less(t, r, 360.0)
	}
}

func TestInterpolator_InvalidOptionsIgnored(t *testing.T) {
	interp := NewInterpolator(WithEaseFactor(1.5), WithEaseFactor(0), WithSnapThreshold(-1))
	assert.Equal(t, DefaultEaseFactor, interp.alpha)
	assert.Equal(t, DefaultSnapThreshold, interp.epsilon)
}

func TestNewState(t *testing.T) {
	g := Geometry{
		Arc:        NewArc(0, 180),
		BoomRadius: Envelope{Min: 0, Max: 40},
		HookHeight: Envelope{Min: 0, Max: 47},
	}

	interp := NewInterpolator(WithEaseFactor(0.5), WithSnapThreshold(1000))
	interp.SetTarget(Rotation, 90)
	interp.SetTarget(BoomProgress, 50)
	interp.SetTarget(HookProgress, 100)
	interp.Tick() // snaps everything

	s := NewState(g, interp, Flags{Spreader: true, GrabMode: true, GrabLeverClose: true, LoadAttached: true})

	assert.Equal(t, 90.0, s.Rotation)
	assert.Equal(t, 270.0, s.Heading)
	assert.InDelta(t, 50.0, s.RotationProgress, 1e-9)
	assert.InDelta(t, 20.0, s.BoomRadius, 1e-9)
	assert.InDelta(t, 0.0, s.HookHeight, 1e-9)
	assert.InDelta(t, 20.0, s.TipX, 1e-9)
	assert.InDelta(t, 0.0, s.TipY, 1e-9)
	assert.Equal(t, Spreader, s.Accessory)
	assert.Equal(t, GrabClosing, s.Grab)
	assert.True(t, s.LoadAttached)
}

func TestEnvelope(t *testing.T) {
	e := Envelope{Min: 10, Max: 30}
	assert.Equal(t, 0.0, e.Percent(5))
	assert.Equal(t, 50.0, e.Percent(20))
	assert.Equal(t, 100.0, e.Percent(99))
	assert.Equal(t, 20.0, e.Value(50))
	assert.Equal(t, 0.0, Envelope{Min: 5, Max: 5}.Percent(5))
}
