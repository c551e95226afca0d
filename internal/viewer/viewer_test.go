package viewer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/crane-telemetry/internal/feed"
	"github.com/roman-kulish/crane-telemetry/internal/history"
	"github.com/roman-kulish/crane-telemetry/internal/kinematics"
	"github.com/roman-kulish/crane-telemetry/internal/playback"
	"github.com/roman-kulish/crane-telemetry/internal/telemetry"
	"github.com/roman-kulish/crane-telemetry/internal/timeutil"
)

const (
	waitFor   = time.Second
	frameStep = time.Second / DefaultFrameRate
)

var base = time.Date(2026, 7, 1, 6, 0, 0, 0, time.UTC)

type stubSource struct {
	mu      sync.Mutex
	release chan struct{}
	samples []history.Sample
	err     error
	calls   int
}

func (s *stubSource) QuerySamples(ctx context.Context, q history.Query) (*history.Result, error) {
	s.mu.Lock()
	s.calls++
	release := s.release
	s.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &history.Result{Samples: s.samples, Count: int64(len(s.samples))}, nil
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func historySamples(n int) []history.Sample {
	samples := make([]history.Sample, 0, 2*n)
	for i := range n {
		ts := base.Add(time.Duration(i) * time.Second)
		samples = append(samples,
			history.Sample{Tag: telemetry.TagSlewAngle, Value: float64(10 * i), Timestamp: ts},
			history.Sample{Tag: telemetry.TagNetLoad, Value: i%2 == 1, Timestamp: ts},
		)
	}
	return samples
}

func newTestViewer(options ...func(*Viewer)) (*Viewer, *timeutil.MockClock) {
	clock := timeutil.NewMockClock(base)
	options = append([]func(*Viewer){WithClock(clock)}, options...)
	return NewViewer(telemetry.DefaultConfig(), options...), clock
}

func TestViewer_LiveAppliesReadings(t *testing.T) {
	v, clock := newTestViewer()
	hub := feed.NewHub()

	v.StartLive(hub)
	assert.Equal(t, Live, v.Snapshot().Mode)
	assert.Equal(t, 1, clock.ActiveTickers())

	hub.Publish(telemetry.Readings{telemetry.TagSlewAngle: 90.0, telemetry.TagSpreaderConnected: true})
	require.Eventually(t, func() bool {
		return v.interp.Target(kinematics.Rotation) == 90
	}, waitFor, time.Millisecond)

	s := v.Snapshot()
	assert.Equal(t, kinematics.Spreader, s.State.Accessory)
	require.NotNil(t, s.Live)
	assert.Equal(t, 0.0, s.State.Rotation, "displayed lags the target until animated")

	clock.Advance(frameStep)
	require.Eventually(t, func() bool {
		return v.interp.Displayed(kinematics.Rotation) > 0
	}, waitFor, time.Millisecond)
	assert.InDelta(t, 90*kinematics.DefaultEaseFactor, v.interp.Displayed(kinematics.Rotation), 1e-9)
}

type recordingFeed struct {
	*feed.Hub

	mu           sync.Mutex
	unsubscribed []string
}

func (f *recordingFeed) Unsubscribe(id string) {
	f.mu.Lock()
	f.unsubscribed = append(f.unsubscribed, id)
	f.mu.Unlock()
	f.Hub.Unsubscribe(id)
}

func TestViewer_SwitchingModesTearsDownLive(t *testing.T) {
	src := &stubSource{samples: historySamples(3)}
	v, clock := newTestViewer(WithSource(src))
	f := &recordingFeed{Hub: feed.NewHub()}

	v.StartLive(f)
	v.StartHistory(context.Background(), history.Query{Tags: telemetry.Tags()})

	f.mu.Lock()
	assert.Len(t, f.unsubscribed, 1)
	f.mu.Unlock()

	require.Eventually(t, func() bool { return v.Snapshot().Frames == 3 }, waitFor, time.Millisecond)

	// live readings published after the switch never reach the state
	f.Publish(telemetry.Readings{telemetry.TagSlewAngle: 170.0})
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 0.0, v.interp.Target(kinematics.Rotation))

	s := v.Snapshot()
	assert.Equal(t, History, s.Mode)
	assert.Nil(t, s.Live)
	assert.Equal(t, 1, clock.ActiveTickers(), "only the animation loop runs")
}

func TestViewer_HistoryPlayback(t *testing.T) {
	src := &stubSource{samples: historySamples(5)}
	v, clock := newTestViewer(WithSource(src))

	v.StartHistory(context.Background(), history.Query{})
	require.Eventually(t, func() bool { return !v.Snapshot().Loading }, waitFor, time.Millisecond)

	s := v.Snapshot()
	assert.Empty(t, s.Error)
	assert.Equal(t, 5, s.Frames)
	assert.Equal(t, 0, s.Frame)
	assert.Equal(t, base, s.FrameTime)

	require.NoError(t, v.Seek(100))
	assert.Equal(t, 4, v.Snapshot().Frame)
	assert.Equal(t, 40.0, v.interp.Target(kinematics.Rotation))
	assert.False(t, v.Snapshot().State.LoadAttached)

	require.NoError(t, v.Skip(-1))
	assert.True(t, v.Snapshot().State.LoadAttached)

	require.NoError(t, v.Seek(2))
	require.NoError(t, v.Skip(-10))
	assert.Equal(t, 0, v.Snapshot().Frame)

	require.NoError(t, v.Play())
	assert.True(t, v.Snapshot().Playing)
	assert.Equal(t, 2, clock.ActiveTickers())

	require.NoError(t, v.SetSpeed(2))
	assert.Equal(t, 2, clock.ActiveTickers())
	assert.ErrorIs(t, v.SetSpeed(0), playback.ErrInvalidSpeed)

	require.NoError(t, v.Pause())
	assert.False(t, v.Snapshot().Playing)
}

func TestViewer_HistoryError(t *testing.T) {
	v, _ := newTestViewer(WithSource(&stubSource{err: errors.New("historian unavailable")}))

	v.StartHistory(context.Background(), history.Query{})
	require.Eventually(t, func() bool { return !v.Snapshot().Loading }, waitFor, time.Millisecond)

	s := v.Snapshot()
	assert.Contains(t, s.Error, "historian unavailable")
	assert.Zero(t, s.Frames)

	// empty session: playback is a no-op
	require.NoError(t, v.Play())
	assert.False(t, v.Snapshot().Playing)
}

func TestViewer_StopDiscardsPendingHistory(t *testing.T) {
	release := make(chan struct{})
	src := &stubSource{release: release, samples: historySamples(3)}
	v, clock := newTestViewer(WithSource(src))

	v.StartHistory(context.Background(), history.Query{})
	require.Eventually(t, func() bool { return src.callCount() == 1 }, waitFor, time.Millisecond)
	assert.True(t, v.Snapshot().Loading)

	v.Stop()
	close(release)
	time.Sleep(20 * time.Millisecond)

	s := v.Snapshot()
	assert.Equal(t, Idle, s.Mode)
	assert.False(t, s.Loading)
	assert.Zero(t, s.Frames)
	assert.Equal(t, 0, clock.ActiveTickers())
}

func TestViewer_StopCancelsPlayback(t *testing.T) {
	v, clock := newTestViewer(WithSource(&stubSource{samples: historySamples(10)}))

	v.StartHistory(context.Background(), history.Query{})
	require.Eventually(t, func() bool { return v.Snapshot().Frames == 10 }, waitFor, time.Millisecond)
	require.NoError(t, v.Play())

	v.Stop()
	v.Stop()
	assert.Equal(t, 0, clock.ActiveTickers())

	clock.Advance(5 * time.Second)
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, v.Snapshot().Frames)
}

func TestViewer_PlaybackOutsideHistory(t *testing.T) {
	v, _ := newTestViewer()

	assert.ErrorIs(t, v.Play(), ErrNotInHistory)

	v.StartLive(feed.NewHub())
	assert.ErrorIs(t, v.Seek(1), ErrNotInHistory)
	assert.ErrorIs(t, v.SetSpeed(2), ErrNotInHistory)
	v.Stop()
}

func TestViewer_NoSource(t *testing.T) {
	v, _ := newTestViewer()

	v.StartHistory(context.Background(), history.Query{})
	require.Eventually(t, func() bool { return !v.Snapshot().Loading }, waitFor, time.Millisecond)
	assert.NotEmpty(t, v.Snapshot().Error)
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "live", Live.String())
	assert.Equal(t, "history", History.String())
}
