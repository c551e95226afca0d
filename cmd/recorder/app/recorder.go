package app

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/crane-telemetry/internal/feed"
	"github.com/roman-kulish/crane-telemetry/internal/storage"
	"github.com/roman-kulish/crane-telemetry/internal/timeutil"
)

// WithLogger sets the logger for the recorder
func WithLogger(logger *slog.Logger) func(*Recorder) {
	return func(r *Recorder) {
		r.logger = logger.With(slog.String("component", "recorder"))
	}
}

// WithClock sets the clock used to timestamp received messages
func WithClock(clock timeutil.Clock) func(*Recorder) {
	return func(r *Recorder) {
		r.clock = clock
	}
}

// Recorder stores every message published on the feed, timestamped on
// receipt, into a recording session.
type Recorder struct {
	store     storage.Store
	hub       *feed.Hub
	sessionID int64

	stored atomic.Uint64
	failed atomic.Uint64

	clock  timeutil.Clock
	logger *slog.Logger
}

// NewRecorder creates a new Recorder
func NewRecorder(store storage.Store, hub *feed.Hub, sessionID int64, options ...func(*Recorder)) *Recorder {
	r := Recorder{
		store:     store,
		hub:       hub,
		sessionID: sessionID,
		clock:     timeutil.RealClock{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&r)
	}

	return &r
}

// Run reads the feed from src until it ends, fails or ctx is cancelled.
// Messages already received are stored before Run returns.
func (r *Recorder) Run(ctx context.Context, src io.Reader) error {
	id, messages := r.hub.SubscribeBlocking()

	monitorErr := make(chan error, 1)
	go func() {
		defer r.hub.Unsubscribe(id)
		monitorErr <- r.hub.Monitor(ctx, src)
	}()

	for readings := range messages {
		ts := r.clock.Now()

		// drain with a fresh context so a shutdown does not lose buffered messages
		if err := r.store.StoreReadings(context.WithoutCancel(ctx), r.sessionID, ts, readings); err != nil {
			r.failed.Add(1)
			r.logger.Error(err.Error())
			continue
		}

		if n := r.stored.Add(1); n%1000 == 0 {
			r.logger.Info("recording", slog.String("messages", humanize.Comma(int64(n))))
		}
	}

	status := r.hub.Status()
	r.logger.Info("recording finished",
		slog.Int64("session", r.sessionID),
		slog.String("stored", humanize.Comma(int64(r.stored.Load()))),
		slog.String("failed", humanize.Comma(int64(r.failed.Load()))),
		slog.String("malformed", humanize.Comma(int64(status.Malformed))),
		slog.String("dropped", humanize.Comma(int64(status.Dropped))))

	return <-monitorErr
}

// Stored returns the number of messages stored
func (r *Recorder) Stored() uint64 {
	return r.stored.Load()
}

// Failed returns the number of messages that could not be stored
func (r *Recorder) Failed() uint64 {
	return r.failed.Load()
}
