package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// WithLogger sets the logger for the loader
func WithLogger(logger *slog.Logger) func(*Loader) {
	return func(l *Loader) {
		l.logger = logger.With(slog.String("component", "history"))
	}
}

// Loader fetches history asynchronously and reconstructs frames. Only the
// most recent request may deliver a result: starting a new request or
// calling Cancel discards any result still in flight.
type Loader struct {
	source Source

	mu      sync.Mutex
	gen     uint64
	loading bool
	cancel  context.CancelFunc

	logger *slog.Logger
}

// NewLoader creates a new Loader reading from source
func NewLoader(source Source, options ...func(*Loader)) *Loader {
	l := Loader{
		source: source,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&l)
	}

	return &l
}

// Load starts an asynchronous request. done is called exactly once with the
// frames or an error, unless the request is superseded or cancelled first.
// On error no frames are delivered.
func (l *Loader) Load(ctx context.Context, q Query, done func([]Frame, error)) {
	l.mu.Lock()
	l.stop()
	l.gen++
	gen := l.gen
	ctx, l.cancel = context.WithCancel(ctx)
	l.loading = true
	l.mu.Unlock()

	l.logger.Info("loading history",
		slog.String("from", humanize.Time(q.Start)),
		slog.String("to", humanize.Time(q.End)),
		slog.Int("tags", len(q.Tags)))

	go func() {
		started := time.Now()
		frames, err := l.fetch(ctx, q)

		l.mu.Lock()
		if gen != l.gen {
			l.mu.Unlock()
			l.logger.Debug("discarding superseded history result")
			return
		}
		l.loading = false
		l.cancel()
		l.cancel = nil
		l.mu.Unlock()

		if err != nil {
			l.logger.Error(err.Error())
		} else {
			l.logger.Info("history loaded",
				slog.String("frames", humanize.Comma(int64(len(frames)))),
				slog.Duration("elapsed", time.Since(started)))
		}

		done(frames, err)
	}()
}

// Cancel abandons the outstanding request, if any
func (l *Loader) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stop()
	l.gen++
}

// Loading returns true while a request is outstanding
func (l *Loader) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

func (l *Loader) stop() {
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.loading = false
}

func (l *Loader) fetch(ctx context.Context, q Query) ([]Frame, error) {
	if l.source == nil {
		return nil, errors.New("history source not configured")
	}

	result, err := l.source.QuerySamples(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying samples: %w", err)
	}
	if result == nil {
		return []Frame{}, nil
	}

	l.logger.Debug("samples received",
		slog.String("returned", humanize.Comma(int64(len(result.Samples)))),
		slog.String("matched", humanize.Comma(result.Count)))

	return BuildFrames(result.Samples), nil
}
