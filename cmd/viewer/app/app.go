package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/crane-telemetry/internal/feed"
	"github.com/roman-kulish/crane-telemetry/internal/storage"
	"github.com/roman-kulish/crane-telemetry/internal/viewer"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	options := []func(*viewer.Viewer){
		viewer.WithLogger(logger),
		viewer.WithFrameRate(config.Interpolation.FrameRate),
		viewer.WithInterpolatorOptions(config.Interpolation.Options()...),
		viewer.WithPlaybackSpeed(config.Playback.Speed),
	}

	if config.Mode == ModeHistory {
		return runHistory(ctx, config, logger, options)
	}
	return runLive(ctx, config, logger, options)
}

func runHistory(ctx context.Context, config *Config, logger *slog.Logger, options []func(*viewer.Viewer)) (err error) {
	dbPath, err := config.Storage.Path()
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	store := storage.NewSqliteStore(dbPath, storage.WithLogger(logger))
	defer func() { err = errors.Join(err, store.Close()) }()

	v := viewer.NewViewer(config.Apparatus.Normalizer(), append(options, viewer.WithSource(store))...)
	defer v.Stop()

	v.StartHistory(ctx, config.Playback.Query(time.Now()))
	go readCommands(ctx, os.Stdin, v, logger)

	return watch(ctx, v, config, logger)
}

func runLive(ctx context.Context, config *Config, logger *slog.Logger, options []func(*viewer.Viewer)) error {
	r, source, err := config.Feed.Open()
	if err != nil {
		return fmt.Errorf("failed to open feed: %w", err)
	}
	defer r.Close()

	hub := feed.NewHub(feed.WithLogger(logger), feed.WithBufferSize(config.Feed.BufferSize))
	defer hub.Close()

	v := viewer.NewViewer(config.Apparatus.Normalizer(), options...)
	defer v.Stop()

	v.StartLive(hub)
	logger.Info("reading live feed", slog.String("source", source))

	monitorErr := make(chan error, 1)
	go func() { monitorErr <- hub.Monitor(ctx, r) }()

	if err = watch(ctx, v, config, logger); err != nil {
		return err
	}

	select {
	case err = <-monitorErr:
	case <-time.After(time.Second):
		return nil
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("live feed: %w", err)
	}
	return nil
}

// watch logs the viewer status until ctx is cancelled. In history mode it
// starts playback once frames are loaded, if configured to.
func watch(ctx context.Context, v *viewer.Viewer, config *Config, logger *slog.Logger) error {
	interval := time.Duration(config.Playback.StatusInterval)
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	autoPlay := config.Mode == ModeHistory && config.Playback.AutoPlay
	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			s := v.Snapshot()
			if autoPlay && !s.Loading && s.Frames > 0 {
				autoPlay = false
				if err := v.Play(); err != nil {
					logger.Error(err.Error())
				}
			}
			logStatus(logger, s)
		}
	}
}

func logStatus(logger *slog.Logger, s viewer.Status) {
	attrs := []any{
		slog.String("mode", s.Mode.String()),
		slog.String("rotation", fmt.Sprintf("%.1f°", s.State.Rotation)),
		slog.String("heading", fmt.Sprintf("%.1f°", s.State.Heading)),
		slog.String("progress", fmt.Sprintf("%.1f%%", s.State.RotationProgress)),
		slog.String("radius", fmt.Sprintf("%.2fm", s.State.BoomRadius)),
		slog.String("hook", fmt.Sprintf("%.2fm", s.State.HookHeight)),
		slog.String("accessory", s.State.Accessory.String()),
		slog.Bool("load", s.State.LoadAttached),
	}

	switch {
	case s.Live != nil:
		attrs = append(attrs,
			slog.String("feed", s.Live.Connectivity.String()),
			slog.String("messages", humanize.Comma(int64(s.Live.Messages))))
		if s.Live.Dropped > 0 {
			attrs = append(attrs, slog.String("dropped", humanize.Comma(int64(s.Live.Dropped))))
		}
		if !s.Live.LastMessage.IsZero() {
			attrs = append(attrs, slog.String("last", humanize.Time(s.Live.LastMessage)))
		}
		if s.Live.Err != nil {
			attrs = append(attrs, slog.String("feedError", s.Live.Err.Error()))
		}

	case s.Loading:
		attrs = append(attrs, slog.Bool("loading", true))

	case s.Error != "":
		attrs = append(attrs, slog.String("error", s.Error))

	case s.Frames > 0:
		attrs = append(attrs,
			slog.String("frame", fmt.Sprintf("%s/%s", humanize.Comma(int64(s.Frame+1)), humanize.Comma(int64(s.Frames)))),
			slog.String("at", humanize.Time(s.FrameTime)),
			slog.Bool("playing", s.Playing),
			slog.Float64("speed", s.Speed))
	}

	logger.Info("status", attrs...)
}
