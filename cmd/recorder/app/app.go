package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roman-kulish/crane-telemetry/internal/feed"
	"github.com/roman-kulish/crane-telemetry/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) (err error) {
	store, err := createStorage(config, logger)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	defer func() { err = errors.Join(err, store.Close()) }()

	r, source, err := config.Feed.Open()
	if err != nil {
		return fmt.Errorf("failed to open feed: %w", err)
	}
	defer r.Close()

	sessionID, err := store.CreateSession(ctx, source, config)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	hub := feed.NewHub(feed.WithLogger(logger), feed.WithBufferSize(config.Feed.BufferSize))
	defer hub.Close()

	recorder := NewRecorder(store, hub, sessionID, WithLogger(logger))
	if err = recorder.Run(ctx, r); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("recording: %w", err)
	}
	return nil
}

func createStorage(config *Config, logger *slog.Logger) (*storage.SqliteStore, error) {
	dbPath, err := config.Storage.Path()
	if err != nil {
		return nil, err
	}

	logger.Info("recording to database", slog.String("path", dbPath))
	return storage.NewSqliteStore(dbPath,
		storage.WithLogger(logger),
		storage.WithMaxBatchSize(config.Storage.MaxBatchSize)), nil
}
