// Package storage persists recorded telemetry samples and serves them back as
// history for playback.
package storage

import (
	"context"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/crane-telemetry/internal/history"
	"github.com/roman-kulish/crane-telemetry/internal/telemetry"
)

// Store provides an interface for managing recorded crane telemetry.
// All operations that write to the database are atomic.
type Store interface {
	history.Source

	// CreateSession starts a new recording session and returns its unique identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - source: Feed the readings come from (e.g. serial port path)
	//   - config: Optional recorder configuration. Can be string, []byte, or JSON-serializable object
	CreateSession(ctx context.Context, source string, config any) (sessionID int64, err error)

	// Session retrieves a recording session by its ID.
	Session(ctx context.Context, id int64) (*Session, error)

	// Sessions returns all recording sessions ordered by start time.
	Sessions(ctx context.Context) ([]*Session, error)

	// StoreReadings saves one decoded feed message received at ts. Every
	// reading is stored as a separate sample in a single transaction; a
	// value of an unsupported type fails the whole message.
	StoreReadings(ctx context.Context, sessionID int64, ts time.Time, readings telemetry.Readings) error

	// StoreSamples saves samples in a single transaction.
	StoreSamples(ctx context.Context, sessionID int64, samples []history.Sample) error

	// Close releases all database connections. It is safe to call Close
	// multiple times.
	Close() error
}
