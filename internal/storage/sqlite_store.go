package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/roman-kulish/crane-telemetry/internal/history"
	"github.com/roman-kulish/crane-telemetry/internal/telemetry"
)

const (
	// DefaultMaxBatchSize bounds the rows inserted by a single statement
	DefaultMaxBatchSize = 500

	sampleColumns = 5
)

// WithLogger sets the logger for the store
func WithLogger(logger *slog.Logger) func(*SqliteStore) {
	return func(s *SqliteStore) {
		s.logger = logger.With(slog.String("component", "storage"))
	}
}

// WithMaxBatchSize sets the maximum number of rows per insert statement
func WithMaxBatchSize(size int) func(*SqliteStore) {
	return func(s *SqliteStore) {
		if size > 0 {
			s.maxBatchSize = size
		}
	}
}

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath       string
	maxBatchSize int

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error

	logger *slog.Logger
}

var _ Store = (*SqliteStore)(nil)

// NewSqliteStore creates a new store backed by the Sqlite database at
// dbPath. Connections are opened lazily: the schema is initialised by the
// first write.
func NewSqliteStore(dbPath string, options ...func(*SqliteStore)) *SqliteStore {
	s := SqliteStore{
		dbPath:       dbPath,
		maxBatchSize: DefaultMaxBatchSize,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}
		db.SetMaxOpenConns(1)

		for _, cmd := range []string{initSchemaSQL, initIndexesSQL} {
			if err = runSQLCommand(db, cmd); err != nil {
				_ = db.Close()
				s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
				return
			}
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro&_busy_timeout=5000"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) CreateSession(ctx context.Context, source string, config any) (sessionID int64, err error) {
	var configData sql.NullString

	if config != nil {
		switch c := config.(type) {
		case string:
			configData.Valid = true
			configData.String = c

		case []byte:
			configData.Valid = true
			configData.String = string(c)

		default:
			var p []byte
			if p, err = json.Marshal(config); err != nil {
				err = fmt.Errorf("marshaling config: %w", err)
				return
			}

			configData.Valid = true
			configData.String = string(p)
		}
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx, source, configData)
	if err != nil {
		err = fmt.Errorf("inserting session: %w", err)
		return
	}

	sessionID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting session ID: %w", err)
		return
	}

	s.logger.Info("session created", slog.Int64("session", sessionID), slog.String("source", source))
	return
}

func (s *SqliteStore) Session(ctx context.Context, id int64) (session *Session, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	var sess Session
	var config sql.NullString
	if err = stmt.QueryRowContext(ctx, id).Scan(&sess.ID, &sess.StartTime, &sess.Source, &config); err != nil {
		err = fmt.Errorf("scanning session: %w", err)
		return
	}
	if config.Valid {
		sess.Config = &config.String
	}

	return &sess, nil
}

func (s *SqliteStore) Sessions(ctx context.Context) (sessions []*Session, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectSessionsSQL)
	if err != nil {
		err = fmt.Errorf("querying sessions: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var sess Session
		var config sql.NullString
		if err = rows.Scan(&sess.ID, &sess.StartTime, &sess.Source, &config); err != nil {
			err = fmt.Errorf("scanning session: %w", err)
			return
		}
		if config.Valid {
			sess.Config = &config.String
		}
		sessions = append(sessions, &sess)
	}
	err = rows.Err()
	return
}

func (s *SqliteStore) StoreReadings(ctx context.Context, sessionID int64, ts time.Time, readings telemetry.Readings) error {
	tags := make([]string, 0, len(readings))
	for tag := range readings {
		tags = append(tags, tag)
	}
	slices.Sort(tags)

	samples := make([]history.Sample, 0, len(tags))
	for _, tag := range tags {
		samples = append(samples, history.Sample{Tag: tag, Value: readings[tag], Timestamp: ts})
	}

	return s.StoreSamples(ctx, sessionID, samples)
}

func (s *SqliteStore) StoreSamples(ctx context.Context, sessionID int64, samples []history.Sample) (err error) {
	if len(samples) == 0 {
		return
	}

	rows := make([]*sampleData, 0, len(samples))
	for _, sample := range samples {
		data, err := toSampleData(sessionID, sample)
		if err != nil {
			return err
		}
		rows = append(rows, data)
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	for batch := range slices.Chunk(rows, s.maxBatchSize) {
		if err = insertSamples(ctx, tx, batch); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func insertSamples(ctx context.Context, tx *sql.Tx, batch []*sampleData) error {
	values := make([]any, 0, len(batch)*sampleColumns)

	valuesPlaceholder := "(?, ?, ?, ?, ?)"

	var sb strings.Builder

	sb.WriteString(insertSampleSQL)

	for i, data := range batch {
		values = append(values,
			data.SessionID,
			data.Tag,
			data.Timestamp,
			data.NumValue,
			data.BoolValue,
		)

		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(valuesPlaceholder)
	}

	if _, err := tx.ExecContext(ctx, sb.String(), values...); err != nil {
		return fmt.Errorf("batch inserting samples: %w", err)
	}
	return nil
}

// QuerySamples returns the samples of the requested tags within the query
// window, ordered by timestamp. MaxSamples is applied to whole timestamps, so
// a returned timestamp always carries all of its samples. With Downsample
// set, timestamps are skipped at a regular stride so that the returned
// samples span the entire window rather than only its beginning.
func (s *SqliteStore) QuerySamples(ctx context.Context, q history.Query) (result *history.Result, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	where, args := whereClause(q)

	var count, ticks int64
	if err = db.QueryRowContext(ctx, fmt.Sprintf(countSamplesSQL, where), args...).Scan(&count, &ticks); err != nil {
		err = fmt.Errorf("counting samples: %w", err)
		return
	}

	limit := count
	if q.MaxSamples > 0 {
		limit = int64(q.MaxSamples)
	}

	step := int64(1)
	if q.Downsample {
		step = stride(count, ticks, q.MaxSamples)
		s.logger.Debug("downsampling history", slog.Int64("samples", count), slog.Int64("stride", step))
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf(selectSamplesSQL, where), append(args, step, limit)...)
	if err != nil {
		err = fmt.Errorf("querying samples: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	result = &history.Result{Count: count}
	for rows.Next() {
		var data sampleData
		if err = rows.Scan(&data.Tag, &data.Timestamp, &data.NumValue, &data.BoolValue); err != nil {
			err = fmt.Errorf("scanning sample: %w", err)
			return nil, err
		}
		result.Samples = append(result.Samples, fromSampleData(&data))
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("reading samples: %w", err)
	}

	return result, nil
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
