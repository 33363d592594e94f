package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver "sqlite3" (cgo)
	_ "modernc.org/sqlite"          // SQLite driver "sqlite" (pure Go)

	"mercator-hq/metricsys/pkg/snapshot"
)

// SQLiteConfig contains configuration for the SQLite store.
type SQLiteConfig struct {
	// Driver is DriverSQLite or DriverSQLite3.
	// Default: DriverSQLite
	Driver string

	// Path is the database file path.
	Path string

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	WALMode bool

	// MaxOpenConns is the maximum number of open connections.
	// Default: 1 (SQLite supports a single writer)
	MaxOpenConns int
}

// SQLiteStore implements snapshot.Store using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	config    SQLiteConfig
	logger    *slog.Logger
	closeOnce sync.Once
}

// NewSQLiteStore opens the database, creates the schema if needed, and
// verifies the schema version.
func NewSQLiteStore(cfg SQLiteConfig, logger *slog.Logger) (*SQLiteStore, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	if cfg.Driver != DriverSQLite && cfg.Driver != DriverSQLite3 {
		return nil, fmt.Errorf("unsupported sqlite driver %q", cfg.Driver)
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "snapshot.storage.sqlite")

	db, err := sql.Open(cfg.Driver, dsn(cfg))
	if err != nil {
		return nil, snapshot.NewStorageError(cfg.Driver, "open", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{
		db:     db,
		config: cfg,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"driver", cfg.Driver,
		"path", cfg.Path,
		"wal_mode", cfg.WALMode,
		"max_open_conns", cfg.MaxOpenConns,
	)

	return s, nil
}

// dsn builds the connection string. The two drivers spell connection
// pragmas differently.
func dsn(cfg SQLiteConfig) string {
	busy := cfg.BusyTimeout.Milliseconds()

	if cfg.Driver == DriverSQLite3 {
		params := fmt.Sprintf("_busy_timeout=%d", busy)
		if cfg.WALMode {
			params += "&_journal_mode=WAL"
		}
		return cfg.Path + "?" + params
	}

	params := fmt.Sprintf("_pragma=busy_timeout(%d)", busy)
	if cfg.WALMode {
		params += "&_pragma=journal_mode(WAL)"
	}
	return cfg.Path + "?" + params
}

// initialize creates the schema and verifies its version.
func (s *SQLiteStore) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return snapshot.NewStorageError(s.config.Driver, "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return snapshot.NewStorageError(s.config.Driver, "insert_schema_version", err)
	}

	var version sql.NullInt64
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return snapshot.NewStorageError(s.config.Driver, "get_schema_version", err)
	}

	if version.Int64 != SchemaVersion {
		return snapshot.NewStorageError(s.config.Driver, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version.Int64))
	}

	s.logger.Debug("schema version verified", "version", version.Int64)
	return nil
}

// Save stores snap and its observations in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, snap *snapshot.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return snapshot.NewStorageError(s.config.Driver, "save", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, taken_at, observation_count) VALUES (?, ?, ?)`,
		snap.ID, snap.TakenAt.UnixNano(), len(snap.Observations),
	)
	if err != nil {
		return snapshot.NewStorageError(s.config.Driver, "save", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO observations (snapshot_id, seq, category, name, value, labels) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return snapshot.NewStorageError(s.config.Driver, "save", err)
	}
	defer stmt.Close()

	for i, r := range snap.Observations {
		labels := r.Labels
		if labels == nil {
			labels = []string{}
		}
		encoded, err := json.Marshal(labels)
		if err != nil {
			return snapshot.NewStorageError(s.config.Driver, "save", err)
		}

		var value any = r.Value
		if math.IsNaN(r.Value) {
			value = nil
		}

		if _, err := stmt.ExecContext(ctx, snap.ID, i, r.Category, r.Name, value, string(encoded)); err != nil {
			return snapshot.NewStorageError(s.config.Driver, "save", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return snapshot.NewStorageError(s.config.Driver, "save", err)
	}
	return nil
}

// Get loads the snapshot with the given ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*snapshot.Snapshot, error) {
	var takenAt int64
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT taken_at, observation_count FROM snapshots WHERE id = ?`, id,
	).Scan(&takenAt, &count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", snapshot.ErrNotFound, id)
	}
	if err != nil {
		return nil, snapshot.NewStorageError(s.config.Driver, "get", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT category, name, value, labels FROM observations WHERE snapshot_id = ? ORDER BY seq`, id,
	)
	if err != nil {
		return nil, snapshot.NewStorageError(s.config.Driver, "get", err)
	}
	defer rows.Close()

	snap := &snapshot.Snapshot{
		ID:           id,
		TakenAt:      time.Unix(0, takenAt).UTC(),
		Observations: make([]snapshot.Record, 0, count),
	}
	for rows.Next() {
		var r snapshot.Record
		var value sql.NullFloat64
		var labels string
		if err := rows.Scan(&r.Category, &r.Name, &value, &labels); err != nil {
			return nil, snapshot.NewStorageError(s.config.Driver, "get", err)
		}

		r.Value = math.NaN()
		if value.Valid {
			r.Value = value.Float64
		}
		if err := json.Unmarshal([]byte(labels), &r.Labels); err != nil {
			return nil, snapshot.NewStorageError(s.config.Driver, "get", err)
		}
		if len(r.Labels) == 0 {
			r.Labels = nil
		}
		snap.Observations = append(snap.Observations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, snapshot.NewStorageError(s.config.Driver, "get", err)
	}

	return snap, nil
}

// List returns summaries of the snapshots matching query, newest first.
func (s *SQLiteStore) List(ctx context.Context, query snapshot.Query) ([]snapshot.Summary, error) {
	var where []string
	var args []any
	if !query.Since.IsZero() {
		where = append(where, "taken_at >= ?")
		args = append(args, query.Since.UnixNano())
	}
	if !query.Until.IsZero() {
		where = append(where, "taken_at < ?")
		args = append(args, query.Until.UnixNano())
	}

	stmt := `SELECT id, taken_at, observation_count FROM snapshots`
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY taken_at DESC, id ASC"
	if query.Limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, query.Limit)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, snapshot.NewStorageError(s.config.Driver, "list", err)
	}
	defer rows.Close()

	results := []snapshot.Summary{}
	for rows.Next() {
		var sum snapshot.Summary
		var takenAt int64
		if err := rows.Scan(&sum.ID, &takenAt, &sum.ObservationCount); err != nil {
			return nil, snapshot.NewStorageError(s.config.Driver, "list", err)
		}
		sum.TakenAt = time.Unix(0, takenAt).UTC()
		results = append(results, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, snapshot.NewStorageError(s.config.Driver, "list", err)
	}

	return results, nil
}

// DeleteBefore removes snapshots taken before cutoff along with their
// observations.
func (s *SQLiteStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, snapshot.NewStorageError(s.config.Driver, "delete", err)
	}
	defer tx.Rollback()

	ns := cutoff.UnixNano()
	_, err = tx.ExecContext(ctx,
		`DELETE FROM observations WHERE snapshot_id IN (SELECT id FROM snapshots WHERE taken_at < ?)`, ns,
	)
	if err != nil {
		return 0, snapshot.NewStorageError(s.config.Driver, "delete", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE taken_at < ?`, ns)
	if err != nil {
		return 0, snapshot.NewStorageError(s.config.Driver, "delete", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, snapshot.NewStorageError(s.config.Driver, "delete", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, snapshot.NewStorageError(s.config.Driver, "delete", err)
	}

	if deleted > 0 {
		s.logger.Debug("snapshots deleted", "cutoff", cutoff, "deleted_count", deleted)
	}
	return deleted, nil
}

// Close closes the database. It is safe to call more than once.
func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.db.Close()
	})
	return err
}
