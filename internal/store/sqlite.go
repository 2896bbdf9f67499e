package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// migrations is an ordered list of SQL statements applied on startup.
// Each entry is idempotent (IF NOT EXISTS) so re-running is safe.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id                      TEXT PRIMARY KEY,
		created_at              TEXT NOT NULL,
		seed                    INTEGER NOT NULL,
		num_qubits              INTEGER NOT NULL,
		sample_size             INTEGER NOT NULL,
		error_probability       REAL NOT NULL,
		reconciliation_overhead INTEGER NOT NULL,
		raw_bits                INTEGER NOT NULL,
		sifted_bits             INTEGER NOT NULL,
		qber                    REAL NOT NULL,
		key_bits                INTEGER NOT NULL,
		key                     TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS runs_created_at ON runs (created_at)`,
}

const runColumns = `id, created_at, seed, num_qubits, sample_size, error_probability,
	reconciliation_overhead, raw_bits, sifted_bits, qber, key_bits, key`

// SQLiteStore implements Store using a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at path and runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite handles one writer at a time.

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	for _, stmt := range migrations {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// SaveRun inserts r. An empty ID is filled in with a fresh UUID, and a zero
// CreatedAt with the current time.
func (s *SQLiteStore) SaveRun(ctx context.Context, r *RunRecord) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	// database/sql rejects uint64 values with the high bit set, so the seed
	// round-trips through int64.
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt.UTC().Format(time.RFC3339Nano), int64(r.Seed),
		r.NumQubits, r.SampleSize, r.ErrorProbability, r.ReconciliationOverhead,
		r.RawBits, r.SiftedBits, r.QBER, r.KeyBits, r.Key)
	if err != nil {
		return fmt.Errorf("save run %s: %w", r.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, err
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit.
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var runs []*RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (*RunRecord, error) {
	var (
		r       RunRecord
		created string
		seed    int64
	)
	if err := sc.Scan(&r.ID, &created, &seed, &r.NumQubits, &r.SampleSize, &r.ErrorProbability,
		&r.ReconciliationOverhead, &r.RawBits, &r.SiftedBits, &r.QBER, &r.KeyBits, &r.Key); err != nil {
		return nil, err
	}
	r.Seed = uint64(seed)
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("run %s: parse created_at: %w", r.ID, err)
	}
	r.CreatedAt = t
	return &r, nil
}
