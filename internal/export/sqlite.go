package export

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ironsheep/chart-ohlc/internal/ohlc"
	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
)

var (
	idMu    sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// newRunID returns a ULID so runs sort by creation time.
func newRunID(t time.Time) (string, error) {
	idMu.Lock()
	defer idMu.Unlock()
	id, err := ulid.New(ulid.Timestamp(t.UTC()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Run is one stored batch.
type Run struct {
	ID        string
	CreatedAt time.Time
	Source    string
	Images    int
}

// SQLiteStore keeps batch results in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and applies Schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open result store: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create result schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// SaveRun stores results under a new run ID in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, source string, results []ohlc.Result) (string, error) {
	now := time.Now()
	id, err := newRunID(now)
	if err != nil {
		return "", fmt.Errorf("failed to generate run id: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, created_at, source, images) VALUES (?, ?, ?, ?)`,
		id, now.UTC(), source, len(results),
	); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for i, r := range results {
		warnings, err := json.Marshal(r.Warnings)
		if err != nil {
			return "", err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO results
			(run_id, seq, image_name, symbol, confidence, error, warnings, rejected)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, i, r.ImageName, r.Symbol, r.Confidence, r.Error, string(warnings), r.Rejected,
		); err != nil {
			return "", fmt.Errorf("failed to insert result %s: %w", r.ImageName, err)
		}

		for j, d := range r.DataPoints {
			var vol sql.NullFloat64
			if d.Volume != nil {
				vol = sql.NullFloat64{Float64: *d.Volume, Valid: true}
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO data_points
				(run_id, result_seq, seq, date, open, high, low, close, volume)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				id, i, j, d.Date, d.Open, d.High, d.Low, d.Close, vol,
			); err != nil {
				return "", fmt.Errorf("failed to insert data point: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// ListRuns returns stored runs, oldest first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, created_at, source, images FROM runs ORDER BY run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Source, &r.Images); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LoadRun returns the results of a run in input order.
func (s *SQLiteStore) LoadRun(ctx context.Context, runID string) ([]ohlc.Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT image_name, symbol, confidence, error, warnings, rejected
		FROM results WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}

	var results []ohlc.Result
	for rows.Next() {
		var (
			r        ohlc.Result
			warnings string
		)
		if err := rows.Scan(&r.ImageName, &r.Symbol, &r.Confidence, &r.Error, &warnings, &r.Rejected); err != nil {
			rows.Close()
			return nil, err
		}
		if err := json.Unmarshal([]byte(warnings), &r.Warnings); err != nil {
			rows.Close()
			return nil, fmt.Errorf("corrupt warnings for %s: %w", r.ImageName, err)
		}
		r.DataPoints = []ohlc.Record{}
		results = append(results, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if results == nil {
		return nil, fmt.Errorf("run %s not found", runID)
	}

	points, err := s.db.QueryContext(ctx, `
		SELECT result_seq, date, open, high, low, close, volume
		FROM data_points WHERE run_id = ? ORDER BY result_seq, seq`, runID)
	if err != nil {
		return nil, err
	}
	defer points.Close()

	for points.Next() {
		var (
			seq int
			d   ohlc.Record
			vol sql.NullFloat64
		)
		if err := points.Scan(&seq, &d.Date, &d.Open, &d.High, &d.Low, &d.Close, &vol); err != nil {
			return nil, err
		}
		if vol.Valid {
			d = d.WithVolume(vol.Float64)
		}
		if seq < 0 || seq >= len(results) {
			return nil, fmt.Errorf("data point references missing result %d", seq)
		}
		results[seq].DataPoints = append(results[seq].DataPoints, d)
	}
	return results, points.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
