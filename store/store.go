// Package store persists analyzed readings and closed events in SQLite.
//
// The database is opened with WAL journaling and a single connection so
// that ":memory:" databases behave like files in tests.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Vaishnavi-Hegde17/enginetwin/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS readings (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	ts           INTEGER NOT NULL,
	aircraft_id  TEXT NOT NULL DEFAULT '',
	engine_model TEXT NOT NULL DEFAULT '',
	phase        TEXT NOT NULL DEFAULT '',
	label        TEXT NOT NULL DEFAULT '',
	health       INTEGER NOT NULL,
	worst        TEXT NOT NULL DEFAULT '',
	worst_score  REAL NOT NULL DEFAULT 0,
	snapshot     TEXT NOT NULL,
	result       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS readings_ts ON readings(ts);

CREATE TABLE IF NOT EXISTS events (
	id          TEXT PRIMARY KEY,
	start_ts    INTEGER NOT NULL,
	end_ts      INTEGER NOT NULL,
	label       TEXT NOT NULL,
	worst       TEXT NOT NULL DEFAULT '',
	body        TEXT NOT NULL
);
`

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

type config struct {
	busyTimeout int
	synchronous string
	mkdirAll    bool
}

// Option customises Open.
type Option func(*config)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) Option { return func(c *config) { c.busyTimeout = ms } }

// WithSynchronous sets PRAGMA synchronous: OFF, NORMAL, FULL or EXTRA.
// Default: "NORMAL".
func WithSynchronous(mode string) Option { return func(c *config) { c.synchronous = mode } }

// WithMkdirAll creates parent directories of the database path before opening.
func WithMkdirAll() Option { return func(c *config) { c.mkdirAll = true } }

// Store is a reading history backed by SQLite.
type Store struct {
	db *sql.DB
}

// Record is one persisted reading.
type Record struct {
	ID       int64                `json:"id"`
	Snapshot model.Snapshot       `json:"snapshot"`
	Result   model.AnalysisResult `json:"result"`
}

// Open opens or creates the database at path and applies the schema.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := config{busyTimeout: 10_000, synchronous: "NORMAL"}
	for _, o := range opts {
		o(&cfg)
	}
	switch cfg.synchronous = strings.ToUpper(cfg.synchronous); cfg.synchronous {
	case "OFF", "NORMAL", "FULL", "EXTRA":
	default:
		return nil, fmt.Errorf("store: unknown synchronous mode %q", cfg.synchronous)
	}
	if cfg.mkdirAll && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout),
		fmt.Sprintf("PRAGMA synchronous = %s", cfg.synchronous),
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Save persists one analyzed reading.
func (s *Store) Save(ctx context.Context, snap *model.Snapshot, result *model.AnalysisResult) error {
	if s.db == nil {
		return ErrClosed
	}
	if snap == nil || result == nil {
		return errors.New("store: nothing to save")
	}
	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("store: encode snapshot: %w", err)
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("store: encode result: %w", err)
	}
	var worst string
	var worstScore float64
	if result.Worst != nil {
		worst, worstScore = result.Worst.Name, result.Worst.Score
	}
	sample := snap.Reading.Sample
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO readings (ts, aircraft_id, engine_model, phase, label, health, worst, worst_score, snapshot, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.Timestamp.UnixMilli(), sample.AircraftID, sample.EngineModel, string(sample.Phase),
		result.Label, int(result.Health), worst, worstScore, string(snapJSON), string(resultJSON))
	if err != nil {
		return fmt.Errorf("store: insert reading: %w", err)
	}
	return nil
}

// Recent returns up to n most recent readings, oldest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Record, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, snapshot, result FROM (
			SELECT id, snapshot, result FROM readings ORDER BY ts DESC, id DESC LIMIT ?
		) ORDER BY id ASC`, n)
	if err != nil {
		return nil, fmt.Errorf("store: query recent: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var snapJSON, resultJSON string
		if err := rows.Scan(&rec.ID, &snapJSON, &resultJSON); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		if err := json.Unmarshal([]byte(snapJSON), &rec.Snapshot); err != nil {
			return nil, fmt.Errorf("store: decode snapshot %d: %w", rec.ID, err)
		}
		if err := json.Unmarshal([]byte(resultJSON), &rec.Result); err != nil {
			return nil, fmt.Errorf("store: decode result %d: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count returns the number of stored readings.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM readings`).Scan(&n)
	return n, err
}

// LabelCounts returns how many stored readings carry each prediction label.
func (s *Store) LabelCounts(ctx context.Context) (map[string]int, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT label, COUNT(*) FROM readings GROUP BY label`)
	if err != nil {
		return nil, fmt.Errorf("store: label counts: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		out[label] = n
	}
	return out, rows.Err()
}

// Prune deletes readings older than before and returns how many went.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM readings WHERE ts < ?`, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("store: prune: %w", err)
	}
	return res.RowsAffected()
}

// SaveEvent upserts a closed event.
func (s *Store) SaveEvent(ctx context.Context, e model.Event) error {
	if s.db == nil {
		return ErrClosed
	}
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("store: encode event: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events (id, start_ts, end_ts, label, worst, body) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET end_ts = excluded.end_ts, label = excluded.label,
			worst = excluded.worst, body = excluded.body`,
		e.ID, e.StartTime.UnixMilli(), e.EndTime.UnixMilli(), e.Label, e.WorstParam, string(body))
	if err != nil {
		return fmt.Errorf("store: insert event: %w", err)
	}
	return nil
}

// Events returns up to n most recent events, newest first.
func (s *Store) Events(ctx context.Context, n int) ([]model.Event, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM events ORDER BY start_ts DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("store: query events: %w", err)
	}
	defer rows.Close()
	var out []model.Event
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var e model.Event
		if err := json.Unmarshal([]byte(body), &e); err != nil {
			return nil, fmt.Errorf("store: decode event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
