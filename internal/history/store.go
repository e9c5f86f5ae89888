// Package history keeps an audit log of hunt runs in SQLite. Only scan
// records are persisted; resource state itself is read fresh each request.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/stackpeek/stackpeek/pkg/models"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS hunts (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    app           TEXT NOT NULL,
    stage         TEXT NOT NULL,
    region        TEXT NOT NULL,
    started_at    DATETIME NOT NULL,
    finished_at   DATETIME,
    total_found   INTEGER DEFAULT 0,
    managed_count INTEGER DEFAULT 0,
    orphan_count  INTEGER DEFAULT 0,
    orphans       TEXT,
    status        TEXT DEFAULT 'running'
);

CREATE INDEX IF NOT EXISTS idx_hunts_started ON hunts(started_at);
`

// Hunt is one recorded scan.
type Hunt struct {
	ID           int64           `json:"id"`
	App          string          `json:"app"`
	Stage        string          `json:"stage"`
	Region       string          `json:"region"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
	TotalFound   int             `json:"total_found"`
	ManagedCount int             `json:"managed_count"`
	OrphanCount  int             `json:"orphan_count"`
	Orphans      []models.Orphan `json:"orphans,omitempty"`
	Status       string          `json:"status"`
}

// Store is the SQLite-backed hunt log.
type Store struct {
	db *sql.DB
}

// Open creates or opens the hunt log at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return &Store{db: db}, nil
}

// Init creates the database schema if it doesn't exist.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts a new running hunt and returns its id.
func (s *Store) Record(ctx context.Context, h Hunt) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO hunts (app, stage, region, started_at, status) VALUES (?, ?, ?, ?, ?)`,
		h.App, h.Stage, h.Region, h.StartedAt, h.Status)
	if err != nil {
		return 0, fmt.Errorf("recording hunt: %w", err)
	}
	return res.LastInsertId()
}

// Finish marks a hunt done and stores its result.
func (s *Store) Finish(ctx context.Context, id int64, status string, result models.ScanResult) error {
	orphans, err := json.Marshal(result.Orphans)
	if err != nil {
		return fmt.Errorf("encoding orphans: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE hunts SET finished_at = ?, total_found = ?, managed_count = ?, orphan_count = ?, orphans = ?, status = ? WHERE id = ?`,
		time.Now(), result.TotalFound, result.ManagedCount, len(result.Orphans), string(orphans), status, id)
	if err != nil {
		return fmt.Errorf("finishing hunt: %w", err)
	}
	return nil
}

// List returns the most recent hunts, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Hunt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, app, stage, region, started_at, finished_at, total_found, managed_count, orphan_count, orphans, status
		 FROM hunts ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing hunts: %w", err)
	}
	defer rows.Close() //nolint:errcheck // best-effort cleanup

	var hunts []Hunt
	for rows.Next() {
		h, err := scanHunt(rows)
		if err != nil {
			return nil, err
		}
		hunts = append(hunts, h)
	}
	return hunts, rows.Err()
}

// Latest returns the most recent completed hunt, or nil when none exists.
func (s *Store) Latest(ctx context.Context) (*Hunt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, app, stage, region, started_at, finished_at, total_found, managed_count, orphan_count, orphans, status
		 FROM hunts WHERE status = 'completed' ORDER BY started_at DESC, id DESC LIMIT 1`)
	if err != nil {
		return nil, fmt.Errorf("loading latest hunt: %w", err)
	}
	defer rows.Close() //nolint:errcheck // best-effort cleanup

	if !rows.Next() {
		return nil, rows.Err()
	}
	h, err := scanHunt(rows)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func scanHunt(rows *sql.Rows) (Hunt, error) {
	var h Hunt
	var finished sql.NullTime
	var orphans sql.NullString

	err := rows.Scan(&h.ID, &h.App, &h.Stage, &h.Region, &h.StartedAt, &finished,
		&h.TotalFound, &h.ManagedCount, &h.OrphanCount, &orphans, &h.Status)
	if err != nil {
		return Hunt{}, fmt.Errorf("scanning hunt row: %w", err)
	}

	if finished.Valid {
		h.FinishedAt = &finished.Time
	}
	if orphans.Valid && orphans.String != "" {
		if err := json.Unmarshal([]byte(orphans.String), &h.Orphans); err != nil {
			return Hunt{}, fmt.Errorf("decoding orphans: %w", err)
		}
	}
	return h, nil
}
