// Package store persists investigations and generated reports in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/osintworks/robin/core"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Investigation is one persisted investigation session.
type Investigation struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Status    string    `json:"status"`
	Summary   string    `json:"summary,omitempty"`
	NumTurns  int       `json:"num_turns"`
	ToolsUsed []string  `json:"tools_used,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Report is one saved investigation report.
type Report struct {
	ID              string    `json:"id"`
	InvestigationID string    `json:"investigation_id"`
	Filename        string    `json:"filename"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"created_at"`
}

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the database at path. Use ":memory:" for an
// ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent sessions.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS investigations (
	id          TEXT PRIMARY KEY,
	query       TEXT NOT NULL,
	status      TEXT NOT NULL,
	summary     TEXT NOT NULL DEFAULT '',
	num_turns   INTEGER NOT NULL DEFAULT 0,
	tools_used  TEXT NOT NULL DEFAULT '[]',
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS reports (
	id               TEXT PRIMARY KEY,
	investigation_id TEXT NOT NULL DEFAULT '',
	filename         TEXT NOT NULL,
	content          TEXT NOT NULL,
	created_at       TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_investigation ON reports(investigation_id);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// CreateInvestigation inserts a new investigation and returns it.
func (s *Store) CreateInvestigation(ctx context.Context, query string) (Investigation, error) {
	now := time.Now().UTC()
	inv := Investigation{
		ID:        core.NewID(),
		Query:     query,
		Status:    "running",
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO investigations (id, query, status, summary, num_turns, tools_used, created_at, updated_at)
		 VALUES (?, ?, ?, '', 0, '[]', ?, ?)`,
		inv.ID, inv.Query, inv.Status, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return Investigation{}, fmt.Errorf("insert investigation: %w", err)
	}
	return inv, nil
}

// FinishInvestigation records the outcome of a completed investigation.
func (s *Store) FinishInvestigation(ctx context.Context, id, status, summary string, numTurns int, toolsUsed []string) error {
	tools, err := json.Marshal(toolsUsed)
	if err != nil {
		return fmt.Errorf("marshal tools: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE investigations SET status = ?, summary = ?, num_turns = ?, tools_used = ?, updated_at = ? WHERE id = ?`,
		status, summary, numTurns, string(tools), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update investigation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetInvestigation returns one investigation by id.
func (s *Store) GetInvestigation(ctx context.Context, id string) (Investigation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, query, status, summary, num_turns, tools_used, created_at, updated_at
		 FROM investigations WHERE id = ?`, id)
	return scanInvestigation(row)
}

// ListInvestigations returns investigations ordered newest first.
func (s *Store) ListInvestigations(ctx context.Context, limit int) ([]Investigation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, status, summary, num_turns, tools_used, created_at, updated_at
		 FROM investigations ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list investigations: %w", err)
	}
	defer rows.Close()

	var out []Investigation
	for rows.Next() {
		inv, err := scanInvestigation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvestigation(row rowScanner) (Investigation, error) {
	var inv Investigation
	var tools string
	err := row.Scan(&inv.ID, &inv.Query, &inv.Status, &inv.Summary, &inv.NumTurns, &tools, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Investigation{}, ErrNotFound
	}
	if err != nil {
		return Investigation{}, fmt.Errorf("scan investigation: %w", err)
	}
	if tools != "" {
		_ = json.Unmarshal([]byte(tools), &inv.ToolsUsed)
	}
	return inv, nil
}

// SaveReport stores a generated report and returns its id.
func (s *Store) SaveReport(ctx context.Context, investigationID, filename, content string) (string, error) {
	id := core.NewID()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (id, investigation_id, filename, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, investigationID, filename, content, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("insert report: %w", err)
	}
	return id, nil
}

// GetReport returns one report by id.
func (s *Store) GetReport(ctx context.Context, id string) (Report, error) {
	var r Report
	err := s.db.QueryRowContext(ctx,
		`SELECT id, investigation_id, filename, content, created_at FROM reports WHERE id = ?`, id).
		Scan(&r.ID, &r.InvestigationID, &r.Filename, &r.Content, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Report{}, ErrNotFound
	}
	if err != nil {
		return Report{}, fmt.Errorf("scan report: %w", err)
	}
	return r, nil
}

// ListReports returns the reports for one investigation, oldest first.
func (s *Store) ListReports(ctx context.Context, investigationID string) ([]Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, investigation_id, filename, content, created_at
		 FROM reports WHERE investigation_id = ? ORDER BY created_at ASC`, investigationID)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		var r Report
		if err := rows.Scan(&r.ID, &r.InvestigationID, &r.Filename, &r.Content, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
