// Package history keeps a record of finished matches in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Winner values stored in the matches table
const (
	WinnerPlayer = "player"
	WinnerEnemy  = "enemy"
	WinnerNone   = "none"
)

const (
	DefaultLimit = 50
	maximumLimit = 1000
)

var ErrClosed = errors.New("history store is closed")

// MatchRecord is one finished (or abandoned) match
type MatchRecord struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Mode        string    `json:"mode"`
	Strategy    string    `json:"strategy"`
	Winner      string    `json:"winner"`
	PlayerShots int       `json:"player_shots"`
	EnemyShots  int       `json:"enemy_shots"`
	Commitment  string    `json:"commitment,omitempty"`
}

// Store persists match records
type Store struct {
	db *sql.DB
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS matches (
	id TEXT PRIMARY KEY,
	session_id TEXT,
	started_at DATETIME,
	ended_at DATETIME,
	width INTEGER,
	height INTEGER,
	mode TEXT,
	strategy TEXT,
	winner TEXT,
	player_shots INTEGER,
	enemy_shots INTEGER,
	commitment TEXT
);
CREATE INDEX IF NOT EXISTS idx_matches_ended_at ON matches (ended_at);
`

// Open opens (and creates if needed) the database at path.
// ":memory:" keeps the history in memory.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &Store{db: db}, nil
}

// Record inserts a match. Missing IDs and end times are filled in.
func (s *Store) Record(ctx context.Context, rec MatchRecord) (MatchRecord, error) {
	if s == nil || s.db == nil {
		return rec, ErrClosed
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.EndedAt.IsZero() {
		rec.EndedAt = time.Now()
	}
	if rec.Winner == "" {
		rec.Winner = WinnerNone
	}

	const insertSQL = `
	INSERT INTO matches (id, session_id, started_at, ended_at, width, height, mode, strategy, winner, player_shots, enemy_shots, commitment)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, insertSQL,
		rec.ID,
		rec.SessionID,
		rec.StartedAt.UTC(),
		rec.EndedAt.UTC(),
		rec.Width,
		rec.Height,
		rec.Mode,
		rec.Strategy,
		rec.Winner,
		rec.PlayerShots,
		rec.EnemyShots,
		rec.Commitment,
	)
	if err != nil {
		return rec, fmt.Errorf("failed to save match: %w", err)
	}
	return rec, nil
}

// List returns the most recent matches first
func (s *Store) List(ctx context.Context, limit int) ([]MatchRecord, error) {
	if s == nil || s.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, maximumLimit)

	rows, err := s.db.QueryContext(ctx, `
	SELECT id, session_id, started_at, ended_at, width, height, mode, strategy, winner, player_shots, enemy_shots, commitment
	FROM matches
	ORDER BY ended_at DESC
	LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var out []MatchRecord
	for rows.Next() {
		var rec MatchRecord
		var commitment sql.NullString
		if err := rows.Scan(
			&rec.ID,
			&rec.SessionID,
			&rec.StartedAt,
			&rec.EndedAt,
			&rec.Width,
			&rec.Height,
			&rec.Mode,
			&rec.Strategy,
			&rec.Winner,
			&rec.PlayerShots,
			&rec.EnemyShots,
			&commitment,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		rec.Commitment = commitment.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Stats summarizes the recorded matches
type Stats struct {
	Total      int `json:"total"`
	PlayerWins int `json:"player_wins"`
	EnemyWins  int `json:"enemy_wins"`
}

// Summary counts matches by winner
func (s *Store) Summary(ctx context.Context) (Stats, error) {
	var st Stats
	if s == nil || s.db == nil {
		return st, ErrClosed
	}
	err := s.db.QueryRowContext(ctx, `
	SELECT COUNT(*),
		COALESCE(SUM(CASE WHEN winner = ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN winner = ? THEN 1 ELSE 0 END), 0)
	FROM matches`, WinnerPlayer, WinnerEnemy).Scan(&st.Total, &st.PlayerWins, &st.EnemyWins)
	if err != nil {
		return st, fmt.Errorf("failed to summarize matches: %w", err)
	}
	return st, nil
}

// Close releases the database
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
