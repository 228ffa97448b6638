package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"verbquiz-service/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

// ResultsStore keeps finished game scores in a local SQLite file.
type ResultsStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and makes sure the results table exists.
func Open(ctx context.Context, path string) (*ResultsStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &ResultsStore{db: db}, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL UNIQUE,
			mode TEXT NOT NULL,
			score INTEGER NOT NULL,
			total INTEGER NOT NULL,
			finished_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create results table: %w", err)
	}
	return nil
}

func (s *ResultsStore) Close() error {
	return s.db.Close()
}

func (s *ResultsStore) Record(ctx context.Context, result domain.Result) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO results (session_id, mode, score, total, finished_at) VALUES (?, ?, ?, ?, ?)",
		result.SessionID, string(result.Mode), result.Score, result.Total, result.FinishedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	return nil
}

// Recent returns up to limit results, newest first. A non-positive limit returns all.
func (s *ResultsStore) Recent(ctx context.Context, limit int) ([]domain.Result, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT session_id, mode, score, total, finished_at FROM results ORDER BY finished_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []domain.Result
	for rows.Next() {
		var (
			r        domain.Result
			mode     string
			finished int64
		)
		if err := rows.Scan(&r.SessionID, &mode, &r.Score, &r.Total, &finished); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Mode = domain.Mode(mode)
		r.FinishedAt = time.Unix(0, finished).UTC()
		results = append(results, r)
	}
	return results, rows.Err()
}
