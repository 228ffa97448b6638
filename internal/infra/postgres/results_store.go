package postgres

import (
	"context"
	"fmt"

	"verbquiz-service/internal/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

// ResultsStore keeps finished game scores in the results table.
type ResultsStore struct {
	pool *pgxpool.Pool
}

func NewResultsStore(pool *pgxpool.Pool) *ResultsStore {
	return &ResultsStore{pool: pool}
}

func (s *ResultsStore) Record(ctx context.Context, result domain.Result) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO results (session_id, mode, score, total, finished_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (session_id) DO NOTHING`,
		result.SessionID, string(result.Mode), result.Score, result.Total, result.FinishedAt.UTC())
	if err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	return nil
}

// Recent returns up to limit results, newest first. A non-positive limit returns all.
func (s *ResultsStore) Recent(ctx context.Context, limit int) ([]domain.Result, error) {
	query := `SELECT session_id, mode, score, total, finished_at FROM results ORDER BY finished_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []domain.Result
	for rows.Next() {
		var (
			r    domain.Result
			mode string
		)
		if err := rows.Scan(&r.SessionID, &mode, &r.Score, &r.Total, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Mode = domain.Mode(mode)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}
