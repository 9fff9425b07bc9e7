// Package passages provides read access to the stored evidence corpus.
// Passages are collected out of band (scrapes of postings, curricula,
// interview guides) and keyed by the role transition they describe.
package passages

import (
	"context"

	"skillscope/internal/errors"
	"skillscope/internal/types"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store retrieves evidence passages for a role transition.
type Store interface {
	FetchByTransition(ctx context.Context, currentRole, targetRole string) ([]types.Passage, error)
	Close()
}

// PostgresStore is a Store backed by a pgx connection pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *errors.Logger
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to the passage database and verifies the
// connection with a ping.
func NewPostgresStore(ctx context.Context, databaseURL string, logger *errors.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStorageFailed,
			"Failed to create connection pool", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.NewStorageError(errors.ErrCodeStorageFailed,
			"Failed to connect to passage database", err)
	}

	logger.Info("Passage store connected")
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// FetchByTransition returns the stored passages for a role pair in insertion
// order. No rows is not an error: an empty corpus just means the analyzer
// will escalate to augmentation search.
func (s *PostgresStore) FetchByTransition(ctx context.Context, currentRole, targetRole string) ([]types.Passage, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT source, content, COALESCE(url, '')
		   FROM transition_passages
		  WHERE current_role = $1 AND target_role = $2
		  ORDER BY id`,
		currentRole, targetRole)
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStorageFailed,
			"Failed to query passages", err)
	}
	defer rows.Close()

	var passages []types.Passage
	for rows.Next() {
		var p types.Passage
		if err := rows.Scan(&p.Source, &p.Content, &p.URL); err != nil {
			return nil, errors.NewStorageError(errors.ErrCodeStorageFailed,
				"Failed to scan passage row", err)
		}
		passages = append(passages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStorageFailed,
			"Passage query failed", err)
	}

	s.logger.Debug("Fetched passages",
		"current_role", currentRole,
		"target_role", targetRole,
		"count", len(passages))
	return passages, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
