package database

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the activity log operations. The in-memory registry stays
// authoritative for routing; the store is an audit trail and is never used
// to reconstruct instances after a restart.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// RecordDispatch upserts the instance row for token and bumps its
	// update counter.
	RecordDispatch(ctx context.Context, token, role string) error

	// ListMinions returns all minion instance rows, most recently seen first.
	ListMinions(ctx context.Context) ([]Instance, error)

	// CountInstances returns the number of recorded instances per role.
	CountInstances(ctx context.Context) (map[string]int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) RecordDispatch(ctx context.Context, token, role string) error {
	if token == "" {
		return fmt.Errorf("cannot record dispatch for empty token")
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO instances (token, role, first_seen, last_seen, update_count)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(token) DO UPDATE SET
			last_seen    = excluded.last_seen,
			update_count = instances.update_count + 1`,
		token, role, now, now)
	if err != nil {
		return fmt.Errorf("failed to record dispatch: %w", err)
	}
	return nil
}

func (s *sqlxStore) ListMinions(ctx context.Context) ([]Instance, error) {
	var rows []Instance
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, token, role, first_seen, last_seen, update_count
		FROM instances
		WHERE role = ?
		ORDER BY last_seen DESC`, RoleMinion)
	if err != nil {
		return nil, fmt.Errorf("failed to list minions: %w", err)
	}
	return rows, nil
}

func (s *sqlxStore) CountInstances(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Role  string `db:"role"`
		Count int64  `db:"count"`
	}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT role, COUNT(*) AS count FROM instances GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("failed to count instances: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}

func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	for _, stmt := range []string{"VACUUM", "ANALYZE"} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("maintenance statement %s failed: %w", stmt, err)
		}
	}
	s.logger.InfoContext(ctx, "Database maintenance completed")
	return nil
}
