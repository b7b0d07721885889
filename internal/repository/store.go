package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of pgx shared by pgxpool.Pool and pgx.Tx, so repositories
// work identically inside and outside a transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles every repository over a shared connection source and provides
// the transactional boundary for mutations.
type Store interface {
	Users() UserRepository
	Projects() ProjectRepository
	Teams() TeamRepository
	WorkItems() WorkItemRepository
	Activity() ActivityRepository
	Notifications() NotificationRepository
	ModeSwitches() ModeSwitchRepository
	PasswordResets() PasswordResetRepository

	// InTx runs fn against a store bound to a single transaction. Everything
	// fn does commits or rolls back together. Nested calls reuse the
	// enclosing transaction.
	InTx(ctx context.Context, fn func(Store) error) error
}

type pgxStore struct {
	pool *pgxpool.Pool
	db   DB
}

// NewStore builds the Postgres-backed store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgxStore{pool: pool, db: pool}
}

func (s *pgxStore) Users() UserRepository                 { return &userRepository{db: s.db} }
func (s *pgxStore) Projects() ProjectRepository           { return &projectRepository{db: s.db} }
func (s *pgxStore) Teams() TeamRepository                 { return &teamRepository{db: s.db} }
func (s *pgxStore) WorkItems() WorkItemRepository         { return &workItemRepository{db: s.db} }
func (s *pgxStore) Activity() ActivityRepository          { return &activityRepository{db: s.db} }
func (s *pgxStore) Notifications() NotificationRepository { return &notificationRepository{db: s.db} }
func (s *pgxStore) ModeSwitches() ModeSwitchRepository    { return &modeSwitchRepository{db: s.db} }
func (s *pgxStore) PasswordResets() PasswordResetRepository {
	return &passwordResetRepository{db: s.db}
}

func (s *pgxStore) InTx(ctx context.Context, fn func(Store) error) error {
	if s.pool == nil {
		// already transaction-bound
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	bound := &pgxStore{db: tx}
	if err := fn(bound); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation, optionally on a specific constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
