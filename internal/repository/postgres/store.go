package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Harsh-BH/baywatch/internal/domain"
	"github.com/Harsh-BH/baywatch/internal/repository"
)

//go:embed schema.sql
var schema string

const (
	openJobIndex        = "jobs_one_open_per_camera"
	uniqueViolationCode = "23505"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Ensure pgStore implements repository.Store.
var _ repository.Store = (*pgStore)(nil)

type pgStore struct {
	pool *pgxpool.Pool // nil when bound to a transaction
	q    querier
}

// NewPostgresStore creates a PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) repository.Store {
	return &pgStore{pool: pool, q: pool}
}

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

func (s *pgStore) Cameras() repository.CameraRepository {
	return &pgCameraRepo{q: s.q}
}

func (s *pgStore) Jobs() repository.JobRepository {
	return &pgJobRepo{q: s.q}
}

func (s *pgStore) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.pool == nil {
		// Already inside a transaction.
		return fn(s)
	}

	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(&pgStore{q: tx})
	})
	return translateError(err)
}

// translateError maps a violation of the open-job index to domain.ErrCameraInUse.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode && pgErr.ConstraintName == openJobIndex {
		return domain.ErrCameraInUse
	}
	return err
}
