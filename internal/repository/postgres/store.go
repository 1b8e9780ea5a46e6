package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Store implements repository.Store over postgres. A zero tx means calls
// run against the pool; InTx produces a copy bound to one transaction.
type Store struct {
	db *DB
	tx *sqlx.Tx
}

func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// q returns the active query target: the open transaction if there is one,
// otherwise the pool.
func (s *Store) q() sqlx.ExtContext {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// InTx runs fn against a transaction-bound store. Nested calls reuse the
// already open transaction so a workflow composed of smaller operations
// still commits or rolls back as one unit.
func (s *Store) InTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	return s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&Store{db: s.db, tx: tx})
	})
}

// NextSequence increments and returns the scoped counter. The upsert is a
// single statement, so concurrent writers serialize on the row and can
// never mint the same number.
func (s *Store) NextSequence(ctx context.Context, scope string) (int64, error) {
	var value int64
	err := sqlx.GetContext(ctx, s.q(), &value, `
		INSERT INTO sequences (scope, value)
		VALUES ($1, 1)
		ON CONFLICT (scope) DO UPDATE SET value = sequences.value + 1
		RETURNING value
	`, scope)
	if err != nil {
		return 0, wrapErr(err)
	}
	return value, nil
}

// wrapErr translates driver errors into the shared taxonomy.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return repository.ErrDuplicateRecord
	}
	return err
}
