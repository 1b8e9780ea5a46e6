package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/repository"
	"github.com/jmoiron/sqlx"
)

func (s *Store) LatestRegisterBalance(ctx context.Context, medicineID int64) (int, bool, error) {
	var balance int
	err := sqlx.GetContext(ctx, s.q(), &balance, `
		SELECT balance_after FROM register_entries
		WHERE medicine_id = $1
		ORDER BY id DESC
		LIMIT 1
	`, medicineID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, wrapErr(err)
	}
	return balance, true, nil
}

func (s *Store) CreateRegisterEntry(ctx context.Context, e *domain.RegisterEntry) error {
	err := s.q().QueryRowxContext(ctx, `
		INSERT INTO register_entries (
			entry_number, medicine_id, branch_id, transaction_type,
			quantity_in, quantity_out, balance_before, balance_after,
			reference, notes, recorded_by, recorded_by_name
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`, e.EntryNumber, e.MedicineID, e.BranchID, e.TransactionType,
		e.QuantityIn, e.QuantityOut, e.BalanceBefore, e.BalanceAfter,
		e.Reference, e.Notes, e.RecordedBy, e.RecordedByName,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("create register entry: %w", wrapErr(err))
	}
	return nil
}

func (s *Store) GetRegisterEntry(ctx context.Context, id int64) (*domain.RegisterEntry, error) {
	var e domain.RegisterEntry
	err := sqlx.GetContext(ctx, s.q(), &e, `SELECT * FROM register_entries WHERE id = $1`, id)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &e, nil
}

func (s *Store) AttachRegisterVerifier(ctx context.Context, entryID, verifierID int64, verifierName string, at time.Time) error {
	res, err := s.q().ExecContext(ctx, `
		UPDATE register_entries
		SET verified_by = $2, verified_by_name = $3, verified_at = $4
		WHERE id = $1 AND verified_by IS NULL
	`, entryID, verifierID, verifierName, at)
	if err != nil {
		return wrapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrInvalidTransition
	}
	return nil
}

func (s *Store) ListRegisterEntries(ctx context.Context, medicineID int64, limit int) ([]domain.RegisterEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []domain.RegisterEntry
	err := sqlx.SelectContext(ctx, s.q(), &out, `
		SELECT * FROM register_entries
		WHERE ($1 = 0 OR medicine_id = $1)
		ORDER BY id DESC
		LIMIT $2
	`, medicineID, limit)
	if err != nil {
		return nil, wrapErr(err)
	}
	return out, nil
}
