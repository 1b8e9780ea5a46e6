package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/repository"
	"github.com/jmoiron/sqlx"
)

func (s *Store) CreateTransfer(ctx context.Context, t *domain.StockTransfer) error {
	err := s.q().QueryRowxContext(ctx, `
		INSERT INTO stock_transfers (transfer_number, from_branch_id, to_branch_id, status, notes, requested_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, t.TransferNumber, t.FromBranchID, t.ToBranchID, t.Status, t.Notes, t.RequestedBy,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create transfer: %w", wrapErr(err))
	}

	for i := range t.Items {
		it := &t.Items[i]
		it.TransferID = t.ID
		err := sqlx.GetContext(ctx, s.q(), &it.ID, `
			INSERT INTO stock_transfer_items (transfer_id, medicine_id, medicine_name, batch_number, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, t.ID, it.MedicineID, it.MedicineName, it.BatchNumber, it.Quantity, it.UnitPrice)
		if err != nil {
			return fmt.Errorf("create transfer item: %w", wrapErr(err))
		}
	}
	return nil
}

func (s *Store) GetTransfer(ctx context.Context, id int64) (*domain.StockTransfer, error) {
	var t domain.StockTransfer
	err := sqlx.GetContext(ctx, s.q(), &t, `SELECT * FROM stock_transfers WHERE id = $1`, id)
	if err != nil {
		return nil, wrapErr(err)
	}
	err = sqlx.SelectContext(ctx, s.q(), &t.Items, `
		SELECT * FROM stock_transfer_items WHERE transfer_id = $1 ORDER BY id
	`, id)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &t, nil
}

func (s *Store) SetTransferStatus(ctx context.Context, id int64, status string, completedAt *time.Time) error {
	res, err := s.q().ExecContext(ctx, `
		UPDATE stock_transfers SET status = $2, completed_at = $3, updated_at = NOW() WHERE id = $1
	`, id, status, completedAt)
	if err != nil {
		return wrapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
