package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/repository"
	"github.com/jmoiron/sqlx"
)

func (s *Store) GetMedicine(ctx context.Context, id int64) (*domain.Medicine, error) {
	var m domain.Medicine
	err := sqlx.GetContext(ctx, s.q(), &m, `SELECT * FROM medicines WHERE id = $1`, id)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &m, nil
}

// GetMedicineForUpdate locks the medicine row for the rest of the open
// transaction. Two register writers for the same medicine block here, so
// the second one reads the chain head the first one committed. Outside a
// transaction this degrades to a plain read.
func (s *Store) GetMedicineForUpdate(ctx context.Context, id int64) (*domain.Medicine, error) {
	var m domain.Medicine
	err := sqlx.GetContext(ctx, s.q(), &m, `SELECT * FROM medicines WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &m, nil
}

func (s *Store) FindMedicineByBatch(ctx context.Context, branchID int64, name, batchNumber string) (*domain.Medicine, error) {
	var m domain.Medicine
	err := sqlx.GetContext(ctx, s.q(), &m, `
		SELECT * FROM medicines
		WHERE branch_id = $1 AND LOWER(name) = LOWER($2) AND batch_number = $3 AND is_active
	`, branchID, name, batchNumber)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &m, nil
}

func (s *Store) CreateMedicine(ctx context.Context, m *domain.Medicine) error {
	err := sqlx.GetContext(ctx, s.q(), &m.ID, `
		INSERT INTO medicines (
			name, generic_name, batch_number, quantity, reorder_level,
			unit_price, unit_cost, expiry_date, branch_id,
			is_controlled, schedule_class, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE)
		RETURNING id
	`, m.Name, m.GenericName, m.BatchNumber, m.Quantity, m.ReorderLevel,
		m.UnitPrice, m.UnitCost, m.ExpiryDate, m.BranchID,
		m.IsControlled, m.ScheduleClass)
	if err != nil {
		return fmt.Errorf("create medicine: %w", wrapErr(err))
	}
	return nil
}

func (s *Store) DeactivateMedicine(ctx context.Context, id int64) error {
	res, err := s.q().ExecContext(ctx, `
		UPDATE medicines SET is_active = FALSE, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return wrapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AdjustMedicineQuantity is the stock ledger primitive. The guard in the
// WHERE clause makes read-modify-write a single statement, so two
// concurrent workflows serialize on the row and a negative result is
// impossible regardless of interleaving.
func (s *Store) AdjustMedicineQuantity(ctx context.Context, id int64, delta int) (int, error) {
	var newQty int
	err := sqlx.GetContext(ctx, s.q(), &newQty, `
		UPDATE medicines
		SET quantity = quantity + $2, updated_at = NOW()
		WHERE id = $1 AND quantity + $2 >= 0
		RETURNING quantity
	`, id, delta)
	if err == nil {
		return newQty, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, wrapErr(err)
	}

	// No row updated: distinguish a missing medicine from a guard miss.
	var exists bool
	if chkErr := sqlx.GetContext(ctx, s.q(), &exists,
		`SELECT EXISTS (SELECT 1 FROM medicines WHERE id = $1)`, id); chkErr != nil {
		return 0, wrapErr(chkErr)
	}
	if !exists {
		return 0, repository.ErrNotFound
	}
	return 0, repository.ErrInsufficientStock
}

func (s *Store) ListLowStock(ctx context.Context, branchID int64) ([]domain.Medicine, error) {
	var out []domain.Medicine
	err := sqlx.SelectContext(ctx, s.q(), &out, `
		SELECT * FROM medicines
		WHERE is_active AND quantity <= reorder_level AND ($1 = 0 OR branch_id = $1)
		ORDER BY quantity ASC
	`, branchID)
	if err != nil {
		return nil, wrapErr(err)
	}
	return out, nil
}

func (s *Store) InventorySummary(ctx context.Context, branchID int64) (*domain.InventorySummary, error) {
	var sum domain.InventorySummary
	sum.BranchID = branchID
	err := s.q().QueryRowxContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(quantity), 0),
			COUNT(*) FILTER (WHERE quantity <= reorder_level),
			COUNT(*) FILTER (WHERE expiry_date IS NOT NULL AND expiry_date < NOW() + INTERVAL '30 days'),
			COUNT(*) FILTER (WHERE is_controlled)
		FROM medicines
		WHERE is_active AND ($1 = 0 OR branch_id = $1)
	`, branchID).Scan(&sum.TotalItems, &sum.TotalQuantity, &sum.LowStockCount, &sum.ExpiringCount, &sum.ControlledCnt)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &sum, nil
}

func (s *Store) GetBranch(ctx context.Context, id int64) (*domain.Branch, error) {
	var b domain.Branch
	err := sqlx.GetContext(ctx, s.q(), &b, `SELECT * FROM branches WHERE id = $1`, id)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &b, nil
}
