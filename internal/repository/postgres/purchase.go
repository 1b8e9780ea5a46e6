package postgres

import (
	"context"
	"fmt"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/repository"
	"github.com/jmoiron/sqlx"
)

func (s *Store) CreatePurchaseOrder(ctx context.Context, po *domain.PurchaseOrder) error {
	err := s.q().QueryRowxContext(ctx, `
		INSERT INTO purchase_orders (order_number, supplier_id, branch_id, status, notes, ordered_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, po.OrderNumber, po.SupplierID, po.BranchID, po.Status, po.Notes, po.OrderedBy,
	).Scan(&po.ID, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create purchase order: %w", wrapErr(err))
	}

	for i := range po.Items {
		it := &po.Items[i]
		it.OrderID = po.ID
		err := sqlx.GetContext(ctx, s.q(), &it.ID, `
			INSERT INTO purchase_order_items (order_id, medicine_name, generic_name, quantity, received_qty, unit_cost)
			VALUES ($1, $2, $3, $4, 0, $5)
			RETURNING id
		`, po.ID, it.MedicineName, it.GenericName, it.Quantity, it.UnitCost)
		if err != nil {
			return fmt.Errorf("create order item: %w", wrapErr(err))
		}
	}
	return nil
}

func (s *Store) GetPurchaseOrder(ctx context.Context, id int64) (*domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	err := sqlx.GetContext(ctx, s.q(), &po, `SELECT * FROM purchase_orders WHERE id = $1`, id)
	if err != nil {
		return nil, wrapErr(err)
	}
	err = sqlx.SelectContext(ctx, s.q(), &po.Items, `
		SELECT * FROM purchase_order_items WHERE order_id = $1 ORDER BY id
	`, id)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &po, nil
}

func (s *Store) AddOrderItemReceived(ctx context.Context, orderItemID int64, qty int) error {
	res, err := s.q().ExecContext(ctx, `
		UPDATE purchase_order_items SET received_qty = received_qty + $2 WHERE id = $1
	`, orderItemID, qty)
	if err != nil {
		return wrapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) SetPurchaseOrderStatus(ctx context.Context, id int64, status string) error {
	res, err := s.q().ExecContext(ctx, `
		UPDATE purchase_orders SET status = $2, updated_at = NOW() WHERE id = $1
	`, id, status)
	if err != nil {
		return wrapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) CreateGRN(ctx context.Context, grn *domain.GoodsReceivedNote) error {
	err := s.q().QueryRowxContext(ctx, `
		INSERT INTO goods_received_notes (grn_number, purchase_order_id, branch_id, received_by, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, grn.GRNNumber, grn.PurchaseOrderID, grn.BranchID, grn.ReceivedBy, grn.Notes,
	).Scan(&grn.ID, &grn.CreatedAt)
	if err != nil {
		return fmt.Errorf("create grn: %w", wrapErr(err))
	}

	for i := range grn.Items {
		it := &grn.Items[i]
		it.GRNID = grn.ID
		err := sqlx.GetContext(ctx, s.q(), &it.ID, `
			INSERT INTO grn_items (
				grn_id, order_item_id, medicine_name, quantity_received,
				unit_cost, batch_number, expiry_date, added_to_inventory
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`, grn.ID, it.OrderItemID, it.MedicineName, it.QuantityReceived,
			it.UnitCost, it.BatchNumber, it.ExpiryDate, it.AddedToInventory)
		if err != nil {
			return fmt.Errorf("create grn item: %w", wrapErr(err))
		}
	}
	return nil
}
