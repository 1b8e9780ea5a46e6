package postgres

import (
	"context"
	"fmt"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/jmoiron/sqlx"
)

func (s *Store) FindSaleByInvoice(ctx context.Context, invoiceNumber string) (*domain.Sale, error) {
	var sale domain.Sale
	err := sqlx.GetContext(ctx, s.q(), &sale, `
		SELECT * FROM sales WHERE invoice_number = $1
	`, invoiceNumber)
	if err != nil {
		return nil, wrapErr(err)
	}
	err = sqlx.SelectContext(ctx, s.q(), &sale.Items, `
		SELECT * FROM sale_items WHERE sale_id = $1 ORDER BY id
	`, sale.ID)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &sale, nil
}

func (s *Store) CreateSale(ctx context.Context, sale *domain.Sale) error {
	err := s.q().QueryRowxContext(ctx, `
		INSERT INTO sales (invoice_number, branch_id, customer_id, subtotal, discount, total, payment_method, sold_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, sale.InvoiceNumber, sale.BranchID, sale.CustomerID, sale.Subtotal,
		sale.Discount, sale.Total, sale.PaymentMethod, sale.SoldBy,
	).Scan(&sale.ID, &sale.CreatedAt, &sale.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create sale: %w", wrapErr(err))
	}

	for i := range sale.Items {
		it := &sale.Items[i]
		it.SaleID = sale.ID
		err := sqlx.GetContext(ctx, s.q(), &it.ID, `
			INSERT INTO sale_items (sale_id, medicine_id, quantity, unit_price, total)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, sale.ID, it.MedicineID, it.Quantity, it.UnitPrice, it.Total)
		if err != nil {
			return fmt.Errorf("create sale item: %w", wrapErr(err))
		}
	}
	return nil
}
