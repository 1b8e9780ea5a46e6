package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is a point-of-sale checkout. InvoiceNumber is globally unique and is
// the idempotency key for offline sync replay.
type Sale struct {
	ID            int64           `json:"id" db:"id"`
	InvoiceNumber string          `json:"invoice_number" db:"invoice_number"`
	BranchID      int64           `json:"branch_id" db:"branch_id"`
	CustomerID    *int64          `json:"customer_id,omitempty" db:"customer_id"`
	Subtotal      decimal.Decimal `json:"subtotal" db:"subtotal"`
	Discount      decimal.Decimal `json:"discount" db:"discount"`
	Total         decimal.Decimal `json:"total" db:"total"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	SoldBy        int64           `json:"sold_by" db:"sold_by"`
	Items         []SaleItem      `json:"items" db:"-"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// SaleItem is one sold line.
type SaleItem struct {
	ID         int64           `json:"id" db:"id"`
	SaleID     int64           `json:"sale_id" db:"sale_id"`
	MedicineID int64           `json:"medicine_id" db:"medicine_id"`
	Quantity   int             `json:"quantity" db:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price" db:"unit_price"`
	Total      decimal.Decimal `json:"total" db:"total"`
}

// SaleLineItem is the validated boundary payload for one sale line.
type SaleLineItem struct {
	MedicineID int64           `json:"medicine_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

// CreateSaleRequest is the boundary payload for checkout. InvoiceNumber is
// optional; when omitted the service assigns one. Offline clients always
// supply their locally generated number.
type CreateSaleRequest struct {
	InvoiceNumber string          `json:"invoice_number"`
	CustomerID    *int64          `json:"customer_id,omitempty"`
	Discount      decimal.Decimal `json:"discount"`
	PaymentMethod string          `json:"payment_method"`
	Items         []SaleLineItem  `json:"items"`
}
