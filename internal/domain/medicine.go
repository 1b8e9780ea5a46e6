package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Medicine is a stock-keeping unit owned by one branch. A new batch of the
// same product is a separate row; quantity is only ever changed through the
// stock ledger primitive.
type Medicine struct {
	ID            int64           `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	GenericName   string          `json:"generic_name" db:"generic_name"`
	BatchNumber   string          `json:"batch_number" db:"batch_number"`
	Quantity      int             `json:"quantity" db:"quantity"`
	ReorderLevel  int             `json:"reorder_level" db:"reorder_level"`
	UnitPrice     decimal.Decimal `json:"unit_price" db:"unit_price"`
	UnitCost      decimal.Decimal `json:"unit_cost" db:"unit_cost"`
	ExpiryDate    *time.Time      `json:"expiry_date,omitempty" db:"expiry_date"`
	BranchID      int64           `json:"branch_id" db:"branch_id"`
	IsControlled  bool            `json:"is_controlled" db:"is_controlled"`
	ScheduleClass string          `json:"schedule_class" db:"schedule_class"`
	IsActive      bool            `json:"is_active" db:"is_active"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// Branch represents a pharmacy location.
type Branch struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Code      string    `json:"code" db:"code"`
	Address   string    `json:"address" db:"address"`
	Phone     string    `json:"phone" db:"phone"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// User is the caller identity as replicated to desktop clients. Credentials
// and session handling live outside this module.
type User struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Role      string    `json:"role" db:"role"`
	BranchID  int64     `json:"branch_id" db:"branch_id"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Customer is a walk-in or registered buyer. Desktop clients may create
// customers offline; they are deduplicated by phone or email on upload.
type Customer struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Phone     string    `json:"phone" db:"phone"`
	Email     string    `json:"email" db:"email"`
	Address   string    `json:"address" db:"address"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Supplier provides purchase order goods.
type Supplier struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Contact   string    `json:"contact" db:"contact"`
	Phone     string    `json:"phone" db:"phone"`
	Email     string    `json:"email" db:"email"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// InventorySummary aggregates per-branch stock figures for the dashboard.
type InventorySummary struct {
	BranchID      int64 `json:"branch_id"`
	TotalItems    int   `json:"total_items"`
	TotalQuantity int   `json:"total_quantity"`
	LowStockCount int   `json:"low_stock_count"`
	ExpiringCount int   `json:"expiring_count"`
	ControlledCnt int   `json:"controlled_count"`
}
