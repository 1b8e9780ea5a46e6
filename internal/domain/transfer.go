package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock transfer lifecycle. COMPLETED and CANCELLED are terminal.
const (
	TransferPending   = "PENDING"
	TransferInTransit = "IN_TRANSIT"
	TransferCompleted = "COMPLETED"
	TransferCancelled = "CANCELLED"
)

var transferTransitions = map[string][]string{
	TransferPending:   {TransferInTransit, TransferCompleted, TransferCancelled},
	TransferInTransit: {TransferCompleted, TransferCancelled},
}

// ValidTransferTransition reports whether the state machine permits moving
// a transfer from one status to another.
func ValidTransferTransition(from, to string) bool {
	for _, next := range transferTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StockTransfer moves quantity between two branches as one logical
// operation. Items snapshot the source medicine at creation time so later
// renames or price changes do not retroactively alter an in-flight transfer.
type StockTransfer struct {
	ID             int64               `json:"id" db:"id"`
	TransferNumber string              `json:"transfer_number" db:"transfer_number"`
	FromBranchID   int64               `json:"from_branch_id" db:"from_branch_id"`
	ToBranchID     int64               `json:"to_branch_id" db:"to_branch_id"`
	Status         string              `json:"status" db:"status"`
	Notes          string              `json:"notes" db:"notes"`
	RequestedBy    int64               `json:"requested_by" db:"requested_by"`
	Items          []StockTransferItem `json:"items" db:"-"`
	CompletedAt    *time.Time          `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt      time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at" db:"updated_at"`
}

// StockTransferItem is a creation-time snapshot, not a live reference.
type StockTransferItem struct {
	ID           int64           `json:"id" db:"id"`
	TransferID   int64           `json:"transfer_id" db:"transfer_id"`
	MedicineID   int64           `json:"medicine_id" db:"medicine_id"`
	MedicineName string          `json:"medicine_name" db:"medicine_name"`
	BatchNumber  string          `json:"batch_number" db:"batch_number"`
	Quantity     int             `json:"quantity" db:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price" db:"unit_price"`
}

// TransferLineItem is the validated boundary payload for one transfer line.
type TransferLineItem struct {
	MedicineID int64 `json:"medicine_id"`
	Quantity   int   `json:"quantity"`
}

// CreateTransferRequest is the boundary payload for a new transfer.
type CreateTransferRequest struct {
	FromBranchID int64              `json:"from_branch_id"`
	ToBranchID   int64              `json:"to_branch_id"`
	Notes        string             `json:"notes"`
	Items        []TransferLineItem `json:"items"`
}
