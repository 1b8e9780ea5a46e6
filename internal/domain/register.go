package domain

import "time"

// Transaction types recorded in the controlled substance register.
const (
	RegisterDispense = "dispense"
	RegisterReceive  = "receive"
	RegisterAdjust   = "adjust"
	RegisterDestroy  = "destroy"
	RegisterReturn   = "return"
)

// ValidRegisterType reports whether t is a known register transaction type.
func ValidRegisterType(t string) bool {
	switch t {
	case RegisterDispense, RegisterReceive, RegisterAdjust, RegisterDestroy, RegisterReturn:
		return true
	}
	return false
}

// RegisterEntry is one immutable line of the controlled substance register.
// After creation the only permitted mutation is attaching a verifier.
type RegisterEntry struct {
	ID              int64      `json:"id" db:"id"`
	EntryNumber     string     `json:"entry_number" db:"entry_number"`
	MedicineID      int64      `json:"medicine_id" db:"medicine_id"`
	BranchID        int64      `json:"branch_id" db:"branch_id"`
	TransactionType string     `json:"transaction_type" db:"transaction_type"`
	QuantityIn      int        `json:"quantity_in" db:"quantity_in"`
	QuantityOut     int        `json:"quantity_out" db:"quantity_out"`
	BalanceBefore   int        `json:"balance_before" db:"balance_before"`
	BalanceAfter    int        `json:"balance_after" db:"balance_after"`
	Reference       string     `json:"reference" db:"reference"`
	Notes           string     `json:"notes" db:"notes"`
	RecordedBy      int64      `json:"recorded_by" db:"recorded_by"`
	RecordedByName  string     `json:"recorded_by_name" db:"recorded_by_name"`
	VerifiedBy      *int64     `json:"verified_by,omitempty" db:"verified_by"`
	VerifiedByName  string     `json:"verified_by_name,omitempty" db:"verified_by_name"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty" db:"verified_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// Verified reports whether the entry already carries a counter-signature.
func (e *RegisterEntry) Verified() bool {
	return e.VerifiedBy != nil
}

// RegisterEntryRequest is the boundary payload for recording a register
// transaction.
type RegisterEntryRequest struct {
	MedicineID      int64  `json:"medicine_id"`
	TransactionType string `json:"transaction_type"`
	QuantityIn      int    `json:"quantity_in"`
	QuantityOut     int    `json:"quantity_out"`
	Reference       string `json:"reference"`
	Notes           string `json:"notes"`
	// AdjustStock applies the same movement to the stock ledger in the
	// same transaction, keeping register and ledger in step.
	AdjustStock bool `json:"adjust_stock"`
}
