package domain

import "time"

// Prescription lifecycle.
const (
	PrescriptionActive    = "ACTIVE"
	PrescriptionPartial   = "PARTIAL"
	PrescriptionDispensed = "DISPENSED"
	PrescriptionExpired   = "EXPIRED"
	PrescriptionCancelled = "CANCELLED"
)

// Prescription is a doctor's order tracked until fully dispensed.
type Prescription struct {
	ID             int64              `json:"id" db:"id"`
	Number         string             `json:"number" db:"number"`
	PatientName    string             `json:"patient_name" db:"patient_name"`
	DoctorName     string             `json:"doctor_name" db:"doctor_name"`
	CustomerID     *int64             `json:"customer_id,omitempty" db:"customer_id"`
	BranchID       int64              `json:"branch_id" db:"branch_id"`
	Status         string             `json:"status" db:"status"`
	RefillsAllowed int                `json:"refills_allowed" db:"refills_allowed"`
	RefillsUsed    int                `json:"refills_used" db:"refills_used"`
	ExpiryDate     *time.Time         `json:"expiry_date,omitempty" db:"expiry_date"`
	Items          []PrescriptionItem `json:"items" db:"-"`
	CreatedAt      time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" db:"updated_at"`
}

// PrescriptionItem bounds dispensing: QuantityDispensed never exceeds
// QuantityPrescribed.
type PrescriptionItem struct {
	ID                  int64  `json:"id" db:"id"`
	PrescriptionID      int64  `json:"prescription_id" db:"prescription_id"`
	MedicineID          int64  `json:"medicine_id" db:"medicine_id"`
	MedicineName        string `json:"medicine_name" db:"medicine_name"`
	Dosage              string `json:"dosage" db:"dosage"`
	QuantityPrescribed  int    `json:"quantity_prescribed" db:"quantity_prescribed"`
	QuantityDispensed   int    `json:"quantity_dispensed" db:"quantity_dispensed"`
	SubstitutionAllowed bool   `json:"substitution_allowed" db:"substitution_allowed"`
}

// FullyDispensed reports whether the item has no remaining quantity.
func (i PrescriptionItem) FullyDispensed() bool {
	return i.QuantityDispensed >= i.QuantityPrescribed
}

// PrescriptionDispensing is one fulfillment event against a prescription.
type PrescriptionDispensing struct {
	ID             int64            `json:"id" db:"id"`
	PrescriptionID int64            `json:"prescription_id" db:"prescription_id"`
	SaleID         *int64           `json:"sale_id,omitempty" db:"sale_id"`
	DispensedBy    int64            `json:"dispensed_by" db:"dispensed_by"`
	Items          []DispensingItem `json:"items" db:"-"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
}

// DispensingItem is one dispensed line within a dispensing event.
type DispensingItem struct {
	ID                 int64  `json:"id" db:"id"`
	DispensingID       int64  `json:"dispensing_id" db:"dispensing_id"`
	PrescriptionItemID int64  `json:"prescription_item_id" db:"prescription_item_id"`
	MedicineID         int64  `json:"medicine_id" db:"medicine_id"`
	Quantity           int    `json:"quantity" db:"quantity"`
	Substituted        bool   `json:"substituted" db:"substituted"`
	SubstituteNote     string `json:"substitute_note" db:"substitute_note"`
}

// DispenseLineItem is the validated boundary payload for one dispensed line.
type DispenseLineItem struct {
	PrescriptionItemID int64  `json:"prescription_item_id"`
	MedicineID         int64  `json:"medicine_id"`
	Quantity           int    `json:"quantity"`
	Substituted        bool   `json:"substituted"`
	SubstituteNote     string `json:"substitute_note"`
}

// DispenseRequest is the boundary payload for a dispensing event.
type DispenseRequest struct {
	Items  []DispenseLineItem `json:"items"`
	SaleID *int64             `json:"sale_id,omitempty"`
}
