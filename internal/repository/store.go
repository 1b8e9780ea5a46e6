package repository

import (
	"context"
	"time"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
)

// Store is the persistence boundary for the inventory core. Every workflow
// runs its reads and writes through InTx so concurrent callers serialize in
// the backing store rather than racing on read-modify-write.
type Store interface {
	// InTx runs fn against a transaction-bound view of the store. Any
	// error from fn rolls the whole transaction back. Calling InTx on an
	// already transaction-bound store reuses the open transaction.
	InTx(ctx context.Context, fn func(Store) error) error

	// NextSequence atomically increments and returns the counter for a
	// scope (e.g. "csr:NBI:2026", "invoice", "transfer"). Numbering lives
	// in the store so concurrent writers cannot mint the same number.
	NextSequence(ctx context.Context, scope string) (int64, error)

	MedicineStore
	RegisterStore
	PurchaseStore
	TransferStore
	SaleStore
	PrescriptionStore
	SyncStore
}

// MedicineStore owns medicine rows and the stock ledger primitive.
type MedicineStore interface {
	GetMedicine(ctx context.Context, id int64) (*domain.Medicine, error)
	// GetMedicineForUpdate reads the medicine and, inside a transaction,
	// locks its row until commit so callers that chain off prior state
	// serialize per medicine.
	GetMedicineForUpdate(ctx context.Context, id int64) (*domain.Medicine, error)
	// FindMedicineByBatch matches a stock-keeping unit by name, batch
	// number and branch. New batches are separate rows.
	FindMedicineByBatch(ctx context.Context, branchID int64, name, batchNumber string) (*domain.Medicine, error)
	CreateMedicine(ctx context.Context, m *domain.Medicine) error
	DeactivateMedicine(ctx context.Context, id int64) error

	// AdjustMedicineQuantity is the stock ledger primitive: it applies
	// delta to the current quantity and returns the new value, failing
	// with ErrInsufficientStock if the result would be negative. All
	// quantity mutation in the system routes through this call.
	AdjustMedicineQuantity(ctx context.Context, id int64, delta int) (int, error)

	ListLowStock(ctx context.Context, branchID int64) ([]domain.Medicine, error)
	InventorySummary(ctx context.Context, branchID int64) (*domain.InventorySummary, error)

	GetBranch(ctx context.Context, id int64) (*domain.Branch, error)
}

// RegisterStore owns the controlled substance register.
type RegisterStore interface {
	// LatestRegisterBalance returns the balance_after of the medicine's
	// most recent entry; ok is false when no entry exists yet.
	LatestRegisterBalance(ctx context.Context, medicineID int64) (balance int, ok bool, err error)
	CreateRegisterEntry(ctx context.Context, e *domain.RegisterEntry) error
	GetRegisterEntry(ctx context.Context, id int64) (*domain.RegisterEntry, error)
	// AttachRegisterVerifier is the one permitted mutation of an entry.
	AttachRegisterVerifier(ctx context.Context, entryID, verifierID int64, verifierName string, at time.Time) error
	ListRegisterEntries(ctx context.Context, medicineID int64, limit int) ([]domain.RegisterEntry, error)
}

// PurchaseStore owns purchase orders and goods received notes.
type PurchaseStore interface {
	CreatePurchaseOrder(ctx context.Context, po *domain.PurchaseOrder) error
	GetPurchaseOrder(ctx context.Context, id int64) (*domain.PurchaseOrder, error)
	AddOrderItemReceived(ctx context.Context, orderItemID int64, qty int) error
	SetPurchaseOrderStatus(ctx context.Context, id int64, status string) error
	CreateGRN(ctx context.Context, grn *domain.GoodsReceivedNote) error
}

// TransferStore owns inter-branch stock transfers.
type TransferStore interface {
	CreateTransfer(ctx context.Context, t *domain.StockTransfer) error
	GetTransfer(ctx context.Context, id int64) (*domain.StockTransfer, error)
	SetTransferStatus(ctx context.Context, id int64, status string, completedAt *time.Time) error
}

// SaleStore owns sales. FindSaleByInvoice backs the sync idempotency check.
type SaleStore interface {
	FindSaleByInvoice(ctx context.Context, invoiceNumber string) (*domain.Sale, error)
	CreateSale(ctx context.Context, s *domain.Sale) error
}

// PrescriptionStore owns prescriptions and dispensing events.
type PrescriptionStore interface {
	CreatePrescription(ctx context.Context, p *domain.Prescription) error
	GetPrescription(ctx context.Context, id int64) (*domain.Prescription, error)
	AddPrescriptionItemDispensed(ctx context.Context, itemID int64, qty int) error
	SetPrescriptionStatus(ctx context.Context, id int64, status string, refillsUsed int) error
	CreateDispensing(ctx context.Context, d *domain.PrescriptionDispensing) error
}

// SyncStore serves the download change feed and customer dedup.
type SyncStore interface {
	FindCustomerByPhoneOrEmail(ctx context.Context, phone, email string) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, c *domain.Customer) error

	ChangedBranches(ctx context.Context, since time.Time) ([]domain.Branch, error)
	ChangedUsers(ctx context.Context, since time.Time) ([]domain.User, error)
	ChangedCustomers(ctx context.Context, since time.Time) ([]domain.Customer, error)
	ChangedSuppliers(ctx context.Context, since time.Time) ([]domain.Supplier, error)
	// ChangedMedicines returns only in-stock, active medicines, optionally
	// scoped to one branch (branchID == 0 means all branches).
	ChangedMedicines(ctx context.Context, since time.Time, branchID int64) ([]domain.Medicine, error)
}
