package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/shopspring/decimal"
)

func deviceActor(branchID int64) domain.Actor {
	return domain.Actor{Name: "sync-device", Role: domain.RoleDevice, BranchID: branchID}
}

func TestSyncUpload_IdempotentReplay(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	med := env.seedMedicine(domain.Medicine{
		Name: "Paracetamol 500mg", Quantity: 100, UnitPrice: decimal.NewFromInt(10),
	})

	upload := domain.SyncUploadRequest{
		DeviceID: "desktop-7",
		Sales: []domain.OfflineSale{{
			InvoiceNumber: "NBI-OFF-0001",
			BranchID:      env.branchA.ID,
			PaymentMethod: "cash",
			Items:         []domain.SaleLineItem{{MedicineID: med.ID, Quantity: 5}},
		}},
	}

	first, err := env.sync.Upload(ctx, deviceActor(env.branchA.ID), upload)
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if first.SalesSynced != 1 || first.SalesDuplicate != 0 {
		t.Errorf("first upload synced=%d duplicate=%d, want 1/0", first.SalesSynced, first.SalesDuplicate)
	}

	// Re-pushing the same batch after a dropped connection must be a no-op.
	second, err := env.sync.Upload(ctx, deviceActor(env.branchA.ID), upload)
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if second.SalesSynced != 0 || second.SalesDuplicate != 1 {
		t.Errorf("second upload synced=%d duplicate=%d, want 0/1", second.SalesSynced, second.SalesDuplicate)
	}

	m, _ := env.store.GetMedicine(ctx, med.ID)
	if m.Quantity != 95 {
		t.Errorf("quantity = %d after replayed upload, want 95 (deducted once)", m.Quantity)
	}
}

func TestSyncUpload_BadRecordDoesNotSinkBatch(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	med := env.seedMedicine(domain.Medicine{
		Name: "Ibuprofen 400mg", Quantity: 10, UnitPrice: decimal.NewFromInt(8),
	})

	result, err := env.sync.Upload(ctx, deviceActor(env.branchA.ID), domain.SyncUploadRequest{
		DeviceID: "desktop-7",
		Sales: []domain.OfflineSale{
			{
				InvoiceNumber: "NBI-OFF-0002",
				BranchID:      env.branchA.ID,
				Items:         []domain.SaleLineItem{{MedicineID: med.ID, Quantity: 50}},
			},
			{
				InvoiceNumber: "NBI-OFF-0003",
				BranchID:      env.branchA.ID,
				Items:         []domain.SaleLineItem{{MedicineID: med.ID, Quantity: 4}},
			},
		},
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if result.SalesSynced != 1 {
		t.Errorf("synced = %d, want 1", result.SalesSynced)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(result.Errors))
	}
	if result.Errors[0].Key != "NBI-OFF-0002" {
		t.Errorf("error key = %q, want the oversold invoice", result.Errors[0].Key)
	}

	// The oversold sale applied nothing; the good one applied fully.
	m, _ := env.store.GetMedicine(ctx, med.ID)
	if m.Quantity != 6 {
		t.Errorf("quantity = %d, want 6", m.Quantity)
	}
}

func TestSyncUpload_CustomerDedup(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	customer := domain.OfflineCustomer{Name: "Jane Wairimu", Phone: "+254700111222"}

	for i := 0; i < 2; i++ {
		if _, err := env.sync.Upload(ctx, deviceActor(env.branchA.ID), domain.SyncUploadRequest{
			DeviceID:  "desktop-7",
			Customers: []domain.OfflineCustomer{customer},
		}); err != nil {
			t.Fatalf("upload %d: %v", i, err)
		}
	}

	all, err := env.store.ChangedCustomers(ctx, time.Time{})
	if err != nil {
		t.Fatalf("list customers: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("customers = %d after duplicate uploads, want 1", len(all))
	}
}

func TestSyncDownload_CursorWindow(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.seedMedicine(domain.Medicine{Name: "Amoxicillin 250mg", Quantity: 50})
	env.seedMedicine(domain.Medicine{Name: "Out Of Stock Item", Quantity: 0})

	feed, err := env.sync.Download(ctx, time.Time{}, env.branchA.ID)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if feed.ServerTime.IsZero() {
		t.Errorf("feed has no server time")
	}
	if len(feed.Medicines) != 1 {
		t.Errorf("medicines = %d, want 1 (zero-quantity rows excluded)", len(feed.Medicines))
	}
	if len(feed.Branches) != 2 || len(feed.Users) != 3 {
		t.Errorf("feed branches=%d users=%d, want 2/3", len(feed.Branches), len(feed.Users))
	}

	// A cursor in the future yields an empty delta.
	later, err := env.sync.Download(ctx, time.Now().UTC().Add(time.Hour), env.branchA.ID)
	if err != nil {
		t.Fatalf("download with future cursor: %v", err)
	}
	if len(later.Medicines) != 0 || len(later.Branches) != 0 {
		t.Errorf("future cursor returned %d medicines, %d branches, want none",
			len(later.Medicines), len(later.Branches))
	}
}

func TestSyncDownload_DeactivatedMedicineLeavesFeed(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	med := env.seedMedicine(domain.Medicine{Name: "Withdrawn Syrup", Quantity: 12})

	before, err := env.sync.Download(ctx, time.Time{}, env.branchA.ID)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if len(before.Medicines) != 1 {
		t.Fatalf("medicines before deactivation = %d, want 1", len(before.Medicines))
	}

	if err := env.inventory.DeactivateMedicine(ctx, env.pharmacist, med.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	after, err := env.sync.Download(ctx, time.Time{}, env.branchA.ID)
	if err != nil {
		t.Fatalf("download after deactivation: %v", err)
	}
	if len(after.Medicines) != 0 {
		t.Errorf("medicines after deactivation = %d, want 0", len(after.Medicines))
	}
}
