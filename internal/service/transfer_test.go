package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/repository"
)

func TestTransfer_CompleteMovesStock(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	med := env.seedMedicine(domain.Medicine{
		Name: "Amoxicillin 250mg", BatchNumber: "B100", Quantity: 80,
	})

	transfer, err := env.transfer.Create(ctx, env.pharmacist, domain.CreateTransferRequest{
		FromBranchID: env.branchA.ID,
		ToBranchID:   env.branchB.ID,
		Items:        []domain.TransferLineItem{{MedicineID: med.ID, Quantity: 20}},
	})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}
	if transfer.Status != domain.TransferPending {
		t.Fatalf("new transfer status = %s, want PENDING", transfer.Status)
	}

	// Creation reserves nothing.
	src, _ := env.store.GetMedicine(ctx, med.ID)
	if src.Quantity != 80 {
		t.Fatalf("source quantity = %d after create, want 80", src.Quantity)
	}

	done, err := env.transfer.SetStatus(ctx, env.pharmacist, transfer.ID, domain.TransferCompleted)
	if err != nil {
		t.Fatalf("complete transfer: %v", err)
	}
	if done.CompletedAt == nil {
		t.Errorf("completed transfer has no completion time")
	}

	src, _ = env.store.GetMedicine(ctx, med.ID)
	if src.Quantity != 60 {
		t.Errorf("source quantity = %d, want 60", src.Quantity)
	}

	dest, err := env.store.FindMedicineByBatch(ctx, env.branchB.ID, "Amoxicillin 250mg", "B100")
	if err != nil {
		t.Fatalf("destination batch missing: %v", err)
	}
	if dest.Quantity != 20 {
		t.Errorf("destination quantity = %d, want 20", dest.Quantity)
	}
	if dest.ID == med.ID {
		t.Errorf("destination reused the source stock-keeping unit")
	}
}

func TestTransfer_InsufficientAtCompletionAborts(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	med := env.seedMedicine(domain.Medicine{
		Name: "Azithromycin 500mg", BatchNumber: "Z900", Quantity: 80,
	})

	transfer, err := env.transfer.Create(ctx, env.pharmacist, domain.CreateTransferRequest{
		FromBranchID: env.branchA.ID,
		ToBranchID:   env.branchB.ID,
		Items:        []domain.TransferLineItem{{MedicineID: med.ID, Quantity: 20}},
	})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	// Stock drains between creation and completion.
	if _, err := env.store.AdjustMedicineQuantity(ctx, med.ID, -70); err != nil {
		t.Fatalf("drain stock: %v", err)
	}

	_, err = env.transfer.SetStatus(ctx, env.pharmacist, transfer.ID, domain.TransferCompleted)
	if !errors.Is(err, repository.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	// A failed completion must leave everything as it was.
	after, _ := env.transfer.Get(ctx, transfer.ID)
	if after.Status != domain.TransferPending {
		t.Errorf("status = %s after failed completion, want PENDING", after.Status)
	}
	src, _ := env.store.GetMedicine(ctx, med.ID)
	if src.Quantity != 10 {
		t.Errorf("source quantity = %d, want 10", src.Quantity)
	}
	if _, err := env.store.FindMedicineByBatch(ctx, env.branchB.ID, "Azithromycin 500mg", "Z900"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("destination row created by failed completion")
	}
}

func TestTransfer_InvalidTransitions(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	med := env.seedMedicine(domain.Medicine{Name: "Losartan 50mg", Quantity: 30})

	transfer, err := env.transfer.Create(ctx, env.pharmacist, domain.CreateTransferRequest{
		FromBranchID: env.branchA.ID,
		ToBranchID:   env.branchB.ID,
		Items:        []domain.TransferLineItem{{MedicineID: med.ID, Quantity: 5}},
	})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	if _, err := env.transfer.SetStatus(ctx, env.pharmacist, transfer.ID, domain.TransferCompleted); err != nil {
		t.Fatalf("complete transfer: %v", err)
	}

	// COMPLETED is terminal.
	if _, err := env.transfer.SetStatus(ctx, env.pharmacist, transfer.ID, domain.TransferCancelled); !errors.Is(err, repository.ErrInvalidTransition) {
		t.Errorf("cancel after completion err = %v, want ErrInvalidTransition", err)
	}
	if _, err := env.transfer.SetStatus(ctx, env.pharmacist, transfer.ID, domain.TransferInTransit); !errors.Is(err, repository.ErrInvalidTransition) {
		t.Errorf("reopen after completion err = %v, want ErrInvalidTransition", err)
	}
}

func TestTransfer_SameBranchRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	med := env.seedMedicine(domain.Medicine{Name: "Atorvastatin 20mg", Quantity: 30})

	_, err := env.transfer.Create(ctx, env.pharmacist, domain.CreateTransferRequest{
		FromBranchID: env.branchA.ID,
		ToBranchID:   env.branchA.ID,
		Items:        []domain.TransferLineItem{{MedicineID: med.ID, Quantity: 5}},
	})
	if !errors.Is(err, repository.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}
