package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/repository"
)

func TestRegister_BalanceChaining(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	med := env.seedMedicine(domain.Medicine{
		Name: "Morphine Sulphate 10mg", Quantity: 100,
		IsControlled: true, ScheduleClass: "Schedule II",
	})

	// First entry bootstraps its opening balance from the ledger quantity.
	in, err := env.register.RecordEntry(ctx, env.pharmacist, domain.RegisterEntryRequest{
		MedicineID:      med.ID,
		TransactionType: domain.RegisterReceive,
		QuantityIn:      50,
		Reference:       "GRN-2026-0001",
		AdjustStock:     true,
	})
	if err != nil {
		t.Fatalf("record receive entry: %v", err)
	}
	if in.BalanceBefore != 100 || in.BalanceAfter != 150 {
		t.Errorf("receive balances = %d -> %d, want 100 -> 150", in.BalanceBefore, in.BalanceAfter)
	}

	year := time.Now().UTC().Year()
	wantNumber := fmt.Sprintf("CSR-NBI-%d-0001", year)
	if in.EntryNumber != wantNumber {
		t.Errorf("entry number = %q, want %q", in.EntryNumber, wantNumber)
	}

	updated, err := env.store.GetMedicine(ctx, med.ID)
	if err != nil {
		t.Fatalf("get medicine: %v", err)
	}
	if updated.Quantity != 150 {
		t.Errorf("ledger quantity = %d, want 150 after adjust-stock entry", updated.Quantity)
	}

	// Second entry chains off the first, not off the ledger.
	out, err := env.register.RecordEntry(ctx, env.pharmacist, domain.RegisterEntryRequest{
		MedicineID:      med.ID,
		TransactionType: domain.RegisterDispense,
		QuantityOut:     30,
		AdjustStock:     true,
	})
	if err != nil {
		t.Fatalf("record dispense entry: %v", err)
	}
	if out.BalanceBefore != 150 || out.BalanceAfter != 120 {
		t.Errorf("dispense balances = %d -> %d, want 150 -> 120", out.BalanceBefore, out.BalanceAfter)
	}
	if out.EntryNumber != fmt.Sprintf("CSR-NBI-%d-0002", year) {
		t.Errorf("second entry number = %q, want sequential 0002", out.EntryNumber)
	}
}

func TestRegister_InsufficientBalanceRollsBack(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	med := env.seedMedicine(domain.Medicine{
		Name: "Pethidine 50mg", Quantity: 10, IsControlled: true,
	})

	_, err := env.register.RecordEntry(ctx, env.pharmacist, domain.RegisterEntryRequest{
		MedicineID:      med.ID,
		TransactionType: domain.RegisterDispense,
		QuantityOut:     25,
		AdjustStock:     true,
	})
	if !errors.Is(err, repository.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}

	// Nothing may have landed: no register entry, ledger untouched.
	entries, err := env.register.ListEntries(ctx, med.ID, 10)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("register has %d entries after failed record, want 0", len(entries))
	}
	m, _ := env.store.GetMedicine(ctx, med.ID)
	if m.Quantity != 10 {
		t.Errorf("quantity = %d after failed record, want 10", m.Quantity)
	}
}

func TestRegister_RejectsUncontrolledMedicine(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	med := env.seedMedicine(domain.Medicine{Name: "Paracetamol 500mg", Quantity: 200})

	_, err := env.register.RecordEntry(ctx, env.pharmacist, domain.RegisterEntryRequest{
		MedicineID:      med.ID,
		TransactionType: domain.RegisterDispense,
		QuantityOut:     5,
	})
	if !errors.Is(err, repository.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation for uncontrolled medicine", err)
	}
}

func TestRegister_Verification(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	med := env.seedMedicine(domain.Medicine{
		Name: "Diazepam 5mg", Quantity: 40, IsControlled: true,
	})
	entry, err := env.register.RecordEntry(ctx, env.pharmacist, domain.RegisterEntryRequest{
		MedicineID:      med.ID,
		TransactionType: domain.RegisterDispense,
		QuantityOut:     2,
	})
	if err != nil {
		t.Fatalf("record entry: %v", err)
	}

	// Cashiers may not counter-sign.
	if _, err := env.register.VerifyEntry(ctx, env.cashier, entry.ID); !errors.Is(err, repository.ErrForbidden) {
		t.Errorf("cashier verify err = %v, want ErrForbidden", err)
	}

	// The recorder may not counter-sign their own entry.
	if _, err := env.register.VerifyEntry(ctx, env.pharmacist, entry.ID); !errors.Is(err, repository.ErrForbidden) {
		t.Errorf("self verify err = %v, want ErrForbidden", err)
	}

	verified, err := env.register.VerifyEntry(ctx, env.pharmacist2, entry.ID)
	if err != nil {
		t.Fatalf("verify entry: %v", err)
	}
	if verified.VerifiedBy == nil || *verified.VerifiedBy != env.pharmacist2.ID {
		t.Errorf("verified_by = %v, want %d", verified.VerifiedBy, env.pharmacist2.ID)
	}

	// Verification is one-time.
	if _, err := env.register.VerifyEntry(ctx, env.pharmacist2, entry.ID); !errors.Is(err, repository.ErrInvalidTransition) {
		t.Errorf("double verify err = %v, want ErrInvalidTransition", err)
	}
}

func TestRegister_ConcurrentWritersKeepChainIntact(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	med := env.seedMedicine(domain.Medicine{
		Name: "Fentanyl Patch 25mcg", Quantity: 40,
		IsControlled: true, ScheduleClass: "Schedule II",
	})

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.register.RecordEntry(ctx, env.pharmacist, domain.RegisterEntryRequest{
				MedicineID:      med.ID,
				TransactionType: domain.RegisterReceive,
				QuantityIn:      5,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent record: %v", err)
		}
	}

	entries, err := env.register.ListEntries(ctx, med.ID, 100)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != writers {
		t.Fatalf("entries = %d, want %d", len(entries), writers)
	}

	// ListEntries is newest-first; walk oldest-first and require each
	// entry to open exactly where its predecessor closed.
	numbers := make(map[string]bool, writers)
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if numbers[e.EntryNumber] {
			t.Errorf("duplicate entry number %q", e.EntryNumber)
		}
		numbers[e.EntryNumber] = true

		wantBefore := 40 + (len(entries)-1-i)*5
		if e.BalanceBefore != wantBefore || e.BalanceAfter != wantBefore+5 {
			t.Errorf("entry %s balances = %d -> %d, want %d -> %d",
				e.EntryNumber, e.BalanceBefore, e.BalanceAfter, wantBefore, wantBefore+5)
		}
	}
}
