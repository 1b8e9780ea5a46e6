package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/repository"
	"github.com/shopspring/decimal"
)

func TestSale_DeductsStockAndComputesTotals(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	paracetamol := env.seedMedicine(domain.Medicine{
		Name: "Paracetamol 500mg", Quantity: 100, UnitPrice: decimal.NewFromInt(10),
	})
	cough := env.seedMedicine(domain.Medicine{
		Name: "Cough Syrup 100ml", Quantity: 20, UnitPrice: decimal.NewFromInt(250),
	})

	sale, err := env.dispensing.CreateSale(ctx, env.cashier, domain.CreateSaleRequest{
		Discount: decimal.NewFromInt(20),
		Items: []domain.SaleLineItem{
			{MedicineID: paracetamol.ID, Quantity: 3},
			{MedicineID: cough.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	if got, want := sale.Subtotal, decimal.NewFromInt(280); !got.Equal(want) {
		t.Errorf("subtotal = %s, want %s", got, want)
	}
	if got, want := sale.Total, decimal.NewFromInt(260); !got.Equal(want) {
		t.Errorf("total = %s, want %s", got, want)
	}
	if sale.InvoiceNumber == "" {
		t.Errorf("sale has no invoice number")
	}

	m1, _ := env.store.GetMedicine(ctx, paracetamol.ID)
	m2, _ := env.store.GetMedicine(ctx, cough.ID)
	if m1.Quantity != 97 || m2.Quantity != 19 {
		t.Errorf("quantities = %d, %d, want 97, 19", m1.Quantity, m2.Quantity)
	}
}

func TestSale_InsufficientStockRollsBackWholeBasket(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	plenty := env.seedMedicine(domain.Medicine{
		Name: "Vitamin C 1000mg", Quantity: 50, UnitPrice: decimal.NewFromInt(15),
	})
	scarce := env.seedMedicine(domain.Medicine{
		Name: "Insulin Glargine", Quantity: 2, UnitPrice: decimal.NewFromInt(1200),
	})

	_, err := env.dispensing.CreateSale(ctx, env.cashier, domain.CreateSaleRequest{
		Items: []domain.SaleLineItem{
			{MedicineID: plenty.ID, Quantity: 5},
			{MedicineID: scarce.ID, Quantity: 3},
		},
	})
	if !errors.Is(err, repository.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	// The first line's deduction must have been rolled back too.
	m1, _ := env.store.GetMedicine(ctx, plenty.ID)
	m2, _ := env.store.GetMedicine(ctx, scarce.ID)
	if m1.Quantity != 50 || m2.Quantity != 2 {
		t.Errorf("quantities = %d, %d after failed sale, want 50, 2", m1.Quantity, m2.Quantity)
	}
}

func TestSale_ControlledItemWritesRegister(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	med := env.seedMedicine(domain.Medicine{
		Name: "Codeine Phosphate 30mg", Quantity: 10,
		UnitPrice: decimal.NewFromInt(90), IsControlled: true,
	})

	sale, err := env.dispensing.CreateSale(ctx, env.pharmacist, domain.CreateSaleRequest{
		Items: []domain.SaleLineItem{{MedicineID: med.ID, Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	m, _ := env.store.GetMedicine(ctx, med.ID)
	if m.Quantity != 6 {
		t.Errorf("quantity = %d, want 6", m.Quantity)
	}

	entries, err := env.register.ListEntries(ctx, med.ID, 10)
	if err != nil {
		t.Fatalf("list register: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("register entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.TransactionType != domain.RegisterDispense {
		t.Errorf("entry type = %s, want dispense", e.TransactionType)
	}
	if e.BalanceBefore != 10 || e.BalanceAfter != 6 {
		t.Errorf("balances = %d -> %d, want 10 -> 6", e.BalanceBefore, e.BalanceAfter)
	}
	if e.Reference != sale.InvoiceNumber {
		t.Errorf("entry reference = %q, want invoice %q", e.Reference, sale.InvoiceNumber)
	}
}

func TestDispense_PartialThenComplete(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	amox := env.seedMedicine(domain.Medicine{Name: "Amoxicillin 250mg", Quantity: 60})
	para := env.seedMedicine(domain.Medicine{Name: "Paracetamol 500mg", Quantity: 40})

	p, err := env.dispensing.CreatePrescription(ctx, env.pharmacist, &domain.Prescription{
		PatientName: "John Kamau",
		DoctorName:  "Dr. Njeri",
		Items: []domain.PrescriptionItem{
			{MedicineID: amox.ID, MedicineName: "Amoxicillin 250mg", QuantityPrescribed: 21},
			{MedicineID: para.ID, MedicineName: "Paracetamol 500mg", QuantityPrescribed: 10},
		},
	})
	if err != nil {
		t.Fatalf("create prescription: %v", err)
	}
	if p.Status != domain.PrescriptionActive {
		t.Fatalf("new prescription status = %s, want ACTIVE", p.Status)
	}

	// First visit covers one item only.
	_, after, err := env.dispensing.Dispense(ctx, env.pharmacist, p.ID, domain.DispenseRequest{
		Items: []domain.DispenseLineItem{
			{PrescriptionItemID: p.Items[0].ID, Quantity: 21},
		},
	})
	if err != nil {
		t.Fatalf("first dispense: %v", err)
	}
	if after.Status != domain.PrescriptionPartial {
		t.Errorf("status = %s after first visit, want PARTIAL", after.Status)
	}
	m, _ := env.store.GetMedicine(ctx, amox.ID)
	if m.Quantity != 39 {
		t.Errorf("amoxicillin quantity = %d, want 39", m.Quantity)
	}

	// Second visit completes the prescription.
	_, after, err = env.dispensing.Dispense(ctx, env.pharmacist, p.ID, domain.DispenseRequest{
		Items: []domain.DispenseLineItem{
			{PrescriptionItemID: p.Items[1].ID, Quantity: 10},
		},
	})
	if err != nil {
		t.Fatalf("second dispense: %v", err)
	}
	if after.Status != domain.PrescriptionDispensed {
		t.Errorf("status = %s after full dispense, want DISPENSED", after.Status)
	}

	// Terminal status blocks further dispensing.
	_, _, err = env.dispensing.Dispense(ctx, env.pharmacist, p.ID, domain.DispenseRequest{
		Items: []domain.DispenseLineItem{
			{PrescriptionItemID: p.Items[0].ID, Quantity: 1},
		},
	})
	if !errors.Is(err, repository.ErrInvalidTransition) {
		t.Errorf("dispense on DISPENSED err = %v, want ErrInvalidTransition", err)
	}
}

func TestDispense_OverPrescribedRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	med := env.seedMedicine(domain.Medicine{Name: "Ciprofloxacin 500mg", Quantity: 100})

	p, err := env.dispensing.CreatePrescription(ctx, env.pharmacist, &domain.Prescription{
		PatientName: "Alice Muthoni",
		Items: []domain.PrescriptionItem{
			{MedicineID: med.ID, MedicineName: "Ciprofloxacin 500mg", QuantityPrescribed: 10},
		},
	})
	if err != nil {
		t.Fatalf("create prescription: %v", err)
	}

	_, _, err = env.dispensing.Dispense(ctx, env.pharmacist, p.ID, domain.DispenseRequest{
		Items: []domain.DispenseLineItem{
			{PrescriptionItemID: p.Items[0].ID, Quantity: 11},
		},
	})
	if !errors.Is(err, repository.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}

	// Stock untouched by the rejected dispense.
	m, _ := env.store.GetMedicine(ctx, med.ID)
	if m.Quantity != 100 {
		t.Errorf("quantity = %d, want 100", m.Quantity)
	}
}

func TestDispense_SubstitutionRules(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	branded := env.seedMedicine(domain.Medicine{Name: "Augmentin 625mg", Quantity: 30})
	generic := env.seedMedicine(domain.Medicine{Name: "Amoxiclav 625mg", Quantity: 30})
	locked := env.seedMedicine(domain.Medicine{Name: "Warfarin 5mg", Quantity: 30})

	p, err := env.dispensing.CreatePrescription(ctx, env.pharmacist, &domain.Prescription{
		PatientName: "Samuel Kiprop",
		Items: []domain.PrescriptionItem{
			{MedicineID: branded.ID, MedicineName: "Augmentin 625mg", QuantityPrescribed: 14, SubstitutionAllowed: true},
			{MedicineID: locked.ID, MedicineName: "Warfarin 5mg", QuantityPrescribed: 28},
		},
	})
	if err != nil {
		t.Fatalf("create prescription: %v", err)
	}

	// Substitution against an item that forbids it.
	_, _, err = env.dispensing.Dispense(ctx, env.pharmacist, p.ID, domain.DispenseRequest{
		Items: []domain.DispenseLineItem{
			{PrescriptionItemID: p.Items[1].ID, MedicineID: generic.ID, Quantity: 1, Substituted: true},
		},
	})
	if !errors.Is(err, repository.ErrValidation) {
		t.Fatalf("forbidden substitution err = %v, want ErrValidation", err)
	}

	// Allowed substitution deducts the substitute's stock.
	_, _, err = env.dispensing.Dispense(ctx, env.pharmacist, p.ID, domain.DispenseRequest{
		Items: []domain.DispenseLineItem{
			{PrescriptionItemID: p.Items[0].ID, MedicineID: generic.ID, Quantity: 14, Substituted: true, SubstituteNote: "brand out of stock"},
		},
	})
	if err != nil {
		t.Fatalf("allowed substitution: %v", err)
	}
	g, _ := env.store.GetMedicine(ctx, generic.ID)
	b, _ := env.store.GetMedicine(ctx, branded.ID)
	if g.Quantity != 16 {
		t.Errorf("substitute quantity = %d, want 16", g.Quantity)
	}
	if b.Quantity != 30 {
		t.Errorf("branded quantity = %d, want untouched 30", b.Quantity)
	}
}

func TestDispense_RefillAccounting(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	med := env.seedMedicine(domain.Medicine{Name: "Salbutamol Inhaler", Quantity: 10})

	p, err := env.dispensing.CreatePrescription(ctx, env.pharmacist, &domain.Prescription{
		PatientName:    "Njoki Mwangi",
		RefillsAllowed: 2,
		Items: []domain.PrescriptionItem{
			{MedicineID: med.ID, MedicineName: "Salbutamol Inhaler", QuantityPrescribed: 1},
		},
	})
	if err != nil {
		t.Fatalf("create prescription: %v", err)
	}

	_, after, err := env.dispensing.Dispense(ctx, env.pharmacist, p.ID, domain.DispenseRequest{
		Items: []domain.DispenseLineItem{
			{PrescriptionItemID: p.Items[0].ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("dispense: %v", err)
	}
	if after.Status != domain.PrescriptionDispensed {
		t.Errorf("status = %s, want DISPENSED", after.Status)
	}
	if after.RefillsUsed != 1 {
		t.Errorf("refills used = %d, want 1", after.RefillsUsed)
	}
}
