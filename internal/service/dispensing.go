package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/repository"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Dispensing deducts stock on sale and on prescription fulfillment. Every
// deduction routes through the stock ledger primitive inside one
// transaction; controlled items additionally get a register entry in the
// same transaction.
type Dispensing struct {
	store    repository.Store
	register *Register
}

func NewDispensing(store repository.Store, register *Register) *Dispensing {
	return &Dispensing{store: store, register: register}
}

// CreateSale checks out a basket. Insufficient stock on any line aborts
// the whole sale.
func (d *Dispensing) CreateSale(ctx context.Context, actor domain.Actor, req domain.CreateSaleRequest) (*domain.Sale, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: sale needs at least one item", repository.ErrValidation)
	}
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item quantity must be positive", repository.ErrValidation)
		}
	}
	if req.Discount.IsNegative() {
		return nil, fmt.Errorf("%w: discount cannot be negative", repository.ErrValidation)
	}

	var sale *domain.Sale
	err := d.store.InTx(ctx, func(tx repository.Store) error {
		s, err := d.CreateSaleTx(ctx, tx, actor, req)
		if err != nil {
			return err
		}
		sale = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("invoice_number", sale.InvoiceNumber).
		Int64("branch_id", sale.BranchID).
		Str("total", sale.Total.String()).
		Int("items", len(sale.Items)).
		Msg("sale created")
	return sale, nil
}

// CreateSaleTx runs the sale workflow inside an existing transaction. The
// sync engine uses this to replay offline sales under its own idempotency
// check.
func (d *Dispensing) CreateSaleTx(ctx context.Context, tx repository.Store, actor domain.Actor, req domain.CreateSaleRequest) (*domain.Sale, error) {
	invoice := strings.TrimSpace(req.InvoiceNumber)
	if invoice == "" {
		seq, err := tx.NextSequence(ctx, "invoice")
		if err != nil {
			return nil, err
		}
		invoice = fmt.Sprintf("INV-%d-%06d", actor.BranchID, seq)
	}

	sale := &domain.Sale{
		InvoiceNumber: invoice,
		BranchID:      actor.BranchID,
		CustomerID:    req.CustomerID,
		Discount:      req.Discount,
		PaymentMethod: req.PaymentMethod,
		SoldBy:        actor.ID,
	}
	if sale.PaymentMethod == "" {
		sale.PaymentMethod = "cash"
	}

	subtotal := decimal.Zero
	for _, line := range req.Items {
		med, err := tx.GetMedicine(ctx, line.MedicineID)
		if err != nil {
			return nil, err
		}
		if med.BranchID != actor.BranchID {
			return nil, fmt.Errorf("%w: medicine %d belongs to another branch", repository.ErrValidation, med.ID)
		}

		price := line.UnitPrice
		if price.IsZero() {
			price = med.UnitPrice
		}
		lineTotal := price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(lineTotal)

		// Register first: its bootstrap balance reads the current
		// ledger quantity, so it must see the pre-sale value.
		if med.IsControlled {
			_, err := d.register.RecordEntryTx(ctx, tx, actor, domain.RegisterEntryRequest{
				MedicineID:      med.ID,
				TransactionType: domain.RegisterDispense,
				QuantityOut:     line.Quantity,
				Reference:       invoice,
			})
			if err != nil {
				return nil, err
			}
		}

		if _, err := tx.AdjustMedicineQuantity(ctx, med.ID, -line.Quantity); err != nil {
			return nil, fmt.Errorf("sell %s: %w", med.Name, err)
		}

		sale.Items = append(sale.Items, domain.SaleItem{
			MedicineID: med.ID,
			Quantity:   line.Quantity,
			UnitPrice:  price,
			Total:      lineTotal,
		})
	}

	if req.Discount.GreaterThan(subtotal) {
		return nil, fmt.Errorf("%w: discount exceeds subtotal", repository.ErrValidation)
	}
	sale.Subtotal = subtotal
	sale.Total = subtotal.Sub(req.Discount)

	if err := tx.CreateSale(ctx, sale); err != nil {
		return nil, err
	}
	return sale, nil
}

// CreatePrescription registers a new prescription with its items.
func (d *Dispensing) CreatePrescription(ctx context.Context, actor domain.Actor, p *domain.Prescription) (*domain.Prescription, error) {
	if strings.TrimSpace(p.PatientName) == "" {
		return nil, fmt.Errorf("%w: patient name is required", repository.ErrValidation)
	}
	if len(p.Items) == 0 {
		return nil, fmt.Errorf("%w: prescription needs at least one item", repository.ErrValidation)
	}
	for _, it := range p.Items {
		if it.QuantityPrescribed <= 0 {
			return nil, fmt.Errorf("%w: prescribed quantity must be positive", repository.ErrValidation)
		}
	}

	err := d.store.InTx(ctx, func(tx repository.Store) error {
		year := time.Now().UTC().Year()
		seq, err := tx.NextSequence(ctx, fmt.Sprintf("rx:%d", year))
		if err != nil {
			return err
		}
		p.Number = fmt.Sprintf("RX-%d-%04d", year, seq)
		p.BranchID = actor.BranchID
		p.Status = domain.PrescriptionActive
		return tx.CreatePrescription(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Dispense fulfills part or all of a prescription: dispensing record,
// quantity bumps on the prescription items, ledger deductions, status
// recompute and refill accounting, all in one transaction.
func (d *Dispensing) Dispense(ctx context.Context, actor domain.Actor, prescriptionID int64, req domain.DispenseRequest) (*domain.PrescriptionDispensing, *domain.Prescription, error) {
	if len(req.Items) == 0 {
		return nil, nil, fmt.Errorf("%w: nothing to dispense", repository.ErrValidation)
	}

	var (
		dispensing   *domain.PrescriptionDispensing
		prescription *domain.Prescription
	)
	err := d.store.InTx(ctx, func(tx repository.Store) error {
		p, err := tx.GetPrescription(ctx, prescriptionID)
		if err != nil {
			return err
		}
		switch p.Status {
		case domain.PrescriptionDispensed, domain.PrescriptionExpired, domain.PrescriptionCancelled:
			return fmt.Errorf("%w: prescription %s is %s", repository.ErrInvalidTransition, p.Number, p.Status)
		}

		pItems := make(map[int64]*domain.PrescriptionItem, len(p.Items))
		for i := range p.Items {
			pItems[p.Items[i].ID] = &p.Items[i]
		}

		dispensing = &domain.PrescriptionDispensing{
			PrescriptionID: p.ID,
			SaleID:         req.SaleID,
			DispensedBy:    actor.ID,
		}

		for _, line := range req.Items {
			item, ok := pItems[line.PrescriptionItemID]
			if !ok {
				return fmt.Errorf("%w: item %d does not belong to prescription %s", repository.ErrValidation, line.PrescriptionItemID, p.Number)
			}
			if line.Quantity <= 0 {
				return fmt.Errorf("%w: dispense quantity must be positive", repository.ErrValidation)
			}
			if item.QuantityDispensed+line.Quantity > item.QuantityPrescribed {
				return fmt.Errorf("%w: %s would exceed prescribed quantity", repository.ErrValidation, item.MedicineName)
			}

			medicineID := item.MedicineID
			if line.Substituted {
				if !item.SubstitutionAllowed {
					return fmt.Errorf("%w: substitution not allowed for %s", repository.ErrValidation, item.MedicineName)
				}
				medicineID = line.MedicineID
			}

			med, err := tx.GetMedicine(ctx, medicineID)
			if err != nil {
				return err
			}

			if med.IsControlled {
				_, err := d.register.RecordEntryTx(ctx, tx, actor, domain.RegisterEntryRequest{
					MedicineID:      med.ID,
					TransactionType: domain.RegisterDispense,
					QuantityOut:     line.Quantity,
					Reference:       p.Number,
				})
				if err != nil {
					return err
				}
			}

			if err := tx.AddPrescriptionItemDispensed(ctx, item.ID, line.Quantity); err != nil {
				return err
			}
			item.QuantityDispensed += line.Quantity

			if _, err := tx.AdjustMedicineQuantity(ctx, med.ID, -line.Quantity); err != nil {
				return fmt.Errorf("dispense %s: %w", med.Name, err)
			}

			dispensing.Items = append(dispensing.Items, domain.DispensingItem{
				PrescriptionItemID: item.ID,
				MedicineID:         med.ID,
				Quantity:           line.Quantity,
				Substituted:        line.Substituted,
				SubstituteNote:     line.SubstituteNote,
			})
		}

		if err := tx.CreateDispensing(ctx, dispensing); err != nil {
			return err
		}

		status, refillsUsed := derivePrescriptionStatus(p)
		if status != p.Status || refillsUsed != p.RefillsUsed {
			if err := tx.SetPrescriptionStatus(ctx, p.ID, status, refillsUsed); err != nil {
				return err
			}
		}

		prescription, err = tx.GetPrescription(ctx, p.ID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	log.Info().
		Str("prescription", prescription.Number).
		Str("status", prescription.Status).
		Int("lines", len(dispensing.Items)).
		Int64("dispensed_by", actor.ID).
		Msg("prescription dispensed")
	return dispensing, prescription, nil
}

// derivePrescriptionStatus recomputes status from item progress and bumps
// the refill counter when the prescription becomes fully dispensed with
// refills remaining.
func derivePrescriptionStatus(p *domain.Prescription) (string, int) {
	allDone := true
	anyProgress := false
	for _, it := range p.Items {
		if !it.FullyDispensed() {
			allDone = false
		}
		if it.QuantityDispensed > 0 {
			anyProgress = true
		}
	}

	refillsUsed := p.RefillsUsed
	switch {
	case allDone:
		if refillsUsed < p.RefillsAllowed {
			refillsUsed++
		}
		return domain.PrescriptionDispensed, refillsUsed
	case anyProgress:
		return domain.PrescriptionPartial, refillsUsed
	default:
		return p.Status, refillsUsed
	}
}
