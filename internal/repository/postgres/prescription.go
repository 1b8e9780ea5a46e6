package postgres

import (
	"context"
	"fmt"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/repository"
	"github.com/jmoiron/sqlx"
)

func (s *Store) CreatePrescription(ctx context.Context, p *domain.Prescription) error {
	err := s.q().QueryRowxContext(ctx, `
		INSERT INTO prescriptions (
			number, patient_name, doctor_name, customer_id, branch_id,
			status, refills_allowed, refills_used, expiry_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, p.Number, p.PatientName, p.DoctorName, p.CustomerID, p.BranchID,
		p.Status, p.RefillsAllowed, p.RefillsUsed, p.ExpiryDate,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create prescription: %w", wrapErr(err))
	}

	for i := range p.Items {
		it := &p.Items[i]
		it.PrescriptionID = p.ID
		err := sqlx.GetContext(ctx, s.q(), &it.ID, `
			INSERT INTO prescription_items (
				prescription_id, medicine_id, medicine_name, dosage,
				quantity_prescribed, quantity_dispensed, substitution_allowed
			) VALUES ($1, $2, $3, $4, $5, 0, $6)
			RETURNING id
		`, p.ID, it.MedicineID, it.MedicineName, it.Dosage,
			it.QuantityPrescribed, it.SubstitutionAllowed)
		if err != nil {
			return fmt.Errorf("create prescription item: %w", wrapErr(err))
		}
	}
	return nil
}

func (s *Store) GetPrescription(ctx context.Context, id int64) (*domain.Prescription, error) {
	var p domain.Prescription
	err := sqlx.GetContext(ctx, s.q(), &p, `SELECT * FROM prescriptions WHERE id = $1`, id)
	if err != nil {
		return nil, wrapErr(err)
	}
	err = sqlx.SelectContext(ctx, s.q(), &p.Items, `
		SELECT * FROM prescription_items WHERE prescription_id = $1 ORDER BY id
	`, id)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &p, nil
}

func (s *Store) AddPrescriptionItemDispensed(ctx context.Context, itemID int64, qty int) error {
	res, err := s.q().ExecContext(ctx, `
		UPDATE prescription_items
		SET quantity_dispensed = quantity_dispensed + $2
		WHERE id = $1 AND quantity_dispensed + $2 <= quantity_prescribed
	`, itemID, qty)
	if err != nil {
		return wrapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrValidation
	}
	return nil
}

func (s *Store) SetPrescriptionStatus(ctx context.Context, id int64, status string, refillsUsed int) error {
	res, err := s.q().ExecContext(ctx, `
		UPDATE prescriptions SET status = $2, refills_used = $3, updated_at = NOW() WHERE id = $1
	`, id, status, refillsUsed)
	if err != nil {
		return wrapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) CreateDispensing(ctx context.Context, d *domain.PrescriptionDispensing) error {
	err := s.q().QueryRowxContext(ctx, `
		INSERT INTO prescription_dispensings (prescription_id, sale_id, dispensed_by)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, d.PrescriptionID, d.SaleID, d.DispensedBy).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("create dispensing: %w", wrapErr(err))
	}

	for i := range d.Items {
		it := &d.Items[i]
		it.DispensingID = d.ID
		err := sqlx.GetContext(ctx, s.q(), &it.ID, `
			INSERT INTO dispensing_items (
				dispensing_id, prescription_item_id, medicine_id,
				quantity, substituted, substitute_note
			) VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, d.ID, it.PrescriptionItemID, it.MedicineID, it.Quantity, it.Substituted, it.SubstituteNote)
		if err != nil {
			return fmt.Errorf("create dispensing item: %w", wrapErr(err))
		}
	}
	return nil
}
