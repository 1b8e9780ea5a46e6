package service

import (
	"context"
	"fmt"
	"time"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/repository"
	"github.com/rs/zerolog/log"
)

// Register maintains the controlled substance register: a gap-free,
// balance-chained audit trail independent of, but kept in step with, the
// stock ledger.
type Register struct {
	store repository.Store
}

func NewRegister(store repository.Store) *Register {
	return &Register{store: store}
}

// RecordEntry appends one register transaction. When req.AdjustStock is set
// the same movement is applied to the stock ledger inside the same
// transaction, so register and ledger cannot diverge under partial failure.
func (r *Register) RecordEntry(ctx context.Context, actor domain.Actor, req domain.RegisterEntryRequest) (*domain.RegisterEntry, error) {
	if !domain.ValidRegisterType(req.TransactionType) {
		return nil, fmt.Errorf("%w: unknown transaction type %q", repository.ErrValidation, req.TransactionType)
	}
	if req.QuantityIn < 0 || req.QuantityOut < 0 {
		return nil, fmt.Errorf("%w: quantities must be non-negative", repository.ErrValidation)
	}
	if req.QuantityIn == 0 && req.QuantityOut == 0 {
		return nil, fmt.Errorf("%w: entry must move quantity", repository.ErrValidation)
	}

	var entry *domain.RegisterEntry
	err := r.store.InTx(ctx, func(tx repository.Store) error {
		e, err := r.RecordEntryTx(ctx, tx, actor, req)
		if err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("entry_number", entry.EntryNumber).
		Int64("medicine_id", entry.MedicineID).
		Str("type", entry.TransactionType).
		Int("balance_after", entry.BalanceAfter).
		Int64("recorded_by", actor.ID).
		Msg("register entry recorded")
	return entry, nil
}

// RecordEntryTx appends an entry inside an existing transaction. Other
// workflows (dispensing, receiving) call this so their ledger write and the
// register write commit or roll back together.
func (r *Register) RecordEntryTx(ctx context.Context, tx repository.Store, actor domain.Actor, req domain.RegisterEntryRequest) (*domain.RegisterEntry, error) {
	// Lock the medicine row first: concurrent writers for the same
	// medicine must serialize before reading the chain head, or both
	// would chain off the same balance_after.
	med, err := tx.GetMedicineForUpdate(ctx, req.MedicineID)
	if err != nil {
		return nil, err
	}
	if !med.IsControlled {
		return nil, fmt.Errorf("%w: medicine %d is not a controlled substance", repository.ErrValidation, med.ID)
	}

	branch, err := tx.GetBranch(ctx, med.BranchID)
	if err != nil {
		return nil, err
	}

	// Balance chains off the previous entry; the first entry for a
	// medicine bootstraps from the current ledger quantity.
	balanceBefore, ok, err := tx.LatestRegisterBalance(ctx, med.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		balanceBefore = med.Quantity
	}
	balanceAfter := balanceBefore + req.QuantityIn - req.QuantityOut
	if balanceAfter < 0 {
		return nil, fmt.Errorf("%w: balance %d cannot cover %d out", repository.ErrInsufficientBalance, balanceBefore, req.QuantityOut)
	}

	year := time.Now().UTC().Year()
	seq, err := tx.NextSequence(ctx, fmt.Sprintf("csr:%s:%d", branch.Code, year))
	if err != nil {
		return nil, err
	}

	entry := &domain.RegisterEntry{
		EntryNumber:     fmt.Sprintf("CSR-%s-%d-%04d", branch.Code, year, seq),
		MedicineID:      med.ID,
		BranchID:        med.BranchID,
		TransactionType: req.TransactionType,
		QuantityIn:      req.QuantityIn,
		QuantityOut:     req.QuantityOut,
		BalanceBefore:   balanceBefore,
		BalanceAfter:    balanceAfter,
		Reference:       req.Reference,
		Notes:           req.Notes,
		RecordedBy:      actor.ID,
		RecordedByName:  actor.Name,
	}
	if err := tx.CreateRegisterEntry(ctx, entry); err != nil {
		return nil, err
	}

	if req.AdjustStock {
		if _, err := tx.AdjustMedicineQuantity(ctx, med.ID, req.QuantityIn-req.QuantityOut); err != nil {
			return nil, err
		}
	}
	return entry, nil
}

// VerifyEntry attaches a second-pharmacist counter-signature. Verification
// is one-time and the verifier must differ from the recorder.
func (r *Register) VerifyEntry(ctx context.Context, actor domain.Actor, entryID int64) (*domain.RegisterEntry, error) {
	if !actor.CanVerifyRegister() {
		return nil, fmt.Errorf("%w: role %s cannot verify register entries", repository.ErrForbidden, actor.Role)
	}

	var entry *domain.RegisterEntry
	err := r.store.InTx(ctx, func(tx repository.Store) error {
		e, err := tx.GetRegisterEntry(ctx, entryID)
		if err != nil {
			return err
		}
		if e.RecordedBy == actor.ID {
			return fmt.Errorf("%w: recorder cannot verify their own entry", repository.ErrForbidden)
		}
		if e.Verified() {
			return fmt.Errorf("%w: entry %s already verified", repository.ErrInvalidTransition, e.EntryNumber)
		}
		if err := tx.AttachRegisterVerifier(ctx, entryID, actor.ID, actor.Name, time.Now().UTC()); err != nil {
			return err
		}
		entry, err = tx.GetRegisterEntry(ctx, entryID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("entry_number", entry.EntryNumber).
		Int64("verified_by", actor.ID).
		Msg("register entry verified")
	return entry, nil
}

// ListEntries returns recent entries, newest first, optionally scoped to
// one medicine.
func (r *Register) ListEntries(ctx context.Context, medicineID int64, limit int) ([]domain.RegisterEntry, error) {
	return r.store.ListRegisterEntries(ctx, medicineID, limit)
}
