package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/repository"
	"github.com/rs/zerolog/log"
)

// Transfer moves stock between branches through an explicit lifecycle.
// Quantity only moves when a transfer is completed; until then the
// create-time sufficiency check is advisory.
type Transfer struct {
	store repository.Store
}

func NewTransfer(store repository.Store) *Transfer {
	return &Transfer{store: store}
}

// Create persists a PENDING transfer with creation-time item snapshots.
// The sufficiency check here is a user-facing early warning, not a
// reservation; the completion-time check is the source of truth.
func (t *Transfer) Create(ctx context.Context, actor domain.Actor, req domain.CreateTransferRequest) (*domain.StockTransfer, error) {
	if req.FromBranchID == req.ToBranchID {
		return nil, fmt.Errorf("%w: source and destination branch must differ", repository.ErrValidation)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: transfer needs at least one item", repository.ErrValidation)
	}
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item quantity must be positive", repository.ErrValidation)
		}
	}

	var transfer *domain.StockTransfer
	err := t.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.GetBranch(ctx, req.FromBranchID); err != nil {
			return err
		}
		if _, err := tx.GetBranch(ctx, req.ToBranchID); err != nil {
			return err
		}

		year := time.Now().UTC().Year()
		seq, err := tx.NextSequence(ctx, fmt.Sprintf("trf:%d", year))
		if err != nil {
			return err
		}
		transfer = &domain.StockTransfer{
			TransferNumber: fmt.Sprintf("TRF-%d-%04d", year, seq),
			FromBranchID:   req.FromBranchID,
			ToBranchID:     req.ToBranchID,
			Status:         domain.TransferPending,
			Notes:          req.Notes,
			RequestedBy:    actor.ID,
		}

		for _, line := range req.Items {
			med, err := tx.GetMedicine(ctx, line.MedicineID)
			if err != nil {
				return err
			}
			if med.BranchID != req.FromBranchID {
				return fmt.Errorf("%w: medicine %d is not held by branch %d", repository.ErrValidation, med.ID, req.FromBranchID)
			}
			if med.Quantity < line.Quantity {
				return fmt.Errorf("%w: %s has %d on hand, %d requested", repository.ErrInsufficientStock, med.Name, med.Quantity, line.Quantity)
			}
			transfer.Items = append(transfer.Items, domain.StockTransferItem{
				MedicineID:   med.ID,
				MedicineName: med.Name,
				BatchNumber:  med.BatchNumber,
				Quantity:     line.Quantity,
				UnitPrice:    med.UnitPrice,
			})
		}
		return tx.CreateTransfer(ctx, transfer)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("transfer_number", transfer.TransferNumber).
		Int64("from", transfer.FromBranchID).
		Int64("to", transfer.ToBranchID).
		Int("items", len(transfer.Items)).
		Msg("stock transfer created")
	return transfer, nil
}

// Get loads a transfer with its items.
func (t *Transfer) Get(ctx context.Context, id int64) (*domain.StockTransfer, error) {
	return t.store.GetTransfer(ctx, id)
}

// SetStatus drives the transfer state machine. Completing a transfer
// re-verifies source stock and moves every item's quantity in one
// transaction; a single short item aborts the whole completion and leaves
// the transfer in its prior status.
func (t *Transfer) SetStatus(ctx context.Context, actor domain.Actor, id int64, newStatus string) (*domain.StockTransfer, error) {
	switch newStatus {
	case domain.TransferInTransit, domain.TransferCompleted, domain.TransferCancelled:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", repository.ErrInvalidTransition, newStatus)
	}

	var transfer *domain.StockTransfer
	err := t.store.InTx(ctx, func(tx repository.Store) error {
		existing, err := tx.GetTransfer(ctx, id)
		if err != nil {
			return err
		}
		if !domain.ValidTransferTransition(existing.Status, newStatus) {
			return fmt.Errorf("%w: %s -> %s", repository.ErrInvalidTransition, existing.Status, newStatus)
		}

		var completedAt *time.Time
		if newStatus == domain.TransferCompleted {
			if err := t.moveStock(ctx, tx, existing); err != nil {
				return err
			}
			now := time.Now().UTC()
			completedAt = &now
		}

		if err := tx.SetTransferStatus(ctx, id, newStatus, completedAt); err != nil {
			return err
		}
		transfer, err = tx.GetTransfer(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("transfer_number", transfer.TransferNumber).
		Str("status", transfer.Status).
		Msg("stock transfer status updated")
	return transfer, nil
}

// moveStock applies every item: decrement at the source, then increment or
// create the destination medicine matched by name, batch and branch.
func (t *Transfer) moveStock(ctx context.Context, tx repository.Store, transfer *domain.StockTransfer) error {
	for _, item := range transfer.Items {
		if _, err := tx.AdjustMedicineQuantity(ctx, item.MedicineID, -item.Quantity); err != nil {
			return fmt.Errorf("move %s out of branch %d: %w", item.MedicineName, transfer.FromBranchID, err)
		}

		dest, err := tx.FindMedicineByBatch(ctx, transfer.ToBranchID, item.MedicineName, item.BatchNumber)
		switch {
		case err == nil:
			if _, err := tx.AdjustMedicineQuantity(ctx, dest.ID, item.Quantity); err != nil {
				return err
			}
		case errors.Is(err, repository.ErrNotFound):
			source, err := tx.GetMedicine(ctx, item.MedicineID)
			if err != nil {
				return err
			}
			clone := *source
			clone.ID = 0
			clone.BranchID = transfer.ToBranchID
			clone.Quantity = item.Quantity
			if err := tx.CreateMedicine(ctx, &clone); err != nil {
				return err
			}
		default:
			return err
		}
	}
	return nil
}
