package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/repository"
	"github.com/rs/zerolog/log"
)

// Receiving owns purchase orders and the goods-received workflow.
type Receiving struct {
	store repository.Store
}

func NewReceiving(store repository.Store) *Receiving {
	return &Receiving{store: store}
}

// CreatePurchaseOrder persists a DRAFT order with its line items.
func (r *Receiving) CreatePurchaseOrder(ctx context.Context, actor domain.Actor, req domain.CreatePurchaseOrderRequest) (*domain.PurchaseOrder, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order needs at least one item", repository.ErrValidation)
	}
	for _, it := range req.Items {
		if strings.TrimSpace(it.MedicineName) == "" {
			return nil, fmt.Errorf("%w: item medicine name is required", repository.ErrValidation)
		}
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item quantity must be positive", repository.ErrValidation)
		}
		if it.UnitCost.IsNegative() {
			return nil, fmt.Errorf("%w: item unit cost cannot be negative", repository.ErrValidation)
		}
	}

	var po *domain.PurchaseOrder
	err := r.store.InTx(ctx, func(tx repository.Store) error {
		year := time.Now().UTC().Year()
		seq, err := tx.NextSequence(ctx, fmt.Sprintf("po:%d", year))
		if err != nil {
			return err
		}

		po = &domain.PurchaseOrder{
			OrderNumber: fmt.Sprintf("PO-%d-%04d", year, seq),
			SupplierID:  req.SupplierID,
			BranchID:    actor.BranchID,
			Status:      domain.POStatusDraft,
			Notes:       req.Notes,
			OrderedBy:   actor.ID,
		}
		for _, it := range req.Items {
			po.Items = append(po.Items, domain.PurchaseOrderItem{
				MedicineName: strings.TrimSpace(it.MedicineName),
				GenericName:  it.GenericName,
				Quantity:     it.Quantity,
				UnitCost:     it.UnitCost,
			})
		}
		return tx.CreatePurchaseOrder(ctx, po)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("order_number", po.OrderNumber).
		Int64("supplier_id", po.SupplierID).
		Int("items", len(po.Items)).
		Msg("purchase order created")
	return po, nil
}

// GetPurchaseOrder loads an order with its items.
func (r *Receiving) GetPurchaseOrder(ctx context.Context, id int64) (*domain.PurchaseOrder, error) {
	return r.store.GetPurchaseOrder(ctx, id)
}

// ReceiveGoods reconciles an order against physically received goods: one
// GRN with its items, received-quantity bumps on the order, batch-aware
// stock ledger increments, and a status recompute, all in one
// transaction. Any per-item failure aborts the whole GRN.
//
// Over-receipt (received_qty exceeding the ordered quantity) is tolerated;
// suppliers over-deliver and the surplus still has to enter stock.
func (r *Receiving) ReceiveGoods(ctx context.Context, actor domain.Actor, req domain.ReceiveGoodsRequest) (*domain.GoodsReceivedNote, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: nothing to receive", repository.ErrValidation)
	}
	for _, it := range req.Items {
		if it.QuantityReceived <= 0 {
			return nil, fmt.Errorf("%w: received quantity must be positive", repository.ErrValidation)
		}
	}

	var grn *domain.GoodsReceivedNote
	err := r.store.InTx(ctx, func(tx repository.Store) error {
		po, err := tx.GetPurchaseOrder(ctx, req.PurchaseOrderID)
		if err != nil {
			return err
		}
		if po.Status == domain.POStatusCancelled {
			return fmt.Errorf("%w: order %s is cancelled", repository.ErrInvalidTransition, po.OrderNumber)
		}

		orderItems := make(map[int64]*domain.PurchaseOrderItem, len(po.Items))
		for i := range po.Items {
			orderItems[po.Items[i].ID] = &po.Items[i]
		}

		year := time.Now().UTC().Year()
		seq, err := tx.NextSequence(ctx, fmt.Sprintf("grn:%d", year))
		if err != nil {
			return err
		}
		grn = &domain.GoodsReceivedNote{
			GRNNumber:       fmt.Sprintf("GRN-%d-%04d", year, seq),
			PurchaseOrderID: po.ID,
			BranchID:        po.BranchID,
			ReceivedBy:      actor.ID,
			Notes:           req.Notes,
		}

		for _, line := range req.Items {
			orderItem, ok := orderItems[line.OrderItemID]
			if !ok {
				return fmt.Errorf("%w: order item %d does not belong to order %s", repository.ErrValidation, line.OrderItemID, po.OrderNumber)
			}

			if err := tx.AddOrderItemReceived(ctx, orderItem.ID, line.QuantityReceived); err != nil {
				return err
			}
			orderItem.ReceivedQty += line.QuantityReceived

			added := false
			if req.AddToInventory {
				if err := r.addToStock(ctx, tx, po.BranchID, orderItem, line); err != nil {
					return err
				}
				added = true
			}

			grn.Items = append(grn.Items, domain.GRNItem{
				OrderItemID:      orderItem.ID,
				MedicineName:     orderItem.MedicineName,
				QuantityReceived: line.QuantityReceived,
				UnitCost:         line.UnitCost,
				BatchNumber:      line.BatchNumber,
				ExpiryDate:       line.ExpiryDate,
				AddedToInventory: added,
			})
		}

		if err := tx.CreateGRN(ctx, grn); err != nil {
			return err
		}

		if next := domain.DeriveOrderStatus(po.Status, po.Items); next != po.Status {
			if err := tx.SetPurchaseOrderStatus(ctx, po.ID, next); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("grn_number", grn.GRNNumber).
		Int64("purchase_order_id", grn.PurchaseOrderID).
		Int("items", len(grn.Items)).
		Bool("added_to_inventory", req.AddToInventory).
		Msg("goods received")
	return grn, nil
}

// addToStock applies one received line to the ledger: an existing medicine
// matched by name and batch gets incremented, otherwise the batch becomes a
// new stock-keeping unit.
func (r *Receiving) addToStock(ctx context.Context, tx repository.Store, branchID int64, orderItem *domain.PurchaseOrderItem, line domain.ReceivingLineItem) error {
	med, err := tx.FindMedicineByBatch(ctx, branchID, orderItem.MedicineName, line.BatchNumber)
	switch {
	case err == nil:
		_, err = tx.AdjustMedicineQuantity(ctx, med.ID, line.QuantityReceived)
		return err
	case errors.Is(err, repository.ErrNotFound):
		return tx.CreateMedicine(ctx, &domain.Medicine{
			Name:        orderItem.MedicineName,
			GenericName: orderItem.GenericName,
			BatchNumber: line.BatchNumber,
			Quantity:    line.QuantityReceived,
			UnitCost:    line.UnitCost,
			UnitPrice:   line.UnitCost,
			ExpiryDate:  line.ExpiryDate,
			BranchID:    branchID,
		})
	default:
		return err
	}
}
