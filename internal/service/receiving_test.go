package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/repository"
	"github.com/shopspring/decimal"
)

func TestReceiving_PartialThenComplete(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	po, err := env.receiving.CreatePurchaseOrder(ctx, env.pharmacist, domain.CreatePurchaseOrderRequest{
		SupplierID: env.supplier.ID,
		Items: []domain.PurchaseOrderItemInput{
			{MedicineName: "Amoxicillin 250mg", GenericName: "amoxicillin", Quantity: 100, UnitCost: decimal.NewFromInt(12)},
			{MedicineName: "Cetirizine 10mg", GenericName: "cetirizine", Quantity: 50, UnitCost: decimal.NewFromInt(5)},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if po.Status != domain.POStatusDraft {
		t.Fatalf("new order status = %s, want DRAFT", po.Status)
	}

	// First delivery covers part of one line.
	grn, err := env.receiving.ReceiveGoods(ctx, env.pharmacist, domain.ReceiveGoodsRequest{
		PurchaseOrderID: po.ID,
		AddToInventory:  true,
		Items: []domain.ReceivingLineItem{
			{OrderItemID: po.Items[0].ID, QuantityReceived: 60, BatchNumber: "B100", UnitCost: decimal.NewFromInt(12)},
		},
	})
	if err != nil {
		t.Fatalf("receive first delivery: %v", err)
	}
	if !grn.Items[0].AddedToInventory {
		t.Errorf("GRN item not flagged as added to inventory")
	}

	after, _ := env.receiving.GetPurchaseOrder(ctx, po.ID)
	if after.Status != domain.POStatusPartial {
		t.Errorf("order status = %s after partial delivery, want PARTIAL", after.Status)
	}
	if after.Items[0].ReceivedQty != 60 {
		t.Errorf("received qty = %d, want 60", after.Items[0].ReceivedQty)
	}

	med, err := env.store.FindMedicineByBatch(ctx, env.branchA.ID, "Amoxicillin 250mg", "B100")
	if err != nil {
		t.Fatalf("batch not created as stock-keeping unit: %v", err)
	}
	if med.Quantity != 60 {
		t.Errorf("new batch quantity = %d, want 60", med.Quantity)
	}

	// Second delivery completes both lines; the same batch increments the
	// existing row instead of creating another.
	_, err = env.receiving.ReceiveGoods(ctx, env.pharmacist, domain.ReceiveGoodsRequest{
		PurchaseOrderID: po.ID,
		AddToInventory:  true,
		Items: []domain.ReceivingLineItem{
			{OrderItemID: po.Items[0].ID, QuantityReceived: 40, BatchNumber: "B100"},
			{OrderItemID: po.Items[1].ID, QuantityReceived: 50, BatchNumber: "C200"},
		},
	})
	if err != nil {
		t.Fatalf("receive second delivery: %v", err)
	}

	done, _ := env.receiving.GetPurchaseOrder(ctx, po.ID)
	if done.Status != domain.POStatusReceived {
		t.Errorf("order status = %s after full delivery, want RECEIVED", done.Status)
	}
	med, _ = env.store.FindMedicineByBatch(ctx, env.branchA.ID, "Amoxicillin 250mg", "B100")
	if med.Quantity != 100 {
		t.Errorf("batch quantity = %d after second delivery, want 100", med.Quantity)
	}
}

func TestReceiving_OverReceiptTolerated(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	po, err := env.receiving.CreatePurchaseOrder(ctx, env.pharmacist, domain.CreatePurchaseOrderRequest{
		SupplierID: env.supplier.ID,
		Items: []domain.PurchaseOrderItemInput{
			{MedicineName: "Ibuprofen 400mg", Quantity: 100, UnitCost: decimal.NewFromInt(8)},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	_, err = env.receiving.ReceiveGoods(ctx, env.pharmacist, domain.ReceiveGoodsRequest{
		PurchaseOrderID: po.ID,
		Items: []domain.ReceivingLineItem{
			{OrderItemID: po.Items[0].ID, QuantityReceived: 120, BatchNumber: "D300"},
		},
	})
	if err != nil {
		t.Fatalf("over-receipt rejected: %v", err)
	}

	after, _ := env.receiving.GetPurchaseOrder(ctx, po.ID)
	if after.Items[0].ReceivedQty != 120 {
		t.Errorf("received qty = %d, want 120", after.Items[0].ReceivedQty)
	}
	if after.Status != domain.POStatusReceived {
		t.Errorf("status = %s, want RECEIVED", after.Status)
	}
}

func TestReceiving_CancelledOrderRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	po, err := env.receiving.CreatePurchaseOrder(ctx, env.pharmacist, domain.CreatePurchaseOrderRequest{
		SupplierID: env.supplier.ID,
		Items: []domain.PurchaseOrderItemInput{
			{MedicineName: "Metformin 500mg", Quantity: 30},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if err := env.store.SetPurchaseOrderStatus(ctx, po.ID, domain.POStatusCancelled); err != nil {
		t.Fatalf("cancel order: %v", err)
	}

	_, err = env.receiving.ReceiveGoods(ctx, env.pharmacist, domain.ReceiveGoodsRequest{
		PurchaseOrderID: po.ID,
		Items: []domain.ReceivingLineItem{
			{OrderItemID: po.Items[0].ID, QuantityReceived: 30},
		},
	})
	if !errors.Is(err, repository.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestReceiving_UnknownOrderItemRollsBack(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	po, err := env.receiving.CreatePurchaseOrder(ctx, env.pharmacist, domain.CreatePurchaseOrderRequest{
		SupplierID: env.supplier.ID,
		Items: []domain.PurchaseOrderItemInput{
			{MedicineName: "Omeprazole 20mg", Quantity: 40},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	// Valid first line, bogus second line: the whole GRN must abort.
	_, err = env.receiving.ReceiveGoods(ctx, env.pharmacist, domain.ReceiveGoodsRequest{
		PurchaseOrderID: po.ID,
		AddToInventory:  true,
		Items: []domain.ReceivingLineItem{
			{OrderItemID: po.Items[0].ID, QuantityReceived: 40, BatchNumber: "E400"},
			{OrderItemID: 99999, QuantityReceived: 10},
		},
	})
	if !errors.Is(err, repository.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}

	after, _ := env.receiving.GetPurchaseOrder(ctx, po.ID)
	if after.Items[0].ReceivedQty != 0 {
		t.Errorf("received qty = %d after aborted GRN, want 0", after.Items[0].ReceivedQty)
	}
	if _, err := env.store.FindMedicineByBatch(ctx, env.branchA.ID, "Omeprazole 20mg", "E400"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("stock row created by aborted GRN")
	}
}

func TestReceiving_BatchMatchIgnoresNameCase(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	existing := env.seedMedicine(domain.Medicine{
		Name: "ibuprofen 400mg", BatchNumber: "B300", Quantity: 25,
	})

	po, err := env.receiving.CreatePurchaseOrder(ctx, env.pharmacist, domain.CreatePurchaseOrderRequest{
		SupplierID: env.supplier.ID,
		Items: []domain.PurchaseOrderItemInput{
			{MedicineName: "Ibuprofen 400mg", GenericName: "ibuprofen", Quantity: 30, UnitCost: decimal.NewFromInt(6)},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	// Same branch, same batch, name differing only in case: the delivery
	// must land on the existing row, not mint a second one.
	_, err = env.receiving.ReceiveGoods(ctx, env.pharmacist, domain.ReceiveGoodsRequest{
		PurchaseOrderID: po.ID,
		AddToInventory:  true,
		Items: []domain.ReceivingLineItem{
			{OrderItemID: po.Items[0].ID, QuantityReceived: 30, BatchNumber: "B300"},
		},
	})
	if err != nil {
		t.Fatalf("receive goods: %v", err)
	}

	med, err := env.store.GetMedicine(ctx, existing.ID)
	if err != nil {
		t.Fatalf("get medicine: %v", err)
	}
	if med.Quantity != 55 {
		t.Errorf("quantity = %d, want 55 on the pre-existing row", med.Quantity)
	}

	feed, err := env.sync.Download(ctx, time.Time{}, env.branchA.ID)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if len(feed.Medicines) != 1 {
		t.Errorf("medicine rows = %d, want 1 (no duplicate batch row)", len(feed.Medicines))
	}
}
