package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase order lifecycle.
const (
	POStatusDraft     = "DRAFT"
	POStatusSent      = "SENT"
	POStatusPartial   = "PARTIAL"
	POStatusReceived  = "RECEIVED"
	POStatusCancelled = "CANCELLED"
)

// PurchaseOrder is an order header with line items. Status is derived from
// cumulative received quantities across the order's GRNs.
type PurchaseOrder struct {
	ID          int64               `json:"id" db:"id"`
	OrderNumber string              `json:"order_number" db:"order_number"`
	SupplierID  int64               `json:"supplier_id" db:"supplier_id"`
	BranchID    int64               `json:"branch_id" db:"branch_id"`
	Status      string              `json:"status" db:"status"`
	Notes       string              `json:"notes" db:"notes"`
	OrderedBy   int64               `json:"ordered_by" db:"ordered_by"`
	Items       []PurchaseOrderItem `json:"items" db:"-"`
	CreatedAt   time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at" db:"updated_at"`
}

// PurchaseOrderItem tracks ordered vs cumulatively received quantity.
// ReceivedQty may exceed Quantity: over-delivery is tolerated and the item
// counts as fulfilled once ReceivedQty >= Quantity.
type PurchaseOrderItem struct {
	ID           int64           `json:"id" db:"id"`
	OrderID      int64           `json:"order_id" db:"order_id"`
	MedicineName string          `json:"medicine_name" db:"medicine_name"`
	GenericName  string          `json:"generic_name" db:"generic_name"`
	Quantity     int             `json:"quantity" db:"quantity"`
	ReceivedQty  int             `json:"received_qty" db:"received_qty"`
	UnitCost     decimal.Decimal `json:"unit_cost" db:"unit_cost"`
}

// DeriveOrderStatus computes the order status from its items: RECEIVED when
// every item is fulfilled, PARTIAL when any item has progress, otherwise the
// current status is kept.
func DeriveOrderStatus(current string, items []PurchaseOrderItem) string {
	if len(items) == 0 {
		return current
	}
	allReceived := true
	anyReceived := false
	for _, it := range items {
		if it.ReceivedQty < it.Quantity {
			allReceived = false
		}
		if it.ReceivedQty > 0 {
			anyReceived = true
		}
	}
	switch {
	case allReceived:
		return POStatusReceived
	case anyReceived:
		return POStatusPartial
	default:
		return current
	}
}

// GoodsReceivedNote reconciles one purchase order against physically
// received goods. A GRN is immutable once created.
type GoodsReceivedNote struct {
	ID              int64     `json:"id" db:"id"`
	GRNNumber       string    `json:"grn_number" db:"grn_number"`
	PurchaseOrderID int64     `json:"purchase_order_id" db:"purchase_order_id"`
	BranchID        int64     `json:"branch_id" db:"branch_id"`
	ReceivedBy      int64     `json:"received_by" db:"received_by"`
	Notes           string    `json:"notes" db:"notes"`
	Items           []GRNItem `json:"items" db:"-"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// GRNItem is one received line. AddedToInventory records whether the line
// was applied to the stock ledger at receiving time.
type GRNItem struct {
	ID               int64           `json:"id" db:"id"`
	GRNID            int64           `json:"grn_id" db:"grn_id"`
	OrderItemID      int64           `json:"order_item_id" db:"order_item_id"`
	MedicineName     string          `json:"medicine_name" db:"medicine_name"`
	QuantityReceived int             `json:"quantity_received" db:"quantity_received"`
	UnitCost         decimal.Decimal `json:"unit_cost" db:"unit_cost"`
	BatchNumber      string          `json:"batch_number" db:"batch_number"`
	ExpiryDate       *time.Time      `json:"expiry_date,omitempty" db:"expiry_date"`
	AddedToInventory bool            `json:"added_to_inventory" db:"added_to_inventory"`
}

// ReceivingLineItem is the validated boundary payload for one GRN line.
type ReceivingLineItem struct {
	OrderItemID      int64           `json:"order_item_id"`
	QuantityReceived int             `json:"quantity_received"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	BatchNumber      string          `json:"batch_number"`
	ExpiryDate       *time.Time      `json:"expiry_date,omitempty"`
}

// ReceiveGoodsRequest is the boundary payload for creating a GRN.
type ReceiveGoodsRequest struct {
	PurchaseOrderID int64               `json:"purchase_order_id"`
	Items           []ReceivingLineItem `json:"items"`
	AddToInventory  bool                `json:"add_to_inventory"`
	Notes           string              `json:"notes"`
}

// CreatePurchaseOrderRequest is the boundary payload for a new order.
type CreatePurchaseOrderRequest struct {
	SupplierID int64                    `json:"supplier_id"`
	Notes      string                   `json:"notes"`
	Items      []PurchaseOrderItemInput `json:"items"`
}

// PurchaseOrderItemInput is one requested order line.
type PurchaseOrderItemInput struct {
	MedicineName string          `json:"medicine_name"`
	GenericName  string          `json:"generic_name"`
	Quantity     int             `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
}
