package domain

import "time"

// SyncDownload is the change feed returned to a desktop client: every row
// whose updated_at is at or after the client's cursor. ServerTime becomes
// the client's next cursor.
type SyncDownload struct {
	Branches   []Branch   `json:"branches"`
	Users      []User     `json:"users"`
	Customers  []Customer `json:"customers"`
	Suppliers  []Supplier `json:"suppliers"`
	Medicines  []Medicine `json:"medicines"`
	ServerTime time.Time  `json:"server_time"`
}

// OfflineSale is a sale created while disconnected, replayed on upload.
// The invoice number is the idempotency key.
type OfflineSale struct {
	InvoiceNumber string          `json:"invoice_number"`
	BranchID      int64           `json:"branch_id"`
	CustomerID    *int64          `json:"customer_id,omitempty"`
	Discount      string          `json:"discount"`
	PaymentMethod string          `json:"payment_method"`
	SoldAt        time.Time       `json:"sold_at"`
	Items         []SaleLineItem  `json:"items"`
}

// OfflineCustomer is a customer created while disconnected, deduplicated by
// phone or email on upload.
type OfflineCustomer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// SyncUploadRequest is the batch of offline writes pushed by a client.
type SyncUploadRequest struct {
	DeviceID  string            `json:"device_id"`
	Sales     []OfflineSale     `json:"sales"`
	Customers []OfflineCustomer `json:"customers"`
}

// SyncError reports one failed record in an upload batch; the rest of the
// batch still applies.
type SyncError struct {
	Kind    string `json:"kind"`
	Key     string `json:"key"`
	Message string `json:"message"`
}

// SyncUploadResult summarizes an upload batch.
type SyncUploadResult struct {
	SalesSynced     int         `json:"salesSynced"`
	SalesDuplicate  int         `json:"salesDuplicate"`
	CustomersSynced int         `json:"customersSynced"`
	Errors          []SyncError `json:"errors"`
	ServerTime      time.Time   `json:"server_time"`
}
