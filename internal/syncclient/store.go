package syncclient

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const localSchema = `
CREATE TABLE IF NOT EXISTS sync_state (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS medicines (
    id            INTEGER PRIMARY KEY,
    name          TEXT NOT NULL,
    batch_number  TEXT NOT NULL DEFAULT '',
    quantity      INTEGER NOT NULL,
    unit_price    TEXT NOT NULL,
    branch_id     INTEGER NOT NULL,
    is_controlled INTEGER NOT NULL DEFAULT 0,
    updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS customers (
    id      INTEGER PRIMARY KEY,
    name    TEXT NOT NULL,
    phone   TEXT NOT NULL DEFAULT '',
    email   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS pending_sales (
    invoice_number TEXT PRIMARY KEY,
    payload        TEXT NOT NULL,
    created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pending_customers (
    phone      TEXT PRIMARY KEY,
    payload    TEXT NOT NULL,
    created_at TEXT NOT NULL
);
`

const cursorKey = "download_cursor"

// LocalStore is the desktop agent's sqlite working set: a replicated
// medicine catalog plus the queue of writes made while offline.
type LocalStore struct {
	db *sqlx.DB
}

func OpenLocalStore(path string) (*LocalStore, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open local db: %w", err)
	}
	if _, err := db.Exec(localSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate local db: %w", err)
	}
	return &LocalStore{db: db}, nil
}

func (s *LocalStore) Close() error {
	return s.db.Close()
}

// Cursor returns the persisted download cursor; the zero time means the
// agent has never synced and needs a full download.
func (s *LocalStore) Cursor(ctx context.Context) (time.Time, error) {
	var raw string
	err := s.db.GetContext(ctx, &raw, `SELECT value FROM sync_state WHERE key = ?`, cursorKey)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, raw)
}

func (s *LocalStore) SetCursor(ctx context.Context, t time.Time) error {
	return s.SetState(ctx, cursorKey, t.UTC().Format(time.RFC3339))
}

// State reads one sync_state value; ok is false when the key is unset.
func (s *LocalStore) State(ctx context.Context, key string) (string, bool, error) {
	var raw string
	err := s.db.GetContext(ctx, &raw, `SELECT value FROM sync_state WHERE key = ?`, key)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return raw, true, nil
}

func (s *LocalStore) SetState(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_state (key, value) VALUES (?, ?)
         ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value)
	return err
}

// ApplyDownload merges a change feed into the local catalog. Rows are
// upserted by id; the feed never deletes.
func (s *LocalStore) ApplyDownload(ctx context.Context, feed *domain.SyncDownload) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, m := range feed.Medicines {
		controlled := 0
		if m.IsControlled {
			controlled = 1
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO medicines (id, name, batch_number, quantity, unit_price, branch_id, is_controlled, updated_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)
             ON CONFLICT (id) DO UPDATE SET
                 name = excluded.name,
                 batch_number = excluded.batch_number,
                 quantity = excluded.quantity,
                 unit_price = excluded.unit_price,
                 branch_id = excluded.branch_id,
                 is_controlled = excluded.is_controlled,
                 updated_at = excluded.updated_at`,
			m.ID, m.Name, m.BatchNumber, m.Quantity, m.UnitPrice.String(),
			m.BranchID, controlled, m.UpdatedAt.UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("upsert medicine %d: %w", m.ID, err)
		}
	}

	for _, c := range feed.Customers {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO customers (id, name, phone, email) VALUES (?, ?, ?, ?)
             ON CONFLICT (id) DO UPDATE SET
                 name = excluded.name, phone = excluded.phone, email = excluded.email`,
			c.ID, c.Name, c.Phone, c.Email)
		if err != nil {
			return fmt.Errorf("upsert customer %d: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}

// QueueSale records an offline sale for the next push. The invoice number
// keys the queue, so re-queueing the same sale overwrites rather than
// duplicates.
func (s *LocalStore) QueueSale(ctx context.Context, sale domain.OfflineSale) error {
	payload, err := json.Marshal(sale)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pending_sales (invoice_number, payload, created_at) VALUES (?, ?, ?)
         ON CONFLICT (invoice_number) DO UPDATE SET payload = excluded.payload`,
		sale.InvoiceNumber, string(payload), time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *LocalStore) QueueCustomer(ctx context.Context, customer domain.OfflineCustomer) error {
	payload, err := json.Marshal(customer)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pending_customers (phone, payload, created_at) VALUES (?, ?, ?)
         ON CONFLICT (phone) DO UPDATE SET payload = excluded.payload`,
		customer.Phone, string(payload), time.Now().UTC().Format(time.RFC3339))
	return err
}

// PendingSales returns every queued sale, oldest first.
func (s *LocalStore) PendingSales(ctx context.Context) ([]domain.OfflineSale, error) {
	var rows []string
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT payload FROM pending_sales ORDER BY created_at`); err != nil {
		return nil, err
	}
	sales := make([]domain.OfflineSale, 0, len(rows))
	for _, raw := range rows {
		var sale domain.OfflineSale
		if err := json.Unmarshal([]byte(raw), &sale); err != nil {
			return nil, fmt.Errorf("decode pending sale: %w", err)
		}
		sales = append(sales, sale)
	}
	return sales, nil
}

func (s *LocalStore) PendingCustomers(ctx context.Context) ([]domain.OfflineCustomer, error) {
	var rows []string
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT payload FROM pending_customers ORDER BY created_at`); err != nil {
		return nil, err
	}
	customers := make([]domain.OfflineCustomer, 0, len(rows))
	for _, raw := range rows {
		var customer domain.OfflineCustomer
		if err := json.Unmarshal([]byte(raw), &customer); err != nil {
			return nil, fmt.Errorf("decode pending customer: %w", err)
		}
		customers = append(customers, customer)
	}
	return customers, nil
}

// ClearSale removes a sale from the queue once the server has accepted or
// deduplicated it.
func (s *LocalStore) ClearSale(ctx context.Context, invoiceNumber string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM pending_sales WHERE invoice_number = ?`, invoiceNumber)
	return err
}

func (s *LocalStore) ClearCustomer(ctx context.Context, phone string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM pending_customers WHERE phone = ?`, phone)
	return err
}

// PendingCounts reports queue depth for the status command.
func (s *LocalStore) PendingCounts(ctx context.Context) (sales, customers int, err error) {
	if err = s.db.GetContext(ctx, &sales, `SELECT COUNT(*) FROM pending_sales`); err != nil {
		return 0, 0, err
	}
	if err = s.db.GetContext(ctx, &customers, `SELECT COUNT(*) FROM pending_customers`); err != nil {
		return 0, 0, err
	}
	return sales, customers, nil
}
