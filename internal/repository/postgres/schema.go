package postgres

import (
	"context"
	"fmt"
)

// Migrate creates the schema if it does not exist. Idempotent; run at
// startup by cmd/api.
func Migrate(ctx context.Context, db *DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS branches (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	code        TEXT NOT NULL UNIQUE,
	address     TEXT NOT NULL DEFAULT '',
	phone       TEXT NOT NULL DEFAULT '',
	is_active   BOOLEAN NOT NULL DEFAULT TRUE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS users (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	email       TEXT NOT NULL UNIQUE,
	role        TEXT NOT NULL,
	branch_id   BIGINT NOT NULL REFERENCES branches(id),
	is_active   BOOLEAN NOT NULL DEFAULT TRUE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS customers (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	phone       TEXT NOT NULL DEFAULT '',
	email       TEXT NOT NULL DEFAULT '',
	address     TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS suppliers (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	contact     TEXT NOT NULL DEFAULT '',
	phone       TEXT NOT NULL DEFAULT '',
	email       TEXT NOT NULL DEFAULT '',
	is_active   BOOLEAN NOT NULL DEFAULT TRUE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS medicines (
	id             BIGSERIAL PRIMARY KEY,
	name           TEXT NOT NULL,
	generic_name   TEXT NOT NULL DEFAULT '',
	batch_number   TEXT NOT NULL DEFAULT '',
	quantity       INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
	reorder_level  INTEGER NOT NULL DEFAULT 0,
	unit_price     NUMERIC(12,2) NOT NULL DEFAULT 0,
	unit_cost      NUMERIC(12,2) NOT NULL DEFAULT 0,
	expiry_date    TIMESTAMPTZ,
	branch_id      BIGINT NOT NULL REFERENCES branches(id),
	is_controlled  BOOLEAN NOT NULL DEFAULT FALSE,
	schedule_class TEXT NOT NULL DEFAULT '',
	is_active      BOOLEAN NOT NULL DEFAULT TRUE,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_medicines_branch ON medicines(branch_id);
CREATE INDEX IF NOT EXISTS idx_medicines_updated ON medicines(updated_at);
CREATE UNIQUE INDEX IF NOT EXISTS idx_medicines_branch_name_batch
	ON medicines(branch_id, LOWER(name), batch_number);

CREATE TABLE IF NOT EXISTS register_entries (
	id               BIGSERIAL PRIMARY KEY,
	entry_number     TEXT NOT NULL UNIQUE,
	medicine_id      BIGINT NOT NULL REFERENCES medicines(id),
	branch_id        BIGINT NOT NULL REFERENCES branches(id),
	transaction_type TEXT NOT NULL,
	quantity_in      INTEGER NOT NULL DEFAULT 0,
	quantity_out     INTEGER NOT NULL DEFAULT 0,
	balance_before   INTEGER NOT NULL,
	balance_after    INTEGER NOT NULL CHECK (balance_after >= 0),
	reference        TEXT NOT NULL DEFAULT '',
	notes            TEXT NOT NULL DEFAULT '',
	recorded_by      BIGINT NOT NULL,
	recorded_by_name TEXT NOT NULL DEFAULT '',
	verified_by      BIGINT,
	verified_by_name TEXT NOT NULL DEFAULT '',
	verified_at      TIMESTAMPTZ,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_register_medicine ON register_entries(medicine_id, id);

CREATE TABLE IF NOT EXISTS purchase_orders (
	id           BIGSERIAL PRIMARY KEY,
	order_number TEXT NOT NULL UNIQUE,
	supplier_id  BIGINT NOT NULL REFERENCES suppliers(id),
	branch_id    BIGINT NOT NULL REFERENCES branches(id),
	status       TEXT NOT NULL DEFAULT 'DRAFT',
	notes        TEXT NOT NULL DEFAULT '',
	ordered_by   BIGINT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS purchase_order_items (
	id            BIGSERIAL PRIMARY KEY,
	order_id      BIGINT NOT NULL REFERENCES purchase_orders(id) ON DELETE CASCADE,
	medicine_name TEXT NOT NULL,
	generic_name  TEXT NOT NULL DEFAULT '',
	quantity      INTEGER NOT NULL CHECK (quantity > 0),
	received_qty  INTEGER NOT NULL DEFAULT 0,
	unit_cost     NUMERIC(12,2) NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS goods_received_notes (
	id                BIGSERIAL PRIMARY KEY,
	grn_number        TEXT NOT NULL UNIQUE,
	purchase_order_id BIGINT NOT NULL REFERENCES purchase_orders(id),
	branch_id         BIGINT NOT NULL REFERENCES branches(id),
	received_by       BIGINT NOT NULL,
	notes             TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS grn_items (
	id                 BIGSERIAL PRIMARY KEY,
	grn_id             BIGINT NOT NULL REFERENCES goods_received_notes(id) ON DELETE CASCADE,
	order_item_id      BIGINT NOT NULL REFERENCES purchase_order_items(id),
	medicine_name      TEXT NOT NULL,
	quantity_received  INTEGER NOT NULL CHECK (quantity_received > 0),
	unit_cost          NUMERIC(12,2) NOT NULL DEFAULT 0,
	batch_number       TEXT NOT NULL DEFAULT '',
	expiry_date        TIMESTAMPTZ,
	added_to_inventory BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS stock_transfers (
	id              BIGSERIAL PRIMARY KEY,
	transfer_number TEXT NOT NULL UNIQUE,
	from_branch_id  BIGINT NOT NULL REFERENCES branches(id),
	to_branch_id    BIGINT NOT NULL REFERENCES branches(id),
	status          TEXT NOT NULL DEFAULT 'PENDING',
	notes           TEXT NOT NULL DEFAULT '',
	requested_by    BIGINT NOT NULL,
	completed_at    TIMESTAMPTZ,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS stock_transfer_items (
	id            BIGSERIAL PRIMARY KEY,
	transfer_id   BIGINT NOT NULL REFERENCES stock_transfers(id) ON DELETE CASCADE,
	medicine_id   BIGINT NOT NULL REFERENCES medicines(id),
	medicine_name TEXT NOT NULL,
	batch_number  TEXT NOT NULL DEFAULT '',
	quantity      INTEGER NOT NULL CHECK (quantity > 0),
	unit_price    NUMERIC(12,2) NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sales (
	id             BIGSERIAL PRIMARY KEY,
	invoice_number TEXT NOT NULL UNIQUE,
	branch_id      BIGINT NOT NULL REFERENCES branches(id),
	customer_id    BIGINT REFERENCES customers(id),
	subtotal       NUMERIC(12,2) NOT NULL DEFAULT 0,
	discount       NUMERIC(12,2) NOT NULL DEFAULT 0,
	total          NUMERIC(12,2) NOT NULL DEFAULT 0,
	payment_method TEXT NOT NULL DEFAULT 'cash',
	sold_by        BIGINT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS sale_items (
	id          BIGSERIAL PRIMARY KEY,
	sale_id     BIGINT NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
	medicine_id BIGINT NOT NULL REFERENCES medicines(id),
	quantity    INTEGER NOT NULL CHECK (quantity > 0),
	unit_price  NUMERIC(12,2) NOT NULL DEFAULT 0,
	total       NUMERIC(12,2) NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS prescriptions (
	id              BIGSERIAL PRIMARY KEY,
	number          TEXT NOT NULL UNIQUE,
	patient_name    TEXT NOT NULL,
	doctor_name     TEXT NOT NULL DEFAULT '',
	customer_id     BIGINT REFERENCES customers(id),
	branch_id       BIGINT NOT NULL REFERENCES branches(id),
	status          TEXT NOT NULL DEFAULT 'ACTIVE',
	refills_allowed INTEGER NOT NULL DEFAULT 0,
	refills_used    INTEGER NOT NULL DEFAULT 0,
	expiry_date     TIMESTAMPTZ,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS prescription_items (
	id                   BIGSERIAL PRIMARY KEY,
	prescription_id      BIGINT NOT NULL REFERENCES prescriptions(id) ON DELETE CASCADE,
	medicine_id          BIGINT NOT NULL REFERENCES medicines(id),
	medicine_name        TEXT NOT NULL,
	dosage               TEXT NOT NULL DEFAULT '',
	quantity_prescribed  INTEGER NOT NULL CHECK (quantity_prescribed > 0),
	quantity_dispensed   INTEGER NOT NULL DEFAULT 0,
	substitution_allowed BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS prescription_dispensings (
	id              BIGSERIAL PRIMARY KEY,
	prescription_id BIGINT NOT NULL REFERENCES prescriptions(id),
	sale_id         BIGINT REFERENCES sales(id),
	dispensed_by    BIGINT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS dispensing_items (
	id                   BIGSERIAL PRIMARY KEY,
	dispensing_id        BIGINT NOT NULL REFERENCES prescription_dispensings(id) ON DELETE CASCADE,
	prescription_item_id BIGINT NOT NULL REFERENCES prescription_items(id),
	medicine_id          BIGINT NOT NULL REFERENCES medicines(id),
	quantity             INTEGER NOT NULL CHECK (quantity > 0),
	substituted          BOOLEAN NOT NULL DEFAULT FALSE,
	substitute_note      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS sequences (
	scope TEXT PRIMARY KEY,
	value BIGINT NOT NULL
);
`
