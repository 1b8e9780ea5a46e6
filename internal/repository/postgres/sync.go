package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/jmoiron/sqlx"
)

func (s *Store) FindCustomerByPhoneOrEmail(ctx context.Context, phone, email string) (*domain.Customer, error) {
	var c domain.Customer
	err := sqlx.GetContext(ctx, s.q(), &c, `
		SELECT * FROM customers
		WHERE (phone <> '' AND phone = $1) OR (email <> '' AND email = $2)
		LIMIT 1
	`, phone, email)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &c, nil
}

func (s *Store) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	err := s.q().QueryRowxContext(ctx, `
		INSERT INTO customers (name, phone, email, address)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, c.Name, c.Phone, c.Email, c.Address).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create customer: %w", wrapErr(err))
	}
	return nil
}

func (s *Store) ChangedBranches(ctx context.Context, since time.Time) ([]domain.Branch, error) {
	var out []domain.Branch
	err := sqlx.SelectContext(ctx, s.q(), &out, `
		SELECT * FROM branches WHERE updated_at >= $1 ORDER BY id
	`, since)
	if err != nil {
		return nil, wrapErr(err)
	}
	return out, nil
}

func (s *Store) ChangedUsers(ctx context.Context, since time.Time) ([]domain.User, error) {
	var out []domain.User
	err := sqlx.SelectContext(ctx, s.q(), &out, `
		SELECT * FROM users WHERE updated_at >= $1 ORDER BY id
	`, since)
	if err != nil {
		return nil, wrapErr(err)
	}
	return out, nil
}

func (s *Store) ChangedCustomers(ctx context.Context, since time.Time) ([]domain.Customer, error) {
	var out []domain.Customer
	err := sqlx.SelectContext(ctx, s.q(), &out, `
		SELECT * FROM customers WHERE updated_at >= $1 ORDER BY id
	`, since)
	if err != nil {
		return nil, wrapErr(err)
	}
	return out, nil
}

func (s *Store) ChangedSuppliers(ctx context.Context, since time.Time) ([]domain.Supplier, error) {
	var out []domain.Supplier
	err := sqlx.SelectContext(ctx, s.q(), &out, `
		SELECT * FROM suppliers WHERE updated_at >= $1 ORDER BY id
	`, since)
	if err != nil {
		return nil, wrapErr(err)
	}
	return out, nil
}

func (s *Store) ChangedMedicines(ctx context.Context, since time.Time, branchID int64) ([]domain.Medicine, error) {
	var out []domain.Medicine
	err := sqlx.SelectContext(ctx, s.q(), &out, `
		SELECT * FROM medicines
		WHERE updated_at >= $1 AND is_active AND quantity > 0 AND ($2 = 0 OR branch_id = $2)
		ORDER BY id
	`, since, branchID)
	if err != nil {
		return nil, wrapErr(err)
	}
	return out, nil
}
