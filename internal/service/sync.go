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
	"github.com/shopspring/decimal"
)

// Sync serves the desktop clients: a timestamp-cursor change feed on
// download and an idempotent replay of offline writes on upload.
type Sync struct {
	store      repository.Store
	dispensing *Dispensing
}

func NewSync(store repository.Store, dispensing *Dispensing) *Sync {
	return &Sync{store: store, dispensing: dispensing}
}

// Download returns every master-data row changed at or after since. The
// client persists the returned ServerTime as its next cursor, so the
// window is inclusive: re-sending a row is harmless, missing one is not.
func (s *Sync) Download(ctx context.Context, since time.Time, branchID int64) (*domain.SyncDownload, error) {
	out := &domain.SyncDownload{ServerTime: time.Now().UTC()}

	var err error
	if out.Branches, err = s.store.ChangedBranches(ctx, since); err != nil {
		return nil, fmt.Errorf("branches: %w", err)
	}
	if out.Users, err = s.store.ChangedUsers(ctx, since); err != nil {
		return nil, fmt.Errorf("users: %w", err)
	}
	if out.Customers, err = s.store.ChangedCustomers(ctx, since); err != nil {
		return nil, fmt.Errorf("customers: %w", err)
	}
	if out.Suppliers, err = s.store.ChangedSuppliers(ctx, since); err != nil {
		return nil, fmt.Errorf("suppliers: %w", err)
	}
	if out.Medicines, err = s.store.ChangedMedicines(ctx, since, branchID); err != nil {
		return nil, fmt.Errorf("medicines: %w", err)
	}
	return out, nil
}

// Upload replays a batch of offline writes. Each record runs in its own
// transaction: a bad record is reported in Errors and the rest of the
// batch still lands. A sale whose invoice number already exists is counted
// as a duplicate, not an error, so clients can re-push after a dropped
// connection.
func (s *Sync) Upload(ctx context.Context, actor domain.Actor, req domain.SyncUploadRequest) (*domain.SyncUploadResult, error) {
	result := &domain.SyncUploadResult{Errors: []domain.SyncError{}}

	for _, c := range req.Customers {
		if err := s.upsertCustomer(ctx, c); err != nil {
			result.Errors = append(result.Errors, domain.SyncError{
				Kind:    "customer",
				Key:     c.Phone,
				Message: err.Error(),
			})
			continue
		}
		result.CustomersSynced++
	}

	for _, sale := range req.Sales {
		duplicate, err := s.replaySale(ctx, actor, sale)
		if err != nil {
			result.Errors = append(result.Errors, domain.SyncError{
				Kind:    "sale",
				Key:     sale.InvoiceNumber,
				Message: err.Error(),
			})
			continue
		}
		if duplicate {
			result.SalesDuplicate++
		} else {
			result.SalesSynced++
		}
	}

	result.ServerTime = time.Now().UTC()
	log.Info().
		Str("device_id", req.DeviceID).
		Int("sales_synced", result.SalesSynced).
		Int("sales_duplicate", result.SalesDuplicate).
		Int("customers_synced", result.CustomersSynced).
		Int("errors", len(result.Errors)).
		Msg("sync upload processed")
	return result, nil
}

func (s *Sync) upsertCustomer(ctx context.Context, c domain.OfflineCustomer) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: customer name is required", repository.ErrValidation)
	}
	return s.store.InTx(ctx, func(tx repository.Store) error {
		if c.Phone != "" || c.Email != "" {
			existing, err := tx.FindCustomerByPhoneOrEmail(ctx, c.Phone, c.Email)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			if existing != nil {
				// Already known, offline copy wins nothing.
				return nil
			}
		}
		return tx.CreateCustomer(ctx, &domain.Customer{
			Name:    c.Name,
			Phone:   c.Phone,
			Email:   c.Email,
			Address: c.Address,
		})
	})
}

// replaySale reruns one offline sale through the normal checkout path.
// The invoice lookup and the sale creation share a transaction, so two
// devices replaying the same invoice cannot both deduct stock.
func (s *Sync) replaySale(ctx context.Context, actor domain.Actor, sale domain.OfflineSale) (duplicate bool, err error) {
	if strings.TrimSpace(sale.InvoiceNumber) == "" {
		return false, fmt.Errorf("%w: offline sale is missing its invoice number", repository.ErrValidation)
	}
	if len(sale.Items) == 0 {
		return false, fmt.Errorf("%w: offline sale %s has no items", repository.ErrValidation, sale.InvoiceNumber)
	}

	discount := decimal.Zero
	if sale.Discount != "" {
		discount, err = decimal.NewFromString(sale.Discount)
		if err != nil {
			return false, fmt.Errorf("%w: bad discount %q", repository.ErrValidation, sale.Discount)
		}
	}

	saleActor := actor
	if sale.BranchID != 0 {
		saleActor.BranchID = sale.BranchID
	}

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if _, ferr := tx.FindSaleByInvoice(ctx, sale.InvoiceNumber); ferr == nil {
			duplicate = true
			return nil
		} else if !errors.Is(ferr, repository.ErrNotFound) {
			return ferr
		}

		_, cerr := s.dispensing.CreateSaleTx(ctx, tx, saleActor, domain.CreateSaleRequest{
			InvoiceNumber: sale.InvoiceNumber,
			CustomerID:    sale.CustomerID,
			Discount:      discount,
			PaymentMethod: sale.PaymentMethod,
			Items:         sale.Items,
		})
		return cerr
	})
	if errors.Is(err, repository.ErrDuplicateRecord) {
		// Lost a race with another device replaying the same invoice.
		return true, nil
	}
	return duplicate, err
}
