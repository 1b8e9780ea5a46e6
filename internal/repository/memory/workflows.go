package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/repository"
)

// Controlled substance register

func (s *Store) LatestRegisterBalance(_ context.Context, medicineID int64) (int, bool, error) {
	s.lock()
	defer s.unlock()
	for i := len(s.state.registerLog) - 1; i >= 0; i-- {
		if s.state.registerLog[i].MedicineID == medicineID {
			return s.state.registerLog[i].BalanceAfter, true, nil
		}
	}
	return 0, false, nil
}

func (s *Store) CreateRegisterEntry(_ context.Context, e *domain.RegisterEntry) error {
	s.lock()
	defer s.unlock()
	for _, existing := range s.state.registerLog {
		if existing.EntryNumber == e.EntryNumber {
			return repository.ErrDuplicateRecord
		}
	}
	e.ID = s.nextID()
	e.CreatedAt = time.Now().UTC()
	s.state.registerLog = append(s.state.registerLog, *e)
	return nil
}

func (s *Store) GetRegisterEntry(_ context.Context, id int64) (*domain.RegisterEntry, error) {
	s.lock()
	defer s.unlock()
	for _, e := range s.state.registerLog {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) AttachRegisterVerifier(_ context.Context, entryID, verifierID int64, verifierName string, at time.Time) error {
	s.lock()
	defer s.unlock()
	for i := range s.state.registerLog {
		e := &s.state.registerLog[i]
		if e.ID != entryID {
			continue
		}
		if e.VerifiedBy != nil {
			return repository.ErrInvalidTransition
		}
		e.VerifiedBy = &verifierID
		e.VerifiedByName = verifierName
		e.VerifiedAt = &at
		return nil
	}
	return repository.ErrNotFound
}

func (s *Store) ListRegisterEntries(_ context.Context, medicineID int64, limit int) ([]domain.RegisterEntry, error) {
	s.lock()
	defer s.unlock()
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []domain.RegisterEntry
	for i := len(s.state.registerLog) - 1; i >= 0 && len(out) < limit; i-- {
		e := s.state.registerLog[i]
		if medicineID == 0 || e.MedicineID == medicineID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Purchase orders and GRNs

func (s *Store) CreatePurchaseOrder(_ context.Context, po *domain.PurchaseOrder) error {
	s.lock()
	defer s.unlock()
	po.ID = s.nextID()
	now := time.Now().UTC()
	po.CreatedAt, po.UpdatedAt = now, now
	for i := range po.Items {
		po.Items[i].ID = s.nextID()
		po.Items[i].OrderID = po.ID
	}
	cp := *po
	cp.Items = append([]domain.PurchaseOrderItem(nil), po.Items...)
	s.state.orders[po.ID] = cp
	return nil
}

func (s *Store) GetPurchaseOrder(_ context.Context, id int64) (*domain.PurchaseOrder, error) {
	s.lock()
	defer s.unlock()
	po, ok := s.state.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	po.Items = append([]domain.PurchaseOrderItem(nil), po.Items...)
	return &po, nil
}

func (s *Store) AddOrderItemReceived(_ context.Context, orderItemID int64, qty int) error {
	s.lock()
	defer s.unlock()
	for id, po := range s.state.orders {
		for i := range po.Items {
			if po.Items[i].ID == orderItemID {
				po.Items[i].ReceivedQty += qty
				po.UpdatedAt = time.Now().UTC()
				s.state.orders[id] = po
				return nil
			}
		}
	}
	return repository.ErrNotFound
}

func (s *Store) SetPurchaseOrderStatus(_ context.Context, id int64, status string) error {
	s.lock()
	defer s.unlock()
	po, ok := s.state.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	po.Status = status
	po.UpdatedAt = time.Now().UTC()
	s.state.orders[id] = po
	return nil
}

func (s *Store) CreateGRN(_ context.Context, grn *domain.GoodsReceivedNote) error {
	s.lock()
	defer s.unlock()
	grn.ID = s.nextID()
	grn.CreatedAt = time.Now().UTC()
	for i := range grn.Items {
		grn.Items[i].ID = s.nextID()
		grn.Items[i].GRNID = grn.ID
	}
	cp := *grn
	cp.Items = append([]domain.GRNItem(nil), grn.Items...)
	s.state.grns[grn.ID] = cp
	return nil
}

// Stock transfers

func (s *Store) CreateTransfer(_ context.Context, t *domain.StockTransfer) error {
	s.lock()
	defer s.unlock()
	t.ID = s.nextID()
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	for i := range t.Items {
		t.Items[i].ID = s.nextID()
		t.Items[i].TransferID = t.ID
	}
	cp := *t
	cp.Items = append([]domain.StockTransferItem(nil), t.Items...)
	s.state.transfers[t.ID] = cp
	return nil
}

func (s *Store) GetTransfer(_ context.Context, id int64) (*domain.StockTransfer, error) {
	s.lock()
	defer s.unlock()
	t, ok := s.state.transfers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t.Items = append([]domain.StockTransferItem(nil), t.Items...)
	return &t, nil
}

func (s *Store) SetTransferStatus(_ context.Context, id int64, status string, completedAt *time.Time) error {
	s.lock()
	defer s.unlock()
	t, ok := s.state.transfers[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.Status = status
	t.CompletedAt = completedAt
	t.UpdatedAt = time.Now().UTC()
	s.state.transfers[id] = t
	return nil
}

// Sales

func (s *Store) FindSaleByInvoice(_ context.Context, invoiceNumber string) (*domain.Sale, error) {
	s.lock()
	defer s.unlock()
	id, ok := s.state.saleByInvoice[invoiceNumber]
	if !ok {
		return nil, repository.ErrNotFound
	}
	sale := s.state.sales[id]
	sale.Items = append([]domain.SaleItem(nil), sale.Items...)
	return &sale, nil
}

func (s *Store) CreateSale(_ context.Context, sale *domain.Sale) error {
	s.lock()
	defer s.unlock()
	if _, exists := s.state.saleByInvoice[sale.InvoiceNumber]; exists {
		return repository.ErrDuplicateRecord
	}
	sale.ID = s.nextID()
	now := time.Now().UTC()
	sale.CreatedAt, sale.UpdatedAt = now, now
	for i := range sale.Items {
		sale.Items[i].ID = s.nextID()
		sale.Items[i].SaleID = sale.ID
	}
	cp := *sale
	cp.Items = append([]domain.SaleItem(nil), sale.Items...)
	s.state.sales[sale.ID] = cp
	s.state.saleByInvoice[sale.InvoiceNumber] = sale.ID
	return nil
}

// Prescriptions

func (s *Store) CreatePrescription(_ context.Context, p *domain.Prescription) error {
	s.lock()
	defer s.unlock()
	p.ID = s.nextID()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	for i := range p.Items {
		p.Items[i].ID = s.nextID()
		p.Items[i].PrescriptionID = p.ID
	}
	cp := *p
	cp.Items = append([]domain.PrescriptionItem(nil), p.Items...)
	s.state.prescriptions[p.ID] = cp
	return nil
}

func (s *Store) GetPrescription(_ context.Context, id int64) (*domain.Prescription, error) {
	s.lock()
	defer s.unlock()
	p, ok := s.state.prescriptions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p.Items = append([]domain.PrescriptionItem(nil), p.Items...)
	return &p, nil
}

func (s *Store) AddPrescriptionItemDispensed(_ context.Context, itemID int64, qty int) error {
	s.lock()
	defer s.unlock()
	for id, p := range s.state.prescriptions {
		for i := range p.Items {
			if p.Items[i].ID != itemID {
				continue
			}
			if p.Items[i].QuantityDispensed+qty > p.Items[i].QuantityPrescribed {
				return repository.ErrValidation
			}
			p.Items[i].QuantityDispensed += qty
			p.UpdatedAt = time.Now().UTC()
			s.state.prescriptions[id] = p
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *Store) SetPrescriptionStatus(_ context.Context, id int64, status string, refillsUsed int) error {
	s.lock()
	defer s.unlock()
	p, ok := s.state.prescriptions[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Status = status
	p.RefillsUsed = refillsUsed
	p.UpdatedAt = time.Now().UTC()
	s.state.prescriptions[id] = p
	return nil
}

func (s *Store) CreateDispensing(_ context.Context, d *domain.PrescriptionDispensing) error {
	s.lock()
	defer s.unlock()
	d.ID = s.nextID()
	d.CreatedAt = time.Now().UTC()
	for i := range d.Items {
		d.Items[i].ID = s.nextID()
		d.Items[i].DispensingID = d.ID
	}
	cp := *d
	cp.Items = append([]domain.DispensingItem(nil), d.Items...)
	s.state.dispensings[d.ID] = cp
	return nil
}

// Customers and sync feed

func (s *Store) FindCustomerByPhoneOrEmail(_ context.Context, phone, email string) (*domain.Customer, error) {
	s.lock()
	defer s.unlock()
	for _, c := range s.state.customers {
		if (phone != "" && c.Phone == phone) || (email != "" && strings.EqualFold(c.Email, email)) {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) CreateCustomer(_ context.Context, c *domain.Customer) error {
	s.lock()
	defer s.unlock()
	c.ID = s.nextID()
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	s.state.customers[c.ID] = *c
	return nil
}

func (s *Store) ChangedBranches(_ context.Context, since time.Time) ([]domain.Branch, error) {
	s.lock()
	defer s.unlock()
	var out []domain.Branch
	for _, b := range s.state.branches {
		if !b.UpdatedAt.Before(since) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ChangedUsers(_ context.Context, since time.Time) ([]domain.User, error) {
	s.lock()
	defer s.unlock()
	var out []domain.User
	for _, u := range s.state.users {
		if !u.UpdatedAt.Before(since) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ChangedCustomers(_ context.Context, since time.Time) ([]domain.Customer, error) {
	s.lock()
	defer s.unlock()
	var out []domain.Customer
	for _, c := range s.state.customers {
		if !c.UpdatedAt.Before(since) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ChangedSuppliers(_ context.Context, since time.Time) ([]domain.Supplier, error) {
	s.lock()
	defer s.unlock()
	var out []domain.Supplier
	for _, sp := range s.state.suppliers {
		if !sp.UpdatedAt.Before(since) {
			out = append(out, sp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ChangedMedicines(_ context.Context, since time.Time, branchID int64) ([]domain.Medicine, error) {
	s.lock()
	defer s.unlock()
	var out []domain.Medicine
	for _, m := range s.state.medicines {
		if !m.IsActive || m.Quantity <= 0 || m.UpdatedAt.Before(since) {
			continue
		}
		if branchID != 0 && m.BranchID != branchID {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
