// Package memory provides an in-memory Store backing the service test
// suite. Transactions are modeled with a whole-store mutex plus state
// snapshot, so a failed workflow rolls back exactly like the postgres
// implementation.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/repository"
)

type state struct {
	branches      map[int64]domain.Branch
	users         map[int64]domain.User
	customers     map[int64]domain.Customer
	suppliers     map[int64]domain.Supplier
	medicines     map[int64]domain.Medicine
	registerLog   []domain.RegisterEntry
	orders        map[int64]domain.PurchaseOrder
	grns          map[int64]domain.GoodsReceivedNote
	transfers     map[int64]domain.StockTransfer
	sales         map[int64]domain.Sale
	saleByInvoice map[string]int64
	prescriptions map[int64]domain.Prescription
	dispensings   map[int64]domain.PrescriptionDispensing
	sequences     map[string]int64
	nextID        int64
}

func newState() *state {
	return &state{
		branches:      map[int64]domain.Branch{},
		users:         map[int64]domain.User{},
		customers:     map[int64]domain.Customer{},
		suppliers:     map[int64]domain.Supplier{},
		medicines:     map[int64]domain.Medicine{},
		orders:        map[int64]domain.PurchaseOrder{},
		grns:          map[int64]domain.GoodsReceivedNote{},
		transfers:     map[int64]domain.StockTransfer{},
		sales:         map[int64]domain.Sale{},
		saleByInvoice: map[string]int64{},
		prescriptions: map[int64]domain.Prescription{},
		dispensings:   map[int64]domain.PrescriptionDispensing{},
		sequences:     map[string]int64{},
	}
}

func (st *state) clone() *state {
	cp := newState()
	cp.nextID = st.nextID
	for k, v := range st.branches {
		cp.branches[k] = v
	}
	for k, v := range st.users {
		cp.users[k] = v
	}
	for k, v := range st.customers {
		cp.customers[k] = v
	}
	for k, v := range st.suppliers {
		cp.suppliers[k] = v
	}
	for k, v := range st.medicines {
		cp.medicines[k] = v
	}
	cp.registerLog = append([]domain.RegisterEntry(nil), st.registerLog...)
	for k, v := range st.orders {
		v.Items = append([]domain.PurchaseOrderItem(nil), v.Items...)
		cp.orders[k] = v
	}
	for k, v := range st.grns {
		v.Items = append([]domain.GRNItem(nil), v.Items...)
		cp.grns[k] = v
	}
	for k, v := range st.transfers {
		v.Items = append([]domain.StockTransferItem(nil), v.Items...)
		cp.transfers[k] = v
	}
	for k, v := range st.sales {
		v.Items = append([]domain.SaleItem(nil), v.Items...)
		cp.sales[k] = v
	}
	for k, v := range st.saleByInvoice {
		cp.saleByInvoice[k] = v
	}
	for k, v := range st.prescriptions {
		v.Items = append([]domain.PrescriptionItem(nil), v.Items...)
		cp.prescriptions[k] = v
	}
	for k, v := range st.dispensings {
		v.Items = append([]domain.DispensingItem(nil), v.Items...)
		cp.dispensings[k] = v
	}
	for k, v := range st.sequences {
		cp.sequences[k] = v
	}
	return cp
}

// Store implements repository.Store in memory.
type Store struct {
	mu    sync.Mutex
	state *state
	bound bool
}

func NewStore() *Store {
	return &Store{state: newState()}
}

func (s *Store) lock() {
	if !s.bound {
		s.mu.Lock()
	}
}

func (s *Store) unlock() {
	if !s.bound {
		s.mu.Unlock()
	}
}

// InTx locks the whole store and snapshots state; any error from fn
// restores the snapshot. Nested calls reuse the open transaction.
func (s *Store) InTx(_ context.Context, fn func(repository.Store) error) error {
	if s.bound {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.state.clone()
	bound := &Store{state: s.state, bound: true}
	if err := fn(bound); err != nil {
		*s.state = *snap
		return err
	}
	return nil
}

func (s *Store) NextSequence(_ context.Context, scope string) (int64, error) {
	s.lock()
	defer s.unlock()
	s.state.sequences[scope]++
	return s.state.sequences[scope], nil
}

func (s *Store) nextID() int64 {
	s.state.nextID++
	return s.state.nextID
}

// Seed helpers used by tests. They bypass workflow rules on
// purpose.

func (s *Store) SeedBranch(b domain.Branch) domain.Branch {
	s.lock()
	defer s.unlock()
	if b.ID == 0 {
		b.ID = s.nextID()
	}
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	b.IsActive = true
	s.state.branches[b.ID] = b
	return b
}

func (s *Store) SeedUser(u domain.User) domain.User {
	s.lock()
	defer s.unlock()
	if u.ID == 0 {
		u.ID = s.nextID()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	u.IsActive = true
	s.state.users[u.ID] = u
	return u
}

func (s *Store) SeedSupplier(sp domain.Supplier) domain.Supplier {
	s.lock()
	defer s.unlock()
	if sp.ID == 0 {
		sp.ID = s.nextID()
	}
	now := time.Now().UTC()
	sp.CreatedAt, sp.UpdatedAt = now, now
	sp.IsActive = true
	s.state.suppliers[sp.ID] = sp
	return sp
}

func (s *Store) SeedMedicine(m domain.Medicine) domain.Medicine {
	s.lock()
	defer s.unlock()
	if m.ID == 0 {
		m.ID = s.nextID()
	}
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	m.IsActive = true
	s.state.medicines[m.ID] = m
	return m
}

// Medicine / ledger

func (s *Store) GetMedicine(_ context.Context, id int64) (*domain.Medicine, error) {
	s.lock()
	defer s.unlock()
	m, ok := s.state.medicines[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

// GetMedicineForUpdate is a plain read here: the whole-store mutex already
// serializes transactions, so there is no finer row lock to take.
func (s *Store) GetMedicineForUpdate(ctx context.Context, id int64) (*domain.Medicine, error) {
	return s.GetMedicine(ctx, id)
}

func (s *Store) FindMedicineByBatch(_ context.Context, branchID int64, name, batchNumber string) (*domain.Medicine, error) {
	s.lock()
	defer s.unlock()
	for _, m := range s.state.medicines {
		if m.BranchID == branchID && m.IsActive &&
			strings.EqualFold(m.Name, name) && m.BatchNumber == batchNumber {
			return &m, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) CreateMedicine(_ context.Context, m *domain.Medicine) error {
	s.lock()
	defer s.unlock()
	m.ID = s.nextID()
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	m.IsActive = true
	s.state.medicines[m.ID] = *m
	return nil
}

func (s *Store) DeactivateMedicine(_ context.Context, id int64) error {
	s.lock()
	defer s.unlock()
	m, ok := s.state.medicines[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.IsActive = false
	m.UpdatedAt = time.Now().UTC()
	s.state.medicines[id] = m
	return nil
}

func (s *Store) AdjustMedicineQuantity(_ context.Context, id int64, delta int) (int, error) {
	s.lock()
	defer s.unlock()
	m, ok := s.state.medicines[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	if m.Quantity+delta < 0 {
		return 0, repository.ErrInsufficientStock
	}
	m.Quantity += delta
	m.UpdatedAt = time.Now().UTC()
	s.state.medicines[id] = m
	return m.Quantity, nil
}

func (s *Store) ListLowStock(_ context.Context, branchID int64) ([]domain.Medicine, error) {
	s.lock()
	defer s.unlock()
	var out []domain.Medicine
	for _, m := range s.state.medicines {
		if m.IsActive && m.Quantity <= m.ReorderLevel && (branchID == 0 || m.BranchID == branchID) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Quantity < out[j].Quantity })
	return out, nil
}

func (s *Store) InventorySummary(_ context.Context, branchID int64) (*domain.InventorySummary, error) {
	s.lock()
	defer s.unlock()
	sum := &domain.InventorySummary{BranchID: branchID}
	cutoff := time.Now().UTC().Add(30 * 24 * time.Hour)
	for _, m := range s.state.medicines {
		if !m.IsActive || (branchID != 0 && m.BranchID != branchID) {
			continue
		}
		sum.TotalItems++
		sum.TotalQuantity += m.Quantity
		if m.Quantity <= m.ReorderLevel {
			sum.LowStockCount++
		}
		if m.ExpiryDate != nil && m.ExpiryDate.Before(cutoff) {
			sum.ExpiringCount++
		}
		if m.IsControlled {
			sum.ControlledCnt++
		}
	}
	return sum, nil
}

func (s *Store) GetBranch(_ context.Context, id int64) (*domain.Branch, error) {
	s.lock()
	defer s.unlock()
	b, ok := s.state.branches[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}
