package service_test

import (
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/cache"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/repository/memory"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/service"
)

// testEnv wires the full service stack over the in-memory store with two
// branches and the usual cast of actors.
type testEnv struct {
	store      *memory.Store
	register   *service.Register
	receiving  *service.Receiving
	transfer   *service.Transfer
	dispensing *service.Dispensing
	sync       *service.Sync
	inventory  *service.Inventory

	branchA  domain.Branch
	branchB  domain.Branch
	supplier domain.Supplier

	pharmacist  domain.Actor
	pharmacist2 domain.Actor
	cashier     domain.Actor
}

func newTestEnv() *testEnv {
	store := memory.NewStore()

	env := &testEnv{store: store}
	env.branchA = store.SeedBranch(domain.Branch{Name: "Nairobi CBD", Code: "NBI"})
	env.branchB = store.SeedBranch(domain.Branch{Name: "Mombasa Road", Code: "MSA"})
	env.supplier = store.SeedSupplier(domain.Supplier{Name: "PharmaPlus Distributors"})

	u1 := store.SeedUser(domain.User{Name: "Grace Wanjiru", Email: "grace@dawacare.test", Role: domain.RolePharmacist, BranchID: env.branchA.ID})
	u2 := store.SeedUser(domain.User{Name: "Peter Otieno", Email: "peter@dawacare.test", Role: domain.RolePharmacist, BranchID: env.branchA.ID})
	u3 := store.SeedUser(domain.User{Name: "Mary Akinyi", Email: "mary@dawacare.test", Role: domain.RoleCashier, BranchID: env.branchA.ID})

	env.pharmacist = domain.Actor{ID: u1.ID, Name: u1.Name, Role: u1.Role, BranchID: u1.BranchID}
	env.pharmacist2 = domain.Actor{ID: u2.ID, Name: u2.Name, Role: u2.Role, BranchID: u2.BranchID}
	env.cashier = domain.Actor{ID: u3.ID, Name: u3.Name, Role: u3.Role, BranchID: u3.BranchID}

	env.register = service.NewRegister(store)
	env.receiving = service.NewReceiving(store)
	env.transfer = service.NewTransfer(store)
	env.dispensing = service.NewDispensing(store, env.register)
	env.sync = service.NewSync(store, env.dispensing)
	env.inventory = service.NewInventory(store, cache.NewNoopInventorySummaryCache())
	return env
}

func (e *testEnv) seedMedicine(m domain.Medicine) domain.Medicine {
	if m.BranchID == 0 {
		m.BranchID = e.branchA.ID
	}
	return e.store.SeedMedicine(m)
}
