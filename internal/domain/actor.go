package domain

// Actor identifies the authenticated caller of a workflow. It is always
// passed explicitly into service calls, never read from ambient state.
type Actor struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	BranchID int64  `json:"branch_id"`
}

// Roles understood by the core workflows. Authentication itself lives
// outside this module; the role string arrives with the verified identity.
const (
	RoleAdmin      = "admin"
	RolePharmacist = "pharmacist"
	RoleCashier    = "cashier"
	RoleDevice     = "device"
)

// CanVerifyRegister reports whether the actor may counter-sign a
// controlled substance register entry.
func (a Actor) CanVerifyRegister() bool {
	return a.Role == RolePharmacist || a.Role == RoleAdmin
}
