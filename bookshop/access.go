package bookshop

// Operation names a command an identity may invoke.
type Operation string

const (
	OpLogin       Operation = "log in"
	OpViewCompany Operation = "view company info"
	OpExit        Operation = "exit"
	OpLogout      Operation = "log out"
	OpViewBooks   Operation = "view books"
	OpViewSales   Operation = "view sales"
	OpExport      Operation = "export sales"
	OpAddBook     Operation = "add book"
	OpUpdateBook  Operation = "update book"
	OpDeleteBook  Operation = "delete book"
	OpMakeSale    Operation = "make sale"
)

// anyone permits an operation to every identity, authenticated or not.
const anyone Role = "*"

// Policy maps each operation to the roles allowed to invoke it.
type Policy map[Operation][]Role

// DefaultPolicy is the shop's authorization table.
func DefaultPolicy() Policy {
	all := []Role{RoleAdmin, RoleManager, RoleStaff}
	return Policy{
		OpLogin:       {anyone},
		OpViewCompany: {anyone},
		OpExit:        {anyone},
		OpLogout:      all,
		OpViewBooks:   all,
		OpViewSales:   all,
		OpExport:      all,
		OpAddBook:     {RoleAdmin, RoleManager},
		OpUpdateBook:  {RoleAdmin, RoleManager},
		OpDeleteBook:  {RoleAdmin},
		OpMakeSale:    all,
	}
}

// AccessController answers whether a role may invoke an operation. Unknown
// operations and unknown roles are denied.
type AccessController struct {
	permits map[Operation]map[Role]bool
}

func NewAccessController(p Policy) *AccessController {
	permits := make(map[Operation]map[Role]bool, len(p))
	for op, roles := range p {
		set := make(map[Role]bool, len(roles))
		for _, r := range roles {
			set[r] = true
		}
		permits[op] = set
	}
	return &AccessController{permits: permits}
}

// Allowed reports whether role may invoke op.
func (a *AccessController) Allowed(role Role, op Operation) bool {
	set := a.permits[op]
	return set[anyone] || (role != RoleNone && set[role])
}

// Authorize returns a *DeniedError when role may not invoke op.
func (a *AccessController) Authorize(role Role, op Operation) error {
	if a.Allowed(role, op) {
		return nil
	}
	return &DeniedError{Role: role, Operation: op}
}
