package models

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStaff    Role = "staff"
	RoleCustomer Role = "customer"
)

// Capability is what a route group asks of the current user.
type Capability string

const (
	CapAuthenticated Capability = "authenticated"
	CapAdmin         Capability = "admin"
)

var roleCapabilities = map[Role][]Capability{
	RoleAdmin:    {CapAuthenticated, CapAdmin},
	RoleStaff:    {CapAuthenticated},
	RoleCustomer: {CapAuthenticated},
}

func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Can reports whether the role grants the capability. Unknown roles grant nothing.
func (r Role) Can(c Capability) bool {
	for _, granted := range roleCapabilities[r] {
		if granted == c {
			return true
		}
	}
	return false
}
