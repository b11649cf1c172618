package domain

// Role distinguishes the two sides of a timeline conversation.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// IsValid reports whether the role is known.
func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// Viewer identifies the actor reading or mutating entries.
type Viewer struct {
	ID          string
	DisplayName string
	Role        Role
}

// IsAdmin reports whether the viewer works entries on the operator side.
func (v Viewer) IsAdmin() bool {
	return v.Role == RoleAdmin
}
