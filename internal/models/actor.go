package models

// Actor is the signed-in user a request acts as. It is passed explicitly to
// every service call that depends on who is asking.
type Actor struct {
	ID    int
	Email string
	Name  string
	Role  string
	IP    string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// IsStaff reports whether the actor works for the association (admin or staff).
func (a Actor) IsStaff() bool {
	return a.Role == RoleAdmin || a.Role == RoleStaff
}
