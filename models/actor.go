package models

// Role is the coarse access level of an authenticated actor. Role policy
// itself lives in the identity provider; the core only distinguishes
// travelers from admin roles.
type Role string

const (
	RoleTraveler Role = "traveler"
	RolePartner  Role = "partner"
	RoleEmployee Role = "employee"
	RoleMaster   Role = "master"
)

// Actor is the resolved identity attached to every request.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// IsAdmin returns true for the roles allowed to approve, reject and price
// reservations.
func (a Actor) IsAdmin() bool {
	return a.Role == RolePartner || a.Role == RoleEmployee || a.Role == RoleMaster
}

// CanManage returns true if the actor owns the reservation or holds an admin role.
func (a Actor) CanManage(r *Reservation) bool {
	return a.IsAdmin() || a.ID == r.CustomerID
}
