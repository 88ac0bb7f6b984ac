package shared

// Role is a coarse-grained permission tag attached to an authenticated principal
type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RolePractitioner Role = "PRACTITIONER"
	RoleReception    Role = "RECEPTION"
	RoleClinicalOps  Role = "CLINICAL_OPS"
	RoleAccounting   Role = "ACCOUNTING"
	RoleMarketing    Role = "MARKETING"
)

// IsValid reports whether the role is one of the known role tags
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RolePractitioner, RoleReception, RoleClinicalOps, RoleAccounting, RoleMarketing:
		return true
	}
	return false
}

// Actor is the authenticated principal attached to every core operation.
// It carries the subject identifier used for audit fields and ownership
// checks, plus the set of roles used by the permission guard.
type Actor struct {
	SubjectID string
	Roles     []Role
}

// NewActor creates an actor with the given subject and roles
func NewActor(subjectID string, roles ...Role) Actor {
	return Actor{SubjectID: subjectID, Roles: roles}
}

// HasRole reports whether the actor carries the given role
func (a Actor) HasRole(role Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the actor carries the admin role
func (a Actor) IsAdmin() bool {
	return a.HasRole(RoleAdmin)
}
