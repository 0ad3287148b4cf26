package domain

// Role is a staff role in the school.
type Role string

const (
	RoleAdmin       Role = "admin"
	RolePrincipal   Role = "principal"
	RoleBursar      Role = "bursar"
	RoleExamOfficer Role = "exam_officer"
	RoleTeacher     Role = "teacher"
)

// Roles lists every known role.
var Roles = []Role{RoleAdmin, RolePrincipal, RoleBursar, RoleExamOfficer, RoleTeacher}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Principal is the authenticated actor behind a request. It is supplied by the
// token issuer and trusted as-is.
type Principal struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// HasAnyRole reports whether the principal holds one of the given roles.
func (p Principal) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// RoleAddress is the recipient id used for notifications addressed to everyone holding a role.
func RoleAddress(r Role) string {
	return "role:" + string(r)
}
