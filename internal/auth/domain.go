package auth

import (
	"fmt"
	"time"
)

// Role is a coarse privilege tier. RoleSuperAdmin implicitly holds every
// permission; all other roles only get what is explicitly granted.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleStaff      Role = "staff"
)

// ParseRole validates a role name. Empty input defaults to the
// lowest-privilege role; anything outside the closed set is rejected.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSuperAdmin, RoleAdmin, RoleManager, RoleStaff:
		return Role(s), nil
	case "":
		return RoleStaff, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Known permission names.
const (
	PermUserManagement       = "user_management"
	PermViewReports          = "view_reports"
	PermApproveClients       = "approve_clients"
	PermManageCommunications = "manage_communications"
)

// Admin is a persisted identity with credentials, role and permissions.
type Admin struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
	Permissions  []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPermission reports whether the admin holds the named permission.
func (a *Admin) HasPermission(name string) bool {
	if a.Role == RoleSuperAdmin {
		return true
	}
	for _, p := range a.Permissions {
		if p == name {
			return true
		}
	}
	return false
}

// Profile is the public-safe projection returned by the API. It never
// carries the password hash.
type Profile struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// Public returns the public-safe projection of the admin.
func (a *Admin) Public() Profile {
	return Profile{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Role:      string(a.Role),
	}
}
