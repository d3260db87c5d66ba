package user

import (
	"strings"
	"time"
)

type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleOrgAdmin   Role = "ORG_ADMIN"
	RoleStaff      Role = "STAFF"
	RoleCustomer   Role = "CUSTOMER"
)

// Role strings as the backend speaks them.
const (
	BackendSuperAdmin   = "SUPER_ADMIN"
	BackendOrganization = "ORGANIZATION"
	BackendStaff        = "STAFF"
	BackendCustomer     = "CUSTOMER"
)

var AllRoles = []Role{RoleSuperAdmin, RoleOrgAdmin, RoleStaff, RoleCustomer}

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleOrgAdmin, RoleStaff, RoleCustomer:
		return true
	}
	return false
}

// RoleFromBackend maps a backend role string to an internal role.
// Unrecognised strings resolve to CUSTOMER.
func RoleFromBackend(s string) Role {
	switch s {
	case BackendSuperAdmin:
		return RoleSuperAdmin
	case BackendOrganization:
		return RoleOrgAdmin
	case BackendStaff:
		return RoleStaff
	default:
		return RoleCustomer
	}
}

// BackendRole normalizes user input (either an internal role or a backend
// string, any case) to the string the backend expects.
func BackendRole(input string) string {
	switch strings.ToUpper(strings.TrimSpace(input)) {
	case "SUPER_ADMIN":
		return BackendSuperAdmin
	case "ORG_ADMIN", "ORGANIZATION":
		return BackendOrganization
	case "STAFF":
		return BackendStaff
	default:
		return BackendCustomer
	}
}

type User struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Roles     []Role    `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
}

// PrimaryRole is the single effective role of a session.
func (u User) PrimaryRole() (Role, bool) {
	if len(u.Roles) == 0 {
		return "", false
	}
	return u.Roles[0], true
}

func (u User) HasRole(r Role) bool {
	for _, have := range u.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// Profile is the user shape the backend returns next to a token; it carries
// no role, the role travels separately.
type Profile struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	CreatedAt string `json:"createdAt"`
}

// ToUser fills the gaps a partial backend profile may leave.
func (p Profile) ToUser(role Role, typedEmail string, now time.Time) User {
	u := User{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Phone:     p.Phone,
		Roles:     []Role{role},
		CreatedAt: now.UTC(),
	}
	if u.ID == "" {
		u.ID = "temp-id"
	}
	if u.FirstName == "" {
		u.FirstName = "Unknown"
	}
	if u.LastName == "" {
		u.LastName = "User"
	}
	if u.Email == "" {
		u.Email = typedEmail
	}
	if p.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, p.CreatedAt); err == nil {
			u.CreatedAt = t
		}
	}
	return u
}

type RegisterRequest struct {
	FirstName string `json:"firstName" binding:"required,max=80"`
	LastName  string `json:"lastName" binding:"required,max=80"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"omitempty,max=32"`
	Password  string `json:"password" binding:"required,min=6"`
	Role      string `json:"role" binding:"omitempty"`
}

// Normalize lowercases the email and maps the role to its backend string.
func (r RegisterRequest) Normalize() RegisterRequest {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Role = BackendRole(r.Role)
	return r
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateRequest is a partial profile update; empty fields are left as is.
type UpdateRequest struct {
	FirstName string `json:"firstName,omitempty" binding:"omitempty,max=80"`
	LastName  string `json:"lastName,omitempty" binding:"omitempty,max=80"`
	Phone     string `json:"phone,omitempty" binding:"omitempty,max=32"`
}
