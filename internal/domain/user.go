package domain

import "time"

// Role is the closed set of principal roles.
type Role string

const (
	RoleRoot         Role = "root"
	RoleCompanyAdmin Role = "company_admin"
	RoleUser         Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleRoot, RoleCompanyAdmin, RoleUser:
		return true
	}
	return false
}

// Access levels gate write-capable actions, orthogonal to role.
const (
	AccessReadOnly  = "read_only"
	AccessReadWrite = "read_write"
)

// Account statuses.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// User represents a user account
type User struct {
	ID           string  // UUID
	TenantID     *string // nil only for root
	Email        string  // Globally unique
	PasswordHash string  // Bcrypt hash (never returned in API)
	Role         Role
	Status       string
	AccessLevel  string
	CreatedAt    time.Time
}

// UserRepository defines data access for users
type UserRepository interface {
	Create(user *User) error
	GetByID(id string) (*User, error)
	GetByEmail(email string) (*User, error)
	ListByTenant(tenantID string) ([]*User, error)
	ListRecent(limit int) ([]*User, error)
	Count() (int64, error)
	CountByTenant(tenantID string) (int64, error)
	CountActive() (int64, error)
	CountActiveByTenant(tenantID string) (int64, error)
}

// Principal is the authenticated identity resolved from a session token.
type Principal struct {
	ID          string  `json:"id"`
	Role        Role    `json:"role"`
	TenantID    *string `json:"client_id"`
	AccessLevel string  `json:"access_level"`
}
