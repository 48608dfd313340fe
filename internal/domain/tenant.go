package domain

import "time"

// TenantType distinguishes company accounts from natural persons.
type TenantType string

const (
	TenantCompany       TenantType = "company"
	TenantNaturalPerson TenantType = "natural_person"
)

// Valid reports whether t is one of the known tenant types.
func (t TenantType) Valid() bool {
	return t == TenantCompany || t == TenantNaturalPerson
}

// Tenant represents an isolated customer account (client) owning its own
// users, schemas and rows.
type Tenant struct {
	ID                string // UUID
	Name              string
	Type              TenantType
	ContractExpiresAt *time.Time // set only for natural persons
	CreatedAt         time.Time
}

// TenantOption is the reduced id+name projection used by search endpoints.
type TenantOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TenantRepository defines data access for tenants
type TenantRepository interface {
	Create(tenant *Tenant) error
	GetByID(id string) (*Tenant, error)
	Search(query string, limit int) ([]TenantOption, error)
	Count() (int64, error)
	CountExpired(now time.Time) (int64, error)
}
