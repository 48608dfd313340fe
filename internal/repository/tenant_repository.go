package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/dataplane/internal/domain"
)

// PostgresTenantRepository implements domain.TenantRepository using PostgreSQL
type PostgresTenantRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresTenantRepository creates a new tenant repository
func NewPostgresTenantRepository(db *sql.DB, logger *slog.Logger) *PostgresTenantRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTenantRepository{db: db, logger: logger}
}

// Create creates a new tenant
func (r *PostgresTenantRepository) Create(tenant *domain.Tenant) error {
	query := `
		INSERT INTO tenants (name, type, contract_expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(query, tenant.Name, string(tenant.Type), tenant.ContractExpiresAt).Scan(
		&tenant.ID,
		&tenant.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

// GetByID retrieves a tenant by ID
func (r *PostgresTenantRepository) GetByID(id string) (*domain.Tenant, error) {
	t := &domain.Tenant{}
	var tenantType string
	query := `
		SELECT id, name, type, contract_expires_at, created_at
		FROM tenants
		WHERE id = $1
	`
	err := r.db.QueryRow(query, id).Scan(
		&t.ID, &t.Name, &tenantType, &t.ContractExpiresAt, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tenant not found")
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	t.Type = domain.TenantType(tenantType)
	return t, nil
}

// Search returns id+name pairs for tenants whose name matches the query,
// newest first, capped at limit.
func (r *PostgresTenantRepository) Search(query string, limit int) ([]domain.TenantOption, error) {
	pattern := "%" + query + "%"
	rows, err := r.db.Query(`
		SELECT id, name FROM tenants
		WHERE name ILIKE $1
		ORDER BY created_at DESC
		LIMIT $2
	`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search tenants: %w", err)
	}
	defer rows.Close()

	out := []domain.TenantOption{}
	for rows.Next() {
		var opt domain.TenantOption
		if err := rows.Scan(&opt.ID, &opt.Name); err != nil {
			return nil, fmt.Errorf("failed to scan tenant option: %w", err)
		}
		out = append(out, opt)
	}
	return out, rows.Err()
}

// Count returns the total number of tenants
func (r *PostgresTenantRepository) Count() (int64, error) {
	var count int64
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM tenants`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tenants: %w", err)
	}
	return count, nil
}

// CountExpired returns how many natural-person tenants are past their
// contract expiry.
func (r *PostgresTenantRepository) CountExpired(now time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM tenants
		WHERE type = 'natural_person' AND contract_expires_at IS NOT NULL AND contract_expires_at < $1
	`, now).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count expired tenants: %w", err)
	}
	return count, nil
}
