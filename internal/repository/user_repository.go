package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/dataplane/internal/domain"
)

// PostgresUserRepository implements domain.UserRepository using PostgreSQL
type PostgresUserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresUserRepository creates a new user repository
func NewPostgresUserRepository(db *sql.DB, logger *slog.Logger) *PostgresUserRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresUserRepository{db: db, logger: logger}
}

const userColumns = `id, tenant_id, email, credential_hash, role, status, access_level, created_at`

// Create creates a new user
func (r *PostgresUserRepository) Create(user *domain.User) error {
	query := `
		INSERT INTO users (tenant_id, email, credential_hash, role, status, access_level)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(
		query,
		user.TenantID,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.Status,
		user.AccessLevel,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		r.logger.Error("failed to create user",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) scanUser(row *sql.Row) (*domain.User, error) {
	user := &domain.User{}
	var role string
	err := row.Scan(
		&user.ID, &user.TenantID, &user.Email, &user.PasswordHash,
		&role, &user.Status, &user.AccessLevel, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Role = domain.Role(role)
	return user, nil
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(id string) (*domain.User, error) {
	user, err := r.scanUser(r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email
func (r *PostgresUserRepository) GetByEmail(email string) (*domain.User, error) {
	user, err := r.scanUser(r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepository) queryUsers(query string, args ...interface{}) ([]*domain.User, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var out []*domain.User
	for rows.Next() {
		user := &domain.User{}
		var role string
		if err := rows.Scan(
			&user.ID, &user.TenantID, &user.Email, &user.PasswordHash,
			&role, &user.Status, &user.AccessLevel, &user.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.Role = domain.Role(role)
		out = append(out, user)
	}
	return out, rows.Err()
}

// ListByTenant returns all users belonging to one tenant, newest first
func (r *PostgresUserRepository) ListByTenant(tenantID string) ([]*domain.User, error) {
	return r.queryUsers(`SELECT `+userColumns+` FROM users WHERE tenant_id = $1 ORDER BY created_at DESC`, tenantID)
}

// ListRecent returns the most recently created users across all tenants
func (r *PostgresUserRepository) ListRecent(limit int) ([]*domain.User, error) {
	return r.queryUsers(`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1`, limit)
}

func (r *PostgresUserRepository) countWhere(query string, args ...interface{}) (int64, error) {
	var count int64
	if err := r.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// Count returns the total number of users
func (r *PostgresUserRepository) Count() (int64, error) {
	return r.countWhere(`SELECT COUNT(*) FROM users`)
}

// CountByTenant returns the number of users in one tenant
func (r *PostgresUserRepository) CountByTenant(tenantID string) (int64, error) {
	return r.countWhere(`SELECT COUNT(*) FROM users WHERE tenant_id = $1`, tenantID)
}

// CountActive returns the number of active users
func (r *PostgresUserRepository) CountActive() (int64, error) {
	return r.countWhere(`SELECT COUNT(*) FROM users WHERE status = 'active'`)
}

// CountActiveByTenant returns the number of active users in one tenant
func (r *PostgresUserRepository) CountActiveByTenant(tenantID string) (int64, error) {
	return r.countWhere(`SELECT COUNT(*) FROM users WHERE tenant_id = $1 AND status = 'active'`, tenantID)
}
