package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/yourorg/dataplane/internal/domain"
)

// PostgresSchemaRepository implements domain.SchemaRepository using PostgreSQL
type PostgresSchemaRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresSchemaRepository creates a new schema repository
func NewPostgresSchemaRepository(db *sql.DB, logger *slog.Logger) *PostgresSchemaRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSchemaRepository{db: db, logger: logger}
}

// IngestBatch registers the schema and commits its rows inside a single
// transaction. The schema entry is inserted fresh, or merged into an
// existing one when the derived name collides: the stored row count grows
// by len(rows) and the update timestamp is refreshed (the existing column
// list is not reconciled against the new batch). If any row insert fails
// the whole transaction rolls back, count increment included: all-or-nothing,
// no partial ingestion.
func (r *PostgresSchemaRepository) IngestBatch(tenantID, name string, columns []string, rows []map[string]string) (string, error) {
	columnsJSON, err := json.Marshal(columns)
	if err != nil {
		return "", fmt.Errorf("failed to encode columns: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var schemaID string
	query := `
		INSERT INTO schemas (tenant_id, name, columns, row_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE
		SET row_count = schemas.row_count + $4, updated_at = NOW()
		RETURNING id
	`
	if err := tx.QueryRow(query, tenantID, name, columnsJSON, len(rows)).Scan(&schemaID); err != nil {
		return "", fmt.Errorf("failed to upsert schema: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO rows (schema_id, tenant_id, data) VALUES ($1, $2, $3)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare row insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		payload, err := json.Marshal(row)
		if err != nil {
			return "", fmt.Errorf("failed to encode row: %w", err)
		}
		if _, err := stmt.Exec(schemaID, tenantID, payload); err != nil {
			return "", fmt.Errorf("failed to insert row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit batch: %w", err)
	}
	return schemaID, nil
}

func (r *PostgresSchemaRepository) querySummaries(query string, args ...interface{}) ([]domain.SchemaSummary, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	defer rows.Close()

	out := []domain.SchemaSummary{}
	for rows.Next() {
		var s domain.SchemaSummary
		if err := rows.Scan(&s.SchemaID, &s.SchemaName, &s.RowCount, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan schema: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListRecent returns the most recent schemas for one tenant
func (r *PostgresSchemaRepository) ListRecent(tenantID string, limit int) ([]domain.SchemaSummary, error) {
	return r.querySummaries(`
		SELECT id, name, row_count, created_at FROM schemas
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, tenantID, limit)
}

// ListRecentAll returns the most recent schemas across all tenants
func (r *PostgresSchemaRepository) ListRecentAll(limit int) ([]domain.SchemaSummary, error) {
	return r.querySummaries(`
		SELECT id, name, row_count, created_at FROM schemas
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
}

func (r *PostgresSchemaRepository) scalar(query string, args ...interface{}) (int64, error) {
	var n int64
	if err := r.db.QueryRow(query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to aggregate schemas: %w", err)
	}
	return n, nil
}

// TotalRows sums the row counts of one tenant's schemas
func (r *PostgresSchemaRepository) TotalRows(tenantID string) (int64, error) {
	return r.scalar(`SELECT COALESCE(SUM(row_count), 0) FROM schemas WHERE tenant_id = $1`, tenantID)
}

// TotalRowsAll sums the row counts of all schemas
func (r *PostgresSchemaRepository) TotalRowsAll() (int64, error) {
	return r.scalar(`SELECT COALESCE(SUM(row_count), 0) FROM schemas`)
}

// CountDatasets returns the number of distinct dataset names for one tenant
func (r *PostgresSchemaRepository) CountDatasets(tenantID string) (int64, error) {
	return r.scalar(`SELECT COUNT(DISTINCT name) FROM schemas WHERE tenant_id = $1`, tenantID)
}

// CountDatasetsAll returns the number of distinct dataset names platform-wide
func (r *PostgresSchemaRepository) CountDatasetsAll() (int64, error) {
	return r.scalar(`SELECT COUNT(DISTINCT name) FROM schemas`)
}
