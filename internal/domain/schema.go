package domain

import "time"

// Schema is the registered shape of one ingested dataset: its column list
// plus a running row count.
type Schema struct {
	ID        string // UUID
	TenantID  string
	Name      string // derived from filename + ingestion timestamp, unique
	Columns   []string
	RowCount  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SchemaSummary is the projection returned by analytics listings.
type SchemaSummary struct {
	SchemaID   string    `json:"schema_id"`
	SchemaName string    `json:"schema_name"`
	RowCount   int       `json:"row_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// SchemaRepository maintains the per-tenant catalog of ingested schemas.
//
// IngestBatch registers the schema and stores its rows atomically: either
// the schema entry (new, or merged into an existing name with the row count
// grown by len(rows)) and every row commit together, or nothing does. The
// column list of an existing schema is intentionally left untouched on a
// name collision: colliding uploads with different columns accumulate a
// count under the original header list.
type SchemaRepository interface {
	IngestBatch(tenantID, name string, columns []string, rows []map[string]string) (schemaID string, err error)
	ListRecent(tenantID string, limit int) ([]SchemaSummary, error)
	ListRecentAll(limit int) ([]SchemaSummary, error)
	TotalRows(tenantID string) (int64, error)
	TotalRowsAll() (int64, error)
	CountDatasets(tenantID string) (int64, error)
	CountDatasetsAll() (int64, error)
}
