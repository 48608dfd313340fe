package service

import (
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/dataplane/internal/apperror"
	"github.com/yourorg/dataplane/internal/domain"
	"github.com/yourorg/dataplane/internal/observability/metrics"
	"github.com/yourorg/dataplane/internal/parser"
	"github.com/yourorg/dataplane/internal/security"
	"github.com/yourorg/dataplane/internal/security/audit"
)

// IngestService runs the upload pipeline: authorize, resolve the destination
// tenant, parse the file, then register-or-merge the schema and commit every
// row in one transaction. Each step is terminal on first failure.
type IngestService struct {
	schemaRepo domain.SchemaRepository
	policy     *security.Policy
	audit      *audit.Logger
	logger     *slog.Logger
}

// NewIngestService creates a new ingestion service
func NewIngestService(
	schemaRepo domain.SchemaRepository,
	policy *security.Policy,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *IngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestService{
		schemaRepo: schemaRepo,
		policy:     policy,
		audit:      auditLog,
		logger:     logger,
	}
}

// UploadInput is the accumulated multipart content of one upload request.
type UploadInput struct {
	FileName       string
	Data           []byte
	TargetTenantID *string
}

// UploadResult reports a committed ingestion.
type UploadResult struct {
	Message       string `json:"message"`
	RowsProcessed int    `json:"rows_processed"`
	SchemaName    string `json:"schema_name"`
}

// DrainMultipart collects the upload fields regardless of their order on the
// wire: the optional target_client_id override (honored only for root) and
// the required file field. Unknown field names are ignored.
func DrainMultipart(reader *multipart.Reader, principal domain.Principal) (*UploadInput, error) {
	input := &UploadInput{FileName: "dataset"}
	haveFile := false

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperror.BadRequest("malformed multipart body")
		}

		switch part.FormName() {
		case "target_client_id":
			value, err := io.ReadAll(part)
			if err != nil {
				return nil, apperror.BadRequest("failed to read target client id")
			}
			if principal.Role != domain.RoleRoot {
				continue // non-root overrides are ignored, never honored
			}
			id := strings.TrimSpace(string(value))
			if id == "" {
				continue
			}
			if _, err := uuid.Parse(id); err != nil {
				return nil, apperror.BadRequest("invalid client id")
			}
			input.TargetTenantID = &id
		case "file":
			if name := part.FileName(); name != "" {
				input.FileName = name
			}
			data, err := io.ReadAll(part)
			if err != nil {
				return nil, apperror.BadRequest("failed to read uploaded file")
			}
			input.Data = data
			haveFile = true
		}
	}

	if !haveFile {
		return nil, apperror.BadRequest("missing file field")
	}
	return input, nil
}

// Ingest executes the pipeline for one accumulated upload.
func (s *IngestService) Ingest(ctx context.Context, principal domain.Principal, input *UploadInput) (*UploadResult, error) {
	start := time.Now()

	if err := s.policy.GateUploadAccess(principal); err != nil {
		s.audit.LogDenied(ctx, tenantOrEmpty(principal.TenantID), principal.ID, "upload_dataset")
		metrics.ObserveUpload("denied", time.Since(start))
		return nil, err
	}

	tenantID, err := s.policy.ResolveUploadDestination(principal, input.TargetTenantID)
	if err != nil {
		metrics.ObserveUpload("rejected", time.Since(start))
		return nil, err
	}

	extension := strings.TrimPrefix(filepath.Ext(input.FileName), ".")
	headers, rows, err := parser.Parse(input.Data, extension)
	if err != nil {
		metrics.ObserveUpload("parse_error", time.Since(start))
		return nil, err
	}
	if len(rows) == 0 {
		metrics.ObserveUpload("rejected", time.Since(start))
		return nil, apperror.BadRequest("file contains no data rows")
	}

	schemaName := deriveSchemaName(input.FileName, time.Now())

	if _, err := s.schemaRepo.IngestBatch(tenantID, schemaName, headers, rows); err != nil {
		metrics.ObserveUpload("storage_error", time.Since(start))
		return nil, apperror.Storage(err)
	}

	s.logger.Info("dataset ingested",
		slog.String("tenant_id", tenantID),
		slog.String("schema_name", schemaName),
		slog.Int("rows", len(rows)),
	)
	s.audit.LogUpload(ctx, tenantID, principal.ID, schemaName, len(rows))
	metrics.ObserveUpload("success", time.Since(start))
	metrics.AddRowsIngested(len(rows))

	return &UploadResult{
		Message:       "file processed successfully",
		RowsProcessed: len(rows),
		SchemaName:    schemaName,
	}, nil
}

// deriveSchemaName builds the registered name from the sanitized filename
// plus the ingestion timestamp. Collisions are rare but possible; the
// registry merges on conflict.
func deriveSchemaName(fileName string, now time.Time) string {
	return strings.ReplaceAll(fileName, ".", "_") + "_" + now.UTC().Format("20060102_150405")
}
