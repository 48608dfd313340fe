package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"strings"
	"testing"
	"time"

	"github.com/yourorg/dataplane/internal/apperror"
	"github.com/yourorg/dataplane/internal/domain"
	"github.com/yourorg/dataplane/internal/security"
	"github.com/yourorg/dataplane/internal/security/audit"
)

func newIngestService(repo *memSchemaRepo) *IngestService {
	log := slog.Default()
	return NewIngestService(repo, security.NewPolicy(log), audit.NewLogger(log), log)
}

func userPrincipal(tenant string) domain.Principal {
	return domain.Principal{ID: "u-1", Role: domain.RoleUser, TenantID: &tenant, AccessLevel: domain.AccessReadWrite}
}

func rootPrincipal() domain.Principal {
	return domain.Principal{ID: "root-1", Role: domain.RoleRoot, AccessLevel: domain.AccessReadWrite}
}

// buildMultipart assembles a body with fields in the given order. Each field
// is name=value; the field named "file" becomes a file part.
func buildMultipart(t *testing.T, fields [][2]string) *multipart.Reader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range fields {
		if f[0] == "file" {
			part, err := w.CreateFormFile("file", "sales.csv")
			if err != nil {
				t.Fatalf("create file part: %v", err)
			}
			part.Write([]byte(f[1]))
			continue
		}
		w.WriteField(f[0], f[1])
	}
	w.Close()
	return multipart.NewReader(&buf, w.Boundary())
}

const csvBody = "region;amount\nnorth;10\nsouth;20\nwest;30\n"

func TestDrainMultipartFieldOrderIndependent(t *testing.T) {
	target := "7c9e6679-7425-40de-944b-e07fc1f90ae7"

	// Override before file.
	input, err := DrainMultipart(buildMultipart(t, [][2]string{
		{"target_client_id", target},
		{"file", csvBody},
	}), rootPrincipal())
	if err != nil {
		t.Fatalf("drain failed: %v", err)
	}
	if input.TargetTenantID == nil || *input.TargetTenantID != target {
		t.Fatalf("expected target %s, got %v", target, input.TargetTenantID)
	}

	// File before override must behave identically.
	input, err = DrainMultipart(buildMultipart(t, [][2]string{
		{"file", csvBody},
		{"target_client_id", target},
	}), rootPrincipal())
	if err != nil {
		t.Fatalf("drain failed: %v", err)
	}
	if input.TargetTenantID == nil || *input.TargetTenantID != target {
		t.Fatalf("field order changed the outcome: %v", input.TargetTenantID)
	}
	if input.FileName != "sales.csv" {
		t.Fatalf("expected filename from part, got %q", input.FileName)
	}
}

func TestDrainMultipartIgnoresNonRootOverride(t *testing.T) {
	input, err := DrainMultipart(buildMultipart(t, [][2]string{
		{"target_client_id", "7c9e6679-7425-40de-944b-e07fc1f90ae7"},
		{"file", csvBody},
	}), userPrincipal("t-own"))
	if err != nil {
		t.Fatalf("drain failed: %v", err)
	}
	if input.TargetTenantID != nil {
		t.Fatalf("non-root override must be ignored, got %v", *input.TargetTenantID)
	}
}

func TestDrainMultipartRejectsInvalidClientID(t *testing.T) {
	_, err := DrainMultipart(buildMultipart(t, [][2]string{
		{"target_client_id", "not-a-uuid"},
		{"file", csvBody},
	}), rootPrincipal())
	if err == nil {
		t.Fatalf("expected invalid client id error")
	}
}

func TestDrainMultipartMissingFile(t *testing.T) {
	_, err := DrainMultipart(buildMultipart(t, [][2]string{
		{"unrelated", "x"},
	}), userPrincipal("t-1"))
	if err == nil {
		t.Fatalf("expected missing file error")
	}
	var appErr *apperror.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperror.KindBadRequest {
		t.Fatalf("expected BadRequest, got %v", err)
	}
}

func TestIngestCommitsRows(t *testing.T) {
	repo := newMemSchemaRepo()
	s := newIngestService(repo)

	result, err := s.Ingest(context.Background(), userPrincipal("t-1"), &UploadInput{
		FileName: "sales.csv",
		Data:     []byte(csvBody),
	})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if result.RowsProcessed != 3 {
		t.Fatalf("expected 3 rows, got %d", result.RowsProcessed)
	}
	if !strings.HasPrefix(result.SchemaName, "sales_csv_") {
		t.Fatalf("unexpected schema name: %q", result.SchemaName)
	}

	total, _ := repo.TotalRows("t-1")
	if total != 3 {
		t.Fatalf("expected 3 stored rows, got %d", total)
	}
}

func TestIngestReadOnlyDenied(t *testing.T) {
	s := newIngestService(newMemSchemaRepo())
	tenant := "t-1"
	readonly := domain.Principal{ID: "u-1", Role: domain.RoleUser, TenantID: &tenant, AccessLevel: domain.AccessReadOnly}

	_, err := s.Ingest(context.Background(), readonly, &UploadInput{FileName: "sales.csv", Data: []byte(csvBody)})
	if err == nil {
		t.Fatalf("expected denial for read-only account")
	}
	var appErr *apperror.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperror.KindForbidden {
		t.Fatalf("expected Forbidden, got %v", err)
	}
}

func TestIngestRootNeedsDestination(t *testing.T) {
	s := newIngestService(newMemSchemaRepo())

	_, err := s.Ingest(context.Background(), rootPrincipal(), &UploadInput{FileName: "sales.csv", Data: []byte(csvBody)})
	if err == nil {
		t.Fatalf("expected destination selection error for root")
	}

	// With an explicit target the same upload succeeds.
	target := "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	result, err := s.Ingest(context.Background(), rootPrincipal(), &UploadInput{
		FileName:       "sales.csv",
		Data:           []byte(csvBody),
		TargetTenantID: &target,
	})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if result.RowsProcessed != 3 {
		t.Fatalf("expected 3 rows, got %d", result.RowsProcessed)
	}
}

func TestIngestNonRootOverrideIgnored(t *testing.T) {
	repo := newMemSchemaRepo()
	s := newIngestService(repo)
	target := "7c9e6679-7425-40de-944b-e07fc1f90ae7"

	// Even if an override survives draining, a non-root upload lands in the
	// caller's own tenant.
	_, err := s.Ingest(context.Background(), userPrincipal("t-own"), &UploadInput{
		FileName:       "sales.csv",
		Data:           []byte(csvBody),
		TargetTenantID: &target,
	})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	own, _ := repo.TotalRows("t-own")
	foreign, _ := repo.TotalRows(target)
	if own != 3 || foreign != 0 {
		t.Fatalf("rows landed in wrong tenant: own=%d foreign=%d", own, foreign)
	}
}

func TestIngestEmptyFileRejected(t *testing.T) {
	s := newIngestService(newMemSchemaRepo())

	// Headers only: parseable but no data rows.
	_, err := s.Ingest(context.Background(), userPrincipal("t-1"), &UploadInput{
		FileName: "empty.csv",
		Data:     []byte("a,b,c\n"),
	})
	if err == nil {
		t.Fatalf("expected empty file rejection")
	}
	var appErr *apperror.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperror.KindBadRequest {
		t.Fatalf("expected BadRequest, got %v", err)
	}
}

func TestIngestUnsupportedExtension(t *testing.T) {
	s := newIngestService(newMemSchemaRepo())

	_, err := s.Ingest(context.Background(), userPrincipal("t-1"), &UploadInput{
		FileName: "notes.txt",
		Data:     []byte("a,b\n1,2\n"),
	})
	if err == nil {
		t.Fatalf("expected unsupported format error")
	}
}

func TestIngestRowFailureSurfaces(t *testing.T) {
	repo := newMemSchemaRepo()
	repo.failRows = true
	s := newIngestService(repo)

	_, err := s.Ingest(context.Background(), userPrincipal("t-1"), &UploadInput{
		FileName: "sales.csv",
		Data:     []byte(csvBody),
	})
	if err == nil {
		t.Fatalf("expected storage error")
	}
	var appErr *apperror.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperror.KindStorage {
		t.Fatalf("expected Storage, got %v", err)
	}
	// Nothing may survive a failed batch: no rows, and no count increment
	// on the schema either.
	for id, rows := range repo.rows {
		if len(rows) > 0 {
			t.Fatalf("rows leaked into schema %s after failure", id)
		}
	}
	if total, _ := repo.TotalRows("t-1"); total != 0 {
		t.Fatalf("schema row count changed despite failed batch: got %d, want 0", total)
	}
}

func TestDeriveSchemaName(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	got := deriveSchemaName("q1.sales.csv", now)
	want := "q1_sales_csv_20260314_092653"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
