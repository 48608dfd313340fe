package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/dataplane/internal/apperror"
	"github.com/yourorg/dataplane/internal/security/middleware"
	"github.com/yourorg/dataplane/internal/service"
)

// UploadHandler handles dataset ingestion requests
type UploadHandler struct {
	ingestService *service.IngestService
	logger        *slog.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(ingestService *service.IngestService, logger *slog.Logger) *UploadHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadHandler{ingestService: ingestService, logger: logger}
}

// ServeHTTP handles POST /api/upload: a multipart body with a required file
// field and an optional target_client_id override.
func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		apperror.Write(w, h.logger, apperror.Unauthorized("missing token"))
		return
	}

	reader, err := r.MultipartReader()
	if err != nil {
		apperror.Write(w, h.logger, apperror.BadRequest("expected multipart form data"))
		return
	}

	input, err := service.DrainMultipart(reader, *principal)
	if err != nil {
		apperror.Write(w, h.logger, err)
		return
	}

	result, err := h.ingestService.Ingest(r.Context(), *principal, input)
	if err != nil {
		apperror.Write(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
