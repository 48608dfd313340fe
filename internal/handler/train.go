package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/dataplane/internal/apperror"
	"github.com/yourorg/dataplane/internal/security/middleware"
	"github.com/yourorg/dataplane/internal/service"
)

// TrainHandler proxies model-training requests to the ML service
type TrainHandler struct {
	trainingService *service.TrainingService
	logger          *slog.Logger
}

// NewTrainHandler creates a new training handler
func NewTrainHandler(trainingService *service.TrainingService, logger *slog.Logger) *TrainHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TrainHandler{trainingService: trainingService, logger: logger}
}

// TrainRequest carries the schema to train on plus optional hyperparameters.
type TrainRequest struct {
	SchemaID     string   `json:"schema_id"`
	TargetColumn *string  `json:"target_column"`
	Epochs       *int     `json:"epochs"`
	LearningRate *float64 `json:"learning_rate"`
	BatchSize    *int     `json:"batch_size"`
}

// ServeHTTP handles POST /api/ml/train. The remote response body is relayed
// verbatim on success.
func (h *TrainHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		apperror.Write(w, h.logger, apperror.Unauthorized("missing token"))
		return
	}

	var req TrainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperror.Write(w, h.logger, apperror.BadRequest("invalid request"))
		return
	}
	if req.SchemaID == "" {
		apperror.Write(w, h.logger, apperror.BadRequest("schema_id is required"))
		return
	}

	result, err := h.trainingService.Train(r.Context(), *principal, service.TrainParams{
		SchemaID:     req.SchemaID,
		TargetColumn: req.TargetColumn,
		Epochs:       req.Epochs,
		LearningRate: req.LearningRate,
		BatchSize:    req.BatchSize,
	})
	if err != nil {
		apperror.Write(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
