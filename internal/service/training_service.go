package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/dataplane/internal/apperror"
	"github.com/yourorg/dataplane/internal/domain"
	"github.com/yourorg/dataplane/internal/observability/metrics"
	"github.com/yourorg/dataplane/internal/reliability/circuitbreaker"
	"github.com/yourorg/dataplane/internal/security"
)

// TrainingService forwards training requests to the external ML service with
// a fixed JSON contract and relays its responses verbatim.
type TrainingService struct {
	client  *http.Client
	baseURL string
	policy  *security.Policy
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewTrainingService creates a new training service
func NewTrainingService(baseURL string, policy *security.Policy, logger *slog.Logger) *TrainingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TrainingService{
		client:  &http.Client{Timeout: 120 * time.Second},
		baseURL: baseURL,
		policy:  policy,
		breaker: circuitbreaker.New(5, 30*time.Second),
		logger:  logger,
	}
}

// TrainParams are the client-supplied training inputs.
type TrainParams struct {
	SchemaID     string
	TargetColumn *string
	Epochs       *int
	LearningRate *float64
	BatchSize    *int
}

// Train gates on access level alone (role is not consulted), builds the
// fixed request body and proxies it. A non-success remote response surfaces
// as a BadRequest carrying the remote error text; nothing is retried.
func (s *TrainingService) Train(ctx context.Context, principal domain.Principal, params TrainParams) (json.RawMessage, error) {
	if err := s.policy.GateTraining(principal); err != nil {
		return nil, err
	}

	hyperparameters := map[string]interface{}{}
	if params.TargetColumn != nil {
		hyperparameters["target_column"] = *params.TargetColumn
	}
	if params.Epochs != nil {
		hyperparameters["epochs"] = *params.Epochs
	}
	if params.LearningRate != nil {
		hyperparameters["learning_rate"] = *params.LearningRate
	}
	if params.BatchSize != nil {
		hyperparameters["batch_size"] = *params.BatchSize
	}

	payload, err := json.Marshal(map[string]interface{}{
		"schema_id":       params.SchemaID,
		"model_type":      "regression",
		"hyperparameters": hyperparameters,
	})
	if err != nil {
		return nil, apperror.Internal(err)
	}

	if !s.breaker.AllowRequest() {
		s.logger.Warn("training service circuit open")
		metrics.ObserveTraining("circuit_open", 0)
		return nil, apperror.Internal(errors.New("training service unavailable"))
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/train", bytes.NewReader(payload))
	if err != nil {
		return nil, apperror.Internal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.breaker.RecordFailure()
		metrics.ObserveTraining("unreachable", time.Since(start))
		return nil, apperror.Internal(fmt.Errorf("training service request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.breaker.RecordFailure()
		return nil, apperror.Internal(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.breaker.RecordFailure()
		metrics.ObserveTraining("remote_error", time.Since(start))
		return nil, apperror.BadRequest("training service error: " + string(body))
	}

	s.breaker.RecordSuccess()
	metrics.ObserveTraining("success", time.Since(start))
	return json.RawMessage(body), nil
}
