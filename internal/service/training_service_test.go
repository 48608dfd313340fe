package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yourorg/dataplane/internal/domain"
	"github.com/yourorg/dataplane/internal/security"
)

func TestTrainProxiesFixedContract(t *testing.T) {
	var received map[string]interface{}
	ml := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/train" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)
		w.Write([]byte(`{"job_id":"job-42","status":"queued"}`))
	}))
	defer ml.Close()

	s := NewTrainingService(ml.URL, security.NewPolicy(nil), nil)
	target := "revenue"
	epochs := 100

	resp, err := s.Train(context.Background(), userPrincipal("t-1"), TrainParams{
		SchemaID:     "schema-1",
		TargetColumn: &target,
		Epochs:       &epochs,
	})
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}

	// Remote body relayed verbatim.
	var out map[string]string
	if err := json.Unmarshal(resp, &out); err != nil {
		t.Fatalf("response not relayed as json: %v", err)
	}
	if out["job_id"] != "job-42" {
		t.Fatalf("unexpected relay: %v", out)
	}

	// Fixed request contract: schema_id, model_type, hyperparameters.
	if received["schema_id"] != "schema-1" || received["model_type"] != "regression" {
		t.Fatalf("unexpected request body: %v", received)
	}
	hp, ok := received["hyperparameters"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing hyperparameters: %v", received)
	}
	if hp["target_column"] != "revenue" || hp["epochs"] != float64(100) {
		t.Fatalf("unexpected hyperparameters: %v", hp)
	}
	if _, present := hp["learning_rate"]; present {
		t.Fatalf("omitted params must not be sent: %v", hp)
	}
}

func TestTrainGatesOnAccessLevelOnly(t *testing.T) {
	s := NewTrainingService("http://unused", security.NewPolicy(nil), nil)

	// A read-only root is denied even though the role outranks everyone.
	readonly := domain.Principal{ID: "root-1", Role: domain.RoleRoot, AccessLevel: domain.AccessReadOnly}
	if _, err := s.Train(context.Background(), readonly, TrainParams{SchemaID: "s"}); err == nil {
		t.Fatalf("expected denial for read-only principal")
	}
}

func TestTrainRemoteErrorSurfaces(t *testing.T) {
	ml := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":"unknown schema"}`))
	}))
	defer ml.Close()

	s := NewTrainingService(ml.URL, security.NewPolicy(nil), nil)
	_, err := s.Train(context.Background(), userPrincipal("t-1"), TrainParams{SchemaID: "ghost"})
	if err == nil {
		t.Fatalf("expected remote error to surface")
	}
}

func TestTrainCircuitOpensAfterRepeatedFailures(t *testing.T) {
	ml := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ml.Close()

	s := NewTrainingService(ml.URL, security.NewPolicy(nil), nil)
	for i := 0; i < 5; i++ {
		s.Train(context.Background(), userPrincipal("t-1"), TrainParams{SchemaID: "s"})
	}

	if s.breaker.AllowRequest() {
		t.Fatalf("expected open circuit after repeated failures")
	}
	_, err := s.Train(context.Background(), userPrincipal("t-1"), TrainParams{SchemaID: "s"})
	if err == nil {
		t.Fatalf("expected fast-fail while circuit is open")
	}
}
