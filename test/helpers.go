package test

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yourorg/dataplane/internal/domain"
	"github.com/yourorg/dataplane/internal/handler"
	"github.com/yourorg/dataplane/internal/infrastructure/logger"
	"github.com/yourorg/dataplane/internal/security"
	"github.com/yourorg/dataplane/internal/security/audit"
	"github.com/yourorg/dataplane/internal/security/auth"
	"github.com/yourorg/dataplane/internal/security/middleware"
	"github.com/yourorg/dataplane/internal/service"
)

// TestServerHelper wires the full request path (middleware, handlers,
// services) over in-memory repositories, without Postgres or Redis.
type TestServerHelper struct {
	Server  *httptest.Server
	Logger  *slog.Logger
	Users   *memUserRepo
	Tenants *memTenantRepo
	Schemas *memSchemaRepo
	Auth    *service.AuthService
	Tokens  *auth.TokenManager
}

func NewTestServer(t *testing.T) *TestServerHelper {
	log := logger.NewLogger("debug")

	users := newMemUserRepo()
	tenants := newMemTenantRepo()
	schemas := newMemSchemaRepo()

	tokenManager := auth.NewTokenManager("test-secret", "dataplane")
	policy := security.NewPolicy(log)
	auditLogger := audit.NewLogger(log)

	authService := service.NewAuthService(users, tokenManager, policy, auditLogger, log)
	ingestService := service.NewIngestService(schemas, policy, auditLogger, log)
	statsService := service.NewStatsService(tenants, users, schemas, policy, nil, log)

	loginHandler := handler.NewLoginHandler(authService, log)
	usersHandler := handler.NewUsersHandler(authService, log)
	clientsHandler := handler.NewClientsHandler(tenants, policy, auditLogger, log)
	uploadHandler := handler.NewUploadHandler(ingestService, log)
	statsHandler := handler.NewStatsHandler(statsService, log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/greeting", handler.Greeting)
	mux.Handle("POST /api/auth/login", loginHandler)
	mux.HandleFunc("GET /api/public/clients/search", clientsHandler.PublicSearch)
	mux.HandleFunc("GET /api/clients/search", clientsHandler.Search)
	mux.HandleFunc("POST /api/users", usersHandler.Create)
	mux.HandleFunc("POST /api/clients", clientsHandler.Create)
	mux.HandleFunc("GET /api/company/users", usersHandler.CompanyUsers)
	mux.HandleFunc("GET /api/stats", statsHandler.Dashboard)
	mux.HandleFunc("GET /api/analytics", statsHandler.Analytics)
	mux.HandleFunc("GET /api/users/me", usersHandler.Me)
	mux.Handle("POST /api/upload", uploadHandler)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	root := middleware.ValidateContentType(log)(
		middleware.PrincipalMiddleware(tokenManager, log)(mux),
	)
	server := httptest.NewServer(root)

	return &TestServerHelper{
		Server:  server,
		Logger:  log,
		Users:   users,
		Tenants: tenants,
		Schemas: schemas,
		Auth:    authService,
		Tokens:  tokenManager,
	}
}

func (h *TestServerHelper) Close() {
	h.Server.Close()
}

func (h *TestServerHelper) URL() string {
	return h.Server.URL
}

// TokenFor issues a session token directly, bypassing the login endpoint.
func (h *TestServerHelper) TokenFor(t *testing.T, p domain.Principal) string {
	t.Helper()
	token, err := h.Tokens.Issue(p, auth.DefaultTTL)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

// AssertStatusCode helper function
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status %d, got %d", expected, resp.StatusCode)
	}
}

// In-memory repositories backing the test server.

type memUserRepo struct {
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
	seq     int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*domain.User{}, byEmail: map[string]*domain.User{}}
}

func (m *memUserRepo) Create(u *domain.User) error {
	if _, exists := m.byEmail[u.Email]; exists {
		return errors.New("duplicate email")
	}
	m.seq++
	u.ID = fmt.Sprintf("u-%d", m.seq)
	u.CreatedAt = time.Now()
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u
	return nil
}

func (m *memUserRepo) GetByID(id string) (*domain.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func (m *memUserRepo) GetByEmail(email string) (*domain.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func (m *memUserRepo) ListByTenant(tenantID string) ([]*domain.User, error) {
	out := []*domain.User{}
	for _, u := range m.byID {
		if u.TenantID != nil && *u.TenantID == tenantID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUserRepo) ListRecent(limit int) ([]*domain.User, error) {
	out := []*domain.User{}
	for _, u := range m.byID {
		if len(out) >= limit {
			break
		}
		out = append(out, u)
	}
	return out, nil
}

func (m *memUserRepo) Count() (int64, error) { return int64(len(m.byID)), nil }

func (m *memUserRepo) CountByTenant(tenantID string) (int64, error) {
	users, _ := m.ListByTenant(tenantID)
	return int64(len(users)), nil
}

func (m *memUserRepo) CountActive() (int64, error) {
	var n int64
	for _, u := range m.byID {
		if u.Status == domain.StatusActive {
			n++
		}
	}
	return n, nil
}

func (m *memUserRepo) CountActiveByTenant(tenantID string) (int64, error) {
	var n int64
	for _, u := range m.byID {
		if u.TenantID != nil && *u.TenantID == tenantID && u.Status == domain.StatusActive {
			n++
		}
	}
	return n, nil
}

type memTenantRepo struct {
	tenants []*domain.Tenant
	seq     int
}

func newMemTenantRepo() *memTenantRepo { return &memTenantRepo{} }

func (m *memTenantRepo) Create(tnt *domain.Tenant) error {
	m.seq++
	tnt.ID = fmt.Sprintf("t-%d", m.seq)
	tnt.CreatedAt = time.Now()
	m.tenants = append(m.tenants, tnt)
	return nil
}

func (m *memTenantRepo) GetByID(id string) (*domain.Tenant, error) {
	for _, tnt := range m.tenants {
		if tnt.ID == id {
			return tnt, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *memTenantRepo) Search(query string, limit int) ([]domain.TenantOption, error) {
	out := []domain.TenantOption{}
	for _, tnt := range m.tenants {
		if len(out) >= limit {
			break
		}
		out = append(out, domain.TenantOption{ID: tnt.ID, Name: tnt.Name})
	}
	return out, nil
}

func (m *memTenantRepo) Count() (int64, error) { return int64(len(m.tenants)), nil }

func (m *memTenantRepo) CountExpired(now time.Time) (int64, error) {
	var n int64
	for _, tnt := range m.tenants {
		if tnt.Type == domain.TenantNaturalPerson && tnt.ContractExpiresAt != nil && tnt.ContractExpiresAt.Before(now) {
			n++
		}
	}
	return n, nil
}

type memSchema struct {
	id       string
	tenantID string
	rowCount int
	created  time.Time
}

type memSchemaRepo struct {
	byName map[string]*memSchema
	rows   map[string][]map[string]string
	seq    int
}

func newMemSchemaRepo() *memSchemaRepo {
	return &memSchemaRepo{byName: map[string]*memSchema{}, rows: map[string][]map[string]string{}}
}

func (m *memSchemaRepo) IngestBatch(tenantID, name string, columns []string, rows []map[string]string) (string, error) {
	s, ok := m.byName[name]
	if !ok {
		m.seq++
		s = &memSchema{id: fmt.Sprintf("s-%d", m.seq), tenantID: tenantID, created: time.Now()}
		m.byName[name] = s
	}
	s.rowCount += len(rows)
	m.rows[s.id] = append(m.rows[s.id], rows...)
	return s.id, nil
}

func (m *memSchemaRepo) ListRecent(tenantID string, limit int) ([]domain.SchemaSummary, error) {
	out := []domain.SchemaSummary{}
	for name, s := range m.byName {
		if s.tenantID != tenantID || len(out) >= limit {
			continue
		}
		out = append(out, domain.SchemaSummary{SchemaID: s.id, SchemaName: name, RowCount: s.rowCount, CreatedAt: s.created})
	}
	return out, nil
}

func (m *memSchemaRepo) ListRecentAll(limit int) ([]domain.SchemaSummary, error) {
	out := []domain.SchemaSummary{}
	for name, s := range m.byName {
		if len(out) >= limit {
			break
		}
		out = append(out, domain.SchemaSummary{SchemaID: s.id, SchemaName: name, RowCount: s.rowCount, CreatedAt: s.created})
	}
	return out, nil
}

func (m *memSchemaRepo) TotalRows(tenantID string) (int64, error) {
	var n int64
	for _, s := range m.byName {
		if s.tenantID == tenantID {
			n += int64(s.rowCount)
		}
	}
	return n, nil
}

func (m *memSchemaRepo) TotalRowsAll() (int64, error) {
	var n int64
	for _, s := range m.byName {
		n += int64(s.rowCount)
	}
	return n, nil
}

func (m *memSchemaRepo) CountDatasets(tenantID string) (int64, error) {
	var n int64
	for _, s := range m.byName {
		if s.tenantID == tenantID {
			n++
		}
	}
	return n, nil
}

func (m *memSchemaRepo) CountDatasetsAll() (int64, error) { return int64(len(m.byName)), nil }
