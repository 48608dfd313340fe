package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/yourorg/dataplane/internal/domain"
)

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
	if u.ID == "" {
		m.seq++
		u.ID = fmt.Sprintf("u-%d", m.seq)
	}
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
	byID map[string]*domain.Tenant
	seq  int
}

func newMemTenantRepo() *memTenantRepo {
	return &memTenantRepo{byID: map[string]*domain.Tenant{}}
}

func (m *memTenantRepo) Create(tnt *domain.Tenant) error {
	m.seq++
	tnt.ID = fmt.Sprintf("t-%d", m.seq)
	tnt.CreatedAt = time.Now()
	m.byID[tnt.ID] = tnt
	return nil
}

func (m *memTenantRepo) GetByID(id string) (*domain.Tenant, error) {
	if tnt, ok := m.byID[id]; ok {
		return tnt, nil
	}
	return nil, errors.New("not found")
}

func (m *memTenantRepo) Search(query string, limit int) ([]domain.TenantOption, error) {
	out := []domain.TenantOption{}
	for _, tnt := range m.byID {
		if len(out) >= limit {
			break
		}
		out = append(out, domain.TenantOption{ID: tnt.ID, Name: tnt.Name})
	}
	return out, nil
}

func (m *memTenantRepo) Count() (int64, error) { return int64(len(m.byID)), nil }

func (m *memTenantRepo) CountExpired(now time.Time) (int64, error) {
	var n int64
	for _, tnt := range m.byID {
		if tnt.Type == domain.TenantNaturalPerson && tnt.ContractExpiresAt != nil && tnt.ContractExpiresAt.Before(now) {
			n++
		}
	}
	return n, nil
}

type memSchema struct {
	id       string
	tenantID string
	columns  []string
	rowCount int
	created  time.Time
}

type memSchemaRepo struct {
	byName map[string]*memSchema
	rows   map[string][]map[string]string // schemaID -> rows
	seq    int

	failRows bool
}

func newMemSchemaRepo() *memSchemaRepo {
	return &memSchemaRepo{byName: map[string]*memSchema{}, rows: map[string][]map[string]string{}}
}

func (m *memSchemaRepo) IngestBatch(tenantID, name string, columns []string, rows []map[string]string) (string, error) {
	// Mirrors the transactional contract: a failed batch leaves neither
	// rows nor a count increment behind.
	if m.failRows {
		return "", errors.New("insert failed")
	}
	s, ok := m.byName[name]
	if !ok {
		m.seq++
		s = &memSchema{
			id:       fmt.Sprintf("s-%d", m.seq),
			tenantID: tenantID,
			columns:  columns,
			created:  time.Now(),
		}
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

func (m *memSchemaRepo) CountDatasetsAll() (int64, error) {
	return int64(len(m.byName)), nil
}
