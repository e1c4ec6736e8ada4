package handlers

import (
	"context"
	"strings"
	"sync"

	"github.com/xavierca1/tork-crm/internal/entity"
)

type memTenants struct {
	mu      sync.Mutex
	byExt   map[int64]*entity.Tenant
	lookups int
}

func (m *memTenants) FindByExternalAccountID(_ context.Context, id int64) (*entity.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if t, ok := m.byExt[id]; ok {
		return t, nil
	}
	return nil, entity.ErrTenantNotFound
}

func (m *memTenants) FindByAccountKey(_ context.Context, key int64) (*entity.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byExt {
		if t.AccountKey == key {
			return t, nil
		}
	}
	return nil, entity.ErrTenantNotFound
}

func (m *memTenants) List(context.Context) ([]*entity.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.Tenant, 0, len(m.byExt))
	for _, t := range m.byExt {
		out = append(out, t)
	}
	return out, nil
}

func (m *memTenants) Lookups() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookups
}

type memDeals struct {
	mu      sync.Mutex
	deals   map[string]*entity.Deal
	updates int
}

func newMemDeals(deals ...*entity.Deal) *memDeals {
	m := &memDeals{deals: map[string]*entity.Deal{}}
	for _, d := range deals {
		m.deals[d.ID] = d
	}
	return m
}

func (m *memDeals) matchContact(d *entity.Deal, accountKey int64, email, phone string) bool {
	if d.AccountKey != accountKey {
		return false
	}
	return (email != "" && strings.EqualFold(d.Email, email)) || (phone != "" && d.Phone == phone)
}

func (m *memDeals) FindByContact(_ context.Context, accountKey int64, email, phone string) (*entity.Deal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.deals {
		if m.matchContact(d, accountKey, email, phone) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, entity.ErrDealNotFound
}

func (m *memDeals) FindByConversationID(_ context.Context, accountKey, convID int64) (*entity.Deal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.deals {
		if d.AccountKey == accountKey && d.ConversationID == convID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, entity.ErrDealNotFound
}

func (m *memDeals) FindByID(_ context.Context, id string) (*entity.Deal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.deals[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, entity.ErrDealNotFound
}

// Create imita os índices únicos parciais (conta, email) e (conta, telefone).
func (m *memDeals) Create(_ context.Context, d *entity.Deal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.deals {
		if m.matchContact(existing, d.AccountKey, d.Email, d.Phone) {
			return entity.ErrDealAlreadyExists
		}
	}
	cp := *d
	m.deals[d.ID] = &cp
	return nil
}

func (m *memDeals) UpdateStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deals[id]
	if !ok {
		return entity.ErrDealNotFound
	}
	d.Status = status
	m.updates++
	return nil
}

func (m *memDeals) Update(_ context.Context, id string, p entity.DealPatch) (*entity.Deal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deals[id]
	if !ok {
		return nil, entity.ErrDealNotFound
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.Value != nil {
		d.Value = *p.Value
	}
	if p.Priority != nil {
		d.Priority = *p.Priority
	}
	cp := *d
	return &cp, nil
}

func (m *memDeals) LinkConversation(_ context.Context, id string, convID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deals[id]
	if !ok {
		return entity.ErrDealNotFound
	}
	d.ConversationID = convID
	return nil
}

func (m *memDeals) CountByStatus(_ context.Context, status string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, d := range m.deals {
		if d.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *memDeals) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.deals)
}

func (m *memDeals) Updates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}

type memStages struct {
	stages []entity.Stage
}

func (m *memStages) ListOrdered(context.Context) ([]entity.Stage, error) {
	return append([]entity.Stage(nil), m.stages...), nil
}

func (m *memStages) FindByID(_ context.Context, id int64) (*entity.Stage, error) {
	for _, s := range m.stages {
		if s.ID == id {
			cp := s
			return &cp, nil
		}
	}
	return nil, entity.ErrStageNotFound
}

func (m *memStages) Create(_ context.Context, s *entity.Stage) error {
	m.stages = append(m.stages, *s)
	return nil
}

func (m *memStages) Update(context.Context, *entity.Stage) error { return nil }
func (m *memStages) Delete(context.Context, int64) error { return nil }

func (m *memStages) SeedDefaults(_ context.Context, stages []entity.Stage) error {
	m.stages = append(m.stages, stages...)
	return nil
}
