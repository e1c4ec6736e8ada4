package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/tork-crm/internal/entity"
	"github.com/xavierca1/tork-crm/internal/infra/integration/chatwoot"
	"github.com/xavierca1/tork-crm/internal/infra/queue"
)

type MockTenantRepository struct{ mock.Mock }

func (m *MockTenantRepository) FindByExternalAccountID(ctx context.Context, id int64) (*entity.Tenant, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*entity.Tenant)
	return t, args.Error(1)
}

func (m *MockTenantRepository) FindByAccountKey(ctx context.Context, key int64) (*entity.Tenant, error) {
	args := m.Called(ctx, key)
	t, _ := args.Get(0).(*entity.Tenant)
	return t, args.Error(1)
}

func (m *MockTenantRepository) List(ctx context.Context) ([]*entity.Tenant, error) {
	args := m.Called(ctx)
	t, _ := args.Get(0).([]*entity.Tenant)
	return t, args.Error(1)
}

type MockDealRepository struct{ mock.Mock }

func (m *MockDealRepository) FindByContact(ctx context.Context, accountKey int64, email, phone string) (*entity.Deal, error) {
	args := m.Called(ctx, accountKey, email, phone)
	d, _ := args.Get(0).(*entity.Deal)
	return d, args.Error(1)
}

func (m *MockDealRepository) FindByConversationID(ctx context.Context, accountKey, convID int64) (*entity.Deal, error) {
	args := m.Called(ctx, accountKey, convID)
	d, _ := args.Get(0).(*entity.Deal)
	return d, args.Error(1)
}

func (m *MockDealRepository) FindByID(ctx context.Context, id string) (*entity.Deal, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*entity.Deal)
	return d, args.Error(1)
}

func (m *MockDealRepository) Create(ctx context.Context, d *entity.Deal) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockDealRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockDealRepository) Update(ctx context.Context, id string, p entity.DealPatch) (*entity.Deal, error) {
	args := m.Called(ctx, id, p)
	d, _ := args.Get(0).(*entity.Deal)
	return d, args.Error(1)
}

func (m *MockDealRepository) LinkConversation(ctx context.Context, id string, convID int64) error {
	return m.Called(ctx, id, convID).Error(0)
}

func (m *MockDealRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

type MockStageRepository struct{ mock.Mock }

func (m *MockStageRepository) ListOrdered(ctx context.Context) ([]entity.Stage, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).([]entity.Stage)
	return s, args.Error(1)
}

func (m *MockStageRepository) FindByID(ctx context.Context, id int64) (*entity.Stage, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*entity.Stage)
	return s, args.Error(1)
}

func (m *MockStageRepository) Create(ctx context.Context, s *entity.Stage) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockStageRepository) Update(ctx context.Context, s *entity.Stage) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockStageRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStageRepository) SeedDefaults(ctx context.Context, stages []entity.Stage) error {
	return m.Called(ctx, stages).Error(0)
}

type MockChatwoot struct{ mock.Mock }

func (m *MockChatwoot) SearchContacts(ctx context.Context, creds entity.Credentials, q string) ([]chatwoot.Contact, error) {
	args := m.Called(ctx, creds, q)
	c, _ := args.Get(0).([]chatwoot.Contact)
	return c, args.Error(1)
}

func (m *MockChatwoot) ListOpenConversations(ctx context.Context, creds entity.Credentials, contactID int64) ([]chatwoot.Conversation, error) {
	args := m.Called(ctx, creds, contactID)
	c, _ := args.Get(0).([]chatwoot.Conversation)
	return c, args.Error(1)
}

func (m *MockChatwoot) GetConversationLabels(ctx context.Context, creds entity.Credentials, convID int64) ([]string, error) {
	args := m.Called(ctx, creds, convID)
	l, _ := args.Get(0).([]string)
	return l, args.Error(1)
}

func (m *MockChatwoot) SetConversationLabels(ctx context.Context, creds entity.Credentials, convID int64, labels []string) error {
	return m.Called(ctx, creds, convID, labels).Error(0)
}

func (m *MockChatwoot) UpdateContactAttributes(ctx context.Context, creds entity.Credentials, contactID int64, attrs map[string]any) error {
	return m.Called(ctx, creds, contactID, attrs).Error(0)
}

func (m *MockChatwoot) CreateLabel(ctx context.Context, creds entity.Credentials, title, color string) error {
	return m.Called(ctx, creds, title, color).Error(0)
}

type MockSyncQueue struct{ mock.Mock }

func (m *MockSyncQueue) Enqueue(ctx context.Context, job queue.SyncJob) error {
	return m.Called(ctx, job).Error(0)
}

type MockSecretOpener struct{ mock.Mock }

func (m *MockSecretOpener) Open(stored string) (string, bool, error) {
	args := m.Called(stored)
	return args.String(0), args.Bool(1), args.Error(2)
}

type MockDedupGate struct{ mock.Mock }

func (m *MockDedupGate) Acquire(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockDedupGate) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}
