package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xavierca1/tork-crm/internal/entity"
	"github.com/xavierca1/tork-crm/internal/infra/integration/chatwoot"
	"github.com/xavierca1/tork-crm/internal/infra/queue"
)

const (
	StepCredentials   = "credentials"
	StepLoadDeal      = "load_deal"
	StepContactSearch = "contact_search"
	StepConversations = "conversation_list"
	StepReadLabels    = "read_labels"
	StepWriteLabels   = "write_labels"
	StepAttributes    = "contact_attributes"
	StepCreateLabel   = "create_label"

	AttrStage = "crm_stage"
	AttrValue = "crm_value"
)

// errNotConfigured marca um tenant sem integração: não é falha, o job só não tem o que fazer.
var errNotConfigured = errors.New("integração com chatwoot não configurada")

// ReverseSyncer leva mudanças do CRM para o Chatwoot. Uma tentativa por job, sem retry.
type ReverseSyncer struct {
	Tenants entity.TenantRepositoryInterface
	Deals   entity.DealRepositoryInterface
	Client  ChatwootAPI
	Secrets SecretOpener
	Logger  *zap.Logger
}

func NewReverseSyncer(
	tenants entity.TenantRepositoryInterface,
	deals entity.DealRepositoryInterface,
	client ChatwootAPI,
	secrets SecretOpener,
	logger *zap.Logger,
) *ReverseSyncer {
	return &ReverseSyncer{
		Tenants: tenants,
		Deals:   deals,
		Client:  client,
		Secrets: secrets,
		Logger:  logger,
	}
}

// Handle é o queue.Handler dos jobs de sincronização.
func (s *ReverseSyncer) Handle(ctx context.Context, job queue.SyncJob) error {
	switch job.Kind {
	case queue.KindReverseSync:
		return s.SyncDeal(ctx, job.AccountKey, job.DealID, job.Label)
	case queue.KindCreateLabel:
		return s.CreateLabel(ctx, job.AccountKey, job.Label, job.Color)
	default:
		s.Logger.Warn("tipo de job desconhecido, descartando", zap.String("kind", job.Kind), zap.String("job_id", job.ID))
		return nil
	}
}

// SyncDeal aplica o estágio do negócio como label na conversa aberta do contato
// (read-modify-write do conjunto inteiro) e grava estágio/valor nos atributos do contato.
func (s *ReverseSyncer) SyncDeal(ctx context.Context, accountKey int64, dealID, stageSlug string) error {
	log := s.Logger.With(zap.Int64("account_key", accountKey), zap.String("deal_id", dealID))

	creds, err := s.credentials(ctx, accountKey)
	if errors.Is(err, errNotConfigured) {
		log.Info("tenant sem credenciais do Chatwoot, sync ignorado")
		return nil
	}
	if err != nil {
		log.Warn("sync abortado", zap.String("step", StepCredentials), zap.Error(err))
		return &RemoteSyncError{Step: StepCredentials, Err: err}
	}

	deal, err := s.Deals.FindByID(ctx, dealID)
	if errors.Is(err, entity.ErrDealNotFound) {
		log.Info("negócio não existe mais, sync ignorado")
		return nil
	}
	if err != nil {
		return &RemoteSyncError{Step: StepLoadDeal, Err: err}
	}
	if stageSlug == "" {
		stageSlug = deal.Status
	}

	contact, err := s.findContact(ctx, creds, deal)
	if err != nil {
		log.Warn("sync abortado", zap.String("step", StepContactSearch), zap.Error(err))
		return &RemoteSyncError{Step: StepContactSearch, Err: err}
	}
	if contact == nil {
		log.Info("contato não encontrado no Chatwoot", zap.Bool("has_email", deal.Email != ""), zap.Bool("has_phone", deal.Phone != ""))
		return nil
	}

	labelErr := s.applyLabel(ctx, creds, contact.ID, stageSlug, log)

	// Independe do resultado das labels.
	attrs := map[string]any{AttrStage: stageSlug, AttrValue: deal.Value}
	if err := s.Client.UpdateContactAttributes(ctx, creds, contact.ID, attrs); err != nil {
		log.Warn("falha ao atualizar atributos do contato", zap.String("step", StepAttributes), zap.Error(err))
		if labelErr == nil {
			return &RemoteSyncError{Step: StepAttributes, Err: err}
		}
	}

	if labelErr != nil {
		return labelErr
	}
	log.Info("✅ negócio sincronizado com o Chatwoot", zap.String("stage", stageSlug))
	return nil
}

func (s *ReverseSyncer) applyLabel(ctx context.Context, creds entity.Credentials, contactID int64, slug string, log *zap.Logger) error {
	convs, err := s.Client.ListOpenConversations(ctx, creds, contactID)
	if err != nil {
		log.Warn("sync abortado", zap.String("step", StepConversations), zap.Error(err))
		return &RemoteSyncError{Step: StepConversations, Err: err}
	}
	if len(convs) == 0 {
		log.Info("contato sem conversa aberta", zap.Int64("contact_id", contactID))
		return nil
	}
	convID := convs[0].ID

	current, err := s.Client.GetConversationLabels(ctx, creds, convID)
	if err != nil {
		log.Warn("sync abortado", zap.String("step", StepReadLabels), zap.Int64("conversation_id", convID), zap.Error(err))
		return &RemoteSyncError{Step: StepReadLabels, Err: err}
	}
	if containsLabel(current, slug) {
		return nil
	}

	updated := make([]string, 0, len(current)+1)
	updated = append(updated, current...)
	updated = append(updated, slug)

	if err := s.Client.SetConversationLabels(ctx, creds, convID, updated); err != nil {
		log.Warn("sync abortado", zap.String("step", StepWriteLabels), zap.Int64("conversation_id", convID), zap.Error(err))
		return &RemoteSyncError{Step: StepWriteLabels, Err: err}
	}
	log.Debug("labels atualizadas", zap.Int64("conversation_id", convID), zap.Strings("labels", updated))
	return nil
}

// findContact busca por email e, sem resultado, por telefone. nil sem erro = não achou.
func (s *ReverseSyncer) findContact(ctx context.Context, creds entity.Credentials, deal *entity.Deal) (*chatwoot.Contact, error) {
	for _, q := range []string{deal.Email, deal.Phone} {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		contacts, err := s.Client.SearchContacts(ctx, creds, q)
		if err != nil {
			return nil, err
		}
		if len(contacts) > 0 {
			return &contacts[0], nil
		}
	}
	return nil, nil
}

// CreateLabel cria a label do estágio no Chatwoot do tenant. Label já existente conta como sucesso.
func (s *ReverseSyncer) CreateLabel(ctx context.Context, accountKey int64, title, color string) error {
	log := s.Logger.With(zap.Int64("account_key", accountKey), zap.String("label", title))

	creds, err := s.credentials(ctx, accountKey)
	if errors.Is(err, errNotConfigured) {
		return nil
	}
	if err != nil {
		return &RemoteSyncError{Step: StepCredentials, Err: err}
	}

	err = s.Client.CreateLabel(ctx, creds, title, color)
	if errors.Is(err, chatwoot.ErrLabelExists) {
		log.Debug("label já existia no Chatwoot")
		return nil
	}
	if err != nil {
		log.Warn("falha ao criar label", zap.Error(err))
		return &RemoteSyncError{Step: StepCreateLabel, Err: err}
	}
	log.Info("🏷️ label criada no Chatwoot")
	return nil
}

func (s *ReverseSyncer) credentials(ctx context.Context, accountKey int64) (entity.Credentials, error) {
	tenant, err := s.Tenants.FindByAccountKey(ctx, accountKey)
	if errors.Is(err, entity.ErrTenantNotFound) {
		return entity.Credentials{}, errNotConfigured
	}
	if err != nil {
		return entity.Credentials{}, fmt.Errorf("buscando tenant: %w", err)
	}
	if strings.TrimSpace(tenant.AccessToken) == "" {
		return entity.Credentials{}, errNotConfigured
	}

	token, legacy, err := s.Secrets.Open(tenant.AccessToken)
	if err != nil {
		return entity.Credentials{}, fmt.Errorf("decifrando token: %w", err)
	}
	if legacy {
		s.Logger.Warn("token do Chatwoot guardado sem criptografia", zap.Int64("account_key", accountKey))
	}

	creds := entity.Credentials{BaseURL: tenant.BaseURL, AccountID: tenant.ExternalAccountID, Token: token}
	if !creds.Complete() {
		return entity.Credentials{}, errNotConfigured
	}
	return creds, nil
}

func containsLabel(labels []string, slug string) bool {
	for _, l := range labels {
		if strings.EqualFold(strings.TrimSpace(l), slug) {
			return true
		}
	}
	return false
}
