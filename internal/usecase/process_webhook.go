package usecase

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/xavierca1/tork-crm/internal/entity"
	"github.com/xavierca1/tork-crm/internal/infra/dedup"
	"github.com/xavierca1/tork-crm/internal/infra/integration/chatwoot"
)

const defaultLeadName = "Novo Lead Chatwoot"

// ProcessWebhookUseCase recebe um evento já autenticado e decide o que fazer com ele.
type ProcessWebhookUseCase struct {
	Tenants entity.TenantRepositoryInterface
	Deals   entity.DealRepositoryInterface
	Stages  entity.StageRepositoryInterface
	Mapper  *StageMapper
	Dedup   DedupGate
	Logger  *zap.Logger
}

func NewProcessWebhookUseCase(
	tenants entity.TenantRepositoryInterface,
	deals entity.DealRepositoryInterface,
	stages entity.StageRepositoryInterface,
	gate DedupGate,
	logger *zap.Logger,
) *ProcessWebhookUseCase {
	return &ProcessWebhookUseCase{
		Tenants: tenants,
		Deals:   deals,
		Stages:  stages,
		Mapper:  NewStageMapper(stages),
		Dedup:   gate,
		Logger:  logger,
	}
}

// Execute só devolve erro para falha de persistência; todo o resto vira WebhookResult.
func (uc *ProcessWebhookUseCase) Execute(ctx context.Context, accountID int64, p *chatwoot.WebhookPayload) (WebhookResult, error) {
	switch p.Event {
	case chatwoot.EventContactCreated:
		return uc.handleContactCreated(ctx, accountID, p)
	case chatwoot.EventConversationUpdated, chatwoot.EventMessageCreated:
		return uc.handleConversation(ctx, accountID, p)
	default:
		return WebhookResult{Status: StatusIgnored, Reason: ReasonUnhandledEvent}, nil
	}
}

func (uc *ProcessWebhookUseCase) handleContactCreated(ctx context.Context, accountID int64, p *chatwoot.WebhookPayload) (WebhookResult, error) {
	// Sem fallback para conta padrão: conta desconhecida não cria negócio em lugar nenhum.
	tenant, res, err := uc.tenantFor(ctx, accountID)
	if tenant == nil {
		return res, err
	}

	contact := contactFromPayload(p)
	if !contact.HasIdentity() {
		return skipped(ReasonNoContactInfo), nil
	}
	email := strings.TrimSpace(contact.Email)
	phone := strings.TrimSpace(contact.PhoneNumber)

	_, err = uc.Deals.FindByContact(ctx, tenant.AccountKey, email, phone)
	switch {
	case err == nil:
		return skipped(ReasonDuplicate), nil
	case !errors.Is(err, entity.ErrDealNotFound):
		return WebhookResult{}, persistenceError("buscando negócio por contato", err)
	}

	stages, err := uc.Stages.ListOrdered(ctx)
	if err != nil {
		return WebhookResult{}, persistenceError("listando estágios", err)
	}

	name := strings.TrimSpace(contact.Name)
	if name == "" {
		name = defaultLeadName
	}

	deal := entity.NewDeal(tenant.AccountKey, name, email, phone, entity.DefaultStageSlug(stages))
	if err := uc.Deals.Create(ctx, deal); err != nil {
		// Entrega concorrente do mesmo contato: o índice único já barrou.
		if errors.Is(err, entity.ErrDealAlreadyExists) {
			return skipped(ReasonDuplicate), nil
		}
		return WebhookResult{}, persistenceError("criando negócio", err)
	}

	uc.Logger.Info("✅ negócio criado a partir do Chatwoot",
		zap.String("deal_id", deal.ID),
		zap.Int64("account_key", tenant.AccountKey),
		zap.String("status", deal.Status),
	)
	return WebhookResult{Status: StatusSuccess, Action: ActionCreatedDeal, ID: deal.ID}, nil
}

func (uc *ProcessWebhookUseCase) handleConversation(ctx context.Context, accountID int64, p *chatwoot.WebhookPayload) (WebhookResult, error) {
	conv := conversationFromPayload(p)
	if conv == nil {
		return skipped(ReasonNoConversation), nil
	}

	key := dedup.Key(p.Event, accountID, int64(conv.ID))
	fresh, err := uc.Dedup.Acquire(ctx, key)
	if err != nil {
		// Store fora do ar: processa mesmo assim (a atualização de estágio é idempotente).
		uc.Logger.Warn("dedup indisponível, seguindo sem trava", zap.String("key", key), zap.Error(err))
		fresh = true
	}
	if !fresh {
		return WebhookResult{Status: StatusIgnored, Reason: ReasonDuplicateEvent}, nil
	}

	res, err := uc.updateStage(ctx, accountID, conv, p)
	if err != nil {
		// Libera a trava para o retry do Chatwoot não ser tratado como duplicado.
		if relErr := uc.Dedup.Release(context.WithoutCancel(ctx), key); relErr != nil {
			uc.Logger.Warn("falha ao liberar trava de dedup", zap.String("key", key), zap.Error(relErr))
		}
		return res, err
	}
	return res, nil
}

func (uc *ProcessWebhookUseCase) updateStage(ctx context.Context, accountID int64, conv *chatwoot.WebhookConversation, p *chatwoot.WebhookPayload) (WebhookResult, error) {
	tenant, res, err := uc.tenantFor(ctx, accountID)
	if tenant == nil {
		return res, err
	}

	newStatus, ok, err := uc.Mapper.Resolve(ctx, conv.Labels)
	if err != nil {
		return WebhookResult{}, persistenceError("resolvendo estágio", err)
	}
	if !ok {
		return skipped(ReasonNoMatchingLabel), nil
	}

	deal, reason, err := uc.findConversationDeal(ctx, tenant.AccountKey, conv, p)
	if err != nil {
		return WebhookResult{}, err
	}
	if deal == nil {
		return skipped(reason), nil
	}

	convID := int64(conv.ID)
	if deal.ConversationID != convID {
		if err := uc.Deals.LinkConversation(ctx, deal.ID, convID); err != nil {
			uc.Logger.Warn("falha ao vincular conversa ao negócio",
				zap.String("deal_id", deal.ID), zap.Int64("conversation_id", convID), zap.Error(err))
		}
	}

	if deal.Status == newStatus {
		return skipped(ReasonSameStatus), nil
	}

	if err := uc.Deals.UpdateStatus(ctx, deal.ID, newStatus); err != nil {
		if errors.Is(err, entity.ErrDealNotFound) {
			return skipped(ReasonDealNotFound), nil
		}
		return WebhookResult{}, persistenceError("atualizando status do negócio", err)
	}

	uc.Logger.Info("🔄 estágio atualizado pelo Chatwoot",
		zap.String("deal_id", deal.ID),
		zap.String("from", deal.Status),
		zap.String("to", newStatus),
	)
	return WebhookResult{Status: StatusSuccess, Action: ActionUpdatedStatus, NewStatus: newStatus}, nil
}

// findConversationDeal procura primeiro pela conversa já vinculada e depois pelo contato.
// deal nil com reason preenchido significa skip.
func (uc *ProcessWebhookUseCase) findConversationDeal(ctx context.Context, accountKey int64, conv *chatwoot.WebhookConversation, p *chatwoot.WebhookPayload) (*entity.Deal, string, error) {
	deal, err := uc.Deals.FindByConversationID(ctx, accountKey, int64(conv.ID))
	if err == nil {
		return deal, "", nil
	}
	if !errors.Is(err, entity.ErrDealNotFound) {
		return nil, "", persistenceError("buscando negócio pela conversa", err)
	}

	contact := contactFromConversation(conv, p)
	if !contact.HasIdentity() {
		return nil, ReasonNoContactInfo, nil
	}

	deal, err = uc.Deals.FindByContact(ctx, accountKey, strings.TrimSpace(contact.Email), strings.TrimSpace(contact.PhoneNumber))
	if errors.Is(err, entity.ErrDealNotFound) {
		return nil, ReasonDealNotFound, nil
	}
	if err != nil {
		return nil, "", persistenceError("buscando negócio por contato", err)
	}
	return deal, "", nil
}

// tenantFor devolve tenant nil quando o evento deve parar (skip ou erro).
func (uc *ProcessWebhookUseCase) tenantFor(ctx context.Context, accountID int64) (*entity.Tenant, WebhookResult, error) {
	tenant, err := uc.Tenants.FindByExternalAccountID(ctx, accountID)
	if errors.Is(err, entity.ErrTenantNotFound) {
		uc.Logger.Warn("conta do Chatwoot sem tenant configurado", zap.Int64("account_id", accountID))
		return nil, skipped(ReasonTenantNotFound), nil
	}
	if err != nil {
		return nil, WebhookResult{}, persistenceError("buscando tenant", err)
	}
	return tenant, WebhookResult{}, nil
}

// conversationFromPayload normaliza data.conversation, conversation no topo e, para
// conversation_updated antigo, o próprio topo do payload.
func conversationFromPayload(p *chatwoot.WebhookPayload) *chatwoot.WebhookConversation {
	if c := p.Data.Conversation; c != nil && c.ID > 0 {
		return c
	}
	if c := p.Conversation; c != nil && c.ID > 0 {
		return c
	}
	if p.Event == chatwoot.EventConversationUpdated && p.ID > 0 {
		return &chatwoot.WebhookConversation{
			ID:           p.ID,
			Labels:       p.Labels,
			ContactInbox: p.ContactInbox,
			Meta:         p.Meta,
		}
	}
	return nil
}

func contactFromConversation(conv *chatwoot.WebhookConversation, p *chatwoot.WebhookPayload) *chatwoot.WebhookContact {
	if conv.ContactInbox != nil && conv.ContactInbox.Contact.HasIdentity() {
		return conv.ContactInbox.Contact
	}
	if conv.Meta != nil && conv.Meta.Sender.HasIdentity() {
		return conv.Meta.Sender
	}
	// sender do topo só serve quando é o cliente; em mensagem de agente é o usuário do Chatwoot.
	if p.Sender.IsContact() && p.Sender.HasIdentity() {
		return p.Sender
	}
	return nil
}

func contactFromPayload(p *chatwoot.WebhookPayload) *chatwoot.WebhookContact {
	if p.Data.Contact != nil {
		return p.Data.Contact
	}
	return &chatwoot.WebhookContact{
		ID:          p.ID,
		Name:        p.Name,
		Email:       p.Email,
		PhoneNumber: p.PhoneNumber,
	}
}
