package security

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xavierca1/tork-crm/internal/entity"
)

var ErrNoSecret = errors.New("nenhum segredo de webhook para a conta")

type TenantLookup interface {
	FindByExternalAccountID(ctx context.Context, externalAccountID int64) (*entity.Tenant, error)
}

// SecretResolver acha o segredo de assinatura do tenant dono da conta do Chatwoot.
// O fallback compartilhado só é usado quando configurado, e sempre gera warning.
type SecretResolver struct {
	tenants  TenantLookup
	box      *SecretBox
	fallback string
	logger   *zap.Logger
}

func NewSecretResolver(tenants TenantLookup, box *SecretBox, fallback string, logger *zap.Logger) *SecretResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SecretResolver{tenants: tenants, box: box, fallback: fallback, logger: logger}
}

func (r *SecretResolver) Resolve(ctx context.Context, externalAccountID int64) (string, error) {
	tenant, err := r.tenants.FindByExternalAccountID(ctx, externalAccountID)
	if err != nil && !errors.Is(err, entity.ErrTenantNotFound) {
		return "", fmt.Errorf("erro ao buscar tenant: %w", err)
	}

	if tenant != nil && tenant.WebhookSecret != "" {
		secret, legacy, err := r.box.Open(tenant.WebhookSecret)
		if err != nil {
			r.logger.Error("segredo de webhook ilegível",
				zap.Int64("external_account_id", externalAccountID),
				zap.Error(err),
			)
			return "", fmt.Errorf("segredo do tenant %d: %w", tenant.AccountKey, err)
		}
		if legacy {
			r.logger.Warn("segredo de webhook em formato legado (plain:)",
				zap.Int64("account_key", tenant.AccountKey),
			)
		}
		return secret, nil
	}

	if r.fallback != "" {
		r.logger.Warn("⚠️ usando segredo de webhook compartilhado (fallback)",
			zap.Int64("external_account_id", externalAccountID),
			zap.Bool("tenant_found", tenant != nil),
		)
		return r.fallback, nil
	}

	return "", ErrNoSecret
}
