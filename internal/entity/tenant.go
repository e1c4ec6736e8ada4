package entity

import (
	"context"
	"errors"
	"strings"
)

var ErrTenantNotFound = errors.New("tenant não encontrado")

// Tenant é a configuração de uma conta interna com o Chatwoot (tabela crm_settings).
// AccessToken e WebhookSecret chegam opacos do banco; quem usa decifra.
type Tenant struct {
	AccountKey        int64  `json:"account_key"`
	ExternalAccountID int64  `json:"external_account_id"`
	BaseURL           string `json:"base_url"`
	AccessToken       string `json:"-"`
	WebhookSecret     string `json:"-"`
}

// Credentials são os dados já decifrados para falar com a API do Chatwoot.
type Credentials struct {
	BaseURL   string
	AccountID int64
	Token     string
}

func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.BaseURL) != "" && c.AccountID > 0 && strings.TrimSpace(c.Token) != ""
}

type TenantRepositoryInterface interface {
	FindByExternalAccountID(ctx context.Context, externalAccountID int64) (*Tenant, error)
	FindByAccountKey(ctx context.Context, accountKey int64) (*Tenant, error)
	List(ctx context.Context) ([]*Tenant, error)
}
