package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xavierca1/tork-crm/internal/entity"
)

type TenantRepository struct {
	DB *sql.DB
}

func NewTenantRepository(db *sql.DB) *TenantRepository {
	return &TenantRepository{DB: db}
}

const tenantColumns = `account_key, chatwoot_account_id, chatwoot_url, chatwoot_token, chatwoot_webhook_secret`

func (r *TenantRepository) FindByExternalAccountID(ctx context.Context, externalAccountID int64) (*entity.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM crm_settings WHERE chatwoot_account_id = $1`
	return r.findOne(ctx, query, externalAccountID)
}

func (r *TenantRepository) FindByAccountKey(ctx context.Context, accountKey int64) (*entity.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM crm_settings WHERE account_key = $1`
	return r.findOne(ctx, query, accountKey)
}

// List devolve só os tenants com conta do Chatwoot vinculada.
func (r *TenantRepository) List(ctx context.Context) ([]*entity.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM crm_settings WHERE chatwoot_account_id IS NOT NULL ORDER BY account_key`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listando tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*entity.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (r *TenantRepository) findOne(ctx context.Context, query string, arg int64) (*entity.Tenant, error) {
	t, err := scanTenant(r.DB.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("buscando tenant: %w", err)
	}
	return t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (*entity.Tenant, error) {
	var t entity.Tenant
	var extID sql.NullInt64
	if err := row.Scan(&t.AccountKey, &extID, &t.BaseURL, &t.AccessToken, &t.WebhookSecret); err != nil {
		return nil, err
	}
	t.ExternalAccountID = extID.Int64
	return &t, nil
}
