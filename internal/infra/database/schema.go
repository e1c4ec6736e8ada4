package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Os índices únicos parciais em crm_deals fazem entregas concorrentes de
// contact_created para o mesmo contato colapsarem em um único negócio.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS crm_settings (
		account_key             BIGSERIAL PRIMARY KEY,
		chatwoot_account_id     BIGINT UNIQUE,
		chatwoot_url            TEXT NOT NULL DEFAULT '',
		chatwoot_token          TEXT NOT NULL DEFAULT '',
		chatwoot_webhook_secret TEXT NOT NULL DEFAULT '',
		updated_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS crm_stages (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		slug       TEXT NOT NULL UNIQUE,
		color      TEXT NOT NULL DEFAULT 'bg-slate-500',
		sort_order INT NOT NULL DEFAULT 0,
		is_default BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS crm_deals (
		id              UUID PRIMARY KEY,
		account_key     BIGINT NOT NULL,
		name            TEXT NOT NULL,
		email           TEXT,
		phone           TEXT,
		status          TEXT NOT NULL,
		value           DOUBLE PRECISION NOT NULL DEFAULT 0,
		priority        TEXT NOT NULL DEFAULT 'medium',
		conversation_id BIGINT,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS crm_deals_account_email_uq
		ON crm_deals (account_key, lower(email)) WHERE email IS NOT NULL AND email <> ''`,
	`CREATE UNIQUE INDEX IF NOT EXISTS crm_deals_account_phone_uq
		ON crm_deals (account_key, phone) WHERE phone IS NOT NULL AND phone <> ''`,
	`CREATE INDEX IF NOT EXISTS crm_deals_conversation_idx
		ON crm_deals (account_key, conversation_id) WHERE conversation_id IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS crm_deals_status_idx ON crm_deals (status)`,
}

// Migrate aplica o schema. Todas as instruções são idempotentes.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migração %d: %w", i, err)
		}
	}
	return nil
}
