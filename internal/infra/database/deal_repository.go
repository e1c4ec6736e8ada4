package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/tork-crm/internal/entity"
)

type DealRepository struct {
	DB *sql.DB
}

func NewDealRepository(db *sql.DB) *DealRepository {
	return &DealRepository{DB: db}
}

const dealColumns = `id, account_key, name, email, phone, status, value, priority, conversation_id, created_at, updated_at`

// FindByContact casa email (sem diferenciar caixa) OU telefone. Campo vazio nunca casa.
func (r *DealRepository) FindByContact(ctx context.Context, accountKey int64, email, phone string) (*entity.Deal, error) {
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)
	if email == "" && phone == "" {
		return nil, entity.ErrDealNotFound
	}

	query := `
		SELECT ` + dealColumns + `
		FROM crm_deals
		WHERE account_key = $1
		  AND (($2::text <> '' AND lower(email) = lower($2::text))
		    OR ($3::text <> '' AND phone = $3::text))
		ORDER BY created_at
		LIMIT 1
	`
	return r.findOne(ctx, query, accountKey, email, phone)
}

func (r *DealRepository) FindByConversationID(ctx context.Context, accountKey, conversationID int64) (*entity.Deal, error) {
	if conversationID <= 0 {
		return nil, entity.ErrDealNotFound
	}
	query := `SELECT ` + dealColumns + ` FROM crm_deals WHERE account_key = $1 AND conversation_id = $2 ORDER BY updated_at DESC LIMIT 1`
	return r.findOne(ctx, query, accountKey, conversationID)
}

func (r *DealRepository) FindByID(ctx context.Context, id string) (*entity.Deal, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, entity.ErrDealNotFound
	}
	return r.findOne(ctx, `SELECT `+dealColumns+` FROM crm_deals WHERE id = $1`, id)
}

func (r *DealRepository) Create(ctx context.Context, d *entity.Deal) error {
	query := `
		INSERT INTO crm_deals (id, account_key, name, email, phone, status, value, priority, conversation_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.DB.ExecContext(ctx, query,
		d.ID,
		d.AccountKey,
		d.Name,
		nullString(d.Email),
		nullString(d.Phone),
		d.Status,
		d.Value,
		d.Priority,
		nullInt64(d.ConversationID),
		d.CreatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrDealAlreadyExists
		}
		return fmt.Errorf("criando negócio: %w", err)
	}
	return nil
}

func (r *DealRepository) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE crm_deals SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("atualizando status: %w", err)
	}
	return expectOneRow(res, entity.ErrDealNotFound)
}

// Update usa COALESCE coluna a coluna: um PATCH só de valor não sobrescreve o status
// que o webhook acabou de gravar.
func (r *DealRepository) Update(ctx context.Context, id string, p entity.DealPatch) (*entity.Deal, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, entity.ErrDealNotFound
	}
	query := `
		UPDATE crm_deals
		SET status = COALESCE($1::text, status),
		    value = COALESCE($2::double precision, value),
		    priority = COALESCE($3::text, priority),
		    updated_at = $4
		WHERE id = $5
		RETURNING ` + dealColumns
	deal, err := r.findOne(ctx, query, optional(p.Status), optional(p.Value), optional(p.Priority), time.Now(), id)
	if err != nil && !errors.Is(err, entity.ErrDealNotFound) {
		return nil, fmt.Errorf("atualizando negócio: %w", err)
	}
	return deal, err
}

func (r *DealRepository) LinkConversation(ctx context.Context, id string, conversationID int64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE crm_deals SET conversation_id = $1, updated_at = NOW() WHERE id = $2`, conversationID, id)
	if err != nil {
		return fmt.Errorf("vinculando conversa: %w", err)
	}
	return expectOneRow(res, entity.ErrDealNotFound)
}

func (r *DealRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM crm_deals WHERE status = $1`, status).Scan(&n); err != nil {
		return 0, fmt.Errorf("contando negócios: %w", err)
	}
	return n, nil
}

func (r *DealRepository) findOne(ctx context.Context, query string, args ...any) (*entity.Deal, error) {
	var d entity.Deal
	var email, phone sql.NullString
	var convID sql.NullInt64

	err := r.DB.QueryRowContext(ctx, query, args...).Scan(
		&d.ID,
		&d.AccountKey,
		&d.Name,
		&email,
		&phone,
		&d.Status,
		&d.Value,
		&d.Priority,
		&convID,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrDealNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("buscando negócio: %w", err)
	}

	d.Email = email.String
	d.Phone = phone.String
	d.ConversationID = convID.Int64
	return &d, nil
}

func optional[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}
