package database

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/tork-crm/internal/entity"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var dealCols = []string{"id", "account_key", "name", "email", "phone", "status", "value", "priority", "conversation_id", "created_at", "updated_at"}

func TestTenantFindByExternalAccountID(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM crm_settings WHERE chatwoot_account_id = $1")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"account_key", "chatwoot_account_id", "chatwoot_url", "chatwoot_token", "chatwoot_webhook_secret"}).
			AddRow(int64(10), int64(1), "https://chat.example.com", "enc:v1:abc", "plain:s3cr3t"))

	tenant, err := NewTenantRepository(db).FindByExternalAccountID(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, int64(10), tenant.AccountKey)
	assert.Equal(t, int64(1), tenant.ExternalAccountID)
	assert.Equal(t, "plain:s3cr3t", tenant.WebhookSecret)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM crm_settings").WillReturnError(sql.ErrNoRows)

	_, err := NewTenantRepository(db).FindByAccountKey(context.Background(), 3)

	assert.ErrorIs(t, err, entity.ErrTenantNotFound)
}

func TestTenantList(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE chatwoot_account_id IS NOT NULL")).
		WillReturnRows(sqlmock.NewRows([]string{"account_key", "chatwoot_account_id", "chatwoot_url", "chatwoot_token", "chatwoot_webhook_secret"}).
			AddRow(int64(1), int64(11), "u", "", "").
			AddRow(int64(2), int64(12), "u", "", ""))

	tenants, err := NewTenantRepository(db).List(context.Background())

	require.NoError(t, err)
	require.Len(t, tenants, 2)
	assert.Equal(t, int64(12), tenants[1].ExternalAccountID)
}

func TestStageListOrdered(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM crm_stages ORDER BY sort_order, id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug", "color", "sort_order", "is_default"}).
			AddRow(int64(1), "Novo Lead", "new", "bg-blue-500", 1, true).
			AddRow(int64(2), "Ganho", "won", "bg-emerald-500", 4, false))

	stages, err := NewStageRepository(db).ListOrdered(context.Background())

	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.Equal(t, "won", stages[1].Slug)
	assert.True(t, stages[0].IsDefault)
}

func TestStageListEmptyIsNotNil(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM crm_stages").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug", "color", "sort_order", "is_default"}))

	stages, err := NewStageRepository(db).ListOrdered(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, stages)
	assert.Empty(t, stages)
}

func TestStageCreateDuplicateSlug(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO crm_stages")).
		WithArgs("Ganho", "won", "bg-emerald-500", 4, false).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := NewStageRepository(db).Create(context.Background(), &entity.Stage{Name: "Ganho", Slug: "won", Color: "bg-emerald-500", Order: 4})

	assert.ErrorIs(t, err, entity.ErrStageSlugTaken)
}

func TestStageCreateReturnsID(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO crm_stages")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(8)))

	s := &entity.Stage{Name: "VIP", Slug: "vip", Color: "bg-red-500", Order: 6}
	require.NoError(t, NewStageRepository(db).Create(context.Background(), s))
	assert.Equal(t, int64(8), s.ID)
}

func TestStageDeleteInUse(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM crm_stages")).WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := NewStageRepository(db).Delete(context.Background(), 4)

	assert.ErrorIs(t, err, entity.ErrStageInUse)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStageDeleteNotFoundAndOK(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("DELETE FROM crm_stages").WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs(int64(9)).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("DELETE FROM crm_stages").WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewStageRepository(db)
	assert.ErrorIs(t, repo.Delete(context.Background(), 9), entity.ErrStageNotFound)
	assert.NoError(t, repo.Delete(context.Background(), 5))
}

func TestStageSeedDefaultsInTransaction(t *testing.T) {
	db, mock := newMock(t)
	defaults := entity.DefaultStages()

	mock.ExpectBegin()
	for _, s := range defaults {
		mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (slug) DO NOTHING")).
			WithArgs(s.Name, s.Slug, s.Color, s.Order, s.IsDefault).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	require.NoError(t, NewStageRepository(db).SeedDefaults(context.Background(), defaults))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStageSeedDefaultsRollsBack(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO crm_stages").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := NewStageRepository(db).SeedDefaults(context.Background(), entity.DefaultStages())

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDealFindByContact(t *testing.T) {
	db, mock := newMock(t)
	id := uuid.New().String()
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("lower(email) = lower($2::text)")).
		WithArgs(int64(10), "ana@example.com", "").
		WillReturnRows(sqlmock.NewRows(dealCols).
			AddRow(id, int64(10), "Ana", "ana@example.com", nil, "new", 0.0, "medium", nil, now, now))

	deal, err := NewDealRepository(db).FindByContact(context.Background(), 10, " ana@example.com ", "")

	require.NoError(t, err)
	assert.Equal(t, id, deal.ID)
	assert.Equal(t, "", deal.Phone)
	assert.Equal(t, int64(0), deal.ConversationID)
}

func TestDealFindByContactWithoutIdentityDoesNotQuery(t *testing.T) {
	db, mock := newMock(t)

	_, err := NewDealRepository(db).FindByContact(context.Background(), 10, "", "  ")

	assert.ErrorIs(t, err, entity.ErrDealNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDealFindByConversationID(t *testing.T) {
	db, mock := newMock(t)
	id := uuid.New().String()
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("conversation_id = $2")).
		WithArgs(int64(10), int64(42)).
		WillReturnRows(sqlmock.NewRows(dealCols).
			AddRow(id, int64(10), "Ana", nil, "+5511", "won", 100.0, "high", int64(42), now, now))

	deal, err := NewDealRepository(db).FindByConversationID(context.Background(), 10, 42)

	require.NoError(t, err)
	assert.Equal(t, int64(42), deal.ConversationID)
	assert.Equal(t, "+5511", deal.Phone)
}

func TestDealFindByIDInvalidUUID(t *testing.T) {
	db, mock := newMock(t)

	_, err := NewDealRepository(db).FindByID(context.Background(), "not-a-uuid")

	assert.ErrorIs(t, err, entity.ErrDealNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDealCreateUniqueViolation(t *testing.T) {
	db, mock := newMock(t)
	d := entity.NewDeal(10, "Ana", "ana@example.com", "", "new")
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO crm_deals")).
		WithArgs(d.ID, int64(10), "Ana", "ana@example.com", nil, "new", 0.0, "medium", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "crm_deals_account_email_uq"})

	err := NewDealRepository(db).Create(context.Background(), d)

	assert.ErrorIs(t, err, entity.ErrDealAlreadyExists)
}

func TestDealUpdateStatusNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE crm_deals SET status = $1")).
		WithArgs("won", "d1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewDealRepository(db).UpdateStatus(context.Background(), "d1", "won")

	assert.ErrorIs(t, err, entity.ErrDealNotFound)
}

func TestDealUpdateOnlySetColumns(t *testing.T) {
	db, mock := newMock(t)
	id := uuid.NewString()
	now := time.Now()
	value := 100.0

	mock.ExpectQuery(regexp.QuoteMeta("SET status = COALESCE($1::text, status)")).
		WithArgs(nil, 100.0, nil, sqlmock.AnyArg(), id).
		WillReturnRows(sqlmock.NewRows(dealCols).
			AddRow(id, int64(10), "Ana", "ana@example.com", nil, "won", 100.0, "medium", int64(42), now, now))

	deal, err := NewDealRepository(db).Update(context.Background(), id, entity.DealPatch{Value: &value})

	require.NoError(t, err)
	assert.Equal(t, "won", deal.Status)
	assert.Equal(t, 100.0, deal.Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDealUpdateNotFound(t *testing.T) {
	db, mock := newMock(t)
	id := uuid.NewString()
	status := "won"

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE crm_deals")).
		WithArgs("won", nil, nil, sqlmock.AnyArg(), id).
		WillReturnRows(sqlmock.NewRows(dealCols))

	_, err := NewDealRepository(db).Update(context.Background(), id, entity.DealPatch{Status: &status})
	assert.ErrorIs(t, err, entity.ErrDealNotFound)

	_, err = NewDealRepository(db).Update(context.Background(), "not-a-uuid", entity.DealPatch{Status: &status})
	assert.ErrorIs(t, err, entity.ErrDealNotFound)
}

func TestDealLinkConversationAndCount(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("SET conversation_id = $1")).WithArgs(int64(42), "d1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM crm_deals WHERE status = $1")).WithArgs("vip").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	repo := NewDealRepository(db)
	require.NoError(t, repo.LinkConversation(context.Background(), "d1", 42))
	n, err := repo.CountByStatus(context.Background(), "vip")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestMigrateRunsEveryStatement(t *testing.T) {
	db, mock := newMock(t)
	for range migrations {
		mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
