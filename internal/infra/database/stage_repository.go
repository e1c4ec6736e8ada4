package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xavierca1/tork-crm/internal/entity"
)

type StageRepository struct {
	DB *sql.DB
}

func NewStageRepository(db *sql.DB) *StageRepository {
	return &StageRepository{DB: db}
}

const stageColumns = `id, name, slug, color, sort_order, is_default`

func (r *StageRepository) ListOrdered(ctx context.Context) ([]entity.Stage, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+stageColumns+` FROM crm_stages ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("listando estágios: %w", err)
	}
	defer rows.Close()

	stages := []entity.Stage{}
	for rows.Next() {
		var s entity.Stage
		if err := rows.Scan(&s.ID, &s.Name, &s.Slug, &s.Color, &s.Order, &s.IsDefault); err != nil {
			return nil, err
		}
		stages = append(stages, s)
	}
	return stages, rows.Err()
}

func (r *StageRepository) FindByID(ctx context.Context, id int64) (*entity.Stage, error) {
	var s entity.Stage
	err := r.DB.QueryRowContext(ctx, `SELECT `+stageColumns+` FROM crm_stages WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Slug, &s.Color, &s.Order, &s.IsDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrStageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("buscando estágio: %w", err)
	}
	return &s, nil
}

func (r *StageRepository) Create(ctx context.Context, s *entity.Stage) error {
	query := `
		INSERT INTO crm_stages (name, slug, color, sort_order, is_default)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, s.Name, s.Slug, s.Color, s.Order, s.IsDefault).Scan(&s.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrStageSlugTaken
		}
		return fmt.Errorf("criando estágio: %w", err)
	}
	return nil
}

// Update não toca no slug.
func (r *StageRepository) Update(ctx context.Context, s *entity.Stage) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE crm_stages SET name = $1, color = $2, sort_order = $3 WHERE id = $4`,
		s.Name, s.Color, s.Order, s.ID,
	)
	if err != nil {
		return fmt.Errorf("atualizando estágio: %w", err)
	}
	return expectOneRow(res, entity.ErrStageNotFound)
}

// Delete só remove se nenhum negócio aponta para o slug, na mesma instrução.
func (r *StageRepository) Delete(ctx context.Context, id int64) error {
	query := `
		DELETE FROM crm_stages s
		WHERE s.id = $1
		  AND NOT EXISTS (SELECT 1 FROM crm_deals d WHERE d.status = s.slug)
	`
	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("removendo estágio: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM crm_stages WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("verificando estágio: %w", err)
	}
	if exists {
		return entity.ErrStageInUse
	}
	return entity.ErrStageNotFound
}

// SeedDefaults insere o funil padrão numa transação; slugs já existentes são ignorados.
func (r *StageRepository) SeedDefaults(ctx context.Context, stages []entity.Stage) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO crm_stages (name, slug, color, sort_order, is_default)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (slug) DO NOTHING
	`
	for _, s := range stages {
		if _, err := tx.ExecContext(ctx, query, s.Name, s.Slug, s.Color, s.Order, s.IsDefault); err != nil {
			return fmt.Errorf("semeando estágio %s: %w", s.Slug, err)
		}
	}
	return tx.Commit()
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
