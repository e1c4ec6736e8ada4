package entity

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

var (
	ErrStageNotFound  = errors.New("estágio não encontrado")
	ErrStageSlugTaken = errors.New("slug do estágio já existe")
	ErrStageInUse     = errors.New("estágio possui negócios ativos")
	ErrDefaultStage   = errors.New("estágio padrão não pode ser removido")
)

// FallbackStageSlug é usado quando não existe nenhum estágio marcado como padrão.
const FallbackStageSlug = "new"

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,62}$`)

// Stage é uma etapa do funil. O slug é o nome da label no Chatwoot.
type Stage struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Color     string `json:"color"`
	Order     int    `json:"order"`
	IsDefault bool   `json:"is_default"`
}

func (s *Stage) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("name is required")
	}
	if !slugPattern.MatchString(s.Slug) {
		return errors.New("slug must be lowercase letters, digits, '-' or '_'")
	}
	return nil
}

// DefaultStages é o funil semeado quando a tabela está vazia.
func DefaultStages() []Stage {
	return []Stage{
		{Name: "Novo Lead", Slug: "new", Color: "bg-blue-500", Order: 1, IsDefault: true},
		{Name: "Em Contato", Slug: "contact", Color: "bg-amber-500", Order: 2, IsDefault: true},
		{Name: "Proposta", Slug: "proposal", Color: "bg-purple-500", Order: 3, IsDefault: true},
		{Name: "Ganho", Slug: "won", Color: "bg-emerald-500", Order: 4, IsDefault: true},
		{Name: "Perdido", Slug: "lost", Color: "bg-red-500", Order: 5, IsDefault: true},
	}
}

// DefaultStageSlug devolve o slug do estágio padrão de menor ordem, ou "new".
// stages precisa vir ordenado por Order.
func DefaultStageSlug(stages []Stage) string {
	for _, s := range stages {
		if s.IsDefault {
			return s.Slug
		}
	}
	return FallbackStageSlug
}

type StageRepositoryInterface interface {
	ListOrdered(ctx context.Context) ([]Stage, error)
	FindByID(ctx context.Context, id int64) (*Stage, error)
	Create(ctx context.Context, s *Stage) error
	Update(ctx context.Context, s *Stage) error
	Delete(ctx context.Context, id int64) error
	SeedDefaults(ctx context.Context, stages []Stage) error
}
