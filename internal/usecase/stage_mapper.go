package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/xavierca1/tork-crm/internal/entity"
)

// StageMapper traduz labels do Chatwoot para o slug de um estágio.
// Os estágios são lidos do banco a cada chamada porque o operador pode editá-los a qualquer momento.
type StageMapper struct {
	Stages entity.StageRepositoryInterface
}

func NewStageMapper(stages entity.StageRepositoryInterface) *StageMapper {
	return &StageMapper{Stages: stages}
}

// Resolve devolve o slug da primeira label que casar. ok=false não é erro.
func (m *StageMapper) Resolve(ctx context.Context, labels []string) (string, bool, error) {
	if len(labels) == 0 {
		return "", false, nil
	}

	stages, err := m.Stages.ListOrdered(ctx)
	if err != nil {
		return "", false, fmt.Errorf("listando estágios: %w", err)
	}

	slug, ok := MatchLabel(stages, labels)
	return slug, ok, nil
}

// MatchLabel percorre as labels na ordem recebida; para cada label, slug ganha de nome.
func MatchLabel(stages []entity.Stage, labels []string) (string, bool) {
	bySlug := make(map[string]string, len(stages))
	byName := make(map[string]string, len(stages))
	for _, s := range stages {
		bySlug[strings.ToLower(s.Slug)] = s.Slug
		name := strings.ToLower(strings.TrimSpace(s.Name))
		if _, taken := byName[name]; !taken {
			byName[name] = s.Slug
		}
	}

	for _, label := range labels {
		l := strings.ToLower(strings.TrimSpace(label))
		if l == "" {
			continue
		}
		if slug, ok := bySlug[l]; ok {
			return slug, true
		}
		if slug, ok := byName[l]; ok {
			return slug, true
		}
	}
	return "", false
}
