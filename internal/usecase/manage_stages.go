package usecase

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/xavierca1/tork-crm/internal/entity"
	"github.com/xavierca1/tork-crm/internal/infra/queue"
)

// Cores do Tailwind usadas no front, traduzidas para hex na criação da label.
var tailwindHex = map[string]string{
	"bg-blue-500":    "#3b82f6",
	"bg-amber-500":   "#f59e0b",
	"bg-purple-500":  "#a855f7",
	"bg-emerald-500": "#10b981",
	"bg-red-500":     "#ef4444",
	"bg-green-500":   "#22c55e",
	"bg-yellow-500":  "#eab308",
	"bg-slate-500":   "#64748b",
}

type ManageStagesUseCase struct {
	Stages  entity.StageRepositoryInterface
	Deals   entity.DealRepositoryInterface
	Tenants entity.TenantRepositoryInterface
	Queue   SyncQueue
	Logger  *zap.Logger
}

func NewManageStagesUseCase(
	stages entity.StageRepositoryInterface,
	deals entity.DealRepositoryInterface,
	tenants entity.TenantRepositoryInterface,
	q SyncQueue,
	logger *zap.Logger,
) *ManageStagesUseCase {
	return &ManageStagesUseCase{Stages: stages, Deals: deals, Tenants: tenants, Queue: q, Logger: logger}
}

// List devolve os estágios por ordem, semeando o funil padrão quando a tabela está vazia.
func (uc *ManageStagesUseCase) List(ctx context.Context) ([]entity.Stage, error) {
	stages, err := uc.Stages.ListOrdered(ctx)
	if err != nil {
		return nil, persistenceError("listando estágios", err)
	}
	if len(stages) > 0 {
		return stages, nil
	}

	if err := uc.Stages.SeedDefaults(ctx, entity.DefaultStages()); err != nil {
		return nil, persistenceError("semeando estágios padrão", err)
	}
	uc.Logger.Info("🌱 estágios padrão criados")

	stages, err = uc.Stages.ListOrdered(ctx)
	if err != nil {
		return nil, persistenceError("listando estágios", err)
	}
	return stages, nil
}

func (uc *ManageStagesUseCase) Create(ctx context.Context, in CreateStageInput) (*entity.Stage, error) {
	stage := &entity.Stage{
		Name:      strings.TrimSpace(in.Name),
		Slug:      strings.ToLower(strings.TrimSpace(in.Slug)),
		Color:     strings.TrimSpace(in.Color),
		IsDefault: in.IsDefault,
	}
	if stage.Color == "" {
		stage.Color = "bg-slate-500"
	}
	if err := stage.Validate(); err != nil {
		return nil, &DomainError{Code: CodeValidation, Message: err.Error()}
	}

	if in.Order != nil {
		stage.Order = *in.Order
	} else {
		existing, err := uc.Stages.ListOrdered(ctx)
		if err != nil {
			return nil, persistenceError("listando estágios", err)
		}
		stage.Order = nextOrder(existing)
	}

	if err := uc.Stages.Create(ctx, stage); err != nil {
		if errors.Is(err, entity.ErrStageSlugTaken) {
			return nil, &DomainError{Code: CodeConflict, Message: "slug já está em uso"}
		}
		return nil, persistenceError("criando estágio", err)
	}

	uc.enqueueLabel(ctx, stage)
	return stage, nil
}

// enqueueLabel agenda a criação da label em todos os tenants. Falha aqui não desfaz o estágio.
func (uc *ManageStagesUseCase) enqueueLabel(ctx context.Context, stage *entity.Stage) {
	tenants, err := uc.Tenants.List(ctx)
	if err != nil {
		uc.Logger.Warn("não foi possível listar tenants para criar label", zap.String("slug", stage.Slug), zap.Error(err))
		return
	}

	color := stage.Color
	if hex, ok := tailwindHex[color]; ok {
		color = hex
	}
	for _, t := range tenants {
		job := queue.NewCreateLabelJob(t.AccountKey, stage.Slug, color)
		if err := uc.Queue.Enqueue(ctx, job); err != nil {
			uc.Logger.Warn("falha ao enfileirar criação de label",
				zap.Int64("account_key", t.AccountKey), zap.String("slug", stage.Slug), zap.Error(err))
		}
	}
}

// Update altera nome, cor e ordem. O slug é imutável porque é a label no Chatwoot.
func (uc *ManageStagesUseCase) Update(ctx context.Context, id int64, in UpdateStageInput) (*entity.Stage, error) {
	stage, err := uc.findStage(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		stage.Name = strings.TrimSpace(*in.Name)
	}
	if in.Color != nil {
		stage.Color = strings.TrimSpace(*in.Color)
	}
	if in.Order != nil {
		stage.Order = *in.Order
	}
	if err := stage.Validate(); err != nil {
		return nil, &DomainError{Code: CodeValidation, Message: err.Error()}
	}

	if err := uc.Stages.Update(ctx, stage); err != nil {
		if errors.Is(err, entity.ErrStageNotFound) {
			return nil, &DomainError{Code: CodeNotFound, Message: err.Error()}
		}
		return nil, persistenceError("atualizando estágio", err)
	}
	return stage, nil
}

func (uc *ManageStagesUseCase) Delete(ctx context.Context, id int64) error {
	stage, err := uc.findStage(ctx, id)
	if err != nil {
		return err
	}
	if stage.IsDefault {
		return &DomainError{Code: CodeConflict, Message: entity.ErrDefaultStage.Error()}
	}

	count, err := uc.Deals.CountByStatus(ctx, stage.Slug)
	if err != nil {
		return persistenceError("contando negócios do estágio", err)
	}
	if count > 0 {
		return &DomainError{Code: CodeConflict, Message: entity.ErrStageInUse.Error()}
	}

	if err := uc.Stages.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, entity.ErrStageNotFound):
			return &DomainError{Code: CodeNotFound, Message: err.Error()}
		case errors.Is(err, entity.ErrStageInUse):
			return &DomainError{Code: CodeConflict, Message: err.Error()}
		}
		return persistenceError("removendo estágio", err)
	}
	return nil
}

func (uc *ManageStagesUseCase) findStage(ctx context.Context, id int64) (*entity.Stage, error) {
	stage, err := uc.Stages.FindByID(ctx, id)
	if errors.Is(err, entity.ErrStageNotFound) {
		return nil, &DomainError{Code: CodeNotFound, Message: err.Error()}
	}
	if err != nil {
		return nil, persistenceError("buscando estágio", err)
	}
	return stage, nil
}

func nextOrder(stages []entity.Stage) int {
	max := 0
	for _, s := range stages {
		if s.Order > max {
			max = s.Order
		}
	}
	return max + 1
}
