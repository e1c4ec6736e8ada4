package usecase

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/xavierca1/tork-crm/internal/entity"
	"github.com/xavierca1/tork-crm/internal/infra/queue"
)

// UpdateDealUseCase é a mudança de estágio feita pelo CRM. Quando o status muda,
// agenda o reverse sync e não espera por ele.
type UpdateDealUseCase struct {
	Deals  entity.DealRepositoryInterface
	Stages entity.StageRepositoryInterface
	Queue  SyncQueue
	Logger *zap.Logger
}

func NewUpdateDealUseCase(
	deals entity.DealRepositoryInterface,
	stages entity.StageRepositoryInterface,
	q SyncQueue,
	logger *zap.Logger,
) *UpdateDealUseCase {
	return &UpdateDealUseCase{Deals: deals, Stages: stages, Queue: q, Logger: logger}
}

func (uc *UpdateDealUseCase) Get(ctx context.Context, id string) (*entity.Deal, error) {
	deal, err := uc.Deals.FindByID(ctx, id)
	if errors.Is(err, entity.ErrDealNotFound) {
		return nil, &DomainError{Code: CodeNotFound, Message: err.Error()}
	}
	if err != nil {
		return nil, persistenceError("buscando negócio", err)
	}
	return deal, nil
}

func (uc *UpdateDealUseCase) Execute(ctx context.Context, id string, in UpdateDealInput) (*entity.Deal, error) {
	deal, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := deal.Status

	var patch entity.DealPatch
	if in.Status != nil {
		status := strings.TrimSpace(*in.Status)
		ok, err := uc.stageExists(ctx, status)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &DomainError{Code: CodeValidation, Message: "status não corresponde a nenhum estágio"}
		}
		patch.Status = &status
	}
	if in.Priority != nil {
		if !entity.IsValidPriority(*in.Priority) {
			return nil, &DomainError{Code: CodeValidation, Message: "priority deve ser high, medium ou low"}
		}
		patch.Priority = in.Priority
	}
	if in.Value != nil {
		if *in.Value < 0 {
			return nil, &DomainError{Code: CodeValidation, Message: "value não pode ser negativo"}
		}
		patch.Value = in.Value
	}
	if patch.IsEmpty() {
		return deal, nil
	}

	deal, err = uc.Deals.Update(ctx, id, patch)
	if errors.Is(err, entity.ErrDealNotFound) {
		return nil, &DomainError{Code: CodeNotFound, Message: err.Error()}
	}
	if err != nil {
		return nil, persistenceError("atualizando negócio", err)
	}

	// Só o status pedido neste PATCH dispara sync; mudança vinda do webhook já está no Chatwoot.
	if patch.Status != nil && *patch.Status != previous {
		job := queue.NewReverseSyncJob(deal.AccountKey, deal.ID, *patch.Status)
		if err := uc.Queue.Enqueue(ctx, job); err != nil {
			uc.Logger.Warn("falha ao enfileirar reverse sync", zap.String("deal_id", deal.ID), zap.Error(err))
		}
	}
	return deal, nil
}

func (uc *UpdateDealUseCase) stageExists(ctx context.Context, slug string) (bool, error) {
	stages, err := uc.Stages.ListOrdered(ctx)
	if err != nil {
		return false, persistenceError("listando estágios", err)
	}
	for _, s := range stages {
		if s.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}
