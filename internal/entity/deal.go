package entity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDealNotFound      = errors.New("negócio não encontrado")
	ErrDealAlreadyExists = errors.New("já existe negócio para este contato")
)

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Deal é uma oportunidade no funil. Status guarda o slug do estágio atual e não é
// um enum fechado: pode ficar apontando para um estágio que já não existe.
type Deal struct {
	ID             string    `json:"id"`
	AccountKey     int64     `json:"account_key"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Status         string    `json:"status"`
	Value          float64   `json:"value"`
	Priority       string    `json:"priority"`
	ConversationID int64     `json:"conversation_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func NewDeal(accountKey int64, name, email, phone, status string) *Deal {
	now := time.Now()
	return &Deal{
		ID:         uuid.New().String(),
		AccountKey: accountKey,
		Name:       name,
		Email:      email,
		Phone:      phone,
		Status:     status,
		Priority:   PriorityMedium,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// DealPatch leva só o que o PATCH trouxe. Campo nil não toca na coluna.
type DealPatch struct {
	Status   *string
	Value    *float64
	Priority *string
}

func (p DealPatch) IsEmpty() bool {
	return p.Status == nil && p.Value == nil && p.Priority == nil
}

func IsValidPriority(p string) bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

type DealRepositoryInterface interface {
	// FindByContact busca por email OU telefone dentro da conta. Campos vazios não casam.
	FindByContact(ctx context.Context, accountKey int64, email, phone string) (*Deal, error)
	FindByConversationID(ctx context.Context, accountKey, conversationID int64) (*Deal, error)
	FindByID(ctx context.Context, id string) (*Deal, error)
	Create(ctx context.Context, d *Deal) error
	UpdateStatus(ctx context.Context, id, status string) error
	// Update grava só os campos preenchidos e devolve a linha como ficou no banco.
	Update(ctx context.Context, id string, p DealPatch) (*Deal, error)
	LinkConversation(ctx context.Context, id string, conversationID int64) error
	CountByStatus(ctx context.Context, status string) (int, error)
}
