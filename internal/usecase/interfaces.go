package usecase

import (
	"context"

	"github.com/xavierca1/tork-crm/internal/entity"
	"github.com/xavierca1/tork-crm/internal/infra/integration/chatwoot"
	"github.com/xavierca1/tork-crm/internal/infra/queue"
)

// ChatwootAPI é o subconjunto da API do Chatwoot usado pela sincronização.
type ChatwootAPI interface {
	SearchContacts(ctx context.Context, creds entity.Credentials, query string) ([]chatwoot.Contact, error)
	ListOpenConversations(ctx context.Context, creds entity.Credentials, contactID int64) ([]chatwoot.Conversation, error)
	GetConversationLabels(ctx context.Context, creds entity.Credentials, conversationID int64) ([]string, error)
	SetConversationLabels(ctx context.Context, creds entity.Credentials, conversationID int64, labels []string) error
	UpdateContactAttributes(ctx context.Context, creds entity.Credentials, contactID int64, attrs map[string]any) error
	CreateLabel(ctx context.Context, creds entity.Credentials, title, color string) error
}

type SyncQueue interface {
	Enqueue(ctx context.Context, job queue.SyncJob) error
}

// SecretOpener decifra tokens guardados no banco (security.SecretBox).
type SecretOpener interface {
	Open(stored string) (plain string, legacy bool, err error)
}

type DedupGate interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
