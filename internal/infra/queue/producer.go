package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	KindReverseSync = "reverse_sync"
	KindCreateLabel = "create_label"
)

var ErrQueueFull = errors.New("fila de sincronização cheia")

// SyncJob é uma tarefa de sincronização CRM -> Chatwoot.
type SyncJob struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	AccountKey int64     `json:"account_key"`
	DealID     string    `json:"deal_id,omitempty"`
	Label      string    `json:"label,omitempty"`
	Color      string    `json:"color,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

func NewReverseSyncJob(accountKey int64, dealID, stageSlug string) SyncJob {
	return SyncJob{
		ID:         uuid.New().String(),
		Kind:       KindReverseSync,
		AccountKey: accountKey,
		DealID:     dealID,
		Label:      stageSlug,
		EnqueuedAt: time.Now().UTC(),
	}
}

func NewCreateLabelJob(accountKey int64, label, color string) SyncJob {
	return SyncJob{
		ID:         uuid.New().String(),
		Kind:       KindCreateLabel,
		AccountKey: accountKey,
		Label:      label,
		Color:      color,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Handler processa um job. Erro significa falha definitiva (sem retry).
type Handler func(ctx context.Context, job SyncJob) error

type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch Publisher
}

func NewProducer(ch Publisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) Enqueue(ctx context.Context, job SyncJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("erro ao converter job: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    job.ID,
			Type:         job.Kind,
			Timestamp:    job.EnqueuedAt,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("falha ao publicar no RabbitMQ: %w", err)
	}
	return nil
}
