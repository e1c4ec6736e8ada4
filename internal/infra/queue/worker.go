package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const jobTimeout = 30 * time.Second

type Worker struct {
	Channel *amqp.Channel
	Handler Handler
	Logger  *zap.Logger
}

func NewWorker(ch *amqp.Channel, handler Handler, logger *zap.Logger) *Worker {
	return &Worker{Channel: ch, Handler: handler, Logger: logger}
}

// Start consome a fila até o ctx ser cancelado ou o canal fechar.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	if err := w.Channel.Qos(8, 0, false); err != nil {
		return fmt.Errorf("falha ao configurar prefetch: %w", err)
	}

	msgs, err := w.Channel.ConsumeWithContext(ctx,
		queueName,
		"",
		false, // ack manual
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("falha ao registrar consumidor RabbitMQ: %w", err)
	}

	w.Logger.Info("worker aguardando na fila", zap.String("queue", queueName))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			w.handleDelivery(ctx, d)
		}
	}
}

func (w *Worker) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var job SyncJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		w.Logger.Error("job com JSON inválido, mandando pra DLQ", zap.Error(err))
		d.Nack(false, false)
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	if err := w.Handler(jobCtx, job); err != nil {
		w.Logger.Warn("❌ falha no job de sincronização",
			zap.String("job_id", job.ID),
			zap.String("kind", job.Kind),
			zap.Int64("account_key", job.AccountKey),
			zap.Error(err),
		)
		d.Nack(false, false)
		return
	}

	w.Logger.Debug("job processado", zap.String("job_id", job.ID), zap.String("kind", job.Kind))
	d.Ack(false)
}
