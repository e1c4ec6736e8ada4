package dedup

import (
	"context"
	"fmt"
	"time"
)

const DefaultTTL = 15 * time.Second

// Gate é a trava curta contra entregas duplicadas do mesmo evento.
// Acquire precisa ser atômico (set-if-absent + TTL numa operação só).
type Gate interface {
	// Acquire devolve true quando a marca foi criada agora (evento novo).
	Acquire(ctx context.Context, key string) (bool, error)
	// Release apaga a marca para que um retry do remetente seja processado.
	Release(ctx context.Context, key string) error
}

// Key monta {namespace}:{conta}:{conversa}; o namespace carrega a classe do evento.
func Key(eventClass string, accountID, conversationID int64) string {
	return fmt.Sprintf("lock:%s:%d:%d", eventClass, accountID, conversationID)
}
