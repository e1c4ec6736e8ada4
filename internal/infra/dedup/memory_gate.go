package dedup

import (
	"context"
	"sync"
	"time"
)

// MemoryGate serve só para uma instância (dev/testes). Com mais de uma réplica use o Redis.
type MemoryGate struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryGate(ttl time.Duration) *MemoryGate {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryGate{
		entries: make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (g *MemoryGate) Acquire(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if expiresAt, ok := g.entries[key]; ok && now.Before(expiresAt) {
		return false, nil
	}
	g.entries[key] = now.Add(g.ttl)
	return true, nil
}

func (g *MemoryGate) Release(_ context.Context, key string) error {
	g.mu.Lock()
	delete(g.entries, key)
	g.mu.Unlock()
	return nil
}

// StartJanitor remove marcas vencidas até o ctx acabar.
func (g *MemoryGate) StartJanitor(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sweep()
		}
	}
}

func (g *MemoryGate) sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	removed := 0
	for key, expiresAt := range g.entries {
		if !now.Before(expiresAt) {
			delete(g.entries, key)
			removed++
		}
	}
	return removed
}
