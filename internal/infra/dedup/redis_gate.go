package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGate é o backend compartilhado entre instâncias.
type RedisGate struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGate(client *redis.Client, ttl time.Duration) *RedisGate {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisGate{client: client, ttl: ttl}
}

// NewRedisClient abre e testa a conexão a partir de uma URL redis://.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("REDIS_URL inválida: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("falha ao conectar no Redis: %w", err)
	}
	return client, nil
}

func (g *RedisGate) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, key, "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis SETNX %s: %w", key, err)
	}
	return ok, nil
}

func (g *RedisGate) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, key).Err()
}

func (g *RedisGate) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}
