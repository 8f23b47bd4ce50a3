// Package redis guarda claves de idempotencia de recepciones en Redis.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/megaventa/pos-api/pkg/config"
)

const defaultKeyPrefix = "pos:idem:"

// IdempotencyStore reserva claves Idempotency-Key por tenant con SETNX y TTL.
type IdempotencyStore struct {
	client    *goredis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewIdempotencyStore conecta con Redis y verifica la conexión.
func NewIdempotencyStore(ctx context.Context, cfg config.RedisConfig) (*IdempotencyStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("conectar a Redis: %w", err)
	}
	return NewIdempotencyStoreWithClient(client, cfg.IdempotencyTTL), nil
}

// NewIdempotencyStoreWithClient usa un cliente existente (pruebas o cliente compartido).
func NewIdempotencyStoreWithClient(client *goredis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{client: client, keyPrefix: defaultKeyPrefix, ttl: ttl}
}

func (s *IdempotencyStore) key(tenantID uuid.UUID, key string) string {
	return s.keyPrefix + tenantID.String() + ":" + key
}

// Acquire reserva la clave. false indica que ya estaba tomada (petición repetida).
func (s *IdempotencyStore) Acquire(ctx context.Context, tenantID uuid.UUID, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(tenantID, key), time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reservar clave de idempotencia: %w", err)
	}
	return ok, nil
}

// Release libera la clave para permitir reintentos (la operación falló completa).
func (s *IdempotencyStore) Release(ctx context.Context, tenantID uuid.UUID, key string) error {
	if err := s.client.Del(ctx, s.key(tenantID, key)).Err(); err != nil {
		return fmt.Errorf("liberar clave de idempotencia: %w", err)
	}
	return nil
}

// Close cierra el cliente de Redis.
func (s *IdempotencyStore) Close() error {
	return s.client.Close()
}
