// Package lock adapta bsm/redislock al puerto DocumentLocker.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/acrilstock-api/internal/application/ports"
)

const keyPrefix = "acrilstock:document:"

var _ ports.DocumentLocker = (*RedisLocker)(nil)

// RedisLocker bloqueo por documento con expiración; si el proceso muere el TTL lo libera.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

// NewRedisClient abre el cliente desde una URL redis:// y verifica la conexión.
func NewRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// NewRedisLocker construye el locker sobre un cliente ya conectado.
func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb), ttl: ttl}
}

// Lock intenta una sola vez; si otro proceso tiene el documento devuelve ports.ErrLockHeld.
func (l *RedisLocker) Lock(ctx context.Context, documentID string) (func(context.Context) error, error) {
	lk, err := l.client.Obtain(ctx, Key(documentID), l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ports.ErrLockHeld
	}
	if err != nil {
		return nil, fmt.Errorf("obtener bloqueo %s: %w", documentID, err)
	}
	return func(ctx context.Context) error {
		if err := lk.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return err
		}
		return nil
	}, nil
}

// Key llave Redis del bloqueo de un documento.
func Key(documentID string) string {
	return keyPrefix + documentID
}
