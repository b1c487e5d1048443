package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"

	"github.com/mfbgull/mini-erp-sub003/internal/application/ports"
	"github.com/mfbgull/mini-erp-sub003/pkg/config"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

const keyPrefix = "mini-erp:idem:"

// IdempotencyStore guarda respuestas por Idempotency-Key en Redis y serializa
// las peticiones con la misma llave con redislock.
type IdempotencyStore struct {
	rdb    goredis.UniversalClient
	locker *redislock.Client
}

// NewClient abre la conexión a Redis y verifica con PING.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// NewIdempotencyStore construye el adaptador sobre un cliente existente.
func NewIdempotencyStore(rdb goredis.UniversalClient) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, locker: redislock.New(rdb)}
}

// Get devuelve la respuesta guardada, nil si no existe.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.StoredResponse, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get idempotency key: %w", err)
	}
	var resp ports.StoredResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode idempotency key: %w", err)
	}
	return &resp, nil
}

// Lock toma el candado de la llave sin reintentos; si otra petición lo tiene devuelve ErrIdempotencyInFlight.
func (s *IdempotencyStore) Lock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := s.locker.Obtain(ctx, keyPrefix+"lock:"+key, ttl, nil)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, ports.ErrIdempotencyInFlight
		}
		return nil, fmt.Errorf("lock idempotency key: %w", err)
	}
	return func(ctx context.Context) error {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return fmt.Errorf("release idempotency key: %w", err)
		}
		return nil
	}, nil
}

// Save guarda la respuesta durante ttl.
func (s *IdempotencyStore) Save(ctx context.Context, key string, resp ports.StoredResponse, ttl time.Duration) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode idempotency key: %w", err)
	}
	if err := s.rdb.Set(ctx, keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("save idempotency key: %w", err)
	}
	return nil
}
