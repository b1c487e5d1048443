package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfbgull/mini-erp-sub003/internal/application/ports"
	infraredis "github.com/mfbgull/mini-erp-sub003/internal/infrastructure/redis"
	"github.com/mfbgull/mini-erp-sub003/pkg/config"
)

// Requiere un Redis real: REDIS_TEST_ADDR=localhost:6379 go test ./internal/infrastructure/redis/...
func newStore(t *testing.T) *infraredis.IdempotencyStore {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR no definido")
	}
	rdb, err := infraredis.NewClient(context.Background(), config.RedisConfig{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return infraredis.NewIdempotencyStore(rdb)
}

func TestIdempotencyStore_GuardaYRecupera(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	key := "POST /api/movements " + uuid.NewString()

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)

	want := ports.StoredResponse{Status: 201, ContentType: "application/json", Body: []byte(`{"movement_no":1}`)}
	require.NoError(t, s.Save(ctx, key, want, time.Minute))
	got, err = s.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)
}

func TestIdempotencyStore_LockExclusivo(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	key := "POST /api/productions " + uuid.NewString()

	release, err := s.Lock(ctx, key, time.Minute)
	require.NoError(t, err)

	_, err = s.Lock(ctx, key, time.Minute)
	assert.ErrorIs(t, err, ports.ErrIdempotencyInFlight)

	require.NoError(t, release(ctx))
	release2, err := s.Lock(ctx, key, time.Minute)
	require.NoError(t, err)
	require.NoError(t, release2(ctx))
}
