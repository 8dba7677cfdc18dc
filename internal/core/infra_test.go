// AngelaMos | 2026
// infra_test.go

package core

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/config"
)

func TestRedisPingAndStats(t *testing.T) {
	mr := miniredis.RunT(t)
	r := WrapRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	require.NoError(t, r.Ping(context.Background()))
	assert.NotNil(t, r.PoolStats())

	mr.Close()
	assert.Error(t, r.Ping(context.Background()))
	assert.NoError(t, r.Close())
}

func TestNewRedisNamesClient(t *testing.T) {
	mr := miniredis.RunT(t)

	r, err := NewRedis(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	assert.Equal(t, "storefront", r.Client.Options().ClientName)
	assert.Positive(t, r.Client.Options().PoolSize)

	_, err = NewRedis(context.Background(), config.RedisConfig{URL: "not a url"})
	assert.Error(t, err)
}

func TestDisabledTelemetryStillTraces(t *testing.T) {
	tel, err := NewTelemetry(context.Background(),
		config.OtelConfig{ServiceName: "storefront-api"},
		config.AppConfig{Version: "test"})
	require.NoError(t, err)

	ctx, span := tel.Tracer("order").Start(context.Background(), "order.create")
	AddSpanEvent(ctx, "order.created")
	assert.Len(t, TraceIDFromContext(ctx), 32)
	span.End()

	assert.Empty(t, TraceIDFromContext(context.Background()))
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestOutdatedPasswordHashIsUpgraded(t *testing.T) {
	weak := argonParams{memory: 8 * 1024, time: 1, threads: 1, keyLen: 32}
	salt := []byte("0123456789abcdef")
	old := weak.encode(salt, weak.derive("hunter22", salt))

	ok, upgraded, err := VerifyPasswordTimingSafe("hunter22", &old)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotEmpty(t, upgraded)

	p, _, _, err := parsePasswordHash(upgraded)
	require.NoError(t, err)
	assert.Equal(t, passwordParams, p)

	ok, upgraded, err = VerifyPasswordTimingSafe("hunter22", &upgraded)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, upgraded)

	ok, _, err = VerifyPasswordTimingSafe("hunter22", nil)
	require.NoError(t, err)
	assert.False(t, ok)

	bad := "$argon2id$v=1$m=1,t=1,p=1$x$y"
	_, _, err = VerifyPasswordTimingSafe("hunter22", &bad)
	assert.ErrorIs(t, err, ErrMalformedHash)
}
