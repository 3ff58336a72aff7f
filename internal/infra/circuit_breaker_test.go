package infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MioNatsuki/sistema-emision/internal/model"
)

var errBackend = errors.New("backend caido")

func TestCircuitBreaker_Transitions(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, OpenTimeout: time.Minute})
	cb.now = func() time.Time { return now }

	fail := func() error { return errBackend }
	ok := func() error { return nil }

	assert.ErrorIs(t, cb.Execute(fail), errBackend)
	assert.Equal(t, CBClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(fail), errBackend)
	assert.Equal(t, CBOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	now = now.Add(time.Minute)
	assert.Equal(t, CBHalfOpen, cb.State())

	// A failed trial call reopens.
	assert.ErrorIs(t, cb.Execute(fail), errBackend)
	assert.Equal(t, CBOpen, cb.State())

	now = now.Add(time.Minute)
	require.NoError(t, cb.Execute(ok))
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreaker_IgnoredErrors(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1})
	miss := func() error { return redis.Nil }

	for i := 0; i < 3; i++ {
		assert.Equal(t, redis.Nil, cb.Execute(miss, esMiss))
	}
	assert.Equal(t, CBClosed, cb.State())
}

func TestColumnasCache_RedisDownFallsBackToLocal(t *testing.T) {
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	c := NewColumnasCache(rdb, time.Minute)
	for i := 0; i < DefaultCBConfig().FailureThreshold; i++ {
		_, ok := c.Get(ctx, "PENSIONES")
		assert.False(t, ok)
	}
	assert.Equal(t, CBOpen, c.breaker.State())

	cols := []model.ColumnaPadron{{NombreColumna: "cuenta", TipoDato: "text"}}
	c.Set(ctx, "PENSIONES", cols)
	got, ok := c.Get(ctx, "PENSIONES")
	require.True(t, ok)
	assert.Equal(t, cols, got)
}
