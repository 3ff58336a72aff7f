package infra

import (
	"context"
	"encoding/json"
	"time"

	"github.com/karlseguin/ccache/v3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/MioNatsuki/sistema-emision/internal/model"
)

const columnasKeyPrefix = "padron:columnas:"

// ColumnasCache is a two-level read-through cache for register column lists:
// an in-process ccache in front of Redis. Failures on either level are logged
// and treated as a miss. Repeated Redis failures open a breaker and the cache
// runs local-only until the breaker lets a trial call through.
type ColumnasCache struct {
	local   *ccache.Cache[[]model.ColumnaPadron]
	rdb     *redis.Client
	breaker *CircuitBreaker
	ttl     time.Duration
}

// NewColumnasCache builds the cache. rdb may be nil to run with the local level only.
func NewColumnasCache(rdb *redis.Client, ttl time.Duration) *ColumnasCache {
	return &ColumnasCache{
		local: ccache.New(ccache.Configure[[]model.ColumnaPadron]().MaxSize(100)),
		rdb:     rdb,
		breaker: NewCircuitBreaker(DefaultCBConfig()),
		ttl:     ttl,
	}
}

func (c *ColumnasCache) Get(ctx context.Context, padron string) ([]model.ColumnaPadron, bool) {
	key := columnasKeyPrefix + padron

	if item := c.local.Get(key); item != nil && !item.Expired() {
		return item.Value(), true
	}
	if c.rdb == nil {
		return nil, false
	}

	var b []byte
	err := c.breaker.Execute(func() error {
		var err error
		b, err = c.rdb.Get(ctx, key).Bytes()
		return err
	}, esMiss)
	if err != nil {
		if err != redis.Nil && err != ErrCircuitOpen {
			log.Warn().Err(err).Str("key", key).Msg("cache: lectura redis fallida")
		}
		return nil, false
	}
	var cols []model.ColumnaPadron
	if err := json.Unmarshal(b, &cols); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: valor redis invalido")
		return nil, false
	}
	c.local.Set(key, cols, c.ttl)
	return cols, true
}

func (c *ColumnasCache) Set(ctx context.Context, padron string, cols []model.ColumnaPadron) {
	key := columnasKeyPrefix + padron
	c.local.Set(key, cols, c.ttl)
	if c.rdb == nil {
		return
	}
	b, err := json.Marshal(cols)
	if err != nil {
		return
	}
	err = c.breaker.Execute(func() error {
		return c.rdb.Set(ctx, key, b, c.ttl).Err()
	})
	if err != nil && err != ErrCircuitOpen {
		log.Warn().Err(err).Str("key", key).Msg("cache: escritura redis fallida")
	}
}

func esMiss(err error) bool { return err == redis.Nil }
