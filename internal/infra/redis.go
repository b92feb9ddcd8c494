package infra

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// NewRedis creates and validates a go-redis client connection.
func NewRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)

	// Validate connectivity at startup
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return rdb, nil
}

// PrecioCacheTTL bounds how stale a public price check can be.
const PrecioCacheTTL = time.Hour

const precioKeyPrefix = "precio:"

// ProductCache is the cache-aside store behind GET /v1/precio/:codigo.
// A nil *ProductCache, or one built on a nil client, behaves as an always-empty
// cache so tests and Redis-less setups need no special casing.
type ProductCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewProductCache(rdb *redis.Client) *ProductCache {
	return &ProductCache{rdb: rdb, ttl: PrecioCacheTTL}
}

func (c *ProductCache) enabled() bool { return c != nil && c.rdb != nil }

// Get decodes the entry for codigo into dest. found is false on a miss.
func (c *ProductCache) Get(ctx context.Context, codigo string, dest any) (found bool) {
	if !c.enabled() {
		return false
	}
	raw, err := c.rdb.Get(ctx, precioKeyPrefix+codigo).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("codigo", codigo).Msg("price cache: get failed")
		}
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// Set stores v for codigo. Failures are logged, never returned.
func (c *ProductCache) Set(ctx context.Context, codigo string, v any) {
	if !c.enabled() {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, precioKeyPrefix+codigo, b, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("codigo", codigo).Msg("price cache: set failed")
	}
}

// Invalidate drops the entries for the given codes; empty codes are skipped.
func (c *ProductCache) Invalidate(ctx context.Context, codigos ...string) {
	if !c.enabled() {
		return
	}
	keys := make([]string, 0, len(codigos))
	for _, cod := range codigos {
		if cod != "" {
			keys = append(keys, precioKeyPrefix+cod)
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("price cache: invalidate failed")
	}
}
