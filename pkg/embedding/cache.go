package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// CacheConfig is loaded without a prefix. An empty RedisURL disables caching.
type CacheConfig struct {
	RedisURL string        `envconfig:"REDIS_URL"`
	TTL      time.Duration `envconfig:"EMBEDDING_CACHE_TTL" default:"24h"`
}

type Cache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, vec []float32) error
}

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisCache{rdb: redis.NewClient(opts), ttl: ttl}, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	vec, err := decodeVector(raw)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, vec []float32) error {
	return c.rdb.Set(ctx, key, encodeVector(vec), c.ttl).Err()
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("corrupt cached vector: %d bytes", len(raw))
	}
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return vec, nil
}

// CachedEmbedder consults the cache per text and embeds the misses in one batch.
// Cache failures are logged and treated as misses.
type CachedEmbedder struct {
	next  Embedder
	cache Cache
	model string
}

func NewCachedEmbedder(next Embedder, cache Cache, model string) *CachedEmbedder {
	return &CachedEmbedder{next: next, cache: cache, model: model}
}

func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var (
		missIdx   []int
		missTexts []string
	)

	for i, text := range texts {
		vec, ok, err := e.cache.Get(ctx, e.key(text))
		if err != nil {
			log.Warn().Err(err).Msg("embedding cache read failed")
		}
		if ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := e.next.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embed: expected %d vectors, got %d", len(missTexts), len(vecs))
	}
	for j, idx := range missIdx {
		out[idx] = vecs[j]
		if err := e.cache.Set(ctx, e.key(texts[idx]), vecs[j]); err != nil {
			log.Warn().Err(err).Msg("embedding cache write failed")
		}
	}
	return out, nil
}

func (e *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(e.model + "\x00" + text))
	return "embedding:" + hex.EncodeToString(sum[:])
}

// WithRedisCache wraps next in a Redis cache when cfg names one. An
// unreachable Redis is logged and next is returned unwrapped. The returned
// func releases the connection.
func WithRedisCache(ctx context.Context, next Embedder, model string, cfg CacheConfig) (Embedder, func() error) {
	noop := func() error { return nil }
	if cfg.RedisURL == "" {
		return next, noop
	}
	cache, err := NewRedisCache(cfg.RedisURL, cfg.TTL)
	if err != nil {
		log.Warn().Err(err).Msg("embedding cache disabled")
		return next, noop
	}
	if err := cache.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("embedding cache unreachable, disabled")
		_ = cache.Close()
		return next, noop
	}
	log.Info().Dur("ttl", cfg.TTL).Msg("embedding cache enabled")
	return NewCachedEmbedder(next, cache, model), cache.Close
}
