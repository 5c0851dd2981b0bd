package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/smiles-algebra/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/smiles-algebra/pkg/errors"
)

var ErrCacheMiss = errors.New(errors.ErrCodeNotFound, "cache miss")

// Loader produces the value for a missing key.
type Loader func(ctx context.Context) (interface{}, error)

// Cache stores JSON-encoded values under a common key prefix.
type Cache interface {
	// Get decodes the value at key into dest or returns ErrCacheMiss.
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
	// GetOrLoad serves key from the cache or runs load once for all
	// concurrent callers, stores the result, and decodes it into dest.
	// Cache failures degrade to a load; hit reports whether the value came
	// from Redis.
	GetOrLoad(ctx context.Context, key string, dest interface{}, load Loader) (hit bool, err error)
	// Purge deletes every key under the prefix.
	Purge(ctx context.Context) (int64, error)
}

type redisCache struct {
	client *Client
	logger logging.Logger
	prefix string
	ttl    time.Duration
	group  singleflight.Group
}

type CacheOption func(*redisCache)

func WithPrefix(prefix string) CacheOption {
	return func(c *redisCache) { c.prefix = prefix }
}

func WithTTL(ttl time.Duration) CacheOption {
	return func(c *redisCache) { c.ttl = ttl }
}

// NewRedisCache defaults to the "smiles:report:" prefix and a 24h TTL.
func NewRedisCache(client *Client, log logging.Logger, opts ...CacheOption) Cache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &redisCache{
		client: client,
		logger: log,
		prefix: "smiles:report:",
		ttl:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *redisCache) key(k string) string { return c.prefix + k }

func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, c.key(key))
	if stderrors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache read failed")
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "cached value is corrupt")
	}
	return nil
}

func (c *redisCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "cannot encode cache value")
	}
	if err := c.client.Set(ctx, c.key(key), data, c.ttl); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache write failed")
	}
	return nil
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	if _, err := c.client.Del(ctx, full...); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache delete failed")
	}
	return nil
}

type loaded struct {
	data []byte
	hit  bool
}

func (c *redisCache) GetOrLoad(ctx context.Context, key string, dest interface{}, load Loader) (bool, error) {
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		data, err := c.client.Get(ctx, c.key(key))
		switch {
		case err == nil:
			return loaded{data: data, hit: true}, nil
		case !stderrors.Is(err, redis.Nil):
			c.logger.Warn("cache read failed, loading", logging.String("key", key), logging.Err(err))
		}

		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		data, err = json.Marshal(value)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "cannot encode cache value")
		}
		if err := c.client.Set(ctx, c.key(key), data, c.ttl); err != nil {
			c.logger.Warn("cache write failed", logging.String("key", key), logging.Err(err))
		}
		return loaded{data: data}, nil
	})
	if err != nil {
		return false, err
	}
	res := v.(loaded)
	if err := json.Unmarshal(res.data, dest); err != nil {
		if res.hit {
			// A corrupt entry is dropped so the next call reloads it.
			_ = c.Delete(ctx, key)
		}
		return false, errors.Wrap(err, errors.ErrCodeSerialization, "cached value is corrupt")
	}
	return res.hit, nil
}

func (c *redisCache) Purge(ctx context.Context) (int64, error) {
	var total int64
	err := c.client.Scan(ctx, c.prefix+"*", func(keys []string) error {
		n, err := c.client.Del(ctx, keys...)
		total += n
		return err
	})
	if err != nil {
		return total, errors.Wrap(err, errors.ErrCodeCacheError, "cache purge failed")
	}
	return total, nil
}
