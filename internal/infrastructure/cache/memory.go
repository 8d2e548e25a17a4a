package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	"golang.org/x/sync/singleflight"
)

type memoryCache struct {
	store      *gocache.Cache
	logger     logging.Logger
	serializer Serializer
	group      singleflight.Group
}

// NewMemoryCache builds an in-process Cache.  Entries are stored serialized so
// callers never share mutable values.
func NewMemoryCache(defaultTTL, cleanupInterval time.Duration, log logging.Logger) Cache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &memoryCache{
		store:      gocache.New(defaultTTL, cleanupInterval),
		logger:     log,
		serializer: jsonSerializer{},
	}
}

func (c *memoryCache) Name() string { return BackendMemory }

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := c.store.Get(key)
	if !ok {
		return ErrCacheMiss
	}
	data, ok := raw.([]byte)
	if !ok {
		return ErrCacheMiss
	}
	if err := c.serializer.Unmarshal(data, dest); err != nil {
		return ErrSerializationFailed.WithCause(err)
	}
	return nil
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := c.serializer.Marshal(value)
	if err != nil {
		return ErrSerializationFailed.WithCause(err)
	}
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.store.Set(key, data, ttl)
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.store.Delete(k)
	}
	return nil
}

func (c *memoryCache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader Loader) (Source, error) {
	if err := c.Get(ctx, key, dest); err == nil {
		return SourceStore, nil
	}

	src := SourceShared
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		src = SourceLoader
		v, loadErr := loader(ctx)
		if loadErr != nil || v == nil {
			return v, loadErr
		}
		if setErr := c.Set(ctx, key, v, ttl); setErr != nil {
			c.logger.Warn("Failed to set cache in GetOrSet", logging.String("key", key), logging.Err(setErr))
		}
		return v, nil
	})
	if err != nil {
		return src, err
	}
	if val == nil {
		return src, ErrCacheMiss
	}
	return src, decodeInto(c.serializer, val, dest)
}

func (c *memoryCache) Ping(context.Context) error { return nil }

// ItemCount reports the number of live entries, including expired entries
// not yet cleaned up.
func (c *memoryCache) ItemCount() int { return c.store.ItemCount() }
