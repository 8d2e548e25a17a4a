// Package cache stores successful chemistry-service responses so that
// resubmitting a molecule does not repeat remote work.  Two backends exist:
// an in-process store for a single CLI or server instance and Redis for
// sharing across server replicas.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/turtacn/molview/pkg/errors"
)

var (
	ErrCacheMiss           = errors.New(errors.ErrCodeNotFound, "cache miss")
	ErrSerializationFailed = errors.New(errors.ErrCodeSerialization, "serialization failed")
)

// Backend names accepted by cache.backend.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Loader produces the value for a missing key.  A returned error is passed
// through to the caller and nothing is stored.
type Loader func(ctx context.Context) (interface{}, error)

// Source tells where a GetOrSet value came from.
type Source int

const (
	SourceStore  Source = iota // read from the cache
	SourceLoader               // this caller ran the loader
	SourceShared               // joined another caller's in-flight load
)

func (s Source) String() string {
	switch s {
	case SourceStore:
		return "store"
	case SourceLoader:
		return "loader"
	case SourceShared:
		return "shared"
	default:
		return "unknown"
	}
}

// Cache is a typed key/value store with TTLs.
type Cache interface {
	// Get decodes the value stored under key into dest or returns ErrCacheMiss.
	Get(ctx context.Context, key string, dest interface{}) error

	// Set stores value under key.  A zero ttl means the backend default.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Delete(ctx context.Context, keys ...string) error

	// GetOrSet returns the cached value or calls loader once, even under
	// concurrent callers for the same key, and stores its result.  The
	// Source is meaningful even when an error is returned.
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader Loader) (Source, error)

	// Name identifies the backend in logs and metrics.
	Name() string

	Ping(ctx context.Context) error
}

// Serializer converts values to and from their stored form.
type Serializer interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

type jsonSerializer struct{}

func (jsonSerializer) Marshal(v interface{}) ([]byte, error) { return json.Marshal(v) }

func (jsonSerializer) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }

// decodeInto copies a loader result into dest through the serializer.
func decodeInto(s Serializer, val interface{}, dest interface{}) error {
	data, err := s.Marshal(val)
	if err != nil {
		return ErrSerializationFailed.WithCause(err)
	}
	if err := s.Unmarshal(data, dest); err != nil {
		return ErrSerializationFailed.WithCause(err)
	}
	return nil
}
