package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "parse:CCO", ethanol, 0))

	var got molecule
	require.NoError(t, c.Get(ctx, "parse:CCO", &got))
	assert.Equal(t, ethanol, got)
	assert.Equal(t, BackendMemory, c.Name())
}

func TestMemoryCache_Miss(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute, nil)

	var got molecule
	assert.ErrorIs(t, c.Get(context.Background(), "absent", &got), ErrCacheMiss)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", ethanol, 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	var got molecule
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestMemoryCache_ValuesAreCopies(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute, nil)
	ctx := context.Background()

	desc := map[string]interface{}{"logp": -0.14}
	require.NoError(t, c.Set(ctx, "k", desc, 0))
	desc["logp"] = 99.0

	var got map[string]interface{}
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, -0.14, got["logp"])
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", ethanol, 0))
	require.NoError(t, c.Set(ctx, "b", ethanol, 0))
	require.NoError(t, c.Delete(ctx, "a", "b"))

	assert.Equal(t, 0, c.(*memoryCache).ItemCount())
}

func TestMemoryCache_GetOrSet_SingleLoadUnderConcurrency(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute, nil)
	ctx := context.Background()

	var calls int32
	release := make(chan struct{})
	loader := func(context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return ethanol, nil
	}

	var wg sync.WaitGroup
	results := make([]molecule, 8)
	sources := make([]Source, len(results))
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			sources[i], err = c.GetOrSet(ctx, "parse:CCO", &results[i], 0, loader)
			assert.NoError(t, err)
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	counts := map[Source]int{}
	for i, r := range results {
		assert.Equal(t, ethanol, r)
		counts[sources[i]]++
	}
	assert.Equal(t, map[Source]int{SourceLoader: 1, SourceShared: 7}, counts)

	var again molecule
	src, err := c.GetOrSet(ctx, "parse:CCO", &again, 0, loader)
	require.NoError(t, err)
	assert.Equal(t, SourceStore, src)
}

func TestMemoryCache_GetOrSet_ErrorNotCached(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute, nil)
	ctx := context.Background()

	var got molecule
	src, err := c.GetOrSet(ctx, "k", &got, 0, func(context.Context) (interface{}, error) {
		return nil, assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, SourceLoader, src)

	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestMemoryCache_Ping(t *testing.T) {
	assert.NoError(t, NewMemoryCache(time.Minute, time.Minute, nil).Ping(context.Background()))
}
