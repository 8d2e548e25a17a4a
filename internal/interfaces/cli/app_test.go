package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molview/internal/application/analysis"
	"github.com/turtacn/molview/internal/application/viewer"
	"github.com/turtacn/molview/internal/config"
	"github.com/turtacn/molview/internal/infrastructure/cache"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molview/pkg/client"
	"github.com/turtacn/molview/pkg/types/molecule"
)

func TestNewRemote_NoneReturnsBase(t *testing.T) {
	c, err := client.NewClient("http://localhost:8000")
	require.NoError(t, err)
	cfg := config.Default()

	remote, closeFn, err := newRemote(context.Background(), cfg, c, logging.NewNopLogger(), nil)
	require.NoError(t, err)
	assert.Same(t, c, remote)
	assert.NoError(t, closeFn())
}

func TestNewRemote_MemoryCachesParse(t *testing.T) {
	svc := newFakeService(t, true)
	c, err := client.NewClient(svc.URL, client.WithRetryMax(0))
	require.NoError(t, err)
	cfg := config.Default()
	cfg.Cache.Backend = cache.BackendMemory

	remote, closeFn, err := newRemote(context.Background(), cfg, c, logging.NewNopLogger(), nil)
	require.NoError(t, err)
	defer closeFn()
	_, isCaching := remote.(*analysis.CachingRemote)
	require.True(t, isCaching)

	for i := 0; i < 3; i++ {
		rec, err := remote.Parse(context.Background(), "CCO")
		require.NoError(t, err)
		assert.Equal(t, "C2H6O", rec.Formula)
	}
	assert.EqualValues(t, 1, svc.count("/api/parse"))
}

func TestNewRemote_RedisUnreachable(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Backend = cache.BackendRedis
	cfg.Redis.Addr = "127.0.0.1:1"
	cfg.Redis.DialTimeout = 200 * time.Millisecond

	c, err := client.NewClient("http://localhost:8000")
	require.NoError(t, err)
	_, _, err = newRemote(context.Background(), cfg, c, logging.NewNopLogger(), nil)
	assert.Error(t, err)
}

func TestNewRemote_UnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Backend = "memcached"

	_, _, err := newRemote(context.Background(), cfg, nil, logging.NewNopLogger(), nil)
	assert.Error(t, err)
}

func TestNewSessionDeps(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.Forcefield = "MMFF"
	cfg.Viewer.DefaultStyle = "sphere"
	cfg.Upload.MaxSize = 2048

	deps, err := newSessionDeps(cfg, nil, logging.NewNopLogger(), nil)
	require.NoError(t, err)
	assert.Equal(t, molecule.ForcefieldMMFF, deps.Forcefield)
	assert.Equal(t, viewer.StyleSphere, deps.ViewerDefaultStyle)
	assert.EqualValues(t, 2048, deps.MaxUploadSize)
	assert.Equal(t, cfg.Presenter.NotificationTTL, deps.NotificationTTL)

	cfg.Pipeline.Forcefield = "GAFF"
	_, err = newSessionDeps(cfg, nil, logging.NewNopLogger(), nil)
	assert.Error(t, err)
}

func TestNewMetrics(t *testing.T) {
	collector, metrics, err := newMetrics(config.MetricsConfig{Enabled: false}, logging.NewNopLogger())
	require.NoError(t, err)
	assert.Nil(t, collector)
	assert.NotNil(t, metrics)

	collector, metrics, err = newMetrics(config.MetricsConfig{Enabled: true, Namespace: "molview_test"}, logging.NewNopLogger())
	require.NoError(t, err)
	assert.NotNil(t, collector)
	assert.NotNil(t, metrics)
}
