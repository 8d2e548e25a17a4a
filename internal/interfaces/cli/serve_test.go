package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molview/internal/config"
	"github.com/turtacn/molview/internal/testutil"
	"github.com/turtacn/molview/pkg/client"
)

func newTestCLIContext(t *testing.T, baseURL string) (*CLIContext, *testutil.MockLogger) {
	t.Helper()
	cfg := config.Default()
	cfg.Service.BaseURL = baseURL
	c, err := client.NewClient(baseURL, client.WithRetryMax(0))
	require.NoError(t, err)
	log := testutil.NewMockLogger()
	return &CLIContext{Config: cfg, Logger: log, Client: c, OutputFormat: "text"}, log
}

func TestNewAPIServer_Routes(t *testing.T) {
	svc := newFakeService(t, true)
	cliCtx, _ := newTestCLIContext(t, svc.URL)
	cliCtx.Config.Metrics.Enabled = true
	cliCtx.Config.Server.CORSOrigins = []string{"https://app.example.com"}

	app, err := newAPIServer(context.Background(), cliCtx)
	require.NoError(t, err)
	defer app.Close()
	h := app.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, app.registry.Count())

	req := httptest.NewRequest(http.MethodGet, "/api/examples", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "molview_sessions_active 1")
}

func TestNewAPIServer_MetricsDisabled(t *testing.T) {
	svc := newFakeService(t, true)
	cliCtx, _ := newTestCLIContext(t, svc.URL)

	app, err := newAPIServer(context.Background(), cliCtx)
	require.NoError(t, err)
	defer app.Close()

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewAPIServer_InvalidViewerStyle(t *testing.T) {
	svc := newFakeService(t, true)
	cliCtx, _ := newTestCLIContext(t, svc.URL)
	cliCtx.Config.Viewer.DefaultStyle = "ribbon"

	_, err := newAPIServer(context.Background(), cliCtx)
	assert.Error(t, err)
}

func TestNewAPIServer_RequiresClient(t *testing.T) {
	cliCtx, _ := newTestCLIContext(t, "http://localhost:8000")
	cliCtx.Client = nil

	_, err := newAPIServer(context.Background(), cliCtx)
	assert.Error(t, err)
}

func TestAPIServer_Reload(t *testing.T) {
	svc := newFakeService(t, true)
	cliCtx, log := newTestCLIContext(t, svc.URL)

	app, err := newAPIServer(context.Background(), cliCtx)
	require.NoError(t, err)
	defer app.Close()

	s := app.registry.Create()
	next := config.Default()
	next.Presenter.NotificationTTL = 20 * time.Millisecond
	app.Reload(next)

	assert.True(t, log.HasMessage("info", "configuration reloaded"))
	s.Presenter.Notifier.Info("reloaded")
	assert.Eventually(t, func() bool {
		return len(s.Presenter.Notifier.Active()) == 0
	}, time.Second, 5*time.Millisecond)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestServeCmd_StartsAndStopsOnCancel(t *testing.T) {
	svc := newFakeService(t, true)
	port := freePort(t)
	cfgPath := writeConfig(t, svc.URL, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--no-color", "--config", cfgPath, "serve", "--host", "127.0.0.1", "--port", fmt.Sprint(port), "--watch=false"})
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/healthz", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}
