package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	molerrors "github.com/turtacn/molview/pkg/errors"
)

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, opts...)
	require.NoError(t, err)
	return client
}

type testLogger struct {
	lastMsg string
	count   int32
}

func (l *testLogger) Debugf(format string, args ...interface{}) { l.log(format, args...) }
func (l *testLogger) Infof(format string, args ...interface{})  { l.log(format, args...) }
func (l *testLogger) Errorf(format string, args ...interface{}) { l.log(format, args...) }

func (l *testLogger) log(format string, args ...interface{}) {
	atomic.AddInt32(&l.count, 1)
	l.lastMsg = fmt.Sprintf(format, args...)
}

// ---------------------------------------------------------------------------
// Constructor Tests
// ---------------------------------------------------------------------------

func TestNewClient_Success(t *testing.T) {
	c, err := NewClient("http://localhost:8000")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", c.BaseURL())
	assert.Equal(t, 0, c.retryMax, "calls are single-shot by default")
	assert.Zero(t, c.httpClient.Timeout)
}

func TestNewClient_EmptyBaseURL(t *testing.T) {
	_, err := NewClient("")
	assert.ErrorIs(t, err, molerrors.ErrInvalidConfig)
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := NewClient("ftp://localhost")
	assert.ErrorIs(t, err, molerrors.ErrInvalidConfig)

	_, err = NewClient("://bad")
	assert.ErrorIs(t, err, molerrors.ErrInvalidConfig)
}

func TestNewClient_BaseURLTrailingSlash(t *testing.T) {
	c, err := NewClient("http://localhost:8000/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", c.BaseURL())
}

// ---------------------------------------------------------------------------
// do() Tests
// ---------------------------------------------------------------------------

func TestClient_Do_RequestHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Contains(t, r.Header.Get("User-Agent"), "molview-go/")
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, c.post(context.Background(), "test", map[string]string{"a": "b"}, nil))
}

func TestClient_Do_RequestID_Unique(t *testing.T) {
	seen := make(chan string, 2)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get("X-Request-ID")
	})
	require.NoError(t, c.get(context.Background(), "/a", nil))
	require.NoError(t, c.get(context.Background(), "/b", nil))
	assert.NotEqual(t, <-seen, <-seen)
}

func TestClient_Do_4xxError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid smiles"}`))
	})
	err := c.get(context.Background(), "/test", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "invalid smiles", apiErr.Message)
	assert.NotEmpty(t, apiErr.RequestID)
}

func TestClient_Do_SingleShotByDefault(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.Error(t, c.get(context.Background(), "/test", nil))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_Do_5xxRetryWhenEnabled(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}, WithRetryMax(3), WithRetryWait(time.Millisecond, 2*time.Millisecond))

	assert.NoError(t, c.get(context.Background(), "/test", nil))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_Do_4xxNeverRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}, WithRetryMax(3), WithRetryWait(time.Millisecond, 2*time.Millisecond))

	assert.Error(t, c.get(context.Background(), "/test", nil))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_Do_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	logger := &testLogger{}
	c, err := NewClient(server.URL, WithLogger(logger))
	require.NoError(t, err)
	assert.Error(t, c.get(context.Background(), "/test", nil))
	assert.Greater(t, atomic.LoadInt32(&logger.count), int32(0))
}

func TestClient_Do_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	assert.ErrorIs(t, c.get(ctx, "/test", nil), context.Canceled)
}

func TestClient_Do_MalformedSuccessBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})
	var out map[string]interface{}
	assert.Error(t, c.get(context.Background(), "/test", &out))
}

// ---------------------------------------------------------------------------
// Error body extraction
// ---------------------------------------------------------------------------

func TestExtractErrorMessage(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"proxy error", `{"error":"invalid smiles"}`, "invalid smiles"},
		{"service detail", `{"detail":"SMILES required"}`, "SMILES required"},
		{"validation detail", `{"detail":[{"loc":["body","smiles"],"msg":"field required"}]}`, "field required"},
		{"message field", `{"message":"boom"}`, "boom"},
		{"empty", ``, ""},
		{"not json", `<html>502</html>`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractErrorMessage([]byte(tc.body)))
		})
	}
}

func TestAPIError_Methods(t *testing.T) {
	e404 := &APIError{StatusCode: 404}
	assert.True(t, e404.IsNotFound())
	assert.False(t, e404.IsServerError())

	e502 := &APIError{StatusCode: 502, Message: "bad gateway", RequestID: "r1"}
	assert.True(t, e502.IsServerError())
	assert.Contains(t, e502.Error(), "bad gateway")
	assert.Contains(t, e502.Error(), "r1")
}
