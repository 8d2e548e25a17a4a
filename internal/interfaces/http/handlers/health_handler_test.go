package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molview/internal/application/presenter"
	"github.com/turtacn/molview/pkg/client"
	"github.com/turtacn/molview/pkg/errors"
)

type mockChecker struct{ mock.Mock }

func (m *mockChecker) Health(ctx context.Context) (*client.HealthStatus, error) {
	args := m.Called(ctx)
	resp, _ := args.Get(0).(*client.HealthStatus)
	return resp, args.Error(1)
}

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler("v1.2.3", nil)
	rec := httptest.NewRecorder()

	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "v1.2.3", resp.Version)
}

func TestHealthHandler_ReadinessWithoutMonitor(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler("dev", nil).Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestHealthHandler_Readiness(t *testing.T) {
	checker := &mockChecker{}
	checker.On("Health", mock.Anything).Return(&client.HealthStatus{Status: "healthy"}, nil).Once()
	checker.On("Health", mock.Anything).Return(nil, errors.Remote("connection refused")).Once()
	h := NewHealthHandler("dev", presenter.NewHealthMonitor(checker, time.Minute, time.Second))

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Status)
	require.NotNil(t, resp.Service)
	assert.Equal(t, "connection refused", resp.Service.Error)

	checker.AssertExpectations(t)
}

func TestHealthHandler_StatusReportsLastCheck(t *testing.T) {
	checker := &mockChecker{}
	checker.On("Health", mock.Anything).Return(&client.HealthStatus{Status: "ok", Endpoints: []string{"/api/parse"}}, nil)
	monitor := presenter.NewHealthMonitor(checker, time.Minute, time.Second)
	h := NewHealthHandler("dev", monitor)

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.Contains(t, rec.Body.String(), `"label":"Offline"`)

	monitor.Check(context.Background())
	rec = httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Online", resp.Label)
	assert.True(t, resp.Online)
	assert.Equal(t, []string{"/api/parse"}, resp.Endpoints)
}

func TestWriteAppError(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		status   int
		category string
		message  string
		detail   string
	}{
		{"empty input", errors.EmptyInput("Please enter a SMILES string"), http.StatusBadRequest, "EmptyInput", "Please enter a SMILES string", ""},
		{"remote", errors.Remote("invalid smiles").WithDetail("status=400"), http.StatusBadGateway, "RemoteError", "invalid smiles", ""},
		{"capability", errors.Capability("SDF files are not supported yet."), http.StatusUnprocessableEntity, "CapabilityError", "SDF files are not supported yet.", ""},
		{"not found", errors.NotFound("session not found").WithDetail("abc"), http.StatusNotFound, "ValidationError", "session not found", "abc"},
		{"plain error", assertErr("boom"), http.StatusInternalServerError, "Internal", "Analysis failed. Please try again.", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeAppError(rec, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tc.category, resp.Category)
			assert.Equal(t, tc.message, resp.Error)
			assert.Equal(t, tc.detail, resp.Detail)
		})
	}
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

func TestListExamples(t *testing.T) {
	rec := httptest.NewRecorder()
	ListExamples(rec, httptest.NewRequest(http.MethodGet, "/api/examples", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ExamplesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Examples, 8)
}
