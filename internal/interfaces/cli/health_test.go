package cli

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molview/internal/application/presenter"
	"github.com/turtacn/molview/pkg/errors"
)

func TestHealthCmd_Online(t *testing.T) {
	svc := newFakeService(t, true)

	out, err := runCLI(t, "--config", writeConfig(t, svc.URL, ""), "health")
	require.NoError(t, err)
	assert.Contains(t, out, "Analysis service "+svc.URL+": Online")
	assert.Contains(t, out, "Endpoints:\n  /api/parse\n  /api/conformer")
}

func TestHealthCmd_OfflineFails(t *testing.T) {
	svc := newFakeService(t, false)

	out, err := runCLI(t, "--config", writeConfig(t, svc.URL, ""), "health", "-o", "json")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeServiceUnavailable))

	var got HealthOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.False(t, got.Online)
	assert.Equal(t, svc.URL, got.Service)
	assert.NotEmpty(t, got.Error)
}

func TestHealthCmd_Unreachable(t *testing.T) {
	_, err := runCLI(t, "--config", writeConfig(t, "http://127.0.0.1:1", "health:\n  timeout: 500ms\n"), "health")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeServiceUnavailable))
}

func TestHealthOutput_Table(t *testing.T) {
	checked := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	o := &HealthOutput{
		Service:       "http://chem:8000",
		ServiceStatus: presenter.ServiceStatus{Online: false, Error: "agents down", CheckedAt: checked},
	}
	assert.Equal(t, []string{"Service", "Status", "Detail", "Checked"}, o.TableHeaders())
	assert.Equal(t, [][]string{{"http://chem:8000", "Offline", "agents down", "2026-03-01T12:00:00Z"}}, o.TableRows())
	assert.Equal(t, "Analysis service http://chem:8000: Offline (agents down)", o.String())
}
