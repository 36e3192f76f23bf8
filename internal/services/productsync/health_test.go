package productsync

import (
	"context"
	"testing"
	"time"

	"catalogsync/internal/services/wix"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth_Scoring(t *testing.T) {
	recent := time.Now().UTC().Add(-time.Hour)
	stale := time.Now().UTC().Add(-10 * 24 * time.Hour)

	tests := []struct {
		name     string
		noCreds  bool
		failures int64
		lastSync *time.Time
		score    int
		status   string
	}{
		{"healthy", false, 0, &recent, 100, HealthHealthy},
		{"never synced", false, 0, nil, 75, HealthWarning},
		{"stale", false, 0, &stale, 85, HealthHealthy},
		{"many failures", false, 11, &recent, 80, HealthHealthy},
		{"ten failures is fine", false, 10, &recent, 100, HealthHealthy},
		{"missing credentials", true, 0, &recent, 70, HealthWarning},
		{"everything wrong", true, 50, nil, 25, HealthCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testSettings()
			if tt.noCreds {
				cfg.APIKey = ""
			}
			h := newHarness(cfg, testItem("A"))
			h.items.lastSync = tt.lastSync
			h.logs.failures = tt.failures

			report, err := h.svc.Health(context.Background())
			require.NoError(t, err)

			assert.Equal(t, tt.score, report.Score)
			assert.Equal(t, tt.status, report.Status)
			assert.Equal(t, int64(1), report.Counts["NOT_SYNCED"])
			assert.Equal(t, tt.failures, report.RecentFailures)
			if tt.noCreds {
				assert.Nil(t, report.Connection)
				assert.Equal(t, []string{"api_key"}, report.MissingCredentials)
			} else {
				require.NotNil(t, report.Connection)
				assert.True(t, report.Connection.OK)
			}
		})
	}
}

func TestHealth_Disabled(t *testing.T) {
	cfg := testSettings()
	cfg.Enabled = false
	h := newHarness(cfg)

	report, err := h.svc.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, HealthDisabled, report.Status)
	assert.Nil(t, report.Connection)
	assert.Zero(t, h.connector.connections)
}

func TestHealth_ReportsFailedConnection(t *testing.T) {
	h := newHarness(testSettings())
	h.connector.testErr = &wix.CredentialError{StatusCode: 401, Detail: "bad key"}

	report, err := h.svc.Health(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report.Connection)
	assert.False(t, report.Connection.OK)
	assert.Equal(t, wix.KindCredential, report.Connection.ErrorKind)
	assert.Contains(t, report.Issues[len(report.Issues)-1], "connection test failed")
}

func TestTestConnection(t *testing.T) {
	h := newHarness(testSettings())
	status := h.svc.TestConnection(context.Background())
	assert.True(t, status.OK)
	assert.Equal(t, 200, status.StatusCode)

	cfg := testSettings()
	cfg.SiteID = ""
	h.settings.Set(cfg)
	status = h.svc.TestConnection(context.Background())
	assert.False(t, status.OK)
	assert.Equal(t, KindConfiguration, status.ErrorKind)
	assert.Equal(t, 1, h.connector.connections)
}
