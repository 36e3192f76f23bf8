package productsync

import (
	"context"
	"fmt"
	"time"

	"catalogsync/internal/models"
)

const (
	HealthHealthy  = "healthy"
	HealthWarning  = "warning"
	HealthCritical = "critical"
	HealthDisabled = "disabled"

	healthWindow        = 7 * 24 * time.Hour
	failureThreshold    = 10
	penaltyCredentials  = 30
	penaltyFailures     = 20
	penaltyNeverSynced  = 25
	penaltyStaleSync    = 15
	healthyScore        = 80
	warningScore        = 60
	connectionCheckTime = 15 * time.Second
)

// ConnectionStatus is the outcome of a read-only connection check.
type ConnectionStatus struct {
	OK         bool   `json:"ok"`
	Message    string `json:"message"`
	ErrorKind  string `json:"error_kind,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	LatencyMS  int64  `json:"latency_ms"`
}

type HealthReport struct {
	Status             string                      `json:"status"`
	Score              int                         `json:"score"`
	Enabled            bool                        `json:"enabled"`
	TestMode           bool                        `json:"test_mode"`
	MissingCredentials []string                    `json:"missing_credentials,omitempty"`
	Connection         *ConnectionStatus           `json:"connection,omitempty"`
	Counts             map[models.SyncStatus]int64 `json:"counts"`
	LastSyncAt         *time.Time                  `json:"last_sync_at"`
	RecentFailures     int64                       `json:"recent_failures"`
	Issues             []string                    `json:"issues"`
	CheckedAt          time.Time                   `json:"checked_at"`
}

// TestConnection checks the platform with the current credentials.
func (s *Service) TestConnection(ctx context.Context) *ConnectionStatus {
	cfg := s.settings.Current()
	if missing := cfg.MissingCredentials(); len(missing) > 0 {
		err := &ConfigurationError{Missing: missing}
		return &ConnectionStatus{Message: err.Error(), ErrorKind: KindConfiguration}
	}

	start := time.Now()
	props, err := s.connector.TestConnection(ctx)
	status := &ConnectionStatus{LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		s.logger.Warn("Connection test failed: %v", err)
		status.Message = err.Error()
		status.ErrorKind = ErrorKind(err)
		return status
	}

	status.OK = true
	status.Message = "connection successful"
	status.StatusCode = props.StatusCode
	return status
}

// Health scores the integration from its configuration, its sync history and
// a live connection check.
func (s *Service) Health(ctx context.Context) (*HealthReport, error) {
	cfg := s.settings.Current()
	now := s.now()

	report := &HealthReport{
		Enabled:   cfg.Enabled,
		TestMode:  cfg.TestMode,
		Issues:    []string{},
		CheckedAt: now,
	}

	counts, err := s.items.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	report.Counts = counts

	if report.LastSyncAt, err = s.items.LastSyncedAt(ctx); err != nil {
		return nil, err
	}
	if report.RecentFailures, err = s.logs.CountFailuresSince(ctx, now.Add(-healthWindow)); err != nil {
		return nil, err
	}
	report.MissingCredentials = cfg.MissingCredentials()

	if cfg.Enabled && len(report.MissingCredentials) == 0 {
		checkCtx, cancel := context.WithTimeout(ctx, connectionCheckTime)
		report.Connection = s.TestConnection(checkCtx)
		cancel()
	}

	report.Score, report.Issues = score(report, now)

	switch {
	case !cfg.Enabled:
		report.Status = HealthDisabled
	case report.Score >= healthyScore:
		report.Status = HealthHealthy
	case report.Score >= warningScore:
		report.Status = HealthWarning
	default:
		report.Status = HealthCritical
	}
	return report, nil
}

func score(r *HealthReport, now time.Time) (int, []string) {
	points := 100
	issues := []string{}

	if len(r.MissingCredentials) > 0 {
		points -= penaltyCredentials
		issues = append(issues, "missing credentials")
	}
	if r.RecentFailures > failureThreshold {
		points -= penaltyFailures
		issues = append(issues, fmt.Sprintf("%d failed syncs in the last 7 days", r.RecentFailures))
	}
	switch {
	case r.LastSyncAt == nil:
		points -= penaltyNeverSynced
		issues = append(issues, "no successful sync yet")
	case now.Sub(*r.LastSyncAt) > healthWindow:
		points -= penaltyStaleSync
		issues = append(issues, "no successful sync in the last 7 days")
	}
	if r.Connection != nil && !r.Connection.OK {
		issues = append(issues, "connection test failed: "+r.Connection.Message)
	}

	if points < 0 {
		points = 0
	}
	return points, issues
}
