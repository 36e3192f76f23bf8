package productsync

import (
	"context"
	"time"
)

const (
	DefaultLogRetention = 30 * 24 * time.Hour
	DefaultStallTimeout = 24 * time.Hour
)

// CleanupLogs deletes integration log entries older than olderThan.
func (s *Service) CleanupLogs(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		olderThan = DefaultLogRetention
	}
	deleted, err := s.logs.DeleteOlderThan(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	s.logger.Info("Deleted %d integration log entries older than %s", deleted, olderThan)
	return deleted, nil
}

// RecoverStalled moves items left PENDING for longer than olderThan to ERROR.
func (s *Service) RecoverStalled(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		olderThan = DefaultStallTimeout
	}
	recovered, err := s.items.MarkStalled(ctx, s.now().Add(-olderThan), StalledMessage)
	if err != nil {
		return 0, err
	}
	if recovered > 0 {
		s.logger.Warn("Recovered %d items stuck in PENDING", recovered)
	}
	return recovered, nil
}
