package database

import (
	"context"
	"fmt"
	"time"

	"catalogsync/internal/models"

	"gorm.io/gorm"
)

type LogFilter struct {
	ReferenceCode string
	Limit         int
}

// LogRepository appends and reads integration log entries. Entries are
// never updated; old ones are only removed in bulk.
type LogRepository struct {
	db *gorm.DB
}

func NewLogRepository(db *gorm.DB) *LogRepository {
	return &LogRepository{db: db}
}

func (r *LogRepository) Create(ctx context.Context, entry *models.IntegrationLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to write integration log: %w", err)
	}
	return nil
}

func (r *LogRepository) List(ctx context.Context, filter LogFilter) ([]models.IntegrationLog, error) {
	query := r.db.WithContext(ctx).Model(&models.IntegrationLog{})
	if filter.ReferenceCode != "" {
		query = query.Where("reference_code = ?", filter.ReferenceCode)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	var entries []models.IntegrationLog
	if err := query.Order("timestamp DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list integration logs: %w", err)
	}
	return entries, nil
}

func (r *LogRepository) CountFailuresSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.IntegrationLog{}).
		Where("status = ? AND timestamp > ?", models.LogStatusFailure, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count failures: %w", err)
	}
	return count, nil
}

func (r *LogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("timestamp < ?", cutoff).
		Delete(&models.IntegrationLog{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete old logs: %w", res.Error)
	}
	return res.RowsAffected, nil
}
