package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalogsync/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// hostColumns are the item columns the host application owns. An upsert
// never touches the sync-tracking columns of an existing row.
var hostColumns = []string{
	"name", "description", "price", "weight", "barcode", "brand",
	"image", "item_group", "disabled", "sync_enabled", "updated_at", "modified_at",
}

// ItemFilter narrows item listings. Zero values mean "any".
type ItemFilter struct {
	Codes    []string
	Statuses []models.SyncStatus
	// SyncEnabledOnly drops items whose sync flag is off.
	SyncEnabledOnly bool
	// ChangedSinceSync keeps items saved after their last sync attempt, or
	// never attempted, that are not pending. Newest changes come first.
	ChangedSinceSync bool
	Limit            int
}

type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) Get(ctx context.Context, code string) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).First(&item, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch item %s: %w", code, err)
	}
	return &item, nil
}

// Upsert stores the host-owned fields of item.
func (r *ItemRepository) Upsert(ctx context.Context, item *models.Item) error {
	if item.SyncStatus == "" {
		item.SyncStatus = models.SyncStatusNotSynced
	}
	item.ModifiedAt = time.Now().UTC()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns(hostColumns),
	}).Create(item).Error
	if err != nil {
		return fmt.Errorf("failed to save item %s: %w", item.Code, err)
	}
	return nil
}

// UpdateSyncFields writes only the four sync-tracking columns.
func (r *ItemRepository) UpdateSyncFields(ctx context.Context, item *models.Item) error {
	res := r.db.WithContext(ctx).Model(&models.Item{}).
		Where("code = ?", item.Code).
		Updates(map[string]interface{}{
			"external_product_id": item.ExternalProductID,
			"sync_status":         item.SyncStatus,
			"last_sync_at":        item.LastSyncAt,
			"sync_error_message":  item.SyncErrorMessage,
			"updated_at":          time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update sync fields for %s: %w", item.Code, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ItemRepository) Find(ctx context.Context, filter ItemFilter) ([]models.Item, error) {
	query := r.db.WithContext(ctx).Model(&models.Item{})

	if len(filter.Codes) > 0 {
		query = query.Where("code IN ?", filter.Codes)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("sync_status IN ?", filter.Statuses)
	}
	if filter.SyncEnabledOnly {
		query = query.Where("sync_enabled = ?", true)
	}
	if filter.ChangedSinceSync {
		query = query.Where("sync_status <> ?", models.SyncStatusPending).
			Where("last_sync_at IS NULL OR modified_at > last_sync_at").
			Order("modified_at DESC")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var items []models.Item
	if err := query.Order("code").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// Delete removes the item record.
func (r *ItemRepository) Delete(ctx context.Context, code string) error {
	res := r.db.WithContext(ctx).Delete(&models.Item{}, "code = ?", code)
	if res.Error != nil {
		return fmt.Errorf("failed to delete item %s: %w", code, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByStatus returns the number of items per sync status. Every known
// status is present in the result, zero or not.
func (r *ItemRepository) CountByStatus(ctx context.Context) (map[models.SyncStatus]int64, error) {
	var rows []struct {
		SyncStatus models.SyncStatus
		Count      int64
	}
	err := r.db.WithContext(ctx).Model(&models.Item{}).
		Select("sync_status, COUNT(*) AS count").
		Group("sync_status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}

	counts := make(map[models.SyncStatus]int64, len(models.SyncStatuses))
	for _, s := range models.SyncStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.SyncStatus] = row.Count
	}
	return counts, nil
}

// LastSyncedAt returns the most recent successful sync time, or nil.
func (r *ItemRepository) LastSyncedAt(ctx context.Context) (*time.Time, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Where("sync_status = ? AND last_sync_at IS NOT NULL", models.SyncStatusSynced).
		Order("last_sync_at DESC").
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read last sync time: %w", err)
	}
	return item.LastSyncAt, nil
}

// MarkStalled moves items stuck in PENDING since before cutoff to ERROR.
func (r *ItemRepository) MarkStalled(ctx context.Context, cutoff time.Time, message string) (int64, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.Item{}).
		Where("sync_status = ? AND updated_at < ?", models.SyncStatusPending, cutoff).
		Updates(map[string]interface{}{
			"sync_status":        models.SyncStatusError,
			"sync_error_message": message,
			"last_sync_at":       now,
			"updated_at":         now,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to recover stalled items: %w", res.Error)
	}
	return res.RowsAffected, nil
}
