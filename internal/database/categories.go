package database

import (
	"context"
	"errors"
	"fmt"

	"catalogsync/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// CategoryID returns the Wix category mapped to itemGroup, or "" when the
// group is unmapped.
func (r *CategoryRepository) CategoryID(ctx context.Context, itemGroup string) (string, error) {
	var mapping models.CategoryMapping
	err := r.db.WithContext(ctx).First(&mapping, "item_group = ?", itemGroup).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to resolve category for %s: %w", itemGroup, err)
	}
	return mapping.CategoryID, nil
}

func (r *CategoryRepository) Upsert(ctx context.Context, mapping *models.CategoryMapping) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_group"}},
		DoUpdates: clause.AssignmentColumns([]string{"category_id", "updated_at"}),
	}).Create(mapping).Error
	if err != nil {
		return fmt.Errorf("failed to save category mapping: %w", err)
	}
	return nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]models.CategoryMapping, error) {
	var mappings []models.CategoryMapping
	if err := r.db.WithContext(ctx).Order("item_group").Find(&mappings).Error; err != nil {
		return nil, fmt.Errorf("failed to list category mappings: %w", err)
	}
	return mappings, nil
}
