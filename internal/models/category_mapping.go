package models

import "time"

// CategoryMapping links an ERP item group to a Wix catalog category.
type CategoryMapping struct {
	ItemGroup  string    `json:"item_group" gorm:"primaryKey"`
	CategoryID string    `json:"category_id" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
