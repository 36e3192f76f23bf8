package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is the ERP item record. The host owns every field except the four
// sync-tracking ones at the bottom, which only a sync attempt writes.
type Item struct {
	Code        string              `json:"code" gorm:"primaryKey"`
	Name        string              `json:"name" gorm:"not null"`
	Description *string             `json:"description"`
	Price       decimal.NullDecimal `json:"price" gorm:"type:decimal(12,2)"`
	Weight      *float64            `json:"weight"`
	Barcode     *string             `json:"barcode"`
	Brand       *string             `json:"brand"`
	Image       *string             `json:"image"`
	ItemGroup   *string             `json:"item_group"`
	Disabled    bool                `json:"disabled" gorm:"default:false"`
	SyncEnabled bool                `json:"sync_enabled" gorm:"default:false"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	// ModifiedAt moves only when the host saves the item.
	ModifiedAt time.Time `json:"modified_at" gorm:"index"`

	ExternalProductID *string    `json:"external_product_id" gorm:"index"`
	SyncStatus        SyncStatus `json:"sync_status" gorm:"not null;default:NOT_SYNCED;index"`
	LastSyncAt        *time.Time `json:"last_sync_at"`
	SyncErrorMessage  string     `json:"sync_error_message"`
}

type SyncStatus string

const (
	SyncStatusNotSynced SyncStatus = "NOT_SYNCED"
	SyncStatusPending   SyncStatus = "PENDING"
	SyncStatusSynced    SyncStatus = "SYNCED"
	SyncStatusError     SyncStatus = "ERROR"
)

// SyncStatuses lists every status in display order.
var SyncStatuses = []SyncStatus{
	SyncStatusNotSynced,
	SyncStatusPending,
	SyncStatusSynced,
	SyncStatusError,
}

func (s SyncStatus) Valid() bool {
	for _, known := range SyncStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsLinked reports whether the item already has an external product.
func (i *Item) IsLinked() bool {
	return i.ExternalProductID != nil && *i.ExternalProductID != ""
}

// MarkPending flags an attempt in progress.
func (i *Item) MarkPending() {
	i.SyncStatus = SyncStatusPending
}

// MarkSynced records a successful attempt. A non-empty externalID links the
// item; an empty one keeps the existing link.
func (i *Item) MarkSynced(externalID string, at time.Time) {
	if externalID != "" {
		id := externalID
		i.ExternalProductID = &id
	}
	i.SyncStatus = SyncStatusSynced
	i.SyncErrorMessage = ""
	i.LastSyncAt = &at
}

// MarkError records a failed attempt. The external link is never cleared.
func (i *Item) MarkError(message string, at time.Time) {
	if message == "" {
		message = "unknown sync error"
	}
	i.SyncStatus = SyncStatusError
	i.SyncErrorMessage = message
	i.LastSyncAt = &at
}
