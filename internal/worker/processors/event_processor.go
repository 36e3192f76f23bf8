package processors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalogsync/internal/database"
	"catalogsync/internal/logger"
	"catalogsync/internal/models"
	"catalogsync/internal/services/productsync"
)

// Queue event types.
const (
	EventItemSaved         = "item.saved"
	EventItemSyncRequested = "item.sync_requested"
)

type Event struct {
	Type      string    `json:"type"`
	ItemCode  string    `json:"item_code"`
	Timestamp time.Time `json:"timestamp"`
}

type ItemLoader interface {
	Get(ctx context.Context, code string) (*models.Item, error)
}

type Syncer interface {
	Sync(ctx context.Context, item *models.Item, trigger productsync.Trigger) *productsync.Result
}

type EventProcessor struct {
	items  ItemLoader
	syncer Syncer
	logger *logger.Logger
}

func NewEventProcessor(items ItemLoader, syncer Syncer, logger *logger.Logger) *EventProcessor {
	return &EventProcessor{
		items:  items,
		syncer: syncer,
		logger: logger,
	}
}

// Process handles one queue event. A returned error means the event could
// not be handled at all; sync failures are recorded on the item and are not
// errors here.
func (ep *EventProcessor) Process(ctx context.Context, event Event) error {
	switch event.Type {
	case EventItemSaved, EventItemSyncRequested:
	default:
		ep.logger.Debug("Ignoring event type %q", event.Type)
		return nil
	}

	if event.ItemCode == "" {
		ep.logger.Warn("Dropping %s event without item code", event.Type)
		return nil
	}

	item, err := ep.items.Get(ctx, event.ItemCode)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			ep.logger.Warn("Dropping %s event for unknown item %s", event.Type, event.ItemCode)
			return nil
		}
		return fmt.Errorf("load item %s: %w", event.ItemCode, err)
	}

	result := ep.syncer.Sync(ctx, item, productsync.TriggerQueue)
	ep.logger.Info("Processed %s for %s: %s %s", event.Type, event.ItemCode, result.Outcome, result.Message)
	return nil
}
