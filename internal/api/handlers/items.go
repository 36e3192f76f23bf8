package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"catalogsync/internal/config"
	"catalogsync/internal/database"
	"catalogsync/internal/logger"
	"catalogsync/internal/models"
	"catalogsync/internal/services/productsync"
	"catalogsync/internal/services/wix"
	"catalogsync/internal/worker/processors"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ItemStore interface {
	Get(ctx context.Context, code string) (*models.Item, error)
	Upsert(ctx context.Context, item *models.Item) error
	Delete(ctx context.Context, code string) error
}

type ItemSyncer interface {
	SyncByCode(ctx context.Context, code string, trigger productsync.Trigger) (*productsync.Result, error)
	TriggerAutoSync(ctx context.Context, item *models.Item) *productsync.Result
	SyncBatch(ctx context.Context, filter productsync.BatchFilter) (*productsync.BatchSummary, error)
	RecordDeletion(ctx context.Context, item *models.Item)
	RemoteProduct(ctx context.Context, code string) (*wix.ProductResponse, error)
}

// Enqueuer hands an item event to the worker queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, eventType, itemCode string) error
}

type ItemHandler struct {
	items    ItemStore
	syncer   ItemSyncer
	enqueuer Enqueuer
	settings *config.Store
	logger   *logger.Logger
}

// NewItemHandler builds the item endpoints. enqueuer may be nil, in which
// case queue mode falls back to inline sync.
func NewItemHandler(items ItemStore, syncer ItemSyncer, enqueuer Enqueuer, settings *config.Store, logger *logger.Logger) *ItemHandler {
	return &ItemHandler{
		items:    items,
		syncer:   syncer,
		enqueuer: enqueuer,
		settings: settings,
		logger:   logger,
	}
}

type itemRequest struct {
	Name        string              `json:"name" binding:"required"`
	Description *string             `json:"description"`
	Price       decimal.NullDecimal `json:"price"`
	Weight      *float64            `json:"weight" binding:"omitempty,gte=0"`
	Barcode     *string             `json:"barcode"`
	Brand       *string             `json:"brand"`
	Image       *string             `json:"image"`
	ItemGroup   *string             `json:"item_group"`
	Disabled    bool                `json:"disabled"`
	SyncEnabled bool                `json:"sync_enabled"`
}

// Upsert stores the host-owned fields of an item and then runs the save hook.
func (h *ItemHandler) Upsert(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Item code is required"})
		return
	}

	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// The catalog takes two decimals; a positive price must not round to zero.
	if req.Price.Valid && req.Price.Decimal.IsPositive() && req.Price.Decimal.Round(2).IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be at least 0.01"})
		return
	}

	item := &models.Item{
		Code:        code,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Weight:      req.Weight,
		Barcode:     req.Barcode,
		Brand:       req.Brand,
		Image:       req.Image,
		ItemGroup:   req.ItemGroup,
		Disabled:    req.Disabled,
		SyncEnabled: req.SyncEnabled,
	}

	ctx := c.Request.Context()
	if err := h.items.Upsert(ctx, item); err != nil {
		h.logger.Error("Failed to save item %s: %v", code, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save item"})
		return
	}

	stored, err := h.items.Get(ctx, code)
	if err != nil {
		h.logger.Error("Failed to reload item %s: %v", code, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch item"})
		return
	}

	response := gin.H{"data": stored}

	cfg := h.settings.Current()
	switch {
	case !cfg.AutoSync || !stored.SyncEnabled || stored.Disabled || !cfg.Enabled:
	case cfg.SyncMode == config.SyncModeQueue && h.enqueuer != nil:
		err := h.enqueuer.Enqueue(ctx, processors.EventItemSaved, code)
		if err == nil {
			response["queued"] = true
			break
		}
		h.logger.Error("Failed to enqueue sync for %s, syncing inline: %v", code, err)
		response["queued"] = false
		if result := h.syncer.TriggerAutoSync(ctx, stored); result != nil {
			response["sync"] = result
		}
	default:
		if result := h.syncer.TriggerAutoSync(ctx, stored); result != nil {
			response["sync"] = result
		}
	}

	c.JSON(http.StatusOK, response)
}

func (h *ItemHandler) Get(c *gin.Context) {
	item, err := h.items.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		h.logger.Error("Failed to fetch item %s: %v", c.Param("code"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

// Delete runs the record-delete hook. The item row goes away and the linked
// catalog product, if any, is reported for manual cleanup.
func (h *ItemHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	code := c.Param("code")

	item, err := h.items.Get(ctx, code)
	if err == nil {
		err = h.items.Delete(ctx, code)
	}
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		h.logger.Error("Failed to delete item %s: %v", code, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete item"})
		return
	}

	h.syncer.RecordDeletion(ctx, item)
	c.JSON(http.StatusOK, gin.H{"message": "Item deleted", "external_product_id": item.ExternalProductID})
}

// Remote fetches the catalog product linked to an item.
func (h *ItemHandler) Remote(c *gin.Context) {
	code := c.Param("code")
	product, err := h.syncer.RemoteProduct(c.Request.Context(), code)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"data": product})
		return
	}

	var cfgErr *productsync.ConfigurationError
	var remoteErr *wix.RemoteError
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
	case errors.Is(err, productsync.ErrNotLinked):
		c.JSON(http.StatusConflict, gin.H{"error": "Item is not linked to a catalog product"})
	case errors.As(err, &cfgErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": cfgErr.Error()})
	case errors.As(err, &remoteErr) && remoteErr.StatusCode == http.StatusNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Catalog product not found"})
	default:
		h.logger.Error("Failed to fetch catalog product for %s: %v", code, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Catalog request failed", "error_kind": productsync.ErrorKind(err)})
	}
}

// Sync runs a manual sync of one item.
func (h *ItemHandler) Sync(c *gin.Context) {
	result, err := h.syncer.SyncByCode(c.Request.Context(), c.Param("code"), productsync.TriggerManual)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		h.logger.Error("Failed to sync item %s: %v", c.Param("code"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// SyncBatch runs a manual sync of the items selected by the request body.
func (h *ItemHandler) SyncBatch(c *gin.Context) {
	var filter productsync.BatchFilter
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&filter); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	for _, status := range filter.Statuses {
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown sync status: " + string(status)})
			return
		}
	}

	summary, err := h.syncer.SyncBatch(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Batch sync failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run batch sync"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}
