package handlers

import (
	"context"
	"net/http"
	"strings"

	"catalogsync/internal/logger"
	"catalogsync/internal/models"

	"github.com/gin-gonic/gin"
)

type CategoryStore interface {
	List(ctx context.Context) ([]models.CategoryMapping, error)
	Upsert(ctx context.Context, mapping *models.CategoryMapping) error
}

// CategoryHandler maintains the item group to catalog category mappings.
type CategoryHandler struct {
	store  CategoryStore
	logger *logger.Logger
}

func NewCategoryHandler(store CategoryStore, logger *logger.Logger) *CategoryHandler {
	return &CategoryHandler{store: store, logger: logger}
}

func (h *CategoryHandler) List(c *gin.Context) {
	mappings, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list category mappings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list category mappings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": mappings})
}

// Put maps the item group in the path to a catalog category id.
func (h *CategoryHandler) Put(c *gin.Context) {
	group := strings.TrimSpace(c.Param("group"))
	if group == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Item group is required"})
		return
	}

	var req struct {
		CategoryID string `json:"category_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	categoryID := strings.TrimSpace(req.CategoryID)
	if categoryID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category_id is required"})
		return
	}

	mapping := &models.CategoryMapping{ItemGroup: group, CategoryID: categoryID}
	if err := h.store.Upsert(c.Request.Context(), mapping); err != nil {
		h.logger.Error("Failed to save category mapping for %s: %v", group, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save category mapping"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": mapping})
}
