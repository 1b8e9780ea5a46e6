package handlers

import (
	"net/http"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/api/middleware"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/service"
	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	inventory *service.Inventory
}

func NewInventoryHandler(inventory *service.Inventory) *InventoryHandler {
	return &InventoryHandler{inventory: inventory}
}

// Summary returns the per-branch stock aggregate. Defaults to the
// caller's own branch.
func (h *InventoryHandler) Summary(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	branchID := queryInt64(c, "branch_id", actor.BranchID)

	summary, err := h.inventory.Summary(c.Request.Context(), branchID)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *InventoryHandler) LowStock(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	branchID := queryInt64(c, "branch_id", actor.BranchID)

	medicines, err := h.inventory.LowStock(c.Request.Context(), branchID)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, medicines)
}

func (h *InventoryHandler) GetMedicine(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	medicine, err := h.inventory.GetMedicine(c.Request.Context(), id)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, medicine)
}

func (h *InventoryHandler) DeactivateMedicine(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.inventory.DeactivateMedicine(c.Request.Context(), actor, id); err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "medicine deactivated"})
}
