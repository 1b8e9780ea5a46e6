package handlers

import (
	"net/http"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/api/middleware"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/service"
	"github.com/gin-gonic/gin"
)

type TransferHandler struct {
	transfer  *service.Transfer
	inventory *service.Inventory
}

func NewTransferHandler(transfer *service.Transfer, inventory *service.Inventory) *TransferHandler {
	return &TransferHandler{transfer: transfer, inventory: inventory}
}

func (h *TransferHandler) Create(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req domain.CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	transfer, err := h.transfer.Create(c.Request.Context(), actor, req)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, transfer)
}

func (h *TransferHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	transfer, err := h.transfer.Get(c.Request.Context(), id)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, transfer)
}

// SetStatus drives the transfer state machine. Completing a transfer moves
// the stock, so both branch summaries are invalidated.
func (h *TransferHandler) SetStatus(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	transfer, err := h.transfer.SetStatus(c.Request.Context(), actor, id, req.Status)
	if err != nil {
		serviceError(c, err)
		return
	}

	if transfer.Status == domain.TransferCompleted {
		h.inventory.InvalidateSummary(c.Request.Context(), transfer.FromBranchID)
		h.inventory.InvalidateSummary(c.Request.Context(), transfer.ToBranchID)
	}
	c.JSON(http.StatusOK, transfer)
}
