package handlers

import (
	"net/http"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/api/middleware"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/service"
	"github.com/gin-gonic/gin"
)

type ReceivingHandler struct {
	receiving *service.Receiving
	inventory *service.Inventory
}

func NewReceivingHandler(receiving *service.Receiving, inventory *service.Inventory) *ReceivingHandler {
	return &ReceivingHandler{receiving: receiving, inventory: inventory}
}

func (h *ReceivingHandler) CreatePurchaseOrder(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req domain.CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	po, err := h.receiving.CreatePurchaseOrder(c.Request.Context(), actor, req)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, po)
}

func (h *ReceivingHandler) GetPurchaseOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	po, err := h.receiving.GetPurchaseOrder(c.Request.Context(), id)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, po)
}

// ReceiveGoods posts a goods received note against a purchase order.
func (h *ReceivingHandler) ReceiveGoods(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req domain.ReceiveGoodsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.PurchaseOrderID = id

	grn, err := h.receiving.ReceiveGoods(c.Request.Context(), actor, req)
	if err != nil {
		serviceError(c, err)
		return
	}

	h.inventory.InvalidateSummary(c.Request.Context(), actor.BranchID)
	c.JSON(http.StatusCreated, grn)
}
