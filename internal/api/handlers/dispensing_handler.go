package handlers

import (
	"net/http"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/api/middleware"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/service"
	"github.com/gin-gonic/gin"
)

type DispensingHandler struct {
	dispensing *service.Dispensing
	inventory  *service.Inventory
}

func NewDispensingHandler(dispensing *service.Dispensing, inventory *service.Inventory) *DispensingHandler {
	return &DispensingHandler{dispensing: dispensing, inventory: inventory}
}

func (h *DispensingHandler) CreateSale(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req domain.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sale, err := h.dispensing.CreateSale(c.Request.Context(), actor, req)
	if err != nil {
		serviceError(c, err)
		return
	}

	h.inventory.InvalidateSummary(c.Request.Context(), actor.BranchID)
	c.JSON(http.StatusCreated, sale)
}

func (h *DispensingHandler) CreatePrescription(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var p domain.Prescription
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.dispensing.CreatePrescription(c.Request.Context(), actor, &p)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Dispense fulfills prescription lines and deducts stock.
func (h *DispensingHandler) Dispense(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req domain.DispenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	dispensing, prescription, err := h.dispensing.Dispense(c.Request.Context(), actor, id, req)
	if err != nil {
		serviceError(c, err)
		return
	}

	h.inventory.InvalidateSummary(c.Request.Context(), actor.BranchID)
	c.JSON(http.StatusCreated, gin.H{
		"dispensing":   dispensing,
		"prescription": prescription,
	})
}
