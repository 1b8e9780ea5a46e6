package handlers

import (
	"net/http"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/api/middleware"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/service"
	"github.com/gin-gonic/gin"
)

type RegisterHandler struct {
	register *service.Register
}

func NewRegisterHandler(register *service.Register) *RegisterHandler {
	return &RegisterHandler{register: register}
}

// RecordEntry appends a controlled substance register entry.
func (h *RegisterHandler) RecordEntry(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req domain.RegisterEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	entry, err := h.register.RecordEntry(c.Request.Context(), actor, req)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// VerifyEntry counter-signs an existing entry.
func (h *RegisterHandler) VerifyEntry(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	entry, err := h.register.VerifyEntry(c.Request.Context(), actor, id)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// ListEntries returns a medicine's register page, newest first.
func (h *RegisterHandler) ListEntries(c *gin.Context) {
	medicineID := queryInt64(c, "medicine_id", 0)
	if medicineID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "medicine_id is required"})
		return
	}
	limit := queryInt(c, "limit", 50)

	entries, err := h.register.ListEntries(c.Request.Context(), medicineID, limit)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
