package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/api/middleware"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/domain"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/service"
	"github.com/gin-gonic/gin"
)

type SyncHandler struct {
	sync *service.Sync
}

func NewSyncHandler(sync *service.Sync) *SyncHandler {
	return &SyncHandler{sync: sync}
}

// Download returns the change feed since the client's cursor. A missing
// or unparseable cursor means a full resync from the zero time.
func (h *SyncHandler) Download(c *gin.Context) {
	since := time.Time{}
	if raw := strings.TrimSpace(c.Query("since")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
			return
		}
		since = parsed
	}
	branchID := queryInt64(c, "branch_id", 0)

	feed, err := h.sync.Download(c.Request.Context(), since, branchID)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

// Upload replays a batch of offline writes from a desktop client.
func (h *SyncHandler) Upload(c *gin.Context) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req domain.SyncUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.sync.Upload(c.Request.Context(), actor, req)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
