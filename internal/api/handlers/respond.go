package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// serviceError maps the repository error taxonomy onto HTTP statuses so
// every handler reports failures the same way.
func serviceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, repository.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, repository.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, repository.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, repository.ErrInsufficientStock),
		errors.Is(err, repository.ErrInsufficientBalance),
		errors.Is(err, repository.ErrInvalidTransition),
		errors.Is(err, repository.ErrDuplicateRecord):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func queryInt64(c *gin.Context, name string, fallback int64) int64 {
	if v, err := strconv.ParseInt(strings.TrimSpace(c.Query(name)), 10, 64); err == nil && v > 0 {
		return v
	}
	return fallback
}

func queryInt(c *gin.Context, name string, fallback int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(c.Query(name))); err == nil && v > 0 {
		return v
	}
	return fallback
}
