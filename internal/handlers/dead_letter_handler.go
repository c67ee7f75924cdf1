package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/kennethwltu/smspanel/internal/services"
	"github.com/kennethwltu/smspanel/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DeadLetterHandler handles dead letter administration requests.
// All routes behind it require admin access.
type DeadLetterHandler struct {
	deadLetters DeadLetterServiceInterface
}

// NewDeadLetterHandler creates a new dead letter handler
func NewDeadLetterHandler(deadLetters DeadLetterServiceInterface) *DeadLetterHandler {
	return &DeadLetterHandler{deadLetters: deadLetters}
}

// List returns dead letter entries, optionally filtered by status
func (h *DeadLetterHandler) List(c *gin.Context) {
	status := c.Query("status")
	limit := intQuery(c, "limit", 50)

	entries, err := h.deadLetters.List(status, limit)
	if err != nil {
		logger.Error("Failed to list dead letters", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

// Retry re-sends one entry and reports the delivery outcome synchronously
func (h *DeadLetterHandler) Retry(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entry ID"})
		return
	}

	result, err := h.deadLetters.Retry(id)
	if err != nil {
		if errors.Is(err, services.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Dead letter entry not found"})
			return
		}
		logger.Error("Dead letter retry failed", zap.Int64("entryId", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// RetryAll sweeps every retryable pending entry
func (h *DeadLetterHandler) RetryAll(c *gin.Context) {
	retried, err := h.deadLetters.RetryAll()
	if err != nil {
		logger.Error("Dead letter sweep failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"retried": retried})
}

// Abandon takes a pending entry out of every future retry
func (h *DeadLetterHandler) Abandon(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entry ID"})
		return
	}

	if err := h.deadLetters.Abandon(id); err != nil {
		if errors.Is(err, services.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Dead letter entry not found"})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"abandoned": id})
}

// Stats returns entry counts per status
func (h *DeadLetterHandler) Stats(c *gin.Context) {
	stats, err := h.deadLetters.Stats()
	if err != nil {
		logger.Error("Failed to load dead letter stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
