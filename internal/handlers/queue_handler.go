package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// QueueHandler exposes queue status for operators
type QueueHandler struct {
	queue QueueStatsProvider
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(q QueueStatsProvider) *QueueHandler {
	return &QueueHandler{queue: q}
}

// Status returns a snapshot of the queue counters
func (h *QueueHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.queue.Stats())
}
