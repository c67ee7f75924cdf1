package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/kennethwltu/smspanel/internal/models"
	"github.com/kennethwltu/smspanel/internal/queue"
	"github.com/kennethwltu/smspanel/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SMSHandler handles message submission and retrieval requests
type SMSHandler struct {
	sms SMSServiceInterface
}

// NewSMSHandler creates a new SMS handler
func NewSMSHandler(sms SMSServiceInterface) *SMSHandler {
	return &SMSHandler{sms: sms}
}

// callerID returns the authenticated user id set by the auth middleware
func callerID(c *gin.Context) string {
	userID, _ := c.Get("userID")
	id, _ := userID.(string)
	return id
}

func callerIsAdmin(c *gin.Context) bool {
	isAdmin, _ := c.Get("isAdmin")
	admin, _ := isAdmin.(bool)
	return admin
}

// SendMessage accepts a single-recipient message and queues its delivery.
// Responds 202 on acceptance; delivery itself is asynchronous.
func (h *SMSHandler) SendMessage(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Recipient and content are required"})
		return
	}

	msg, jobID, err := h.sms.SendSingle(callerID(c), req.Recipient, req.Content)
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message_id": msg.ID,
		"job_id":     jobID,
		"status":     msg.Status,
	})
}

// SendBulk accepts a message for many recipients and queues one bulk job
func (h *SMSHandler) SendBulk(c *gin.Context) {
	var req models.SendBulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Recipients and content are required"})
		return
	}

	msg, jobID, err := h.sms.SendBulk(callerID(c), req.Recipients, req.Content)
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message_id": msg.ID,
		"job_id":     jobID,
		"status":     msg.Status,
		"recipients": len(req.Recipients),
	})
}

func (h *SMSHandler) sendError(c *gin.Context, err error) {
	if errors.Is(err, queue.ErrQueueFull) || errors.Is(err, queue.ErrQueueStopped) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "System is busy, try again later"})
		return
	}
	logger.Error("Failed to accept message", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// GetMessage returns one message with its per-recipient statuses
func (h *SMSHandler) GetMessage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message ID"})
		return
	}

	msg, err := h.sms.GetMessage(id, callerID(c), callerIsAdmin(c))
	if err != nil {
		logger.Error("Failed to get message", zap.Int64("messageId", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if msg == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		return
	}

	c.JSON(http.StatusOK, msg)
}

// ListMessages returns the caller's messages, newest first
func (h *SMSHandler) ListMessages(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	msgs, err := h.sms.ListMessages(callerID(c), limit, offset)
	if err != nil {
		logger.Error("Failed to list messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": msgs,
		"count":    len(msgs),
	})
}

// MessageStats returns message counts per status
func (h *SMSHandler) MessageStats(c *gin.Context) {
	stats, err := h.sms.MessageStats()
	if err != nil {
		logger.Error("Failed to load message stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
