package handlers

import (
	"errors"
	"net/http"

	"github.com/kennethwltu/smspanel/internal/models"
	"github.com/kennethwltu/smspanel/internal/services"
	"github.com/kennethwltu/smspanel/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler handles user management requests
type UserHandler struct {
	users UserServiceInterface
}

// NewUserHandler creates a new user handler
func NewUserHandler(users UserServiceInterface) *UserHandler {
	return &UserHandler{users: users}
}

// CreateUser registers a new panel user. Admin only.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	user, err := h.users.CreateUser(req.Username, req.Password, req.IsAdmin)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidUsername), errors.Is(err, services.ErrInvalidPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrUsernameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to create user", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, user)
}

// GetCurrentUser returns the authenticated user's profile
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.users.GetUser(callerID(c))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		logger.Error("Failed to get user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, user)
}
