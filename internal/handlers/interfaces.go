package handlers

import (
	"github.com/kennethwltu/smspanel/internal/models"
	"github.com/kennethwltu/smspanel/internal/queue"
	"github.com/kennethwltu/smspanel/internal/services"
)

// SMSServiceInterface defines the contract for the send pipeline
// This interface is used for dependency injection and testing
type SMSServiceInterface interface {
	SendSingle(userID, phone, content string) (*models.Message, int64, error)
	SendBulk(userID string, phones []string, content string) (*models.Message, int64, error)
	GetMessage(id int64, userID string, isAdmin bool) (*models.Message, error)
	ListMessages(userID string, limit, offset int) ([]*models.Message, error)
	MessageStats() (map[string]int, error)
}

// DeadLetterServiceInterface defines the contract for dead letter administration
// This interface is used for dependency injection and testing
type DeadLetterServiceInterface interface {
	List(statusFilter string, limit int) ([]*models.DeadLetterEntry, error)
	GetPending(limit int) ([]*models.DeadLetterEntry, error)
	Stats() (*models.DeadLetterStats, error)
	Retry(id int64) (*services.RetryResult, error)
	RetryAll() (int, error)
	Abandon(id int64) error
}

// UserServiceInterface defines the contract for user service operations
// This interface is used for dependency injection and testing
type UserServiceInterface interface {
	CreateUser(username, password string, isAdmin bool) (*models.User, error)
	Authenticate(username, password string) (*models.User, error)
	GetUser(id string) (*models.User, error)
}

// QueueStatsProvider exposes queue counters for the status endpoint
type QueueStatsProvider interface {
	Stats() queue.Stats
	Depth() int
}
