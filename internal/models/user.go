package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user account with authentication capabilities
type User struct {
	ID           string `json:"id"`                                       // UUID
	Username     string `json:"username" binding:"required,min=3,max=50"` // Unique username
	PasswordHash string `json:"-"`                                        // EXCLUDED from JSON - bcrypt hash
	IsAdmin      bool   `json:"is_admin"`                                 // Whether user may access admin endpoints
	Active       bool   `json:"active"`                                   // Whether user account is active
	CreatedAt    int64  `json:"created_at"`                               // Unix timestamp of account creation
	UpdatedAt    int64  `json:"updated_at"`                               // Unix timestamp of last update
}

// CreateUserRequest represents the request body for creating a new user
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=8"` // Plain password - will be hashed
	IsAdmin  bool   `json:"is_admin"`
}

// NewUser creates a new User with generated UUID and timestamps
// The password should already be hashed before calling this function
func NewUser(username, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: passwordHash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
