package services

import (
	"errors"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	"github.com/kennethwltu/smspanel/internal/db"
	"github.com/kennethwltu/smspanel/internal/models"
	"github.com/kennethwltu/smspanel/pkg/logger"

	"go.uber.org/zap"
)

const (
	// BcryptCost is the cost parameter for bcrypt password hashing
	BcryptCost = 12

	// MinPasswordLength is the minimum length for passwords
	MinPasswordLength = 8
)

var (
	// ErrInvalidCredentials indicates authentication failure
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUserNotFound indicates user does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken indicates the username is already registered
	ErrUsernameTaken = errors.New("username is already taken")

	// ErrInvalidUsername indicates username validation failure
	ErrInvalidUsername = errors.New("username must be 3-50 characters and contain only alphanumeric characters and underscores")

	// ErrInvalidPassword indicates password validation failure
	ErrInvalidPassword = errors.New("password must be at least 8 characters")
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,50}$`)

// UserService provides business logic for user management
type UserService struct {
	repo db.UserRepository
}

// NewUserService creates a new UserService instance
func NewUserService(repo db.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// CreateUser registers a new user with a bcrypt-hashed password
func (s *UserService) CreateUser(username, password string, isAdmin bool) (*models.User, error) {
	if !usernamePattern.MatchString(username) {
		return nil, ErrInvalidUsername
	}
	if len(password) < MinPasswordLength {
		return nil, ErrInvalidPassword
	}

	existing, err := s.repo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return nil, err
	}

	user := models.NewUser(username, string(hash))
	user.IsAdmin = isAdmin
	if err := s.repo.Create(user); err != nil {
		return nil, err
	}

	logger.Info("User created",
		zap.String("userId", user.ID),
		zap.String("username", username),
		zap.Bool("isAdmin", isAdmin))
	return user, nil
}

// Authenticate verifies the credentials and returns the user.
// Inactive users cannot authenticate.
func (s *UserService) Authenticate(username, password string) (*models.User, error) {
	user, err := s.repo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUser returns a user by id
func (s *UserService) GetUser(id string) (*models.User, error) {
	user, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// EnsureAdmin seeds the initial admin account if the username is free.
// Safe to call on every startup.
func (s *UserService) EnsureAdmin(username, password string) error {
	existing, err := s.repo.GetByUsername(username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	_, err = s.CreateUser(username, password, true)
	if errors.Is(err, ErrUsernameTaken) {
		return nil
	}
	return err
}
