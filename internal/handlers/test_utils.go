package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/kennethwltu/smspanel/internal/models"
	"github.com/kennethwltu/smspanel/internal/services"

	"github.com/gin-gonic/gin"
)

// stubSMSService implements SMSServiceInterface with overridable functions
type stubSMSService struct {
	sendSingle   func(userID, phone, content string) (*models.Message, int64, error)
	sendBulk     func(userID string, phones []string, content string) (*models.Message, int64, error)
	getMessage   func(id int64, userID string, isAdmin bool) (*models.Message, error)
	listMessages func(userID string, limit, offset int) ([]*models.Message, error)
	messageStats func() (map[string]int, error)
}

func (s *stubSMSService) SendSingle(userID, phone, content string) (*models.Message, int64, error) {
	return s.sendSingle(userID, phone, content)
}

func (s *stubSMSService) SendBulk(userID string, phones []string, content string) (*models.Message, int64, error) {
	return s.sendBulk(userID, phones, content)
}

func (s *stubSMSService) GetMessage(id int64, userID string, isAdmin bool) (*models.Message, error) {
	return s.getMessage(id, userID, isAdmin)
}

func (s *stubSMSService) ListMessages(userID string, limit, offset int) ([]*models.Message, error) {
	return s.listMessages(userID, limit, offset)
}

func (s *stubSMSService) MessageStats() (map[string]int, error) {
	return s.messageStats()
}

// stubDeadLetterService implements DeadLetterServiceInterface
type stubDeadLetterService struct {
	list       func(statusFilter string, limit int) ([]*models.DeadLetterEntry, error)
	getPending func(limit int) ([]*models.DeadLetterEntry, error)
	stats      func() (*models.DeadLetterStats, error)
	retry      func(id int64) (*services.RetryResult, error)
	retryAll   func() (int, error)
	abandon    func(id int64) error
}

func (s *stubDeadLetterService) List(statusFilter string, limit int) ([]*models.DeadLetterEntry, error) {
	return s.list(statusFilter, limit)
}

func (s *stubDeadLetterService) GetPending(limit int) ([]*models.DeadLetterEntry, error) {
	return s.getPending(limit)
}

func (s *stubDeadLetterService) Stats() (*models.DeadLetterStats, error) {
	return s.stats()
}

func (s *stubDeadLetterService) Retry(id int64) (*services.RetryResult, error) {
	return s.retry(id)
}

func (s *stubDeadLetterService) RetryAll() (int, error) {
	return s.retryAll()
}

func (s *stubDeadLetterService) Abandon(id int64) error {
	return s.abandon(id)
}

// stubUserService implements UserServiceInterface
type stubUserService struct {
	createUser   func(username, password string, isAdmin bool) (*models.User, error)
	authenticate func(username, password string) (*models.User, error)
	getUser      func(id string) (*models.User, error)
}

func (s *stubUserService) CreateUser(username, password string, isAdmin bool) (*models.User, error) {
	return s.createUser(username, password, isAdmin)
}

func (s *stubUserService) Authenticate(username, password string) (*models.User, error) {
	return s.authenticate(username, password)
}

func (s *stubUserService) GetUser(id string) (*models.User, error) {
	return s.getUser(id)
}

// asCaller injects the identity the auth middleware would have set
func asCaller(userID string, isAdmin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("isAdmin", isAdmin)
		c.Next()
	}
}

// performJSON issues a request with an optional JSON body against the engine
func performJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}
