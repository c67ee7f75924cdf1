package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/kennethwltu/smspanel/internal/config"
	"github.com/kennethwltu/smspanel/internal/db"
	"github.com/kennethwltu/smspanel/internal/gateway"
	"github.com/kennethwltu/smspanel/internal/handlers"
	"github.com/kennethwltu/smspanel/internal/queue"
	"github.com/kennethwltu/smspanel/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// scriptedGateway succeeds unless a recipient has a scripted error
type scriptedGateway struct {
	mu       sync.Mutex
	outcomes map[string]error
}

func (g *scriptedGateway) failWith(recipient string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.outcomes == nil {
		g.outcomes = make(map[string]error)
	}
	g.outcomes[recipient] = err
}

func (g *scriptedGateway) succeedAgain(recipient string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.outcomes, recipient)
}

func (g *scriptedGateway) Send(ctx context.Context, recipient, content string) (*gateway.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.outcomes[recipient]; ok && err != nil {
		return nil, err
	}
	return &gateway.Response{StatusCode: 200, Body: "OK"}, nil
}

// testApp is a fully wired application on an in-memory database
type testApp struct {
	router      *Router
	config      *config.Config
	database    *db.Database
	gateway     *scriptedGateway
	queue       *queue.TaskQueue
	messages    db.MessageRepository
	deadLetters db.DeadLetterRepository
	users       *services.UserService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.JWT.Secret = "router-test-secret"
	cfg.JWT.TokenExpiry = time.Hour

	database, err := db.NewDatabase(":memory:")
	require.NoError(t, err)
	database.GetDB().SetMaxOpenConns(1)
	t.Cleanup(func() { _ = database.Close() })

	messages := db.NewMessageRepository(database.GetDB())
	deadLetters := db.NewDeadLetterRepository(database.GetDB())
	userRepo := db.NewUserRepository(database.GetDB())

	gw := &scriptedGateway{}
	q := queue.New(1, 16)
	retry := queue.NewRetryPolicy(3, time.Millisecond, 2*time.Millisecond)

	smsService := services.NewSMSService(messages, deadLetters, gw, q, retry, nil, 3)
	smsService.RegisterHandlers()
	dlqService := services.NewDeadLetterService(deadLetters, messages, gw, retry, nil)
	userService := services.NewUserService(userRepo)

	q.Start()
	t.Cleanup(q.Stop)

	r := New(cfg, Handlers{
		Auth:        handlers.NewAuthHandler(cfg, userService),
		SMS:         handlers.NewSMSHandler(smsService),
		DeadLetters: handlers.NewDeadLetterHandler(dlqService),
		Queue:       handlers.NewQueueHandler(q),
		Users:       handlers.NewUserHandler(userService),
	})

	return &testApp{
		router:      r,
		config:      cfg,
		database:    database,
		gateway:     gw,
		queue:       q,
		messages:    messages,
		deadLetters: deadLetters,
		users:       userService,
	}
}

// register creates a user directly through the service and returns a token
func (a *testApp) register(t *testing.T, username string, isAdmin bool) string {
	t.Helper()

	_, err := a.users.CreateUser(username, "password123", isAdmin)
	require.NoError(t, err)
	return a.login(t, username, "password123")
}

func (a *testApp) login(t *testing.T, username, password string) string {
	t.Helper()

	w := a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}
