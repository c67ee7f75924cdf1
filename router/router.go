package router

import (
	"net/http"

	"github.com/kennethwltu/smspanel/internal/config"
	"github.com/kennethwltu/smspanel/internal/handlers"
	"github.com/kennethwltu/smspanel/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers bundles everything the router mounts
type Handlers struct {
	Auth        *handlers.AuthHandler
	SMS         *handlers.SMSHandler
	DeadLetters *handlers.DeadLetterHandler
	Queue       *handlers.QueueHandler
	Users       *handlers.UserHandler
}

// Router owns the gin engine and the route table
type Router struct {
	engine *gin.Engine
}

// New assembles the HTTP surface: public auth and health endpoints, the
// authenticated message API and the admin group behind the admin check
func New(cfg *config.Config, h Handlers) *Router {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.AuditLogMiddleware())
	engine.Use(middleware.SecurityHeadersMiddleware())
	engine.Use(middleware.CORSMiddleware())
	engine.Use(middleware.RequestSizeLimitMiddleware(1 << 20))

	engine.GET("/health", handleHealth)
	engine.NoRoute(handleNotFound)

	engine.POST("/api/auth/login", h.Auth.Login)

	api := engine.Group("/api", middleware.AuthMiddleware(cfg))
	{
		api.POST("/sms/send", h.SMS.SendMessage)
		api.POST("/sms/send-bulk", h.SMS.SendBulk)
		api.GET("/messages", h.SMS.ListMessages)
		api.GET("/messages/:id", h.SMS.GetMessage)
		api.GET("/me", h.Users.GetCurrentUser)
	}

	admin := engine.Group("/api/admin", middleware.AuthMiddleware(cfg), middleware.AdminRequired())
	{
		admin.GET("/queue", h.Queue.Status)
		admin.GET("/messages/stats", h.SMS.MessageStats)
		admin.POST("/users", h.Users.CreateUser)

		admin.GET("/dead-letters", h.DeadLetters.List)
		admin.GET("/dead-letters/stats", h.DeadLetters.Stats)
		admin.POST("/dead-letters/retry-all", h.DeadLetters.RetryAll)
		admin.POST("/dead-letters/:id/retry", h.DeadLetters.Retry)
		admin.POST("/dead-letters/:id/abandon", h.DeadLetters.Abandon)
	}

	return &Router{engine: engine}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.engine.ServeHTTP(w, req)
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
}
