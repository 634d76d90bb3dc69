package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(SecurityHeadersMiddleware())

	throttle := cfg.LoginThrottle
	if throttle == nil {
		throttle = NewLoginThrottle(DefaultThrottleConfig())
	}

	health := NewHealthController(cfg.Database, cfg.Coordinator, cfg.Version)
	importer := NewImportController(cfg.Coordinator)
	sessions := NewSessionController(cfg.Coordinator, throttle)
	notifications := NewNotificationsController(cfg.Notifications)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")

	// Import cycle
	api.GET("/state", importer.GetState)
	api.POST("/navigate", importer.Navigate)
	api.POST("/scrape", importer.Scrape)
	api.POST("/import", importer.Import)
	api.POST("/view", importer.View)

	// Library session
	api.GET("/session", sessions.GetSession)
	api.POST("/session", sessions.Login)
	api.DELETE("/session", sessions.Logout)

	// Status messages
	api.GET("/notifications", notifications.List)
	api.DELETE("/notifications/:id", notifications.Dismiss)

	return router
}
