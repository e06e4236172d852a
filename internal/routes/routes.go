package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/hemanthl7/auto-trade-bot/internal/handlers"
)

// SetupRoutes configures all the routes for the application
func SetupRoutes(r *gin.Engine) {
	// Get the configured handler
	relayHandler := handlers.GetGlobalHandler()

	// Webhook source → queue
	r.POST("/webhook", relayHandler.HandleWebhook)

	// Execution client surface
	r.POST("/receive", relayHandler.HandleReceive)
	r.POST("/ticket", relayHandler.SaveTicket)
	r.DELETE("/ticket", relayHandler.DeleteTicket)

	// Audit trail
	r.GET("/signals", relayHandler.GetSignals)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "auto-trade-bot",
		})
	})

	// Root endpoint
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Trading Signal Relay",
			"version": "1.0.0",
			"endpoints": gin.H{
				"webhook": "/webhook",
				"receive": "/receive",
				"ticket":  "/ticket",
				"signals": "/signals",
				"health":  "/health",
			},
		})
	})
}
