package routes

import (
	"github.com/gin-gonic/gin"

	"doubtit/support-api/internal/interfaces/httpserver/handlers"
)

func registerChannelRoutes(group *gin.RouterGroup, h *handlers.Provider, admin gin.HandlerFunc) {
	adminOnly := group.Group("", admin)
	adminOnly.POST("/setup", h.Channel.Setup)
	adminOnly.GET("/webhook-info", h.Channel.WebhookInfo)

	conversations := group.Group("/conversations/:id")
	conversations.POST("/claim", h.Agent.Claim)
	conversations.POST("/send", h.Agent.Send)
	conversations.POST("/close", h.Agent.Close)
	conversations.POST("/release", h.Agent.Release)
	conversations.POST("/handback", h.Agent.HandBack)
}
