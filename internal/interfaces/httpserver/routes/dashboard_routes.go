package routes

import (
	"github.com/gin-gonic/gin"

	"doubtit/support-api/internal/interfaces/httpserver/handlers"
)

func registerDashboardRoutes(router gin.IRoutes, handler *handlers.DashboardHandler) {
	router.GET("/conversations", handler.ListConversations)
	router.GET("/conversations/:id", handler.GetConversation)
	router.GET("/stats", handler.Stats)
}
