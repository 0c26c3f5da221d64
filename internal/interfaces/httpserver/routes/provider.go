package routes

import (
	"strings"

	"github.com/gin-gonic/gin"

	"doubtit/support-api/internal/config"
	"doubtit/support-api/internal/infrastructure/auth"
	"doubtit/support-api/internal/interfaces/httpserver/handlers"
)

// Provider coordinates all route registrations.
type Provider struct {
	handlers    *handlers.Provider
	auth        *auth.Validator
	webhookPath string
}

// NewProvider constructs the route provider.
func NewProvider(cfg *config.Config, handlerProvider *handlers.Provider, validator *auth.Validator) *Provider {
	return &Provider{
		handlers:    handlerProvider,
		auth:        validator,
		webhookPath: "/" + strings.TrimLeft(cfg.TelegramWebhookPath, "/"),
	}
}

// Register attaches all routes to the gin engine.
func (p *Provider) Register(engine *gin.Engine) {
	authenticated := p.auth.Middleware()

	// Telegram authenticates with the webhook secret, not a user token.
	engine.POST(p.webhookPath, p.handlers.Channel.Webhook)

	dashboard := engine.Group("/dashboard", authenticated)
	registerDashboardRoutes(dashboard, p.handlers.Dashboard)

	channel := engine.Group("/channel", authenticated)
	registerChannelRoutes(channel, p.handlers, p.auth.RequireAdmin())

	authGroup := engine.Group("/auth", authenticated)
	authGroup.GET("/me", p.handlers.Auth.Me)
}
