//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"doubtit/support-api/internal/config"
	"doubtit/support-api/internal/domain/agent"
	"doubtit/support-api/internal/domain/channel"
	"doubtit/support-api/internal/domain/conversation"
	"doubtit/support-api/internal/domain/dashboard"
	"doubtit/support-api/internal/domain/inbound"
	"doubtit/support-api/internal/domain/llm"
	"doubtit/support-api/internal/infrastructure/auth"
	"doubtit/support-api/internal/infrastructure/llmprovider"
	"doubtit/support-api/internal/infrastructure/logger"
	"doubtit/support-api/internal/infrastructure/telegram"
	"doubtit/support-api/internal/interfaces/httpserver"
	"doubtit/support-api/internal/interfaces/httpserver/handlers"
	"doubtit/support-api/internal/interfaces/httpserver/routes"
)

var storeSet = wire.NewSet(
	newStoreBackend,
	newStoreConfig,
	wire.FieldsOf(new(*storeBackend), "repository", "ready"),
	conversation.NewStore,
	conversation.NewEngine,
)

var clientSet = wire.NewSet(
	newTelegramClient,
	wire.Bind(new(channel.Messenger), new(*telegram.Client)),
	wire.Bind(new(handlers.WebhookRegistrar), new(*telegram.Client)),
	newLLMClient,
	wire.Bind(new(llm.Responder), new(*llmprovider.Client)),
	newTracker,
	auth.NewValidator,
	newRedactor,
)

var serviceSet = wire.NewSet(
	inbound.NewService,
	agent.NewService,
	dashboard.NewService,
)

var httpSet = wire.NewSet(
	newChannelConfig,
	handlers.NewDashboardHandler,
	handlers.NewAgentHandler,
	handlers.NewChannelHandler,
	handlers.NewAuthHandler,
	handlers.NewProvider,
	routes.NewProvider,
	httpserver.New,
)

// BuildApplication assembles the support service with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		storeSet,
		clientSet,
		serviceSet,
		httpSet,
		NewApplication,
	)
	return nil, nil
}
