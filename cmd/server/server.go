package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"doubtit/support-api/internal/config"
	"doubtit/support-api/internal/domain/agent"
	"doubtit/support-api/internal/domain/conversation"
	"doubtit/support-api/internal/domain/dashboard"
	"doubtit/support-api/internal/domain/inbound"
	"doubtit/support-api/internal/infrastructure/auth"
	"doubtit/support-api/internal/infrastructure/database"
	"doubtit/support-api/internal/infrastructure/dedupe"
	"doubtit/support-api/internal/infrastructure/llmprovider"
	"doubtit/support-api/internal/infrastructure/logger"
	"doubtit/support-api/internal/infrastructure/observability"
	repo "doubtit/support-api/internal/infrastructure/repository/conversation"
	"doubtit/support-api/internal/infrastructure/telegram"
	"doubtit/support-api/internal/interfaces/httpserver"
	"doubtit/support-api/internal/interfaces/httpserver/handlers"
	"doubtit/support-api/internal/interfaces/httpserver/routes"
	"doubtit/support-api/internal/utils/redact"
)

// @title Doubt-It Support API
// @version 1.0
// @description Telegram support desk: assistant replies with human agent handoff
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	backend, err := newStoreBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("initialize conversation store")
	}

	tracker, err := newTracker(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize update dedupe")
	}

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth validator")
	}

	storeCfg := newStoreConfig(cfg)
	store := conversation.NewStore(backend.repository, storeCfg, log)
	engine := conversation.NewEngine(backend.repository, storeCfg, log)

	bot := newTelegramClient(cfg, log)
	responder := newLLMClient(cfg, log)
	redactor := newRedactor(cfg)

	inboundService := inbound.NewService(store, engine, bot, responder, redactor, log)
	agentService := agent.NewService(store, engine, bot, log)
	dashboardService := dashboard.NewService(store, log)

	handlerProvider := handlers.NewProvider(
		handlers.NewDashboardHandler(dashboardService, log),
		handlers.NewAgentHandler(agentService, log),
		handlers.NewChannelHandler(inboundService, tracker, bot, newChannelConfig(cfg), log),
		handlers.NewAuthHandler(log),
	)
	routeProvider := routes.NewProvider(cfg, handlerProvider, authValidator)

	httpServer := httpserver.New(cfg, log, routeProvider, backend.ready)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

// storeBackend is the selected conversation repository and its readiness probe.
type storeBackend struct {
	repository conversation.Repository
	ready      httpserver.ReadinessCheck
}

func newStoreBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storeBackend, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendDynamo:
		client, err := repo.NewDynamoClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &storeBackend{
			repository: repo.NewDynamoRepository(client, newDynamoTables(cfg), log),
			ready: func(ctx context.Context) error {
				_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(cfg.DynamoTable)})
				return err
			},
		}, nil
	case config.StoreBackendPostgres:
		db, err := database.Connect(ctx, newDatabaseConfig(cfg))
		if err != nil {
			return nil, err
		}
		if err := database.AutoMigrate(ctx, db, log); err != nil {
			return nil, err
		}
		return &storeBackend{
			repository: repo.NewPostgresRepository(db),
			ready:      func(ctx context.Context) error { return database.Ping(ctx, db) },
		}, nil
	case config.StoreBackendMemory:
		log.Warn().Msg("using in-memory conversation store; data is lost on restart")
		return &storeBackend{repository: repo.NewInMemoryRepository()}, nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
}

func newTracker(ctx context.Context, cfg *config.Config, log zerolog.Logger) (dedupe.Tracker, error) {
	if cfg.RedisURL == "" {
		log.Info().Int("size", cfg.DedupeCacheSize).Msg("deduplicating webhook updates in process")
		return dedupe.NewMemoryTracker(cfg.DedupeCacheSize, cfg.DedupeTTL)
	}
	client, err := dedupe.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	return dedupe.NewRedisTracker(client, cfg.ServiceName+":tg-update:", cfg.DedupeTTL), nil
}

func newStoreConfig(cfg *config.Config) conversation.StoreConfig {
	return conversation.StoreConfig{Timeout: cfg.StoreTimeout}
}

func newRedactor(cfg *config.Config) *redact.Redactor {
	return redact.New(redact.Level(cfg.LogPIILevel), cfg.LogPIISalt)
}

func newDynamoTables(cfg *config.Config) repo.DynamoTables {
	return repo.DynamoTables{
		Table:       cfg.DynamoTable,
		StatusIndex: cfg.DynamoStatusIndex,
		ThreadIndex: cfg.DynamoThreadIndex,
	}
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newTelegramClient(cfg *config.Config, log zerolog.Logger) *telegram.Client {
	return telegram.NewClient(telegram.Config{
		APIURL:  cfg.TelegramAPIURL,
		Token:   cfg.TelegramBotToken,
		Timeout: cfg.ChannelTimeout,
	}, log)
}

func newLLMClient(cfg *config.Config, log zerolog.Logger) *llmprovider.Client {
	return llmprovider.NewClient(llmprovider.Config{
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.LLMModel,
		Timeout: cfg.LLMTimeout,
	}, log)
}

func newChannelConfig(cfg *config.Config) handlers.ChannelConfig {
	return handlers.ChannelConfig{
		SecretToken: cfg.TelegramSecretToken,
		WebhookURL:  cfg.WebhookURL(),
	}
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
