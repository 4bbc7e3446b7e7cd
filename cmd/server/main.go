package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/mcoot/playersession/internal/api"
	"github.com/mcoot/playersession/internal/factory"
	"github.com/mcoot/playersession/internal/gateway"
	"github.com/mcoot/playersession/internal/services/credentials"
	redisstorage "github.com/mcoot/playersession/internal/storage/redis"
	"github.com/mcoot/playersession/internal/transport/ws"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	hubCfg := ws.DefaultConfig()
	hubCfg.MaxConnections = envInt(logger, "MAX_CONNECTIONS", hubCfg.MaxConnections)

	gatewayCfg := gateway.DefaultConfig()
	gatewayCfg.LogoutOnDisconnect = envBool(logger, "LOGOUT_ON_DISCONNECT", gatewayCfg.LogoutOnDisconnect)

	// Build factory config from environment
	cfg := factory.Config{
		Logger:        logger,
		StorageType:   os.Getenv("STORAGE_TYPE"),
		DataDir:       os.Getenv("DATA_DIR"),
		HashScheme:    credentials.Scheme(os.Getenv("HASH_SCHEME")),
		BcryptCost:    envInt(logger, "BCRYPT_COST", 0),
		HubConfig:     hubCfg,
		GatewayConfig: &gatewayCfg,
	}

	// Configure Redis if storage type is redis
	if cfg.StorageType == factory.StorageTypeRedis {
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			logger.Error("REDIS_URL required when STORAGE_TYPE=redis")
			os.Exit(1)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	}

	// Create application factory
	app, err := factory.New(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	app.Start()

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		AuthService: app.AuthService,
		Hub:         app.Hub,
		Metrics:     app.Metrics,
		AdminToken:  os.Getenv("ADMIN_TOKEN"),
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Port = envInt(logger, "PORT", serverConfig.Port)
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.Int("max_connections", hubCfg.MaxConnections))

	exitCode := 0

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	// Websocket connections are hijacked, so close them before the HTTP server
	app.Hub.Close()
	if err := server.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		exitCode = 1
	}
	if err := app.Storage.Close(); err != nil {
		logger.Error("storage close error", slog.String("error", err.Error()))
		exitCode = 1
	}

	logger.Info("server stopped")
	os.Exit(exitCode)
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func envInt(logger *slog.Logger, key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		logger.Warn("ignoring invalid integer setting", slog.String("key", key), slog.String("value", raw))
		return def
	}
	return n
}

func envBool(logger *slog.Logger, key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		logger.Warn("ignoring invalid boolean setting", slog.String("key", key), slog.String("value", raw))
		return def
	}
	return b
}
