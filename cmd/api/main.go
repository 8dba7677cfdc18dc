// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/carterperez-dev/storefront/internal/admin"
	"github.com/carterperez-dev/storefront/internal/auth"
	"github.com/carterperez-dev/storefront/internal/cart"
	"github.com/carterperez-dev/storefront/internal/catalog"
	"github.com/carterperez-dev/storefront/internal/client"
	"github.com/carterperez-dev/storefront/internal/config"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/favorites"
	"github.com/carterperez-dev/storefront/internal/health"
	"github.com/carterperez-dev/storefront/internal/middleware"
	"github.com/carterperez-dev/storefront/internal/oauth"
	"github.com/carterperez-dev/storefront/internal/order"
	"github.com/carterperez-dev/storefront/internal/profile"
	"github.com/carterperez-dev/storefront/internal/router"
	"github.com/carterperez-dev/storefront/internal/server"
	"github.com/carterperez-dev/storefront/internal/storage"
)

const (
	drainDelay    = 5 * time.Second
	purgeInterval = time.Hour
	apiBase       = "/v1"
)

func main() {
	configPath := pflag.StringP("config", "c", "config.yaml", "path to config file")
	envFile := pflag.String("env-file", ".env", "dotenv file loaded before the environment is read")
	genKeys := pflag.Bool("generate-keys", false, "write a new ES256 signing key pair and exit")
	privateKey := pflag.String("private-key", "keys/private.pem", "private key path for --generate-keys")
	publicKey := pflag.String("public-key", "keys/public.pem", "public key path for --generate-keys")
	pflag.Parse()

	if *genKeys {
		if err := generateKeys(*privateKey, *publicKey); err != nil {
			slog.Error("generate keys", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("load env file", "path", *envFile, "error", err)
		os.Exit(1)
	}

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		logger.Warn("failed to initialize telemetry, tracing disabled", "error", err)
		disabled := cfg.Otel
		disabled.Enabled = false
		//nolint:errcheck // disabled telemetry cannot fail
		telemetry, _ = core.NewTelemetry(ctx, disabled, cfg.App)
	} else if cfg.Otel.Enabled {
		logger.Info("OpenTelemetry tracer initialized",
			"endpoint", cfg.Otel.Endpoint,
		)
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.KeyID(),
	)

	var providers []oauth.Provider
	if cfg.Google.Enabled {
		google, gErr := oauth.NewGoogleProvider(ctx, cfg.Google)
		if gErr != nil {
			return gErr
		}
		providers = append(providers, google)
		logger.Info("google sign-in enabled")
	}

	kv := storage.NewRedisKV(redis.Client, 0)

	profileSvc := profile.NewService(profile.NewRepository(db.DB))
	profileHandler := profile.NewHandler(profileSvc)

	authSvc := auth.NewService(auth.ServiceDeps{
		Identities: auth.NewIdentityRepository(db.DB),
		Tokens:     auth.NewTokenRepository(db.DB),
		JWT:        jwtManager,
		Redis:      redis.Client,
		Providers:  oauth.NewRegistry(providers...),
		Config:     cfg.Auth,
		Logger:     logger,
	})
	authHandler := auth.NewHandler(authSvc, cfg.Auth.PostLoginRedirect)

	catalogRepo := catalog.NewRepository(db.DB)
	catalogSvc := catalog.NewService(catalogRepo, catalog.NewCache(), cfg.Catalog, logger)
	catalogHandler := catalog.NewHandler(catalogSvc)

	cartHandler := cart.NewHandler(kv, cfg.Storefront.CartKeyPrefix, catalogSvc)
	favoritesHandler := favorites.NewHandler(kv, cfg.Storefront.FavoritesKeyPrefix)

	workflow := order.NewWorkflow(order.WorkflowDeps{
		Orders:   order.NewRepository(db.DB),
		Stock:    catalogRepo,
		Profiles: profileSvc,
		Defaults: cfg.Storefront,
		Logger:   logger,
		Tracer:   telemetry.Tracer("order"),
	})
	orderHandler := order.NewHandler(workflow)

	clientHandler := client.NewHandler(client.Deps{
		KV:         kv,
		ViewPrefix: cfg.Storefront.ViewKeyPrefix,
		Carts:      cartHandler,
		Orders:     workflow,
		Products:   catalogSvc,
		Logger:     logger,
	})

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Orders:     workflow,
		Customers:  profileSvc,
		Catalog:    catalogSvc,
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
	})

	healthHandler := health.NewHandler(
		health.Check{Name: "database", Checker: db},
		health.Check{Name: "redis", Checker: redis},
	)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	root := srv.Router()

	root.Use(middleware.RequestID)
	root.Use(middleware.Logger(logger))
	root.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	root.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	root.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(root)

	root.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	root.Mount(apiBase, router.New(router.Config{
		Attach:          authSvc.Attach,
		Profiles:        profileSvc,
		Logger:          logger,
		NamePlaceholder: cfg.Storefront.ProfileNamePlaceholder,
		Base:            apiBase,
		Shared:          authHandler.RegisterRoutes,
		Public:          catalogHandler.RegisterPublicRoutes,
		Client: func(r chi.Router) {
			catalogHandler.RegisterPublicRoutes(r)
			cartHandler.RegisterRoutes(r)
			favoritesHandler.RegisterRoutes(r)
			orderHandler.RegisterClientRoutes(r)
			profileHandler.RegisterRoutes(r)
			clientHandler.RegisterRoutes(r)
		},
		Admin: func(r chi.Router) {
			catalogHandler.RegisterAdminRoutes(r)
			orderHandler.RegisterAdminRoutes(r)
			profileHandler.RegisterRoutes(r)
			adminHandler.RegisterRoutes(r)
		},
	}))

	go purgeExpiredTokens(ctx, authSvc, logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func generateKeys(privatePath, publicPath string) error {
	for _, dir := range []string{filepath.Dir(privatePath), filepath.Dir(publicPath)} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	if err := auth.GenerateKeyPair(privatePath, publicPath); err != nil {
		return err
	}
	slog.Info("signing keys written", "private", privatePath, "public", publicPath)
	return nil
}

// purgeExpiredTokens drops dead refresh tokens until ctx is cancelled.
func purgeExpiredTokens(ctx context.Context, svc *auth.Service, logger *slog.Logger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.PurgeExpiredTokens(ctx)
			if err != nil {
				logger.Warn("purge expired tokens", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("purged expired tokens", "count", n)
			}
		}
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
