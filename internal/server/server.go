// Package server assembles the HTTP application: infrastructure
// (store, database), services, middleware, and routes, plus the
// graceful shutdown lifecycle.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/chronoverse/chronoverse/internal/api"
	"github.com/chronoverse/chronoverse/internal/config"
	"github.com/chronoverse/chronoverse/internal/models"
	"github.com/chronoverse/chronoverse/internal/services/budget"
	"github.com/chronoverse/chronoverse/internal/services/database"
	"github.com/chronoverse/chronoverse/internal/services/events"
	"github.com/chronoverse/chronoverse/internal/services/minutecache"
	"github.com/chronoverse/chronoverse/internal/services/poem"
	"github.com/chronoverse/chronoverse/internal/services/pricing"
	"github.com/chronoverse/chronoverse/internal/services/provider"
	"github.com/chronoverse/chronoverse/internal/services/ratelimit"
	"github.com/chronoverse/chronoverse/internal/store"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

// Server is one ChronoVerse instance.
type Server struct {
	config *config.Config
	app    *fiber.App
	redis  *redis.Client
	db     *database.DB
}

// New creates a Server for the given configuration.
func New(cfg *config.Config) *Server {
	if cfg == nil {
		panic("config cannot be nil - use config.LoadFromFile() to create one")
	}
	return &Server{config: cfg}
}

// Run starts the server and blocks until shutdown.
func (s *Server) Run() error {
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	setupLogLevel(s.config)

	port := s.config.Server.Port
	if port == "" {
		port = "8080"
	}
	listenAddr := ":" + port

	s.app = createFiberApp(s.config)

	backing, err := s.createStore()
	if err != nil {
		return err
	}
	defer func() {
		if err := backing.Close(); err != nil {
			fiberlog.Errorf("Failed to close store: %v", err)
		}
	}()

	if s.config.Database != nil {
		db, err := database.New(*s.config.Database)
		if err != nil {
			return fmt.Errorf("database initialization failed: %w", err)
		}
		s.db = db
		defer func() {
			if err := s.db.Close(); err != nil {
				fiberlog.Errorf("Failed to close database connection: %v", err)
			}
		}()
	}

	setupMiddleware(s.app, s.config)

	if err := s.setupRoutes(backing); err != nil {
		return fmt.Errorf("failed to setup routes: %w", err)
	}

	fmt.Printf("ChronoVerse starting on %s\n", listenAddr)
	fmt.Printf("   Environment: %s\n", s.config.Server.Environment)
	fmt.Printf("   Go version: %s\n", runtime.Version())
	fmt.Printf("   GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := s.app.Listen(listenAddr); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		fiberlog.Infof("Received signal: %v. Starting graceful shutdown...", sig)
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	}

	fiberlog.Info("Server shutting down gracefully...")
	if err := s.app.ShutdownWithTimeout(30 * time.Second); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	fiberlog.Info("Server shutdown completed successfully")

	return nil
}

// createStore picks the cache/rate-limit backend. Memory serves a
// single instance; Redis is required for a fleet to share counters,
// cache entries, and generation locks.
func (s *Server) createStore() (store.Store, error) {
	if s.config.Cache.Backend != models.CacheBackendRedis {
		fiberlog.Info("Using in-process store - run a single instance or switch cache.backend to redis")
		return store.NewMemoryStore(), nil
	}

	client, err := createRedisClient(s.config.Cache.RedisURL)
	if err != nil {
		return nil, err
	}
	s.redis = client
	return store.NewRedisStore(client), nil
}

func (s *Server) setupRoutes(backing store.Store) error {
	registry := provider.NewRegistry()

	if cfg, ok := s.config.GetProviderConfig("openai"); ok {
		adapter, err := provider.NewOpenAIAdapter(cfg)
		if err != nil {
			return err
		}
		registry.Register(adapter)
	}
	if cfg, ok := s.config.GetProviderConfig("anthropic"); ok {
		adapter, err := provider.NewAnthropicAdapter(cfg)
		if err != nil {
			return err
		}
		registry.Register(adapter)
	}
	if cfg, ok := s.config.GetProviderConfig("gemini"); ok {
		adapter, err := provider.NewGeminiAdapter(context.Background(), cfg)
		if err != nil {
			return err
		}
		registry.Register(adapter)
	}

	pricingSvc := pricing.NewService(s.config.Pricing)
	if err := pricingSvc.Validate(s.config.Experiment.ActiveModels()); err != nil {
		return err
	}

	if s.db == nil {
		return fmt.Errorf("database configuration is required for the usage ledger")
	}
	eventsSvc := events.NewService(s.db)

	poemSvc := poem.NewService(
		s.config,
		ratelimit.NewLimiter(backing),
		budget.NewService(eventsSvc, s.config.Budget.DailyLimitUSD),
		minutecache.New(backing, s.config.Cache),
		registry,
		pricingSvc,
		eventsSvc,
	)

	poemHandler := api.NewPoemHandler(poemSvc)
	usageHandler := api.NewUsageHandler(eventsSvc, budget.NewService(eventsSvc, s.config.Budget.DailyLimitUSD))
	healthHandler := api.NewHealthHandler(s.db, s.redis)

	v1 := s.app.Group("/v1")
	v1.Post("/poem", poemHandler.CreatePoem)
	v1.Get("/tones", poemHandler.ListTones)
	v1.Get("/usage/today", usageHandler.Today)
	v1.Get("/usage/stats", usageHandler.Stats)

	s.app.Get("/health", healthHandler.HealthCheck)

	return nil
}

func createFiberApp(cfg *config.Config) *fiber.App {
	isProd := cfg.IsProduction()

	return fiber.New(fiber.Config{
		AppName:           "ChronoVerse v1.0",
		EnablePrintRoutes: !isProd,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       5 * time.Minute,
		CaseSensitive:     true,
		ServerHeader:      "ChronoVerse",
	})
}

func setupMiddleware(app *fiber.App, cfg *config.Config) {
	isProd := cfg.IsProduction()

	// Recover middleware (must be first)
	app.Use(recover.New(recover.Config{
		EnableStackTrace: !isProd,
	}))

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	if isProd {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${status} ${method} ${path} ${latency} ${bytesSent}b\n",
			Output: os.Stdout,
		}))
	} else {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path} ${error}\n",
			Output: os.Stdout,
		}))
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.AllowedOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, X-User-ID, X-Forwarded-For",
		AllowMethods:  "GET, POST, OPTIONS",
		MaxAge:        86400,
		ExposeHeaders: "Content-Length, Content-Type",
	}))
}

func setupLogLevel(cfg *config.Config) {
	logLevel := cfg.GetNormalizedLogLevel()

	switch logLevel {
	case "trace":
		fiberlog.SetLevel(fiberlog.LevelTrace)
	case "debug":
		fiberlog.SetLevel(fiberlog.LevelDebug)
	case "info", "":
		fiberlog.SetLevel(fiberlog.LevelInfo)
	case "warn", "warning":
		fiberlog.SetLevel(fiberlog.LevelWarn)
	case "error":
		fiberlog.SetLevel(fiberlog.LevelError)
	default:
		fiberlog.SetLevel(fiberlog.LevelInfo)
		fiberlog.Warnf("Unknown log level '%s', defaulting to 'info'", logLevel)
	}
}

func createRedisClient(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("cache.backend is redis but cache.redis_url is empty")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = 50
	opt.MinIdleConns = 10
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute
	opt.DialTimeout = 10 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.MaxRetries = 3

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	fiberlog.Info("Redis connection established successfully")
	return client, nil
}
