package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/chetansirohi/Leads-Agent/internal/api"
	"github.com/chetansirohi/Leads-Agent/internal/auth"
	"github.com/chetansirohi/Leads-Agent/internal/config"
	"github.com/chetansirohi/Leads-Agent/internal/engine"
	"github.com/chetansirohi/Leads-Agent/internal/logging"
	"github.com/chetansirohi/Leads-Agent/internal/mcp"
	"github.com/chetansirohi/Leads-Agent/internal/repository"
	"github.com/chetansirohi/Leads-Agent/internal/services"
	"github.com/chetansirohi/Leads-Agent/internal/tls"
)

func main() {
	ctx := context.Background()

	// Initialize logging
	logger := logging.NewLogger()

	// Parse command line flags
	useMemory := flag.Bool("memory", false, "Run with the in-memory store instead of Postgres (demo mode)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		log.Fatalf("Configuration loading failed: %v", err)
	}
	if cfg.Debug {
		logger.EnableDebug()
	}

	logger.Info("Starting Lead Qualification Service")

	// Initialize repository layer
	var repo repository.Repository
	if *useMemory {
		logger.Warn("Using the in-memory store; nothing will survive a restart")
		repo = repository.NewMemoryStore()
	} else {
		dbPool, err := initDatabase(ctx, cfg, logger)
		if err != nil {
			logger.Error("Failed to initialize database: %v", err)
			log.Fatalf("Database initialization failed: %v", err)
		}
		defer dbPool.Close()

		store := repository.NewPostgresStore(dbPool)
		if err := store.EnsureSchema(ctx); err != nil {
			logger.Error("Failed to ensure schema: %v", err)
			log.Fatalf("Schema initialization failed: %v", err)
		}
		repo = store
		logger.Info("Database connected")
	}

	// Initialize the scoring chain and the workflow engine
	scorer := buildScorer(cfg, logger)
	eng := engine.New(repo, scorer, engine.Config{
		AssignThreshold:  cfg.Routing.AssignThreshold,
		ReviewThreshold:  cfg.Routing.ReviewThreshold,
		ConfidenceMargin: cfg.Matcher.ConfidenceMargin,
	}, logger)

	logger.Info("Workflow engine initialized (assign >= %.1f, review >= %.1f)",
		cfg.Routing.AssignThreshold, cfg.Routing.ReviewThreshold)

	// Create Echo server
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware("leads-agent"))

	// Initialize authentication for the decision endpoint
	authz, err := auth.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize auth: %v", err)
		log.Fatalf("auth initialization failed: %v", err)
	}

	// Mount REST API handlers
	apiServer := api.NewServer(repo, eng)
	apiGroup := e.Group("/api/v1")
	apiServer.RegisterRoutes(apiGroup, authz.RequireAuth)
	e.GET("/health", apiServer.HandleHealth)

	logger.Info("REST API handlers mounted")

	// Mount MCP protocol handlers
	mcpServer := mcp.NewServer(eng)
	mcpHandlers := http.NewServeMux()
	mcp.MountHTTPHandlers(mcpHandlers, mcpServer.GetMCPServer())
	e.Any("/mcp/*", echo.WrapHandler(mcpHandlers))

	logger.Info("MCP protocol handlers mounted")

	// Expose OpenAPI spec and Swagger UI
	e.GET("/openapi.yaml", echo.WrapHandler(api.SpecHandler()))
	e.GET("/docs", echo.WrapHandler(api.SwaggerHandler()))

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // qualification runs ride the request, backoff included
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Server starting on %s (tls=%v)", cfg.Server.Addr, cfg.TLS.Enable)
		if cfg.TLS.Enable {
			if _, err := os.Stat(cfg.TLS.CertFile); os.IsNotExist(err) && len(cfg.TLS.Hostnames) > 0 {
				if err := tls.GenerateSelfSignedCert(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.Hostnames); err != nil {
					logger.Error("failed to generate self-signed cert: %v", err)
				}
			}
			serverErrors <- server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	// Wait for shutdown signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			logger.Error("Server error: %v", err)
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-shutdown:
		logger.Info("Shutdown signal received: %v", sig)

		// Create shutdown context with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				logger.Error("Server close error: %v", err)
			}
		}

		logger.Info("Server stopped gracefully")
	}
}

// buildScorer assembles the tiered scoring chain from configuration. Without
// a primary URL the service scores every lead with the rule-based tier,
// which keeps local development independent of the scoring sidecar.
func buildScorer(cfg *config.Config, logger *logging.Logger) services.Scorer {
	fallback := services.NewRuleScorer()
	if cfg.Scoring.PrimaryURL == "" {
		logger.Warn("No scoring endpoint configured; using rule-based scoring only")
		return services.NewTieredScorer(nil, nil, fallback, services.TieredScorerOptions{MaxAttempts: 1}, logger)
	}

	timeout := time.Duration(cfg.Scoring.TimeoutSeconds) * time.Second
	primary := services.NewHTTPScoringClient(cfg.Scoring.PrimaryURL, "primary", timeout)

	var secondary services.Scorer
	if cfg.Scoring.SecondaryURL != "" {
		secondary = services.NewHTTPScoringClient(cfg.Scoring.SecondaryURL, "secondary", timeout)
	}

	return services.NewTieredScorer(primary, secondary, fallback, services.TieredScorerOptions{
		MaxAttempts:   cfg.Scoring.MaxAttempts,
		BackoffBase:   time.Duration(cfg.Scoring.BackoffSeconds) * time.Second,
		RatePerSecond: cfg.Scoring.RatePerSecond,
		RateBurst:     cfg.Scoring.RateBurst,
	}, logger)
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*pgxpool.Pool, error) {
	logger.Debug("Initializing database connection")

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
