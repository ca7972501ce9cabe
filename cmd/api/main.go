package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/artikelservice/backend/internal/api/handlers"
	rediscache "github.com/artikelservice/backend/internal/cache/redis"
	"github.com/artikelservice/backend/internal/corrections"
	"github.com/artikelservice/backend/internal/detect"
	"github.com/artikelservice/backend/internal/lexicon"
	"github.com/artikelservice/backend/internal/metrics"
	"github.com/artikelservice/backend/internal/middleware/ratelimit"
	"github.com/artikelservice/backend/internal/middleware/validation"
	"github.com/artikelservice/backend/internal/nlp"
	"github.com/artikelservice/backend/internal/storage/sqlite"
	"github.com/artikelservice/backend/pkg/config"
	appLogger "github.com/artikelservice/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting article detection service")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	table := lexicon.NewTable()
	fetcher := lexicon.NewFetcher(cfg.Source.URL, cfg.Source.Timeout(), cfg.Source.MinPayloadBytes)
	loader := lexicon.NewLoader(lexicon.LoaderConfig{
		MinValidRows: cfg.Source.MinValidRows,
		CacheTTL:     cfg.Source.CacheTTL(),
	}, fetcher, sqliteClient, table)

	store := corrections.NewStore(sqliteClient, cfg.Detection.CorrectionThreshold)

	contextAnalyzer := detect.NewContextAnalyzer(cfg.Detection.ContextWindow)
	detector := detect.NewDetector(detect.Config{
		MemoCeiling:         cfg.Detection.MemoCeiling,
		CorrectionThreshold: cfg.Detection.CorrectionThreshold,
	}, table, store, contextAnalyzer)

	facade := nlp.NewFacade(table, detector, store)

	if cfg.Redis.Enabled {
		cache, err := rediscache.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLMin)*time.Minute,
		)
		if err != nil {
			appLogger.Warn("Redis unavailable, running without response cache", zap.Error(err))
		} else {
			defer cache.Close()
			facade.WithCache(cache)
		}
	}

	// The service tolerates an empty table; a failed initial load only means
	// the cascade runs without its bulk reference data until a refresh
	// succeeds.
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 2*time.Minute)
	if _, err := loader.Load(startupCtx, false); err != nil {
		appLogger.Warn("Initial lexicon load failed", zap.Error(err))
	}
	cancelStartup()

	refreshCtx, cancelRefresh := context.WithCancel(context.Background())
	defer cancelRefresh()
	go refreshLoop(refreshCtx, loader, cfg.Source.RefreshInterval())

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	limiter := ratelimit.New(ratelimit.Config{Logger: appLogger.Log})
	defer limiter.Stop()
	app.Use(limiter.Middleware())
	app.Use(validation.Middleware(validation.Config{Logger: appLogger.Log}))

	wordHandler := handlers.NewWordHandler(facade, loader)
	wsHandler := handlers.NewWebSocketHandler(facade)

	api := app.Group("/api/v1")

	api.Get("/words/:word", wordHandler.GetWord)
	api.Get("/words/:word/similar", wordHandler.SimilarWords)
	api.Post("/detect", wordHandler.Detect)
	api.Post("/corrections", wordHandler.AddCorrection)
	api.Get("/quality", wordHandler.Quality)
	api.Post("/refresh", wordHandler.Refresh)

	app.Get("/metrics", metrics.MetricsHandler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/detect", websocket.New(wsHandler.HandleConnection))

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"lexicon_size": table.Size(),
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}

// refreshLoop keeps the lexicon fresh. The loader's own TTL check decides
// whether a tick actually hits the network.
func refreshLoop(ctx context.Context, loader *lexicon.Loader, interval time.Duration) {
	if interval <= 0 {
		interval = 12 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := loader.Load(ctx, false); err != nil && !errors.Is(err, lexicon.ErrLoadInProgress) {
				appLogger.Warn("Scheduled lexicon refresh failed", zap.Error(err))
			}
		}
	}
}
