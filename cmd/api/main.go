package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"atelier-admin/config"
	"atelier-admin/internal/delivery/http/middleware"
	v1 "atelier-admin/internal/delivery/http/v1"
	"atelier-admin/internal/domain"
	"atelier-admin/internal/infrastructure/cache"
	"atelier-admin/internal/infrastructure/catalogapi"
	"atelier-admin/internal/infrastructure/session"
	"atelier-admin/internal/matrix"
	"atelier-admin/internal/repository/pg"
	"atelier-admin/internal/usecase"
	"atelier-admin/pkg/logger"
	"atelier-admin/pkg/storage"
	"atelier-admin/pkg/utils"

	"github.com/NYTimes/gziphandler"
	"golang.org/x/time/rate"
)

const serviceName = "atelier-admin"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg := config.LoadConfig()
	utils.SetSecret(cfg.JWTSecret)

	// Initialize Logger
	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	ctx := context.Background()

	// Initialize Cache (In-Memory)
	// Default expiration 30m, cleanup every 10m
	memCache := cache.NewMemoryCache(30*time.Minute, 10*time.Minute)

	// Session store
	var sessions domain.SessionStore
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		client, err := session.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer client.Close()
		sessions = session.NewRedisStore(client, cfg.SessionTTL)
		log.Info().Msg("Variant sessions stored in Redis")
	default:
		sessions = session.NewMemoryStore(memCache, cfg.SessionTTL)
		log.Info().Msg("Variant sessions stored in memory")
	}

	// Save audits (optional)
	audits := pg.NewNoopAuditRepository()
	if cfg.DBUrl != "" {
		pool, err := pg.NewPgxPool(ctx, pg.PoolConfig{
			DSN:         cfg.DBUrl,
			MaxConns:    cfg.DBMaxConns,
			MinConns:    cfg.DBMinConns,
			MaxIdleTime: cfg.DBMaxConnIdleTime,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer pool.Close()
		if err := pg.EnsureAuditSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to prepare audit table")
		}
		audits = pg.NewAuditRepository(pool)
		log.Info().Msg("Successfully connected to PostgreSQL, save audits enabled")
	}

	// --- Storage Module (R2, optional) ---
	var exports domain.ExportStorage
	if cfg.R2Enabled() {
		r2Storage, err := storage.NewR2Storage(
			ctx,
			cfg.R2AccountID,
			cfg.R2AccessKeyID,
			cfg.R2AccessKeySecret,
			cfg.R2BucketName,
			cfg.R2PublicURL,
			cfg.R2UploadTimeout,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize R2 Storage")
		}
		exports = r2Storage
	} else {
		log.Warn().Msg("R2 not configured, matrix export disabled")
	}

	// --- Modules Initialization ---
	catalog := catalogapi.NewClient(cfg.CatalogAPIURL, cfg.CatalogAPITimeout)

	variantUC := usecase.NewVariantUsecase(catalog, sessions, audits, exports, matrix.NewEngine(), cfg.MaxUploadSizeMB)
	variantHandler := v1.NewVariantHandler(variantUC, cfg.MaxUploadSizeMB)

	productUC := usecase.NewProductUsecase(catalog, memCache, cfg.ProductListTTL)
	productHandler := v1.NewProductHandler(productUC)

	// Per-admin rate limiter, cleanup every minute, TTL 3 minutes
	rateLimiter := middleware.NewRateLimiter(
		ctx,
		rate.Limit(cfg.RateLimitRPS),
		cfg.RateLimitBurst,
		time.Minute,
		3*time.Minute,
	)
	limit := rateLimiter.Middleware()

	// Set up Router
	mux := http.NewServeMux()

	// Admin (Protected)
	adminMiddleware := func(h http.HandlerFunc) http.Handler {
		return middleware.AuthMiddleware(limit(middleware.AdminMiddleware(h)))
	}
	v1.RegisterAdminRoutes(mux, productHandler, variantHandler, adminMiddleware)

	// Health Check
	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "sessions": cfg.SessionStore})
	}
	mux.HandleFunc("GET /api/v1/health", healthHandler)
	mux.HandleFunc("GET /health", healthHandler) // Support root health check for Load Balancers

	addr := fmt.Sprintf(":%s", cfg.Port)

	// Apply CORS, Request Logger and Gzip
	handler := middleware.NewCORSMiddleware(cfg.AllowedOrigin)(mux)
	handler = middleware.RequestLogger(handler)
	handler = gziphandler.GzipHandler(handler)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful Shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	logger.ServiceStart(serviceName, version, cfg.Port)

	// Wait for interrupt signal via channel
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	rateLimiter.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.ServiceStop(serviceName)
}
