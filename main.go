package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iilkane/Legerity/common/auth"
	apperrors "github.com/iilkane/Legerity/common/errors"
	"github.com/iilkane/Legerity/common/logger"
	commonmw "github.com/iilkane/Legerity/common/middleware"
	"github.com/iilkane/Legerity/config"
	"github.com/iilkane/Legerity/controllers"
	"github.com/iilkane/Legerity/database"
	"github.com/iilkane/Legerity/kafka"
	"github.com/iilkane/Legerity/middleware"
	awspkg "github.com/iilkane/Legerity/pkg/aws"
	"github.com/iilkane/Legerity/repository"
	"github.com/iilkane/Legerity/routes"
	"github.com/iilkane/Legerity/services"
)

const serviceName = "legerity"

func main() {
	logger.Initialize(os.Getenv("APP_ENV"))
	defer logger.Log.Sync() //nolint:errcheck

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal("Failed to load config", zap.Error(err))
	}
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.ConnectPostgres(cfg.PostgresDSN(), logger.Log)
	if err != nil {
		logger.Log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db) //nolint:errcheck

	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Migration failed", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Log.Warn("Redis unavailable, idempotency cache and catalog cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}

	// AWS clients
	var snsClient awspkg.SNSPublisher
	var metricsClient awspkg.MetricsRecorder
	awsCfg, awsErr := awspkg.LoadAWSConfig(context.Background())
	if awsErr != nil {
		logger.Log.Warn("AWS config unavailable, SNS and metrics disabled", zap.Error(awsErr))
	} else {
		if cfg.OrderSNSTopicARN != "" {
			snsClient = awspkg.NewSNSClient(awsCfg)
		}
		metricsClient = awspkg.NewMetricsClient(awsCfg, cfg.CloudWatchNamespace, cfg.CloudWatchEnabled)
	}

	var producer kafka.ProducerAPI
	if len(cfg.KafkaBrokers) > 0 {
		p := kafka.NewProducer(cfg.KafkaBrokers, cfg.OrderEventsTopic, logger.Log)
		defer p.Close() //nolint:errcheck
		producer = p
	}

	// Repositories
	cartRepo := repository.NewGormCartRepository(db)
	orderRepo := repository.NewGormOrderRepository(db)
	stockGuard := repository.NewGormStockGuard(db)
	catalogRepo := repository.NewGormCatalogRepository(db)

	var idempotency repository.IdempotencyStore
	var productCache services.ProductCache
	if redisClient != nil {
		idempotency = repository.NewRedisIdempotencyStore(redisClient)
		cached := repository.NewCachedCatalogRepository(catalogRepo, redisClient, cfg.CatalogCacheTTL, logger.Log)
		if metricsClient != nil {
			cached.OnHit = func() { recordAsync(metricsClient, awspkg.MetricCatalogCacheHits) }
			cached.OnMiss = func() { recordAsync(metricsClient, awspkg.MetricCatalogCacheMiss) }
		}
		catalogRepo = cached
		productCache = cached
	}

	// Services
	retry := database.RetryPolicy{MaxRetries: cfg.CheckoutMaxRetries, Backoff: cfg.CheckoutRetryBackoff}
	cartService := services.NewCartService(db, cartRepo, stockGuard, retry, metricsClient)
	checkoutService := services.NewCheckoutService(db, cartRepo, orderRepo, stockGuard, services.CheckoutOptions{
		MaxRetries:     cfg.CheckoutMaxRetries,
		RetryBackoff:   cfg.CheckoutRetryBackoff,
		IdempotencyTTL: cfg.IdempotencyTTL,
		Idempotency:    idempotency,
		Producer:       producer,
		SNS:            snsClient,
		SNSTopicArn:    cfg.OrderSNSTopicARN,
		Metrics:        metricsClient,
		ProductCache:   productCache,
	})
	orderService := services.NewOrderService(orderRepo)
	catalogService := services.NewCatalogService(catalogRepo)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(commonmw.RequestLogger(logger.Log, "/health"))
	r.Use(commonmw.SecurityHeaders())
	r.Use(commonmw.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(commonmw.RateLimitMiddleware(cfg.RateLimitPerMinute, cfg.RateLimitPerMinute/2+1))
	r.Use(commonmw.Timeout(cfg.RequestTimeout))
	if metricsClient != nil {
		r.Use(commonmw.MetricsMiddleware(metricsClient, serviceName))
	}
	r.Use(apperrors.ErrorMiddleware())

	authMiddleware := middleware.AuthMiddleware(auth.NewTokenParser(cfg.JWTSecret), cfg.TrustGatewayHeader)
	routes.RegisterRoutes(r, authMiddleware, routes.Controllers{
		Cart:     controllers.NewCartController(cartService),
		Checkout: controllers.NewCheckoutController(checkoutService),
		Orders:   controllers.NewOrderController(orderService),
		Catalog:  controllers.NewCatalogController(catalogService),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Log.Info("Storefront service started", zap.String("port", cfg.Port))
	<-quit
	logger.Log.Info("Shutting down storefront service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	logger.Log.Info("Server exited cleanly")
}

func recordAsync(m awspkg.MetricsRecorder, metric string) {
	if !m.IsEnabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = m.RecordCount(ctx, metric, map[string]string{"Service": serviceName})
	}()
}
