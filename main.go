package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tailorly-api/cache"
	"github.com/kendall-kelly/tailorly-api/config"
	"github.com/kendall-kelly/tailorly-api/events"
	"github.com/kendall-kelly/tailorly-api/logger"
	"github.com/kendall-kelly/tailorly-api/middleware"
	"github.com/kendall-kelly/tailorly-api/realtime"
	"github.com/kendall-kelly/tailorly-api/services"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Initialize(os.Getenv("GO_ENV"), os.Getenv("LOG_LEVEL"))
		logger.Log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// .env files are applied by config.Load, so the logger is built after it
	logger.Initialize(cfg.GoEnv, cfg.LogLevel)
	defer logger.Log.Sync() //nolint:errcheck

	logger.Log.Info("Starting Tailorly API server...", zap.String("env", cfg.GoEnv), zap.String("log_level", cfg.LogLevel))
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := config.ConnectDatabase(cfg.DatabaseURL); err != nil {
		logger.Log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := config.Migrate(config.GetDB()); err != nil {
		logger.Log.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Log.Info("Database migration completed successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	closers := wireServices(ctx, cfg)
	defer func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				logger.Log.Warn("Shutdown step failed", zap.Error(err))
			}
		}
	}()

	router := setupRouter(cfg, middleware.EnsureValidToken(cfg))
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server is running", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shut down", zap.Error(err))
	}
}

// wireServices installs the process-wide collaborators named by cfg and
// returns their close functions in shutdown order. Anything not configured
// falls back to an in-process implementation or stays disabled.
func wireServices(ctx context.Context, cfg *config.Config) []func() error {
	var closers []func() error

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Log.Fatal("Invalid REDIS_URL", zap.Error(err))
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		realtime.SetBroker(realtime.NewRedisBroker(client, "tailorly"))
		services.SetSessionCache(cache.NewRedisStore(client, "tailorly"))
		closers = append(closers, client.Close)
		logger.Log.Info("Redis session cache and realtime broker enabled")
	} else {
		store := cache.NewMemoryStore(cache.WithJanitor(time.Minute))
		services.SetSessionCache(store)
		closers = append(closers, store.Close, realtime.GetBroker().Close)
		logger.Log.Info("Using in-memory session cache and realtime broker")
	}

	needAWS := cfg.AWSS3Bucket != "" || (cfg.SNSOrderTopicARN != "" && len(cfg.KafkaBrokerList()) == 0)
	if needAWS {
		awsConfig, err := services.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Log.Fatal("Failed to load AWS configuration", zap.Error(err))
		}
		if cfg.AWSS3Bucket != "" {
			services.InitAttachmentService(services.InitS3Service(awsConfig, cfg.AWSS3Bucket))
			logger.Log.Info("S3 attachment storage enabled", zap.String("bucket", cfg.AWSS3Bucket))
		}
		if cfg.SNSOrderTopicARN != "" && len(cfg.KafkaBrokerList()) == 0 {
			events.SetPublisher(events.NewSNSPublisher(awsConfig, cfg.SNSOrderTopicARN))
			logger.Log.Info("Publishing order events to SNS")
		}
	} else {
		logger.Log.Warn("AWS_S3_BUCKET not set, attachment uploads are disabled")
	}

	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		publisher := events.NewKafkaPublisher(brokers, cfg.KafkaOrderTopic)
		events.SetPublisher(publisher)
		closers = append(closers, publisher.Close)
		logger.Log.Info("Publishing order events to Kafka", zap.Strings("brokers", brokers), zap.String("topic", cfg.KafkaOrderTopic))
	}

	if cfg.StripeSecretKey != "" {
		services.SetPaymentProvider(services.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret))
		logger.Log.Info("Stripe checkout enabled")
	} else {
		logger.Log.Warn("STRIPE_SECRET_KEY not set, payments are recorded without checkout")
	}

	return closers
}
