package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-ordering/internal/auth"
	auth_api "ms-ordering/internal/auth/api"
	auth_db "ms-ordering/internal/auth/db"
	"ms-ordering/internal/config"
	"ms-ordering/internal/database/migrations"
	"ms-ordering/internal/kafka"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/middleware"
	"ms-ordering/internal/order"
	"ms-ordering/internal/order/api"
	"ms-ordering/internal/order/db"
	"ms-ordering/internal/order/qr"
	rediswrap "ms-ordering/internal/order/redis"
	"ms-ordering/internal/sse"
	"ms-ordering/internal/utils"
)

func verifyConnections(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*bun.DB, *redis.Client) {
	dsn := cfg.Database.DSN
	if dsn == "" {
		logger.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		logger.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", dsn)
		if err != nil {
			logger.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		logger.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	logger.Info("DATABASE", "✅ PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}

	logger.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Redis.Addr))
	return bunDB, redisClient
}

func runMigrations(bunDB *bun.DB, logger *logger.Logger) {
	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
	defer runner.Close()

	if err := runner.RunMigrations(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
	}
	logger.Info("DATABASE", "Schema migrations applied")
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Victory Pizza Order Service", map[string]string{
		"service": "order-service",
		"health":  "/health",
	}))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("OK", map[string]string{"status": "healthy"}))
}

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting Order Service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("CONFIG", "JWT_SECRET not set")
	}

	ctx := context.Background()

	logger.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, logger)
	defer bunDB.Close()
	defer redisClient.Close()

	runMigrations(bunDB, logger)

	var producer order.KafkaPublisher = kafka.NopProducer{}
	if cfg.Kafka.Enabled {
		kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics)
		defer kafkaProducer.Close()

		requiredTopics := []string{
			cfg.Kafka.Topics.OrderCreated,
			cfg.Kafka.Topics.OrderUpdated,
			cfg.Kafka.Topics.OrderDeleted,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			logger.Info("KAFKA", "Required topics ensured successfully")
		}

		producer = kafkaProducer
		logger.Info("KAFKA", "Kafka producer initialized successfully")
	} else {
		logger.Warn("KAFKA", "Kafka disabled, order events will only reach SSE clients")
	}

	emitter := sse.NewOrderEventEmitter()

	orderService := order.NewOrderService(
		&db.DB{Bun: bunDB},
		rediswrap.NewRedis(redisClient, cfg.Order.LockTTL),
		emitter,
		producer,
		logger,
		cfg.Order,
	)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	loginLimiter := auth.NewLoginLimiter(redisClient, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow)
	authService := auth.NewAuthService(&auth_db.DB{Bun: bunDB}, tokens, loginLimiter, logger, cfg.Auth.MinPasswordLen)

	orderHandler := api.NewHandler(orderService, logger)
	sseHandler := api.NewSSEHandler(emitter, orderService, logger)
	qrHandler := api.NewQRHandler(qr.NewQRGenerator(cfg.Order.TrackingBaseURL), orderService, logger)
	authHandler := auth_api.NewHandler(authService, logger)

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.APIRateLimit())

	r.Get("/", rootHandler)
	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			// Public: customers place and track orders without an account.
			r.Post("/", orderHandler.CreateOrder)
			r.Get("/{orderId}", orderHandler.GetOrder)
			r.Post("/{orderId}/confirm", orderHandler.ConfirmReceipt)
			r.Post("/{orderId}/review", orderHandler.AddReview)
			r.Get("/{orderId}/events", sseHandler.HandleOrderEvents)
			r.Get("/{orderId}/qr", qrHandler.TrackingQR)

			// Staff only.
			r.Group(func(r chi.Router) {
				r.Use(auth.Middleware(tokens))
				r.Get("/", orderHandler.ListOrders)
				r.Patch("/{orderId}/status", orderHandler.UpdateStatus)
				r.Patch("/{orderId}/cancel", orderHandler.RejectOrder)
				r.Delete("/{orderId}", orderHandler.DeleteOrder)
				r.Delete("/bulk/completed", orderHandler.PurgeCompleted)
				r.Get("/events/dashboard", sseHandler.HandleDashboardEvents)
			})
		})
		logger.Info("ROUTER", "Order routes registered under /api/orders")

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(auth.Middleware(tokens))
				r.Get("/me", authHandler.Me)
				r.Post("/logout", authHandler.Logout)
				r.Patch("/password", authHandler.UpdatePassword)
				r.Patch("/email", authHandler.UpdateEmail)
				r.With(auth.RequireAdmin).Post("/register", authHandler.Register)
			})
		})
		logger.Info("ROUTER", "Auth routes registered under /api/auth")
	})

	// WriteTimeout stays unset: it would sever long-lived SSE streams.
	server := &http.Server{
		Addr:        cfg.Server.Port,
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 Order Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ Order Service shutdown complete")
	}
}
