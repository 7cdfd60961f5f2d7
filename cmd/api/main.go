package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/agroconnect-tz/marketplace/internal/auth"
	"github.com/agroconnect-tz/marketplace/internal/cart"
	"github.com/agroconnect-tz/marketplace/internal/catalog"
	"github.com/agroconnect-tz/marketplace/internal/config"
	"github.com/agroconnect-tz/marketplace/internal/delivery"
	"github.com/agroconnect-tz/marketplace/internal/messaging"
	"github.com/agroconnect-tz/marketplace/internal/notifications"
	"github.com/agroconnect-tz/marketplace/internal/orders"
	"github.com/agroconnect-tz/marketplace/internal/reviews"
	"github.com/agroconnect-tz/marketplace/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.RequirePostgres(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "marketplace-api", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("marketplace-api", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := runtime.Start(); err != nil {
		logger.Error("failed to start runtime metrics", "error", err)
		os.Exit(1)
	}

	db, err := telemetry.OpenDB(cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer func() { _ = redisClient.Close() }()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	var producer *messaging.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = messaging.NewProducer(cfg.KafkaBrokers, messaging.TopicOrderStatusChanged)
		defer func() { _ = producer.Close() }()
	}

	authRepo := auth.NewAuthRepository(db, cfg.SessionTTL)
	cropRepo := catalog.NewCropRepository(db)
	orderRepo := orders.NewOrderRepository(db, delivery.NewRandomEstimator())
	notificationRepo := notifications.NewNotificationRepository(db)
	reviewRepo := reviews.NewReviewRepository(db)
	cartStore := cart.NewRedisStore(redisClient, cfg.CartTTL)
	cartService := cart.NewService(cartStore, cropRepo, orderRepo, cfg.DeliveryFee, logger)

	authHandler := auth.NewHandler(authRepo, logger)
	cropHandler := catalog.NewHandler(cropRepo, logger)
	cartHandler := cart.NewHandler(cartService, logger)
	notificationHandler := notifications.NewHandler(notificationRepo, logger)
	reviewHandler := reviews.NewHandler(reviewRepo, logger)

	orderHandler, err := orders.NewHandler(orderRepo, eventPublisher(producer), logger)
	if err != nil {
		logger.Error("failed to create order handler", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metricsHandler)

	mux.HandleFunc("POST /auth/register", route(authHandler.HandleRegister))
	mux.HandleFunc("POST /auth/login", route(authHandler.HandleLogin))
	mux.HandleFunc("POST /auth/logout", protected(authRepo, authHandler.HandleLogout))
	mux.HandleFunc("GET /auth/me", protected(authRepo, authHandler.HandleMe))

	mux.HandleFunc("GET /crops", route(cropHandler.HandleList))
	mux.HandleFunc("GET /crops/{id}", route(cropHandler.HandleGet))
	mux.HandleFunc("GET /my/crops", protected(authRepo, cropHandler.HandleListMine))
	mux.HandleFunc("POST /crops", protected(authRepo, cropHandler.HandleCreate))
	mux.HandleFunc("PUT /crops/{id}", protected(authRepo, cropHandler.HandleUpdate))
	mux.HandleFunc("DELETE /crops/{id}", protected(authRepo, cropHandler.HandleDelete))

	mux.HandleFunc("GET /cart", protected(authRepo, cartHandler.HandleGet))
	mux.HandleFunc("POST /cart/items", protected(authRepo, cartHandler.HandleAddItem))
	mux.HandleFunc("PUT /cart/items/{cropId}", protected(authRepo, cartHandler.HandleUpdateItem))
	mux.HandleFunc("DELETE /cart/items/{cropId}", protected(authRepo, cartHandler.HandleRemoveItem))
	mux.HandleFunc("POST /cart/checkout", protected(authRepo, cartHandler.HandleCheckout))

	mux.HandleFunc("GET /orders", protected(authRepo, orderHandler.HandleList))
	mux.HandleFunc("GET /orders/{id}", protected(authRepo, orderHandler.HandleGet))
	mux.HandleFunc("PATCH /orders/{id}/status", protected(authRepo, orderHandler.HandleTransition))
	mux.HandleFunc("GET /orders/{id}/tracking", protected(authRepo, orderHandler.HandleGetTracking))

	mux.HandleFunc("GET /notifications", protected(authRepo, notificationHandler.HandleList))
	mux.HandleFunc("POST /notifications/{id}/read", protected(authRepo, notificationHandler.HandleMarkRead))

	mux.HandleFunc("POST /reviews", protected(authRepo, reviewHandler.HandleCreate))
	mux.HandleFunc("GET /sellers/{sellerId}/reviews", route(reviewHandler.HandleListBySeller))

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(mux, "marketplace-api",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting marketplace api", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

func route(h http.HandlerFunc) http.HandlerFunc {
	return telemetry.WithHTTPRoute(h)
}

func protected(validator auth.SessionValidator, h http.HandlerFunc) http.HandlerFunc {
	return telemetry.WithHTTPRoute(auth.RequireSession(validator, h))
}

// eventPublisher keeps the nil producer nil through the interface
// conversion, so the handler's nil check still works without Kafka.
func eventPublisher(producer *messaging.Producer) orders.EventPublisher {
	if producer == nil {
		return nil
	}
	return producer
}
