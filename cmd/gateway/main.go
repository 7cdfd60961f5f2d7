package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/agroconnect-tz/marketplace/internal/config"
	"github.com/agroconnect-tz/marketplace/internal/gateway"
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

	if cfg.APIServiceURL == "" {
		logger.Error("API_SERVICE_URL is required")
		os.Exit(1)
	}
	if cfg.AdminServiceURL == "" {
		logger.Error("ADMIN_SERVICE_URL is required")
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "gateway", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	apiProxy := gateway.NewServiceProxy(cfg.APIServiceURL, httpClient)
	adminProxy := gateway.NewServiceProxy(cfg.AdminServiceURL, httpClient)
	handler := gateway.NewHandler(apiProxy, adminProxy, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/", telemetry.WithHTTPRoute(handler.HandleAPI))
	mux.HandleFunc("POST /admin/login", telemetry.WithHTTPRoute(handler.HandleAdmin))
	mux.HandleFunc("POST /admin-dashboard", telemetry.WithHTTPRoute(handler.HandleAdmin))

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(mux, "gateway",
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
		logger.Info("starting gateway service", "port", cfg.Port)
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
