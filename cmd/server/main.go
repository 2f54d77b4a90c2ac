package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"

	"github.com/rentledger/payment-engine/internal/app"
	"github.com/rentledger/payment-engine/internal/config"
	"github.com/rentledger/payment-engine/internal/handler"
	"github.com/rentledger/payment-engine/internal/logger"
	"github.com/rentledger/payment-engine/pkg/response"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging)
	slog.SetDefault(log)

	// Initialize storage and services
	application, err := app.New(context.Background(), cfg, log)
	if err != nil {
		log.Error("failed to initialize application", slog.Any("error", err))
		os.Exit(1)
	}
	defer application.Close()

	// Setup routes
	router := setupRoutes(application)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      withMiddleware(router, cfg, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info("server starting", slog.String("addr", server.Addr), slog.String("env", cfg.Server.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed to start", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", slog.Any("error", err))
	}

	log.Info("server exited")
}

func setupRoutes(a *app.App) *mux.Router {
	router := mux.NewRouter()

	// Health check
	handler.NewHealthHandler(a.Store, a.RedisClient(), a.Config.Health.Timeout).Register(router)

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	handler.NewPaymentHandler(a.Payments, a.Allocator).Register(api)
	handler.NewPayoutHandler(a.Payouts).Register(api)
	handler.NewScheduleHandler(a.Schedules, a.Clock).Register(api)
	handler.NewReminderHandler(a.Reminders).Register(api)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "route not found")
	})

	return router
}

func withMiddleware(router http.Handler, cfg *config.Config, log *slog.Logger) http.Handler {
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Company-ID", "X-User-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	})

	return response.LoggingMiddleware(log)(corsHandler(router))
}
