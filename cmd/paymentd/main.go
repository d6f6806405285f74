package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/josh-kwaku/payment-orchestrator/internal/config"
	"github.com/josh-kwaku/payment-orchestrator/internal/handler"
	"github.com/josh-kwaku/payment-orchestrator/internal/history"
	"github.com/josh-kwaku/payment-orchestrator/internal/ledger"
	"github.com/josh-kwaku/payment-orchestrator/internal/logging"
	"github.com/josh-kwaku/payment-orchestrator/internal/middleware"
	"github.com/josh-kwaku/payment-orchestrator/internal/processor"
	"github.com/josh-kwaku/payment-orchestrator/internal/provider"
	"github.com/josh-kwaku/payment-orchestrator/internal/provider/simulator"
	"github.com/josh-kwaku/payment-orchestrator/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("paymentd", cfg.LogLevel, cfg.AppEnv)

	db, err := connectDB(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store := ledger.NewPostgresStore(db)
	configs := provider.NewPostgresConfigStore(db)

	var plugins []provider.Plugin
	if cfg.EnableSimulator {
		plugins = append(plugins, simulator.New())
		slog.Info("simulator plugin enabled")
	}
	resolver := provider.NewResolver(configs, plugins...)

	deps := processor.Deps{
		Resolver:    resolver,
		Ledger:      store,
		History:     history.NewService(store),
		CallTimeout: time.Duration(cfg.ProviderCallTimeoutS) * time.Second,
	}
	w := workflow.New(deps)

	payments := handler.NewPaymentHandler(w)
	instruments := handler.NewInstrumentHandler(w)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth(db))

	mux.HandleFunc("POST /api/v1/payments/{ref}/reserve", payments.Reserve)
	mux.HandleFunc("POST /api/v1/payments/{ref}/reservations/{guid}/modify", payments.ModifyReservation)
	mux.HandleFunc("POST /api/v1/payments/{ref}/reservations/{guid}/cancel", payments.CancelReservation)
	mux.HandleFunc("POST /api/v1/payments/{ref}/reservations/cancel-all", payments.CancelAllReservations)
	mux.HandleFunc("POST /api/v1/payments/{ref}/charge", payments.Charge)
	mux.HandleFunc("POST /api/v1/payments/{ref}/credit", payments.Credit)
	mux.HandleFunc("POST /api/v1/payments/{ref}/credit/manual", payments.ManualCredit)
	mux.HandleFunc("POST /api/v1/payments/{ref}/charges/{guid}/reverse", payments.ReverseCharge)
	mux.HandleFunc("GET /api/v1/payments/{ref}/summary", payments.Summary)
	mux.HandleFunc("GET /api/v1/payments/{ref}/events", payments.Events)

	mux.HandleFunc("POST /api/v1/instruments/{config}/instruction-fields", instruments.InstructionFields)
	mux.HandleFunc("POST /api/v1/instruments/{config}/instructions", instruments.Instructions)
	mux.HandleFunc("POST /api/v1/instruments/{config}/creation-fields", instruments.CreationFields)
	mux.HandleFunc("POST /api/v1/instruments/{config}", instruments.Create)

	chain := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           chain,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func handleHealth(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		if err := db.PingContext(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(map[string]string{"status": status}); err != nil {
			slog.Error("failed to write health response", "error", err)
		}
	}
}

func connectDB(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connectDB: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeS) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTimeS) * time.Second)

	for i := range 30 {
		if err = db.Ping(); err == nil {
			return db, nil
		}
		slog.Info("waiting for database", "attempt", i+1)
		time.Sleep(time.Second)
	}

	db.Close()
	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", err)
}
