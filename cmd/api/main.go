package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sehaty/sehaty-backend/internal/config"
	"github.com/sehaty/sehaty-backend/internal/handler"
	"github.com/sehaty/sehaty-backend/internal/logging"
	"github.com/sehaty/sehaty-backend/internal/middleware"
	"github.com/sehaty/sehaty-backend/internal/notification"
	"github.com/sehaty/sehaty-backend/internal/pricing"
	"github.com/sehaty/sehaty-backend/internal/repository"
	bookingsvc "github.com/sehaty/sehaty-backend/internal/service/booking"
	"github.com/sehaty/sehaty-backend/internal/service/gateway"
	ledgersvc "github.com/sehaty/sehaty-backend/internal/service/ledger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("sehaty-api", cfg.LogLevel, cfg.AppEnv)

	db, err := connectDB(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	walletRepo := repository.NewWalletRepository(db)
	entryRepo := repository.NewLedgerRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	eventRepo := repository.NewBookingEventRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	ledger := ledgersvc.NewService(walletRepo, entryRepo, db)

	sink := notification.NewChannelSink(logging.Named("notification-sink"), 16)
	dispatcher := notification.NewDispatcher(
		notificationRepo, sink, logging.Named("dispatcher"), cfg.DispatchInterval(),
	)

	gatewayClient := gateway.NewHTTPClient(cfg.GatewayBaseURL, cfg.GatewayTimeout())
	bookings := bookingsvc.NewService(
		bookingRepo,
		eventRepo,
		ledger,
		gateway.NewAdapter(gatewayClient),
		dispatcher,
		pricing.NewCalculator(cfg.ServiceFeePct),
		db,
		cfg.ReminderLead(),
	)

	bookingHandler := handler.NewBookingHandler(bookings)
	walletHandler := handler.NewWalletHandler(ledger)
	notificationHandler := handler.NewNotificationHandler(dispatcher)
	healthHandler := handler.NewHealthHandler(db)

	authn := middleware.Auth(cfg.JWTSecret)
	idem := middleware.Idempotency(idempotencyRepo)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.Handle("POST /api/v1/bookings", authn(idem(http.HandlerFunc(bookingHandler.Create))))
	mux.Handle("GET /api/v1/bookings", authn(http.HandlerFunc(bookingHandler.List)))
	mux.Handle("GET /api/v1/bookings/{id}", authn(http.HandlerFunc(bookingHandler.Get)))
	mux.Handle("GET /api/v1/bookings/{id}/events", authn(http.HandlerFunc(bookingHandler.History)))
	mux.Handle("POST /api/v1/bookings/{id}/pay", authn(idem(http.HandlerFunc(bookingHandler.Pay))))
	mux.Handle("POST /api/v1/bookings/{id}/advance", authn(idem(http.HandlerFunc(bookingHandler.Advance))))
	mux.Handle("POST /api/v1/bookings/{id}/cancel", authn(idem(http.HandlerFunc(bookingHandler.Cancel))))

	mux.Handle("GET /api/v1/wallet", authn(http.HandlerFunc(walletHandler.Get)))
	mux.Handle("GET /api/v1/wallet/transactions", authn(http.HandlerFunc(walletHandler.Transactions)))
	mux.Handle("POST /api/v1/wallet/topup", authn(idem(http.HandlerFunc(walletHandler.TopUp))))

	mux.Handle("GET /api/v1/notifications", authn(http.HandlerFunc(notificationHandler.List)))
	mux.Handle("POST /api/v1/notifications/{id}/dismiss", authn(http.HandlerFunc(notificationHandler.Dismiss)))

	root := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	dispatchCtx, stopDispatcher := context.WithCancel(context.Background())
	go dispatcher.Start(dispatchCtx)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
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
	stopDispatcher()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
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
