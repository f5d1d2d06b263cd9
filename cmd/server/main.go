package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Simplici0/printops/internal/catalog"
	"github.com/Simplici0/printops/internal/config"
	"github.com/Simplici0/printops/internal/db"
	"github.com/Simplici0/printops/internal/invoice"
	"github.com/Simplici0/printops/internal/jobs"
	"github.com/Simplici0/printops/internal/ledger"
	"github.com/Simplici0/printops/internal/logger"
	"github.com/Simplici0/printops/internal/margins"
	"github.com/Simplici0/printops/internal/metrics"
	"github.com/Simplici0/printops/internal/migrations"
	"github.com/Simplici0/printops/internal/seed"
)

type server struct {
	auth       *authService
	products   *catalog.Store
	jobs       *jobs.Service
	ledger     *ledger.Service
	invoices   *invoice.Service
	aggregator margins.Aggregator
	metrics    *metrics.HTTP
	log        *zap.Logger
}

func newServer(database *sql.DB, cfg config.Config, zl *zap.Logger, m *metrics.HTTP) *server {
	products := catalog.NewStore(database)
	jobStore := jobs.NewStore(database)

	return &server{
		auth:       newAuthService(database, cfg.SessionSecret, !cfg.IsDev()),
		products:   products,
		jobs:       jobs.NewService(jobStore, products),
		ledger:     ledger.NewService(ledger.NewSQLStore(database)),
		invoices:   invoice.NewService(invoice.NewStore(database), jobStore),
		aggregator: margins.Aggregator{InkCostPerML: cfg.InkCostPerML},
		metrics:    m,
		log:        zl,
	}
}

func main() {
	cfg := config.Load()

	zl, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zap.ReplaceGlobals(zl)

	if cfg.SessionSecret == "" {
		if !cfg.IsDev() {
			zl.Fatal("SESSION_SECRET is required outside development")
		}
		cfg.SessionSecret = uuid.NewString()
		zl.Warn("SESSION_SECRET not set, using a random secret; sessions end on restart")
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		zl.Fatal("failed to open database", zap.Error(err))
	}
	defer database.Close()

	ctx := context.Background()
	version, err := migrations.Up(ctx, database, cfg.MigrationsDir)
	if err != nil {
		zl.Fatal("failed to run database migrations", zap.Error(err))
	}
	zl.Info("database ready", zap.String("path", cfg.DBPath), zap.Int64("schema_version", version))

	stats, err := seed.Run(ctx, database, seed.Config{AdminEmail: cfg.AdminEmail, AdminPassword: cfg.AdminPassword})
	if err != nil {
		zl.Fatal("failed to seed database", zap.Error(err))
	}
	zl.Info("seed finished", zap.Int("inserts", stats.Inserts))

	srv := newServer(database, cfg, zl, metrics.NewHTTP(prometheus.NewRegistry()))

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		zl.Info("listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(logger.Middleware(s.log))
	r.Use(s.metrics.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireSession)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.handleProductsList)
			r.Post("/", s.handleProductsCreate)
			r.Get("/{id}", s.handleProductsGet)
			r.Put("/{id}", s.handleProductsUpdate)
			r.Delete("/{id}", s.handleProductsDelete)
			r.Get("/{id}/cost", s.handleProductsCost)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", s.handleJobsList)
			r.Post("/", s.handleJobsCreate)
			r.Get("/{id}", s.handleJobsGet)
			r.Put("/{id}", s.handleJobsUpdate)
			r.Put("/{id}/status", s.handleJobsStatus)
			r.Put("/{id}/items/{itemID}/work", s.handleJobsWork)
			r.Get("/{id}/costs", s.handleCostsByJob)
			r.Post("/{id}/costs", s.handleCostsCreate)
			r.Get("/{id}/items/{itemID}/costs", s.handleCostsByItem)
		})

		r.Put("/costs/{id}", s.handleCostsUpdate)
		r.Delete("/costs/{id}", s.handleCostsDelete)

		r.Get("/reports/margins", s.handleMarginReport)

		r.Post("/invoices", s.handleInvoicesCreate)
		r.Get("/invoices/{id}", s.handleInvoicesGet)
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
