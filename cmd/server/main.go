package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"staffid/internal/db"
	"staffid/internal/domain/employee"
	"staffid/internal/domain/identifier"
	"staffid/internal/domain/proof"
	"staffid/internal/platform/config"
	"staffid/internal/platform/email"
	"staffid/internal/platform/jobs"
	"staffid/internal/platform/metrics"
	"staffid/internal/platform/storage"
	"staffid/internal/transport/http/api"
	employeeshandler "staffid/internal/transport/http/handlers/employees"
	verifyhandler "staffid/internal/transport/http/handlers/verify"
	"staffid/internal/transport/http/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("skipping .env: %v", err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}

	store := employee.NewStore(pool)
	alloc := identifier.NewAllocator(store, cfg.CompanyCode)
	urls := proof.NewURLBuilder(cfg.VerifyBaseURL, cfg.VerifySigningSecret)
	files := storage.New(cfg.StorageURL)
	collector := metrics.New()
	mailer := email.New(cfg)

	service, err := employee.NewService(store, alloc, urls, files, collector, mailer, cfg.EmailFrom, cfg.VerifyCacheSize)
	if err != nil {
		log.Fatalf("service init failed: %v", err)
	}

	jobService := jobs.New(pool, cfg, service.BackfillProofs)
	jobService.Start(ctx)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	verifyHandler := verifyhandler.NewHandler(service)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		employeeshandler.NewHandler(service, cfg.MaxPhotoBytes).RegisterRoutes(r)
		verifyHandler.RegisterAPIRoutes(r)
	})

	verifyHandler.RegisterPageRoutes(router)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown incomplete", "err", err)
		}
	}()

	slog.Info("staffid server listening", "addr", cfg.Addr, "company", cfg.CompanyCode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
}
