package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/recoup/coupon-engine/internal/backup"
	"github.com/recoup/coupon-engine/internal/config"
	"github.com/recoup/coupon-engine/internal/coupons"
	"github.com/recoup/coupon-engine/internal/metrics"
	"github.com/recoup/coupon-engine/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfgPath := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("load config failed", "err", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}

	// --- Initialize store ---
	var st store.Store
	var targets store.TargetStore
	var csvStore *store.CSVStore
	var cleanup []func()

	switch cfg.Storage.Driver {
	case "csv":
		if err := ensureDir(cfg.Storage.CSVPath); err != nil {
			slog.Error("create data directory failed", "err", err)
			os.Exit(1)
		}
		csvStore = store.NewCSVStore(cfg.Storage.CSVPath, cfg.MigrationDeposit(), func(line int, column, value string) {
			metrics.ParseWarnings.Inc()
			slog.Warn("malformed numeric cell replaced by zero", "line", line, "column", column, "value", value)
		})
		st = csvStore
		targets = csvStore
		slog.Info("using CSV ledger", "path", cfg.Storage.CSVPath)

	case "sqlite":
		if err := ensureDir(cfg.Storage.SQLitePath); err != nil {
			slog.Error("create data directory failed", "err", err)
			os.Exit(1)
		}
		sq, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			slog.Error("sqlite open failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, func() { sq.Close() })
		st = sq
		slog.Info("using SQLite ledger", "path", cfg.Storage.SQLitePath)

	case "postgres":
		pool, err := pgxpool.New(context.Background(), cfg.Storage.DatabaseURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		pg := store.NewPostgresStore(pool)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			slog.Error("schema setup failed", "err", err)
			os.Exit(1)
		}
		st = pg
		slog.Info("connected to PostgreSQL")

	case "memory":
		slog.Warn("using in-memory store (data will not persist)")
		st = store.NewMemoryStore()

	default:
		slog.Error("unknown storage driver", "driver", cfg.Storage.Driver)
		os.Exit(1)
	}

	// Wrap with Redis read-through cache if configured.
	if cfg.Storage.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.Storage.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "err", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opt)
		cleanup = append(cleanup, func() { rdb.Close() })
		st = store.NewCachedStore(st, rdb, 30*time.Second)
		slog.Info("Redis cache enabled")
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- WebSocket hub ---
	wsHub := coupons.NewWSHub()
	go wsHub.Run()

	// --- Coupon service ---
	svc := coupons.NewService(st, targets, wsHub, cfg.ProfitTarget())
	if err := svc.RestoreTarget(context.Background()); err != nil {
		slog.Warn("restore persisted profit target failed", "err", err)
	}

	// --- Backup scheduler (CSV ledger only) ---
	if csvStore != nil {
		sched := backup.NewScheduler(csvStore, cfg.Backup.Keep)
		if err := sched.Register(cfg.Backup.Cron); err != nil {
			slog.Error("invalid backup schedule", "cron", cfg.Backup.Cron, "err", err)
			os.Exit(1)
		}
		sched.Start()
		cleanup = append(cleanup, sched.Stop)
	}

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// CORS for frontend cross-origin requests.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"coupon-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket endpoint for real-time ledger updates.
		r.Get("/ws", wsHub.HandleWS)

		// Coupon lifecycle.
		r.Get("/coupons", svc.ListCoupons)
		r.Post("/coupons", svc.CreateCoupon)
		r.Delete("/coupons", svc.DeleteCoupons)
		r.Get("/coupons/{couponID}", svc.GetCoupon)
		r.Put("/coupons/{couponID}", svc.EditCoupon)
		r.Delete("/coupons/{couponID}", svc.DeleteCoupon)
		r.Post("/coupons/{couponID}/settle", svc.SettleCoupon)

		// Ledger queries.
		r.Get("/status", svc.GetStatus)
		r.Get("/recommend", svc.RecommendStake)
		r.Get("/preview", svc.PreviewOutcome)
		r.Get("/transactions", svc.ListTransactions)

		// Bankroll movements.
		r.Post("/deposits", svc.CreateDeposit)
		r.Post("/withdrawals", svc.CreateWithdrawal)

		// Profit target.
		r.Get("/target", svc.GetTarget)
		r.Put("/target", svc.UpdateTarget)
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("coupon-engine listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down coupon-engine...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("coupon-engine stopped")
}

// ensureDir creates the parent directory of path when it does not exist.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
