package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/stakecraft/econ-engine/internal/daily"
	"github.com/stakecraft/econ-engine/internal/exposure"
	"github.com/stakecraft/econ-engine/internal/metrics"
	"github.com/stakecraft/econ-engine/internal/season"
	"github.com/stakecraft/econ-engine/internal/store"
	"github.com/stakecraft/econ-engine/internal/streak"
	"github.com/stakecraft/econ-engine/internal/wager"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// --- Initialize store ---
	var st store.Store
	var cleanup []func()

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(context.Background(), dbURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		st = store.NewPostgresStore(pool)
		slog.Info("connected to PostgreSQL")

		// Wrap with Redis read-through cache if configured.
		if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
			opt, err := redis.ParseURL(redisURL)
			if err != nil {
				slog.Error("invalid REDIS_URL", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			st = store.NewCachedStore(st, rdb, 30*time.Second)
			slog.Info("Redis cache enabled")
		}
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory store (data will not persist)")
		st = store.NewMemoryStore()
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Stake limits ---
	maxPerMarket := envInt64("MAX_STAKE_PER_MARKET", 10000)
	maxTotal := envInt64("MAX_STAKE_TOTAL", 50000)
	limiter := exposure.NewStakeLimiter(maxPerMarket, maxTotal)

	// --- WebSocket hub ---
	wsHub := wager.NewWSHub()
	go wsHub.Run()

	// --- Services ---
	wagerSvc := wager.NewService(st, limiter, wsHub)
	seasonSvc := season.NewService(st)

	drawer := streak.NewWeightedDrawer(streak.DefaultJackpotTable,
		rand.New(rand.NewSource(time.Now().UnixNano())))
	dailySvc := daily.NewService(st, drawer, nil)

	// --- Scheduled season distribution ---
	// Re-running over an already-distributed season is a no-op.
	schedule := os.Getenv("SEASON_DISTRIBUTE_CRON")
	if schedule == "" {
		schedule = "@hourly"
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := seasonSvc.DistributeEnded(ctx, st, time.Now().UTC()); err != nil {
			slog.Error("season distribution job failed", "err", err)
		}
	})
	if err != nil {
		slog.Error("invalid SEASON_DISTRIBUTE_CRON", "schedule", schedule, "err", err)
		os.Exit(1)
	}
	c.Start()
	cleanup = append(cleanup, func() { c.Stop() })

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"econ-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket endpoint for real-time market events.
		r.Get("/ws", wsHub.HandleWS)

		// Market management.
		r.Get("/markets", wagerSvc.ListMarkets)
		r.Post("/markets", wagerSvc.CreateMarket)
		r.Get("/markets/{marketID}", wagerSvc.GetMarket)
		r.Post("/markets/{marketID}/close", wagerSvc.CloseMarket)
		r.Post("/markets/{marketID}/resolve", wagerSvc.ResolveMarket)

		// Stakes.
		r.Post("/bets", wagerSvc.PlaceBet)
		r.Get("/bets/user/{userID}", wagerSvc.ListUserBets)

		// Seasons and tier cards.
		r.Post("/seasons", seasonSvc.CreateSeason)
		r.Get("/seasons/{seasonID}/leaderboard", seasonSvc.GetLeaderboard)
		r.Get("/seasons/{seasonID}/cards/{userID}", seasonSvc.GetCard)
		r.Post("/seasons/{seasonID}/cards/{userID}/recompute", seasonSvc.RecomputeCardHandler)

		// Admin operations carry the elevated write capability explicitly.
		r.Route("/admin", func(r chi.Router) {
			r.Post("/seasons/{seasonID}/distribute", seasonSvc.DistributeHandler(st))
			r.Post("/seasons/{seasonID}/beta", seasonSvc.GrantBetaHandler(st))
		})

		// Daily login reward.
		r.Get("/daily/{userID}", dailySvc.Status)
		r.Post("/daily/{userID}/claim", dailySvc.Claim)
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("econ-engine listening", "port", port)
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

	slog.Info("shutting down econ-engine...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("econ-engine stopped")
}

func envInt64(name string, fallback int64) int64 {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
		slog.Warn("ignoring invalid value", "var", name, "value", v)
	}
	return fallback
}
