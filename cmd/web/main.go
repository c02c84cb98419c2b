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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"mindcare-web/internal/auth"
	"mindcare-web/internal/backend"
	"mindcare-web/internal/config"
	"mindcare-web/internal/handler"
	"mindcare-web/internal/logger"
	"mindcare-web/internal/middleware"
	"mindcare-web/internal/store"
	"mindcare-web/internal/survey"
)

const draftPurgeInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg := logger.New("mindcare-web", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api, err := backend.New(cfg.APIBaseURL, backend.WithTimeout(cfg.APITimeout))
	if err != nil {
		fatal(lg, "backend client", err)
	}
	sessions := auth.NewSessions(cfg.SessionKey, cfg.JWTSecret, cfg.CookieSecure)
	if cfg.JWTSecret == "" {
		lg.Warn("JWT_SECRET not set; token signatures are not verified")
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			fatal(lg, "redis ping", err)
		}
		lg.Info("connected to redis", "addr", cfg.RedisAddr)
	}

	// survey drafts
	var drafts survey.DraftStore
	switch cfg.SurveyStore {
	case "postgres":
		if cfg.DatabaseURL == "" {
			fatal(lg, "survey store", errors.New("SURVEY_STORE=postgres needs DATABASE_URL"))
		}
		if err := store.Migrate(ctx, cfg.DatabaseURL, lg); err != nil {
			fatal(lg, "migrate", err)
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			fatal(lg, "db", err)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			fatal(lg, "db ping", err)
		}
		lg.Info("connected to postgres")
		st := store.New(pool)
		go purgeDrafts(ctx, st, lg)
		drafts = st
	case "redis":
		if rdb == nil {
			fatal(lg, "survey store", errors.New("SURVEY_STORE=redis needs REDIS_ADDR"))
		}
		drafts = survey.NewRedisStore(rdb)
	default:
		drafts = survey.NewMemoryStore()
	}
	lg.Info("survey drafts", "store", cfg.SurveyStore)

	var limiter middleware.Limiter
	if rdb != nil && cfg.RateLimitRPS > 0 {
		window := time.Duration(float64(cfg.RateLimitBurst) / cfg.RateLimitRPS * float64(time.Second))
		limiter = middleware.NewRedisLimiter(rdb, cfg.RateLimitBurst, window, lg)
	} else {
		limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	defer limiter.Close()

	h, err := handler.New(api, sessions, drafts, lg)
	if err != nil {
		fatal(lg, "templates", err)
	}
	var metrics *middleware.Metrics
	if cfg.MetricsEnabled {
		metrics = middleware.NewMetrics()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Routes(limiter, metrics),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		lg.Info("http listening", "addr", srv.Addr, "api", cfg.APIBaseURL, "metrics", cfg.MetricsEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("http server", "error", err)
			stop()
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("shutdown", "error", err)
	}
}

// purgeDrafts drops survey drafts nobody has touched in a week.
func purgeDrafts(ctx context.Context, st *store.Store, lg *slog.Logger) {
	t := time.NewTicker(draftPurgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := st.PurgeDrafts(ctx, time.Now().Add(-survey.DraftTTL))
			if err != nil {
				lg.Warn("purge survey drafts", "error", err)
				continue
			}
			if n > 0 {
				lg.Info("purged survey drafts", "count", n)
			}
		}
	}
}

func fatal(lg *slog.Logger, msg string, err error) {
	lg.Error(msg, "error", err)
	os.Exit(1)
}
