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

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/erin-happyrobot/pepsi-options-emails/internal/api"
	"github.com/erin-happyrobot/pepsi-options-emails/internal/cache"
	"github.com/erin-happyrobot/pepsi-options-emails/internal/client"
	"github.com/erin-happyrobot/pepsi-options-emails/internal/config"
	"github.com/erin-happyrobot/pepsi-options-emails/internal/cooldown"
	"github.com/erin-happyrobot/pepsi-options-emails/internal/repo"
	"github.com/erin-happyrobot/pepsi-options-emails/internal/scheduler"
	"github.com/erin-happyrobot/pepsi-options-emails/internal/service"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.LoadAll()
	if err != nil {
		slog.Error("load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repo.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	gate := cooldown.NewTracker(cfg.Cooldown.DataDir, cfg.Cooldown.Window)
	dispatcher := client.NewLambdaClient(cfg.Email.LambdaFunctionURL)

	sender := service.NewSender(repo.NewPostgresOptionsRepo(pool), gate, dispatcher, service.Settings{
		DefaultOrgID: cfg.Email.DefaultOrgID,
		EmailTo:      cfg.Email.To,
		SenderEmail:  cfg.Email.Sender,
	})

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		sender.WithReportCache(cache.NewRedisCache(rdb, cfg.Redis.TTL))
	}

	sched, err := scheduler.New(cfg.Scheduler.Interval, gate, sender.RunScheduled)
	if err != nil {
		slog.Error("create scheduler", "error", err)
		os.Exit(1)
	}
	if cfg.Scheduler.Enabled {
		sched.Start()
	} else {
		slog.Info("scheduler disabled; set ENABLE_EMAIL_SCHEDULER=true to autostart",
			"interval", cfg.Scheduler.Interval.String())
	}

	handler := api.NewHandler(sender, sched, gate, cfg.Scheduler.Enabled)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           corsMiddleware.Handler(loggingMiddleware(api.Router(handler))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening",
			"addr", cfg.Server.Address,
			"scheduler_enabled", cfg.Scheduler.Enabled,
			"redis", cfg.Redis.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		slog.Error("http server failed", "error", err)
	}

	// The timer stops before the listener drains so no tick dispatches into a
	// closing process.
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown", "error", err)
	}

	slog.Info("server stopped")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}
