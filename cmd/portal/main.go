package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/kjellrichard/bygolf-portal/internal/bookingapi"
	"github.com/kjellrichard/bygolf-portal/internal/config"
	"github.com/kjellrichard/bygolf-portal/internal/metrics"
	"github.com/kjellrichard/bygolf-portal/internal/refresh"
	"github.com/kjellrichard/bygolf-portal/internal/store"
	"github.com/kjellrichard/bygolf-portal/internal/token"
	"github.com/kjellrichard/bygolf-portal/internal/view"
	"github.com/kjellrichard/bygolf-portal/internal/web"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("PORTAL_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	mode, err := view.ParseMode(cfg.Calendar.DefaultMode)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid calendar.default_mode in config")
	}

	settings, err := store.Open(cfg.Database.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open settings store error")
	}
	defer settings.Close()

	persisted, err := settings.Token(context.Background())
	if err != nil {
		logger.Fatal().Err(err).Msg("read persisted token error")
	}
	if persisted != "" && token.IsExpired(persisted) {
		logger.Warn().Msg("persisted token is expired; waiting for a new one via PUT /api/token")
		persisted = ""
	}
	creds := store.NewCredentials(persisted)

	client := bookingapi.NewClient(cfg.API.BaseURL, cfg.API.Venue, &logger)
	client.SetTimeout(cfg.APITimeout())
	client.SetRateLimit(cfg.API.RateLimitPerSecond, 1)

	var rdb *redis.Client
	if cfg.Redis.Address != "" && cfg.API.CacheTTLSeconds > 0 {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		client.UseRedisCache(rdb, cfg.CacheTTL())
	}

	state := view.NewState(mode, time.Now())

	refresher := refresh.New(refresh.Config{
		SilentInterval: cfg.SilentInterval(),
		MarkerInterval: cfg.MarkerInterval(),
		FetchTimeout:   cfg.APITimeout() * 2,
	}, state, client, creds.Get, logger)
	refresher.SetOnMarker(func(now time.Time) {
		logger.Debug().Time("now", now).Msg("time marker recomputed")
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, settings, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	// Load bay-option labels once at boot; bookings refresh continuously.
	if creds.Get() != "" {
		optCtx, cancel := context.WithTimeout(ctx, cfg.APITimeout())
		options, err := client.FetchBayOptions(optCtx, creds.Get())
		cancel()
		if err != nil {
			logger.Warn().Err(err).Msg("failed to load bay options; labels will be empty")
		} else {
			state.SetBayOptions(options)
		}
	}

	refresher.Start()
	defer refresher.Stop()
	refresher.Wake("startup")

	server := web.New(cfg.Server.Listen, state, refresher, settings, creds, logger)
	logger.Info().Str("listen", cfg.Server.Listen).Str("venue", cfg.API.Venue).Msg("calendar portal started")
	if err := server.ListenAndServe(ctx); err != nil {
		logger.Fatal().Err(err).Msg("api server error")
	}
}

func startHealthServer(ctx context.Context, port int, settings *store.Store, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := settings.PingContext(ctxPing); err != nil {
			http.Error(w, "settings store not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
