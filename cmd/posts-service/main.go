package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/cache"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/config"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/credentials"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/graph"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/metrics"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/pubsub"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/service"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/storage"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/storage/postgres"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/storage/sqlite"
	posthttp "github.com/pribylovaa/go-news-aggregator/posts-service/internal/transport/http"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/transport/http/handlers"
	"github.com/pribylovaa/go-news-aggregator/posts-service/internal/transport/http/ws"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting posts-service", "env", cfg.Env)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	if err := run(rootCtx, cfg, log); err != nil {
		log.Error("service_failed", slog.String("err", err.Error()))
		rootCancel()
		os.Exit(1)
	}

	log.Info("service_stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	m := metrics.New(prometheus.DefaultRegisterer)

	// Подключение к БД c таймаутом.
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	st, closeStorage, err := openStorage(dbCtx, cfg.DB, log)
	dbCancel()
	if err != nil {
		return err
	}
	defer closeStorage()

	var revocations cache.RevocationCache
	if cfg.Redis.RedisURL != "" {
		redisCtx, redisCancel := context.WithTimeout(ctx, 5*time.Second)
		revocations, err = cache.NewRedisCache(redisCtx, cfg.Redis.RedisURL, cfg.Redis.Prefix)
		redisCancel()
		if err != nil {
			return err
		}
		defer func() {
			if cerr := revocations.Close(); cerr != nil {
				log.Warn("redis_close_failed", slog.String("err", cerr.Error()))
			}
		}()
		log.Info("redis_connected")
	}

	bus := pubsub.New(pubsub.Options{Buffer: cfg.Subscriptions.Buffer, Logger: log, Metrics: m})
	defer bus.Close()

	creds := credentials.New(credentials.Config{
		Secret:     cfg.Auth.JWTSecret,
		TTL:        cfg.Auth.TokenTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	})

	svc := service.New(st, creds, bus, service.Options{
		Cache:         revocations,
		CacheTTL:      cfg.Redis.TTL,
		CountInterval: cfg.Subscriptions.CountInterval,
	})
	log.Info("service_initialized")

	exec, err := graph.New(svc, graph.Options{Debug: cfg.Debug, Logger: log, Metrics: m})
	if err != nil {
		return err
	}

	wsHandler := ws.New(exec, ws.Options{
		Auth:           svc,
		OriginPatterns: cfg.WS.AllowedOrigins,
		Logger:         log,
		Metrics:        m,
	})

	api := posthttp.NewRouter(handlers.New(exec, wsHandler), posthttp.Options{
		Logger:  log,
		Auth:    svc,
		Metrics: m,
		Timeout: cfg.Timeouts.Request,
	})

	var ready int32 // 0 — not ready; 1 — ready

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}
		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", api)

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	// Shutdown не ждёт hijacked-соединения: WebSocket-сессии закрываем сами.
	httpSrv.RegisterOnShutdown(wsHandler.Shutdown)

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return fmt.Errorf("http listen %s: %w", httpAddr, err)
	}
	log.Info("http_listen_start", slog.String("addr", httpAddr))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown_requested")
		atomic.StoreInt32(&ready, 0)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
			return nil
		}
		log.Info("http_stopped")
		return nil
	})

	atomic.StoreInt32(&ready, 1)
	log.Info("posts_service_ready")

	return g.Wait()
}

// openStorage выбирает драйвер по схеме DATABASE_URL:
// postgres:// | postgresql:// -> pgx; sqlite://<path> | file:<path> -> modernc sqlite.
func openStorage(ctx context.Context, db config.DBConfig, log *slog.Logger) (storage.Storage, func(), error) {
	dbURL := db.DatabaseURL

	switch {
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		st, err := postgres.New(ctx, dbURL, postgres.Options{
			MaxConns:        db.MaxConns,
			MinConns:        db.MinConns,
			MaxConnIdleTime: db.MaxConnIdleTime,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info("postgres_connected")
		return st, st.Close, nil

	case strings.HasPrefix(dbURL, "sqlite://"), strings.HasPrefix(dbURL, "file:"):
		path := strings.TrimPrefix(dbURL, "sqlite://")
		st, err := sqlite.New(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		log.Info("sqlite_opened", slog.String("path", path))
		return st, st.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database url scheme: %q", schemeOf(dbURL))
	}
}

func schemeOf(dbURL string) string {
	if i := strings.Index(dbURL, ":"); i > 0 {
		return dbURL[:i]
	}
	return ""
}

// setupLogger настраивает slog по окружению.
func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelDebug, TimeFormat: time.TimeOnly}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
