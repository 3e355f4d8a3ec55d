package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/pribylovaa/techblog/internal/auth"
	"github.com/pribylovaa/techblog/internal/config"
	bloghttp "github.com/pribylovaa/techblog/internal/http"
	apierrors "github.com/pribylovaa/techblog/internal/http/errors"
	"github.com/pribylovaa/techblog/internal/http/handlers"
	"github.com/pribylovaa/techblog/internal/mail"
	"github.com/pribylovaa/techblog/internal/metrics"
	"github.com/pribylovaa/techblog/internal/ratelimit"
	"github.com/pribylovaa/techblog/internal/service"
	"github.com/pribylovaa/techblog/internal/storage/mongo"
	"github.com/pribylovaa/techblog/internal/token"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting techblog", "env", cfg.Env)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	conn, err := mongo.NewConn(cfg.DB, log)
	if err != nil {
		log.Error("mongo_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	store := mongo.New(conn)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := store.Close(ctx); cerr != nil {
			log.Warn("mongo_close_failed", slog.String("err", cerr.Error()))
		}
	}()

	codec, err := token.New(cfg.Auth)
	if err != nil {
		log.Error("token_codec_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	limiterStore, closeLimiter, err := newLimiterStore(rootCtx, cfg)
	if err != nil {
		log.Error("ratelimit_store_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer closeLimiter()
	log.Info("ratelimit_store_ready", slog.String("backend", cfg.RateLimit.Backend))

	svc := service.New(store, codec, cfg)

	g, gctx := errgroup.WithContext(rootCtx)

	dispatcher, queue, err := newMailer(cfg, log)
	switch {
	case err != nil:
		log.Error("mail_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	case dispatcher == nil:
		log.Warn("mail_disabled", slog.String("reason", "smtp is not configured"))
	default:
		svc.SetMailer(dispatcher)
		log.Info("mail_ready", slog.Bool("async", queue != nil))
	}

	if queue != nil {
		g.Go(queue.Run)
		g.Go(func() error {
			<-gctx.Done()
			queue.Shutdown()
			return nil
		})
	}

	resolver := auth.NewResolver(store, codec, cfg.Auth.CookieName, m)
	gate := auth.NewGate(resolver, apierrors.WriteError)

	apiHandler := bloghttp.NewRouter(bloghttp.Deps{
		Service:  svc,
		Gate:     gate,
		Limiter:  ratelimit.NewLimiter(limiterStore),
		Policies: ratelimit.PoliciesFromConfig(cfg.RateLimit),
		Metrics:  m,
	}, bloghttp.Options{
		Logger:         log,
		Timeout:        cfg.Timeouts.Service,
		TrustForwarded: cfg.RateLimit.TrustForwarded,
		Session: handlers.Session{
			CookieName: cfg.Auth.CookieName,
			Secure:     cfg.SecureCookie(),
			TTL:        codec.TTL(),
		},
		SiteURL: cfg.Site.BaseURL,
	})

	var ready atomic.Bool

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if ready.Load() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}

		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	mux.Handle("/metrics", m.Handler())
	mux.Handle("/", apiHandler)

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("http_listen_start", slog.String("addr", httpAddr))

	g.Go(func() error {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		ready.Store(false)
		log.Info("shutdown_requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
			return nil
		}

		log.Info("http_stopped")
		return nil
	})

	ready.Store(true)
	log.Info("techblog_ready")

	if err := g.Wait(); err != nil {
		log.Error("service_failed", slog.String("err", err.Error()))
	}

	log.Info("service_stopped")
}

// newLimiterStore выбирает хранилище счётчиков по rate_limit.backend.
func newLimiterStore(ctx context.Context, cfg *config.Config) (ratelimit.Store, func(), error) {
	if cfg.RateLimit.Backend != "redis" {
		return ratelimit.NewMemoryStore(), func() {}, nil
	}

	rs, err := ratelimit.NewRedisStore(ctx, cfg.Redis.URL, "")
	if err != nil {
		return nil, nil, err
	}

	return rs, func() { _ = rs.Close() }, nil
}

// newMailer собирает отправку писем. Без SMTP возвращает nil: формы отвечают 503.
// При mail.async письма уходят через очередь, и воркер нужно запустить.
func newMailer(cfg *config.Config, log *slog.Logger) (mail.Dispatcher, *mail.Queue, error) {
	sender, err := mail.NewSMTP(cfg.Mail)
	if errors.Is(err, mail.ErrNotConfigured) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	if !cfg.Mail.Async {
		return mail.NewDirect(sender), nil, nil
	}

	q, err := mail.NewQueue(cfg.Redis.URL, sender, log)
	if err != nil {
		return nil, nil, err
	}

	return q, q, nil
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case config.EnvLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
