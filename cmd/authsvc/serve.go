package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/authsvc"
	"github.com/MrEthical07/authsvc/email"
	"github.com/MrEthical07/authsvc/httpapi"
	"github.com/MrEthical07/authsvc/internal/logging"
	"github.com/MrEthical07/authsvc/internal/rate"
	"github.com/MrEthical07/authsvc/metrics/export/prometheus"
	"github.com/MrEthical07/authsvc/middleware"
	"github.com/MrEthical07/authsvc/password"
	"github.com/MrEthical07/authsvc/store/memory"
	"github.com/MrEthical07/authsvc/store/postgres"
	redisstore "github.com/MrEthical07/authsvc/store/redis"
)

const (
	sweepInterval = time.Minute
	// embeddedRedis as the Redis address starts an in-process Redis.
	embeddedRedis = "memory"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	defaults := defaultServiceConfig()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the authentication API. Users live in PostgreSQL when a
database URL is configured; banned tokens, 2FA challenges and rate limits
live in Redis when an address is configured. Anything unconfigured is kept
in process memory.`,
		RunE: runServe,
	}

	f := cmd.Flags()
	f.String("listen", defaults.Server.Addr, "API listen address")
	f.String("metrics-addr", defaults.Metrics.Addr, "metrics and health listen address (empty disables)")
	f.String("log-format", defaults.Log.Format, "log format: json or text")
	f.String("log-level", defaults.Log.Level, "log level")
	f.String("postgres-url", "", "PostgreSQL URL for the user store")
	f.String("redis-addr", "", `Redis address for tokens, challenges and rate limits ("memory" for embedded)`)
	return cmd
}

// backends holds the stores and limiter chosen from config plus what
// closes them.
type backends struct {
	users   authsvc.UserStore
	banned  authsvc.BannedTokenStore
	codes   authsvc.TwoFACodeStore
	limiter rate.Limiter
	ping    []func(context.Context) error
	sweep   []sweeper
	close   []func()
}

// sweeper is an in-process backend with a size worth reporting. sweep may
// be nil for a store that never expires entries.
type sweeper struct {
	name  string
	sweep func() int
	size  func() int
}

func (b *backends) Close() {
	for i := len(b.close) - 1; i >= 0; i-- {
		b.close[i]()
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := logging.Setup("authsvc", version, cfg.Log.Format, cfg.Log.Level, nil)
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	slog.SetDefault(logger)

	engineCfg, err := cfg.engineConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	be, err := openBackends(ctx, cfg, engineCfg, logger)
	if err != nil {
		return err
	}
	defer be.Close()

	mailer := email.NewLogClient(logger, cfg.TwoFactor.OutboxSize)
	engine, err := authsvc.New().
		WithConfig(engineCfg).
		WithUserStore(be.users).
		WithBannedTokenStore(be.banned).
		WithTwoFACodeStore(be.codes).
		WithEmailClient(mailer).
		WithAuditSink(authsvc.NewSlogSink(logger)).
		WithLogger(logger).
		Build()
	if err != nil {
		return oops.Code("ENGINE_INIT_FAILED").Wrap(err)
	}
	defer engine.Close()

	api := httpapi.NewHandler(engine, httpapi.Options{
		Cookie:  cfg.Cookie,
		Logger:  logger,
		Limiter: be.limiter,
	})
	api.Handle("GET /me", middleware.Guard(engine)(http.HandlerFunc(handleMe)))
	if cfg.TwoFactor.OutboxSize > 0 {
		logger.Warn("dev outbox enabled; GET /dev/outbox exposes 2FA codes", "size", cfg.TwoFactor.OutboxSize)
		api.Handle("GET /dev/outbox", outboxHandler(mailer))
	}

	var ready atomic.Bool
	servers := []*http.Server{{
		Addr:              cfg.Server.Addr,
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if cfg.Metrics.Addr != "" {
		servers = append(servers, &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           observabilityMux(engine, be, &ready),
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			logger.Info("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- oops.With("addr", srv.Addr).Wrap(err)
			}
		}(srv)
	}
	go sweepLoop(ctx, logger, be.sweep)
	ready.Store(true)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-errCh:
		logger.Error("server failed", "error", err)
	}
	ready.Store(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			logger.Warn("shutdown", "addr", srv.Addr, "error", serr)
		}
	}
	return err
}

func openBackends(ctx context.Context, cfg serviceConfig, engineCfg authsvc.Config, logger *slog.Logger) (*backends, error) {
	be := &backends{}
	ok := false
	defer func() {
		if !ok {
			be.Close()
		}
	}()

	verifier, err := password.NewArgon2(engineCfg.Password)
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
		}
		be.close = append(be.close, pool.Close)
		if err := waitFor(ctx, "postgres", logger, pool.Ping); err != nil {
			return nil, oops.Code("DB_CONNECT_FAILED").Wrap(err)
		}
		be.users = postgres.NewUserStore(pool, verifier)
		be.ping = append(be.ping, pool.Ping)
		logger.Info("user store", "backend", "postgres")
	} else {
		users := memory.NewUserStore(verifier)
		be.users = users
		be.sweep = append(be.sweep, sweeper{name: "users", size: users.Len})
	}

	addr := cfg.Redis.Addr
	if addr == embeddedRedis {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, oops.Code("REDIS_CONNECT_FAILED").With("operation", "start embedded redis").Wrap(err)
		}
		be.close = append(be.close, mr.Close)
		addr = mr.Addr()
		logger.Warn("using embedded redis; state is lost on exit", "addr", addr)
	}

	if addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		be.close = append(be.close, func() { _ = rdb.Close() })
		ping := func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		if err := waitFor(ctx, "redis", logger, ping); err != nil {
			return nil, oops.Code("REDIS_CONNECT_FAILED").Wrap(err)
		}
		be.banned = redisstore.NewBannedTokenStore(rdb, cfg.Redis.Prefix+"abt")
		be.codes = redisstore.NewTwoFACodeStore(rdb, cfg.Redis.Prefix+"2fa", engineCfg.TwoFactor.ChallengeTTL)
		if cfg.RateLimit.Enabled {
			limiter, err := rate.NewRedis(rdb, cfg.rateConfig(cfg.Redis.Prefix+"rl:"))
			if err != nil {
				return nil, oops.Code("CONFIG_INVALID").Wrap(err)
			}
			be.limiter = limiter
		}
		be.ping = append(be.ping, ping)
		logger.Info("token and challenge stores", "backend", "redis")
	} else {
		banned := memory.NewBannedTokenStore()
		be.banned = banned
		be.sweep = append(be.sweep, sweeper{name: "banned_tokens", sweep: banned.Sweep, size: banned.Len})
		be.codes = memory.NewTwoFACodeStore(memory.WithChallengeTTL(engineCfg.TwoFactor.ChallengeTTL))
		if cfg.RateLimit.Enabled {
			limiter, err := rate.NewMemory(cfg.rateConfig(""), nil)
			if err != nil {
				return nil, oops.Code("CONFIG_INVALID").Wrap(err)
			}
			be.limiter = limiter
			be.sweep = append(be.sweep, sweeper{name: "rate_limits", sweep: limiter.Sweep, size: limiter.Len})
		}
	}

	ok = true
	return be, nil
}

// waitFor retries ping with backoff until it succeeds, ctx ends or the
// attempts run out.
func waitFor(ctx context.Context, name string, logger *slog.Logger, ping func(context.Context) error) error {
	backoff := retry.WithMaxRetries(6, retry.NewExponential(250*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := ping(pingCtx); err != nil {
			logger.Warn("backend not ready", "backend", name, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func sweepLoop(ctx context.Context, logger *slog.Logger, sweeps []sweeper) {
	if len(sweeps) == 0 {
		return
	}
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepOnce(ctx, logger, sweeps)
		}
	}
}

func sweepOnce(ctx context.Context, logger *slog.Logger, sweeps []sweeper) {
	for _, s := range sweeps {
		removed := 0
		if s.sweep != nil {
			removed = s.sweep()
		}
		logger.DebugContext(ctx, "sweep", "backend", s.name, "removed", removed, "size", s.size())
	}
}

// outboxHandler lists the mails the LogClient kept, oldest first.
func outboxHandler(mailer *email.LogClient) http.Handler {
	type message struct {
		Recipient string `json:"recipient"`
		Subject   string `json:"subject"`
		Content   string `json:"content"`
	}
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		kept := mailer.Outbox()
		out := make([]message, 0, len(kept))
		for _, m := range kept {
			out = append(out, message{Recipient: m.Recipient, Subject: m.Subject, Content: m.Content})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})
}

func observabilityMux(engine *authsvc.Engine, be *backends, ready *atomic.Bool) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", prometheus.NewCollector(engine).Handler())
	mux.HandleFunc("/healthz/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/healthz/readiness", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if !ready.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready\n"))
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for _, ping := range be.ping {
			if err := ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("backend unavailable\n"))
				return
			}
		}
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

func handleMe(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"sub": claims.Subject,
		"exp": claims.ExpiresAt.Unix(),
	})
}
