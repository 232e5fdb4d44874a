package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/laborhub-backend/internal/auth"
	"github.com/heartmarshall/laborhub-backend/internal/config"
	"github.com/heartmarshall/laborhub-backend/internal/service/banned"
	"github.com/heartmarshall/laborhub-backend/internal/service/identity"
	"github.com/heartmarshall/laborhub-backend/internal/service/livelist"
	"github.com/heartmarshall/laborhub-backend/internal/service/lock"
	"github.com/heartmarshall/laborhub-backend/internal/service/records"
	"github.com/heartmarshall/laborhub-backend/internal/transport/middleware"
	"github.com/heartmarshall/laborhub-backend/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, opens the
// document store, builds the services and serves HTTP until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("store_driver", cfg.Store.Driver),
	)

	st, err := OpenStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// ---------------------------------------------------------------------------
	// Services
	// ---------------------------------------------------------------------------

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)
	identitySvc := identity.NewService(logger, jwtManager, st.Docs, cfg.Auth.DirectoryCacheTTL)
	lockSvc := lock.NewService(logger, st.Docs, cfg.Lock, lock.NewMetrics(reg))
	recordSvc := records.NewService(logger, st.Docs, livelist.NewMetrics(reg))
	bannedSvc := banned.NewService(logger, st.Docs, st.Tx)

	// ---------------------------------------------------------------------------
	// HTTP
	// ---------------------------------------------------------------------------

	httpMetrics := middleware.NewHTTPMetrics(reg)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.CleanupInterval)
	defer limiter.Stop()

	checks := []rest.Check{rest.PingCheck("store", st.Docs)}
	if st.Ready != nil {
		checks = append(checks, rest.SignalCheck("change_feed", st.Ready))
	}

	origins := cfg.CORS.AllowedOrigins
	mux := rest.NewRouter(rest.Handlers{
		Health:      rest.NewHealthHandler(BuildVersion(), checks...),
		Auth:        rest.NewAuthHandler(identitySvc, logger),
		Locks:       rest.NewLockHandler(lockSvc, origins, logger),
		Collections: rest.NewCollectionHandler(recordSvc, cfg.List, origins, logger),
		Banned:      rest.NewBannedHandler(bannedSvc, logger),
		Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}, middleware.Chain(middleware.Auth(identitySvc), middleware.RequireAuth()), httpMetrics)

	handler := middleware.Chain(
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.Logger(logger),
		httpMetrics.InFlight(),
		middleware.CORS(cfg.CORS),
		limiter.Limit(cfg.RateLimit.RequestsPerMinute),
	)(mux)

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	if st.Run != nil {
		g.Go(func() error { return st.Run(gctx) })
	}

	if cfg.Lock.SweepInterval > 0 {
		g.Go(func() error {
			sweepLocks(gctx, logger, lockSvc, cfg.Lock.SweepInterval)
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		logger.Info("shutting down http server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("application stopped")
	return nil
}

type lockSweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// sweepLocks deletes expired locks every interval until ctx is done.
func sweepLocks(ctx context.Context, logger *slog.Logger, locks lockSweeper, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		n, err := locks.SweepExpired(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.WarnContext(ctx, "sweep expired locks", slog.String("error", err.Error()))
			}
			continue
		}
		if n > 0 {
			logger.DebugContext(ctx, "swept expired locks", slog.Int("count", n))
		}
	}
}
