package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/screwyprof/racer/pkg/ethchain"
	"github.com/screwyprof/racer/pkg/logger"
	"github.com/screwyprof/racer/pkg/pgxdb"
	"github.com/screwyprof/racer/server/config"
	"github.com/screwyprof/racer/server/handler"
	"github.com/screwyprof/racer/server/publisher"
	"github.com/screwyprof/racer/server/pubsub"
	"github.com/screwyprof/racer/server/store/pgxstore"
)

// These values are overridden at build time using -ldflags
var (
	version = "dev"
	date    = "unknown"
)

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()

	cfg := config.New()

	log := logger.NewFromConfig(logger.Config{
		LogLevel:         cfg.LogLevel,
		LogHumanFriendly: cfg.LogHumanFriendly,
	})
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.InfoContext(ctx, "Racer server starting",
		slog.String("version", version),
		slog.String("date", date),
	)

	if err := run(ctx, log, cfg); err != nil {
		log.ErrorContext(ctx, "Server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	log.InfoContext(ctx, "Server exited gracefully")
}

func run(ctx context.Context, log *slog.Logger, cfg config.Config) error {
	db, err := pgxdb.NewConnection(ctx, cfg.DatabaseURL, pgxdb.WithMaxConns(cfg.DatabaseMaxConns))
	if err != nil {
		return err
	}

	finder, finderCloser := pgxstore.New(db)
	defer finderCloser()

	// The server only reads heads, so no contract is bound
	chain, err := ethchain.Dial(ctx, cfg.RPCURL, common.Address{})
	if err != nil {
		return err
	}
	defer chain.Close()

	chainID := cfg.ChainID
	if chainID == 0 {
		if chainID, err = chain.ChainID(ctx); err != nil {
			return err
		}
	}
	log.InfoContext(ctx, "Serving chain", slog.Uint64("chainID", chainID), slog.String("rpc", cfg.RPCURL))

	hub := pubsub.NewHub(
		pubsub.WithBufferSize(cfg.SubscriberBuffer),
		pubsub.WithLogger(log),
		pubsub.WithRegisterer(prometheus.DefaultRegisterer),
	)
	router := pubsub.NewRouter(hub,
		pubsub.WithRequestRate(rate.Limit(cfg.SubscribeRate), cfg.SubscribeBurst),
		pubsub.WithRouterLogger(log),
	)

	publisherOpts := []publisher.Option{
		publisher.WithInterval(cfg.PublishInterval),
		publisher.WithTimeout(cfg.PublishTimeout),
		publisher.WithLogger(log),
	}
	heads := publisher.NewBreakerChain(chain, publisher.DefaultBreakerFailures, publisher.DefaultBreakerCooldown, log)
	leaderboard := publisher.NewLeaderboard(hub, finder, heads, chainID, publisherOpts...)
	online := publisher.NewOnline(hub, publisherOpts...)

	mux := http.NewServeMux()
	handler.NewWebsocket(router, log).AddRoutes(mux)
	handler.NewGetLeaderboard(leaderboard, hub).AddRoutes(mux)
	handler.NewGetVotes(finder, chainID).AddRoutes(mux)
	handler.NewHealth(hub).AddRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	addr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           logger.NewMiddleware(log)(mux),
		ReadHeaderTimeout: 5 * time.Second,
		// Hijacked websocket connections are not tracked by Shutdown; they
		// end with this context instead.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreCanceled(leaderboard.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(online.Run(gctx)) })
	g.Go(func() error {
		log.InfoContext(ctx, "Server started", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.InfoContext(ctx, "Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
