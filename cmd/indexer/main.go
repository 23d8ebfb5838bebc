package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/screwyprof/racer/indexer"
	"github.com/screwyprof/racer/indexer/config"
	"github.com/screwyprof/racer/indexer/store/pgxstore"
	"github.com/screwyprof/racer/pkg/ethchain"
	"github.com/screwyprof/racer/pkg/logger"
	"github.com/screwyprof/racer/pkg/pgxdb"
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

	if !common.IsHexAddress(cfg.ContractAddress) {
		log.Error("Invalid contract address", slog.String("address", cfg.ContractAddress))
		os.Exit(1)
	}
	contract := common.HexToAddress(cfg.ContractAddress)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.InfoContext(ctx, "Starting racer indexer",
		slog.String("contract", contract.Hex()),
		slog.Int("chains", len(cfg.RPCURLs)),
		slog.String("version", version),
		slog.String("date", date),
	)

	db, err := pgxdb.NewConnection(ctx, cfg.DatabaseURL, pgxdb.WithMaxConns(cfg.DatabaseMaxConns))
	if err != nil {
		log.ErrorContext(ctx, "Failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}

	store, storeCloser := pgxstore.New(db)
	defer storeCloser()

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, log, cfg.MetricsAddr)
	}

	// A faulted chain stops every engine so a supervisor can restart the process
	g, gctx := errgroup.WithContext(ctx)
	for _, url := range cfg.RPCURLs {
		g.Go(func() error {
			return follow(gctx, log, url, contract, store, cfg)
		})
	}

	if err := g.Wait(); err != nil {
		log.ErrorContext(ctx, "Indexer stopped with error", slog.Any("error", err))
		storeCloser()
		os.Exit(1)
	}
	log.InfoContext(ctx, "Indexer stopped gracefully")
}

// follow runs one engine against one RPC endpoint until ctx ends or the engine faults
func follow(ctx context.Context, log *slog.Logger, url string, contract common.Address, store indexer.Store, cfg config.Config) error {
	log = log.With(slog.String("rpc", url))

	client, err := ethchain.Dial(ctx, url, contract)
	if err != nil {
		return err
	}
	defer client.Close()

	service := indexer.NewService(client, store,
		indexer.WithStartHeight(cfg.StartHeight),
		indexer.WithReorgThreshold(cfg.ReorgThreshold),
		indexer.WithReconcileTimeout(cfg.ReconcileTimeout),
	)

	var faulted atomic.Pointer[indexer.Faulted]

	events, done := service.Start(ctx)
	subCloser := setupEventLogging(ctx, events, log, &faulted)

	<-done
	subCloser()

	if f := faulted.Load(); f != nil {
		return f.Err
	}
	return nil
}

// setupEventLogging configures event handlers using slog directly
func setupEventLogging(ctx context.Context, events <-chan indexer.Event, log *slog.Logger, faulted *atomic.Pointer[indexer.Faulted]) func() {
	return indexer.NewSubscriber(events,
		indexer.OnFollowingStarted(func(event indexer.FollowingStarted) {
			log.InfoContext(ctx, "Following started",
				slog.Uint64("chainID", event.ChainID),
				slog.String("startedAt", event.StartedAt.Format(logger.BritishTimeFormat)),
				slog.Uint64("startHeight", event.StartHeight),
				slog.Uint64("reorgThreshold", event.ReorgThreshold),
			)
		}),
		indexer.OnRangeReconciled(func(event indexer.RangeReconciled) {
			if event.Applied.Total() == 0 {
				log.DebugContext(ctx, "Range reconciled, no events",
					slog.Uint64("chainID", event.ChainID),
					slog.Uint64("from", event.From),
					slog.Uint64("head", event.Head),
				)
				return
			}
			log.InfoContext(ctx, "Range reconciled",
				slog.Uint64("chainID", event.ChainID),
				slog.Uint64("from", event.From),
				slog.Uint64("head", event.Head),
				slog.Uint64("syncHeight", event.SyncHeight),
				slog.Int("cycles", event.Applied.Cycles),
				slog.Int("votes", event.Applied.Votes),
				slog.Int("claims", event.Applied.Claims),
				slog.Duration("duration", event.Duration),
			)
		}),
		indexer.OnReconcileFailed(func(event indexer.ReconcileFailed) {
			log.ErrorContext(ctx, "Reconciliation failed, retrying on next head",
				slog.Uint64("chainID", event.ChainID),
				slog.Uint64("head", event.Head),
				slog.Any("error", event.Err),
			)
		}),
		indexer.OnFaulted(func(event indexer.Faulted) {
			faulted.Store(&event)
			log.ErrorContext(ctx, "Chain faulted",
				slog.Uint64("chainID", event.ChainID),
				slog.Any("error", event.Err),
			)
		}),
		indexer.OnFollowingStopped(func(event indexer.FollowingStopped) {
			log.InfoContext(ctx, "Following stopped",
				slog.Uint64("chainID", event.ChainID),
				slog.String("reason", event.Reason.Error()),
			)
		}),
	)
}

// serveMetrics exposes the Prometheus registry until ctx ends
func serveMetrics(ctx context.Context, log *slog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.InfoContext(ctx, "Serving metrics", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.ErrorContext(ctx, "Metrics server failed", slog.Any("error", err))
	}
}
