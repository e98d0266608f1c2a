// Command matcherd runs the ironbook matching engine: it loads
// configuration, wires the dispatch pipeline's symbol shards to their
// sinks and transports, and serves until signalled to stop.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ironbook/internal/config"
	"ironbook/internal/dispatch"
	"ironbook/internal/idempotency"
	"ironbook/internal/metrics"
	"ironbook/internal/sink"
	"ironbook/internal/transport"
)

// Exit codes per spec §6.
const (
	exitClean           = 0
	exitFatalConfig     = 1
	exitFatalDependency = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to load configuration")
		return exitFatalConfig
	}
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return exitFatalConfig
	}
	configureLogging(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	guard, guardCloser, err := buildGuard(cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize idempotency guard")
		return exitFatalDependency
	}
	if guardCloser != nil {
		defer guardCloser()
	}

	durable, analytics, err := buildSinks(cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize trade sinks")
		return exitFatalDependency
	}

	hub := transport.NewTradeHub()
	go hub.Run(ctx)

	shardSymbols := cfg.ShardSymbols()
	shards := make(map[int]*dispatch.Shard, len(shardSymbols))
	symbolShard := make(map[string]int)
	for shardID, symbols := range shardSymbols {
		shards[shardID] = dispatch.NewShard(shardID, symbols, guard, durable, analytics, hub, uuid.NewString, 256)
		for _, s := range symbols {
			symbolShard[s] = shardID
		}
	}
	router := dispatch.NewRouter(shards, symbolShard)
	router.Start(ctx)
	defer func() {
		if err := router.Stop(); err != nil {
			log.Error().Err(err).Msg("dispatch router stopped with error")
		}
	}()

	go logResults(ctx, router)

	ingest := transport.NewTCPIngest(cfg.Inbound.Source, router)
	ingestErrCh := make(chan error, 1)
	go func() { ingestErrCh <- ingest.Run(ctx) }()
	defer ingest.Stop()

	reg := metrics.New()
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", reg.Handler())
		mux.Handle("/ws/trades", hub)
		metricsServer = &http.Server{Addr: cfg.Metrics.Listen, Handler: mux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("metrics server stopped with error")
			}
		}()
	}

	log.Info().Str("inbound", cfg.Inbound.Source).Msg("matcherd running")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-ingestErrCh:
		if err != nil {
			log.Error().Err(err).Msg("tcp ingest stopped unexpectedly")
			return exitFatalDependency
		}
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	return exitClean
}

func configureLogging(level, format string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func buildGuard(cfg *config.Config) (idempotency.Guard, func(), error) {
	switch cfg.Idempotency.Backend {
	case "external_kv":
		opt, err := redis.ParseURL(cfg.Idempotency.Endpoint)
		if err != nil {
			return nil, nil, fmt.Errorf("parse idempotency.endpoint: %w", err)
		}
		if cfg.Idempotency.AuthToken != "" {
			opt.Password = cfg.Idempotency.AuthToken
		}
		client := redis.NewClient(opt)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, nil, fmt.Errorf("ping idempotency redis: %w", err)
		}
		guard := idempotency.NewRedisGuard(client, cfg.Idempotency.TTL(), "ironbook:idempotency:")
		return guard, func() { _ = client.Close() }, nil
	default:
		guard := idempotency.NewInMemory(cfg.Idempotency.TTL(), time.Minute)
		return guard, guard.Close, nil
	}
}

func buildSinks(cfg *config.Config) (sink.DurableTradeSink, sink.AnalyticsSink, error) {
	opt, err := redis.ParseURL(cfg.Sink.Durable)
	if err != nil {
		return nil, nil, fmt.Errorf("parse sink.durable: %w", err)
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, nil, fmt.Errorf("ping durable sink redis: %w", err)
	}
	durable := sink.NewRedisDurableSink(client, "ironbook:trades")

	var analytics sink.AnalyticsSink
	if cfg.Sink.Analytics != "" {
		analyticsOpt, err := redis.ParseURL(cfg.Sink.Analytics)
		if err != nil {
			return nil, nil, fmt.Errorf("parse sink.analytics: %w", err)
		}
		analyticsClient := redis.NewClient(analyticsOpt)
		analytics = sink.NewRedisAnalyticsSink(analyticsClient, "ironbook:analytics")
	}
	return durable, analytics, nil
}

func logResults(ctx context.Context, router *dispatch.Router) {
	for {
		select {
		case <-ctx.Done():
			return
		case res := <-router.Results():
			if res.Outcome == dispatch.BatchItemFailure {
				log.Error().Str("record_id", res.RecordID).Err(res.Err).Msg("batch item failure")
			} else if res.Err != nil {
				log.Debug().Str("record_id", res.RecordID).Err(res.Err).Msg("order acked with rejection")
			}
		}
	}
}
