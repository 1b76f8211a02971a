package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"hxcodewarrior/ctripcrawler/config"
	"hxcodewarrior/ctripcrawler/internal/fetch"
	"hxcodewarrior/ctripcrawler/internal/orchestrator"
	"hxcodewarrior/ctripcrawler/internal/progress"
	"hxcodewarrior/ctripcrawler/internal/proxy"
	"hxcodewarrior/ctripcrawler/internal/ratelimit"
	"hxcodewarrior/ctripcrawler/internal/sink"
	"hxcodewarrior/ctripcrawler/logger"
	"hxcodewarrior/ctripcrawler/services/cache"
	"hxcodewarrior/ctripcrawler/services/publisher"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Int("workers", cfg.WorkerCount).
		Int("max_retries", cfg.MaxRetries).
		Bool("use_chrome", cfg.UseChrome).
		Msg("Starting crawl worker")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	// Proxy pool: statically configured entries, optionally topped up
	proxies := proxy.NewManager(cfg.ProxyList)
	if os.Getenv("PROXY_FETCH_REMOTE") == "true" {
		if err := proxies.FetchRemote(); err != nil {
			log.Warn().Err(err).Msg("Failed to fetch remote proxies")
		}
	}
	log.Info().Interface("proxy_stats", proxies.Stats()).Msg("Proxy pool ready")

	limiter := ratelimit.NewLimiter(cfg.RequestsPerSecond, cfg.DelayMin, cfg.DelayMax, proxies)

	// Fetcher selection is a construction-time choice; the orchestrator
	// never branches on it
	var fetcher fetch.Fetcher
	if cfg.UseChrome {
		chrome := fetch.NewChromeFetcher(ctx, cfg.ChromeHeadless, cfg.HTTPTimeout*3, limiter)
		defer chrome.Close()
		fetcher = chrome
	} else {
		cacheSvc := cache.NewMemcacheService(cfg.MemcacheAddr)
		logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		fetcher = fetch.NewAPIFetcher(cfg.HTTPTimeout, limiter, cacheSvc, cfg.BlockTime)
	}

	var pub publisher.Publisher
	if cfg.PublishEnabled {
		pub = publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		defer pub.Close()
		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	targets, err := orchestrator.LoadTargets(cfg.TargetsFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.TargetsFile).Msg("Failed to load targets")
	}
	if len(targets) == 0 {
		log.Fatal().Str("path", cfg.TargetsFile).Msg("No targets to crawl")
	}
	log.Info().Int("target_count", len(targets)).Msg("Loaded targets")

	orch := orchestrator.New(
		fetcher,
		sink.NewCSVSink(cfg.OutputDir),
		progress.NewFileStore(filepath.Join(cfg.OutputDir, cfg.ProgressFile)),
		pub,
		orchestrator.Options{
			WorkerCount:    cfg.WorkerCount,
			MaxRetries:     cfg.MaxRetries,
			RetryBackoff:   cfg.RetryBackoff,
			RetryAllErrors: cfg.RetryAllErrors,
			PageSize:       cfg.PageSize,
			MaxPages:       cfg.MaxPages,
			SearchURL:      cfg.SearchURL,
			CommentListURL: cfg.CommentListURL,
			DetailURL:      cfg.DetailURL,
			SummaryFile:    cfg.SummaryFile,
		},
	)
	orch.Enqueue(targets)

	report := orch.Run(ctx)

	log.Info().
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Msg("Crawl finished")
	for _, t := range report.FailedTargets {
		log.Warn().
			Str("id", t.ID).
			Str("name", t.Name).
			Str("url", t.URL).
			Msg("Target failed permanently")
	}

	if report.Failed > 0 {
		os.Exit(1)
	}
}
