package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang-etf-dashboard/internal/ingestion/config"
	"golang-etf-dashboard/internal/ingestion/repository"
	"golang-etf-dashboard/internal/ingestion/service"
	"golang-etf-dashboard/pkg/common"
	"golang-etf-dashboard/pkg/keypool"
	"golang-etf-dashboard/pkg/logger"
	"golang-etf-dashboard/pkg/postgres"
	"golang-etf-dashboard/pkg/redis"
	"golang-etf-dashboard/pkg/telegram"

	"google.golang.org/genai"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the ingestion service on its cron schedule",
	Run: func(cmd *cobra.Command, args []string) {
		run(false)
	},
}

var runOnceCmd = &cobra.Command{
	Use:   "run-once",
	Short: "Runs a single market and news cycle, then exits",
	Run: func(cmd *cobra.Command, args []string) {
		run(true)
	},
}

func run(once bool) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Ingestion Service", zap.String("name", cfg.App.Name))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", zap.Error(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis
	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Initialize repositories
	symbolsRepo := repository.NewSymbolsRepository(db.DB)
	snapshotRepo := repository.NewSnapshotRepository(db.DB)
	newsRepo := repository.NewNewsRepository(db.DB)
	cacheRepo := repository.NewCacheRepository(redisClient, common.CacheTTL)
	finnhubRepo := repository.NewFinnhubRepository(cfg, appLogger)
	yahooRepo := repository.NewYahooFinanceRepository(cfg, appLogger)

	// Initialize AI annotator
	var annotator repository.NewsAnnotatorRepository
	switch cfg.AI.Provider {
	case "gemini":
		genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey: cfg.Gemini.APIKey,
		})
		if err != nil {
			appLogger.Fatal("Failed to initialize Gemini AI client", zap.Error(err))
		}
		annotator, err = repository.NewGeminiAIRepository(cfg, appLogger, genAiClient)
		if err != nil {
			appLogger.Fatal("Failed to initialize Gemini AI repository", zap.Error(err))
		}
	default:
		appLogger.Fatal("Invalid AI provider specified in config", zap.String("provider", cfg.AI.Provider))
	}

	// Initialize notifier
	var notifier telegram.Notifier = telegram.NopNotifier{}
	if cfg.Telegram.BotToken != "" {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", zap.Error(err))
		}
	}

	// Initialize key pool and news feeds
	keys, err := keypool.New(cfg.Finnhub.APIKeys)
	if err != nil {
		appLogger.Fatal("Failed to initialize credential pool", zap.Error(err))
	}

	tickers := func(ctx context.Context) ([]string, error) {
		universe, err := symbolsRepo.GetUniverse(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(universe))
		for _, symbol := range universe {
			out = append(out, symbol.Ticker)
		}
		return out, nil
	}
	feeds := []repository.NewsFeedRepository{
		repository.NewRSSNewsRepository(cfg, appLogger),
		repository.NewMarketauxRepository(cfg, appLogger, tickers),
	}

	// Initialize services
	fetcher := service.NewQuoteFetcher(appLogger, keys, finnhubRepo, yahooRepo)
	marketSvc := service.NewMarketDataService(cfg, appLogger, symbolsRepo, snapshotRepo, cacheRepo, fetcher, notifier)
	deduper := service.NewNewsDeduper(cfg.News.DedupThreshold)
	newsSvc := service.NewNewsService(cfg, appLogger, feeds, newsRepo, cacheRepo, symbolsRepo, annotator, deduper, notifier)

	if once {
		if _, err := marketSvc.RunCycle(ctx); err != nil {
			appLogger.Error("Market data cycle failed", logger.ErrorField(err))
		}
		if _, err := newsSvc.RunNewsCycle(ctx); err != nil {
			appLogger.Error("News cycle failed", logger.ErrorField(err))
		}
		return
	}

	schedulerSvc := service.NewSchedulerService(cfg, appLogger, marketSvc, newsSvc)

	// Wait for interrupt signal to gracefully shut down the service
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		appLogger.Info("Shutting down ingestion service...")
		cancel()
	}()

	if err := schedulerSvc.Start(ctx); err != nil {
		appLogger.Fatal("Failed to start scheduler", zap.Error(err))
	}
	appLogger.Info("Ingestion service stopped.")
}

func main() {
	rootCmd := &cobra.Command{Use: "ingestion-service"}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-ingestion.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd, runOnceCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing ingestion-service CLI: %s\n", err)
		os.Exit(1)
	}
}
