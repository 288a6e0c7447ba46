package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ducminhle1904/batch-trade-bot/internal/api"
	"github.com/ducminhle1904/batch-trade-bot/internal/broker"
	"github.com/ducminhle1904/batch-trade-bot/internal/broker/bybit"
	"github.com/ducminhle1904/batch-trade-bot/internal/config"
	"github.com/ducminhle1904/batch-trade-bot/internal/engine"
	"github.com/ducminhle1904/batch-trade-bot/internal/ledger"
	"github.com/ducminhle1904/batch-trade-bot/internal/logger"
	"github.com/ducminhle1904/batch-trade-bot/internal/monitoring"
	"github.com/ducminhle1904/batch-trade-bot/internal/notifications"
	"github.com/ducminhle1904/batch-trade-bot/pkg/reporting"
)

func main() {
	var (
		configFile = flag.String("config", "bot.json", "Configuration file (in configs/ unless a path is given)")
		envFile    = flag.String("env", ".env", "Environment file with API credentials")
	)
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Credentials come from the environment; .env is optional
	if err := godotenv.Load(*envFile); err != nil && *envFile != ".env" {
		log.Fatalf("Failed to load env file %s: %v", *envFile, err)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("Bot error: %v", err)
	}
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fileLog, err := logger.NewLogger(cfg.LogDir, cfg.Trading.Symbol)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer fileLog.Close()

	// Broker connection
	client, err := newBrokerClient(cfg)
	if err != nil {
		return err
	}
	healthChecker := monitoring.NewHealthChecker()
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	defer client.Disconnect()
	healthChecker.SetConnected(true)

	// Trade history and risk state
	store, err := ledger.OpenStore(cfg.Database.Path, cfg.Broker.Account, cfg.Risk.TradingDayResetHour)
	if err != nil {
		return fmt.Errorf("failed to open trade history: %w", err)
	}
	defer store.Close()
	riskLedger := ledger.NewRiskLedger(store, client)

	coordinator := engine.NewCoordinator(client, riskLedger, fileLog)

	var notifier notifications.Notifier
	if cfg.Notifications != nil && cfg.Notifications.Enabled {
		notifier = notifications.NewTelegramNotifier(cfg.Notifications.TelegramToken, cfg.Notifications.TelegramChat)
		if err := notifier.SendAlert("info", "Batch trade bot started"); err != nil {
			log.Printf("Failed to send startup notification: %v", err)
		}
	} else {
		log.Println("Telegram notifications disabled")
	}

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}
	console := reporting.NewConsoleReporter()
	console.PrintStartupInfo(client.Name(), cfg.Trading.Symbol, cfg.Trading.Timeframe, engineCfg, len(cfg.Batch.Templates))

	go startMonitoringServer(cfg, healthChecker)

	server := api.NewServer(coordinator, client, store, riskLedger, cfg, notifier, healthChecker, fileLog)

	// Wait for shutdown signal
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down...")
		cancel()
	}()

	log.Printf("API server listening on %s", cfg.Server.ListenAddr)
	if err := server.Start(ctx); err != nil {
		return err
	}

	if notifier != nil {
		if err := notifier.SendAlert("info", "Batch trade bot stopped"); err != nil {
			log.Printf("Failed to send shutdown notification: %v", err)
		}
	}
	log.Println("Bot stopped successfully")
	return nil
}

// newBrokerClient builds the configured broker client
func newBrokerClient(cfg *config.Config) (broker.Client, error) {
	switch cfg.Broker.Name {
	case "bybit":
		return bybit.NewClient(bybit.Config{
			APIKey:    cfg.Broker.APIKey,
			APISecret: cfg.Broker.APISecret,
			Testnet:   cfg.Broker.Testnet,
			Demo:      cfg.Broker.Demo,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported broker %q", cfg.Broker.Name)
	}
}

// startMonitoringServer serves the health and metrics endpoints
func startMonitoringServer(cfg *config.Config, healthChecker *monitoring.HealthChecker) {
	mux := http.NewServeMux()
	mux.Handle("/health", healthChecker)
	mux.Handle("/metrics", monitoring.NewMetricsHandler())

	log.Printf("Monitoring server listening on %s", cfg.Server.MetricsAddr)
	if err := http.ListenAndServe(cfg.Server.MetricsAddr, mux); err != nil {
		log.Printf("Monitoring server error: %v", err)
	}
}
