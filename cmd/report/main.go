package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/ducminhle1904/batch-trade-bot/internal/broker/bybit"
	"github.com/ducminhle1904/batch-trade-bot/internal/config"
	"github.com/ducminhle1904/batch-trade-bot/internal/engine"
	"github.com/ducminhle1904/batch-trade-bot/internal/ledger"
	"github.com/ducminhle1904/batch-trade-bot/pkg/reporting"
)

// Account status and trade history report without starting the bot.
func main() {
	var (
		configFile = flag.String("config", "bot.json", "Configuration file")
		envFile    = flag.String("env", ".env", "Environment file with API credentials")
		exportPath = flag.String("export", "", "Export trade history to this Excel file")
		limit      = flag.Int("limit", 100, "Number of history entries to export")
	)
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && *envFile != ".env" {
		log.Fatalf("Failed to load env file %s: %v", *envFile, err)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := run(cfg, *exportPath, *limit); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.Config, exportPath string, limit int) error {
	ctx := context.Background()

	client := bybit.NewClient(bybit.Config{
		APIKey:    cfg.Broker.APIKey,
		APISecret: cfg.Broker.APISecret,
		Testnet:   cfg.Broker.Testnet,
		Demo:      cfg.Broker.Demo,
	})
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("broker connection failed: %w", err)
	}
	defer client.Disconnect()

	store, err := ledger.OpenStore(cfg.Database.Path, cfg.Broker.Account, cfg.Risk.TradingDayResetHour)
	if err != nil {
		return fmt.Errorf("failed to open trade history: %w", err)
	}
	defer store.Close()

	console := reporting.NewConsoleReporter()

	positions, err := client.GetAllPositions(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch positions: %w", err)
	}
	console.PrintPositions(positions)

	riskLedger := ledger.NewRiskLedger(store, client)
	state, err := riskLedger.State(ctx)
	if err != nil {
		return fmt.Errorf("failed to read risk state: %w", err)
	}
	console.PrintRiskState(state, engine.RiskLimits{
		DailyLossLimit:  cfg.Risk.DailyLossLimit,
		DailyTradeLimit: cfg.Risk.DailyTradeLimit,
	})

	if exportPath != "" {
		entries, err := store.History(ctx, limit)
		if err != nil {
			return fmt.Errorf("failed to read history: %w", err)
		}
		if err := reporting.NewExcelReporter().WriteTradeHistory(entries, exportPath); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		fmt.Printf("Exported %d trades to %s\n", len(entries), exportPath)
	}
	return nil
}
