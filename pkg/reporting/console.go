package reporting

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/batch-trade-bot/internal/broker"
	"github.com/ducminhle1904/batch-trade-bot/internal/engine"
)

// ConsoleReporter renders batch outcomes and account state as terminal
// tables
type ConsoleReporter struct{}

// NewConsoleReporter creates a new console reporter
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

// PrintBatchResult renders the outcome of one batch execution
func (r *ConsoleReporter) PrintBatchResult(symbol string, side broker.Side, result *engine.BatchResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("BATCH %s %s", symbol, side))
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"✅ Submitted", fmt.Sprintf("%d/%d", result.SubmittedCount(), result.EnabledCount)},
		{"⏭️ Skipped", len(result.Skipped)},
		{"❌ Failed", len(result.Failed)},
	})

	if len(result.SubmittedOrderIDs) > 0 {
		t.AppendSeparator()
		for i, id := range result.SubmittedOrderIDs {
			t.AppendRow(table.Row{fmt.Sprintf("Order %d", i+1), id})
		}
	}
	for _, s := range result.Skipped {
		t.AppendRow(table.Row{fmt.Sprintf("Skip %d", s.Index+1), s.Reason})
	}
	for _, f := range result.Failed {
		t.AppendRow(table.Row{fmt.Sprintf("Fail %d", f.Index+1), f.BrokerError})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 12, WidthMax: 14, Align: text.AlignLeft},
		{Number: 2, WidthMin: 30, WidthMax: 50, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()
}

// PrintPositions renders the open positions table
func (r *ConsoleReporter) PrintPositions(positions []broker.Position) {
	if len(positions) == 0 {
		fmt.Println("No open positions")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("OPEN POSITIONS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Symbol", "Side", "Volume", "Entry", "SL", "TP", "P&L"})

	var total float64
	for _, pos := range positions {
		t.AppendRow(table.Row{
			pos.Symbol,
			pos.Side.String(),
			fmt.Sprintf("%.4f", pos.Volume),
			fmt.Sprintf("%.5f", pos.EntryPrice),
			fmt.Sprintf("%.5f", pos.StopLoss),
			fmt.Sprintf("%.5f", pos.TakeProfit),
			fmt.Sprintf("%+.2f", pos.Profit),
		})
		total += pos.Profit
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "Total", fmt.Sprintf("%+.2f", total)})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})

	t.Render()
	fmt.Println()
}

// PrintRiskState renders today's risk state against the configured limits
func (r *ConsoleReporter) PrintRiskState(state engine.RiskState, limits engine.RiskLimits) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("DAILY RISK STATE")
	t.SetStyle(table.StyleRounded)

	tradeLimit := "disabled"
	if limits.DailyTradeLimit > 0 {
		tradeLimit = fmt.Sprintf("%d", limits.DailyTradeLimit)
	}
	lossLimit := "disabled"
	if limits.DailyLossLimit > 0 {
		lossLimit = fmt.Sprintf("-%.2f", limits.DailyLossLimit)
	}

	t.AppendRows([]table.Row{
		{"🔄 Trades today", fmt.Sprintf("%d (limit %s)", state.TodayTradeCount, tradeLimit)},
		{"💰 Realized P&L", fmt.Sprintf("%+.2f", state.TodayRealizedPnL)},
		{"💰 Unrealized P&L", fmt.Sprintf("%+.2f", state.TodayUnrealizedPnL)},
		{"📉 Total vs limit", fmt.Sprintf("%+.2f (limit %s)", state.TotalPnL(), lossLimit)},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, WidthMax: 18, Align: text.AlignLeft},
		{Number: 2, WidthMin: 25, WidthMax: 40, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()
}

// PrintStartupInfo renders the bot configuration at startup
func (r *ConsoleReporter) PrintStartupInfo(brokerName, symbol, timeframe string, cfg engine.Config, templates int) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("BOT INITIALIZATION")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"📊 Symbol", symbol},
		{"⏰ Timeframe", timeframe},
		{"🏪 Broker", brokerName},
		{"📐 Sizing", cfg.SizingMode.String()},
		{"🛑 Stop mode", cfg.StopLossMode.String()},
		{"📋 Templates", templates},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 15, WidthMax: 15, Align: text.AlignLeft},
		{Number: 2, WidthMin: 30, WidthMax: 35, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()
}
