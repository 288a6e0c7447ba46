package ledger

import (
	"context"

	"github.com/ducminhle1904/batch-trade-bot/internal/engine"
)

// RiskLedger combines the persisted trade history with the broker's
// live positions so the risk gate sees realized and unrealized P&L
// together.
type RiskLedger struct {
	store     *Store
	positions PositionSource
}

// NewRiskLedger creates the ledger the batch coordinator reads its
// risk state from
func NewRiskLedger(store *Store, positions PositionSource) *RiskLedger {
	return &RiskLedger{store: store, positions: positions}
}

// State returns today's trade count, realized P&L from the trade
// history and unrealized P&L summed over open positions
func (l *RiskLedger) State(ctx context.Context) (engine.RiskState, error) {
	count, err := l.store.TodayTradeCount(ctx)
	if err != nil {
		return engine.RiskState{}, err
	}
	realized, err := l.store.TodayRealizedPnL(ctx)
	if err != nil {
		return engine.RiskState{}, err
	}

	var unrealized float64
	if l.positions != nil {
		open, err := l.positions.GetAllPositions(ctx)
		if err != nil {
			return engine.RiskState{}, err
		}
		for _, pos := range open {
			unrealized += pos.Profit
		}
	}

	return engine.RiskState{
		TodayTradeCount:    count,
		TodayRealizedPnL:   realized,
		TodayUnrealizedPnL: unrealized,
	}, nil
}

// RecordTrade persists one submitted order
func (l *RiskLedger) RecordTrade(ctx context.Context, rec engine.TradeRecord) error {
	return l.store.RecordTrade(ctx, rec)
}

// RecordRiskEvent persists one risk-control event
func (l *RiskLedger) RecordRiskEvent(ctx context.Context, kind, details string) error {
	return l.store.RecordRiskEvent(ctx, kind, details)
}
