package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ducminhle1904/batch-trade-bot/internal/broker"
	"github.com/ducminhle1904/batch-trade-bot/internal/engine"
)

// Store persists trade history and risk events in SQLite. Daily
// aggregates (trade count, realized P&L) are derived from the
// trade_history rows rather than kept as separate counters.
type Store struct {
	db        *sql.DB
	account   string
	resetHour int
}

// OpenStore opens (and if necessary initializes) the trade history
// database at path. account scopes queries so several broker accounts
// can share one file; resetHour is the hour of day at which a new
// trading day starts.
func OpenStore(path, account string, resetHour int) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open trade history db: %w", err)
	}

	s := &Store{db: db, account: account, resetHour: resetHour}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables() error {
	const schema = `
CREATE TABLE IF NOT EXISTS trade_history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	order_id    TEXT NOT NULL,
	account     TEXT NOT NULL,
	symbol      TEXT NOT NULL,
	side        TEXT NOT NULL,
	volume      REAL NOT NULL,
	price       REAL NOT NULL,
	stop_loss   REAL NOT NULL DEFAULT 0,
	take_profit REAL NOT NULL DEFAULT 0,
	profit      REAL NOT NULL DEFAULT 0,
	comment     TEXT,
	trading_day TEXT NOT NULL,
	placed_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trade_history_day ON trade_history (trading_day, account);

CREATE TABLE IF NOT EXISTS risk_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	account     TEXT NOT NULL,
	trading_day TEXT NOT NULL,
	event_type  TEXT NOT NULL,
	details     TEXT,
	created_at  TEXT NOT NULL
);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// TradingDay returns the trading day the given time belongs to. Hours
// before the reset hour count toward the previous calendar day, so an
// overnight session is not split in two.
func (s *Store) TradingDay(now time.Time) string {
	if now.Hour() < s.resetHour {
		now = now.AddDate(0, 0, -1)
	}
	return now.Format("2006-01-02")
}

// RecordTrade appends a submitted order to the trade history
func (s *Store) RecordTrade(ctx context.Context, rec engine.TradeRecord) error {
	placedAt := rec.PlacedAt
	if placedAt.IsZero() {
		placedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trade_history
			(order_id, account, symbol, side, volume, price, stop_loss, take_profit, comment, trading_day, placed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.OrderID, s.account, rec.Symbol, rec.Side.String(), rec.Volume, rec.Price,
		rec.StopLoss, rec.TakeProfit, rec.Comment, s.TradingDay(placedAt),
		placedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record trade: %w", err)
	}
	return nil
}

// SettleTrade stores the realized profit of a closed trade
func (s *Store) SettleTrade(ctx context.Context, orderID string, profit float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE trade_history SET profit = ? WHERE order_id = ? AND account = ?`,
		profit, orderID, s.account)
	if err != nil {
		return fmt.Errorf("settle trade %s: %w", orderID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("settle trade %s: order not found", orderID)
	}
	return nil
}

// RecordRiskEvent appends a risk-control event
func (s *Store) RecordRiskEvent(ctx context.Context, kind, details string) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO risk_events (account, trading_day, event_type, details, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		s.account, s.TradingDay(now), kind, details, now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record risk event: %w", err)
	}
	return nil
}

// TodayTradeCount returns the number of trades recorded for the current
// trading day
func (s *Store) TodayTradeCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trade_history WHERE trading_day = ? AND account = ?`,
		s.TradingDay(time.Now()), s.account).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("today trade count: %w", err)
	}
	return count, nil
}

// TodayRealizedPnL returns the summed realized profit of the current
// trading day
func (s *Store) TodayRealizedPnL(ctx context.Context) (float64, error) {
	var pnl sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT SUM(profit) FROM trade_history WHERE trading_day = ? AND account = ?`,
		s.TradingDay(time.Now()), s.account).Scan(&pnl)
	if err != nil {
		return 0, fmt.Errorf("today realized pnl: %w", err)
	}
	return pnl.Float64, nil
}

// HistoryEntry is one persisted trade row
type HistoryEntry struct {
	OrderID    string
	Symbol     string
	Side       string
	Volume     float64
	Price      float64
	StopLoss   float64
	TakeProfit float64
	Profit     float64
	Comment    string
	TradingDay string
	PlacedAt   time.Time
}

// History returns the most recent trades, newest first
func (s *Store) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, symbol, side, volume, price, stop_loss, take_profit, profit, comment, trading_day, placed_at
		FROM trade_history WHERE account = ?
		ORDER BY id DESC LIMIT ?`, s.account, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var placedAt string
		if err := rows.Scan(&e.OrderID, &e.Symbol, &e.Side, &e.Volume, &e.Price,
			&e.StopLoss, &e.TakeProfit, &e.Profit, &e.Comment, &e.TradingDay, &placedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		e.PlacedAt, _ = time.Parse(time.RFC3339, placedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// PositionSource supplies the open positions used for the unrealized
// P&L component of the risk state
type PositionSource interface {
	GetAllPositions(ctx context.Context) ([]broker.Position, error)
}
