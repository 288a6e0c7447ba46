package broker

import "context"

// Client defines the broker operations the trading engine depends on.
// Implementations wrap a concrete broker API; the engine never talks to
// an exchange SDK directly.
type Client interface {
	// Broker identification
	Name() string

	// Market data operations
	GetTick(ctx context.Context, symbol string) (Tick, error)
	GetSymbolInfo(ctx context.Context, symbol string) (SymbolInfo, error)
	// GetCandles returns up to count bars ordered most-recent-first.
	// The bar at index 0 is the currently forming one.
	GetCandles(ctx context.Context, symbol, timeframe string, count int) ([]Candle, error)

	// Position queries
	GetPositions(ctx context.Context, symbol string, side Side) ([]Position, error)
	GetAllPositions(ctx context.Context) ([]Position, error)

	// Trading operations
	PlaceOrder(ctx context.Context, req OrderRequest) (*PlacedOrder, error)
	PlacePendingOrder(ctx context.Context, req PendingOrderRequest) (*PlacedOrder, error)
	ClosePosition(ctx context.Context, pos Position) error
	ModifyPositionStop(ctx context.Context, pos Position, stopLoss float64) error
	CancelAllPendingOrders(ctx context.Context, symbol string) error

	// Account management
	AccountSummary(ctx context.Context) (AccountSummary, error)

	// Connection management
	Connect(ctx context.Context) error
	Disconnect() error
}
