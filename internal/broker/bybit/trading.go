package bybit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ducminhle1904/batch-trade-bot/internal/broker"
)

// sideNames maps broker sides to the strings the Bybit API expects
func sideName(s broker.Side) string {
	if s == broker.SideBuy {
		return "Buy"
	}
	return "Sell"
}

// PlaceOrder submits a market order with optional protective levels.
// The take-profit distance is converted into an absolute price against
// the current quote before submission.
func (c *Client) PlaceOrder(ctx context.Context, req broker.OrderRequest) (*broker.PlacedOrder, error) {
	tick, err := c.GetTick(ctx, req.Symbol)
	if err != nil {
		return nil, err
	}
	info, err := c.GetSymbolInfo(ctx, req.Symbol)
	if err != nil {
		return nil, err
	}

	entry := tick.Ask
	if req.Side == broker.SideSell {
		entry = tick.Bid
	}
	tp := takeProfitPrice(entry, req.Side, req.TakeProfitPoints, info.Point)

	apiParams := map[string]interface{}{
		"category":  category,
		"symbol":    req.Symbol,
		"side":      sideName(req.Side),
		"orderType": "Market",
		"qty":       formatVolume(req.Volume),
	}
	if req.StopLoss > 0 {
		apiParams["stopLoss"] = formatPrice(req.StopLoss)
	}
	if tp > 0 {
		apiParams["takeProfit"] = formatPrice(tp)
	}
	if req.Comment != "" {
		apiParams["orderLinkId"] = orderLinkID(req.Comment)
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(apiParams).PlaceOrder(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
	orderID, err := parsePlacedOrderID(result)
	if err != nil {
		return nil, err
	}

	return &broker.PlacedOrder{
		OrderID:    orderID,
		Symbol:     req.Symbol,
		Side:       req.Side,
		Volume:     req.Volume,
		Price:      entry,
		StopLoss:   req.StopLoss,
		TakeProfit: tp,
	}, nil
}

// PlacePendingOrder submits a conditional market order that triggers
// once the price crosses the requested entry
func (c *Client) PlacePendingOrder(ctx context.Context, req broker.PendingOrderRequest) (*broker.PlacedOrder, error) {
	info, err := c.GetSymbolInfo(ctx, req.Symbol)
	if err != nil {
		return nil, err
	}
	tp := takeProfitPrice(req.EntryPrice, req.Side, req.TakeProfitPoints, info.Point)

	// triggerDirection 1 fires when the price rises to the trigger,
	// 2 when it falls. A buy stop sits above the market, a sell stop below.
	triggerDirection := 1
	if req.Side == broker.SideSell {
		triggerDirection = 2
	}

	apiParams := map[string]interface{}{
		"category":         category,
		"symbol":           req.Symbol,
		"side":             sideName(req.Side),
		"orderType":        "Market",
		"qty":              formatVolume(req.Volume),
		"triggerPrice":     formatPrice(req.EntryPrice),
		"triggerDirection": triggerDirection,
	}
	if req.StopLoss > 0 {
		apiParams["stopLoss"] = formatPrice(req.StopLoss)
	}
	if tp > 0 {
		apiParams["takeProfit"] = formatPrice(tp)
	}
	if req.Comment != "" {
		apiParams["orderLinkId"] = orderLinkID(req.Comment)
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(apiParams).PlaceOrder(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to place pending order: %w", err)
	}
	orderID, err := parsePlacedOrderID(result)
	if err != nil {
		return nil, err
	}

	return &broker.PlacedOrder{
		OrderID:    orderID,
		Symbol:     req.Symbol,
		Side:       req.Side,
		Volume:     req.Volume,
		Price:      req.EntryPrice,
		StopLoss:   req.StopLoss,
		TakeProfit: tp,
	}, nil
}

// ClosePosition market-closes a position with a reduce-only order
func (c *Client) ClosePosition(ctx context.Context, pos broker.Position) error {
	apiParams := map[string]interface{}{
		"category":   category,
		"symbol":     pos.Symbol,
		"side":       sideName(pos.Side.Opposite()),
		"orderType":  "Market",
		"qty":        formatVolume(pos.Volume),
		"reduceOnly": true,
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(apiParams).PlaceOrder(ctx)
	if err != nil {
		return fmt.Errorf("failed to close position %s: %w", pos.ID, err)
	}
	if _, err := unwrapResult(result); err != nil {
		return fmt.Errorf("failed to close position %s: %w", pos.ID, err)
	}
	return nil
}

// ModifyPositionStop moves the stop loss of an open position
func (c *Client) ModifyPositionStop(ctx context.Context, pos broker.Position, stopLoss float64) error {
	apiParams := map[string]interface{}{
		"category":    category,
		"symbol":      pos.Symbol,
		"positionIdx": 0, // one-way mode
		"stopLoss":    formatPrice(stopLoss),
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(apiParams).SetPositionTradingStop(ctx)
	if err != nil {
		return fmt.Errorf("failed to set trading stop: %w", err)
	}
	if _, err := unwrapResult(result); err != nil {
		return fmt.Errorf("failed to set trading stop: %w", err)
	}
	return nil
}

// CancelAllPendingOrders cancels every open order on a symbol
func (c *Client) CancelAllPendingOrders(ctx context.Context, symbol string) error {
	apiParams := map[string]interface{}{
		"category": category,
		"symbol":   symbol,
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(apiParams).CancelAllOrders(ctx)
	if err != nil {
		return fmt.Errorf("failed to cancel all orders: %w", err)
	}
	if _, err := unwrapResult(result); err != nil {
		return fmt.Errorf("failed to cancel all orders: %w", err)
	}
	return nil
}

// takeProfitPrice converts a take-profit distance in points into an
// absolute price. A zero distance disables the take profit.
func takeProfitPrice(entry float64, side broker.Side, points int, point float64) float64 {
	if points <= 0 || point <= 0 {
		return 0
	}
	dist := float64(points) * point
	if side == broker.SideBuy {
		return entry + dist
	}
	return entry - dist
}

// parsePlacedOrderID extracts the order ID from a place-order response
func parsePlacedOrderID(response interface{}) (string, error) {
	resultBytes, err := unwrapResult(response)
	if err != nil {
		return "", err
	}

	var orderResult struct {
		OrderID     string `json:"orderId"`
		OrderLinkID string `json:"orderLinkId"`
	}
	if err := json.Unmarshal(resultBytes, &orderResult); err != nil {
		return "", fmt.Errorf("failed to unmarshal order result: %w", err)
	}
	if orderResult.OrderID == "" {
		return "", fmt.Errorf("order response contained no order ID")
	}
	return orderResult.OrderID, nil
}
