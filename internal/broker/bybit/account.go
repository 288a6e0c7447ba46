package bybit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ducminhle1904/batch-trade-bot/internal/broker"
)

// GetPositions returns the open positions on one symbol and side
func (c *Client) GetPositions(ctx context.Context, symbol string, side broker.Side) ([]broker.Position, error) {
	positions, err := c.fetchPositions(ctx, map[string]interface{}{
		"category": category,
		"symbol":   symbol,
	})
	if err != nil {
		return nil, err
	}

	filtered := positions[:0]
	for _, pos := range positions {
		if pos.Side == side {
			filtered = append(filtered, pos)
		}
	}
	return filtered, nil
}

// GetAllPositions returns every open USDT-settled position
func (c *Client) GetAllPositions(ctx context.Context) ([]broker.Position, error) {
	return c.fetchPositions(ctx, map[string]interface{}{
		"category":   category,
		"settleCoin": "USDT",
	})
}

func (c *Client) fetchPositions(ctx context.Context, params map[string]interface{}) ([]broker.Position, error) {
	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetPositionList(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}

	resultBytes, err := unwrapResult(result)
	if err != nil {
		return nil, err
	}

	var positionResult struct {
		List []struct {
			Symbol        string `json:"symbol"`
			Side          string `json:"side"`
			Size          string `json:"size"`
			EntryPrice    string `json:"avgPrice"`
			UnrealisedPnl string `json:"unrealisedPnl"`
			TakeProfit    string `json:"takeProfit"`
			StopLoss      string `json:"stopLoss"`
			PositionIdx   int    `json:"positionIdx"`
		} `json:"list"`
		NextPageCursor string `json:"nextPageCursor"`
		Category       string `json:"category"`
	}
	if err := json.Unmarshal(resultBytes, &positionResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal position result: %w", err)
	}

	var positions []broker.Position
	for _, posData := range positionResult.List {
		size := parseFloat64(posData.Size)
		if size == 0 || posData.Side == "" {
			continue // empty one-way slot
		}
		side, err := broker.ParseSide(posData.Side)
		if err != nil {
			continue
		}
		positions = append(positions, broker.Position{
			ID:         fmt.Sprintf("%s-%d", posData.Symbol, posData.PositionIdx),
			Symbol:     posData.Symbol,
			Side:       side,
			Volume:     size,
			EntryPrice: parseFloat64(posData.EntryPrice),
			StopLoss:   parseFloat64(posData.StopLoss),
			TakeProfit: parseFloat64(posData.TakeProfit),
			Profit:     parseFloat64(posData.UnrealisedPnl),
		})
	}
	return positions, nil
}

// AccountSummary returns the unified account balance and equity
func (c *Client) AccountSummary(ctx context.Context) (broker.AccountSummary, error) {
	params := map[string]interface{}{
		"accountType": "UNIFIED",
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetAccountWallet(ctx)
	if err != nil {
		return broker.AccountSummary{}, fmt.Errorf("failed to get wallet balance: %w", err)
	}

	resultBytes, err := unwrapResult(result)
	if err != nil {
		return broker.AccountSummary{}, err
	}

	var walletResult struct {
		List []struct {
			TotalEquity        string `json:"totalEquity"`
			TotalWalletBalance string `json:"totalWalletBalance"`
		} `json:"list"`
	}
	if err := json.Unmarshal(resultBytes, &walletResult); err != nil {
		return broker.AccountSummary{}, fmt.Errorf("failed to unmarshal wallet result: %w", err)
	}
	if len(walletResult.List) == 0 {
		return broker.AccountSummary{}, fmt.Errorf("no wallet data found")
	}

	w := walletResult.List[0]
	return broker.AccountSummary{
		Currency: "USDT",
		Balance:  parseFloat64(w.TotalWalletBalance),
		Equity:   parseFloat64(w.TotalEquity),
	}, nil
}
