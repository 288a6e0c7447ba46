package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/ducminhle1904/batch-trade-bot/internal/broker"
)

// timeframe names used in config files mapped to Bybit kline intervals
var klineIntervals = map[string]string{
	"1m":  "1",
	"3m":  "3",
	"5m":  "5",
	"15m": "15",
	"30m": "30",
	"1h":  "60",
	"2h":  "120",
	"4h":  "240",
	"6h":  "360",
	"12h": "720",
	"1d":  "D",
	"1w":  "W",
}

// GetTick returns the current best bid/ask quote for a symbol
func (c *Client) GetTick(ctx context.Context, symbol string) (broker.Tick, error) {
	params := map[string]interface{}{
		"category": category,
		"symbol":   symbol,
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetMarketTickers(ctx)
	if err != nil {
		return broker.Tick{}, fmt.Errorf("failed to get ticker: %w", err)
	}

	resultBytes, err := unwrapResult(result)
	if err != nil {
		return broker.Tick{}, err
	}

	var tickerResult struct {
		Category string `json:"category"`
		List     []struct {
			Symbol    string `json:"symbol"`
			Bid1Price string `json:"bid1Price"`
			Ask1Price string `json:"ask1Price"`
			LastPrice string `json:"lastPrice"`
		} `json:"list"`
	}
	if err := json.Unmarshal(resultBytes, &tickerResult); err != nil {
		return broker.Tick{}, fmt.Errorf("failed to unmarshal ticker result: %w", err)
	}
	if len(tickerResult.List) == 0 {
		return broker.Tick{}, fmt.Errorf("no ticker data for %s", symbol)
	}

	t := tickerResult.List[0]
	return broker.Tick{
		Symbol: t.Symbol,
		Bid:    parseFloat64(t.Bid1Price),
		Ask:    parseFloat64(t.Ask1Price),
		Time:   time.Now(),
	}, nil
}

// GetCandles fetches up to count bars for a symbol. Bybit returns
// klines newest first, which matches the most-recent-first contract of
// the broker interface; the bar at index 0 is still forming.
func (c *Client) GetCandles(ctx context.Context, symbol, timeframe string, count int) ([]broker.Candle, error) {
	interval, ok := klineIntervals[timeframe]
	if !ok {
		return nil, fmt.Errorf("unsupported timeframe %q", timeframe)
	}
	if count <= 0 {
		count = 200
	}
	if count > 1000 {
		count = 1000
	}

	params := map[string]interface{}{
		"category": category,
		"symbol":   symbol,
		"interval": interval,
		"limit":    count,
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetMarketKline(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get klines: %w", err)
	}

	resultBytes, err := unwrapResult(result)
	if err != nil {
		return nil, err
	}

	var klineResult struct {
		Symbol   string     `json:"symbol"`
		Category string     `json:"category"`
		List     [][]string `json:"list"`
	}
	if err := json.Unmarshal(resultBytes, &klineResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal kline result: %w", err)
	}

	// Bybit kline format: [startTime, openPrice, highPrice, lowPrice, closePrice, volume, turnover]
	candles := make([]broker.Candle, 0, len(klineResult.List))
	for _, item := range klineResult.List {
		if len(item) < 5 {
			continue // Skip incomplete data
		}
		candles = append(candles, broker.Candle{
			Time:  parseTimestamp(item[0]),
			Open:  parseFloat64(item[1]),
			High:  parseFloat64(item[2]),
			Low:   parseFloat64(item[3]),
			Close: parseFloat64(item[4]),
		})
	}
	return candles, nil
}

// unwrapResult checks the standard Bybit response envelope and returns
// the raw result payload for further decoding
func unwrapResult(response interface{}) ([]byte, error) {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return nil, fmt.Errorf("invalid response type")
	}
	if serverResp.RetCode != 0 {
		return nil, &APIError{Code: serverResp.RetCode, Message: serverResp.RetMsg}
	}
	resultBytes, err := json.Marshal(serverResp.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return resultBytes, nil
}
