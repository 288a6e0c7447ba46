package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ducminhle1904/batch-trade-bot/internal/broker"
)

// instrumentCache caches symbol metadata. Instrument filters change
// rarely, so entries are refreshed at most once per hour.
type instrumentCache struct {
	client     *Client
	mu         sync.RWMutex
	entries    map[string]cachedInfo
	refreshTTL time.Duration
}

type cachedInfo struct {
	info      broker.SymbolInfo
	fetchedAt time.Time
}

func newInstrumentCache(client *Client) *instrumentCache {
	return &instrumentCache{
		client:     client,
		entries:    make(map[string]cachedInfo),
		refreshTTL: time.Hour,
	}
}

// GetSymbolInfo returns the price precision and volume constraints for
// a symbol, served from cache when fresh
func (c *Client) GetSymbolInfo(ctx context.Context, symbol string) (broker.SymbolInfo, error) {
	c.instruments.mu.RLock()
	if cached, ok := c.instruments.entries[symbol]; ok && time.Since(cached.fetchedAt) < c.instruments.refreshTTL {
		c.instruments.mu.RUnlock()
		return cached.info, nil
	}
	c.instruments.mu.RUnlock()

	info, err := c.fetchSymbolInfo(ctx, symbol)
	if err != nil {
		return broker.SymbolInfo{}, err
	}

	c.instruments.mu.Lock()
	c.instruments.entries[symbol] = cachedInfo{info: info, fetchedAt: time.Now()}
	c.instruments.mu.Unlock()

	return info, nil
}

func (c *Client) fetchSymbolInfo(ctx context.Context, symbol string) (broker.SymbolInfo, error) {
	params := map[string]interface{}{
		"category": category,
		"symbol":   symbol,
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetInstrumentInfo(ctx)
	if err != nil {
		return broker.SymbolInfo{}, fmt.Errorf("failed to fetch instrument info: %w", err)
	}

	resultBytes, err := unwrapResult(result)
	if err != nil {
		return broker.SymbolInfo{}, err
	}

	var instrumentResult struct {
		Category string `json:"category"`
		List     []struct {
			Symbol      string `json:"symbol"`
			Status      string `json:"status"`
			PriceFilter struct {
				MinPrice string `json:"minPrice"`
				MaxPrice string `json:"maxPrice"`
				TickSize string `json:"tickSize"`
			} `json:"priceFilter"`
			LotSizeFilter struct {
				MaxOrderQty string `json:"maxOrderQty"`
				MinOrderQty string `json:"minOrderQty"`
				QtyStep     string `json:"qtyStep"`
			} `json:"lotSizeFilter"`
		} `json:"list"`
	}
	if err := json.Unmarshal(resultBytes, &instrumentResult); err != nil {
		return broker.SymbolInfo{}, fmt.Errorf("failed to unmarshal instrument result: %w", err)
	}

	for _, item := range instrumentResult.List {
		if item.Symbol != symbol {
			continue
		}
		if item.Status != "" && item.Status != "Trading" {
			return broker.SymbolInfo{}, fmt.Errorf("symbol %s is not tradable (status %s)", symbol, item.Status)
		}
		return broker.SymbolInfo{
			Symbol: item.Symbol,
			Point:  parseFloat64(item.PriceFilter.TickSize),
			// Linear contracts are quoted per unit of the base coin
			ContractSize: 1,
			MinVolume:    parseFloat64(item.LotSizeFilter.MinOrderQty),
			MaxVolume:    parseFloat64(item.LotSizeFilter.MaxOrderQty),
			VolumeStep:   parseFloat64(item.LotSizeFilter.QtyStep),
		}, nil
	}
	return broker.SymbolInfo{}, fmt.Errorf("instrument %s not found", symbol)
}
