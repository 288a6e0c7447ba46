package bybit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/ducminhle1904/batch-trade-bot/internal/broker"
)

// Client implements the broker interface on top of Bybit's v5 unified
// trading API. All trading happens in the linear futures category.
type Client struct {
	httpClient  *bybit_api.Client
	instruments *instrumentCache
	testnet     bool
	demo        bool
}

const category = "linear"

// Config holds the connection settings for the Bybit client
type Config struct {
	APIKey    string
	APISecret string
	Testnet   bool
	Demo      bool // Demo trading environment
}

// NewClient creates a new Bybit broker client
func NewClient(config Config) *Client {
	var baseURL string
	if config.Demo {
		// Demo trading environment (paper trading)
		baseURL = "https://api-demo.bybit.com"
	} else if config.Testnet {
		baseURL = bybit_api.TESTNET
	} else {
		baseURL = bybit_api.MAINNET
	}

	httpClient := bybit_api.NewBybitHttpClient(
		config.APIKey,
		config.APISecret,
		bybit_api.WithBaseURL(baseURL),
	)

	c := &Client{
		httpClient: httpClient,
		testnet:    config.Testnet,
		demo:       config.Demo,
	}
	c.instruments = newInstrumentCache(c)
	return c
}

// Name returns the broker identifier including its environment
func (c *Client) Name() string {
	if c.demo {
		return "bybit-demo"
	}
	if c.testnet {
		return "bybit-testnet"
	}
	return "bybit"
}

// Connect verifies API connectivity and credentials by requesting the
// wallet balance once
func (c *Client) Connect(ctx context.Context) error {
	if _, err := c.AccountSummary(ctx); err != nil {
		return fmt.Errorf("bybit connect check failed: %w", err)
	}
	return nil
}

// Disconnect releases the client. The underlying HTTP client is
// stateless, so there is nothing to tear down.
func (c *Client) Disconnect() error {
	return nil
}

var _ broker.Client = (*Client)(nil)

// Helper functions for parsing string numbers

func parseFloat64(s string) float64 {
	if s == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// parseTimestamp converts a milliseconds timestamp to time.Time
func parseTimestamp(ts string) time.Time {
	if ts == "" {
		return time.Time{}
	}
	msec, _ := strconv.ParseInt(ts, 10, 64)
	return time.UnixMilli(msec)
}

// formatVolume renders a volume without scientific notation or
// trailing zeros, as the API requires
func formatVolume(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatPrice renders a price for the API
func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
