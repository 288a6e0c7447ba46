package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/batch-trade-bot/internal/engine"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bot.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

// TestLoadDefaults checks a minimal config gets the full default set
func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `{"trading": {"symbol": "BTCUSDT"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "bybit", cfg.Broker.Name)
	assert.Equal(t, "default", cfg.Broker.Account)
	assert.Equal(t, "15m", cfg.Trading.Timeframe)
	assert.Equal(t, "manual", cfg.Trading.SizingMode)
	assert.Equal(t, "fixed_points", cfg.Trading.StopLossMode)
	assert.Equal(t, "sell", cfg.Trading.SpreadAdjust)
	assert.Equal(t, 6, cfg.Risk.TradingDayResetHour)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, "data/trade_history.db", cfg.Database.Path)
	assert.Len(t, cfg.Batch.Templates, 3, "default batch has three templates")
}

// TestLoadFullConfig checks explicit values survive the load
func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `{
		"broker": {"name": "bybit", "account": "live-1", "demo": true},
		"trading": {
			"symbol": "ETHUSDT",
			"timeframe": "1h",
			"sizing_mode": "fixed_risk",
			"stop_loss_mode": "candle_key_level",
			"sl_offset_points": 25
		},
		"batch": {"templates": [
			{"volume": 0.05, "sl_points": 80, "tp_points": 160, "sl_candle": 5, "fixed_risk": 20, "enabled": true},
			{"volume": 0.05, "sl_points": 80, "tp_points": 320, "enabled": false}
		]},
		"risk": {"daily_loss_limit": 500, "daily_trade_limit": 10, "trading_day_reset_hour": 8}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "live-1", cfg.Broker.Account)
	assert.True(t, cfg.Broker.Demo)
	assert.Equal(t, "1h", cfg.Trading.Timeframe)
	assert.Equal(t, 8, cfg.Risk.TradingDayResetHour)
	require.Len(t, cfg.Batch.Templates, 2)
	assert.Equal(t, 5, cfg.Batch.Templates[0].CandleLookback)
	assert.False(t, cfg.Batch.Templates[1].Enabled)
}

// TestLoadValidationFailures checks the rejection paths
func TestLoadValidationFailures(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing symbol", `{}`},
		{"bad sizing mode", `{"trading": {"symbol": "BTCUSDT", "sizing_mode": "martingale"}}`},
		{"bad stop mode", `{"trading": {"symbol": "BTCUSDT", "stop_loss_mode": "vibes"}}`},
		{"negative loss limit", `{"trading": {"symbol": "BTCUSDT"}, "risk": {"daily_loss_limit": -1}}`},
		{"bad reset hour", `{"trading": {"symbol": "BTCUSDT"}, "risk": {"trading_day_reset_hour": 24}}`},
		{"negative template volume", `{"trading": {"symbol": "BTCUSDT"},
			"batch": {"templates": [{"volume": -0.01, "enabled": true}]}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.body)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

// TestLoadTooManyTemplates checks the template cap applies at load time
func TestLoadTooManyTemplates(t *testing.T) {
	body := `{"trading": {"symbol": "BTCUSDT"}, "batch": {"templates": [`
	for i := 0; i <= engine.MaxTemplates; i++ {
		if i > 0 {
			body += ","
		}
		body += `{"volume": 0.01, "enabled": true}`
	}
	body += `]}}`

	_, err := Load(writeConfig(t, body))
	assert.Error(t, err)
}

// TestEngineConfig checks the string modes convert into the engine enums
func TestEngineConfig(t *testing.T) {
	path := writeConfig(t, `{
		"trading": {
			"symbol": "BTCUSDT",
			"sizing_mode": "fixed_risk",
			"stop_loss_mode": "candle_key_level",
			"spread_adjust": "none",
			"sl_offset_points": 15
		},
		"risk": {"daily_loss_limit": 250, "daily_trade_limit": 5}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	ec, err := cfg.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, engine.SizingFixedRisk, ec.SizingMode)
	assert.Equal(t, engine.StopCandleKeyLevel, ec.StopLossMode)
	assert.Equal(t, engine.SpreadAdjustNone, ec.SpreadAdjust)
	assert.Equal(t, 15, ec.SLOffsetPoints)
	assert.InDelta(t, 250, ec.Limits.DailyLossLimit, 1e-9)
	assert.Equal(t, 5, ec.Limits.DailyTradeLimit)
}

// TestBatchSpecIsACopy checks mutating the returned spec does not touch
// the loaded config
func TestBatchSpecIsACopy(t *testing.T) {
	path := writeConfig(t, `{"trading": {"symbol": "BTCUSDT"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)

	spec := cfg.BatchSpec()
	spec.Templates[0].Volume = 99

	assert.InDelta(t, 0.01, cfg.Batch.Templates[0].Volume, 1e-9)
}
