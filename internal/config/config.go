package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ducminhle1904/batch-trade-bot/internal/engine"
)

// Config represents the complete configuration for the batch trading bot
type Config struct {
	// Broker connection configuration
	Broker BrokerConfig `json:"broker"`

	// Trading behavior configuration
	Trading TradingConfig `json:"trading"`

	// Batch order templates
	Batch BatchConfig `json:"batch"`

	// Risk management configuration
	Risk RiskConfig `json:"risk"`

	// Notification configuration (optional)
	Notifications *NotificationConfig `json:"notifications,omitempty"`

	// HTTP API and metrics server configuration
	Server ServerConfig `json:"server"`

	// Trade history database configuration
	Database DatabaseConfig `json:"database"`

	// Directory for per-symbol log files
	LogDir string `json:"log_dir"`
}

// BrokerConfig holds broker connection settings. Credentials come from
// the environment, never from the config file.
type BrokerConfig struct {
	Name      string `json:"name"`    // Broker name (e.g., bybit)
	Account   string `json:"account"` // Account label used to scope the trade history
	Demo      bool   `json:"demo"`    // Use the broker's demo environment
	Testnet   bool   `json:"testnet"` // Use the broker's testnet
	APIKey    string `json:"-"`
	APISecret string `json:"-"`
}

// TradingConfig holds trading behavior settings
type TradingConfig struct {
	Symbol                string `json:"symbol"`                  // Trading symbol (e.g., BTCUSDT)
	Timeframe             string `json:"timeframe"`               // Candle timeframe for stop resolution (5m, 15m, 1h, ...)
	SizingMode            string `json:"sizing_mode"`             // manual or fixed_risk
	StopLossMode          string `json:"stop_loss_mode"`          // fixed_points or candle_key_level
	SpreadAdjust          string `json:"spread_adjust"`           // none or sell
	SLOffsetPoints        int    `json:"sl_offset_points"`        // Offset beyond the candle key level
	HighOffsetPoints      int    `json:"high_offset_points"`      // Breakout entry offset above the previous high
	LowOffsetPoints       int    `json:"low_offset_points"`       // Breakout entry offset below the previous low
	BreakevenOffsetPoints int    `json:"breakeven_offset_points"` // Offset used by the breakeven-all action
}

// BatchConfig holds the order templates for one batch
type BatchConfig struct {
	Templates []engine.OrderTemplate `json:"templates"`
}

// RiskConfig holds risk management configuration
type RiskConfig struct {
	DailyLossLimit      float64 `json:"daily_loss_limit"`       // Combined realized+unrealized loss that halts trading (0 disables)
	DailyTradeLimit     int     `json:"daily_trade_limit"`      // Trades per trading day before new batches are rejected (0 disables)
	TradingDayResetHour int     `json:"trading_day_reset_hour"` // Hour of day at which a new trading day starts
}

// NotificationConfig holds notification settings
type NotificationConfig struct {
	Enabled       bool   `json:"enabled"`
	TelegramToken string `json:"telegram_token,omitempty"`
	TelegramChat  string `json:"telegram_chat,omitempty"`
}

// ServerConfig holds the HTTP listener addresses
type ServerConfig struct {
	ListenAddr  string `json:"listen_addr"`  // API server address
	MetricsAddr string `json:"metrics_addr"` // Health and metrics address
}

// DatabaseConfig holds the trade history database settings
type DatabaseConfig struct {
	Path string `json:"path"` // SQLite file path
}

// Load reads configuration from file, applies defaults, pulls broker
// credentials from the environment and validates the result
func Load(configFile string) (*Config, error) {
	// If config file doesn't contain path separators, look in configs/ directory
	if !strings.ContainsAny(configFile, "/\\") {
		configFile = filepath.Join("configs", configFile)
	}

	// Add .json extension if not present
	if !strings.HasSuffix(configFile, ".json") {
		configFile += ".json"
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.setDefaults()
	config.loadCredentials()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default values for missing configuration
func (c *Config) setDefaults() {
	if c.Broker.Name == "" {
		c.Broker.Name = "bybit"
	}
	if c.Broker.Account == "" {
		c.Broker.Account = "default"
	}

	if c.Trading.Timeframe == "" {
		c.Trading.Timeframe = "15m"
	}
	if c.Trading.SizingMode == "" {
		c.Trading.SizingMode = "manual"
	}
	if c.Trading.StopLossMode == "" {
		c.Trading.StopLossMode = "fixed_points"
	}
	if c.Trading.SpreadAdjust == "" {
		c.Trading.SpreadAdjust = "sell"
	}
	if c.Trading.HighOffsetPoints == 0 {
		c.Trading.HighOffsetPoints = 10
	}
	if c.Trading.LowOffsetPoints == 0 {
		c.Trading.LowOffsetPoints = 10
	}

	if len(c.Batch.Templates) == 0 {
		c.Batch.Templates = DefaultTemplates()
	}

	if c.Risk.TradingDayResetHour == 0 {
		c.Risk.TradingDayResetHour = 6
	}

	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8080"
	}
	if c.Server.MetricsAddr == "" {
		c.Server.MetricsAddr = ":9090"
	}

	if c.Database.Path == "" {
		c.Database.Path = "data/trade_history.db"
	}
	if c.LogDir == "" {
		c.LogDir = "logs"
	}
}

// loadCredentials pulls broker API credentials from the environment
func (c *Config) loadCredentials() {
	switch strings.ToLower(c.Broker.Name) {
	case "bybit":
		c.Broker.APIKey = os.Getenv("BYBIT_API_KEY")
		c.Broker.APISecret = os.Getenv("BYBIT_API_SECRET")
	}
	if c.Notifications != nil && c.Notifications.Enabled {
		if tok := os.Getenv("TELEGRAM_BOT_TOKEN"); tok != "" {
			c.Notifications.TelegramToken = tok
		}
		if chat := os.Getenv("TELEGRAM_CHAT_ID"); chat != "" {
			c.Notifications.TelegramChat = chat
		}
	}
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Trading.Symbol == "" {
		return fmt.Errorf("trading symbol is required")
	}
	if len(c.Batch.Templates) > engine.MaxTemplates {
		return fmt.Errorf("batch has %d templates, maximum is %d", len(c.Batch.Templates), engine.MaxTemplates)
	}
	if _, err := engine.ParseSizingMode(c.Trading.SizingMode); err != nil {
		return err
	}
	if _, err := engine.ParseStopLossMode(c.Trading.StopLossMode); err != nil {
		return err
	}
	if _, err := engine.ParseSpreadAdjust(c.Trading.SpreadAdjust); err != nil {
		return err
	}
	if c.Risk.DailyLossLimit < 0 {
		return fmt.Errorf("daily loss limit must not be negative")
	}
	if c.Risk.DailyTradeLimit < 0 {
		return fmt.Errorf("daily trade limit must not be negative")
	}
	if c.Risk.TradingDayResetHour < 0 || c.Risk.TradingDayResetHour > 23 {
		return fmt.Errorf("trading day reset hour must be between 0 and 23")
	}
	for i, tpl := range c.Batch.Templates {
		if tpl.Volume < 0 || tpl.FixedRiskAmount < 0 {
			return fmt.Errorf("template %d: volume and fixed risk must not be negative", i+1)
		}
		if tpl.StopLossPoints < 0 || tpl.TakeProfitPoints < 0 {
			return fmt.Errorf("template %d: stop and take profit points must not be negative", i+1)
		}
	}
	return nil
}

// EngineConfig converts the file representation into the immutable
// engine snapshot. Mode strings were already checked by validate, so a
// parse failure here means the config was mutated after Load.
func (c *Config) EngineConfig() (engine.Config, error) {
	sizing, err := engine.ParseSizingMode(c.Trading.SizingMode)
	if err != nil {
		return engine.Config{}, err
	}
	slMode, err := engine.ParseStopLossMode(c.Trading.StopLossMode)
	if err != nil {
		return engine.Config{}, err
	}
	spread, err := engine.ParseSpreadAdjust(c.Trading.SpreadAdjust)
	if err != nil {
		return engine.Config{}, err
	}

	return engine.Config{
		SizingMode:   sizing,
		StopLossMode: slMode,
		SpreadAdjust: spread,
		Timeframe:    c.Trading.Timeframe,
		Limits: engine.RiskLimits{
			DailyLossLimit:  c.Risk.DailyLossLimit,
			DailyTradeLimit: c.Risk.DailyTradeLimit,
		},
		SLOffsetPoints:   c.Trading.SLOffsetPoints,
		HighOffsetPoints: c.Trading.HighOffsetPoints,
		LowOffsetPoints:  c.Trading.LowOffsetPoints,
	}, nil
}

// BatchSpec returns a copy of the configured templates as an engine
// batch spec
func (c *Config) BatchSpec() engine.BatchSpec {
	templates := make([]engine.OrderTemplate, len(c.Batch.Templates))
	copy(templates, c.Batch.Templates)
	return engine.BatchSpec{Templates: templates}
}

// Save writes the configuration back to disk
func (c *Config) Save(configFile string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultTemplates returns the default batch of three small orders
func DefaultTemplates() []engine.OrderTemplate {
	return []engine.OrderTemplate{
		{Volume: 0.01, StopLossPoints: 50, TakeProfitPoints: 100, CandleLookback: 3, Enabled: true},
		{Volume: 0.01, StopLossPoints: 50, TakeProfitPoints: 200, CandleLookback: 3, Enabled: true},
		{Volume: 0.01, StopLossPoints: 50, TakeProfitPoints: 300, CandleLookback: 3, Enabled: true},
	}
}
