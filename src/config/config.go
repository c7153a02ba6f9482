package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"tsetmc-pusher/src/helpers"
	"tsetmc-pusher/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ClockLayout is the layout of market open/close times in the config file.
const ClockLayout = "15:04:05"

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// DefaultConfig returns the configuration used when a key is omitted.
func DefaultConfig() *models.MConfig {
	return &models.MConfig{
		Name:     "tsetmc-pusher",
		Host:     "localhost",
		Port:     8765,
		LogLevel: "INFO",
		GrpcHost: "localhost",
		GrpcPort: 0,
		Market: models.MMarketConfig{
			Timezone:        "Asia/Tehran",
			OpenTime:        "08:30:00",
			CloseTime:       "15:00:00",
			TradingWeekdays: []string{"Saturday", "Sunday", "Monday", "Tuesday", "Wednesday"},
		},
		Network: models.MNetworkConfig{
			RequestTimeout:    5,
			MaxRetries:        0,
			RequestsPerSecond: 10,
		},
		DataSource: models.MDataSourceConfig{
			BaseURL:              "https://cdn.tsetmc.com",
			TradeIntervalMs:      1000,
			ClientTypeIntervalMs: 1000,
			TradeTimeoutMs:       500,
			ClientTypeTimeoutMs:  2000,
			SnapshotTimeoutMs:    10000,
			OrderBookDepth:       5,
		},
		Gateway: models.MGatewayConfig{
			SendBufferSize:      256,
			BroadcastBufferSize: 1024,
			WriteWaitMs:         2000,
		},
	}
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config from a YAML file layered over the defaults,
// then applies environment overrides (a .env file is honoured when present).
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal over defaults
	modelConfig := DefaultConfig()
	if err := yaml.Unmarshal(data, modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: modelConfig}

	// 3. Environment overrides
	_ = godotenv.Load() // .env is optional
	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}

	// 4. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// ApplyEnv overrides listen address, gRPC port and log level from the environment.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv("WEBSOCKET_HOST"); ok && v != "" {
		c.Host = v
	}
	if v, ok := os.LookupEnv("WEBSOCKET_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return helpers.NewConfigurationError("WEBSOCKET_PORT %q is not a number", v)
		}
		c.Port = port
	}
	if v, ok := os.LookupEnv("GRPC_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return helpers.NewConfigurationError("GRPC_PORT %q is not a number", v)
		}
		c.GrpcPort = port
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	return nil
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return helpers.NewConfigurationError("application name cannot be empty")
	}

	// Server
	if c.Host == "" {
		return helpers.NewConfigurationError("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return helpers.NewConfigurationError("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort != 0 && (c.GrpcPort <= 1024 || c.GrpcPort > 65535 || c.GrpcPort == c.Port) {
		return helpers.NewConfigurationError("invalid grpc port number: %d", c.GrpcPort)
	}

	// Market session
	if _, err := time.LoadLocation(c.Market.Timezone); err != nil {
		return helpers.NewConfigurationError("unknown market timezone %q", c.Market.Timezone)
	}
	open, err := time.Parse(ClockLayout, c.Market.OpenTime)
	if err != nil {
		return helpers.NewConfigurationError("invalid market open time %q", c.Market.OpenTime)
	}
	closing, err := time.Parse(ClockLayout, c.Market.CloseTime)
	if err != nil {
		return helpers.NewConfigurationError("invalid market close time %q", c.Market.CloseTime)
	}
	if !closing.After(open) {
		return helpers.NewConfigurationError("market close %s must be after open %s", c.Market.CloseTime, c.Market.OpenTime)
	}
	if len(c.Market.TradingWeekdays) == 0 && c.Market.CalendarMIC == "" {
		return helpers.NewConfigurationError("either trading weekdays or a calendar MIC must be configured")
	}
	for _, day := range c.Market.TradingWeekdays {
		if _, ok := ParseWeekday(day); !ok {
			return helpers.NewConfigurationError("unknown trading weekday %q", day)
		}
	}

	// Network
	if c.Network.RequestTimeout <= 0 {
		return helpers.NewConfigurationError("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return helpers.NewConfigurationError("max retries cannot be negative")
	}
	if c.Network.RequestsPerSecond <= 0 {
		return helpers.NewConfigurationError("requests per second must be greater than 0")
	}

	// DataSource
	if c.DataSource.BaseURL == "" {
		return helpers.NewConfigurationError("data source base url cannot be empty")
	}
	if c.DataSource.TradeIntervalMs <= 0 || c.DataSource.ClientTypeIntervalMs <= 0 {
		return helpers.NewConfigurationError("poll intervals must be greater than 0")
	}
	if c.DataSource.TradeTimeoutMs <= 0 || c.DataSource.ClientTypeTimeoutMs <= 0 || c.DataSource.SnapshotTimeoutMs <= 0 {
		return helpers.NewConfigurationError("fetch timeouts must be greater than 0")
	}
	if c.DataSource.OrderBookDepth <= 0 {
		return helpers.NewConfigurationError("orderbook depth must be greater than 0")
	}

	// Gateway
	if c.Gateway.SendBufferSize <= 0 || c.Gateway.BroadcastBufferSize <= 0 {
		return helpers.NewConfigurationError("gateway buffer sizes must be greater than 0")
	}
	if c.Gateway.WriteWaitMs <= 0 {
		return helpers.NewConfigurationError("gateway write wait must be greater than 0")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}

// -----------------------------------------------------------------------------

// ParseWeekday maps an English weekday name to time.Weekday.
func ParseWeekday(name string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if d.String() == name {
			return d, true
		}
	}
	return time.Sunday, false
}
