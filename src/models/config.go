package models

// MConfig Structure
type MConfig struct {
	Name       string            `yaml:"name"`
	Host       string            `yaml:"host"`
	Port       int               `yaml:"port"`
	LogLevel   string            `yaml:"log_level"`
	GrpcHost   string            `yaml:"grpc_host"`
	GrpcPort   int               `yaml:"grpc_port"`
	Market     MMarketConfig     `yaml:"market"`
	Network    MNetworkConfig    `yaml:"network"`
	DataSource MDataSourceConfig `yaml:"data_source"`
	Gateway    MGatewayConfig    `yaml:"gateway"`
}

// MMarketConfig describes the daily trading session.
// Times are "HH:MM:SS" in Timezone.
type MMarketConfig struct {
	Timezone        string   `yaml:"timezone"`
	OpenTime        string   `yaml:"open_time"`
	CloseTime       string   `yaml:"close_time"`
	CalendarMIC     string   `yaml:"calendar_mic"`
	TradingWeekdays []string `yaml:"trading_weekdays"`
}

type MNetworkConfig struct {
	Enabled           bool     `yaml:"enabled"`
	Proxies           []string `yaml:"proxies"`
	RequestTimeout    int      `yaml:"timeout"`
	MaxRetries        int      `yaml:"retries"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	UserAgent         string   `yaml:"user_agent"`
}

type MDataSourceConfig struct {
	BaseURL              string `yaml:"base_url"`
	TradeIntervalMs      int    `yaml:"trade_interval_ms"`
	ClientTypeIntervalMs int    `yaml:"client_type_interval_ms"`
	TradeTimeoutMs       int    `yaml:"trade_timeout_ms"`
	ClientTypeTimeoutMs  int    `yaml:"client_type_timeout_ms"`
	SnapshotTimeoutMs    int    `yaml:"snapshot_timeout_ms"`
	OrderBookDepth       int    `yaml:"orderbook_depth"`
}

type MGatewayConfig struct {
	SendBufferSize      int `yaml:"send_buffer_size"`
	BroadcastBufferSize int `yaml:"broadcast_buffer_size"`
	WriteWaitMs         int `yaml:"write_wait_ms"`
}
