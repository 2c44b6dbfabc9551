package config

import "time"

// ServerConfig is the runtime configuration of the explorer API.
type ServerConfig struct {
	// http configs
	Port int    `mapstructure:"port" toml:"port"`
	Host string `mapstructure:"host" toml:"host"`

	// CORS configs
	AllowedOrigins []string `mapstructure:"allowed_origins" toml:"allowed_origins"`

	// rate limiting configs
	RatePerMinute         int `mapstructure:"rate_per_minute" toml:"rate_per_minute"`
	MaxConcurrentRequests int `mapstructure:"max_concurrent_requests" toml:"max_concurrent_requests"`

	// OpenTelemetry configs
	ServiceName    string `mapstructure:"service_name" toml:"service_name"`
	ServiceVersion string `mapstructure:"service_version" toml:"service_version"`
	Environment    string `mapstructure:"environment" toml:"environment"` // PROD, DEV, TEST, LOCAL
	EnableTracing  bool   `mapstructure:"enable_tracing" toml:"enable_tracing"`
	UseOTLPTraces  bool   `mapstructure:"use_otlp_traces" toml:"use_otlp_traces"`
	OTLPTracesURL  string `mapstructure:"otlp_traces_url" toml:"otlp_traces_url"`
	EnableMetrics  bool   `mapstructure:"enable_metrics" toml:"enable_metrics"`
	UsePrometheus  bool   `mapstructure:"use_prometheus" toml:"use_prometheus"`
	UseOTLPMetrics bool   `mapstructure:"use_otlp_metrics" toml:"use_otlp_metrics"`
	OTLPMetricsURL string `mapstructure:"otlp_metrics_url" toml:"otlp_metrics_url"`
	EnableLogs     bool   `mapstructure:"enable_logs" toml:"enable_logs"`
	UseOTLPLogs    bool   `mapstructure:"use_otlp_logs" toml:"use_otlp_logs"`
	OTLPLogsURL    string `mapstructure:"otlp_logs_url" toml:"otlp_logs_url"`

	InsecureOTLP bool `mapstructure:"insecure_otlp" toml:"insecure_otlp"`

	// Development mode uses stdout exporters
	DevelopmentMode bool `mapstructure:"development_mode" toml:"development_mode"`

	// Chain LCD endpoints, the first one is the primary
	LCDURLs              []string      `mapstructure:"lcd_urls" toml:"lcd_urls"`
	LCDTimeout           time.Duration `mapstructure:"lcd_timeout" toml:"lcd_timeout"`
	LCDMaxRetries        int           `mapstructure:"lcd_max_retries" toml:"lcd_max_retries"`
	LCDRequestsPerSecond float64       `mapstructure:"lcd_requests_per_second" toml:"lcd_requests_per_second"`

	// EVM JSON-RPC endpoints, tried in order
	EVMRPCURLs []string `mapstructure:"evm_rpc_urls" toml:"evm_rpc_urls"`

	// 0 disables the validator snapshot cache
	ValidatorCacheTTL time.Duration `mapstructure:"validator_cache_ttl" toml:"validator_cache_ttl"`

	// Optional chain profile file (toml or json), the kii profile is used when empty
	ChainConfig string `mapstructure:"chain_config" toml:"chain_config"`
}

// ChainProfile describes the served chain.
type ChainProfile struct {
	ChainID      string `json:"chain_id" toml:"chain_id" validate:"required"`
	ChainName    string `json:"chain_name" toml:"chain_name"`
	EVMChainID   int64  `json:"evm_chain_id" toml:"evm_chain_id" validate:"gte=0"`
	Bech32Prefix string `json:"bech32_prefix" toml:"bech32_prefix" validate:"required,lowercase"`
	BaseDenom    string `json:"base_denom" toml:"base_denom" validate:"required"`
	DisplayDenom string `json:"display_denom" toml:"display_denom" validate:"required"`
	Decimals     int32  `json:"decimals" toml:"decimals" validate:"gte=0,lte=18"`
	CoinType     int    `json:"coin_type" toml:"coin_type" validate:"gte=0"`

	// public endpoints announced to wallets
	RPC  string `json:"rpc" toml:"rpc" validate:"omitempty,url"`
	Rest string `json:"rest" toml:"rest" validate:"omitempty,url"`

	ImageURL            string   `json:"image_url" toml:"image_url"`
	CoinGeckoID         string   `json:"coingecko_id" toml:"coingecko_id"`
	WalletURLForStaking string   `json:"wallet_url_for_staking" toml:"wallet_url_for_staking"`
	GasPrice            GasPrice `json:"gas_price" toml:"gas_price"`

	// LCD route template mapping an EVM address to its account
	AssociationPath string `json:"association_path" toml:"association_path" validate:"required,startswith=/,contains={address}"`
}

type GasPrice struct {
	Low     float64 `json:"low" toml:"low"`
	Average float64 `json:"average" toml:"average"`
	High    float64 `json:"high" toml:"high"`
}

// EVMEnabled reports whether the chain exposes an EVM.
func (p ChainProfile) EVMEnabled() bool {
	return p.EVMChainID > 0
}
