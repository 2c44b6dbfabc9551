package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadServerConfig loads the server config from the given toml file, or from
// EXPLORER_* environment variables when configPath is nil.
func LoadServerConfig(configPath *string) (*ServerConfig, error) {
	v := viper.New()
	setDefaults(v)

	if configPath == nil {
		// if no file expect envs
		config, err := loadEnv(v)
		if err != nil {
			return nil, fmt.Errorf("failed to load env config: %w", err)
		}
		return config, nil
	}
	config, err := loadFile(v, *configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load file config: %w", err)
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("rate_per_minute", 300)
	v.SetDefault("max_concurrent_requests", 100)
	v.SetDefault("service_name", "spectra-explorer")
	v.SetDefault("environment", "LOCAL")
	v.SetDefault("lcd_timeout", 10*time.Second)
	v.SetDefault("lcd_max_retries", 2)
	v.SetDefault("validator_cache_ttl", 30*time.Second)
}

func loadEnv(v *viper.Viper) (*ServerConfig, error) {
	// .env is optional, envs may come from docker or systemd
	_ = godotenv.Load()
	v.SetEnvPrefix("EXPLORER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	var config ServerConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal env config: %w", err)
	}
	if err := verifyConfig(&config); err != nil {
		return nil, fmt.Errorf("failed to verify config: %w", err)
	}
	return &config, nil
}

// bindEnvKeys binds each config key to its env var so Unmarshal sees env values
// when no config file is loaded.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"port", "host", "allowed_origins",
		"rate_per_minute", "max_concurrent_requests",
		"service_name", "service_version", "environment",
		"enable_tracing", "use_otlp_traces", "otlp_traces_url",
		"enable_metrics", "use_prometheus", "use_otlp_metrics", "otlp_metrics_url",
		"enable_logs", "use_otlp_logs", "otlp_logs_url",
		"insecure_otlp", "development_mode",
		"lcd_urls", "lcd_timeout", "lcd_max_retries", "lcd_requests_per_second",
		"evm_rpc_urls", "validator_cache_ttl", "chain_config",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

func loadFile(v *viper.Viper, configPath string) (*ServerConfig, error) {
	if !strings.HasSuffix(configPath, ".toml") {
		return nil, fmt.Errorf("config file must be a toml file")
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config ServerConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := verifyConfig(&config); err != nil {
		return nil, fmt.Errorf("failed to verify config: %w", err)
	}
	return &config, nil
}

func verifyConfig(config *ServerConfig) error {
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if config.Host == "" {
		return fmt.Errorf("host is required")
	}
	if len(config.AllowedOrigins) == 0 {
		return fmt.Errorf("allowed_origins is required")
	}
	if len(config.LCDURLs) == 0 {
		return fmt.Errorf("lcd_urls is required")
	}
	for _, u := range append(append([]string{}, config.LCDURLs...), config.EVMRPCURLs...) {
		if _, err := url.ParseRequestURI(u); err != nil {
			return fmt.Errorf("invalid endpoint url %q", u)
		}
	}
	if config.LCDRequestsPerSecond < 0 {
		return fmt.Errorf("lcd_requests_per_second must not be negative")
	}
	if config.ValidatorCacheTTL < 0 {
		return fmt.Errorf("validator_cache_ttl must not be negative")
	}
	return nil
}
