package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Cogwheel-Validator/spectra-explorer/explorer/account"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/config"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/evm"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/lcd"
	"github.com/Cogwheel-Validator/spectra-explorer/explorer/rpc"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Logger()

	// Share the logger with the library packages
	rpc.SetLogger(log)
	lcd.SetLogger(log)
	account.SetLogger(log)
	evm.SetLogger(log)
}

func main() {
	configPath := flag.String("config", "", "toml config file for the server, EXPLORER_* env vars are used when empty")
	chainPath := flag.String("chain", "", "chain profile (toml or json), overrides chain_config from the server config")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	var cfgPath *string
	if *configPath != "" {
		cfgPath = configPath
	}
	cfg, err := config.LoadServerConfig(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load server config")
	}

	profilePath := cfg.ChainConfig
	if *chainPath != "" {
		profilePath = *chainPath
	}
	profile, err := config.LoadChainProfile(profilePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load chain profile")
	}

	log.Info().
		Str("chain_id", profile.ChainID).
		Str("prefix", profile.Bech32Prefix).
		Int("lcd_urls", len(cfg.LCDURLs)).
		Int("evm_rpc_urls", len(cfg.EVMRPCURLs)).
		Msg("Starting Spectra Explorer")

	failover := lcd.DefaultFailoverConfig()
	failover.Timeout = cfg.LCDTimeout
	failover.MaxRetries = cfg.LCDMaxRetries
	failover.RequestsPerSecond = cfg.LCDRequestsPerSecond
	lcdClient, err := lcd.NewClientWithFailover(cfg.LCDURLs[0], cfg.LCDURLs[1:], failover)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create LCD client")
	}
	defer lcdClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chain := account.ChainFromProfile(*profile)
	monikers := account.NewMonikerLookup(lcdClient, cfg.ValidatorCacheTTL)

	deps := rpc.Deps{
		LCD:        lcdClient,
		Profile:    *profile,
		Resolver:   account.NewResolver(lcdClient, chain),
		Aggregator: account.NewAggregator(lcdClient, chain, monikers),
		Monikers:   monikers,
	}

	// the classification route answers 503 without an EVM endpoint
	if evmClient := dialEVM(ctx, cfg, profile); evmClient != nil {
		defer evmClient.Close()
		deps.Classifier = evm.NewClassifier(evmClient)
		deps.PublicEVMRPC = cfg.EVMRPCURLs[0]
	}

	api, err := rpc.NewAPI(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create API")
	}

	server, err := rpc.NewServer(ctx, buildServerConfig(cfg), api)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create API server")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
			sigCh <- syscall.SIGTERM
		}
	}()

	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
}

// dialEVM connects to the configured EVM endpoints. It returns nil when the
// chain has no EVM or no endpoint is reachable.
func dialEVM(ctx context.Context, cfg *config.ServerConfig, profile *config.ChainProfile) *evm.Client {
	if !profile.EVMEnabled() || len(cfg.EVMRPCURLs) == 0 {
		log.Info().Msg("EVM endpoints not configured, contract classification disabled")
		return nil
	}

	client, err := evm.Dial(ctx, cfg.EVMRPCURLs, 5*time.Second, cfg.LCDTimeout)
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to EVM endpoints, contract classification disabled")
		return nil
	}

	chainID, err := client.ChainID(ctx)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("Could not read EVM chain id")
	case chainID.Int64() != profile.EVMChainID:
		log.Warn().
			Str("remote", chainID.String()).
			Int64("expected", profile.EVMChainID).
			Msg("EVM chain id does not match the chain profile")
	default:
		log.Info().Str("chain_id", chainID.String()).Msg("EVM client connected")
	}
	return client
}

// buildServerConfig converts the loaded ServerConfig to rpc.ServerConfig
func buildServerConfig(cfg *config.ServerConfig) *rpc.ServerConfig {
	serverConfig := &rpc.ServerConfig{
		Address:        cfg.Host + ":" + strconv.Itoa(cfg.Port),
		AllowedOrigins: cfg.AllowedOrigins,
		EnableMetrics:  cfg.UsePrometheus,
		RequestTimeout: 60 * time.Second,
	}

	if cfg.RatePerMinute > 0 {
		serverConfig.RatePerMinute = &cfg.RatePerMinute
	}
	if cfg.MaxConcurrentRequests > 0 {
		serverConfig.MaxConcurrentRequests = &cfg.MaxConcurrentRequests
	}

	// Set OpenTelemetry configuration if any telemetry is enabled
	if cfg.EnableTracing || cfg.EnableMetrics || cfg.EnableLogs || cfg.UsePrometheus {
		serverConfig.OTelConfig = &rpc.OTelConfig{
			ServiceName:     defaultString(cfg.ServiceName, "spectra-explorer"),
			ServiceVersion:  defaultString(cfg.ServiceVersion, "0.1.0"),
			Environment:     defaultString(cfg.Environment, "LOCAL"),
			EnableTracing:   cfg.EnableTracing,
			UseOTLPTraces:   cfg.UseOTLPTraces,
			OTLPTracesURL:   cfg.OTLPTracesURL,
			EnableMetrics:   cfg.EnableMetrics || cfg.UsePrometheus,
			UsePrometheus:   cfg.UsePrometheus,
			UseOTLPMetrics:  cfg.UseOTLPMetrics,
			OTLPMetricsURL:  cfg.OTLPMetricsURL,
			EnableLogs:      cfg.EnableLogs,
			UseOTLPLogs:     cfg.UseOTLPLogs,
			OTLPLogsURL:     cfg.OTLPLogsURL,
			InsecureOTLP:    cfg.InsecureOTLP,
			DevelopmentMode: cfg.DevelopmentMode,
		}
	}

	return serverConfig
}

// defaultString returns the default value if s is empty
func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
