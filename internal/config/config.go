// Package config loads and validates the scanner configuration.
package config

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	RPC       RPCConfig       `mapstructure:"rpc"`
	Exchanges ExchangesConfig `mapstructure:"exchanges"`
	Tokens    TokensConfig    `mapstructure:"tokens"`
	Contract  ContractConfig  `mapstructure:"contract"`
	Network   NetworkConfig   `mapstructure:"network"`
	Market    MarketConfig    `mapstructure:"market"`
	Arbitrage ArbitrageConfig `mapstructure:"arbitrage"`
	Reference ReferenceConfig `mapstructure:"reference"`
	Redis     RedisConfig     `mapstructure:"redis"`
	API       APIConfig       `mapstructure:"api"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	TUIMode     bool   `mapstructure:"-"`
}

// RPCConfig configures the endpoint pool.
type RPCConfig struct {
	ChainID             uint64        `mapstructure:"chain_id"`
	Primary             string        `mapstructure:"primary"`
	Backups             []string      `mapstructure:"backups"`
	Timeout             time.Duration `mapstructure:"timeout"`
	RetryCount          uint          `mapstructure:"retry_count"`
	FailureThreshold    int           `mapstructure:"failure_threshold"`
	Cooldown            time.Duration `mapstructure:"cooldown"`
	MinUseInterval      time.Duration `mapstructure:"min_use_interval"`
	HealthCheckInterval time.Duration `mapstructure:"health_check_interval"`
	ProbeTimeout        time.Duration `mapstructure:"probe_timeout"`
	DefaultGasPriceGwei string        `mapstructure:"default_gas_price_gwei"`
}

// URLs returns the primary endpoint followed by the backups.
func (c *RPCConfig) URLs() []string {
	return append([]string{c.Primary}, c.Backups...)
}

// DefaultGasPriceWei returns the fallback gas price in wei.
func (c *RPCConfig) DefaultGasPriceWei() *big.Int {
	return gweiToWei(c.DefaultGasPriceGwei)
}

// ExchangeConfig describes one AMM venue.
type ExchangeConfig struct {
	Name   string `mapstructure:"name"`
	Router string `mapstructure:"router"`
}

// RouterAddress returns the router as common.Address.
func (c *ExchangeConfig) RouterAddress() common.Address {
	return common.HexToAddress(c.Router)
}

// ExchangesConfig holds the two venues a cycle alternates between.
type ExchangesConfig struct {
	A ExchangeConfig `mapstructure:"a"`
	B ExchangeConfig `mapstructure:"b"`
}

// TokensConfig names the native wrapped asset and the value-unit stables.
type TokensConfig struct {
	Native  string   `mapstructure:"native"`
	Stables []string `mapstructure:"stables"`
}

// NativeAddress returns the wrapped native token address.
func (c *TokensConfig) NativeAddress() common.Address {
	return common.HexToAddress(c.Native)
}

// StableAddresses returns the stable tokens in configured order.
func (c *TokensConfig) StableAddresses() []common.Address {
	out := make([]common.Address, len(c.Stables))
	for i, s := range c.Stables {
		out[i] = common.HexToAddress(s)
	}
	return out
}

// ContractConfig holds the flash-arbitrage contract address.
type ContractConfig struct {
	FlashArbitrage string `mapstructure:"flash_arbitrage"`
}

// FlashArbitrageAddress returns the contract as common.Address.
func (c *ContractConfig) FlashArbitrageAddress() common.Address {
	return common.HexToAddress(c.FlashArbitrage)
}

// NetworkConfig configures the network condition monitor.
type NetworkConfig struct {
	MaxGasPriceGwei  string        `mapstructure:"max_gas_price_gwei"`
	CheckInterval    time.Duration `mapstructure:"check_interval"`
	ReadinessMaxAge  time.Duration `mapstructure:"readiness_max_age"`
	GasPriceTTL      time.Duration `mapstructure:"gas_price_ttl"`
	FailureThreshold int           `mapstructure:"failure_threshold"`
}

// MaxGasPriceWei returns the gas price ceiling in wei.
func (c *NetworkConfig) MaxGasPriceWei() *big.Int {
	return gweiToWei(c.MaxGasPriceGwei)
}

func gweiToWei(s string) *big.Int {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return new(big.Int)
	}
	return d.Shift(9).BigInt()
}

// MarketConfig configures price caching.
type MarketConfig struct {
	PriceTTL         time.Duration `mapstructure:"price_ttl"`
	NativeRateMaxAge time.Duration `mapstructure:"native_rate_max_age"`
	QuoteTimeout     time.Duration `mapstructure:"quote_timeout"`
}

// ArbitrageConfig configures scanning and evaluation.
type ArbitrageConfig struct {
	MinProfitPct       string         `mapstructure:"min_profit_pct"`
	GasLimit           uint64         `mapstructure:"gas_limit"`
	GasBuffer          string         `mapstructure:"gas_buffer"`
	SlippageBps        int64          `mapstructure:"slippage_bps"`
	GapThresholdPct    string         `mapstructure:"gap_threshold_pct"`
	DirectionPolicy    string         `mapstructure:"direction_policy"`
	PriorityInterval   time.Duration  `mapstructure:"priority_interval"`
	StandardInterval   time.Duration  `mapstructure:"standard_interval"`
	FeeRefreshInterval time.Duration  `mapstructure:"fee_refresh_interval"`
	ScanOnStartup      bool           `mapstructure:"scan_on_startup"`
	ScanConcurrency    int            `mapstructure:"scan_concurrency"`
	Triples            []TripleConfig `mapstructure:"triples"`
}

// MinProfitPctDecimal returns the acceptance threshold in percent.
func (c *ArbitrageConfig) MinProfitPctDecimal() decimal.Decimal {
	return decimal.RequireFromString(c.MinProfitPct)
}

// GasBufferDecimal returns the gas price safety multiplier.
func (c *ArbitrageConfig) GasBufferDecimal() decimal.Decimal {
	return decimal.RequireFromString(c.GasBuffer)
}

// GapThresholdDecimal returns the direction reversal threshold in percent.
func (c *ArbitrageConfig) GapThresholdDecimal() decimal.Decimal {
	return decimal.RequireFromString(c.GapThresholdPct)
}

// ReferenceConfig configures the CEX fallback for the native reference rate.
type ReferenceConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	BaseURL           string        `mapstructure:"base_url"`
	Symbol            string        `mapstructure:"symbol"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// RedisConfig configures the opportunity sink.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Key      string        `mapstructure:"key"`
	Channel  string        `mapstructure:"channel"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// APIConfig configures the health and control HTTP server.
type APIConfig struct {
	Port int `mapstructure:"port"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	ServiceName    string  `mapstructure:"service_name"`
	Exporter       string  `mapstructure:"exporter"`
	OTLPEndpoint   string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string  `mapstructure:"otlp_headers"`
	SampleRate     float64 `mapstructure:"sample_rate"`
	PrometheusPort int     `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("ARB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("app.name", "ARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ARB_LOG_LEVEL", "LOG_LEVEL")

	v.BindEnv("rpc.primary", "ARB_RPC_PRIMARY", "BSC_RPC_URL")
	v.BindEnv("rpc.backups", "ARB_RPC_BACKUPS", "BSC_RPC_BACKUPS")
	v.BindEnv("rpc.timeout", "ARB_RPC_TIMEOUT", "RPC_TIMEOUT")
	v.BindEnv("rpc.retry_count", "ARB_RPC_RETRY_COUNT", "RPC_RETRY_COUNT")
	v.BindEnv("rpc.cooldown", "ARB_RPC_COOLDOWN", "RPC_COOLDOWN")
	v.BindEnv("rpc.health_check_interval", "ARB_RPC_HEALTH_CHECK_INTERVAL", "HEALTH_CHECK_INTERVAL")

	v.BindEnv("contract.flash_arbitrage", "ARB_CONTRACT_ADDRESS", "CONTRACT_ADDRESS")

	v.BindEnv("network.max_gas_price_gwei", "ARB_MAX_GAS_PRICE_GWEI", "MAX_GAS_PRICE")
	v.BindEnv("arbitrage.min_profit_pct", "ARB_MIN_PROFIT_PCT", "MIN_PROFIT_PERCENTAGE")
	v.BindEnv("arbitrage.gas_limit", "ARB_GAS_LIMIT", "GAS_LIMIT")
	v.BindEnv("arbitrage.direction_policy", "ARB_DIRECTION_POLICY")

	v.BindEnv("redis.enabled", "ARB_REDIS_ENABLED")
	v.BindEnv("redis.addr", "ARB_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("redis.password", "ARB_REDIS_PASSWORD", "REDIS_PASSWORD")

	v.BindEnv("telemetry.enabled", "ARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "ARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "bsc-triarb")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("rpc.chain_id", 56)
	v.SetDefault("rpc.primary", "https://bsc-dataseed.binance.org/")
	v.SetDefault("rpc.backups", []string{
		"https://bsc-dataseed1.defibit.io/",
		"https://bsc-dataseed1.ninicoin.io/",
	})
	v.SetDefault("rpc.timeout", "10s")
	v.SetDefault("rpc.retry_count", 3)
	v.SetDefault("rpc.failure_threshold", 3)
	v.SetDefault("rpc.cooldown", "60s")
	v.SetDefault("rpc.min_use_interval", "500ms")
	v.SetDefault("rpc.health_check_interval", "30s")
	v.SetDefault("rpc.probe_timeout", "5s")
	v.SetDefault("rpc.default_gas_price_gwei", "5")

	// PancakeSwap V2 and Biswap routers on BSC
	v.SetDefault("exchanges.a.name", "PancakeSwap")
	v.SetDefault("exchanges.a.router", "0x10ED43C718714eb63d5aA57B78B54704E256024E")
	v.SetDefault("exchanges.b.name", "Biswap")
	v.SetDefault("exchanges.b.router", "0x3a6d8cA21D1CF76F653A67577FA0D27453350dD8")

	v.SetDefault("tokens.native", "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c")
	v.SetDefault("tokens.stables", []string{
		"0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56",
		"0x55d398326f99059fF775485246999027B3197955",
		"0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d",
	})

	v.SetDefault("network.max_gas_price_gwei", "10")
	v.SetDefault("network.check_interval", "1m")
	v.SetDefault("network.readiness_max_age", "5m")
	v.SetDefault("network.gas_price_ttl", "2m")
	v.SetDefault("network.failure_threshold", 3)

	v.SetDefault("market.price_ttl", "5m")
	v.SetDefault("market.native_rate_max_age", "10m")
	v.SetDefault("market.quote_timeout", "8s")

	v.SetDefault("arbitrage.min_profit_pct", "0.5")
	v.SetDefault("arbitrage.gas_limit", 600000)
	v.SetDefault("arbitrage.gas_buffer", "1.1")
	v.SetDefault("arbitrage.slippage_bps", 100)
	v.SetDefault("arbitrage.gap_threshold_pct", "5")
	v.SetDefault("arbitrage.direction_policy", "gap")
	v.SetDefault("arbitrage.priority_interval", "30s")
	v.SetDefault("arbitrage.standard_interval", "2m")
	v.SetDefault("arbitrage.fee_refresh_interval", "1h")
	v.SetDefault("arbitrage.scan_on_startup", true)
	v.SetDefault("arbitrage.scan_concurrency", 4)

	v.SetDefault("reference.enabled", true)
	v.SetDefault("reference.base_url", "https://api.binance.com")
	v.SetDefault("reference.symbol", "BNBUSDT")
	v.SetDefault("reference.timeout", "5s")
	v.SetDefault("reference.requests_per_minute", 600)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.key", "triarb:opportunities")
	v.SetDefault("redis.channel", "triarb:opportunities:live")
	v.SetDefault("redis.ttl", "5m")

	v.SetDefault("api.port", 8081)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "bsc-triarb")
	v.SetDefault("telemetry.exporter", "zipkin")
	v.SetDefault("telemetry.sample_rate", 1.0)
	v.SetDefault("telemetry.prometheus_port", 9090)
}
