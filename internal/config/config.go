// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Market    MarketConfig    `mapstructure:"market"`
	Strategy  StrategyConfig  `mapstructure:"strategy"`
	Safety    SafetyConfig    `mapstructure:"safety"`
	Execution ExecutionConfig `mapstructure:"execution"`
	Store     StoreConfig     `mapstructure:"store"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	TUIMode     bool   `mapstructure:"-"` // Set at runtime, not from config file
}

// MarketConfig holds market data feed configuration.
type MarketConfig struct {
	FeedWebSocketURL string        `mapstructure:"feed_websocket_url"`
	FeedHTTPURL      string        `mapstructure:"feed_http_url"`
	StaleTimeout     time.Duration `mapstructure:"stale_timeout"`
	InitialBackoff   time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff       time.Duration `mapstructure:"max_backoff"`
}

// StrategyConfig holds detection, scoring and tuning configuration.
type StrategyConfig struct {
	TickInterval       time.Duration `mapstructure:"tick_interval"`
	OpportunityTTL     time.Duration `mapstructure:"opportunity_ttl"`
	DefaultTradeAmount float64       `mapstructure:"default_trade_amount"`
	GasEstimate        float64       `mapstructure:"gas_estimate"`
	FlashFeeRate       float64       `mapstructure:"flash_fee_rate"`

	// Initial values for the dynamic parameter set. The tuner moves
	// min_profit and risk_tolerance at runtime; these are starting points.
	MinSpreadPct    float64 `mapstructure:"min_spread_pct"`
	MinProfit       float64 `mapstructure:"min_profit"`
	MaxSlippagePct  float64 `mapstructure:"max_slippage_pct"`
	TargetTradeSize float64 `mapstructure:"target_trade_size"`
	RiskTolerance   float64 `mapstructure:"risk_tolerance"`

	Scoring ScoringConfig `mapstructure:"scoring"`
	Risk    RiskConfig    `mapstructure:"risk"`
	Gate    GateConfig    `mapstructure:"gate"`
	Sizing  SizingConfig  `mapstructure:"sizing"`
	Tuner   TunerConfig   `mapstructure:"tuner"`
}

// ScoringConfig holds the composite score weights and scaling constants.
type ScoringConfig struct {
	SpreadWeight     float64 `mapstructure:"spread_weight"`
	LiquidityWeight  float64 `mapstructure:"liquidity_weight"`
	ProfitWeight     float64 `mapstructure:"profit_weight"`
	VolatilityWeight float64 `mapstructure:"volatility_weight"`
	GasWeight        float64 `mapstructure:"gas_weight"`
	HistoricalWeight float64 `mapstructure:"historical_weight"`

	SpreadFullScaleMult float64       `mapstructure:"spread_full_scale_mult"` // spread score hits 100 at this multiple of min spread
	LiquidityDepthMult  float64       `mapstructure:"liquidity_depth_mult"`   // liquidity score hits 100 at depth_mult * target size
	ProfitScale         float64       `mapstructure:"profit_scale"`           // profit/min_profit ratio is scaled by this
	VolatilitySlope     float64       `mapstructure:"volatility_slope"`       // volatility score = 100 - volatility*slope
	GasEfficiencyScale  float64       `mapstructure:"gas_efficiency_scale"`   // profit-to-gas ratio scaled by this
	NeutralHistorical   float64       `mapstructure:"neutral_historical"`     // historical score when no history exists
	StaleAge            time.Duration `mapstructure:"stale_age"`
	ThinLiquidityFactor float64       `mapstructure:"thin_liquidity_factor"` // confidence discount below target size liquidity
	StaleAgeFactor      float64       `mapstructure:"stale_age_factor"`      // confidence discount past stale age
}

// RiskConfig holds risk component scaling and warning thresholds.
type RiskConfig struct {
	LiquidityScale   float64 `mapstructure:"liquidity_scale"`
	SlippageScale    float64 `mapstructure:"slippage_scale"`
	GasScale         float64 `mapstructure:"gas_scale"`
	ExecutionBase    float64 `mapstructure:"execution_base"`
	MaxAgePenalty    float64 `mapstructure:"max_age_penalty"`
	WarnSubRisk      float64 `mapstructure:"warn_sub_risk"`
	WarnOverallRisk  float64 `mapstructure:"warn_overall_risk"`
}

// GateConfig holds the decision gate thresholds.
type GateConfig struct {
	MinScore      float64 `mapstructure:"min_score"`
	MinConfidence float64 `mapstructure:"min_confidence"`
}

// SizingConfig holds trade size optimization limits.
type SizingConfig struct {
	LiquidityCapPct float64 `mapstructure:"liquidity_cap_pct"` // fraction of the smaller pool's liquidity
}

// TunerConfig holds the parameter tuner cadence and adjustment steps.
type TunerConfig struct {
	Cadence          int     `mapstructure:"cadence"` // retune after every Nth outcome
	Window           int     `mapstructure:"window"`  // outcomes considered per retune
	RiskStep         float64 `mapstructure:"risk_step"`
	RiskToleranceMin float64 `mapstructure:"risk_tolerance_min"`
	RiskToleranceMax float64 `mapstructure:"risk_tolerance_max"`
	SuccessRateHigh  float64 `mapstructure:"success_rate_high"`
	SuccessRateLow   float64 `mapstructure:"success_rate_low"`

	ProfitHighMult    float64 `mapstructure:"profit_high_mult"`    // mean profit above mult*min_profit raises the bar
	ProfitLowMult     float64 `mapstructure:"profit_low_mult"`     // mean profit below mult*min_profit lowers it
	ProfitRaiseFactor float64 `mapstructure:"profit_raise_factor"` // applied to min_profit when raising
	ProfitLowerFactor float64 `mapstructure:"profit_lower_factor"` // applied to min_profit when lowering
}

// SafetyConfig holds circuit breaker limits for the execution safety gate.
type SafetyConfig struct {
	MaxConsecutiveFailures int           `mapstructure:"max_consecutive_failures"`
	DailyLossCap           float64       `mapstructure:"daily_loss_cap"`
	MaxPositionSize        float64       `mapstructure:"max_position_size"`
	LossWindow             time.Duration `mapstructure:"loss_window"`
}

// ExecutionConfig holds transaction execution configuration.
type ExecutionConfig struct {
	EthereumHTTPURL   string        `mapstructure:"ethereum_http_url"`
	ChainID           uint64        `mapstructure:"chain_id"`
	RouterAddress     string        `mapstructure:"router_address"`
	PrivateKey        string        `mapstructure:"private_key"` // hex, no 0x prefix
	MaxGasPriceGwei   float64       `mapstructure:"max_gas_price_gwei"`
	DryRun            bool          `mapstructure:"dry_run"`
	SubmitsPerMinute  int           `mapstructure:"submits_per_minute"`
	SimulationTimeout time.Duration `mapstructure:"simulation_timeout"`
	SubmitTimeout     time.Duration `mapstructure:"submit_timeout"`
}

// RouterAddressHex returns the router address as common.Address.
func (c *ExecutionConfig) RouterAddressHex() common.Address {
	return common.HexToAddress(c.RouterAddress)
}

// StoreConfig holds outcome persistence configuration.
type StoreConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
	HistorySize int    `mapstructure:"history_size"` // in-memory ring capacity
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
	HealthPort     int    `mapstructure:"health_port"`
}

// Decimal accessors for money-valued settings.

func (c *StrategyConfig) DefaultTradeAmountDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.DefaultTradeAmount)
}

func (c *StrategyConfig) GasEstimateDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.GasEstimate)
}

func (c *StrategyConfig) FlashFeeRateDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.FlashFeeRate)
}

func (c *SafetyConfig) DailyLossCapDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.DailyLossCap)
}

func (c *SafetyConfig) MaxPositionSizeDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MaxPositionSize)
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

	v.SetEnvPrefix("POOLARB")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
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
	// App
	v.BindEnv("app.name", "POOLARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "POOLARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "POOLARB_LOG_LEVEL", "LOG_LEVEL")

	// Market
	v.BindEnv("market.feed_websocket_url", "POOLARB_FEED_WS_URL", "FEED_WS_URL")
	v.BindEnv("market.feed_http_url", "POOLARB_FEED_HTTP_URL", "FEED_HTTP_URL")

	// Strategy
	v.BindEnv("strategy.min_spread_pct", "POOLARB_MIN_SPREAD_PCT")
	v.BindEnv("strategy.min_profit", "POOLARB_MIN_PROFIT")
	v.BindEnv("strategy.target_trade_size", "POOLARB_TARGET_TRADE_SIZE")
	v.BindEnv("strategy.risk_tolerance", "POOLARB_RISK_TOLERANCE")

	// Safety
	v.BindEnv("safety.daily_loss_cap", "POOLARB_DAILY_LOSS_CAP")
	v.BindEnv("safety.max_position_size", "POOLARB_MAX_POSITION_SIZE")

	// Execution
	v.BindEnv("execution.ethereum_http_url", "POOLARB_ETH_HTTP_URL", "ETH_HTTP_URL")
	v.BindEnv("execution.chain_id", "POOLARB_ETH_CHAIN_ID", "ETH_CHAIN_ID")
	v.BindEnv("execution.router_address", "POOLARB_ROUTER_ADDRESS")
	v.BindEnv("execution.private_key", "POOLARB_PRIVATE_KEY")
	v.BindEnv("execution.dry_run", "POOLARB_DRY_RUN")

	// Store
	v.BindEnv("store.postgres_dsn", "POOLARB_POSTGRES_DSN", "DATABASE_URL")

	// Telemetry
	v.BindEnv("telemetry.enabled", "POOLARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "POOLARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "POOLARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "poolarb")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Market defaults
	v.SetDefault("market.stale_timeout", "5s")
	v.SetDefault("market.initial_backoff", "1s")
	v.SetDefault("market.max_backoff", "30s")

	// Strategy defaults
	v.SetDefault("strategy.tick_interval", "1s")
	v.SetDefault("strategy.opportunity_ttl", "30s")
	v.SetDefault("strategy.default_trade_amount", 1000.0)
	v.SetDefault("strategy.gas_estimate", 1.0)
	v.SetDefault("strategy.flash_fee_rate", 0.0009)
	v.SetDefault("strategy.min_spread_pct", 0.005)
	v.SetDefault("strategy.min_profit", 1.0)
	v.SetDefault("strategy.max_slippage_pct", 0.02)
	v.SetDefault("strategy.target_trade_size", 1000.0)
	v.SetDefault("strategy.risk_tolerance", 0.5)

	// Scoring defaults
	v.SetDefault("strategy.scoring.spread_weight", 0.20)
	v.SetDefault("strategy.scoring.liquidity_weight", 0.20)
	v.SetDefault("strategy.scoring.profit_weight", 0.25)
	v.SetDefault("strategy.scoring.volatility_weight", 0.10)
	v.SetDefault("strategy.scoring.gas_weight", 0.15)
	v.SetDefault("strategy.scoring.historical_weight", 0.10)
	v.SetDefault("strategy.scoring.spread_full_scale_mult", 3.0)
	v.SetDefault("strategy.scoring.liquidity_depth_mult", 20.0)
	v.SetDefault("strategy.scoring.profit_scale", 25.0)
	v.SetDefault("strategy.scoring.volatility_slope", 1000.0)
	v.SetDefault("strategy.scoring.gas_efficiency_scale", 10.0)
	v.SetDefault("strategy.scoring.neutral_historical", 50.0)
	v.SetDefault("strategy.scoring.stale_age", "10s")
	v.SetDefault("strategy.scoring.thin_liquidity_factor", 0.8)
	v.SetDefault("strategy.scoring.stale_age_factor", 0.9)

	// Risk defaults
	v.SetDefault("strategy.risk.liquidity_scale", 200.0)
	v.SetDefault("strategy.risk.slippage_scale", 100.0)
	v.SetDefault("strategy.risk.gas_scale", 100.0)
	v.SetDefault("strategy.risk.execution_base", 20.0)
	v.SetDefault("strategy.risk.max_age_penalty", 30.0)
	v.SetDefault("strategy.risk.warn_sub_risk", 50.0)
	v.SetDefault("strategy.risk.warn_overall_risk", 70.0)

	// Gate defaults
	v.SetDefault("strategy.gate.min_score", 60.0)
	v.SetDefault("strategy.gate.min_confidence", 0.7)

	// Sizing defaults
	v.SetDefault("strategy.sizing.liquidity_cap_pct", 0.05)

	// Tuner defaults
	v.SetDefault("strategy.tuner.cadence", 10)
	v.SetDefault("strategy.tuner.window", 50)
	v.SetDefault("strategy.tuner.risk_step", 0.05)
	v.SetDefault("strategy.tuner.risk_tolerance_min", 0.3)
	v.SetDefault("strategy.tuner.risk_tolerance_max", 0.7)
	v.SetDefault("strategy.tuner.success_rate_high", 0.8)
	v.SetDefault("strategy.tuner.success_rate_low", 0.5)
	v.SetDefault("strategy.tuner.profit_high_mult", 2.0)
	v.SetDefault("strategy.tuner.profit_low_mult", 0.5)
	v.SetDefault("strategy.tuner.profit_raise_factor", 1.1)
	v.SetDefault("strategy.tuner.profit_lower_factor", 0.9)

	// Safety defaults
	v.SetDefault("safety.max_consecutive_failures", 5)
	v.SetDefault("safety.daily_loss_cap", 500.0)
	v.SetDefault("safety.max_position_size", 10000.0)
	v.SetDefault("safety.loss_window", "24h")

	// Execution defaults
	v.SetDefault("execution.chain_id", 1)
	v.SetDefault("execution.dry_run", true)
	v.SetDefault("execution.max_gas_price_gwei", 500)
	v.SetDefault("execution.submits_per_minute", 6)
	v.SetDefault("execution.simulation_timeout", "5s")
	v.SetDefault("execution.submit_timeout", "30s")

	// Store defaults
	v.SetDefault("store.enabled", false)
	v.SetDefault("store.history_size", 100)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "poolarb")
	v.SetDefault("telemetry.prometheus_port", 9090)
	v.SetDefault("telemetry.health_port", 8081)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Strategy.MinSpreadPct <= 0 {
		return fmt.Errorf("strategy.min_spread_pct must be positive")
	}
	if c.Strategy.TargetTradeSize <= 0 {
		return fmt.Errorf("strategy.target_trade_size must be positive")
	}
	if c.Strategy.RiskTolerance < c.Strategy.Tuner.RiskToleranceMin ||
		c.Strategy.RiskTolerance > c.Strategy.Tuner.RiskToleranceMax {
		return fmt.Errorf("strategy.risk_tolerance %.2f outside [%.2f, %.2f]",
			c.Strategy.RiskTolerance, c.Strategy.Tuner.RiskToleranceMin, c.Strategy.Tuner.RiskToleranceMax)
	}
	weightSum := c.Strategy.Scoring.SpreadWeight + c.Strategy.Scoring.LiquidityWeight +
		c.Strategy.Scoring.ProfitWeight + c.Strategy.Scoring.VolatilityWeight +
		c.Strategy.Scoring.GasWeight + c.Strategy.Scoring.HistoricalWeight
	if weightSum < 0.99 || weightSum > 1.01 {
		return fmt.Errorf("strategy.scoring weights sum to %.3f, want 1.0", weightSum)
	}
	if c.Safety.MaxConsecutiveFailures <= 0 {
		return fmt.Errorf("safety.max_consecutive_failures must be positive")
	}
	if c.Safety.MaxPositionSize <= 0 {
		return fmt.Errorf("safety.max_position_size must be positive")
	}
	if !c.Execution.DryRun {
		if c.Execution.EthereumHTTPURL == "" {
			return fmt.Errorf("execution.ethereum_http_url is required for live execution")
		}
		if !common.IsHexAddress(c.Execution.RouterAddress) {
			return fmt.Errorf("invalid execution.router_address: %s", c.Execution.RouterAddress)
		}
		if c.Execution.PrivateKey == "" {
			return fmt.Errorf("execution.private_key is required for live execution")
		}
	}
	if c.Store.Enabled && c.Store.PostgresDSN == "" {
		return fmt.Errorf("store.postgres_dsn is required when store.enabled")
	}
	return nil
}
