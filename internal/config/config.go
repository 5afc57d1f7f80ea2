// Package config defines and validates the immutable configuration
// structs the simulator is constructed from. Loading configuration from
// a file or flags is out of scope here; config.New* constructors only
// validate fields supplied by the caller, fail-fast at construction time.
package config

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CalibrationConfig configures per-fold score calibration. Carried as an
// interface-only placeholder; see package calibration.
type CalibrationConfig struct {
	Enabled bool
	Method  string // "temperature" or "platt"
}

// EVThresholdConfig constrains expected-value threshold selection.
type EVThresholdConfig struct {
	Enabled      bool
	MinPrecision *float64
	MinRecall    *float64
	MinTrades    *int
	TargetEV     *float64
}

// Validate enforces that configured fractions lie in (0, 1) and trade
// counts are non-negative.
func (c EVThresholdConfig) Validate() error {
	for name, v := range map[string]*float64{"min_precision": c.MinPrecision, "min_recall": c.MinRecall, "target_ev": c.TargetEV} {
		if v != nil && (*v <= 0 || *v >= 1) {
			return fmt.Errorf("config: %s must be in (0, 1), got %v", name, *v)
		}
	}
	if c.MinTrades != nil && *c.MinTrades < 0 {
		return fmt.Errorf("config: min_trades must be >= 0, got %d", *c.MinTrades)
	}
	return nil
}

// FundingConfig selects a named funding-rate scenario for stress tests.
type FundingConfig struct {
	Scenario string // "base", "elevated", "spike"
	Enabled  bool
}

// SlippageReportingConfig configures which percentiles are reported for
// collected slippage samples.
type SlippageReportingConfig struct {
	Percentiles []int
}

// Validate enforces a non-empty percentile list with values in (0, 100).
func (c SlippageReportingConfig) Validate() error {
	if len(c.Percentiles) == 0 {
		return fmt.Errorf("config: percentiles must not be empty")
	}
	for _, p := range c.Percentiles {
		if p <= 0 || p >= 100 {
			return fmt.Errorf("config: percentiles must be between 1 and 99, got %d", p)
		}
	}
	return nil
}

// RiskCapsConfig configures the optional net-position, pyramiding,
// equity-floor and frequency caps (see package risk).
type RiskCapsConfig struct {
	NetPositionCapPct  *float64
	PyramidingLayers   *int
	EquityFloorPct     *float64
	FrequencyCapPerDay *int
}

// Validate enforces percentage fields lie in (0, 1) and integer limits
// are positive.
func (c RiskCapsConfig) Validate() error {
	for name, v := range map[string]*float64{"net_position_cap_pct": c.NetPositionCapPct, "equity_floor_pct": c.EquityFloorPct} {
		if v != nil && (*v <= 0 || *v >= 1) {
			return fmt.Errorf("config: %s must be in (0, 1), got %v", name, *v)
		}
	}
	for name, v := range map[string]*int{"pyramiding_layers": c.PyramidingLayers, "frequency_cap_per_day": c.FrequencyCapPerDay} {
		if v != nil && *v <= 0 {
			return fmt.Errorf("config: %s must be > 0, got %d", name, *v)
		}
	}
	return nil
}

// SimulatorConfig configures a simulation run. Construct with
// NewSimulatorConfig, never directly, so defaults and validation apply.
type SimulatorConfig struct {
	InitialCapital              decimal.Decimal
	MinOrderDelayBars           int
	MaxDailyLossPct             *float64
	MaxDrawdownPct              *float64
	MaxPositionPct              float64
	MaxGrossLeverage            float64
	BenchmarkSymbol             string
	CheckpointInterval          int
	CheckpointDir               string
	RandomSeed                  uint64
	LogLevel                    string
	LogToFile                   bool
	LogFilePath                 string
	LogFormat                   string // "text" or "json"
	EnableSurvivorshipWarning   bool
	SurvivorshipMinDurationDays int
	EnableOverfittingWarning    bool
	OverfittingParamTradeRatio  float64
	Calibration                 CalibrationConfig
	EVThresholds                EVThresholdConfig
	Funding                     FundingConfig
	SlippageReporting           SlippageReportingConfig
	RiskCaps                    RiskCapsConfig
}

// NewSimulatorConfig fills in PRD defaults over a partially specified
// SimulatorConfig and validates it, failing fast on any invalid field.
func NewSimulatorConfig(cfg SimulatorConfig) (SimulatorConfig, error) {
	if cfg.InitialCapital.IsZero() {
		cfg.InitialCapital = decimal.NewFromInt(10000)
	}
	if cfg.MaxPositionPct == 0 {
		cfg.MaxPositionPct = 0.25
	}
	if cfg.MaxGrossLeverage == 0 {
		cfg.MaxGrossLeverage = 2.0
	}
	if cfg.CheckpointDir == "" {
		cfg.CheckpointDir = "./checkpoints"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if len(cfg.SlippageReporting.Percentiles) == 0 {
		cfg.SlippageReporting.Percentiles = []int{50, 75, 90, 95, 99}
	}
	if cfg.Funding.Scenario == "" {
		cfg.Funding.Scenario = "base"
	}
	if cfg.Calibration.Method == "" {
		cfg.Calibration.Method = "temperature"
	}

	if err := cfg.validate(); err != nil {
		return SimulatorConfig{}, err
	}
	return cfg, nil
}

func (c SimulatorConfig) validate() error {
	if c.MinOrderDelayBars < 0 {
		return fmt.Errorf("config: min_order_delay_bars must be >= 0, got %d", c.MinOrderDelayBars)
	}
	if c.MaxPositionPct <= 0 || c.MaxPositionPct > 1 {
		return fmt.Errorf("config: max_position_pct must be in (0, 1], got %v", c.MaxPositionPct)
	}
	for name, v := range map[string]*float64{"max_daily_loss_pct": c.MaxDailyLossPct, "max_drawdown_pct": c.MaxDrawdownPct} {
		if v != nil && (*v <= 0 || *v >= 1) {
			return fmt.Errorf("config: %s must be in (0, 1), got %v", name, *v)
		}
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("config: log_format must be 'text' or 'json', got %q", c.LogFormat)
	}
	if c.CheckpointInterval < 0 {
		return fmt.Errorf("config: checkpoint_interval must be >= 0, got %d", c.CheckpointInterval)
	}
	if c.LogToFile && c.LogFilePath == "" {
		return fmt.Errorf("config: log_file_path is required when log_to_file is true")
	}
	if err := c.EVThresholds.Validate(); err != nil {
		return err
	}
	if err := c.SlippageReporting.Validate(); err != nil {
		return err
	}
	if err := c.RiskCaps.Validate(); err != nil {
		return err
	}
	return nil
}

// ProviderConfig configures the execution venue a simulation runs against.
type ProviderConfig struct {
	Name                  string
	AssetClasses          []string
	FeeModel              string
	FeeParams             map[string]any
	SlippageModel         string
	SlippageParams        map[string]any
	MarginType            string // "", "RegT", "Portfolio", "Leveraged"
	InitialMarginRate     decimal.Decimal
	MaintenanceMarginRate decimal.Decimal
	ShortEnabled          bool
	BorrowRateAnnual      *decimal.Decimal
	LocateRequired        bool
	SettlementDays        int
	PDTEnabled            bool
	PDTMinEquity          decimal.Decimal
	AccountCurrency       string
}

// NewProviderConfig fills in defaults and validates a ProviderConfig,
// failing fast on any invalid field.
func NewProviderConfig(cfg ProviderConfig) (ProviderConfig, error) {
	if cfg.InitialMarginRate.IsZero() {
		cfg.InitialMarginRate = decimal.NewFromInt(1)
	}
	if cfg.MaintenanceMarginRate.IsZero() {
		cfg.MaintenanceMarginRate = decimal.NewFromInt(1)
	}
	if cfg.PDTMinEquity.IsZero() {
		cfg.PDTMinEquity = decimal.NewFromInt(25000)
	}
	if cfg.AccountCurrency == "" {
		cfg.AccountCurrency = "USD"
	}

	if len(cfg.AssetClasses) == 0 {
		return ProviderConfig{}, fmt.Errorf("config: asset_classes must not be empty")
	}
	if !cfg.InitialMarginRate.IsPositive() {
		return ProviderConfig{}, fmt.Errorf("config: initial_margin_rate must be > 0")
	}
	if !cfg.MaintenanceMarginRate.IsPositive() {
		return ProviderConfig{}, fmt.Errorf("config: maintenance_margin_rate must be > 0")
	}
	if cfg.SettlementDays < 0 {
		return ProviderConfig{}, fmt.Errorf("config: settlement_days must be >= 0, got %d", cfg.SettlementDays)
	}
	return cfg, nil
}
