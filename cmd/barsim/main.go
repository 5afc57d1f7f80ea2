package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/liqsim/barsim/fees"
	"github.com/liqsim/barsim/internal/config"
	"github.com/liqsim/barsim/simulator"
	"github.com/liqsim/barsim/slippage"
	"github.com/liqsim/barsim/types"
)

// VERSION is the build tag reported in the startup banner.
const VERSION = "v0.1"

func main() {
	// ═══════════════════════════════════════════════════════════════
	// BOOTSTRAP
	// ═══════════════════════════════════════════════════════════════

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("no .env file found")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Info().Msgf("barsim %s starting", VERSION)

	initialCapital := decimal.NewFromInt(100000)
	if v := os.Getenv("INITIAL_CAPITAL"); v != "" {
		if parsed, err := decimal.NewFromString(v); err == nil {
			initialCapital = parsed
		} else {
			log.Warn().Err(err).Str("value", v).Msg("ignoring unparsable INITIAL_CAPITAL")
		}
	}

	// ═══════════════════════════════════════════════════════════════
	// CONFIGURATION
	// ═══════════════════════════════════════════════════════════════

	providerCfg, err := config.NewProviderConfig(config.ProviderConfig{
		Name:           envOr("PROVIDER_NAME", "generic-equity"),
		AssetClasses:   []string{"equity"},
		ShortEnabled:   os.Getenv("SHORT_ENABLED") == "true",
		SettlementDays: 2,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("invalid provider configuration")
	}

	simCfg, err := config.NewSimulatorConfig(config.SimulatorConfig{
		InitialCapital:   initialCapital,
		MaxPositionPct:   0.25,
		MaxGrossLeverage: 2.0,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("invalid simulator configuration")
	}

	// ═══════════════════════════════════════════════════════════════
	// RUN
	// ═══════════════════════════════════════════════════════════════

	sim := simulator.New(providerCfg, simCfg, fees.ZeroCommissionFee{}, slippage.SpreadBasedSlippage{})

	var orders []types.OrderRequest
	var bars []types.Bar
	result := sim.Run(orders, bars, nil, nil)

	log.Info().
		Int("fills", len(result.Fills)).
		Int("rejected_orders", len(result.RejectedOrders)).
		Interface("slippage_stats", result.SlippageStats).
		Msg("run complete")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
