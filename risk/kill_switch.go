package risk

import (
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// KillSwitch is a sticky trip/reset state machine: once engaged it stays
// engaged until explicitly reset, blocking exposure-increasing orders via
// CheckKillSwitch. Re-evaluated once per bar against peak-equity
// drawdown and daily-loss thresholds.
type KillSwitch struct {
	Engaged      bool
	tripReason   string
	maxDrawdown  *float64 // fraction of peak equity, e.g. 0.2 = 20%
	maxDailyLoss *float64 // fraction of day-start equity
}

// NewKillSwitch constructs a kill-switch with optional drawdown/daily-loss
// thresholds; a nil threshold disables that trigger.
func NewKillSwitch(maxDrawdown, maxDailyLoss *float64) *KillSwitch {
	return &KillSwitch{maxDrawdown: maxDrawdown, maxDailyLoss: maxDailyLoss}
}

// Evaluate re-checks drawdown and daily-loss triggers against current
// equity; once engaged, the switch stays engaged regardless of recovery
// until Reset is called explicitly.
func (k *KillSwitch) Evaluate(equity, peakEquity, dayStartEquity decimal.Decimal) {
	if k.Engaged {
		return
	}
	if k.maxDrawdown != nil && peakEquity.IsPositive() {
		drawdown := peakEquity.Sub(equity).Div(peakEquity)
		if drawdown.GreaterThanOrEqual(decimal.NewFromFloat(*k.maxDrawdown)) {
			k.trip("max drawdown breached")
			return
		}
	}
	if k.maxDailyLoss != nil && dayStartEquity.IsPositive() {
		loss := dayStartEquity.Sub(equity).Div(dayStartEquity)
		if loss.GreaterThanOrEqual(decimal.NewFromFloat(*k.maxDailyLoss)) {
			k.trip("max daily loss breached")
			return
		}
	}
}

func (k *KillSwitch) trip(reason string) {
	k.Engaged = true
	k.tripReason = reason
	log.Warn().Str("reason", reason).Msg("kill switch engaged")
}

// Reset clears the kill-switch, logging the transition.
func (k *KillSwitch) Reset() {
	if k.Engaged {
		log.Info().Str("previous_reason", k.tripReason).Msg("kill switch reset")
	}
	k.Engaged = false
	k.tripReason = ""
}

// Reason returns the trip reason, if currently engaged.
func (k *KillSwitch) Reason() string {
	return k.tripReason
}
