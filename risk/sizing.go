package risk

import "github.com/shopspring/decimal"

// Sizer computes a position size from a risk percentage of equity and the
// distance between entry and stop, with optional min/max quantity bounds.
// Not part of the core event loop — an optional helper for callers
// generating order requests upstream of the simulator.
type Sizer struct {
	RiskPct     decimal.Decimal
	MinQuantity decimal.Decimal
	MaxQuantity decimal.Decimal
}

// Calculate returns the quantity that risks RiskPct of equity given the
// distance between entry and stop price. Returns zero when entry and stop
// coincide (undefined risk-per-unit).
func (s Sizer) Calculate(equity, entryPrice, stopPrice decimal.Decimal) decimal.Decimal {
	riskPerUnit := entryPrice.Sub(stopPrice).Abs()
	if riskPerUnit.IsZero() {
		return decimal.Zero
	}
	riskAmount := s.RiskAmount(equity)
	qty := riskAmount.Div(riskPerUnit)
	if !s.MinQuantity.IsZero() && qty.LessThan(s.MinQuantity) {
		qty = s.MinQuantity
	}
	if !s.MaxQuantity.IsZero() && qty.GreaterThan(s.MaxQuantity) {
		qty = s.MaxQuantity
	}
	return qty
}

// RiskAmount is the dollar amount at risk for the configured RiskPct.
func (s Sizer) RiskAmount(equity decimal.Decimal) decimal.Decimal {
	return equity.Mul(s.RiskPct)
}

// RiskPercentage is the dollar risk amount expressed as a fraction of equity.
func (s Sizer) RiskPercentage(riskAmount, equity decimal.Decimal) decimal.Decimal {
	if equity.IsZero() {
		return decimal.Zero
	}
	return riskAmount.Div(equity)
}
