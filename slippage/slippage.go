// Package slippage implements the execution-price adjustment models a
// provider configuration can select between.
package slippage

import (
	"github.com/shopspring/decimal"

	"github.com/liqsim/barsim/types"
)

// Model computes the slippage amount to apply to a matched fill price.
type Model interface {
	Calculate(order types.OrderRequest, bar types.Bar) decimal.Decimal
}

// VolumeWeightedSlippage scales slippage with the order's participation
// rate against the bar's volume, capped at full participation.
type VolumeWeightedSlippage struct {
	BaseBps      decimal.Decimal
	VolumeImpact decimal.Decimal
}

func (s VolumeWeightedSlippage) Calculate(order types.OrderRequest, bar types.Bar) decimal.Decimal {
	participation := decimal.Zero
	if bar.Volume.IsPositive() {
		ratio := order.Quantity.Div(bar.Volume)
		if ratio.LessThan(decimal.NewFromInt(1)) {
			participation = ratio
		} else {
			participation = decimal.NewFromInt(1)
		}
	}
	slippageBps := s.BaseBps.Add(s.VolumeImpact.Mul(participation))
	return bar.Midrange().Mul(slippageBps).Div(decimal.NewFromInt(10000))
}

// PFOFSlippage applies a fixed adverse-selection markup in basis points,
// modeling payment-for-order-flow routing.
type PFOFSlippage struct {
	AdverseBps decimal.Decimal
}

func (s PFOFSlippage) Calculate(order types.OrderRequest, bar types.Bar) decimal.Decimal {
	return bar.Midrange().Mul(s.AdverseBps).Div(decimal.NewFromInt(10000))
}

// SpreadBasedSlippage charges the full bar high-low range as a crude
// spread proxy, for venues without a quoted bid/ask.
type SpreadBasedSlippage struct{}

func (SpreadBasedSlippage) Calculate(_ types.OrderRequest, bar types.Bar) decimal.Decimal {
	return bar.High.Sub(bar.Low)
}
