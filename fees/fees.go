// Package fees implements the commission models a provider configuration
// can select between: zero-commission, tiered maker/taker, and per-share.
package fees

import (
	"github.com/shopspring/decimal"

	"github.com/liqsim/barsim/types"
)

// CommissionModel computes the commission owed on a fill.
type CommissionModel interface {
	Calculate(order types.OrderRequest, fillPrice decimal.Decimal, isMaker bool) decimal.Decimal
}

// ZeroCommissionFee charges nothing, for commission-free providers.
type ZeroCommissionFee struct{}

func (ZeroCommissionFee) Calculate(types.OrderRequest, decimal.Decimal, bool) decimal.Decimal {
	return decimal.Zero
}

// TieredMakerTakerFee charges maker/taker basis-point rates on notional.
type TieredMakerTakerFee struct {
	MakerBps decimal.Decimal
	TakerBps decimal.Decimal
}

func (f TieredMakerTakerFee) Calculate(order types.OrderRequest, fillPrice decimal.Decimal, isMaker bool) decimal.Decimal {
	notional := order.Quantity.Mul(fillPrice)
	bps := f.TakerBps
	if isMaker {
		bps = f.MakerBps
	}
	return notional.Mul(bps).Div(decimal.NewFromInt(10000))
}

// PerShareFee charges a flat amount per unit of quantity, with an
// optional per-order minimum.
type PerShareFee struct {
	RatePerShare decimal.Decimal
	MinPerOrder  decimal.Decimal
}

func (f PerShareFee) Calculate(order types.OrderRequest, _ decimal.Decimal, _ bool) decimal.Decimal {
	fee := order.Quantity.Mul(f.RatePerShare)
	if fee.LessThan(f.MinPerOrder) {
		return f.MinPerOrder
	}
	return fee
}
