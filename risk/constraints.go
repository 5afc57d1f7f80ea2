// Package risk implements the pre-trade constraint pipeline (buying
// power, margin, position limits, gross leverage, short permission, PDT,
// kill-switch), risk-cap policies (net exposure, pyramiding, equity
// floor, trade frequency), and the kill-switch state machine.
package risk

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/liqsim/barsim/types"
)

// ErrConstraintViolation is the sentinel every constraint check wraps
// when rejecting an order; callers use errors.Is to detect a soft
// rejection versus a hard failure.
var ErrConstraintViolation = errors.New("constraint violation")

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConstraintViolation, fmt.Sprintf(format, args...))
}

// CheckBuyingPower ensures a buy order's notional does not exceed
// available cash plus unsettled cash. Sell orders are never checked.
func CheckBuyingPower(order types.OrderRequest, portfolio types.PortfolioState, markPrice decimal.Decimal) error {
	if order.Side == types.Sell {
		return nil
	}
	orderValue := order.Quantity.Mul(markPrice)
	available := portfolio.Cash.Add(portfolio.UnsettledCash)
	if orderValue.GreaterThan(available) {
		return violation("insufficient buying power")
	}
	return nil
}

// CheckMargin ensures a buy order's margin requirement does not exceed
// account equity.
func CheckMargin(order types.OrderRequest, portfolio types.PortfolioState, markPrice, initialMarginRate decimal.Decimal) error {
	if order.Side == types.Sell {
		return nil
	}
	required := order.Quantity.Mul(markPrice).Mul(initialMarginRate)
	if required.GreaterThan(portfolio.Equity) {
		return violation("margin requirement exceeds equity")
	}
	return nil
}

// CheckShortPermission blocks new short exposure when the provider
// disallows shorting, or requires a locate when one is configured.
func CheckShortPermission(order types.OrderRequest, portfolio types.PortfolioState, shortEnabled, locateRequired bool) error {
	preQty := decimal.Zero
	if pos, ok := portfolio.Positions[order.Symbol]; ok {
		preQty = pos.Quantity
	}
	if shortEnabled {
		if locateRequired && order.Side == types.Sell {
			wouldBeShort := preQty.Sub(order.Quantity).IsNegative()
			if wouldBeShort {
				locateOK := false
				if order.Metadata != nil {
					if v, ok := order.Metadata["locate_available"].(bool); ok && v {
						locateOK = true
					}
					if v, ok := order.Metadata["locate_borrowed"].(bool); ok && v {
						locateOK = true
					}
				}
				if !locateOK {
					return violation("locate required for short selling")
				}
			}
		}
		return nil
	}
	if order.Side == types.Sell && order.Quantity.GreaterThan(preQty) {
		return violation("shorting not permitted for this provider")
	}
	return nil
}

// CheckPositionLimit ensures a buy order's target value does not exceed
// maxPositionPct of equity. Sell orders (reductions) are never checked.
func CheckPositionLimit(order types.OrderRequest, portfolio types.PortfolioState, maxPositionPct float64, markPrice decimal.Decimal) error {
	if order.Side == types.Sell {
		return nil
	}
	if !portfolio.Equity.IsPositive() {
		return violation("cannot trade with non-positive equity")
	}
	targetValue := order.Quantity.Mul(markPrice)
	maxValue := decimal.NewFromFloat(maxPositionPct).Mul(portfolio.Equity)
	if targetValue.GreaterThan(maxValue) {
		return violation("position limit exceeded")
	}
	return nil
}

// CheckGrossLeverage enforces a cap on total portfolio gross exposure.
// Both buy and sell orders add their order value to the projected
// exposure — this preserves the reference implementation's behavior for
// sells that close an existing position (see DESIGN.md open question 1).
func CheckGrossLeverage(order types.OrderRequest, portfolio types.PortfolioState, markPrice decimal.Decimal, maxGrossLeverage float64) error {
	if !portfolio.Equity.IsPositive() {
		return violation("non-positive equity")
	}
	existingGross := decimal.Zero
	for _, pos := range portfolio.Positions {
		existingGross = existingGross.Add(pos.Quantity.Mul(pos.CurrentPrice).Abs())
	}
	orderValue := order.Quantity.Mul(markPrice)
	projected := existingGross.Add(orderValue)
	cap := decimal.NewFromFloat(maxGrossLeverage).Mul(portfolio.Equity)
	if projected.GreaterThan(cap) {
		return violation("Gross leverage exceeded: projected exposure %s exceeds cap %s (%vx equity)",
			projected.StringFixed(0), cap.StringFixed(0), maxGrossLeverage)
	}
	return nil
}

// CheckPDT enforces the Pattern Day Trader day-trade-count limit.
func CheckPDT(portfolio types.PortfolioState, isDayTrade bool) error {
	if portfolio.DayTradesRemaining == nil {
		return nil
	}
	if isDayTrade && *portfolio.DayTradesRemaining <= 0 {
		return violation("pdt limit exceeded")
	}
	return nil
}

// CheckKillSwitch blocks exposure-increasing (buy) orders once the
// kill-switch is engaged.
func CheckKillSwitch(killSwitchEngaged bool, order types.OrderRequest) error {
	if killSwitchEngaged && order.Side == types.Buy {
		return violation("kill switch engaged; exposure-increasing orders blocked")
	}
	return nil
}
