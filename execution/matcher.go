// Package execution implements bar-level order matching: a pure function
// that decides whether and at what price an order would have filled
// against a single OHLC bar, plus order-lifecycle bookkeeping around it.
package execution

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/liqsim/barsim/types"
)

// MatchOptions carries the per-match inputs that vary by provider and
// model selection.
type MatchOptions struct {
	Slippage   decimal.Decimal
	Commission decimal.Decimal
	Provider   string
	Timestamp  *time.Time
}

// Match decides whether order fills against bar and, if so, at what
// price, following the market/limit/stop/stop-limit x buy/sell table:
//
//   - market: fills at bar.Open +/- slippage (buy pays up, sell gives up).
//   - limit: fills if the bar trades through the limit; price is the
//     better of bar.Open and the limit price.
//   - stop: fills if the bar trades through the stop; price is the worse
//     of bar.Open and the stop price, plus/minus slippage.
//   - stop_limit: converts to a limit order once the stop triggers,
//     otherwise does not fill this bar.
//
// Returns nil when the order does not fill on this bar.
func Match(order types.OrderRequest, bar types.Bar, opts MatchOptions) *types.Fill {
	ts := bar.Timestamp
	if opts.Timestamp != nil {
		ts = *opts.Timestamp
	}

	buildFill := func(price decimal.Decimal, isPartial bool) *types.Fill {
		return &types.Fill{
			FillID:        uuid.NewString(),
			ClientOrderID: order.ClientOrderID,
			Symbol:        order.Symbol,
			Side:          order.Side,
			Quantity:      order.Quantity,
			Price:         price,
			Commission:    opts.Commission,
			Slippage:      opts.Slippage,
			Timestamp:     ts,
			Provider:      opts.Provider,
			IsPartial:     isPartial,
		}
	}

	effectiveType := order.OrderType
	limitPrice := order.LimitPrice
	stopPrice := order.StopPrice

	if order.OrderType == types.StopLimit {
		stop := decimal.Zero
		if stopPrice != nil {
			stop = *stopPrice
		}
		if order.Side == types.Buy {
			if bar.High.GreaterThanOrEqual(stop) {
				effectiveType = types.Limit
			} else {
				return nil
			}
		} else {
			if bar.Low.LessThanOrEqual(stop) {
				effectiveType = types.Limit
			} else {
				return nil
			}
		}
	}

	switch effectiveType {
	case types.Market:
		if order.Side == types.Buy {
			return buildFill(bar.Open.Add(opts.Slippage), false)
		}
		return buildFill(bar.Open.Sub(opts.Slippage), false)

	case types.Limit:
		limit := decimal.Zero
		if limitPrice != nil {
			limit = *limitPrice
		}
		if order.Side == types.Buy {
			if bar.Low.LessThanOrEqual(limit) {
				if bar.Open.LessThan(limit) {
					return buildFill(decimal.Min(bar.Open, limit), false)
				}
				return buildFill(limit, false)
			}
			return nil
		}
		if bar.High.GreaterThanOrEqual(limit) {
			if bar.Open.GreaterThan(limit) {
				return buildFill(decimal.Max(bar.Open, limit), false)
			}
			return buildFill(limit, false)
		}
		return nil

	case types.Stop:
		stop := decimal.Zero
		if stopPrice != nil {
			stop = *stopPrice
		}
		if order.Side == types.Buy {
			if bar.High.GreaterThanOrEqual(stop) {
				price := decimal.Max(stop, bar.Open).Add(opts.Slippage)
				return buildFill(price, false)
			}
			return nil
		}
		if bar.Low.LessThanOrEqual(stop) {
			price := decimal.Min(stop, bar.Open).Sub(opts.Slippage)
			return buildFill(price, false)
		}
		return nil
	}

	return nil
}
