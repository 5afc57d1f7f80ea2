// Package types holds the value types shared across barsim's packages.
//
// Kept separate to avoid import cycles between accounting, execution,
// risk and simulator: everything here is an immutable value or a plain
// enum, never a behavior-carrying type.
package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order or fill.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// OrderType selects how an order is matched against a bar.
type OrderType string

const (
	Market    OrderType = "market"
	Limit     OrderType = "limit"
	Stop      OrderType = "stop"
	StopLimit OrderType = "stop_limit"
)

// TimeInForce controls how long an order remains eligible.
type TimeInForce string

const (
	GTC TimeInForce = "gtc"
	Day TimeInForce = "day"
)

// Bar is a single OHLCV observation for a symbol.
type Bar struct {
	Symbol    string
	Timestamp time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
}

// Midrange returns the bar's (high+low)/2 reference price, used by the
// volume-weighted and PFOF slippage models.
func (b Bar) Midrange() decimal.Decimal {
	return b.High.Add(b.Low).Div(decimal.NewFromInt(2))
}

// Validate enforces the OHLC ordering and non-negative volume invariant.
func (b Bar) Validate() error {
	if b.Low.GreaterThan(b.Open) || b.Open.GreaterThan(b.High) {
		return fmt.Errorf("bar %s@%s: open %s outside [low %s, high %s]", b.Symbol, b.Timestamp, b.Open, b.Low, b.High)
	}
	if b.Low.GreaterThan(b.Close) || b.Close.GreaterThan(b.High) {
		return fmt.Errorf("bar %s@%s: close %s outside [low %s, high %s]", b.Symbol, b.Timestamp, b.Close, b.Low, b.High)
	}
	if b.Low.GreaterThan(b.High) {
		return fmt.Errorf("bar %s@%s: low %s greater than high %s", b.Symbol, b.Timestamp, b.Low, b.High)
	}
	if b.Volume.IsNegative() {
		return fmt.Errorf("bar %s@%s: negative volume %s", b.Symbol, b.Timestamp, b.Volume)
	}
	return nil
}

// OrderRequest is an immutable order instruction. ClientOrderID uniqueness
// is the caller's responsibility; the simulator treats it as an opaque key.
type OrderRequest struct {
	ClientOrderID string
	Symbol        string
	Side          Side
	OrderType     OrderType
	Quantity      decimal.Decimal
	LimitPrice    *decimal.Decimal
	StopPrice     *decimal.Decimal
	TimeInForce   TimeInForce
	Timestamp     time.Time
	Metadata      map[string]any
}

// Validate enforces the limit/stop/stop-limit field invariants per order type.
func (o OrderRequest) Validate() error {
	if o.Quantity.Sign() <= 0 {
		return fmt.Errorf("order %s: quantity must be positive, got %s", o.ClientOrderID, o.Quantity)
	}
	switch o.OrderType {
	case Limit:
		if o.LimitPrice == nil {
			return fmt.Errorf("order %s: limit order requires limit_price", o.ClientOrderID)
		}
	case Stop:
		if o.StopPrice == nil {
			return fmt.Errorf("order %s: stop order requires stop_price", o.ClientOrderID)
		}
	case StopLimit:
		if o.StopPrice == nil || o.LimitPrice == nil {
			return fmt.Errorf("order %s: stop_limit order requires both stop_price and limit_price", o.ClientOrderID)
		}
	case Market:
	default:
		return fmt.Errorf("order %s: unknown order type %q", o.ClientOrderID, o.OrderType)
	}
	return nil
}

// Fill is an immutable record of a matched trade.
type Fill struct {
	FillID        string
	ClientOrderID string
	Symbol        string
	Side          Side
	Quantity      decimal.Decimal
	Price         decimal.Decimal
	Commission    decimal.Decimal
	Slippage      decimal.Decimal
	RealizedPnL   *decimal.Decimal
	Timestamp     time.Time
	Provider      string
	IsPartial     bool
}

// Position is an immutable point-in-time snapshot of exposure to a symbol.
type Position struct {
	Symbol       string
	Quantity     decimal.Decimal
	AveragePrice decimal.Decimal
	CurrentPrice decimal.Decimal
	RealizedPnL  decimal.Decimal
	Timestamp    time.Time
}

// PortfolioState is an immutable snapshot of account state used by the
// constraint pipeline; distinct from accounting.AccountState, which is the
// mutable owner of the ledger this is derived from.
type PortfolioState struct {
	Cash               decimal.Decimal
	UnsettledCash      decimal.Decimal
	Positions          map[string]Position
	RealizedPnL        decimal.Decimal
	Equity             decimal.Decimal
	BuyingPower        *decimal.Decimal
	MarginUsed         *decimal.Decimal
	DayTradesRemaining *int
	Timestamp          time.Time
}
