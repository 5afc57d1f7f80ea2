package accounting

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/liqsim/barsim/types"
)

// PositionLot is a single open lot: positive quantity for long, negative
// for short, opened at EntryPrice/EntryTime.
type PositionLot struct {
	Quantity   decimal.Decimal
	EntryPrice decimal.Decimal
	EntryTime  time.Time
}

// SettlementEntry is proceeds awaiting settlement before they can be spent.
type SettlementEntry struct {
	Amount      decimal.Decimal
	ReleaseTime time.Time
}

// PositionRecord tracks a symbol's open lots (FIFO order) and its
// realized P&L, accumulated across fills.
type PositionRecord struct {
	Lots        []*PositionLot
	RealizedPnL decimal.Decimal
}

// NetQuantity is the signed sum of all open lots.
func (r *PositionRecord) NetQuantity() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range r.Lots {
		sum = sum.Add(l.Quantity)
	}
	return sum
}

// AvgEntryPrice is the quantity-weighted average entry price across open
// lots; zero when flat.
func (r *PositionRecord) AvgEntryPrice() decimal.Decimal {
	net := r.NetQuantity()
	if net.IsZero() {
		return decimal.Zero
	}
	weighted := decimal.Zero
	for _, l := range r.Lots {
		weighted = weighted.Add(l.EntryPrice.Mul(l.Quantity))
	}
	return weighted.Div(net)
}

// ApplyFill applies a fill to this record's lots (FIFO close, then open a
// new lot with any remaining quantity) and returns the realized P&L
// delta from this fill.
func (r *PositionRecord) ApplyFill(fill types.Fill) decimal.Decimal {
	remaining := fill.Quantity
	realized := decimal.Zero

	if fill.Side == types.Sell {
		left, closed := r.consumeLots(remaining, fill.Price, true)
		realized = realized.Add(closed)
		remaining = left
		if remaining.IsPositive() {
			r.Lots = append(r.Lots, &PositionLot{
				Quantity:   remaining.Neg(),
				EntryPrice: fill.Price,
				EntryTime:  fill.Timestamp,
			})
		}
	} else {
		left, closed := r.consumeLots(remaining, fill.Price, false)
		realized = realized.Add(closed)
		remaining = left
		if remaining.IsPositive() {
			r.Lots = append(r.Lots, &PositionLot{
				Quantity:   remaining,
				EntryPrice: fill.Price,
				EntryTime:  fill.Timestamp,
			})
		}
	}

	r.RealizedPnL = r.RealizedPnL.Add(realized)
	return realized
}

// consumeLots closes lots FIFO against quantity and returns the
// (remaining unconsumed quantity, realized P&L delta). isClosingLong
// selects which side of the book (positive vs negative lots) is eligible
// to be closed.
func (r *PositionRecord) consumeLots(quantity, fillPrice decimal.Decimal, isClosingLong bool) (decimal.Decimal, decimal.Decimal) {
	realized := decimal.Zero
	idx := 0
	for quantity.IsPositive() && idx < len(r.Lots) {
		lot := r.Lots[idx]
		if isClosingLong && !lot.Quantity.IsPositive() {
			idx++
			continue
		}
		if !isClosingLong && !lot.Quantity.IsNegative() {
			idx++
			continue
		}

		closeQty := decimal.Min(quantity, lot.Quantity.Abs())
		var pnl decimal.Decimal
		if isClosingLong {
			pnl = fillPrice.Sub(lot.EntryPrice).Mul(closeQty)
			lot.Quantity = lot.Quantity.Sub(closeQty)
		} else {
			pnl = lot.EntryPrice.Sub(fillPrice).Mul(closeQty)
			lot.Quantity = lot.Quantity.Add(closeQty)
		}
		realized = realized.Add(pnl)
		quantity = quantity.Sub(closeQty)

		if lot.Quantity.IsZero() {
			r.Lots = append(r.Lots[:idx], r.Lots[idx+1:]...)
		} else {
			idx++
		}
	}
	return quantity, realized
}
