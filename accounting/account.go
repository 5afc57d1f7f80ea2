// Package accounting owns the mutable ledger: FIFO position lots,
// realized P&L, cash, settlement, and daily financing accrual.
package accounting

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/liqsim/barsim/financing"
	"github.com/liqsim/barsim/fx"
	"github.com/liqsim/barsim/types"
)

// AccountState is the mutable ledger for one simulated account.
type AccountState struct {
	Cash               decimal.Decimal
	UnsettledCash      decimal.Decimal
	Positions          map[string]*PositionRecord
	positionOrder      []string // preserves first-seen symbol order for deterministic iteration
	SettlementQueue    []SettlementEntry
	DayTradesRemaining *int
	AccountCurrency    string
	LastSwapTime       *time.Time
}

// NewAccountState constructs an account with the given starting cash.
func NewAccountState(cash decimal.Decimal) *AccountState {
	return &AccountState{
		Cash:            cash,
		Positions:       make(map[string]*PositionRecord),
		AccountCurrency: "USD",
	}
}

func (a *AccountState) recordFor(symbol string) *PositionRecord {
	rec, ok := a.Positions[symbol]
	if !ok {
		rec = &PositionRecord{}
		a.Positions[symbol] = rec
		a.positionOrder = append(a.positionOrder, symbol)
	}
	return rec
}

// RestorePosition installs rec for symbol, preserving first-seen
// insertion order. Used when reconstructing an AccountState from a
// checkpoint, where the caller controls restoration order directly.
func (a *AccountState) RestorePosition(symbol string, rec *PositionRecord) {
	if _, ok := a.Positions[symbol]; !ok {
		a.positionOrder = append(a.positionOrder, symbol)
	}
	a.Positions[symbol] = rec
}

// Symbols returns position symbols in first-seen order, for deterministic
// iteration over the book.
func (a *AccountState) Symbols() []string {
	return append([]string(nil), a.positionOrder...)
}

// ApplyFillOptions carries the optional settlement/borrow/FX context for
// ApplyFill.
type ApplyFillOptions struct {
	SettlementDays   int
	BorrowRateAnnual *decimal.Decimal
	FXRates          map[string]decimal.Decimal
}

// ApplyFill posts a fill to the ledger: updates the symbol's FIFO lots,
// debits/credits cash (queuing sell proceeds for settlement when
// SettlementDays > 0), accrues short borrow cost in full at fill time
// (spec.md §9 open question b), and converts realized P&L into account
// currency when FX rates are supplied. Returns realized P&L in account
// currency.
func (a *AccountState) ApplyFill(fill types.Fill, opts ApplyFillOptions) (decimal.Decimal, error) {
	rec := a.recordFor(fill.Symbol)
	symbolKey := normalizeSymbol(fill.Symbol)
	realizedTradeCcy := rec.ApplyFill(fill)
	realized := realizedTradeCcy

	notional := fill.Price.Mul(fill.Quantity)
	notionalAccountCcy := notional
	if len(opts.FXRates) > 0 && a.AccountCurrency == "USD" && isCrossPair(symbolKey) {
		if converted, err := fx.ConvertToUSD(notional, symbolKey, opts.FXRates); err == nil {
			notionalAccountCcy = converted
		}
	}

	totalCost := notionalAccountCcy.Add(fill.Commission)

	if fill.Side == types.Buy {
		a.Cash = a.Cash.Sub(totalCost)
	} else {
		proceeds := notionalAccountCcy.Sub(fill.Commission)
		if opts.SettlementDays > 0 {
			releaseTime := fill.Timestamp.AddDate(0, 0, opts.SettlementDays)
			a.SettlementQueue = append(a.SettlementQueue, SettlementEntry{Amount: proceeds, ReleaseTime: releaseTime})
			a.UnsettledCash = a.UnsettledCash.Add(proceeds)
		} else {
			a.Cash = a.Cash.Add(proceeds)
		}
	}

	if opts.BorrowRateAnnual != nil && rec.NetQuantity().IsNegative() {
		borrowMark := fill.Price
		if len(opts.FXRates) > 0 && a.AccountCurrency == "USD" && isCrossPair(symbolKey) {
			if converted, err := fx.ConvertToUSD(fill.Price, symbolKey, opts.FXRates); err == nil {
				borrowMark = converted
			}
		}
		cost := financing.BorrowCost(rec.NetQuantity().Abs().Mul(borrowMark), *opts.BorrowRateAnnual)
		a.Cash = a.Cash.Sub(cost)
	}

	if len(opts.FXRates) > 0 && a.AccountCurrency == "USD" && isCrossPair(symbolKey) {
		if convertedRealized, err := fx.ConvertToUSD(realizedTradeCcy, symbolKey, opts.FXRates); err == nil {
			if !convertedRealized.Equal(realizedTradeCcy) {
				rec.RealizedPnL = rec.RealizedPnL.Add(convertedRealized.Sub(realizedTradeCcy))
			}
			realized = convertedRealized
		}
	}

	return realized, nil
}

// ProcessSettlement releases any settlement-queue entries whose release
// time has passed into spendable cash.
func (a *AccountState) ProcessSettlement(currentTime time.Time) {
	remaining := a.SettlementQueue[:0]
	for _, entry := range a.SettlementQueue {
		if !currentTime.Before(entry.ReleaseTime) {
			a.UnsettledCash = a.UnsettledCash.Sub(entry.Amount)
			a.Cash = a.Cash.Add(entry.Amount)
		} else {
			remaining = append(remaining, entry)
		}
	}
	a.SettlementQueue = remaining
}

// ApplyDailySwap applies financing swaps at roll time using the supplied
// per-symbol swap rates and marks. Longs pay, shorts receive, when the
// swap rate is positive (spec.md §9 open question c).
func (a *AccountState) ApplyDailySwap(currentTime time.Time, swapRates, marks, fxRates map[string]decimal.Decimal) {
	if !financing.SwapApplicable(currentTime) {
		return
	}
	if a.LastSwapTime != nil && sameDate(*a.LastSwapTime, currentTime) {
		return
	}
	for _, symbol := range a.positionOrder {
		rec := a.Positions[symbol]
		if rec.NetQuantity().IsZero() {
			continue
		}
		rate, ok := swapRates[symbol]
		if !ok {
			continue
		}
		mark, ok := marks[symbol]
		if !ok {
			continue
		}
		markCcy := mark
		symbolKey := normalizeSymbol(symbol)
		if len(fxRates) > 0 && a.AccountCurrency == "USD" && isCrossPair(symbolKey) {
			if converted, err := fx.ConvertToUSD(mark, symbolKey, fxRates); err == nil {
				markCcy = converted
			}
		}
		multiplier := decimal.NewFromInt(int64(financing.SwapMultiplierForWeekday(currentTime)))
		notional := rec.NetQuantity().Abs().Mul(markCcy)
		cost := financing.DailySwap(notional, rate).Mul(multiplier)
		if rec.NetQuantity().IsPositive() {
			a.Cash = a.Cash.Sub(cost)
			rec.RealizedPnL = rec.RealizedPnL.Sub(cost)
		} else {
			a.Cash = a.Cash.Add(cost)
			rec.RealizedPnL = rec.RealizedPnL.Add(cost)
		}
	}
	t := currentTime
	a.LastSwapTime = &t
}

// ToPortfolioState produces an immutable snapshot of the account, marking
// each position at the supplied prices (falling back to average entry
// price when no mark is available).
func (a *AccountState) ToPortfolioState(marks map[string]decimal.Decimal, timestamp time.Time, fxRates map[string]decimal.Decimal) types.PortfolioState {
	positions := make(map[string]types.Position, len(a.positionOrder))
	totalRealized := decimal.Zero
	equity := a.Cash.Add(a.UnsettledCash)

	for _, symbol := range a.positionOrder {
		rec := a.Positions[symbol]
		qty := rec.NetQuantity()
		mark, ok := marks[symbol]
		if !ok {
			mark = rec.AvgEntryPrice()
		}
		markNotional := qty.Mul(mark)
		costNotional := qty.Mul(rec.AvgEntryPrice())
		symbolKey := normalizeSymbol(symbol)
		if len(fxRates) > 0 && a.AccountCurrency == "USD" && isCrossPair(symbolKey) {
			if converted, err := fx.ConvertToUSD(markNotional, symbolKey, fxRates); err == nil {
				markNotional = converted
			}
			if converted, err := fx.ConvertToUSD(costNotional, symbolKey, fxRates); err == nil {
				costNotional = converted
			}
		}

		var markForState, avgPriceState decimal.Decimal
		if !qty.IsZero() {
			markForState = markNotional.Div(qty)
			avgPriceState = costNotional.Div(qty)
		} else {
			markForState = mark
			avgPriceState = rec.AvgEntryPrice()
		}

		positions[symbol] = types.Position{
			Symbol:       symbol,
			Quantity:     qty,
			AveragePrice: avgPriceState,
			RealizedPnL:  rec.RealizedPnL,
			Timestamp:    timestamp,
			CurrentPrice: markForState,
		}
		totalRealized = totalRealized.Add(rec.RealizedPnL)
		equity = equity.Add(markNotional)
	}

	return types.PortfolioState{
		Cash:               a.Cash,
		UnsettledCash:      a.UnsettledCash,
		Positions:          positions,
		RealizedPnL:        totalRealized,
		DayTradesRemaining: a.DayTradesRemaining,
		Timestamp:          timestamp,
		Equity:             equity,
	}
}

func normalizeSymbol(symbol string) string {
	out := make([]rune, 0, len(symbol))
	for _, r := range symbol {
		if r == '-' {
			out = append(out, '_')
		} else {
			out = append(out, r)
		}
	}
	return string(out)
}

func isCrossPair(symbolKey string) bool {
	for _, r := range symbolKey {
		if r == '_' {
			return true
		}
	}
	return false
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
