// Package financing computes daily swap/borrow costs and funding-scenario
// charges for positions held overnight.
package financing

import (
	"time"

	"github.com/shopspring/decimal"
)

var daysPerYear = decimal.NewFromInt(365)

// DailySwap returns the daily financing charge for a notional at an
// annual rate.
func DailySwap(notional, annualRate decimal.Decimal) decimal.Decimal {
	return notional.Mul(annualRate).Div(daysPerYear)
}

// BorrowCost is the daily cost of borrowing shares to hold a short; it
// shares DailySwap's formula.
func BorrowCost(notional, annualBorrowRate decimal.Decimal) decimal.Decimal {
	return DailySwap(notional, annualBorrowRate)
}

// nyLocation is resolved once; if the tzdata database is unavailable the
// swap roll check falls back to a fixed UTC-5 offset rather than panicking.
var nyLocation = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("America/New_York", -5*60*60)
	}
	return loc
}()

// SwapApplicable reports whether swaps should be applied at the 5pm New
// York roll for the given timestamp.
func SwapApplicable(timestamp time.Time) bool {
	nyTime := timestamp.In(nyLocation)
	rollHour, rollMin := 17, 0
	if nyTime.Hour() > rollHour || (nyTime.Hour() == rollHour && nyTime.Minute() >= rollMin) {
		return true
	}
	return false
}

// SwapMultiplierForWeekday triples the swap charge on Wednesday, per FX
// triple-swap convention (covers the weekend roll).
func SwapMultiplierForWeekday(timestamp time.Time) int {
	if timestamp.In(nyLocation).Weekday() == time.Wednesday {
		return 3
	}
	return 1
}

// Scenario is a named funding-rate environment for stress scenarios.
type Scenario struct {
	Name       string
	AnnualRate float64
}

// Scenarios are the funding-rate environments available for stress testing.
var Scenarios = map[string]Scenario{
	"base":     {Name: "base", AnnualRate: 0.03},
	"elevated": {Name: "elevated", AnnualRate: 0.08},
	"spike":    {Name: "spike", AnnualRate: 0.15},
}

// FundingCharge computes a funding charge for a notional over a number of
// days under a named scenario, falling back to "base" for unknown names.
func FundingCharge(notional, days float64, scenario string) float64 {
	scen, ok := Scenarios[scenario]
	if !ok {
		scen = Scenarios["base"]
	}
	dailyRate := scen.AnnualRate / 365.0
	return notional * dailyRate * days
}
