package risk

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/liqsim/barsim/types"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func portfolio(cash decimal.Decimal, positions map[string]types.Position) types.PortfolioState {
	equity := cash
	for _, p := range positions {
		equity = equity.Add(p.Quantity.Mul(p.CurrentPrice))
	}
	return types.PortfolioState{Cash: cash, Positions: positions, Equity: equity, Timestamp: time.Now()}
}

func buyOrder(symbol, qty string) types.OrderRequest {
	return types.OrderRequest{ClientOrderID: "o", Symbol: symbol, Side: types.Buy, OrderType: types.Market, Quantity: d(qty)}
}

func sellOrder(symbol, qty string) types.OrderRequest {
	return types.OrderRequest{ClientOrderID: "o", Symbol: symbol, Side: types.Sell, OrderType: types.Market, Quantity: d(qty)}
}

func position(symbol, qty, price string) types.Position {
	return types.Position{Symbol: symbol, Quantity: d(qty), CurrentPrice: d(price), AveragePrice: d(price)}
}

func TestCheckGrossLeverageWithinLimitPasses(t *testing.T) {
	p := portfolio(d("100000"), nil)
	err := CheckGrossLeverage(buyOrder("AAPL", "500"), p, d("100"), 1.0)
	assert.NoError(t, err)
}

func TestCheckGrossLeverageExceedingRaises(t *testing.T) {
	p := portfolio(d("100000"), nil)
	err := CheckGrossLeverage(buyOrder("AAPL", "1500"), p, d("100"), 1.0)
	assert.ErrorIs(t, err, ErrConstraintViolation)
	assert.Contains(t, err.Error(), "Gross leverage exceeded")
	assert.Contains(t, err.Error(), "150000")
	assert.Contains(t, err.Error(), "100000")
}

func TestCheckGrossLeverageSellStillAddsToProjected(t *testing.T) {
	p := portfolio(d("0"), map[string]types.Position{"AAPL": position("AAPL", "1000", "100")})
	err := CheckGrossLeverage(sellOrder("AAPL", "500"), p, d("100"), 1.0)
	assert.ErrorIs(t, err, ErrConstraintViolation)

	err = CheckGrossLeverage(sellOrder("AAPL", "500"), p, d("100"), 2.0)
	assert.NoError(t, err)
}

func TestCheckGrossLeverageZeroEquityRaises(t *testing.T) {
	p := portfolio(d("0"), nil)
	err := CheckGrossLeverage(buyOrder("AAPL", "1"), p, d("100"), 1.0)
	assert.ErrorIs(t, err, ErrConstraintViolation)
	assert.Contains(t, err.Error(), "non-positive equity")
}

func TestCheckGrossLeverageMixedLongShortSummedAbsolute(t *testing.T) {
	positions := map[string]types.Position{
		"AAPL":  position("AAPL", "300", "100"),
		"GOOGL": position("GOOGL", "-200", "100"),
	}
	p := portfolio(d("50000"), positions)
	err := CheckGrossLeverage(buyOrder("MSFT", "200"), p, d("100"), 1.0)
	assert.Error(t, err)
	err = CheckGrossLeverage(buyOrder("MSFT", "200"), p, d("100"), 1.5)
	assert.NoError(t, err)
}

func TestCheckBuyingPower(t *testing.T) {
	p := portfolio(d("1000"), nil)
	assert.NoError(t, CheckBuyingPower(buyOrder("AAPL", "5"), p, d("100")))
	assert.Error(t, CheckBuyingPower(buyOrder("AAPL", "50"), p, d("100")))
	assert.NoError(t, CheckBuyingPower(sellOrder("AAPL", "50"), p, d("100")))
}

func TestCheckShortPermissionBlocksWhenDisabled(t *testing.T) {
	p := portfolio(d("1000"), nil)
	err := CheckShortPermission(sellOrder("AAPL", "10"), p, false, false)
	assert.Error(t, err)
}

func TestCheckShortPermissionAllowsFlatteningLong(t *testing.T) {
	p := portfolio(d("1000"), map[string]types.Position{"AAPL": position("AAPL", "10", "100")})
	err := CheckShortPermission(sellOrder("AAPL", "10"), p, false, false)
	assert.NoError(t, err)
}

func TestCheckKillSwitchBlocksBuys(t *testing.T) {
	assert.Error(t, CheckKillSwitch(true, buyOrder("AAPL", "1")))
	assert.NoError(t, CheckKillSwitch(true, sellOrder("AAPL", "1")))
	assert.NoError(t, CheckKillSwitch(false, buyOrder("AAPL", "1")))
}

func TestKillSwitchTripsOnDrawdown(t *testing.T) {
	maxDD := 0.2
	ks := NewKillSwitch(&maxDD, nil)
	ks.Evaluate(d("850"), d("1000"), d("1000"))
	assert.False(t, ks.Engaged)
	ks.Evaluate(d("790"), d("1000"), d("1000"))
	assert.True(t, ks.Engaged)
}

func TestKillSwitchStaysEngagedUntilReset(t *testing.T) {
	maxDD := 0.1
	ks := NewKillSwitch(&maxDD, nil)
	ks.Evaluate(d("800"), d("1000"), d("1000"))
	assert.True(t, ks.Engaged)
	ks.Evaluate(d("1000"), d("1000"), d("1000"))
	assert.True(t, ks.Engaged, "kill switch must stay engaged until explicitly reset")
	ks.Reset()
	assert.False(t, ks.Engaged)
}

func TestEnforceEquityFloor(t *testing.T) {
	floor := 0.5
	assert.True(t, EnforceEquityFloor(d("600"), &floor, d("1000")))
	assert.False(t, EnforceEquityFloor(d("400"), &floor, d("1000")))
	assert.True(t, EnforceEquityFloor(d("1"), nil, d("1000")))
}

func TestSizerCalculate(t *testing.T) {
	s := Sizer{RiskPct: d("0.01")}
	qty := s.Calculate(d("100000"), d("100"), d("95"))
	assert.True(t, qty.Equal(d("200")))
}
