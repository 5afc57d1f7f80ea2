package accounting

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liqsim/barsim/types"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func fill(side types.Side, qty, price string) types.Fill {
	return types.Fill{
		Symbol:    "AAPL",
		Side:      side,
		Quantity:  d(qty),
		Price:     d(price),
		Timestamp: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestPositionRecordFIFOClose(t *testing.T) {
	rec := &PositionRecord{}
	rec.ApplyFill(fill(types.Buy, "10", "100"))
	rec.ApplyFill(fill(types.Buy, "5", "110"))

	realized := rec.ApplyFill(fill(types.Sell, "12", "120"))
	// closes 10@100 (pnl 200) then 2@110 (pnl 20) = 220
	assert.True(t, realized.Equal(d("220")))
	assert.True(t, rec.NetQuantity().Equal(d("3")))
}

func TestPositionRecordFlipToShort(t *testing.T) {
	rec := &PositionRecord{}
	rec.ApplyFill(fill(types.Buy, "5", "100"))
	rec.ApplyFill(fill(types.Sell, "8", "90"))
	assert.True(t, rec.NetQuantity().Equal(d("-3")))
	assert.True(t, rec.Lots[0].Quantity.Equal(d("-3")))
}

func TestAccountStateApplyFillBuyDebitsCash(t *testing.T) {
	acct := NewAccountState(d("10000"))
	_, err := acct.ApplyFill(fill(types.Buy, "10", "100"), ApplyFillOptions{})
	require.NoError(t, err)
	assert.True(t, acct.Cash.Equal(d("9000")))
}

func TestAccountStateApplyFillSellWithSettlement(t *testing.T) {
	acct := NewAccountState(d("0"))
	acct.ApplyFill(fill(types.Buy, "10", "100"), ApplyFillOptions{})
	_, err := acct.ApplyFill(fill(types.Sell, "10", "110"), ApplyFillOptions{SettlementDays: 2})
	require.NoError(t, err)
	assert.True(t, acct.UnsettledCash.Equal(d("1100")))
	assert.Len(t, acct.SettlementQueue, 1)

	acct.ProcessSettlement(acct.SettlementQueue[0].ReleaseTime)
	assert.True(t, acct.UnsettledCash.IsZero())
}

func TestAccountStateBorrowCostAccruesAtFillTime(t *testing.T) {
	acct := NewAccountState(d("10000"))
	rate := d("0.10")
	cashBefore := acct.Cash
	_, err := acct.ApplyFill(fill(types.Sell, "10", "100"), ApplyFillOptions{BorrowRateAnnual: &rate})
	require.NoError(t, err)
	assert.True(t, acct.Cash.LessThan(cashBefore.Add(d("1000"))))
}

func TestAccountStateApplyDailySwapLongsPay(t *testing.T) {
	acct := NewAccountState(d("10000"))
	acct.ApplyFill(fill(types.Buy, "10", "100"), ApplyFillOptions{})
	loc, _ := time.LoadLocation("America/New_York")
	rollTime := time.Date(2024, 1, 4, 18, 0, 0, 0, loc) // Thursday, not the triple-swap day
	cashBefore := acct.Cash
	acct.ApplyDailySwap(rollTime, map[string]decimal.Decimal{"AAPL": d("0.05")}, map[string]decimal.Decimal{"AAPL": d("100")}, nil)
	assert.True(t, acct.Cash.LessThan(cashBefore))
}

func TestToPortfolioStateMarksOpenPositions(t *testing.T) {
	acct := NewAccountState(d("10000"))
	acct.ApplyFill(fill(types.Buy, "10", "100"), ApplyFillOptions{})
	state := acct.ToPortfolioState(map[string]decimal.Decimal{"AAPL": d("120")}, time.Now(), nil)
	pos := state.Positions["AAPL"]
	assert.True(t, pos.Quantity.Equal(d("10")))
	assert.True(t, state.Equity.Equal(d("9000").Add(d("1200"))))
}
