package execution

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

func barAt(open, high, low, close string) types.Bar {
	return types.Bar{
		Symbol:    "AAPL",
		Timestamp: time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC),
		Open:      d(open), High: d(high), Low: d(low), Close: d(close),
		Volume: d("1000"),
	}
}

func TestMatchMarketBuy(t *testing.T) {
	order := types.OrderRequest{ClientOrderID: "1", Symbol: "AAPL", Side: types.Buy, OrderType: types.Market, Quantity: d("10")}
	fill := Match(order, barAt("100", "105", "95", "102"), MatchOptions{Slippage: d("0.5")})
	require.NotNil(t, fill)
	assert.True(t, fill.Price.Equal(d("100.5")))
}

func TestMatchLimitBuyNotTouched(t *testing.T) {
	limit := d("90")
	order := types.OrderRequest{ClientOrderID: "2", Symbol: "AAPL", Side: types.Buy, OrderType: types.Limit, Quantity: d("10"), LimitPrice: &limit}
	fill := Match(order, barAt("100", "105", "95", "102"), MatchOptions{})
	assert.Nil(t, fill)
}

func TestMatchLimitBuyFillsAtBetterPrice(t *testing.T) {
	limit := d("98")
	order := types.OrderRequest{ClientOrderID: "3", Symbol: "AAPL", Side: types.Buy, OrderType: types.Limit, Quantity: d("10"), LimitPrice: &limit}
	fill := Match(order, barAt("95", "105", "90", "102"), MatchOptions{})
	require.NotNil(t, fill)
	assert.True(t, fill.Price.Equal(d("95")))
}

func TestMatchStopSellTriggers(t *testing.T) {
	stop := d("96")
	order := types.OrderRequest{ClientOrderID: "4", Symbol: "AAPL", Side: types.Sell, OrderType: types.Stop, Quantity: d("10"), StopPrice: &stop}
	fill := Match(order, barAt("100", "105", "90", "95"), MatchOptions{Slippage: d("0.25")})
	require.NotNil(t, fill)
	assert.True(t, fill.Price.Equal(d("95.75")))
}

func TestMatchStopLimitConvertsOnceTriggered(t *testing.T) {
	stop := d("105")
	limit := d("106")
	order := types.OrderRequest{ClientOrderID: "5", Symbol: "AAPL", Side: types.Buy, OrderType: types.StopLimit, Quantity: d("10"), StopPrice: &stop, LimitPrice: &limit}
	noFill := Match(order, barAt("100", "104", "98", "103"), MatchOptions{})
	assert.Nil(t, noFill)

	fill := Match(order, barAt("104", "107", "103", "106"), MatchOptions{})
	require.NotNil(t, fill)
}

func TestOrderBookLifecycle(t *testing.T) {
	var filled []types.Fill
	book := NewBook(func(f types.Fill) { filled = append(filled, f) })

	order := types.OrderRequest{ClientOrderID: "x", Symbol: "AAPL", Quantity: d("1")}
	book.Submit(order, 5)
	book.Open("x")

	book.Fill(types.Fill{ClientOrderID: "x", Symbol: "AAPL"})
	assert.Len(t, filled, 1)
	_, ok := book.Get("x")
	assert.False(t, ok)
}

func TestOrderBookRejectAndExpire(t *testing.T) {
	book := NewBook(nil)
	book.Submit(types.OrderRequest{ClientOrderID: "r"}, 0)
	book.Reject("r", "insufficient buying power")
	_, ok := book.Get("r")
	assert.False(t, ok)

	book.Submit(types.OrderRequest{ClientOrderID: "e"}, 0)
	book.Expire("e")
	_, ok = book.Get("e")
	assert.False(t, ok)
}
