package brackets

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

func TestCreateBracketsBothLegs(t *testing.T) {
	entry := types.OrderRequest{
		ClientOrderID: "parent",
		Symbol:        "AAPL",
		Side:          types.Buy,
		Quantity:      d("10"),
		Timestamp:     time.Now(),
		Metadata: map[string]any{
			"stop_loss_price":   d("90"),
			"take_profit_price": d("120"),
		},
	}
	state := CreateBrackets(entry)
	require.NotNil(t, state.StopLoss)
	require.NotNil(t, state.TakeProfit)
	assert.Equal(t, types.Sell, state.StopLoss.Side)
	assert.Equal(t, types.Stop, state.StopLoss.OrderType)
	assert.Equal(t, types.Limit, state.TakeProfit.OrderType)
	assert.Equal(t, "parent", state.ParentID)
}

func TestCreateBracketsNoMetadata(t *testing.T) {
	entry := types.OrderRequest{ClientOrderID: "p2", Side: types.Buy, Quantity: d("1")}
	state := CreateBrackets(entry)
	assert.Nil(t, state.StopLoss)
	assert.Nil(t, state.TakeProfit)
}

func TestProcessBracketsAdverseStopLossWins(t *testing.T) {
	entry := types.OrderRequest{
		ClientOrderID: "p3", Side: types.Buy, Quantity: d("10"), Symbol: "AAPL",
		Metadata: map[string]any{"stop_loss_price": d("95"), "take_profit_price": d("105")},
	}
	state := CreateBrackets(entry)
	triggered, other := ProcessBrackets(state, d("106"), d("94"))
	require.NotNil(t, triggered)
	assert.Equal(t, state.StopLoss.ClientOrderID, triggered.ClientOrderID)
	assert.Nil(t, other)
}

func TestProcessBracketsTakeProfitOnly(t *testing.T) {
	entry := types.OrderRequest{
		ClientOrderID: "p4", Side: types.Buy, Quantity: d("10"), Symbol: "AAPL",
		Metadata: map[string]any{"stop_loss_price": d("90"), "take_profit_price": d("110")},
	}
	state := CreateBrackets(entry)
	triggered, other := ProcessBrackets(state, d("112"), d("100"))
	require.NotNil(t, triggered)
	assert.Equal(t, state.TakeProfit.ClientOrderID, triggered.ClientOrderID)
	assert.Nil(t, other)
}

func TestProcessBracketsNoTrigger(t *testing.T) {
	entry := types.OrderRequest{
		ClientOrderID: "p5", Side: types.Buy, Quantity: d("10"), Symbol: "AAPL",
		Metadata: map[string]any{"stop_loss_price": d("90"), "take_profit_price": d("110")},
	}
	state := CreateBrackets(entry)
	triggered, other := ProcessBrackets(state, d("105"), d("95"))
	assert.Nil(t, triggered)
	assert.Nil(t, other)
}
