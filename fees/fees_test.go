package fees

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/liqsim/barsim/types"
)

func TestZeroCommissionFee(t *testing.T) {
	f := ZeroCommissionFee{}
	order := types.OrderRequest{Quantity: decimal.NewFromInt(100)}
	assert.True(t, f.Calculate(order, decimal.NewFromInt(10), true).IsZero())
}

func TestTieredMakerTakerFee(t *testing.T) {
	f := TieredMakerTakerFee{MakerBps: decimal.NewFromInt(5), TakerBps: decimal.NewFromInt(10)}
	order := types.OrderRequest{Quantity: decimal.NewFromInt(100)}
	price := decimal.NewFromInt(50)

	taker := f.Calculate(order, price, false)
	assert.True(t, taker.Equal(decimal.NewFromFloat(5)))

	maker := f.Calculate(order, price, true)
	assert.True(t, maker.Equal(decimal.NewFromFloat(2.5)))
}

func TestPerShareFee(t *testing.T) {
	f := PerShareFee{RatePerShare: decimal.NewFromFloat(0.005), MinPerOrder: decimal.NewFromInt(1)}
	order := types.OrderRequest{Quantity: decimal.NewFromInt(10)}
	assert.True(t, f.Calculate(order, decimal.Zero, false).Equal(decimal.NewFromInt(1)))

	order.Quantity = decimal.NewFromInt(1000)
	assert.True(t, f.Calculate(order, decimal.Zero, false).Equal(decimal.NewFromInt(5)))
}
