package slippage

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/liqsim/barsim/types"
)

func bar(high, low, volume string) types.Bar {
	return types.Bar{High: parse(high), Low: parse(low), Volume: parse(volume)}
}

func parse(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestVolumeWeightedSlippage(t *testing.T) {
	s := VolumeWeightedSlippage{BaseBps: decimal.NewFromInt(5), VolumeImpact: decimal.NewFromInt(10)}
	b := bar("110", "90", "1000")
	order := types.OrderRequest{Quantity: decimal.NewFromInt(100)}
	got := s.Calculate(order, b)
	assert.True(t, got.IsPositive())

	overParticipating := types.OrderRequest{Quantity: decimal.NewFromInt(5000)}
	capped := s.Calculate(overParticipating, b)
	uncapped := s.Calculate(types.OrderRequest{Quantity: decimal.NewFromInt(1000)}, b)
	assert.True(t, capped.Equal(uncapped))
}

func TestPFOFSlippage(t *testing.T) {
	s := PFOFSlippage{AdverseBps: decimal.NewFromInt(20)}
	b := bar("110", "90", "0")
	got := s.Calculate(types.OrderRequest{}, b)
	assert.True(t, got.Equal(parse("0.2")))
}

func TestSpreadBasedSlippage(t *testing.T) {
	s := SpreadBasedSlippage{}
	b := bar("110", "90", "0")
	got := s.Calculate(types.OrderRequest{}, b)
	assert.True(t, got.Equal(parse("20")))
}
