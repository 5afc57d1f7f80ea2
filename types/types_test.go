package types

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestBarValidate(t *testing.T) {
	base := Bar{
		Symbol:    "AAPL",
		Timestamp: time.Now(),
		Open:      d("10"),
		High:      d("12"),
		Low:       d("9"),
		Close:     d("11"),
		Volume:    d("100"),
	}
	require.NoError(t, base.Validate())

	bad := base
	bad.Open = d("13")
	assert.Error(t, bad.Validate())

	badVol := base
	badVol.Volume = d("-1")
	assert.Error(t, badVol.Validate())
}

func TestBarMidrange(t *testing.T) {
	b := Bar{High: d("12"), Low: d("8")}
	assert.True(t, b.Midrange().Equal(d("10")))
}

func TestOrderRequestValidate(t *testing.T) {
	price := d("100")
	cases := []struct {
		name    string
		o       OrderRequest
		wantErr bool
	}{
		{"market ok", OrderRequest{ClientOrderID: "a", Quantity: d("1"), OrderType: Market}, false},
		{"limit missing price", OrderRequest{ClientOrderID: "b", Quantity: d("1"), OrderType: Limit}, true},
		{"limit ok", OrderRequest{ClientOrderID: "c", Quantity: d("1"), OrderType: Limit, LimitPrice: &price}, false},
		{"zero qty", OrderRequest{ClientOrderID: "d", Quantity: d("0"), OrderType: Market}, true},
		{"stop_limit missing stop", OrderRequest{ClientOrderID: "e", Quantity: d("1"), OrderType: StopLimit, LimitPrice: &price}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.o.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
