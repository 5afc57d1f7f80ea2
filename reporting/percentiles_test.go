package reporting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlippagePercentilesEmpty(t *testing.T) {
	got := SlippagePercentiles(nil, []int{50, 90})
	assert.Equal(t, 0.0, got["p50"])
	assert.Equal(t, 0.0, got["p90"])
}

func TestSlippagePercentilesBasic(t *testing.T) {
	samples := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	got := SlippagePercentiles(samples, []int{50, 90, 99})
	assert.InDelta(t, 5.5, got["p50"], 1e-9)
	assert.InDelta(t, 9.1, got["p90"], 1e-9)
	assert.InDelta(t, 9.91, got["p99"], 1e-9)
}

func TestSlippagePercentilesSingleSample(t *testing.T) {
	got := SlippagePercentiles([]float64{42}, []int{50, 99})
	assert.Equal(t, 42.0, got["p50"])
	assert.Equal(t, 42.0, got["p99"])
}
