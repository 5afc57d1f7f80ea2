package calibration

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// identityStrategy is a trivial Strategy used only to confirm the
// interface is satisfiable by a concrete type.
type identityStrategy struct{}

func (identityStrategy) Calibrate(samples []Sample) (CalibrationResult, error) {
	if len(samples) == 0 {
		return CalibrationResult{}, errors.New("no samples")
	}
	scores := make([]float64, len(samples))
	for i, s := range samples {
		scores[i] = s.Score
	}
	return CalibrationResult{Scores: scores, Params: map[string]float64{"temperature": 1.0}}, nil
}

func TestStrategyInterfaceSatisfiedByConcreteType(t *testing.T) {
	var strat Strategy = identityStrategy{}
	result, err := strat.Calibrate([]Sample{{Score: 0.7, Label: true}})
	assert.NoError(t, err)
	assert.Equal(t, []float64{0.7}, result.Scores)
}

func TestStrategyPropagatesError(t *testing.T) {
	var strat Strategy = identityStrategy{}
	_, err := strat.Calibrate(nil)
	assert.Error(t, err)
}
