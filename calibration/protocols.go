// Package calibration declares the interfaces for score calibration and
// expected-value threshold selection. No concrete strategy ships yet;
// these are extension points a future phase implements.
package calibration

// Sample pairs a model score with its realized outcome label, the input
// a Strategy or EVThresholdSelector calibrates against.
type Sample struct {
	Score float64
	Label bool
}

// CalibrationResult holds a calibrated score series and the fitted
// parameters that produced it.
type CalibrationResult struct {
	Scores []float64
	Params map[string]float64
}

// Strategy calibrates raw model scores into probabilities using a
// per-fold fit (e.g. temperature or Platt scaling).
type Strategy interface {
	Calibrate(samples []Sample) (CalibrationResult, error)
}

// ThresholdResult is the selected decision threshold plus the diagnostics
// that justified it.
type ThresholdResult struct {
	Threshold  float64
	Precision  float64
	Recall     float64
	TradeCount int
}

// EVThresholdSelector picks a score threshold that maximizes expected
// value subject to minimum precision, recall, and trade-count constraints.
type EVThresholdSelector interface {
	Select(samples []Sample) (ThresholdResult, error)
}
