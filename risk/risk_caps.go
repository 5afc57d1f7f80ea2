package risk

import (
	"github.com/shopspring/decimal"
)

// Policy is a pluggable source of risk-cap decisions, letting a caller
// inject custom caps (e.g. sourced from an external risk service) in
// place of StaticCaps.
type Policy interface {
	AllowOrder(netExposure, equity decimal.Decimal, tradesToday, pyramidLayers int) bool
}

// CapsConfig configures StaticCaps; a nil pointer field disables that cap.
type CapsConfig struct {
	NetPositionCapPct  *float64
	PyramidingLayers   *int
	EquityFloorPct     *float64
	FrequencyCapPerDay *int
}

// StaticCaps is a Policy backed by a fixed CapsConfig, the one concrete
// implementation barsim ships.
type StaticCaps struct {
	Config         CapsConfig
	StartingEquity decimal.Decimal
}

// AllowOrder reports whether all configured caps pass.
func (s StaticCaps) AllowOrder(netExposure, equity decimal.Decimal, tradesToday, pyramidLayers int) bool {
	return EnforceNetPositionCap(netExposure, equity, s.Config.NetPositionCapPct) &&
		EnforcePyramidingLimit(pyramidLayers, s.Config.PyramidingLayers) &&
		EnforceEquityFloor(equity, s.Config.EquityFloorPct, s.StartingEquity) &&
		EnforceFrequencyCap(tradesToday, s.Config.FrequencyCapPerDay)
}

// EnforceNetPositionCap reports whether netExposure is within capPct of
// equity; nil capPct means uncapped, and non-positive equity fails closed.
func EnforceNetPositionCap(netExposure, equity decimal.Decimal, capPct *float64) bool {
	if capPct == nil {
		return true
	}
	if !equity.IsPositive() {
		return false
	}
	return netExposure.Abs().LessThanOrEqual(decimal.NewFromFloat(*capPct).Mul(equity))
}

// EnforcePyramidingLimit reports whether currentLayers is below maxLayers;
// nil maxLayers means uncapped.
func EnforcePyramidingLimit(currentLayers int, maxLayers *int) bool {
	if maxLayers == nil {
		return true
	}
	return currentLayers < *maxLayers
}

// EnforceEquityFloor reports whether equity is at or above floorPct of
// startingEquity; nil floorPct means uncapped.
func EnforceEquityFloor(equity decimal.Decimal, floorPct *float64, startingEquity decimal.Decimal) bool {
	if floorPct == nil {
		return true
	}
	return equity.GreaterThanOrEqual(decimal.NewFromFloat(*floorPct).Mul(startingEquity))
}

// EnforceFrequencyCap reports whether tradesToday is below cap; nil cap
// means uncapped.
func EnforceFrequencyCap(tradesToday int, cap *int) bool {
	if cap == nil {
		return true
	}
	return tradesToday < *cap
}
