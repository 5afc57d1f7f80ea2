package simulator

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/liqsim/barsim/types"
)

// AggregateBars folds a sequence of fine-grained bars into fixed windows
// (e.g. 1m bars into 5m bars), for simulating against a coarser timeframe
// while still being able to feasibility-check orders against the
// underlying bars via IntraBarFeasible.
func AggregateBars(bars []types.Bar, windowMinutes int) []types.Bar {
	var aggregated []types.Bar
	windowDuration := time.Duration(windowMinutes) * time.Minute
	startIdx := 0
	for startIdx < len(bars) {
		startBar := bars[startIdx]
		windowEnd := startBar.Timestamp.Add(windowDuration)
		idx := startIdx
		var windowBars []types.Bar
		for idx < len(bars) && bars[idx].Timestamp.Before(windowEnd) {
			windowBars = append(windowBars, bars[idx])
			idx++
		}
		if len(windowBars) == 0 {
			break
		}
		agg := types.Bar{
			Symbol:    windowBars[0].Symbol,
			Timestamp: windowBars[len(windowBars)-1].Timestamp,
			Open:      windowBars[0].Open,
			High:      windowBars[0].High,
			Low:       windowBars[0].Low,
			Close:     windowBars[len(windowBars)-1].Close,
			Volume:    windowBars[0].Volume,
		}
		for _, b := range windowBars[1:] {
			if b.High.GreaterThan(agg.High) {
				agg.High = b.High
			}
			if b.Low.LessThan(agg.Low) {
				agg.Low = b.Low
			}
			agg.Volume = agg.Volume.Add(b.Volume)
		}
		aggregated = append(aggregated, agg)
		startIdx = idx
	}
	return aggregated
}

// FeasibilityScanner checks whether a stop or stop-limit order could
// plausibly have triggered within an aggregated bar by scanning the
// underlying fine-grained bars, rate-limited so a large sweep over many
// symbols doesn't starve the caller's event loop.
type FeasibilityScanner struct {
	limiter *rate.Limiter
}

// NewFeasibilityScanner builds a scanner allowing scansPerSecond scans,
// bursting up to int(scansPerSecond)+1.
func NewFeasibilityScanner(scansPerSecond float64) *FeasibilityScanner {
	return &FeasibilityScanner{limiter: rate.NewLimiter(rate.Limit(scansPerSecond), int(scansPerSecond)+1)}
}

// IntraBarFeasible reports whether order could have triggered within
// aggBar, based on the underlying bars spanning its window. Only stop and
// stop-limit orders are checked against the window; every other order
// type, and any call with fewer than two original bars, is reported
// feasible. Blocks briefly if the scan rate has been exceeded.
func (f *FeasibilityScanner) IntraBarFeasible(order types.OrderRequest, aggBar types.Bar, originalBars []types.Bar) bool {
	_ = f.limiter.Wait(context.Background())
	if len(originalBars) < 2 {
		return true
	}
	baseDelta := originalBars[1].Timestamp.Sub(originalBars[0].Timestamp)
	windowStart := aggBar.Timestamp.Add(-5 * baseDelta)

	var window []types.Bar
	for _, b := range originalBars {
		if !b.Timestamp.Before(windowStart) && !b.Timestamp.After(aggBar.Timestamp) {
			window = append(window, b)
		}
	}
	if len(window) == 0 {
		return true
	}

	switch order.OrderType {
	case types.Stop, types.StopLimit:
		if order.StopPrice == nil {
			return true
		}
		if order.Side == types.Buy {
			for _, b := range window {
				if b.High.GreaterThanOrEqual(*order.StopPrice) {
					return true
				}
			}
			return false
		}
		for _, b := range window {
			if b.Low.LessThanOrEqual(*order.StopPrice) {
				return true
			}
		}
		return false
	default:
		return true
	}
}
