// Package validation guards against look-ahead bias and enforces the
// minimum-delay eligibility rule every order must clear before it can
// participate in bar matching.
package validation

import (
	"errors"
	"fmt"
	"time"
)

// ErrLookAhead is returned when an order's timestamp implies information
// from a future bar was used to generate it.
var ErrLookAhead = errors.New("look-ahead bias: order timestamp is after current bar timestamp")

// ErrIneligibleOrder is returned when an order has not yet cleared the
// minimum-delay eligibility window.
var ErrIneligibleOrder = errors.New("order not yet eligible for execution")

// IsOrderEligible reports whether an order generated at orderBarIndex may
// execute at currentBarIndex given minDelayBars.
func IsOrderEligible(orderBarIndex, currentBarIndex, minDelayBars int) (bool, error) {
	if minDelayBars < 0 {
		return false, fmt.Errorf("min_delay_bars must be >= 0, got %d", minDelayBars)
	}
	return currentBarIndex-orderBarIndex >= minDelayBars, nil
}

// AssertNoLookAhead returns ErrLookAhead when orderTimestamp is after
// currentBarTimestamp.
func AssertNoLookAhead(orderTimestamp, currentBarTimestamp time.Time) error {
	if orderTimestamp.After(currentBarTimestamp) {
		return ErrLookAhead
	}
	return nil
}

// EnsureOrderEligible wraps IsOrderEligible and returns ErrIneligibleOrder,
// wrapped with the bar indices, when the order cannot yet execute.
func EnsureOrderEligible(orderBarIndex, currentBarIndex, minDelayBars int) error {
	ok, err := IsOrderEligible(orderBarIndex, currentBarIndex, minDelayBars)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: order at bar %d not eligible until bar %d, current bar is %d",
			ErrIneligibleOrder, orderBarIndex, orderBarIndex+minDelayBars, currentBarIndex)
	}
	return nil
}
