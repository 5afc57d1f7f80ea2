// Package brackets manages contingent stop-loss / take-profit legs
// attached to an entry order, including one-cancels-other adverse-path
// resolution when both legs would trigger on the same bar.
package brackets

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/liqsim/barsim/types"
)

// BracketState tracks the active stop-loss/take-profit legs for one
// parent order.
type BracketState struct {
	ParentID   string
	StopLoss   *types.OrderRequest
	TakeProfit *types.OrderRequest
}

// opposite flips buy<->sell for the contingent exit legs of an entry.
func opposite(side types.Side) types.Side {
	if side == types.Buy {
		return types.Sell
	}
	return types.Buy
}

// CreateBrackets builds the stop-loss/take-profit legs configured on an
// entry order's metadata ("stop_loss_price" / "take_profit_price"), if
// present. Either or both may be absent, in which case that leg is nil.
func CreateBrackets(entryOrder types.OrderRequest) BracketState {
	var slPrice, tpPrice *decimal.Decimal
	if entryOrder.Metadata != nil {
		if v, ok := entryOrder.Metadata["stop_loss_price"].(decimal.Decimal); ok {
			slPrice = &v
		}
		if v, ok := entryOrder.Metadata["take_profit_price"].(decimal.Decimal); ok {
			tpPrice = &v
		}
	}

	var stopLoss, takeProfit *types.OrderRequest
	if slPrice != nil {
		stopLoss = &types.OrderRequest{
			ClientOrderID: uuid.NewString(),
			Symbol:        entryOrder.Symbol,
			Side:          opposite(entryOrder.Side),
			OrderType:     types.Stop,
			Quantity:      entryOrder.Quantity,
			StopPrice:     slPrice,
			TimeInForce:   entryOrder.TimeInForce,
			Timestamp:     entryOrder.Timestamp,
		}
	}
	if tpPrice != nil {
		takeProfit = &types.OrderRequest{
			ClientOrderID: uuid.NewString(),
			Symbol:        entryOrder.Symbol,
			Side:          opposite(entryOrder.Side),
			OrderType:     types.Limit,
			Quantity:      entryOrder.Quantity,
			LimitPrice:    tpPrice,
			TimeInForce:   entryOrder.TimeInForce,
			Timestamp:     entryOrder.Timestamp,
		}
	}
	return BracketState{StopLoss: stopLoss, TakeProfit: takeProfit, ParentID: entryOrder.ClientOrderID}
}

// ProcessBrackets decides which leg (if any) triggers against a bar's
// high/low. When both legs would trigger on the same bar, the stop-loss
// wins — the adverse-path assumption that avoids assuming the more
// favorable intra-bar ordering.
func ProcessBrackets(bracket BracketState, barHigh, barLow decimal.Decimal) (triggered *types.OrderRequest, other *types.OrderRequest) {
	slTrigger := bracket.StopLoss != nil && (
		(bracket.StopLoss.Side == types.Sell && barLow.LessThanOrEqual(*bracket.StopLoss.StopPrice)) ||
		(bracket.StopLoss.Side == types.Buy && barHigh.GreaterThanOrEqual(*bracket.StopLoss.StopPrice)))

	tpTrigger := bracket.TakeProfit != nil && (
		(bracket.TakeProfit.Side == types.Sell && barHigh.GreaterThanOrEqual(*bracket.TakeProfit.LimitPrice)) ||
		(bracket.TakeProfit.Side == types.Buy && barLow.LessThanOrEqual(*bracket.TakeProfit.LimitPrice)))

	if slTrigger {
		return bracket.StopLoss, nil
	}
	if tpTrigger {
		return bracket.TakeProfit, nil
	}
	return nil, nil
}
