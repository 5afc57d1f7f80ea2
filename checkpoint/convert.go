package checkpoint

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/liqsim/barsim/accounting"
	"github.com/liqsim/barsim/brackets"
	"github.com/liqsim/barsim/types"
)

func accountToSnapshot(a *accounting.AccountState) accountSnapshot {
	positions := make(map[string]positionSnapshot, len(a.Positions))
	for symbol, rec := range a.Positions {
		lots := make([]lotSnapshot, 0, len(rec.Lots))
		for _, lot := range rec.Lots {
			lots = append(lots, lotSnapshot{
				Quantity:   lot.Quantity.String(),
				EntryPrice: lot.EntryPrice.String(),
				EntryTime:  lot.EntryTime,
			})
		}
		positions[symbol] = positionSnapshot{Lots: lots, RealizedPnL: rec.RealizedPnL.String()}
	}

	settlement := make([]settlementSnapshot, 0, len(a.SettlementQueue))
	for _, e := range a.SettlementQueue {
		settlement = append(settlement, settlementSnapshot{Amount: e.Amount.String(), ReleaseTime: e.ReleaseTime})
	}

	return accountSnapshot{
		Cash:               a.Cash.String(),
		UnsettledCash:      a.UnsettledCash.String(),
		Positions:          positions,
		PositionOrder:      a.Symbols(),
		SettlementQueue:    settlement,
		DayTradesRemaining: a.DayTradesRemaining,
		AccountCurrency:    a.AccountCurrency,
		LastSwapTime:       a.LastSwapTime,
	}
}

func snapshotToAccount(s accountSnapshot) (*accounting.AccountState, error) {
	cash, err := decimal.NewFromString(s.Cash)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: bad cash: %w", err)
	}
	acct := accounting.NewAccountState(cash)

	unsettled, err := decimal.NewFromString(s.UnsettledCash)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: bad unsettled_cash: %w", err)
	}
	acct.UnsettledCash = unsettled
	acct.DayTradesRemaining = s.DayTradesRemaining
	acct.AccountCurrency = s.AccountCurrency
	acct.LastSwapTime = s.LastSwapTime

	for _, symbol := range s.PositionOrder {
		posSnap, ok := s.Positions[symbol]
		if !ok {
			continue
		}
		rec := &accounting.PositionRecord{}
		realized, err := decimal.NewFromString(posSnap.RealizedPnL)
		if err != nil {
			return nil, fmt.Errorf("checkpoint: bad realized_pnl for %s: %w", symbol, err)
		}
		rec.RealizedPnL = realized
		for _, lotSnap := range posSnap.Lots {
			qty, err := decimal.NewFromString(lotSnap.Quantity)
			if err != nil {
				return nil, fmt.Errorf("checkpoint: bad lot quantity for %s: %w", symbol, err)
			}
			entry, err := decimal.NewFromString(lotSnap.EntryPrice)
			if err != nil {
				return nil, fmt.Errorf("checkpoint: bad lot entry_price for %s: %w", symbol, err)
			}
			rec.Lots = append(rec.Lots, &accounting.PositionLot{
				Quantity:   qty,
				EntryPrice: entry,
				EntryTime:  lotSnap.EntryTime,
			})
		}
		acct.RestorePosition(symbol, rec)
	}

	for _, entrySnap := range s.SettlementQueue {
		amount, err := decimal.NewFromString(entrySnap.Amount)
		if err != nil {
			return nil, fmt.Errorf("checkpoint: bad settlement amount: %w", err)
		}
		acct.SettlementQueue = append(acct.SettlementQueue, accounting.SettlementEntry{
			Amount:      amount,
			ReleaseTime: entrySnap.ReleaseTime,
		})
	}

	return acct, nil
}

func orderToSnapshot(o *types.OrderRequest) *orderSnapshot {
	if o == nil {
		return nil
	}
	snap := &orderSnapshot{
		ClientOrderID: o.ClientOrderID,
		Symbol:        o.Symbol,
		Side:          string(o.Side),
		OrderType:     string(o.OrderType),
		Quantity:      o.Quantity.String(),
		TimeInForce:   string(o.TimeInForce),
		Timestamp:     o.Timestamp,
	}
	if o.LimitPrice != nil {
		v := o.LimitPrice.String()
		snap.LimitPrice = &v
	}
	if o.StopPrice != nil {
		v := o.StopPrice.String()
		snap.StopPrice = &v
	}
	return snap
}

func snapshotToOrder(s *orderSnapshot) *types.OrderRequest {
	if s == nil {
		return nil
	}
	qty, _ := decimal.NewFromString(s.Quantity)
	order := &types.OrderRequest{
		ClientOrderID: s.ClientOrderID,
		Symbol:        s.Symbol,
		Side:          types.Side(s.Side),
		OrderType:     types.OrderType(s.OrderType),
		Quantity:      qty,
		TimeInForce:   types.TimeInForce(s.TimeInForce),
		Timestamp:     s.Timestamp,
	}
	if s.LimitPrice != nil {
		v, _ := decimal.NewFromString(*s.LimitPrice)
		order.LimitPrice = &v
	}
	if s.StopPrice != nil {
		v, _ := decimal.NewFromString(*s.StopPrice)
		order.StopPrice = &v
	}
	return order
}

func bracketsToSnapshot(active []brackets.BracketState) []bracketSnapshot {
	out := make([]bracketSnapshot, 0, len(active))
	for _, b := range active {
		out = append(out, bracketSnapshot{
			ParentID:   b.ParentID,
			StopLoss:   orderToSnapshot(b.StopLoss),
			TakeProfit: orderToSnapshot(b.TakeProfit),
		})
	}
	return out
}

func snapshotToBrackets(snaps []bracketSnapshot) []brackets.BracketState {
	out := make([]brackets.BracketState, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, brackets.BracketState{
			ParentID:   s.ParentID,
			StopLoss:   snapshotToOrder(s.StopLoss),
			TakeProfit: snapshotToOrder(s.TakeProfit),
		})
	}
	return out
}
