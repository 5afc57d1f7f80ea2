// Package simulator runs the per-bar event loop: daily reset, settlement,
// financing, equity tracking, kill-switch evaluation, order activation,
// the constraint pipeline, matching, bracket management, and equity-curve
// recording. It is the orchestrator every other barsim package feeds into.
package simulator

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/liqsim/barsim/accounting"
	"github.com/liqsim/barsim/brackets"
	"github.com/liqsim/barsim/execution"
	"github.com/liqsim/barsim/fees"
	"github.com/liqsim/barsim/financing"
	"github.com/liqsim/barsim/internal/config"
	"github.com/liqsim/barsim/reporting"
	"github.com/liqsim/barsim/risk"
	"github.com/liqsim/barsim/slippage"
	"github.com/liqsim/barsim/types"
	"github.com/liqsim/barsim/validation"
)

// RejectedOrder records an order the constraint pipeline refused to fill.
type RejectedOrder struct {
	Order     types.OrderRequest
	Reason    string
	Timestamp time.Time
}

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	Timestamp time.Time
	Equity    decimal.Decimal
}

// Result is everything a completed run produced.
type Result struct {
	Fills           []types.Fill
	EquityCurve     []EquityPoint
	PortfolioStates []types.PortfolioState
	SlippageStats   map[string]float64
	FundingCharged  decimal.Decimal
	RejectedOrders  []RejectedOrder
}

// Simulator owns one account and its provider/runtime configuration
// across a run. Construct with New, never directly.
type Simulator struct {
	ProviderConfig config.ProviderConfig
	Config         config.SimulatorConfig
	Account        *accounting.AccountState

	feeModel      fees.CommissionModel
	slippageModel slippage.Model
	killSwitch    *risk.KillSwitch
	riskCaps      risk.StaticCaps

	peakEquity       decimal.Decimal
	dailyStartEquity decimal.Decimal
	startingEquity   decimal.Decimal
	currentDay       *time.Time
	activeBrackets   []brackets.BracketState
	tradesToday      int

	metrics *Metrics
}

// New constructs a Simulator, seeding the account from SimulatorConfig's
// initial capital and resolving the provider's fee/slippage models.
func New(providerCfg config.ProviderConfig, simCfg config.SimulatorConfig, feeModel fees.CommissionModel, slippageModel slippage.Model) *Simulator {
	account := accounting.NewAccountState(simCfg.InitialCapital)
	account.AccountCurrency = providerCfg.AccountCurrency
	if providerCfg.PDTEnabled && account.DayTradesRemaining == nil {
		remaining := 3
		account.DayTradesRemaining = &remaining
	}

	initEquity := account.Cash.Add(account.UnsettledCash)

	s := &Simulator{
		ProviderConfig:   providerCfg,
		Config:           simCfg,
		Account:          account,
		feeModel:         feeModel,
		slippageModel:    slippageModel,
		killSwitch:       risk.NewKillSwitch(simCfg.MaxDrawdownPct, simCfg.MaxDailyLossPct),
		riskCaps:         risk.StaticCaps{Config: risk.CapsConfig(simCfg.RiskCaps), StartingEquity: initEquity},
		peakEquity:       initEquity,
		dailyStartEquity: initEquity,
		startingEquity:   initEquity,
		metrics:          newMetrics(),
	}
	return s
}

type pendingOrder struct {
	originIdx int
	order     types.OrderRequest
}

// Run executes orders against bars in order, returning the fills, equity
// curve, and rejected orders produced. fxRates and swapRates are optional
// and may be nil.
func (s *Simulator) Run(orders []types.OrderRequest, bars []types.Bar, fxRates, swapRates map[string]decimal.Decimal) Result {
	minDelay := s.Config.MinOrderDelayBars
	var fills []types.Fill
	var equityCurve []EquityPoint
	var portfolioStates []types.PortfolioState
	var rejectedOrders []RejectedOrder
	fundingTotal := decimal.Zero
	var slippageSamples []float64

	log.Info().
		Int("order_count", len(orders)).
		Int("bar_count", len(bars)).
		Int("min_delay_bars", minDelay).
		Str("provider", s.ProviderConfig.Name).
		Msg("simulation started")

	pending := make([]pendingOrder, 0, len(orders))
	for _, order := range orders {
		originIdx := 0
		for idx, bar := range bars {
			if !bar.Timestamp.Before(order.Timestamp) {
				originIdx = idx
				break
			}
		}
		pending = append(pending, pendingOrder{originIdx: originIdx, order: order})
	}
	sortPendingByOrigin(pending)

	var activeOrders []types.OrderRequest
	becameEligible := make(map[string]bool)

	for barIdx, bar := range bars {
		s.dailyReset(bar, fxRates)
		s.Account.ProcessSettlement(bar.Timestamp)

		if len(swapRates) > 0 {
			marksForSwaps := marksAt(s.Account.Symbols(), bar.Close)
			s.Account.ApplyDailySwap(bar.Timestamp, swapRates, marksForSwaps, fxRates)
		}

		if s.Config.Funding.Enabled {
			fundingTotal = fundingTotal.Add(s.applyFunding(bar))
		}

		snapshotOpen := s.Account.ToPortfolioState(marksAt(s.Account.Symbols(), bar.Open), bar.Timestamp, fxRates)
		currentEquity := snapshotOpen.Equity
		if !currentEquity.IsPositive() {
			log.Warn().Str("equity", currentEquity.String()).Time("timestamp", bar.Timestamp).Msg("equity non-positive; halting simulation")
			equityCurve = append(equityCurve, EquityPoint{Timestamp: bar.Timestamp, Equity: decimal.Zero})
			portfolioStates = append(portfolioStates, snapshotOpen)
			break
		}
		if currentEquity.GreaterThan(s.peakEquity) {
			s.peakEquity = currentEquity
		}
		s.killSwitch.Evaluate(currentEquity, s.peakEquity, s.dailyStartEquity)
		if s.killSwitch.Engaged {
			s.metrics.killSwitchEngaged.Set(1)
		}
		s.metrics.equity.Set(toFloat(currentEquity))
		s.metrics.peakEquity.Set(toFloat(s.peakEquity))

		pending, activeOrders = activateEligible(pending, barIdx, minDelay, bar, activeOrders, becameEligible)

		executed := make(map[string]bool)
		markCache := make(map[string]decimal.Decimal)
		for _, order := range activeOrders {
			markForConstraints, ok := markCache[order.Symbol]
			if !ok {
				markForConstraints = bar.Open
				markCache[order.Symbol] = markForConstraints
			}
			preMarks := marksAt(s.Account.Symbols(), bar.Open)
			portfolioSnapshot := s.Account.ToPortfolioState(preMarks, bar.Timestamp, fxRates)

			if reason, ok := s.checkRiskCaps(order, portfolioSnapshot); !ok {
				rejectedOrders = append(rejectedOrders, RejectedOrder{Order: order, Reason: reason, Timestamp: bar.Timestamp})
				s.metrics.rejections.WithLabelValues(reason).Inc()
				continue
			}

			isDayTrade := s.isDayTrade(order, bar)

			if err := s.checkConstraints(order, portfolioSnapshot, markForConstraints, isDayTrade); err != nil {
				rejectedOrders = append(rejectedOrders, RejectedOrder{Order: order, Reason: err.Error(), Timestamp: bar.Timestamp})
				s.metrics.rejections.WithLabelValues("constraint_violation").Inc()
				log.Debug().Str("order_id", order.ClientOrderID).Str("symbol", order.Symbol).Str("reason", err.Error()).Msg("order rejected")
				continue
			}

			slip := s.slippageModel.Calculate(order, bar)
			isMaker := order.OrderType == types.Limit && order.LimitPrice != nil &&
				((order.Side == types.Buy && order.LimitPrice.LessThan(bar.Open)) ||
					(order.Side == types.Sell && order.LimitPrice.GreaterThan(bar.Open)))
			commission := s.feeModel.Calculate(order, bar.Open, isMaker)

			fill := execution.Match(order, bar, execution.MatchOptions{
				Slippage:   slip,
				Commission: commission,
				Provider:   s.ProviderConfig.Name,
				Timestamp:  &bar.Timestamp,
			})
			if fill == nil {
				continue
			}

			slippageSamples = append(slippageSamples, toFloat(slip))
			executed[order.ClientOrderID] = true
			if isDayTrade && s.Account.DayTradesRemaining != nil {
				remaining := *s.Account.DayTradesRemaining - 1
				if remaining < 0 {
					remaining = 0
				}
				s.Account.DayTradesRemaining = &remaining
			}
			s.tradesToday++

			realized, _ := s.Account.ApplyFill(*fill, accounting.ApplyFillOptions{
				SettlementDays:   s.ProviderConfig.SettlementDays,
				BorrowRateAnnual: s.ProviderConfig.BorrowRateAnnual,
				FXRates:          fxRates,
			})
			fill.RealizedPnL = &realized
			fills = append(fills, *fill)
			s.metrics.fills.WithLabelValues(string(fill.Side)).Inc()

			log.Debug().
				Str("order_id", order.ClientOrderID).
				Str("symbol", fill.Symbol).
				Str("side", string(fill.Side)).
				Str("quantity", fill.Quantity.String()).
				Str("price", fill.Price.String()).
				Str("realized_pnl", realized.String()).
				Msg("order filled")

			bracket := brackets.CreateBrackets(order)
			if bracket.StopLoss != nil || bracket.TakeProfit != nil {
				s.activeBrackets = append(s.activeBrackets, bracket)
			}
		}
		activeOrders = removeExecuted(activeOrders, executed)

		var remainingBrackets []brackets.BracketState
		for _, bracket := range s.activeBrackets {
			trigger, _ := brackets.ProcessBrackets(bracket, bar.High, bar.Low)
			if trigger == nil {
				remainingBrackets = append(remainingBrackets, bracket)
				continue
			}
			triggerType := "take_profit"
			if trigger == bracket.StopLoss {
				triggerType = "stop_loss"
			}
			log.Debug().Str("parent_id", bracket.ParentID).Str("trigger_type", triggerType).Str("symbol", trigger.Symbol).Msg("bracket triggered")
			s.metrics.bracketTriggers.WithLabelValues(triggerType).Inc()

			slip := s.slippageModel.Calculate(*trigger, bar)
			commission := s.feeModel.Calculate(*trigger, bar.Open, false)
			fill := execution.Match(*trigger, bar, execution.MatchOptions{
				Slippage:   slip,
				Commission: commission,
				Provider:   s.ProviderConfig.Name,
				Timestamp:  &bar.Timestamp,
			})
			if fill != nil {
				realized, _ := s.Account.ApplyFill(*fill, accounting.ApplyFillOptions{
					SettlementDays:   s.ProviderConfig.SettlementDays,
					BorrowRateAnnual: s.ProviderConfig.BorrowRateAnnual,
					FXRates:          fxRates,
				})
				fill.RealizedPnL = &realized
				fills = append(fills, *fill)
				slippageSamples = append(slippageSamples, toFloat(slip))
				s.tradesToday++
				s.metrics.fills.WithLabelValues(string(fill.Side)).Inc()
			}
		}
		s.activeBrackets = remainingBrackets

		if len(activeOrders) > 0 {
			activeOrders = expireDayOrders(activeOrders, executed, becameEligible)
		}

		marks := marksAt(s.Account.Symbols(), bar.Close)
		portfolio := s.Account.ToPortfolioState(marks, bar.Timestamp, fxRates)
		equityCurve = append(equityCurve, EquityPoint{Timestamp: bar.Timestamp, Equity: portfolio.Equity})
		portfolioStates = append(portfolioStates, portfolio)
	}

	finalEquity := decimal.Zero
	if len(equityCurve) > 0 {
		finalEquity = equityCurve[len(equityCurve)-1].Equity
	}
	log.Info().
		Int("fill_count", len(fills)).
		Int("rejected_count", len(rejectedOrders)).
		Str("final_equity", finalEquity.String()).
		Msg("simulation completed")

	return Result{
		Fills:           fills,
		EquityCurve:     equityCurve,
		PortfolioStates: portfolioStates,
		SlippageStats:   reporting.SlippagePercentiles(slippageSamples, s.Config.SlippageReporting.Percentiles),
		FundingCharged:  fundingTotal,
		RejectedOrders:  rejectedOrders,
	}
}

func (s *Simulator) dailyReset(bar types.Bar, fxRates map[string]decimal.Decimal) {
	if s.currentDay != nil && sameDate(*s.currentDay, bar.Timestamp) {
		return
	}
	marks := marksAt(s.Account.Symbols(), bar.Open)
	snapshot := s.Account.ToPortfolioState(marks, bar.Timestamp, fxRates)
	s.dailyStartEquity = snapshot.Equity
	t := bar.Timestamp
	s.currentDay = &t
	s.tradesToday = 0
}

func (s *Simulator) applyFunding(bar types.Bar) decimal.Decimal {
	total := decimal.Zero
	for _, symbol := range s.Account.Symbols() {
		rec := s.Account.Positions[symbol]
		qty := rec.NetQuantity()
		if qty.IsZero() {
			continue
		}
		notional := qty.Mul(bar.Close).Abs()
		scen, ok := financing.Scenarios[s.Config.Funding.Scenario]
		if !ok {
			scen = financing.Scenarios["base"]
		}
		charge := notional.Mul(decimal.NewFromFloat(scen.AnnualRate)).Div(decimal.NewFromInt(365))
		if qty.IsPositive() {
			s.Account.Cash = s.Account.Cash.Sub(charge)
			rec.RealizedPnL = rec.RealizedPnL.Sub(charge)
		} else {
			s.Account.Cash = s.Account.Cash.Add(charge)
			rec.RealizedPnL = rec.RealizedPnL.Add(charge)
		}
		total = total.Add(charge)
	}
	return total
}

func (s *Simulator) checkRiskCaps(order types.OrderRequest, portfolio types.PortfolioState) (string, bool) {
	netExposure := decimal.Zero
	for _, p := range portfolio.Positions {
		netExposure = netExposure.Add(p.Quantity.Mul(p.CurrentPrice).Abs())
	}
	if !risk.EnforceNetPositionCap(netExposure, portfolio.Equity, s.riskCaps.Config.NetPositionCapPct) {
		return "net_position_cap", false
	}
	if !risk.EnforceEquityFloor(portfolio.Equity, s.riskCaps.Config.EquityFloorPct, s.startingEquity) {
		return "equity_floor", false
	}
	if !risk.EnforceFrequencyCap(s.tradesToday, s.riskCaps.Config.FrequencyCapPerDay) {
		return "frequency_cap", false
	}
	if !risk.EnforcePyramidingLimit(1, s.riskCaps.Config.PyramidingLayers) {
		return "pyramiding_cap", false
	}
	if err := risk.CheckKillSwitch(s.killSwitch.Engaged, order); err != nil {
		return err.Error(), false
	}
	return "", true
}

func (s *Simulator) checkConstraints(order types.OrderRequest, portfolio types.PortfolioState, markPrice decimal.Decimal, isDayTrade bool) error {
	if err := risk.CheckPositionLimit(order, portfolio, s.Config.MaxPositionPct, markPrice); err != nil {
		return err
	}
	if err := risk.CheckBuyingPower(order, portfolio, markPrice); err != nil {
		return err
	}
	if err := risk.CheckMargin(order, portfolio, markPrice, s.ProviderConfig.InitialMarginRate); err != nil {
		return err
	}
	if err := risk.CheckGrossLeverage(order, portfolio, markPrice, s.Config.MaxGrossLeverage); err != nil {
		return err
	}
	if err := risk.CheckShortPermission(order, portfolio, s.ProviderConfig.ShortEnabled, s.ProviderConfig.LocateRequired); err != nil {
		return err
	}
	if err := risk.CheckPDT(portfolio, isDayTrade); err != nil {
		return err
	}
	return nil
}

func (s *Simulator) isDayTrade(order types.OrderRequest, bar types.Bar) bool {
	if !sameDate(order.Timestamp, bar.Timestamp) {
		return false
	}
	rec, ok := s.Account.Positions[order.Symbol]
	if !ok {
		return false
	}
	preQty := rec.NetQuantity()
	if preQty.IsPositive() && order.Side == types.Sell {
		return preQty.Sub(order.Quantity).Sign() <= 0
	}
	if preQty.IsNegative() && order.Side == types.Buy {
		return preQty.Add(order.Quantity).Sign() >= 0
	}
	return false
}

func marksAt(symbols []string, price decimal.Decimal) map[string]decimal.Decimal {
	marks := make(map[string]decimal.Decimal, len(symbols))
	for _, s := range symbols {
		marks[s] = price
	}
	return marks
}

func sortPendingByOrigin(pending []pendingOrder) {
	for i := 1; i < len(pending); i++ {
		j := i
		for j > 0 && pending[j-1].originIdx > pending[j].originIdx {
			pending[j-1], pending[j] = pending[j], pending[j-1]
			j--
		}
	}
}

func activateEligible(pending []pendingOrder, barIdx, minDelay int, bar types.Bar, active []types.OrderRequest, becameEligible map[string]bool) ([]pendingOrder, []types.OrderRequest) {
	i := 0
	for i < len(pending) && pending[i].originIdx <= barIdx {
		if barIdx-pending[i].originIdx < minDelay {
			break
		}
		order := pending[i].order
		if err := validation.AssertNoLookAhead(order.Timestamp, bar.Timestamp); err != nil {
			log.Warn().Str("order_id", order.ClientOrderID).Msg("order dropped: look-ahead bias")
			i++
			continue
		}
		becameEligible[order.ClientOrderID] = true
		active = append(active, order)
		i++
	}
	return pending[i:], active
}

func removeExecuted(active []types.OrderRequest, executed map[string]bool) []types.OrderRequest {
	out := active[:0]
	for _, o := range active {
		if !executed[o.ClientOrderID] {
			out = append(out, o)
		}
	}
	return out
}

func expireDayOrders(active []types.OrderRequest, executed, becameEligible map[string]bool) []types.OrderRequest {
	var out []types.OrderRequest
	for _, o := range active {
		if o.TimeInForce == types.Day && !executed[o.ClientOrderID] && becameEligible[o.ClientOrderID] {
			continue
		}
		out = append(out, o)
	}
	return out
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func toFloat(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}
