// Package engine wires every other component into the single
// event-driven simulation loop: TimeKeeper, SubscriptionManager, the
// DataFeed Merger, UniverseEngine, Portfolio, TransactionManager and
// FillModel, Scheduler, and the warm-up History gate.
//
// Grounded on the teacher's cmd/server/main.go wiring sequence (config
// load -> logger -> storage -> services -> router -> graceful run),
// generalized from a long-running HTTP service's component graph to one
// backtest/paper run's: construct every component once, hand the
// strategy a Context, then drive the merged data stream to completion.
package engine

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/aristath/tradesim/internal/config"
	"github.com/aristath/tradesim/internal/clock"
	"github.com/aristath/tradesim/internal/exchange"
	"github.com/aristath/tradesim/internal/feed"
	"github.com/aristath/tradesim/internal/fill"
	"github.com/aristath/tradesim/internal/history"
	"github.com/aristath/tradesim/internal/indicator"
	"github.com/aristath/tradesim/internal/marketdata"
	"github.com/aristath/tradesim/internal/orders"
	"github.com/aristath/tradesim/internal/portfolio"
	"github.com/aristath/tradesim/internal/scheduler"
	"github.com/aristath/tradesim/internal/storage"
	"github.com/aristath/tradesim/internal/subscription"
	"github.com/aristath/tradesim/internal/universe"
	"github.com/rs/zerolog"
)

// fillModelSeed is the fixed per-run RNG seed for the default fill model
// (spec §9 "seed per algorithm run for determinism"). The engine never
// sets Model.PartialFillRatio or calls RandomPartialRatio, and Context
// gives strategies no handle on the model, so the default model always
// fills in full; the seed only matters for RandomPartialRatio draws.
const fillModelSeed = 1

// identityConverter is a placeholder CurrencyConverter returning a fixed
// 1:1 rate for any currency pair. A real deployment would replace this
// with a rate feed; nothing in the pack ships one, so cross-currency
// totals are only as accurate as this placeholder (documented in
// DESIGN.md).
type identityConverter struct{}

func (identityConverter) Rate(from, to string) (float64, error) { return 1, nil }

// Engine owns every simulation component and drives the merged data
// stream from Run.
type Engine struct {
	log zerolog.Logger
	cfg *config.RunConfig

	clock          *clock.Clock
	calendars      *exchange.Registry
	subs           *subscription.Manager
	orderMgr       *orders.Manager
	portfolio      *portfolio.Portfolio
	universeEngine *universe.Engine
	scheduler      *scheduler.Scheduler
	history        *history.Store
	fillModel      *fill.Model
	provider       DataProvider
	algorithm      Algorithm
	result         *storage.Result
	db             *storage.DB

	indicators map[marketdata.Symbol][]indicator.Indicator
	pendingSub map[marketdata.Symbol]marketdata.SubscriptionConfig

	warmupCfg history.WarmupConfig
	gate      *history.Gate

	benchmark    marketdata.Symbol
	hasBenchmark bool

	strictUser bool
	stopped    bool
	dataErrors int
}

// New constructs an Engine for cfg, ready to run algorithm against data
// served by provider.
func New(cfg *config.RunConfig, algorithm Algorithm, provider DataProvider, log zerolog.Logger) *Engine {
	log = log.With().Str("component", "engine").Logger()

	cash := portfolio.NewCashBook(accountCurrencyFor(cfg), cfg.InitialCash, identityConverter{})

	e := &Engine{
		log:        log,
		cfg:        cfg,
		clock:      clock.New(time.Unix(0, 0).UTC()),
		calendars:  exchange.NewRegistry(),
		subs:       subscription.NewManager(),
		portfolio:  portfolio.New(cash, log),
		scheduler:  scheduler.New(log),
		history:    history.NewStore(),
		fillModel:  fill.NewModel(fillModelSeed, fill.ZeroFeeModel, fill.ZeroSlippageModel),
		provider:   provider,
		algorithm:  algorithm,
		result:     storage.NewResult(),
		indicators: make(map[marketdata.Symbol][]indicator.Indicator),
		pendingSub: make(map[marketdata.Symbol]marketdata.SubscriptionConfig),
	}

	e.orderMgr = orders.NewManager(orders.PermissiveBrokerageModel{}, e.onOrderEvent, log)
	e.universeEngine = universe.NewEngine(e, nil, e.onSecuritiesChanged, log)

	if cfg.ResultsDir != "" {
		db, err := storage.Open(storage.Config{
			Path:    filepath.Join(cfg.ResultsDir, "ledger.sqlite"),
			Profile: storage.ProfileLedger,
			Name:    "run",
		})
		if err != nil {
			e.log.Warn().Err(err).Msg("failed to open run ledger, continuing without sqlite persistence")
		} else {
			e.db = db
		}
	}

	return e
}

// accountCurrencyFor derives the account currency for cash accounting.
// RunConfig doesn't carry an explicit currency field (spec's
// configuration flags list omits one, deferring to the exchange's
// native currency); "usd" is assumed for every built-in calendar
// currently registered.
func accountCurrencyFor(cfg *config.RunConfig) string { return "usd" }

// --- universe.SecurityRegistrar -------------------------------------

// EnsureSecurity satisfies universe.SecurityRegistrar.
func (e *Engine) EnsureSecurity(sym marketdata.Symbol) error {
	return e.portfolio.EnsureSecurity(sym)
}

// RegisterSubscription satisfies universe.SecurityRegistrar. Universe
// selectors are expected to choose among symbols the strategy already
// subscribed via Context.AddSecurity (the common "select among known
// candidates" pattern); this only confirms a subscription exists rather
// than conjuring a default one, since resolution/fillForward/extended
// hours have no sensible default to synthesize.
func (e *Engine) RegisterSubscription(sym marketdata.Symbol) error {
	if !e.subs.Has(sym) {
		e.log.Warn().Str("symbol", sym.Ticker).Msg("universe selected a symbol with no prior subscription; no data will be fed for it")
	}
	return nil
}

// MarkUntradable satisfies universe.SecurityRegistrar.
func (e *Engine) MarkUntradable(sym marketdata.Symbol) error {
	return e.portfolio.MarkUntradable(sym)
}

// CancelOpenOrders satisfies universe.SecurityRegistrar.
func (e *Engine) CancelOpenOrders(sym marketdata.Symbol) error {
	return e.orderMgr.CancelAllForSymbol(sym)
}

// --- wiring helpers used by Context ----------------------------------

func (e *Engine) addSubscription(cfg marketdata.SubscriptionConfig) int {
	order := e.subs.Add(cfg)
	e.pendingSub[cfg.Symbol] = cfg
	return order
}

func (e *Engine) submitOrder(sym marketdata.Symbol, typ orders.Type, qty, limit, stop float64, tag string) (*orders.Ticket, error) {
	sec, ok := e.portfolio.Security(sym)
	if !ok {
		return nil, &ConfigError{Field: "symbol", Reason: fmt.Sprintf("%s: call AddSecurity before submitting orders", sym)}
	}
	return e.orderMgr.Submit(sym, sec.Tradable, typ, qty, limit, stop, false, tag)
}

func (e *Engine) onOrderEvent(ev orders.OrderEvent) {
	if e.db != nil {
		if o, ok := e.orderMgr.Order(ev.OrderID); ok {
			if err := e.db.UpsertOrder(orderRecord(o)); err != nil {
				e.log.Error().Err(err).Int64("order", ev.OrderID).Msg("failed to persist order to ledger")
			}
		}
	}
	e.dispatch("OnOrderEvent", func() { e.algorithm.OnOrderEvent(ev) })
}

// orderRecord projects an orders.Order onto the narrower document storage
// persists (spec §6 result layout).
func orderRecord(o *orders.Order) storage.OrderRecord {
	direction := "buy"
	if o.Quantity < 0 {
		direction = "sell"
	}
	var fillTime time.Time
	if o.Status == orders.StatusFilled || o.Status == orders.StatusPartiallyFilled {
		fillTime = o.SubmittedAt
	}
	return storage.OrderRecord{
		ID:         fmt.Sprintf("%d", o.ID),
		Symbol:     o.Symbol.Ticker,
		Type:       o.Type.String(),
		Direction:  direction,
		Quantity:   o.Quantity,
		FillPrice:  o.AvgFillPrice,
		FillTime:   fillTime,
		Status:     o.Status.String(),
		Commission: 0,
	}
}

func (e *Engine) onSecuritiesChanged(changes universe.Changes) {
	e.dispatch("OnSecuritiesChanged", func() { e.algorithm.OnSecuritiesChanged(changes) })
}

// --- panic-recovery dispatch ------------------------------------------

func (e *Engine) dispatch(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			uerr := &UserError{Callback: name, Cause: toError(r)}
			e.log.Error().Err(uerr).Msg("user callback failed")
			if e.strictUser {
				e.stopped = true
			}
		}
	}()
	fn()
}

func (e *Engine) dispatchMarginCall(requests []MarginCallRequest) []MarginCallRequest {
	result := requests
	func() {
		defer func() {
			if r := recover(); r != nil {
				uerr := &UserError{Callback: "OnMarginCall", Cause: toError(r)}
				e.log.Error().Err(uerr).Msg("user callback failed")
			}
		}()
		result = e.algorithm.OnMarginCall(requests)
	}()
	return result
}

func toError(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}

// --- Run ----------------------------------------------------------------

// Run drives the full simulation: Initialize, build the merged data
// stream, replay every Slice, and fire OnEndOfAlgorithm at completion.
func (e *Engine) Run() (result *storage.Result, err error) {
	ctx := &Context{eng: e}

	if cfgErr := e.initialize(ctx); cfgErr != nil {
		return nil, cfgErr
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	merger, effectiveStart, err := e.buildMerger()
	if err != nil {
		return nil, err
	}
	e.gate = history.NewGate(e.cfg.StartDate, e.warmupCfg, time.Hour)

	if err := e.clock.SetUTC(effectiveStart); err != nil {
		return nil, fmt.Errorf("engine: failed to seed clock: %w", err)
	}

	for !e.stopped {
		slice, err := merger.Next()
		if err != nil {
			return nil, fmt.Errorf("engine: feed error: %w", err)
		}
		if slice == nil {
			break
		}
		if err := e.clock.SetUTC(slice.Time); err != nil {
			return nil, fmt.Errorf("engine: clock regression: %w", err)
		}
		e.processSlice(slice)
	}

	e.dispatch("OnEndOfAlgorithm", func() { e.algorithm.OnEndOfAlgorithm() })

	e.finalizeResult()
	if e.cfg.ResultsDir != "" {
		if err := e.result.WriteJSON(filepath.Join(e.cfg.ResultsDir, "result.json")); err != nil {
			e.log.Error().Err(err).Msg("failed to write result document")
		}
	}
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			e.log.Error().Err(err).Msg("failed to close run ledger")
		}
	}

	return e.result, nil
}

// finalizeResult populates Result.Statistics and Result.Orders once the
// run loop has finished (spec §6 persisted-state layout).
func (e *Engine) finalizeResult() {
	total, err := e.portfolio.TotalPortfolioValue()
	if err == nil {
		e.result.Statistics["finalEquity"] = fmt.Sprintf("%.2f", total)
		if e.cfg.InitialCash > 0 {
			totalReturn := (total - e.cfg.InitialCash) / e.cfg.InitialCash
			e.result.Statistics["totalReturn"] = fmt.Sprintf("%.6f", totalReturn)
		}
	}
	e.result.Statistics["initialCash"] = fmt.Sprintf("%.2f", e.cfg.InitialCash)
	e.result.Statistics["dataErrors"] = fmt.Sprintf("%d", e.dataErrors)
	e.result.Statistics["strictData"] = fmt.Sprintf("%t", e.cfg.StrictData)

	for _, o := range e.orderMgr.AllOrders() {
		e.result.Orders = append(e.result.Orders, orderRecord(o))
	}
}

// initialize recovers any panic raised during Algorithm.Initialize,
// converting it into a *ConfigError (spec §7: only ConfigError halts
// before trading begins).
func (e *Engine) initialize(ctx *Context) (cfgErr error) {
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*ConfigError); ok {
				cfgErr = ce
				return
			}
			cfgErr = &ConfigError{Field: "initialize", Reason: toError(r).Error()}
		}
	}()
	e.algorithm.Initialize(ctx)
	return nil
}

// buildMerger loads historical data for every pending subscription,
// wraps each in a FillForwardSource when requested, and returns the
// k-way Merger plus the earliest instant replay must begin from
// (spec §4.10: widened by the largest warm-up lookback of any
// subscription's bar period).
func (e *Engine) buildMerger() (*feed.Merger, time.Time, error) {
	effectiveStart := e.cfg.StartDate
	var sources []feed.Source

	for sym, cfg := range e.pendingSub {
		period := cfg.Period()
		if period <= 0 {
			period = time.Minute
		}
		start := e.warmupCfg.ResolveStart(e.cfg.StartDate, period)
		if start.Before(effectiveStart) {
			effectiveStart = start
		}

		bars, err := e.provider.Load(cfg, start, e.cfg.EndDate)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("engine: failed to load data for %s: %w", sym, err)
		}

		var clean []marketdata.BaseData
		for _, b := range bars {
			if verr := b.Validate(); verr != nil {
				e.dataErrors++
				derr := &DataError{Symbol: sym.Ticker, Reason: verr.Error()}
				if e.cfg.StrictData {
					return nil, time.Time{}, derr
				}
				e.log.Warn().Err(derr).Msg("discarding malformed sample")
				continue
			}
			clean = append(clean, b)
		}

		order, _ := e.subs.InsertionOrder(sym)
		var src feed.Source = feed.NewMemorySource(sym, order, clean)
		if cfg.FillForward {
			cal, err := e.calendars.Lookup(sym.Market)
			if err != nil {
				cal = nil
			}
			src = feed.NewFillForwardSource(src, cfg, cal)
		}
		sources = append(sources, src)
	}

	// Merger's strict flag guards a distinct failure mode (zero samples
	// across the whole run) from cfg.StrictData (one malformed sample);
	// a backtest producing no data at all is always a configuration
	// mistake worth failing on.
	return feed.NewMerger(sources, true), effectiveStart, nil
}

// processSlice applies one instant's worth of corporate actions, price
// updates, universe evaluation, scheduled actions and order fills, then
// (unless the warm-up gate suppresses it) dispatches OnData.
func (e *Engine) processSlice(slice *marketdata.Slice) {
	for sym := range e.pendingSub {
		e.applyCorporateActions(sym, slice)
		e.updatePriceState(sym, slice)
	}

	if err := e.universeEngine.EvaluateAll(slice); err != nil {
		e.log.Error().Err(err).Msg("universe evaluation failed")
	}

	e.scheduler.Fire(slice.Time)

	for sym := range e.pendingSub {
		e.processFills(sym, slice)
	}

	e.checkMargin()

	for sym := range e.pendingSub {
		if bar, ok := slice.Bar(sym); ok {
			if e.isSessionClose(sym, bar.EndTime) {
				e.dispatch("OnEndOfDay", func() { e.algorithm.OnEndOfDay(sym) })
			}
		}
	}

	suppressed := e.gate.Suppress(slice.Time)
	if !suppressed {
		e.dispatch("OnData", func() { e.algorithm.OnData(slice) })
	}

	if total, err := e.portfolio.TotalPortfolioValue(); err == nil {
		e.result.AddEquityPoint(slice.Time, total)
		if e.db != nil {
			if err := e.db.AppendEquityPoint(storage.EquityPoint{Time: slice.Time, Value: total}); err != nil {
				e.log.Error().Err(err).Msg("failed to persist equity point to ledger")
			}
		}
		if e.hasBenchmark {
			if bar, ok := slice.Bar(e.benchmark); ok {
				e.result.AddChartPoint("benchmark", "close", slice.Time, bar.Close)
			}
		}
	}
}

func (e *Engine) applyCorporateActions(sym marketdata.Symbol, slice *marketdata.Slice) {
	if split, ok := slice.Split(sym); ok && split.SplitFactor != 0 {
		if err := e.portfolio.ApplySplit(sym, split.SplitFactor); err != nil {
			e.log.Error().Err(err).Str("symbol", sym.Ticker).Msg("failed to apply split")
		}
		switch {
		case split.SplitFactor > 1 && e.orderMgr.BrokerageModel().CancelOnReverseSplit():
			if err := e.orderMgr.CancelAllForSymbol(sym); err != nil {
				e.log.Error().Err(err).Str("symbol", sym.Ticker).Msg("failed to cancel orders on reverse split")
			}
		default:
			for _, o := range e.orderMgr.OpenOrdersForSymbol(sym) {
				fill.AdjustForSplit(o, split.SplitFactor)
			}
		}
	}

	if div, ok := slice.Dividend(sym); ok && e.cfg.DataNormalizationMode == "raw" {
		if err := e.portfolio.ApplyDividend(sym, div.DividendDistribution); err != nil {
			e.log.Error().Err(err).Str("symbol", sym.Ticker).Msg("failed to apply dividend")
		}
	}

	if delisting, ok := slice.Delisting(sym); ok && delisting.DelistingType == marketdata.DelistingDelisted {
		if err := e.orderMgr.CancelAllForSymbol(sym); err != nil {
			e.log.Error().Err(err).Str("symbol", sym.Ticker).Msg("failed to cancel orders on delisting")
		}
		if err := e.portfolio.MarkUntradable(sym); err != nil {
			e.log.Error().Err(err).Str("symbol", sym.Ticker).Msg("failed to mark delisted symbol untradable")
		}
	}
}

func (e *Engine) updatePriceState(sym marketdata.Symbol, slice *marketdata.Slice) {
	bar, ok := slice.Bar(sym)
	if !ok {
		return
	}
	e.portfolio.UpdateLastPrice(sym, bar.Close)
	e.history.Record(bar)
	for _, ind := range e.indicators[sym] {
		ind.Update(bar.EndTime, bar.Close)
	}
}

func (e *Engine) processFills(sym marketdata.Symbol, slice *marketdata.Slice) {
	bar, ok := slice.Bar(sym)
	if !ok {
		return
	}
	isOpen := e.isSessionOpen(sym, bar.EndTime)
	isClose := e.isSessionClose(sym, bar.EndTime)

	for _, o := range e.orderMgr.OpenOrdersForSymbol(sym) {
		remaining, err := e.orderMgr.Remaining(o.ID)
		if err != nil {
			continue
		}
		event := e.fillModel.Evaluate(o, bar, remaining, isOpen, isClose)
		if event == nil {
			continue
		}
		if err := e.orderMgr.ApplyFill(event.OrderID, event.FillQty, event.FillPrice); err != nil {
			e.log.Error().Err(err).Int64("order", event.OrderID).Msg("failed to record fill")
			continue
		}
		if err := e.portfolio.ApplyFill(sym, event.FillQty, event.FillPrice, event.Commission); err != nil {
			e.log.Error().Err(err).Int64("order", event.OrderID).Msg("failed to apply fill to portfolio")
		}
	}
}

func (e *Engine) checkMargin() {
	warn, err := e.portfolio.MarginCallWarning()
	if err != nil || !warn {
		return
	}
	e.dispatch("OnMarginCallWarning", func() { e.algorithm.OnMarginCallWarning() })

	remaining, err := e.portfolio.MarginRemaining()
	if err != nil || remaining >= 0 {
		return
	}

	var requests []MarginCallRequest
	for sym, sec := range e.portfolio.Securities() {
		if sec.HoldingsQty != 0 {
			requests = append(requests, MarginCallRequest{Symbol: sym, Quantity: -sec.HoldingsQty})
		}
	}
	if len(requests) == 0 {
		return
	}

	approved := e.dispatchMarginCall(requests)
	for _, req := range approved {
		if _, err := e.submitOrder(req.Symbol, orders.TypeMarket, req.Quantity, 0, 0, "marginCall"); err != nil {
			e.log.Error().Err(err).Str("symbol", req.Symbol.Ticker).Msg("failed to submit margin call liquidation")
		}
	}
}

// isSessionOpen/isSessionClose answer "is this bar's endTime the
// session's open/close instant", used to evaluate marketOnOpen/
// marketOnClose orders. Spec is silent on the exact mechanism; this
// compares bar.EndTime against the calendar's computed open/close for
// that calendar day. Forex/24x5 calendars have no well-defined session
// boundary and always report false for both.
func (e *Engine) isSessionOpen(sym marketdata.Symbol, t time.Time) bool {
	cal, err := e.calendars.Lookup(sym.Market)
	if err != nil || cal.TwentyFourFive {
		return false
	}
	dayStart := startOfDay(t, cal.Timezone)
	open := cal.NextOpen(dayStart.Add(-time.Nanosecond))
	return open.Equal(t)
}

func (e *Engine) isSessionClose(sym marketdata.Symbol, t time.Time) bool {
	cal, err := e.calendars.Lookup(sym.Market)
	if err != nil || cal.TwentyFourFive {
		return false
	}
	dayStart := startOfDay(t, cal.Timezone)
	close := cal.NextClose(dayStart.Add(-time.Nanosecond))
	return close.Equal(t)
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
