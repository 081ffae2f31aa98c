// Package engine assembles clock, feed, scheduler, universe, transaction
// manager, fill model and portfolio into the orchestration loop spec §6
// describes as "clock advances -> DataFeed produces a slice -> Scheduler
// fires -> UniverseEngine may diff membership -> strategy callbacks receive
// slice -> TransactionManager processes requests -> FillModel evaluates
// open orders -> Portfolio mutates on fills/corporate actions -> loop".
//
// Grounded on the teacher's cmd/server/main.go wiring sequence (config ->
// logger -> dependencies -> background loop -> graceful shutdown),
// generalized from a long-running service's DI container to a single
// backtest/paper run's component graph.
package engine

import (
	"github.com/aristath/tradesim/internal/marketdata"
	"github.com/aristath/tradesim/internal/orders"
	"github.com/aristath/tradesim/internal/universe"
)

// Algorithm is the strategy-facing callback surface (spec §6, "core ->
// host"). User strategies implement this interface; the engine package
// ships six reference implementations under internal/engine/examples.
type Algorithm interface {
	// Initialize is called once before the run starts. Strategies use ctx
	// to register securities/universes, configure cash/warmup/brokerage,
	// and schedule recurring actions.
	Initialize(ctx *Context)

	OnData(slice *marketdata.Slice)
	OnSecuritiesChanged(changes universe.Changes)
	OnOrderEvent(event orders.OrderEvent)

	// OnMarginCall receives synthesized liquidation requests and may
	// override them (spec §7 MarginCall); the returned slice is what the
	// engine actually executes.
	OnMarginCall(requests []MarginCallRequest) []MarginCallRequest
	OnMarginCallWarning()

	OnEndOfDay(sym marketdata.Symbol)
	OnBrokerageMessage(msg BrokerageMessage)
	OnEndOfAlgorithm()
}

// MarginCallRequest is one synthesized liquidation the engine proposes
// when margin is exhausted (spec §7).
type MarginCallRequest struct {
	Symbol   marketdata.Symbol
	Quantity float64 // signed: negative reduces a long, positive covers a short
}

// BrokerageSeverity categorizes a live-mode BrokerageError (spec §7).
type BrokerageSeverity int

const (
	SeverityInformation BrokerageSeverity = iota
	SeverityWarning
	SeverityRuntimeError
	SeverityDisconnect
)

func (s BrokerageSeverity) String() string {
	switch s {
	case SeverityInformation:
		return "information"
	case SeverityWarning:
		return "warning"
	case SeverityRuntimeError:
		return "runtimeError"
	case SeverityDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// BrokerageMessage is delivered via onBrokerageMessage (spec §6).
type BrokerageMessage struct {
	Severity BrokerageSeverity
	Message  string
}

// BaseAlgorithm provides no-op defaults for every Algorithm callback
// except Initialize and OnData, so a reference strategy only needs to
// embed it and override what it cares about — the same "implement the
// subset you need" shape as http.Handler helpers in the standard
// library, applied to the wider callback surface here.
type BaseAlgorithm struct{}

func (BaseAlgorithm) OnSecuritiesChanged(universe.Changes)                  {}
func (BaseAlgorithm) OnOrderEvent(orders.OrderEvent)                        {}
func (BaseAlgorithm) OnMarginCall(r []MarginCallRequest) []MarginCallRequest { return r }
func (BaseAlgorithm) OnMarginCallWarning()                                  {}
func (BaseAlgorithm) OnEndOfDay(marketdata.Symbol)                          {}
func (BaseAlgorithm) OnBrokerageMessage(BrokerageMessage)                   {}
func (BaseAlgorithm) OnEndOfAlgorithm()                                     {}
