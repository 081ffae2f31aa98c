package universe

import (
	"fmt"

	"github.com/aristath/tradesim/internal/marketdata"
	"github.com/rs/zerolog"
)

// SecurityRegistrar is the subset of SecurityManager/Portfolio behavior
// the engine needs on added/removed transitions: create (if absent) and
// register a subscription for an added symbol, cancel open orders and
// mark a removed symbol untradable. Kept as an interface here so
// internal/universe has no import-time dependency on internal/portfolio
// or internal/orders — internal/engine wires the concrete types together.
type SecurityRegistrar interface {
	EnsureSecurity(sym marketdata.Symbol) error
	RegisterSubscription(sym marketdata.Symbol) error
	MarkUntradable(sym marketdata.Symbol) error
	CancelOpenOrders(sym marketdata.Symbol) error
}

// SecurityInitializer customizes a newly created security (e.g. seeding
// leverage, fee model) before OnSecuritiesChanged fires.
type SecurityInitializer func(sym marketdata.Symbol) error

// SecuritiesChangedHandler is the strategy-facing onSecuritiesChanged
// callback (spec §6).
type SecuritiesChangedHandler func(changes Changes)

// Engine evaluates every registered Universe on its schedule and drives
// security lifecycle transitions from the diff.
//
// Weak-reference semantics (spec §4.5): removing a symbol from a universe
// does not destroy a security that was also independently added by
// another universe or directly by the strategy. The engine tracks a
// reference count per symbol across all universes and only calls
// MarkUntradable when the count drops to zero.
type Engine struct {
	universes   []*Universe
	registrar   SecurityRegistrar
	initializer SecurityInitializer
	onChanged   SecuritiesChangedHandler
	refCounts   map[marketdata.Symbol]int
	log         zerolog.Logger
}

// NewEngine creates an Engine driving registrar with the given
// initializer and onSecuritiesChanged callback.
func NewEngine(registrar SecurityRegistrar, initializer SecurityInitializer, onChanged SecuritiesChangedHandler, log zerolog.Logger) *Engine {
	return &Engine{
		registrar:   registrar,
		initializer: initializer,
		onChanged:   onChanged,
		refCounts:   make(map[marketdata.Symbol]int),
		log:         log.With().Str("component", "universe_engine").Logger(),
	}
}

// Register adds a Universe the engine will evaluate when EvaluateAll runs.
func (e *Engine) Register(u *Universe) {
	e.universes = append(e.universes, u)
}

// SetInitializer swaps the SecurityInitializer invoked on newly added
// symbols (spec §6 setSecurityInitializer, called during strategy
// initialization, after the engine's universe Engine already exists).
func (e *Engine) SetInitializer(initializer SecurityInitializer) {
	e.initializer = initializer
}

// EvaluateAll runs every registered universe whose schedule is due at
// slice.Time against slice, applying the resulting diffs: creating/
// subscribing added symbols, invoking the initializer, canceling orders
// and marking removed symbols untradable (unless another universe or
// direct addition still references them), and firing
// onSecuritiesChanged once per universe with a non-empty diff. A
// universe not yet due is skipped entirely (spec §4.5: evaluated at the
// universe's configured schedule, typically daily, not every instant).
func (e *Engine) EvaluateAll(slice *marketdata.Slice) error {
	for _, u := range e.universes {
		if !u.Due(slice.Time) {
			continue
		}
		changes := u.Evaluate(slice)
		u.Advance(slice.Time)
		if changes.IsEmpty() {
			continue
		}

		for _, sym := range changes.Added {
			e.refCounts[sym]++
			if e.refCounts[sym] == 1 {
				if err := e.registrar.EnsureSecurity(sym); err != nil {
					return fmt.Errorf("universe: failed to create security %s: %w", sym, err)
				}
				if err := e.registrar.RegisterSubscription(sym); err != nil {
					return fmt.Errorf("universe: failed to subscribe %s: %w", sym, err)
				}
				if e.initializer != nil {
					if err := e.initializer(sym); err != nil {
						return fmt.Errorf("universe: security initializer failed for %s: %w", sym, err)
					}
				}
			}
		}

		for _, sym := range changes.Removed {
			e.refCounts[sym]--
			if e.refCounts[sym] <= 0 {
				delete(e.refCounts, sym)
				if err := e.registrar.CancelOpenOrders(sym); err != nil {
					return fmt.Errorf("universe: failed to cancel orders for %s: %w", sym, err)
				}
				if err := e.registrar.MarkUntradable(sym); err != nil {
					return fmt.Errorf("universe: failed to mark %s untradable: %w", sym, err)
				}
			}
		}

		if e.onChanged != nil {
			e.onChanged(changes)
		}
	}
	return nil
}
