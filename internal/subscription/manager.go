package subscription

import (
	"fmt"

	"github.com/aristath/tradesim/internal/marketdata"
)

// entry bundles one subscription's config with the consolidators created
// for it, plus its registration order (used by the feed merger's tie-break
// rule in spec §4.4).
type entry struct {
	config       marketdata.SubscriptionConfig
	order        int
	consolidators []*Consolidator
}

// Manager holds every registered SubscriptionConfig and the consolidators
// built on top of each one's raw stream.
type Manager struct {
	entries map[string]*entry // keyed by Symbol.ID.String()
	next    int
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{entries: make(map[string]*entry)}
}

// Add registers a subscription, returning its stable insertion-order
// index (0-based) used for feed-merger tie-breaking.
func (m *Manager) Add(cfg marketdata.SubscriptionConfig) int {
	key := cfg.Symbol.ID.String()
	if e, ok := m.entries[key]; ok {
		return e.order
	}
	order := m.next
	m.next++
	m.entries[key] = &entry{config: cfg, order: order}
	return order
}

// Remove unregisters a subscription and drops its consolidators.
func (m *Manager) Remove(sym marketdata.Symbol) {
	delete(m.entries, sym.ID.String())
}

// Has reports whether a subscription is registered for sym.
func (m *Manager) Has(sym marketdata.Symbol) bool {
	_, ok := m.entries[sym.ID.String()]
	return ok
}

// InsertionOrder returns the registration index of sym's subscription.
func (m *Manager) InsertionOrder(sym marketdata.Symbol) (int, error) {
	e, ok := m.entries[sym.ID.String()]
	if !ok {
		return 0, fmt.Errorf("subscription: %s is not registered", sym)
	}
	return e.order, nil
}

// Config returns the SubscriptionConfig registered for sym.
func (m *Manager) Config(sym marketdata.Symbol) (marketdata.SubscriptionConfig, error) {
	e, ok := m.entries[sym.ID.String()]
	if !ok {
		return marketdata.SubscriptionConfig{}, fmt.Errorf("subscription: %s is not registered", sym)
	}
	return e.config, nil
}

// AddConsolidator attaches a consolidator to sym's subscription; Update
// calls on the raw stream for that symbol should be forwarded to every
// attached consolidator.
func (m *Manager) AddConsolidator(sym marketdata.Symbol, c *Consolidator) error {
	e, ok := m.entries[sym.ID.String()]
	if !ok {
		return fmt.Errorf("subscription: %s is not registered", sym)
	}
	e.consolidators = append(e.consolidators, c)
	return nil
}

// Feed forwards one raw sample to every consolidator registered for its
// symbol.
func (m *Manager) Feed(d marketdata.BaseData) error {
	e, ok := m.entries[d.Symbol.ID.String()]
	if !ok {
		return fmt.Errorf("subscription: %s is not registered", d.Symbol)
	}
	for _, c := range e.consolidators {
		if err := c.Update(d); err != nil {
			return err
		}
	}
	return nil
}

// Symbols returns every registered symbol in insertion order.
func (m *Manager) Symbols() []marketdata.Symbol {
	syms := make([]marketdata.Symbol, len(m.entries))
	for _, e := range m.entries {
		syms[e.order] = e.config.Symbol
	}
	return syms
}
