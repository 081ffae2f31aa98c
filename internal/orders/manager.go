package orders

import (
	"fmt"

	"github.com/aristath/tradesim/internal/marketdata"
	"github.com/rs/zerolog"
)

// BrokerageModel validates a submit request before it is accepted,
// returning a rejection reason (order ends invalid) or nil to accept.
type BrokerageModel interface {
	ValidateSubmit(o *Order, tradable bool) error

	// CancelOnReverseSplit reports whether a reverse split (factor > 1)
	// should cancel a symbol's open orders outright rather than rescale
	// them (spec §4.6: "reverse splits cancel open orders, governed per
	// brokerage model").
	CancelOnReverseSplit() bool
}

// PermissiveBrokerageModel accepts any well-formed, tradable-symbol
// order — the default used when no brokerage-specific constraints apply.
type PermissiveBrokerageModel struct{}

func (PermissiveBrokerageModel) ValidateSubmit(o *Order, tradable bool) error {
	if !tradable {
		return fmt.Errorf("orders: %s is not tradable", o.Symbol)
	}
	return nil
}

func (PermissiveBrokerageModel) CancelOnReverseSplit() bool { return true }

// OrderEvent is emitted on every FSM transition, mirroring the
// strategy-facing onOrderEvent callback (spec §6).
type OrderEvent struct {
	OrderID   int64
	Symbol    marketdata.Symbol
	Status    Status
	FillQty   float64
	FillPrice float64
	Message   string
}

// Manager is the TransactionManager: owns every Order, assigns
// monotonically increasing ids, and enforces the FSM transitions of
// spec §4.7.
type Manager struct {
	brokerage BrokerageModel
	log       zerolog.Logger

	nextID  int64
	nextSeq int64
	orders  map[int64]*Order
	// bySymbol preserves FIFO submission order per symbol (spec §4.7
	// "within one slice instant, for each symbol orders are evaluated in
	// FIFO submission order").
	bySymbol map[marketdata.Symbol][]*Order

	onEvent func(OrderEvent)
}

// NewManager creates a Manager using brokerage to validate submits and
// onEvent to deliver order-lifecycle events.
func NewManager(brokerage BrokerageModel, onEvent func(OrderEvent), log zerolog.Logger) *Manager {
	if brokerage == nil {
		brokerage = PermissiveBrokerageModel{}
	}
	return &Manager{
		brokerage: brokerage,
		log:       log.With().Str("component", "transaction_manager").Logger(),
		orders:    make(map[int64]*Order),
		bySymbol:  make(map[marketdata.Symbol][]*Order),
		onEvent:   onEvent,
	}
}

// SetBrokerageModel swaps the brokerage model consulted on future
// submits (spec §6 setBrokerageModel, called during strategy
// initialization before any order is placed).
func (m *Manager) SetBrokerageModel(brokerage BrokerageModel) {
	if brokerage == nil {
		brokerage = PermissiveBrokerageModel{}
	}
	m.brokerage = brokerage
}

// BrokerageModel returns the brokerage model currently consulted for
// submits and corporate-action policy.
func (m *Manager) BrokerageModel() BrokerageModel {
	return m.brokerage
}

// Submit validates and accepts a new order, returning a Ticket. An order
// rejected by validateSubmit ends in Invalid and still returns a usable
// (terminal) ticket rather than an error, per spec §4.7: "brokerageModel
// may reject -> invalid" is a state transition, not a submission failure.
func (m *Manager) Submit(sym marketdata.Symbol, tradable bool, typ Type, qty, limit, stop float64, async bool, tag string) (*Ticket, error) {
	o := &Order{
		Symbol:         sym,
		Type:           typ,
		Quantity:       qty,
		Limit:          limit,
		Stop:           stop,
		Tag:            tag,
		Async:          async,
		Status:         StatusNew,
		IdempotencyKey: newIdempotencyKey(),
	}

	if err := validateSubmit(o); err != nil {
		o.Status = StatusInvalid
		m.assignID(o)
		m.emit(o, 0, 0, err.Error())
		return &Ticket{order: o, manager: m}, nil
	}

	if err := m.brokerage.ValidateSubmit(o, tradable); err != nil {
		o.Status = StatusInvalid
		m.assignID(o)
		m.emit(o, 0, 0, err.Error())
		return &Ticket{order: o, manager: m}, nil
	}

	o.Status = StatusSubmitted
	m.assignID(o)
	m.orders[o.ID] = o
	m.bySymbol[sym] = append(m.bySymbol[sym], o)
	m.emit(o, 0, 0, "")

	return &Ticket{order: o, manager: m}, nil
}

func (m *Manager) assignID(o *Order) {
	m.nextID++
	o.ID = m.nextID
	m.nextSeq++
	o.insertionSeq = m.nextSeq
}

// Update applies patch to order id, appending it to the order's
// UpdateRequests queue. Market-on-open/close orders only accept
// Quantity/Tag mutations (spec §4.7).
func (m *Manager) Update(id int64, patch UpdateRequest) error {
	o, ok := m.orders[id]
	if !ok {
		return fmt.Errorf("orders: order %d not found", id)
	}
	if o.Status.IsTerminal() {
		return fmt.Errorf("orders: order %d is terminal (%s), cannot update", id, o.Status)
	}
	if (o.Type == TypeMarketOnOpen || o.Type == TypeMarketOnClose) && (patch.Limit != nil || patch.Stop != nil) {
		return fmt.Errorf("orders: %s orders only accept quantity/tag updates", o.Type)
	}
	o.UpdateRequests = append(o.UpdateRequests, patch)
	if patch.Quantity != nil {
		o.Quantity = *patch.Quantity
	}
	if patch.Limit != nil {
		o.Limit = *patch.Limit
	}
	if patch.Stop != nil {
		o.Stop = *patch.Stop
	}
	if patch.Tag != nil {
		o.Tag = *patch.Tag
	}
	return nil
}

// Cancel transitions order id to Canceled, accepted on any non-terminal
// order (spec §4.7).
func (m *Manager) Cancel(id int64) error {
	o, ok := m.orders[id]
	if !ok {
		return fmt.Errorf("orders: order %d not found", id)
	}
	if o.Status.IsTerminal() {
		return fmt.Errorf("orders: order %d is terminal (%s), cannot cancel", id, o.Status)
	}
	o.Status = StatusCanceled
	m.emit(o, 0, 0, "canceled")
	return nil
}

// CancelAllForSymbol cancels every open order for sym (used by the
// universe engine on removal, spec §4.5).
func (m *Manager) CancelAllForSymbol(sym marketdata.Symbol) error {
	for _, o := range m.bySymbol[sym] {
		if !o.Status.IsTerminal() {
			o.Status = StatusCanceled
			m.emit(o, 0, 0, "canceled: symbol removed from universe")
		}
	}
	return nil
}

// ApplyFill records a fill of fillQty at fillPrice against order id,
// transitioning to PartiallyFilled or Filled depending on whether the
// full remaining quantity was satisfied.
func (m *Manager) ApplyFill(id int64, fillQty, fillPrice float64) error {
	o, ok := m.orders[id]
	if !ok {
		return fmt.Errorf("orders: order %d not found", id)
	}
	if o.Status.IsTerminal() {
		return fmt.Errorf("orders: order %d is terminal (%s), cannot fill", id, o.Status)
	}

	totalFilled := o.FilledQuantity + fillQty
	o.AvgFillPrice = (o.FilledQuantity*o.AvgFillPrice + fillQty*fillPrice) / totalFilled
	o.FilledQuantity = totalFilled

	if remaining(o) == 0 {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartiallyFilled
	}
	m.emit(o, fillQty, fillPrice, "")
	return nil
}

func remaining(o *Order) float64 {
	return o.Quantity - o.FilledQuantity
}

// Remaining returns the unfilled quantity on order id.
func (m *Manager) Remaining(id int64) (float64, error) {
	o, ok := m.orders[id]
	if !ok {
		return 0, fmt.Errorf("orders: order %d not found", id)
	}
	return remaining(o), nil
}

// Order returns the order by id.
func (m *Manager) Order(id int64) (*Order, bool) {
	o, ok := m.orders[id]
	return o, ok
}

// OpenOrdersForSymbol returns sym's non-terminal orders in FIFO
// submission order (spec §4.7).
func (m *Manager) OpenOrdersForSymbol(sym marketdata.Symbol) []*Order {
	var open []*Order
	for _, o := range m.bySymbol[sym] {
		if !o.Status.IsTerminal() {
			open = append(open, o)
		}
	}
	return open
}

// OpenOrdersBySymbolOrder returns every open order grouped by symbol, in
// the slice's stable symbol iteration order (sorted by SecurityIdentifier
// string), ensuring the cross-symbol determinism spec §4.7 requires.
func (m *Manager) OpenOrdersBySymbolOrder() []*Order {
	symbols := make([]marketdata.Symbol, 0, len(m.bySymbol))
	for sym := range m.bySymbol {
		symbols = append(symbols, sym)
	}
	marketdata.SortSymbols(symbols)

	var out []*Order
	for _, sym := range symbols {
		out = append(out, m.OpenOrdersForSymbol(sym)...)
	}
	return out
}

// AllOrders returns every tracked order, grouped by symbol in the
// slice's stable symbol iteration order, terminal and open alike (used
// by the status API's order listing).
func (m *Manager) AllOrders() []*Order {
	symbols := make([]marketdata.Symbol, 0, len(m.bySymbol))
	for sym := range m.bySymbol {
		symbols = append(symbols, sym)
	}
	marketdata.SortSymbols(symbols)

	var out []*Order
	for _, sym := range symbols {
		out = append(out, m.bySymbol[sym]...)
	}
	return out
}

func (m *Manager) emit(o *Order, fillQty, fillPrice float64, msg string) {
	if m.onEvent == nil {
		return
	}
	m.onEvent(OrderEvent{
		OrderID:   o.ID,
		Symbol:    o.Symbol,
		Status:    o.Status,
		FillQty:   fillQty,
		FillPrice: fillPrice,
		Message:   msg,
	})
}
