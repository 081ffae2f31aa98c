// Package orders implements the TransactionManager & Order FSM (spec
// §4.7): order submission/update/cancellation, the order status machine,
// and ticket lifecycle.
//
// Grounded on the teacher's internal/modules/trading/service.go
// (TradingService.ExecuteTrade request/result shape) and the broker-agnostic
// order vocabulary in internal/domain/broker_types.go, generalized from a
// single synchronous broker call to the full async FSM spec §4.7 requires.
package orders

import (
	"fmt"
	"time"

	"github.com/aristath/tradesim/internal/marketdata"
	"github.com/google/uuid"
)

// Type is the order type, determining how FillModel evaluates it.
type Type int

const (
	TypeMarket Type = iota
	TypeLimit
	TypeStopMarket
	TypeStopLimit
	TypeMarketOnOpen
	TypeMarketOnClose
)

func (t Type) String() string {
	switch t {
	case TypeMarket:
		return "market"
	case TypeLimit:
		return "limit"
	case TypeStopMarket:
		return "stopMarket"
	case TypeStopLimit:
		return "stopLimit"
	case TypeMarketOnOpen:
		return "marketOnOpen"
	case TypeMarketOnClose:
		return "marketOnClose"
	default:
		return "unknown"
	}
}

// Status is an order's FSM state. Terminal states are Filled, Canceled,
// Invalid.
type Status int

const (
	StatusNew Status = iota
	StatusSubmitted
	StatusPartiallyFilled
	StatusFilled
	StatusCanceled
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusSubmitted:
		return "submitted"
	case StatusPartiallyFilled:
		return "partiallyFilled"
	case StatusFilled:
		return "filled"
	case StatusCanceled:
		return "canceled"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether s admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusFilled || s == StatusCanceled || s == StatusInvalid
}

// UpdateRequest is a patch applied to a live order (spec §4.7 Update).
type UpdateRequest struct {
	Quantity *float64
	Limit    *float64
	Stop     *float64
	Tag      *string
}

// Order is one tracked order and its FSM state.
type Order struct {
	ID             int64
	IdempotencyKey string // google/uuid key for live-mode dedupe, spec §4.8 domain stack note

	Symbol    marketdata.Symbol
	Type      Type
	Quantity  float64 // signed: positive buy, negative sell
	Limit     float64
	Stop      float64
	Tag       string
	Async     bool

	Status         Status
	FilledQuantity float64
	AvgFillPrice   float64

	SubmittedAt time.Time
	UpdateRequests []UpdateRequest

	insertionSeq int64 // FIFO-per-symbol ordering, spec §4.7
}

// Ticket is the read-only view a strategy holds on a submitted order,
// backed by an Update/Cancel façade that calls the Manager so the owner
// (TransactionManager) remains the sole mutator (spec DESIGN NOTES §9 —
// "shared ownership... clean separation by making the ticket a read-only
// view plus a façade").
type Ticket struct {
	order   *Order
	manager *Manager
}

// OrderID returns the order's id.
func (t *Ticket) OrderID() int64 { return t.order.ID }

// Status returns the order's current status.
func (t *Ticket) Status() Status { return t.order.Status }

// FilledQuantity returns the cumulative filled quantity.
func (t *Ticket) FilledQuantity() float64 { return t.order.FilledQuantity }

// AvgFillPrice returns the volume-weighted average fill price so far.
func (t *Ticket) AvgFillPrice() float64 { return t.order.AvgFillPrice }

// Update enqueues an update request against the owning order.
func (t *Ticket) Update(req UpdateRequest) error {
	return t.manager.Update(t.order.ID, req)
}

// Cancel cancels the owning order through its Manager; the status becomes
// Canceled immediately, or an error is returned if the order is terminal.
func (t *Ticket) Cancel() error {
	return t.manager.Cancel(t.order.ID)
}

func newIdempotencyKey() string {
	return uuid.NewString()
}

func validateSubmit(o *Order) error {
	if o.Quantity == 0 {
		return fmt.Errorf("orders: quantity must be non-zero")
	}
	switch o.Type {
	case TypeLimit, TypeStopLimit:
		if o.Limit == 0 {
			return fmt.Errorf("orders: %s order requires a limit price", o.Type)
		}
	}
	switch o.Type {
	case TypeStopMarket, TypeStopLimit:
		if o.Stop == 0 {
			return fmt.Errorf("orders: %s order requires a stop price", o.Type)
		}
	}
	return nil
}
