package execution

import (
	"github.com/rs/zerolog/log"

	"github.com/liqsim/barsim/types"
)

// OrderState is the lifecycle state of a tracked order.
type OrderState string

const (
	StatePending   OrderState = "pending"
	StateOpen      OrderState = "open"
	StateFilled    OrderState = "filled"
	StatePartial   OrderState = "partial"
	StateCancelled OrderState = "cancelled"
	StateRejected  OrderState = "rejected"
	StateExpired   OrderState = "expired"
)

// TrackedOrder pairs an order request with its current lifecycle state
// and the bar index at which it first became eligible to execute.
type TrackedOrder struct {
	Request      types.OrderRequest
	State        OrderState
	OriginBarIdx int
	RejectReason string
}

// Book tracks the lifecycle of orders the simulator has accepted but not
// yet resolved (filled, cancelled, rejected, or expired), mirroring the
// teacher's order-lifecycle bookkeeping but driven by bar index instead
// of live acknowledgements.
type Book struct {
	orders map[string]*TrackedOrder
	onFill func(types.Fill)
}

// NewBook constructs an empty order book with an optional fill callback.
func NewBook(onFill func(types.Fill)) *Book {
	return &Book{orders: make(map[string]*TrackedOrder), onFill: onFill}
}

// Submit registers a new order as pending at originBarIdx.
func (b *Book) Submit(order types.OrderRequest, originBarIdx int) *TrackedOrder {
	tracked := &TrackedOrder{Request: order, State: StatePending, OriginBarIdx: originBarIdx}
	b.orders[order.ClientOrderID] = tracked
	log.Debug().Str("client_order_id", order.ClientOrderID).Str("symbol", order.Symbol).Msg("order submitted")
	return tracked
}

// Open transitions a pending order to open once it clears eligibility.
func (b *Book) Open(clientOrderID string) {
	if t, ok := b.orders[clientOrderID]; ok {
		t.State = StateOpen
	}
}

// Fill marks an order filled (or partially filled) and invokes the fill
// callback, logging the transition in the teacher's voice.
func (b *Book) Fill(fill types.Fill) {
	t, ok := b.orders[fill.ClientOrderID]
	if !ok {
		return
	}
	if fill.IsPartial {
		t.State = StatePartial
	} else {
		t.State = StateFilled
		delete(b.orders, fill.ClientOrderID)
	}
	log.Info().Str("client_order_id", fill.ClientOrderID).Str("symbol", fill.Symbol).
		Str("price", fill.Price.String()).Str("qty", fill.Quantity.String()).Msg("order filled")
	if b.onFill != nil {
		b.onFill(fill)
	}
}

// Reject marks an order rejected with reason and removes it from the book.
func (b *Book) Reject(clientOrderID, reason string) {
	if t, ok := b.orders[clientOrderID]; ok {
		t.State = StateRejected
		t.RejectReason = reason
		delete(b.orders, clientOrderID)
		log.Warn().Str("client_order_id", clientOrderID).Str("reason", reason).Msg("order rejected")
	}
}

// Expire marks a DAY order expired at end of session and removes it from
// the book.
func (b *Book) Expire(clientOrderID string) {
	if t, ok := b.orders[clientOrderID]; ok {
		t.State = StateExpired
		delete(b.orders, clientOrderID)
		log.Debug().Str("client_order_id", clientOrderID).Msg("day order expired")
	}
}

// Cancel removes an order from the book without marking a fill.
func (b *Book) Cancel(clientOrderID string) {
	if t, ok := b.orders[clientOrderID]; ok {
		t.State = StateCancelled
		delete(b.orders, clientOrderID)
	}
}

// Pending returns all currently pending or open tracked orders.
func (b *Book) Pending() []*TrackedOrder {
	out := make([]*TrackedOrder, 0, len(b.orders))
	for _, t := range b.orders {
		if t.State == StatePending || t.State == StateOpen {
			out = append(out, t)
		}
	}
	return out
}

// Get returns the tracked order for clientOrderID, if any.
func (b *Book) Get(clientOrderID string) (*TrackedOrder, bool) {
	t, ok := b.orders[clientOrderID]
	return t, ok
}
