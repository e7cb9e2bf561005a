package engine

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/yanun0323/logs"

	"main/internal/market"
)

var (
	ErrZeroUnits     = errors.New("order has zero units")
	ErrUnknownKind   = errors.New("unknown order kind")
	ErrMissingPrice  = errors.New("order kind requires a trigger price")
	ErrOrderNotFound = errors.New("order not found")
)

// Listener receives terminal order transitions. OrderFilled gets the raw
// mid price; applying spread and updating accounts is the listener's job.
// A fill error cancels the order instead.
type Listener interface {
	OrderFilled(order *Order, mid market.Pippettes, now time.Time) error
	OrderCancelled(order *Order, now time.Time)
}

// Engine holds every resting order and drives them against the market.
// Orders enter open, and leave exactly once as filled or cancelled.
type Engine struct {
	market   Market
	listener Listener

	mu      sync.Mutex
	nextID  int64
	pending []*Order
}

func New(m Market, listener Listener) *Engine {
	return &Engine{market: m, listener: listener, nextID: 1}
}

// Submit validates the order, assigns its ID and queues it. The order
// rests until Process fills, expires or cancels it.
func (e *Engine) Submit(order *Order) error {
	if order.Units == 0 {
		return errors.Wrapf(ErrZeroUnits, "instrument: %s", order.Instrument)
	}
	switch order.Kind {
	case KindMarket:
	case KindLimit, KindTakeProfit, KindStopLoss:
		if order.Price <= 0 {
			return errors.Wrapf(ErrMissingPrice, "kind: %s", order.Kind)
		}
	default:
		return errors.Wrapf(ErrUnknownKind, "kind: %d", order.Kind)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	order.ID = e.nextID
	e.nextID++
	order.Status = StatusOpen
	e.pending = append(e.pending, order)
	return nil
}

// Cancel removes a resting order and notifies the listener.
func (e *Engine) Cancel(accountID string, orderID int64, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, order := range e.pending {
		if order.ID != orderID || order.AccountID != accountID {
			continue
		}
		order.Status = StatusCancelled
		e.pending = append(e.pending[:i], e.pending[i+1:]...)
		e.listener.OrderCancelled(order, now)
		return nil
	}
	return errors.Wrapf(ErrOrderNotFound, "account: %s, order: %d", accountID, orderID)
}

// Pending returns the account's resting orders, oldest first.
func (e *Engine) Pending(accountID string) []*Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	var orders []*Order
	for _, order := range e.pending {
		if order.AccountID == accountID {
			orders = append(orders, order)
		}
	}
	return orders
}

// Process advances every resting order to the given time. Expired orders
// cancel even while the market is closed; nothing fills without a quote.
func (e *Engine) Process(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	open := e.market.IsOpen(now)
	remaining := e.pending[:0]
	for _, order := range e.pending {
		if order.expired(now) {
			order.Status = StatusCancelled
			e.listener.OrderCancelled(order, now)
			continue
		}
		if !open {
			remaining = append(remaining, order)
			continue
		}
		mid, ok := e.market.Price(order.Instrument, now)
		if !ok || !order.shouldFill(mid) {
			remaining = append(remaining, order)
			continue
		}
		order.Status = StatusFilled
		if err := e.listener.OrderFilled(order, mid, now); err != nil {
			logs.Warnf("order %d rejected, err: %+v", order.ID, err)
			order.Status = StatusCancelled
			e.listener.OrderCancelled(order, now)
		}
	}
	e.pending = remaining
}
