package engine

import (
	"time"

	"main/internal/market"
)

// OrderKind tags how an order executes. It replaces a type per behavior
// with a single flat struct; every consumer switches on the kind.
type OrderKind uint8

const (
	KindUnknown OrderKind = iota
	// KindMarket executes at the next available price.
	KindMarket
	// KindLimit executes once the price is at or better than Order.Price.
	KindLimit
	// KindTakeProfit sells a position once the price rises to Order.Price.
	KindTakeProfit
	// KindStopLoss sells a position once the price falls to Order.Price.
	KindStopLoss
)

var orderKindNames = map[OrderKind]string{
	KindMarket:     "MARKET",
	KindLimit:      "LIMIT",
	KindTakeProfit: "TAKE_PROFIT",
	KindStopLoss:   "STOP_LOSS",
}

func (k OrderKind) String() string {
	if name, ok := orderKindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

type OrderStatus uint8

const (
	StatusOpen OrderStatus = iota
	StatusFilled
	StatusCancelled
)

var orderStatusNames = map[OrderStatus]string{
	StatusOpen:      "OPEN",
	StatusFilled:    "FILLED",
	StatusCancelled: "CANCELLED",
}

func (s OrderStatus) String() string {
	if name, ok := orderStatusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Order is a request to trade. Units are signed: positive buys the
// instrument, negative sells it. Price is the trigger threshold and is
// ignored for market orders. TradeID links a take profit or stop loss
// order to the position it closes.
type Order struct {
	ID         int64
	AccountID  string
	Instrument market.Instrument
	Units      int64
	Kind       OrderKind
	Price      market.Pippettes
	TradeID    int64
	Submitted  time.Time
	// Expiry cancels the order once passed. Zero means the order never
	// expires.
	Expiry time.Time
	Status OrderStatus

	// ExecutionPrice is the spread adjusted price the order filled at.
	// Zero until the order fills.
	ExecutionPrice market.Pippettes
}

// DefaultExpiry is the conventional rest period for callers that want
// pending orders to lapse. Orders submitted without an expiry rest forever.
func DefaultExpiry(submitted time.Time) time.Time {
	return submitted.AddDate(0, 3, 0)
}

func (o *Order) expired(now time.Time) bool {
	return !o.Expiry.IsZero() && now.After(o.Expiry)
}

// shouldFill reports whether the mid price triggers execution.
func (o *Order) shouldFill(mid market.Pippettes) bool {
	switch o.Kind {
	case KindMarket:
		return true
	case KindLimit:
		if o.Units > 0 {
			return mid <= o.Price
		}
		return mid >= o.Price
	case KindTakeProfit:
		return mid >= o.Price
	case KindStopLoss:
		return mid <= o.Price
	}
	return false
}
