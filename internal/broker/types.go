package broker

import (
	"time"

	"github.com/pkg/errors"

	"main/internal/ledger"
	"main/internal/market"
)

var (
	ErrAccountExists     = errors.New("account already exists")
	ErrAccountNotFound   = errors.New("account not found")
	ErrNoQuote           = errors.New("no quote available")
	ErrShortNotSupported = errors.New("go long on the inverse pair instead of shorting")
	ErrPositionExists    = errors.New("only one open position per pair at a time")
	ErrPartialClose      = errors.New("partial position closes are not supported")
	ErrTradeNotFound     = errors.New("trade not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// RequestError marks a failed gateway call with the operation that issued
// it. Callers treat it as transient and retry on the next interval.
type RequestError struct {
	Operation string
	Err       error
}

func (e *RequestError) Error() string {
	return e.Operation + ": " + e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Quote is one instrument's tradeable prices. Buying pays the ask,
// selling receives the bid.
type Quote struct {
	Instrument market.Instrument
	Bid        market.Pippettes
	Ask        market.Pippettes
}

// OrderRequest asks to open a position. Units must be positive; short
// exposure is taken by buying the inverse instrument. A zero Limit means
// a market order. StopLoss and TakeProfit arm price thresholds that close
// the position once it is open.
type OrderRequest struct {
	Instrument market.Instrument
	Units      int64
	Limit      market.Pippettes
	Expiry     time.Time
	StopLoss   market.Pippettes
	TakeProfit market.Pippettes
}

// TradeHistory is a closed trade plus the minute candles it lived through.
type TradeHistory struct {
	Trade   ledger.Trade
	Candles *market.Series
}
