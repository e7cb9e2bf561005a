package engine

import (
	"time"

	"main/internal/history"
	"main/internal/market"
)

// Market supplies prices and trading availability to the engine.
type Market interface {
	// IsOpen reports whether the market trades at all at the given time.
	IsOpen(now time.Time) bool
	// Price returns the instrument's mid price, if one is quoted.
	Price(instrument market.Instrument, now time.Time) (market.Pippettes, bool)
}

// CalendarOpen reports whether the forex market trades at the given wall
// clock time. Trading halts from Friday 16:00 until Sunday 16:00 market
// local time.
func CalendarOpen(t time.Time) bool {
	t = t.In(market.Zone)
	switch t.Weekday() {
	case time.Saturday:
		return false
	case time.Sunday:
		return t.Hour() >= 16
	case time.Friday:
		return t.Hour() <= 15
	}
	return true
}

// HistoricalMarket quotes prices out of recorded candle data. The market
// is open whenever a minute candle was recorded, which already encodes
// weekends and holidays.
type HistoricalMarket struct {
	history *history.Service
}

func NewHistoricalMarket(history *history.Service) *HistoricalMarket {
	return &HistoricalMarket{history: history}
}

func (m *HistoricalMarket) IsOpen(now time.Time) bool {
	_, ok := m.history.GetData(market.EURUSD, now)
	return ok
}

// Price is the open of the minute candle covering now.
func (m *HistoricalMarket) Price(instrument market.Instrument, now time.Time) (market.Pippettes, bool) {
	candle, ok := m.history.GetData(instrument, now)
	if !ok {
		return 0, false
	}
	return candle.Open, true
}

// HasData reports whether any candles were recorded for the date.
func (m *HistoricalMarket) HasData(instrument market.Instrument, date time.Time) bool {
	return m.history.HasData(instrument, date)
}
