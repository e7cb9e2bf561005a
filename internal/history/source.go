package history

import (
	"main/internal/market"
)

// Source supplies raw one minute candles for a canonical instrument and
// year. An error means the year could not be read; the cache treats that as
// a year with no data rather than propagating.
type Source interface {
	InstrumentData(instrument market.Instrument, year int) (*market.Series, error)
}
