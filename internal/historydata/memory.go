package historydata

import (
	"sync/atomic"

	"github.com/pkg/errors"

	"main/internal/market"
)

type memoryKey struct {
	instrument market.Instrument
	year       int
}

// MemorySource serves candles from memory, for tests and generated
// fixtures. It counts loads so cache behavior can be asserted.
type MemorySource struct {
	data  map[memoryKey]*market.Series
	loads atomic.Int64
}

func NewMemorySource() *MemorySource {
	return &MemorySource{data: make(map[memoryKey]*market.Series)}
}

// Add registers one minute candles for an instrument and year.
func (s *MemorySource) Add(instrument market.Instrument, year int, series *market.Series) *MemorySource {
	s.data[memoryKey{instrument: instrument, year: year}] = series
	return s
}

func (s *MemorySource) InstrumentData(instrument market.Instrument, year int) (*market.Series, error) {
	s.loads.Add(1)
	series, ok := s.data[memoryKey{instrument: instrument, year: year}]
	if !ok {
		return nil, errors.Errorf("no data for %s in %d", instrument.Symbol(), year)
	}
	return series, nil
}

// Loads reports how many times raw data was requested.
func (s *MemorySource) Loads() int64 {
	return s.loads.Load()
}
