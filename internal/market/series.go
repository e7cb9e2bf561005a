package market

import (
	"sort"
	"time"
)

// SeriesEntry is one candle keyed by its interval start.
type SeriesEntry struct {
	Time   time.Time
	Candle Candle
}

// Series is an ordered mapping from interval start to candle for one
// (instrument, time frame) combination. Built once and treated as immutable
// afterwards; every transforming method returns a new series.
type Series struct {
	entries []SeriesEntry
}

// NewSeries builds a series from entries, sorting them by time.
func NewSeries(entries []SeriesEntry) *Series {
	sorted := make([]SeriesEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})
	return &Series{entries: sorted}
}

// EmptySeries returns a series with no candles.
func EmptySeries() *Series {
	return &Series{}
}

func (s *Series) Len() int {
	return len(s.entries)
}

func (s *Series) Empty() bool {
	return len(s.entries) == 0
}

// Entries exposes the backing slice. Callers must not modify it.
func (s *Series) Entries() []SeriesEntry {
	return s.entries
}

func (s *Series) First() SeriesEntry {
	return s.entries[0]
}

func (s *Series) Last() SeriesEntry {
	return s.entries[len(s.entries)-1]
}

// Candle returns the candle at exactly the given interval start.
func (s *Series) Candle(t time.Time) (Candle, bool) {
	i := s.search(t)
	if i < len(s.entries) && s.entries[i].Time.Equal(t) {
		return s.entries[i].Candle, true
	}
	return Candle{}, false
}

// Between returns the sub-series covering [from, to], both ends inclusive.
// The result shares the backing array.
func (s *Series) Between(from, to time.Time) *Series {
	lo := s.search(from)
	hi := s.search(to)
	if hi < len(s.entries) && s.entries[hi].Time.Equal(to) {
		hi++
	}
	if lo >= hi {
		return EmptySeries()
	}
	return &Series{entries: s.entries[lo:hi]}
}

// Inverse returns the series with every candle replaced by its reciprocal.
func (s *Series) Inverse() *Series {
	entries := make([]SeriesEntry, len(s.entries))
	for i, e := range s.entries {
		entries[i] = SeriesEntry{Time: e.Time, Candle: e.Candle.Inverse()}
	}
	return &Series{entries: entries}
}

// WithCandle returns a copy with the candle at t replaced, or appended in
// order if no candle exists there.
func (s *Series) WithCandle(t time.Time, c Candle) *Series {
	i := s.search(t)
	if i < len(s.entries) && s.entries[i].Time.Equal(t) {
		entries := make([]SeriesEntry, len(s.entries))
		copy(entries, s.entries)
		entries[i].Candle = c
		return &Series{entries: entries}
	}
	entries := make([]SeriesEntry, 0, len(s.entries)+1)
	entries = append(entries, s.entries[:i]...)
	entries = append(entries, SeriesEntry{Time: t, Candle: c})
	entries = append(entries, s.entries[i:]...)
	return &Series{entries: entries}
}

// Candles returns just the candle values, in order.
func (s *Series) Candles() []Candle {
	candles := make([]Candle, len(s.entries))
	for i, e := range s.entries {
		candles[i] = e.Candle
	}
	return candles
}

// search returns the index of the first entry at or after t.
func (s *Series) search(t time.Time) int {
	return sort.Search(len(s.entries), func(i int) bool {
		return !s.entries[i].Time.Before(t)
	})
}

// MergeSeries concatenates several series into one, later series winning on
// duplicate interval starts.
func MergeSeries(series ...*Series) *Series {
	total := 0
	for _, s := range series {
		total += s.Len()
	}
	byTime := make(map[int64]SeriesEntry, total)
	for _, s := range series {
		for _, e := range s.entries {
			byTime[e.Time.UnixNano()] = e
		}
	}
	entries := make([]SeriesEntry, 0, len(byTime))
	for _, e := range byTime {
		entries = append(entries, e)
	}
	return NewSeries(entries)
}

// AggregateSeries rolls a finer-grained series up into the given time frame.
// Intervals with no underlying candles are skipped, never forged.
func AggregateSeries(tf TimeFrame, fine *Series) *Series {
	if fine.Empty() {
		return EmptySeries()
	}

	first := tf.Start(fine.First().Time)
	last := tf.Start(fine.Last().Time)

	var entries []SeriesEntry
	for current := first; !current.After(last); current = tf.Next(current) {
		next := tf.Next(current)
		bucket := fine.Between(current, next.Add(-time.Nanosecond))
		if bucket.Empty() {
			continue
		}
		candle, err := Aggregate(bucket.Candles())
		if err != nil {
			continue
		}
		entries = append(entries, SeriesEntry{Time: current, Candle: candle})
	}
	return &Series{entries: entries}
}
