package history

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	"main/internal/market"
)

// rangeCacheSize bounds the range query cache. Caller supplied ranges are
// far more numerous than (instrument, year) pairs and must not be retained
// indefinitely; eviction only costs a recomputation.
const rangeCacheSize = 300

type rangeKey struct {
	instrument market.Instrument
	frame      market.TimeFrame
	from       int64
	to         int64
}

// Service answers candle range queries for any instrument and time frame
// with minimal recomputation. Nine per-year caches cascade off one another:
// each time frame is a pure aggregation of the next finer one, and only the
// one minute level ever touches the raw source. Inverse instruments have no
// stored series; their candles are derived from the canonical pair.
type Service struct {
	clock  market.Clock
	levels map[market.TimeFrame]*levelCache
	ranges *lru.Cache[rangeKey, *market.Series]
}

// New builds the cache hierarchy over a raw one minute source.
func New(clock market.Clock, source Source) *Service {
	minute := newLevelCache(market.OneMinute, sourceLoader(source))
	five := newLevelCache(market.FiveMinute, aggregateLoader(market.FiveMinute, minute))
	fifteen := newLevelCache(market.FifteenMinute, aggregateLoader(market.FifteenMinute, five))
	thirty := newLevelCache(market.ThirtyMinute, aggregateLoader(market.ThirtyMinute, fifteen))
	hour := newLevelCache(market.OneHour, aggregateLoader(market.OneHour, thirty))
	four := newLevelCache(market.FourHours, aggregateLoader(market.FourHours, hour))
	day := newLevelCache(market.OneDay, aggregateLoader(market.OneDay, four))
	week := newLevelCache(market.OneWeek, aggregateLoader(market.OneWeek, day))
	month := newLevelCache(market.OneMonth, aggregateLoader(market.OneMonth, day))

	ranges, _ := lru.New[rangeKey, *market.Series](rangeCacheSize)

	return &Service{
		clock: clock,
		levels: map[market.TimeFrame]*levelCache{
			market.OneMinute:     minute,
			market.FiveMinute:    five,
			market.FifteenMinute: fifteen,
			market.ThirtyMinute:  thirty,
			market.OneHour:       hour,
			market.FourHours:     four,
			market.OneDay:        day,
			market.OneWeek:       week,
			market.OneMonth:      month,
		},
		ranges: ranges,
	}
}

// GetCandles returns the candles of one time frame covering [from, to],
// both ends aligned to full intervals and the upper bound inclusive. When
// the range ends inside the current, not yet closed interval, a pseudo
// candle synthesized from finer completed intervals is returned in its
// place. Requests starting beyond the current time fail.
func (s *Service) GetCandles(instrument market.Instrument, frame market.TimeFrame, from, to time.Time) (*market.Series, error) {
	now := s.clock.Now()
	if from.After(now) {
		return nil, errors.Wrapf(market.ErrInvalidArgument,
			"can't request candles after the current minute, now: %v, from: %v", now, from)
	}
	if to.Before(from) {
		return nil, errors.Wrapf(market.ErrInvalidArgument, "range end %v before start %v", to, from)
	}
	if to.After(now) {
		to = now
	}

	key := rangeKey{instrument: instrument, frame: frame, from: from.UnixNano(), to: to.UnixNano()}
	if cached, ok := s.ranges.Get(key); ok {
		return cached, nil
	}

	series, err := s.loadCandleData(instrument, frame, from, to)
	if err != nil {
		return nil, err
	}
	s.ranges.Add(key, series)
	return series, nil
}

// GetData returns the one minute candle at the given time, if any.
func (s *Service) GetData(instrument market.Instrument, t time.Time) (market.Candle, bool) {
	data, err := s.levels[market.OneMinute].get(pairYear{instrument: instrument.Canonical(), year: t.Year()})
	if err != nil {
		return market.Candle{}, false
	}
	candle, ok := data.series.Candle(market.OneMinute.Start(t))
	if !ok {
		return market.Candle{}, false
	}
	if instrument.IsInverse() {
		candle = candle.Inverse()
	}
	return candle, true
}

// HasData reports whether any candles exist for the instrument on a date.
func (s *Service) HasData(instrument market.Instrument, date time.Time) bool {
	data, err := s.levels[market.OneMinute].get(pairYear{instrument: instrument.Canonical(), year: date.Year()})
	if err != nil {
		return false
	}
	_, ok := data.days[market.OneDay.Start(date)]
	return ok
}

func (s *Service) loadCandleData(instrument market.Instrument, frame market.TimeFrame, from, to time.Time) (*market.Series, error) {
	start := frame.Start(from)
	end := frame.Start(to)
	canonical := instrument.Canonical()

	level := s.levels[frame]
	merged := make([]*market.Series, 0, end.Year()-start.Year()+1)
	for year := start.Year(); year <= end.Year(); year++ {
		data, err := level.get(pairYear{instrument: canonical, year: year})
		if err != nil {
			return nil, err
		}
		merged = append(merged, data.series)
	}

	result := market.MergeSeries(merged...).Between(start, end)

	if end.Before(to) {
		if pseudo, ok, err := s.pseudoCandle(canonical, frame, end, to); err != nil {
			return nil, err
		} else if ok {
			result = result.WithCandle(end, pseudo)
		}
	}

	if instrument.IsInverse() {
		result = result.Inverse()
	}
	return result, nil
}

// pseudoCandle aggregates the completed finer intervals between the last
// frame boundary and the requested end into one trailing candle. It walks
// descending frames so each chunk is served by that frame's own cache, and
// never reads past the requested end. The result is not persisted into the
// per-year caches.
func (s *Service) pseudoCandle(instrument market.Instrument, frame market.TimeFrame, intervalStart, upTo time.Time) (market.Candle, bool, error) {
	var pieces []*market.Series

	candleStart := intervalStart
	for _, smaller := range market.DescendingSmallerThan(frame) {
		next := smaller.Next(candleStart)
		for !next.After(upTo) {
			chunk, err := s.GetCandles(instrument, smaller, candleStart, next)
			if err != nil {
				return market.Candle{}, false, err
			}
			pieces = append(pieces, chunk)
			candleStart = next
			next = smaller.Next(candleStart)
		}
		if candleStart.After(upTo) {
			break
		}
	}

	// Later (finer) pieces win on shared boundaries, replacing any candle
	// that would otherwise extend beyond the requested end.
	combined := market.MergeSeries(pieces...)
	candle, err := market.Aggregate(combined.Candles())
	if err != nil {
		return market.Candle{}, false, nil
	}
	return candle, true, nil
}
