package history

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yanun0323/logs"

	"main/internal/market"
)

type pairYear struct {
	instrument market.Instrument
	year       int
}

func (k pairYear) String() string {
	return fmt.Sprintf("%s/%d", k.instrument.Symbol(), k.year)
}

// yearData is one computed cache entry: the candle series for a
// (canonical instrument, year) at this level's time frame, plus the set of
// dates any data exists for.
type yearData struct {
	series *market.Series
	days   map[time.Time]struct{}
}

// levelCache memoizes per-(instrument, year) series for one time frame.
// Entries are computed at most once and retained for the process lifetime;
// concurrent misses on the same key collapse into a single load.
type levelCache struct {
	frame market.TimeFrame
	load  func(key pairYear) (*yearData, error)

	mu      sync.RWMutex
	entries map[pairYear]*yearData
	group   singleflight.Group
}

func newLevelCache(frame market.TimeFrame, load func(key pairYear) (*yearData, error)) *levelCache {
	return &levelCache{
		frame:   frame,
		load:    load,
		entries: make(map[pairYear]*yearData),
	}
}

func (c *levelCache) get(key pairYear) (*yearData, error) {
	c.mu.RLock()
	data, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return data, nil
	}

	v, err, _ := c.group.Do(key.String(), func() (interface{}, error) {
		c.mu.RLock()
		data, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return data, nil
		}

		started := time.Now()
		data, loadErr := c.load(key)
		if loadErr != nil {
			return nil, loadErr
		}
		logs.Infof("loaded %s (%s) in %s", key, c.frame, time.Since(started).Round(time.Millisecond))

		c.mu.Lock()
		c.entries[key] = data
		c.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*yearData), nil
}

// sourceLoader reads raw one minute data. A source failure is logged and
// becomes an empty year, so downstream aggregation simply finds no candles.
func sourceLoader(source Source) func(key pairYear) (*yearData, error) {
	return func(key pairYear) (*yearData, error) {
		series, err := source.InstrumentData(key.instrument, key.year)
		if err != nil {
			logs.Warnf("no data for %s, err: %+v", key, err)
			series = market.EmptySeries()
		}
		return &yearData{series: series, days: availableDays(series)}, nil
	}
}

// aggregateLoader derives this level's series from the next finer level.
func aggregateLoader(frame market.TimeFrame, finer *levelCache) func(key pairYear) (*yearData, error) {
	return func(key pairYear) (*yearData, error) {
		fine, err := finer.get(key)
		if err != nil {
			return nil, err
		}
		return &yearData{
			series: market.AggregateSeries(frame, fine.series),
			days:   fine.days,
		}, nil
	}
}

func availableDays(series *market.Series) map[time.Time]struct{} {
	days := make(map[time.Time]struct{})
	for _, e := range series.Entries() {
		days[market.OneDay.Start(e.Time)] = struct{}{}
	}
	return days
}
