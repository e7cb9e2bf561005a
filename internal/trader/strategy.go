package trader

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"main/internal/market"
)

// OpenPositionRequest is a strategy's decision to open a position. Stop
// loss and take profit are distances from the entry price in pippettes,
// not absolute prices; zero leaves the threshold unset.
type OpenPositionRequest struct {
	Pair       market.Instrument
	Units      int64
	Limit      market.Pippettes
	StopLoss   market.Pippettes
	TakeProfit market.Pippettes
}

// Strategy decides when to enter the market. Implementations carry their
// own rand.Rand, seeded by the caller, so runs are reproducible.
type Strategy interface {
	Name() string
	ShouldOpenPosition(trader *Trader, now time.Time) (*OpenPositionRequest, error)
}

// OpenRandomPosition buys one unit of a random pair every chance it gets.
type OpenRandomPosition struct {
	rng *rand.Rand
}

func NewOpenRandomPosition(rng *rand.Rand) *OpenRandomPosition {
	return &OpenRandomPosition{rng: rng}
}

func (s *OpenRandomPosition) Name() string { return "open-random-position" }

func (s *OpenRandomPosition) ShouldOpenPosition(*Trader, time.Time) (*OpenPositionRequest, error) {
	return &OpenPositionRequest{
		Pair:       randomInstrument(s.rng),
		Units:      1,
		StopLoss:   300,
		TakeProfit: 600,
	}, nil
}

// SmarterRandomPosition trades a random pair only when the weekly, daily
// and four hour candles all broke higher, or all failed to. Matching
// downward momentum buys the opposite pair.
type SmarterRandomPosition struct {
	rng *rand.Rand
}

func NewSmarterRandomPosition(rng *rand.Rand) *SmarterRandomPosition {
	return &SmarterRandomPosition{rng: rng}
}

func (s *SmarterRandomPosition) Name() string { return "smarter-random-position" }

func (s *SmarterRandomPosition) ShouldOpenPosition(trader *Trader, now time.Time) (*OpenPositionRequest, error) {
	if now.Minute()%16 != 0 {
		return nil, nil
	}

	pair := randomInstrument(s.rng)

	weekHigher, err := brokeHigher(trader, pair, market.OneWeek, now.AddDate(0, 0, -21), now)
	if err != nil {
		return nil, err
	}
	dayHigher, err := brokeHigher(trader, pair, market.OneDay, now.AddDate(0, 0, -5), now)
	if err != nil {
		return nil, err
	}
	if weekHigher != dayHigher {
		return nil, nil
	}
	fourHourHigher, err := brokeHigher(trader, pair, market.FourHours, now.AddDate(0, 0, -5), now)
	if err != nil {
		return nil, err
	}
	if dayHigher != fourHourHigher {
		return nil, nil
	}

	if !dayHigher {
		pair = pair.Opposite()
	}
	return &OpenPositionRequest{
		Pair:       pair,
		Units:      1,
		StopLoss:   1000,
		TakeProfit: 2000,
	}, nil
}

// brokeHigher reports whether the most recent candle's high exceeds the
// previous one's.
func brokeHigher(trader *Trader, pair market.Instrument, frame market.TimeFrame, from, to time.Time) (bool, error) {
	candles, err := trader.Candles(pair, frame, from, to)
	if err != nil {
		return false, err
	}
	if candles.Len() < 2 {
		return false, errors.Errorf("need two %s candles for %s, got %d", frame, pair, candles.Len())
	}
	entries := candles.Entries()
	current := entries[len(entries)-1].Candle
	previous := entries[len(entries)-2].Candle
	return current.High > previous.High, nil
}

// Martingale wraps another strategy and doubles the units after a losing
// trade, resetting to the base size after a win.
type Martingale struct {
	base      Strategy
	baseUnits int64
}

func NewMartingale(base Strategy, baseUnits int64) *Martingale {
	return &Martingale{base: base, baseUnits: baseUnits}
}

func (s *Martingale) Name() string { return s.base.Name() + "-martingale" }

func (s *Martingale) ShouldOpenPosition(trader *Trader, now time.Time) (*OpenPositionRequest, error) {
	request, err := s.base.ShouldOpenPosition(trader, now)
	if request == nil || err != nil {
		return request, err
	}

	units := s.baseUnits
	if last, ok := trader.LastClosedTrade(); ok && last.RealizedPL < 0 {
		units = last.InitialUnits * 2
	}
	request.Units = units
	return request, nil
}

func randomInstrument(rng *rand.Rand) market.Instrument {
	instruments := market.Instruments()
	return instruments[rng.Intn(len(instruments))]
}
