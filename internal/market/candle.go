package market

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// ErrInvalidArgument marks malformed input: empty aggregations, inverted
// ranges, queries beyond the current time. Always fatal to the calling
// operation, never retried.
var ErrInvalidArgument = errors.New("invalid argument")

// Candle is an open/high/low/close price summary over one time frame
// interval, in pippettes.
type Candle struct {
	Open  Pippettes
	High  Pippettes
	Low   Pippettes
	Close Pippettes
}

func (c Candle) String() string {
	return fmt.Sprintf("{o:%d h:%d l:%d c:%d}", c.Open, c.High, c.Low, c.Close)
}

// Inverse returns the reciprocal-quoted candle. High and low swap because
// the reciprocal of a positive number reverses ordering.
func (c Candle) Inverse() Candle {
	return Candle{
		Open:  Invert(c.Open),
		High:  Invert(c.Low),
		Low:   Invert(c.High),
		Close: Invert(c.Close),
	}
}

// Aggregate combines an ordered sequence of candles into one: open from the
// first, close from the last, high and low over every candle plus the open
// and close themselves.
func Aggregate(candles []Candle) (Candle, error) {
	if len(candles) == 0 {
		return Candle{}, pkgerrors.Wrap(ErrInvalidArgument, "aggregate requires at least one candle")
	}

	open := candles[0].Open
	close := candles[len(candles)-1].Close
	high := max(open, close)
	low := min(open, close)

	for _, c := range candles {
		high = max(high, c.High)
		low = min(low, c.Low)
	}

	return Candle{Open: open, High: high, Low: low, Close: close}, nil
}
