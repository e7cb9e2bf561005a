package market

import (
	"errors"
	"testing"
)

func TestAggregate(t *testing.T) {
	testCases := []struct {
		desc     string
		input    []Candle
		expected Candle
	}{
		{
			"single candle",
			[]Candle{{Open: 100, High: 105, Low: 95, Close: 102}},
			Candle{Open: 100, High: 105, Low: 95, Close: 102},
		},
		{
			"three one minute candles into five minute",
			[]Candle{
				{Open: 100, High: 105, Low: 95, Close: 102},
				{Open: 102, High: 103, Low: 101, Close: 101},
				{Open: 101, High: 104, Low: 100, Close: 103},
			},
			Candle{Open: 100, High: 105, Low: 95, Close: 103},
		},
		{
			"open and close dominate highs and lows",
			[]Candle{
				{Open: 110, High: 109, Low: 100, Close: 105},
				{Open: 105, High: 106, Low: 104, Close: 90},
			},
			Candle{Open: 110, High: 110, Low: 90, Close: 90},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			actual, err := Aggregate(tc.input)
			if err != nil {
				t.Fatalf("aggregate: %v", err)
			}
			if actual != tc.expected {
				t.Fatalf("aggregate mismatch! should be %v but got %v", tc.expected, actual)
			}
		})
	}
}

func TestAggregateEmpty(t *testing.T) {
	_, err := Aggregate(nil)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestInverse(t *testing.T) {
	c := Candle{Open: 116725, High: 116727, Low: 116721, Close: 116723}

	inv := c.Inverse()

	if inv.Open != Invert(c.Open) {
		t.Fatalf("inverse open mismatch: got %d want %d", inv.Open, Invert(c.Open))
	}
	if inv.High != Invert(c.Low) {
		t.Fatalf("inverse high should come from the original low: got %d want %d", inv.High, Invert(c.Low))
	}
	if inv.Low != Invert(c.High) {
		t.Fatalf("inverse low should come from the original high: got %d want %d", inv.Low, Invert(c.High))
	}
	if inv.High < inv.Low {
		t.Fatalf("inverse candle has high %d below low %d", inv.High, inv.Low)
	}
}

func TestInverseRoundTrip(t *testing.T) {
	c := Candle{Open: 116725, High: 116727, Low: 116721, Close: 116723}

	back := c.Inverse().Inverse()

	const tolerance = 2
	fields := []struct {
		name string
		got  Pippettes
		want Pippettes
	}{
		{"open", back.Open, c.Open},
		{"high", back.High, c.High},
		{"low", back.Low, c.Low},
		{"close", back.Close, c.Close},
	}
	for _, f := range fields {
		diff := f.got - f.want
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			t.Fatalf("%s drifted beyond rounding tolerance: got %d want %d", f.name, f.got, f.want)
		}
	}
}

func TestParsePippettes(t *testing.T) {
	testCases := []struct {
		input    string
		expected Pippettes
	}{
		{"1.10000", 110000},
		{"1.16725", 116725},
		{"0.85705", 85705},
		{"109.55", 10955000},
	}

	for _, tc := range testCases {
		actual, err := ParsePippettes(tc.input)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.input, err)
		}
		if actual != tc.expected {
			t.Fatalf("parse %q mismatch: got %d want %d", tc.input, actual, tc.expected)
		}
	}

	if _, err := ParsePippettes("not-a-price"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for garbage input, got %v", err)
	}
}
