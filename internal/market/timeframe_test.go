package market

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, Zone)
}

func TestTimeFrameStart(t *testing.T) {
	testCases := []struct {
		desc     string
		frame    TimeFrame
		input    time.Time
		expected time.Time
	}{
		{"one minute drops seconds", OneMinute, time.Date(2017, time.March, 8, 14, 37, 42, 120, Zone), date(2017, time.March, 8, 14, 37)},
		{"five minute", FiveMinute, date(2017, time.March, 8, 14, 37), date(2017, time.March, 8, 14, 35)},
		{"fifteen minute", FifteenMinute, date(2017, time.March, 8, 14, 37), date(2017, time.March, 8, 14, 30)},
		{"thirty minute", ThirtyMinute, date(2017, time.March, 8, 14, 29), date(2017, time.March, 8, 14, 0)},
		{"one hour", OneHour, date(2017, time.March, 8, 14, 37), date(2017, time.March, 8, 14, 0)},
		{"four hour", FourHours, date(2017, time.March, 8, 14, 37), date(2017, time.March, 8, 12, 0)},
		{"four hour at boundary", FourHours, date(2017, time.March, 8, 12, 0), date(2017, time.March, 8, 12, 0)},
		{"one day", OneDay, date(2017, time.March, 8, 14, 37), date(2017, time.March, 8, 0, 0)},
		{"one week aligns to monday", OneWeek, date(2017, time.March, 8, 14, 37), date(2017, time.March, 6, 0, 0)},
		{"one week on a monday stays", OneWeek, date(2017, time.March, 6, 0, 0), date(2017, time.March, 6, 0, 0)},
		{"one week on a sunday goes back six days", OneWeek, date(2017, time.March, 5, 23, 59), date(2017, time.February, 27, 0, 0)},
		{"one month", OneMonth, date(2017, time.March, 8, 14, 37), date(2017, time.March, 1, 0, 0)},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			actual := tc.frame.Start(tc.input)
			if !actual.Equal(tc.expected) {
				t.Fatalf("start mismatch! should be %v but got %v", tc.expected, actual)
			}
		})
	}
}

func TestWeekStartAlwaysMonday(t *testing.T) {
	current := date(2017, time.January, 1, 3, 17)
	for i := 0; i < 400; i++ {
		start := OneWeek.Start(current)
		if start.Weekday() != time.Monday {
			t.Fatalf("week start %v is a %v, not a Monday", start, start.Weekday())
		}
		if start.Hour() != 0 || start.Minute() != 0 {
			t.Fatalf("week start %v is not at midnight", start)
		}
		current = current.Add(17*time.Hour + 13*time.Minute)
	}
}

func TestFourHourStartAlignment(t *testing.T) {
	current := date(2017, time.January, 1, 0, 0)
	for i := 0; i < 500; i++ {
		start := FourHours.Start(current)
		if start.Hour()%4 != 0 {
			t.Fatalf("four hour start %v is not on a multiple of four hours", start)
		}
		current = current.Add(53 * time.Minute)
	}
}

func TestTimeFrameNext(t *testing.T) {
	testCases := []struct {
		frame    TimeFrame
		start    time.Time
		expected time.Time
	}{
		{OneMinute, date(2017, time.March, 8, 14, 37), date(2017, time.March, 8, 14, 38)},
		{FourHours, date(2017, time.March, 8, 12, 0), date(2017, time.March, 8, 16, 0)},
		{OneDay, date(2017, time.March, 8, 0, 0), date(2017, time.March, 9, 0, 0)},
		{OneWeek, date(2017, time.March, 6, 0, 0), date(2017, time.March, 13, 0, 0)},
		{OneMonth, date(2017, time.January, 1, 0, 0), date(2017, time.February, 1, 0, 0)},
	}

	for _, tc := range testCases {
		actual := tc.frame.Next(tc.start)
		if !actual.Equal(tc.expected) {
			t.Fatalf("%v next mismatch: got %v want %v", tc.frame, actual, tc.expected)
		}
	}
}

func TestDescendingSmallerThan(t *testing.T) {
	frames := DescendingSmallerThan(OneDay)
	expected := []TimeFrame{FourHours, OneHour, ThirtyMinute, FifteenMinute, FiveMinute, OneMinute}
	if len(frames) != len(expected) {
		t.Fatalf("frame count mismatch: got %v want %v", frames, expected)
	}
	for i := range frames {
		if frames[i] != expected[i] {
			t.Fatalf("frame order mismatch at %d: got %v want %v", i, frames, expected)
		}
	}

	if got := DescendingSmallerThan(OneMinute); got != nil {
		t.Fatalf("nothing should be smaller than one minute, got %v", got)
	}

	week := DescendingSmallerThan(OneWeek)
	if week[0] != OneDay {
		t.Fatalf("one week should step down to one day, got %v", week[0])
	}
}

func TestAggregateSeries(t *testing.T) {
	start := date(2017, time.March, 8, 14, 0)
	entries := []SeriesEntry{
		{Time: start, Candle: Candle{Open: 100, High: 105, Low: 95, Close: 102}},
		{Time: start.Add(time.Minute), Candle: Candle{Open: 102, High: 103, Low: 101, Close: 101}},
		{Time: start.Add(2 * time.Minute), Candle: Candle{Open: 101, High: 104, Low: 100, Close: 103}},
		// Gap, then a candle in the next five minute bucket.
		{Time: start.Add(7 * time.Minute), Candle: Candle{Open: 103, High: 106, Low: 102, Close: 104}},
	}

	agg := AggregateSeries(FiveMinute, NewSeries(entries))

	if agg.Len() != 2 {
		t.Fatalf("expected 2 buckets, got %d", agg.Len())
	}
	first, ok := agg.Candle(start)
	if !ok {
		t.Fatalf("missing bucket at %v", start)
	}
	if (first != Candle{Open: 100, High: 105, Low: 95, Close: 103}) {
		t.Fatalf("first bucket mismatch: %v", first)
	}
	second, ok := agg.Candle(start.Add(5 * time.Minute))
	if !ok {
		t.Fatalf("missing bucket at %v", start.Add(5*time.Minute))
	}
	if (second != Candle{Open: 103, High: 106, Low: 102, Close: 104}) {
		t.Fatalf("second bucket mismatch: %v", second)
	}
}

func TestSeriesBetweenInclusive(t *testing.T) {
	start := date(2017, time.March, 8, 14, 0)
	var entries []SeriesEntry
	for i := 0; i < 10; i++ {
		entries = append(entries, SeriesEntry{Time: start.Add(time.Duration(i) * time.Minute), Candle: Candle{Open: 1, High: 1, Low: 1, Close: 1}})
	}
	s := NewSeries(entries)

	sub := s.Between(start.Add(2*time.Minute), start.Add(5*time.Minute))
	if sub.Len() != 4 {
		t.Fatalf("inclusive range should hold 4 candles, got %d", sub.Len())
	}
	if !sub.First().Time.Equal(start.Add(2 * time.Minute)) {
		t.Fatalf("wrong range start: %v", sub.First().Time)
	}
	if !sub.Last().Time.Equal(start.Add(5 * time.Minute)) {
		t.Fatalf("wrong range end: %v", sub.Last().Time)
	}
}
