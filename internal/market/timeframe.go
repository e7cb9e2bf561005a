package market

import "time"

// TimeFrame is a fixed candle interval duration. Each frame defines how an
// arbitrary timestamp aligns to the start of its containing interval and
// what the next interval start is.
type TimeFrame uint8

const (
	TimeFrameUnknown TimeFrame = iota
	OneMinute
	FiveMinute
	FifteenMinute
	ThirtyMinute
	OneHour
	FourHours
	OneDay
	OneWeek
	OneMonth
)

var timeFrameNames = map[TimeFrame]string{
	OneMinute:     "M1",
	FiveMinute:    "M5",
	FifteenMinute: "M15",
	ThirtyMinute:  "M30",
	OneHour:       "H1",
	FourHours:     "H4",
	OneDay:        "D",
	OneWeek:       "W",
	OneMonth:      "M",
}

func (tf TimeFrame) String() string {
	if name, ok := timeFrameNames[tf]; ok {
		return name
	}
	return "unknown"
}

// TimeFrameFromName resolves the wire name of a time frame, e.g. "H4".
func TimeFrameFromName(name string) (TimeFrame, bool) {
	for tf, n := range timeFrameNames {
		if n == name {
			return tf, true
		}
	}
	return TimeFrameUnknown, false
}

// Start aligns a timestamp to the start of its containing interval. Days
// align to local midnight, weeks to the most recent Monday, larger frames to
// a multiple boundary of the next smaller frame.
func (tf TimeFrame) Start(t time.Time) time.Time {
	year, month, day := t.Date()
	loc := t.Location()

	switch tf {
	case OneMinute:
		return time.Date(year, month, day, t.Hour(), t.Minute(), 0, 0, loc)
	case FiveMinute:
		return OneMinute.Start(t.Add(-time.Duration(t.Minute()%5) * time.Minute))
	case FifteenMinute:
		return OneMinute.Start(t.Add(-time.Duration(t.Minute()%15) * time.Minute))
	case ThirtyMinute:
		return OneMinute.Start(t.Add(-time.Duration(t.Minute()%30) * time.Minute))
	case OneHour:
		return time.Date(year, month, day, t.Hour(), 0, 0, 0, loc)
	case FourHours:
		return time.Date(year, month, day, t.Hour()-t.Hour()%4, 0, 0, 0, loc)
	case OneDay:
		return time.Date(year, month, day, 0, 0, 0, 0, loc)
	case OneWeek:
		monday := t.AddDate(0, 0, -((int(t.Weekday()) + 6) % 7))
		return OneDay.Start(monday)
	case OneMonth:
		return time.Date(year, month, 1, 0, 0, 0, 0, loc)
	}
	return t
}

// Next returns the start of the interval following the one beginning at the
// given interval start.
func (tf TimeFrame) Next(start time.Time) time.Time {
	switch tf {
	case OneMinute:
		return start.Add(time.Minute)
	case FiveMinute:
		return start.Add(5 * time.Minute)
	case FifteenMinute:
		return start.Add(15 * time.Minute)
	case ThirtyMinute:
		return start.Add(30 * time.Minute)
	case OneHour:
		return start.Add(time.Hour)
	case FourHours:
		return start.Add(4 * time.Hour)
	case OneDay:
		return start.AddDate(0, 0, 1)
	case OneWeek:
		return start.AddDate(0, 0, 7)
	case OneMonth:
		return start.AddDate(0, 1, 0)
	}
	return start
}

// Smaller returns the next finer time frame, or false at one minute.
func (tf TimeFrame) Smaller() (TimeFrame, bool) {
	switch tf {
	case FiveMinute:
		return OneMinute, true
	case FifteenMinute:
		return FiveMinute, true
	case ThirtyMinute:
		return FifteenMinute, true
	case OneHour:
		return ThirtyMinute, true
	case FourHours:
		return OneHour, true
	case OneDay:
		return FourHours, true
	case OneWeek:
		return OneDay, true
	case OneMonth:
		return OneDay, true
	}
	return TimeFrameUnknown, false
}

// DescendingSmallerThan lists every frame finer than the given one, largest
// first, used to synthesize a trailing partial candle.
func DescendingSmallerThan(tf TimeFrame) []TimeFrame {
	smaller, ok := tf.Smaller()
	if !ok {
		return nil
	}
	// One week and one month both step down to one day.
	frames := []TimeFrame{OneDay, FourHours, OneHour, ThirtyMinute, FifteenMinute, FiveMinute, OneMinute}
	for i, f := range frames {
		if f == smaller {
			return frames[i:]
		}
	}
	return nil
}
