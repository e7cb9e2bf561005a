package market

import "time"

// Zone is the market-local zone all timestamps are expressed in. The raw
// history files carry a fixed UTC-5 offset and are converted on load.
var Zone = loadZone()

func loadZone() *time.Location {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		return time.FixedZone("CST", -6*60*60)
	}
	return loc
}

// Clock supplies the current market time. The simulation clock is logical
// and advances one minute per tick, independent of wall time.
type Clock interface {
	Now() time.Time
}

// Today truncates the clock's time to its date.
func Today(c Clock) time.Time {
	return OneDay.Start(c.Now())
}
