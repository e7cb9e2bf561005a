package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"main/internal/history"
	"main/internal/historydata"
	"main/internal/market"
	"main/internal/sim"
)

const dateLayout = "2006-01-02"

func main() {
	dataDir := flag.String("data-dir", "testdata/history", "Directory with raw minute history files")
	symbol := flag.String("instrument", "EUR_USD", "Instrument symbol")
	frameName := flag.String("frame", "D", "Time frame (M1, M5, M15, M30, H1, H4, D, W, M)")
	fromDate := flag.String("from", "", "Range start, 2006-01-02 in the market time zone")
	toDate := flag.String("to", "", "Range end, 2006-01-02 in the market time zone")
	flag.Parse()

	instrument, ok := market.InstrumentFromSymbol(*symbol)
	if !ok {
		log.Fatalf("unknown instrument %q", *symbol)
	}
	frame, ok := market.TimeFrameFromName(*frameName)
	if !ok {
		log.Fatalf("unknown time frame %q", *frameName)
	}
	from, err := time.ParseInLocation(dateLayout, *fromDate, market.Zone)
	if err != nil {
		log.Fatalf("invalid from date: %v", err)
	}
	to, err := time.ParseInLocation(dateLayout, *toDate, market.Zone)
	if err != nil {
		log.Fatalf("invalid to date: %v", err)
	}

	// The clock sits at the end of the range so every candle in it is
	// history, not future.
	clock := sim.NewClock(to)
	service := history.New(clock, historydata.NewCSVSource(*dataDir))

	candles, err := service.GetCandles(instrument, frame, from, to)
	if err != nil {
		log.Fatalf("loading candles failed: %v", err)
	}
	if candles.Empty() {
		log.Fatalf("no %s data between %s and %s", instrument, *fromDate, *toDate)
	}

	fmt.Printf("%s %s candles, %d rows\n", instrument, frame, candles.Len())
	for _, entry := range candles.Entries() {
		fmt.Printf("%s  O=%s H=%s L=%s C=%s\n",
			entry.Time.Format("2006-01-02 15:04"),
			entry.Candle.Open.Dollars(),
			entry.Candle.High.Dollars(),
			entry.Candle.Low.Dollars(),
			entry.Candle.Close.Dollars(),
		)
	}
}
