package historydata

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"main/internal/market"
)

// The raw files carry a fixed UTC-5 offset with no daylight savings.
var fileZone = time.FixedZone("UTC-5", -5*60*60)

const timestampLayout = "20060102 150405"

// CSVSource reads one minute history files named like
// DAT_ASCII_EURUSD_M1_2017.csv, semicolon separated as
// "20170103 170000;1.04852;1.04879;1.04851;1.04879".
type CSVSource struct {
	dir string
}

func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

func (s *CSVSource) InstrumentData(instrument market.Instrument, year int) (*market.Series, error) {
	name := fmt.Sprintf("DAT_ASCII_%s_M1_%d.csv", strings.ReplaceAll(instrument.Symbol(), "_", ""), year)
	path := filepath.Join(s.dir, name)

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open history file")
	}
	defer f.Close()

	var entries []market.SeriesEntry

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entry, err := parseLine(line)
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s", name)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read history file")
	}

	return market.NewSeries(entries), nil
}

func parseLine(line string) (market.SeriesEntry, error) {
	parts := strings.Split(line, ";")
	if len(parts) < 5 {
		return market.SeriesEntry{}, errors.Errorf("expected 5 fields, got %d", len(parts))
	}

	parsed, err := time.ParseInLocation(timestampLayout, parts[0], fileZone)
	if err != nil {
		return market.SeriesEntry{}, errors.Wrap(err, "parse timestamp")
	}

	var prices [4]market.Pippettes
	for i, raw := range parts[1:5] {
		price, err := market.ParsePippettes(raw)
		if err != nil {
			return market.SeriesEntry{}, err
		}
		prices[i] = price
	}

	return market.SeriesEntry{
		Time: market.OneMinute.Start(parsed.In(market.Zone)),
		Candle: market.Candle{
			Open:  prices[0],
			High:  prices[1],
			Low:   prices[2],
			Close: prices[3],
		},
	}, nil
}
