package market

// Instrument is a currency pair. History is only ever stored for the
// canonical direction of a pair; the inverse is derived on demand, which is
// also how short positions are modeled (a short on EUR/USD is a long on
// USD/EUR).
type Instrument uint8

const (
	InstrumentUnknown Instrument = iota
	EURUSD
	USDEUR
	GBPUSD
	USDGBP
	USDJPY
	JPYUSD
)

type instrumentSpec struct {
	symbol  string
	name    string
	inverse bool
	pip     Pippettes
}

var instrumentSpecs = map[Instrument]instrumentSpec{
	EURUSD: {symbol: "EUR_USD", name: "EUR/USD", inverse: false, pip: 10},
	USDEUR: {symbol: "USD_EUR", name: "USD/EUR", inverse: true, pip: 10},
	GBPUSD: {symbol: "GBP_USD", name: "GBP/USD", inverse: false, pip: 10},
	USDGBP: {symbol: "USD_GBP", name: "USD/GBP", inverse: true, pip: 10},
	USDJPY: {symbol: "USD_JPY", name: "USD/JPY", inverse: false, pip: 1000},
	JPYUSD: {symbol: "JPY_USD", name: "JPY/USD", inverse: true, pip: 1000},
}

var instrumentOpposites = map[Instrument]Instrument{
	EURUSD: USDEUR,
	USDEUR: EURUSD,
	GBPUSD: USDGBP,
	USDGBP: GBPUSD,
	USDJPY: JPYUSD,
	JPYUSD: USDJPY,
}

// Instruments lists every tradeable pair, canonical and inverse.
func Instruments() []Instrument {
	return []Instrument{EURUSD, USDEUR, GBPUSD, USDGBP, USDJPY, JPYUSD}
}

// InstrumentFromSymbol resolves "EUR_USD" style symbols.
func InstrumentFromSymbol(symbol string) (Instrument, bool) {
	for i, spec := range instrumentSpecs {
		if spec.symbol == symbol {
			return i, true
		}
	}
	return InstrumentUnknown, false
}

func (i Instrument) Symbol() string {
	return instrumentSpecs[i].symbol
}

func (i Instrument) Name() string {
	return instrumentSpecs[i].name
}

func (i Instrument) String() string {
	return i.Name()
}

// IsInverse reports whether this is the derived direction of the pair.
func (i Instrument) IsInverse() bool {
	return instrumentSpecs[i].inverse
}

// Opposite returns the reciprocal-quoted counterpart.
func (i Instrument) Opposite() Instrument {
	return instrumentOpposites[i]
}

// Canonical returns the direction history is stored under.
func (i Instrument) Canonical() Instrument {
	if i.IsInverse() {
		return i.Opposite()
	}
	return i
}

// Pip is the conventional minimal price increment, used for profit display.
func (i Instrument) Pip() Pippettes {
	return instrumentSpecs[i].pip
}
