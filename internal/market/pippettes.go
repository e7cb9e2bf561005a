package market

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// PippetteScale converts between a currency quote and its integer
// representation (e.g. 1.23456 is stored as 123456).
const PippetteScale = 100000

// Pippettes is a price or money amount scaled by PippetteScale and stored as
// an integer, so balance and profit arithmetic never touches floating point.
type Pippettes int64

var pippetteFactor = decimal.NewFromInt(PippetteScale)

// ParsePippettes converts a decimal price string (e.g. "1.10000") without
// going through a float.
func ParsePippettes(s string) (Pippettes, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidArgument, "parse price %q", s)
	}
	return Pippettes(d.Mul(pippetteFactor).Round(0).IntPart()), nil
}

// PippettesFromFloat rounds a float quote to the nearest pippette. Only for
// display-side conversions and test fixtures, never for money arithmetic.
func PippettesFromFloat(v float64) Pippettes {
	if v < 0 {
		return -PippettesFromFloat(-v)
	}
	return Pippettes(v*PippetteScale + 0.5)
}

// Invert returns the reciprocal price in pippettes, truncating toward zero.
func Invert(p Pippettes) Pippettes {
	return PippetteScale * PippetteScale / p
}

// Float converts back to a quote for display.
func (p Pippettes) Float() float64 {
	return float64(p) / PippetteScale
}

// Dollars renders an account amount for logs.
func (p Pippettes) Dollars() string {
	return fmt.Sprintf("$%.5f", p.Float())
}

// Pips renders a profit amount in pips for logs, e.g. "48.0 pips".
func (p Pippettes) Pips() string {
	pips := p / 10
	remainder := p % 10
	if remainder < 0 {
		remainder = -remainder
	}
	return fmt.Sprintf("%d.%d pips", pips, remainder)
}
