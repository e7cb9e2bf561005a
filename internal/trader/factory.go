package trader

import (
	"math/rand"

	"github.com/pkg/errors"
)

// Strategy names accepted by NewStrategyByName.
const (
	StrategyOpenRandom          = "open-random-position"
	StrategySmarterRandom       = "smarter-random-position"
	StrategyOpenRandomDoubling  = "open-random-position-martingale"
	StrategySmarterRandomDouble = "smarter-random-position-martingale"
)

// StrategyNames lists every strategy that can be configured by name.
func StrategyNames() []string {
	return []string{
		StrategyOpenRandom,
		StrategySmarterRandom,
		StrategyOpenRandomDoubling,
		StrategySmarterRandomDouble,
	}
}

// NewStrategyByName builds the named strategy around the given random
// source. Each trader gets its own source so runs stay reproducible no
// matter how traders interleave.
func NewStrategyByName(name string, rng *rand.Rand) (Strategy, error) {
	switch name {
	case StrategyOpenRandom:
		return NewOpenRandomPosition(rng), nil
	case StrategySmarterRandom:
		return NewSmarterRandomPosition(rng), nil
	case StrategyOpenRandomDoubling:
		return NewMartingale(NewOpenRandomPosition(rng), 1), nil
	case StrategySmarterRandomDouble:
		return NewMartingale(NewSmarterRandomPosition(rng), 1), nil
	default:
		return nil, errors.Errorf("unknown strategy %q", name)
	}
}
