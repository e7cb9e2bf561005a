package ledger

import (
	"time"

	"github.com/pkg/errors"

	"main/internal/market"
)

// Trade is one position, open or closed. Every position is long; selling
// an instrument is expressed as buying its inverse. Prices and profits are
// in pippettes.
type Trade struct {
	ID           int64
	AccountID    string
	Instrument   market.Instrument
	Price        market.Pippettes
	OpenTime     time.Time
	InitialUnits int64
	CurrentUnits int64
	RealizedPL   market.Pippettes
	UnrealizedPL market.Pippettes
	CloseTime    time.Time
}

func (t Trade) Closed() bool {
	return !t.CloseTime.IsZero()
}

// CurrentPrice folds the trade's profit or loss back into a per unit
// price, assuming the whole position closes at once. Integer division
// truncates toward zero.
func (t Trade) CurrentPrice() market.Pippettes {
	pl := t.UnrealizedPL
	if t.Closed() {
		pl = t.RealizedPL
	}
	return t.Price + pl/market.Pippettes(t.InitialUnits)
}

// PurchaseValue is what opening the remaining units cost.
func (t Trade) PurchaseValue() market.Pippettes {
	return t.Price * market.Pippettes(t.CurrentUnits)
}

// NetAssetValue is what closing the position returns to the balance.
func (t Trade) NetAssetValue() market.Pippettes {
	return t.CurrentPrice() * market.Pippettes(t.InitialUnits)
}

// TradeState is the authoritative per trade unrealized profit or loss.
type TradeState struct {
	ID           int64
	UnrealizedPL market.Pippettes
}

// incorporateState replaces each open trade's unrealized profit or loss
// with the authoritative figure. State must cover exactly the open trades.
func incorporateState(trades []Trade, states []TradeState) ([]Trade, error) {
	if len(states) == 0 {
		return trades, nil
	}
	if len(states) != len(trades) {
		return nil, errors.Errorf("trade and state count differ, trades: %d, states: %d", len(trades), len(states))
	}

	byID := make(map[int64]market.Pippettes, len(states))
	for _, s := range states {
		byID[s.ID] = s.UnrealizedPL
	}

	updated := make([]Trade, len(trades))
	for i, trade := range trades {
		pl, ok := byID[trade.ID]
		if !ok {
			return nil, errors.Errorf("no state for open trade %d", trade.ID)
		}
		trade.UnrealizedPL = pl
		updated[i] = trade
	}
	return updated, nil
}
