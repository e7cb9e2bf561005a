package ledger

import (
	"time"

	"main/internal/market"
)

// Snapshot freezes an account's state at one point in time, for drawdown
// and profit tracking across a run.
type Snapshot struct {
	Account Account
	Time    time.Time
}

func (s Snapshot) NetAssetValue() market.Pippettes {
	return s.Account.NetAssetValue()
}

// Pipettes is realized plus unrealized profit, the account's total
// performance so far.
func (s Snapshot) Pipettes() market.Pippettes {
	return s.Account.ProfitLoss + s.Account.UnrealizedPL()
}
