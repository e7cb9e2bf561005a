package ledger

import (
	"github.com/yanun0323/logs"

	"main/internal/market"
)

// Account is an immutable ledger of one trading account. Operations
// return a new value; the receiver is never modified. Balance and profits
// are in pippettes.
type Account struct {
	ID                string
	Balance           market.Pippettes
	LastTransactionID int64
	Trades            []Trade
	ProfitLoss        market.Pippettes
}

// NetAssetValue is the balance plus the value of every open position.
func (a Account) NetAssetValue() market.Pippettes {
	nav := a.Balance
	for _, trade := range a.Trades {
		nav += trade.NetAssetValue()
	}
	return nav
}

func (a Account) UnrealizedPL() market.Pippettes {
	var pl market.Pippettes
	for _, trade := range a.Trades {
		pl += trade.UnrealizedPL
	}
	return pl
}

// Position returns the open trade for the instrument, if any.
func (a Account) Position(instrument market.Instrument) (Trade, bool) {
	for _, trade := range a.Trades {
		if trade.Instrument == instrument {
			return trade, true
		}
	}
	return Trade{}, false
}

// PositionOpened debits the purchase value and records the position.
func (a Account) PositionOpened(position Trade, transactionID int64) Account {
	trades := make([]Trade, 0, len(a.Trades)+1)
	trades = append(trades, a.Trades...)
	trades = append(trades, position)

	return Account{
		ID:                a.ID,
		Balance:           a.Balance - position.PurchaseValue(),
		LastTransactionID: transactionID,
		Trades:            trades,
		ProfitLoss:        a.ProfitLoss,
	}
}

// PositionClosed credits the position's net asset value and realizes its
// profit or loss.
func (a Account) PositionClosed(position Trade, transactionID int64) Account {
	trades := make([]Trade, 0, len(a.Trades))
	for _, trade := range a.Trades {
		if trade.ID != position.ID {
			trades = append(trades, trade)
		}
	}

	return Account{
		ID:                a.ID,
		Balance:           a.Balance + position.NetAssetValue(),
		LastTransactionID: transactionID,
		Trades:            trades,
		ProfitLoss:        a.ProfitLoss + position.RealizedPL,
	}
}

// Changes is everything that happened to an account since a transaction ID.
type Changes struct {
	FilledOrders    []int64
	CancelledOrders []int64
	TradesClosed    []Trade
	TradesOpened    []Trade
}

// ChangesState is the authoritative valuation accompanying Changes.
type ChangesState struct {
	NetAssetValue market.Pippettes
	UnrealizedPL  market.Pippettes
	Trades        []TradeState
}

// ChangesResponse pairs the account's changes with its current valuation.
type ChangesResponse struct {
	LastTransactionID int64
	Changes           Changes
	State             ChangesState
}

// ProcessChanges folds the response into the account. Replaying a response
// already covered by LastTransactionID only refreshes valuations, so the
// operation is idempotent. Closes apply before opens.
func (a Account) ProcessChanges(response ChangesResponse) (Account, error) {
	next := a
	if response.LastTransactionID != a.LastTransactionID {
		logs.Infof("changes exist for account %s: transaction id %d != %d",
			a.ID, response.LastTransactionID, a.LastTransactionID)

		for _, closed := range response.Changes.TradesClosed {
			next = next.PositionClosed(closed, response.LastTransactionID)
		}
		for _, opened := range response.Changes.TradesOpened {
			next = next.PositionOpened(opened, response.LastTransactionID)
		}
	}
	return next.reconcileState(response.State)
}

// reconcileState adopts the authoritative valuation. Our own net asset
// value is recalculated independently, and any discrepancy against the
// authoritative figure is absorbed into the balance. Financing charges and
// interest are not modeled, so a small adjustment is normal, but it is
// always logged.
func (a Account) reconcileState(state ChangesState) (Account, error) {
	trades, err := incorporateState(a.Trades, state.Trades)
	if err != nil {
		return Account{}, err
	}
	next := a
	next.Trades = trades

	nav := next.NetAssetValue()
	if adjustment := state.NetAssetValue - nav; adjustment != 0 {
		logs.Warnf("unexplained adjustment of %s to account %s balance, authoritative NAV: %s, calculated: %s",
			adjustment.Dollars(), next.ID, state.NetAssetValue.Dollars(), nav.Dollars())
		next.Balance += adjustment
	}

	if unrealized := next.UnrealizedPL(); unrealized != state.UnrealizedPL {
		logs.Errorf("unrealized profit and loss diverged for account %s, authoritative: %s, calculated: %s, open trades: %+v",
			next.ID, state.UnrealizedPL.Dollars(), unrealized.Dollars(), next.Trades)
	}
	return next, nil
}
