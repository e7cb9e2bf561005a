package trader

import (
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/yanun0323/logs"

	"main/internal/broker"
	"main/internal/history"
	"main/internal/ledger"
	"main/internal/market"
)

const closedTradesKept = 10

// Trader runs one strategy against one account. Each minute it folds the
// broker's changes into its own copy of the ledger, reconciles against the
// broker's valuation, and then lets the strategy act. It holds at most one
// position and stops entering near the Friday close.
type Trader struct {
	accountID string
	broker    *broker.Context
	history   *history.Service
	strategy  Strategy
	clock     market.Clock

	account      *ledger.Account
	closedTrades []ledger.Trade
}

func New(accountID string, ctx *broker.Context, historyService *history.Service, strategy Strategy, clock market.Clock) *Trader {
	t := &Trader{
		accountID: accountID,
		broker:    ctx,
		history:   historyService,
		strategy:  strategy,
		clock:     clock,
	}
	t.initialize()
	return t
}

func (t *Trader) AccountID() string { return t.accountID }

func (t *Trader) Strategy() Strategy { return t.strategy }

// Account returns the trader's view of its account, which may lag the
// broker's by one polling cycle.
func (t *Trader) Account() (ledger.Account, bool) {
	if t.account == nil {
		return ledger.Account{}, false
	}
	return *t.account, true
}

// LastClosedTrade returns the most recently opened of the remembered
// closed trades.
func (t *Trader) LastClosedTrade() (ledger.Trade, bool) {
	if len(t.closedTrades) == 0 {
		return ledger.Trade{}, false
	}
	return t.closedTrades[len(t.closedTrades)-1], true
}

// Candles exposes recent history to the strategy.
func (t *Trader) Candles(instrument market.Instrument, frame market.TimeFrame, from, to time.Time) (*market.Series, error) {
	return t.history.GetCandles(instrument, frame, from, to)
}

// ProcessUpdates is one decision cycle: refresh state, then open or close
// a position as the strategy and the calendar dictate.
func (t *Trader) ProcessUpdates() error {
	logs.Infof("trader: %s (%s)", t.strategy.Name(), t.accountID)
	t.refresh()

	if t.account == nil {
		logs.Errorf("no account available for %s, skipping this interval", t.accountID)
		return nil
	}

	now := t.clock.Now()
	stopTrading := now.Weekday() == time.Friday && now.Hour() > 11

	if len(t.account.Trades) == 0 {
		if stopTrading {
			return nil
		}
		request, err := t.strategy.ShouldOpenPosition(t, now)
		if err != nil {
			logs.Warnf("strategy %s could not decide, err: %+v", t.strategy.Name(), err)
			return nil
		}
		if request != nil {
			logs.Infof("opening position: %+v", *request)
			if err := t.openPosition(*request); err != nil {
				logs.Errorf("unable to open position, err: %+v", err)
			}
		}
		return nil
	}

	position := t.account.Trades[0]
	logs.Infof("existing position: %+v", position)
	if stopTrading {
		logs.Infof("closing position into the weekend at %v", now)
		if _, err := t.broker.CloseTrade(t.accountID, position.ID); err != nil {
			return errors.Wrap(err, "closing position for the weekend")
		}
	}
	return nil
}

// openPosition converts the strategy's stop loss and take profit
// distances into absolute prices and submits the order. Thresholds close
// a long by selling, so they are based on the bid; inverse pairs buy back
// the canonical pair when closing, so they start from the ask and convert
// through the canonical price.
func (t *Trader) openPosition(request OpenPositionRequest) error {
	if request.Units <= 0 {
		return errors.Errorf("can only request positive units, got %d", request.Units)
	}

	quotes, err := t.broker.GetPricing(request.Pair)
	if err != nil {
		return &broker.RequestError{Operation: "get pricing", Err: err}
	}
	quote := quotes[0]

	inverse := request.Pair.IsInverse()
	base := quote.Bid
	if inverse {
		base = quote.Ask
	}

	order := broker.OrderRequest{
		Instrument: request.Pair,
		Units:      request.Units,
		Limit:      request.Limit,
	}
	if request.StopLoss > 0 {
		if inverse {
			order.StopLoss = market.Invert(market.Invert(base) + request.StopLoss)
		} else {
			order.StopLoss = base - request.StopLoss
		}
	}
	if request.TakeProfit > 0 {
		if inverse {
			order.TakeProfit = market.Invert(market.Invert(base) - request.TakeProfit)
		} else {
			order.TakeProfit = base + request.TakeProfit
		}
	}

	if _, err := t.broker.SubmitOrder(t.accountID, order); err != nil {
		return &broker.RequestError{Operation: "submit order", Err: err}
	}
	return nil
}

func (t *Trader) refresh() {
	if t.account == nil {
		t.initialize()
		return
	}

	response, err := t.broker.AccountChanges(t.accountID, t.account.LastTransactionID)
	if err != nil {
		logs.Errorf("unable to check for account changes, assuming current state, err: %+v", err)
		return
	}
	account, err := t.account.ProcessChanges(response)
	if err != nil {
		logs.Errorf("unable to process account changes, err: %+v", err)
		return
	}
	t.account = &account
	t.rememberClosed(response.Changes.TradesClosed)
}

func (t *Trader) initialize() {
	started := time.Now()
	account, err := t.broker.GetAccount(t.accountID)
	if err != nil {
		logs.Errorf("unable to retrieve account %s, err: %+v", t.accountID, err)
		return
	}
	t.account = &account

	var closed []ledger.Trade
	for _, history := range t.broker.ListTrades(t.accountID, closedTradesKept) {
		closed = append(closed, history.Trade)
	}
	t.rememberClosed(closed)

	logs.Infof("loaded account %s and %d closed trades in %s",
		t.accountID, len(t.closedTrades), time.Since(started).Round(time.Millisecond))
}

// rememberClosed keeps the last few closed trades ordered by open time.
func (t *Trader) rememberClosed(closed []ledger.Trade) {
	if len(closed) == 0 {
		return
	}
	t.closedTrades = append(t.closedTrades, closed...)
	sort.Slice(t.closedTrades, func(i, j int) bool {
		return t.closedTrades[i].OpenTime.Before(t.closedTrades[j].OpenTime)
	})
	if extra := len(t.closedTrades) - closedTradesKept; extra > 0 {
		t.closedTrades = t.closedTrades[extra:]
	}
}
