package broker

import (
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/yanun0323/logs"

	"main/internal/engine"
	"main/internal/history"
	"main/internal/ledger"
	"main/internal/market"
)

// Context simulates a broker over historical data. It owns the account
// ledgers, quotes spread adjusted prices, feeds orders to the matching
// engine and stages per account change sets for traders to poll.
type Context struct {
	clock   market.Clock
	history *history.Service
	market  *engine.HistoricalMarket
	engine  *engine.Engine
	spread  market.Pippettes

	mu         sync.Mutex
	sequence   map[string]int64
	portfolios map[string]ledger.Account
	staged     map[string]*ledger.ChangesResponse
	armed      map[string]OrderRequest
	arming     map[int64]OrderRequest
	closed     map[string][]TradeHistory
	snapshots  map[string][]ledger.Snapshot
}

func NewContext(clock market.Clock, historyService *history.Service, spread market.Pippettes) *Context {
	c := &Context{
		clock:      clock,
		history:    historyService,
		market:     engine.NewHistoricalMarket(historyService),
		spread:     spread,
		sequence:   make(map[string]int64),
		portfolios: make(map[string]ledger.Account),
		staged:     make(map[string]*ledger.ChangesResponse),
		armed:      make(map[string]OrderRequest),
		arming:     make(map[int64]OrderRequest),
		closed:     make(map[string][]TradeHistory),
		snapshots:  make(map[string][]ledger.Snapshot),
	}
	c.engine = engine.New(c.market, c)
	return c
}

func (c *Context) halfSpread() market.Pippettes {
	return c.spread / 2
}

// PendingOrders lists the orders still resting with the matching engine.
func (c *Context) PendingOrders(accountID string) []engine.Order {
	pending := c.engine.Pending(accountID)
	orders := make([]engine.Order, 0, len(pending))
	for _, order := range pending {
		orders = append(orders, *order)
	}
	return orders
}

// Available reports whether the market can trade right now.
func (c *Context) Available() bool {
	return c.market.IsOpen(c.clock.Now())
}

// AvailableOn reports whether the market traded at all on the given date.
func (c *Context) AvailableOn(date time.Time) bool {
	return c.market.HasData(market.EURUSD, date)
}

// CreateAccount opens a fresh account with the given starting balance.
func (c *Context) CreateAccount(id string, balance market.Pippettes) (ledger.Account, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.portfolios[id]; ok {
		return ledger.Account{}, errors.Wrapf(ErrAccountExists, "id: %s", id)
	}
	account := ledger.Account{ID: id, Balance: balance, LastTransactionID: 1}
	c.sequence[id] = 1
	c.portfolios[id] = account
	c.snapshots[id] = []ledger.Snapshot{{Account: account, Time: c.clock.Now()}}
	return account, nil
}

// GetAccount returns the account's current ledger state.
func (c *Context) GetAccount(id string) (ledger.Account, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	account, ok := c.portfolios[id]
	if !ok {
		return ledger.Account{}, errors.Wrapf(ErrAccountNotFound, "id: %s", id)
	}
	return account, nil
}

// GetPricing quotes bid and ask for each instrument.
func (c *Context) GetPricing(instruments ...market.Instrument) ([]Quote, error) {
	now := c.clock.Now()
	quotes := make([]Quote, 0, len(instruments))
	seen := make(map[market.Instrument]bool, len(instruments))
	for _, instrument := range instruments {
		if seen[instrument] {
			continue
		}
		seen[instrument] = true

		mid, ok := c.market.Price(instrument, now)
		if !ok {
			return nil, errors.Wrapf(ErrNoQuote, "instrument: %s, time: %v", instrument, now)
		}
		quotes = append(quotes, Quote{
			Instrument: instrument,
			Bid:        mid - c.halfSpread(),
			Ask:        mid + c.halfSpread(),
		})
	}
	return quotes, nil
}

// SubmitOrder places a buy order for the account. The order fills on a
// later engine pass; stop loss and take profit thresholds arm once it does.
func (c *Context) SubmitOrder(accountID string, request OrderRequest) (*engine.Order, error) {
	if request.Units <= 0 {
		return nil, errors.Wrapf(ErrShortNotSupported, "units: %d", request.Units)
	}
	if _, err := c.GetAccount(accountID); err != nil {
		return nil, err
	}

	order := &engine.Order{
		AccountID:  accountID,
		Instrument: request.Instrument,
		Units:      request.Units,
		Kind:       engine.KindMarket,
		Submitted:  c.clock.Now(),
		Expiry:     request.Expiry,
	}
	if request.Limit > 0 {
		order.Kind = engine.KindLimit
		order.Price = request.Limit
	}
	if err := c.engine.Submit(order); err != nil {
		return nil, err
	}

	// thresholds only arm when the order fills; a rejected submission must
	// not touch whatever guards the current position
	c.mu.Lock()
	c.arming[order.ID] = request
	c.mu.Unlock()
	return order, nil
}

// CloseTrade sells the account's open position in full.
func (c *Context) CloseTrade(accountID string, tradeID int64) (*engine.Order, error) {
	c.mu.Lock()
	portfolio, ok := c.portfolios[accountID]
	if !ok {
		c.mu.Unlock()
		return nil, errors.Wrapf(ErrAccountNotFound, "id: %s", accountID)
	}
	var position ledger.Trade
	found := false
	for _, trade := range portfolio.Trades {
		if trade.ID == tradeID {
			position = trade
			found = true
			break
		}
	}
	delete(c.armed, accountID)
	c.mu.Unlock()

	if !found {
		return nil, errors.Wrapf(ErrTradeNotFound, "account: %s, trade: %d", accountID, tradeID)
	}

	order := &engine.Order{
		AccountID:  accountID,
		Instrument: position.Instrument,
		Units:      -position.CurrentUnits,
		Kind:       engine.KindMarket,
		TradeID:    position.ID,
		Submitted:  c.clock.Now(),
	}
	if err := c.engine.Submit(order); err != nil {
		return nil, err
	}
	return order, nil
}

// ListTrades returns the account's closed trades, newest first, capped at
// count when positive.
func (c *Context) ListTrades(accountID string, count int) []TradeHistory {
	c.mu.Lock()
	defer c.mu.Unlock()

	trades := make([]TradeHistory, len(c.closed[accountID]))
	copy(trades, c.closed[accountID])
	sort.Slice(trades, func(i, j int) bool {
		return trades[i].Trade.OpenTime.After(trades[j].Trade.OpenTime)
	})
	if count > 0 && count < len(trades) {
		trades = trades[:count]
	}
	return trades
}

// AccountChanges returns everything that happened since the given
// transaction ID, plus the account's current authoritative valuation.
// Returned changes are consumed; polling again yields only valuations.
func (c *Context) AccountChanges(accountID string, sinceTransactionID int64) (ledger.ChangesResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	portfolio, ok := c.portfolios[accountID]
	if !ok {
		return ledger.ChangesResponse{}, errors.Wrapf(ErrAccountNotFound, "id: %s", accountID)
	}

	latest := c.sequence[accountID]
	if staged, ok := c.staged[accountID]; ok && sinceTransactionID != latest {
		response := *staged
		response.State = valuationState(portfolio)
		delete(c.staged, accountID)
		return response, nil
	}
	return ledger.ChangesResponse{
		LastTransactionID: latest,
		State:             valuationState(portfolio),
	}, nil
}

// Snapshots returns the account's end of minute snapshots, oldest first.
func (c *Context) Snapshots(accountID string) []ledger.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshots := make([]ledger.Snapshot, len(c.snapshots[accountID]))
	copy(snapshots, c.snapshots[accountID])
	return snapshots
}

// BeforeTraders advances resting orders to the current minute and closes
// any position that breached its armed stop loss or take profit.
func (c *Context) BeforeTraders() error {
	now := c.clock.Now()
	c.engine.Process(now)

	submitted := false
	for _, accountID := range c.accountIDs() {
		ok, err := c.checkStopLossTakeProfit(accountID, now)
		if err != nil {
			return err
		}
		submitted = submitted || ok
	}
	if submitted {
		c.engine.Process(now)
	}
	return nil
}

// AfterTraders executes orders submitted this minute and snapshots every
// account at the minute's prices.
func (c *Context) AfterTraders() {
	now := c.clock.Now()
	c.engine.Process(now)

	c.mu.Lock()
	defer c.mu.Unlock()
	for accountID, portfolio := range c.portfolios {
		portfolio = c.revalued(portfolio, now)
		c.portfolios[accountID] = portfolio
		c.snapshots[accountID] = append(c.snapshots[accountID], ledger.Snapshot{Account: portfolio, Time: now})
	}
}

func (c *Context) accountIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.portfolios))
	for id := range c.portfolios {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// checkStopLossTakeProfit reports whether it submitted a closing order.
func (c *Context) checkStopLossTakeProfit(accountID string, now time.Time) (bool, error) {
	c.mu.Lock()
	request, ok := c.armed[accountID]
	if !ok || (request.StopLoss <= 0 && request.TakeProfit <= 0) {
		c.mu.Unlock()
		return false, nil
	}
	portfolio := c.portfolios[accountID]
	if len(portfolio.Trades) == 0 {
		// limit order that hasn't filled yet
		c.mu.Unlock()
		return false, nil
	}
	position := portfolio.Trades[0]
	c.mu.Unlock()

	mid, quoted := c.market.Price(position.Instrument, now)
	if !quoted {
		return false, nil
	}
	bid := mid - c.halfSpread()

	stop := request.StopLoss > 0 && bid <= request.StopLoss
	take := request.TakeProfit > 0 && bid >= request.TakeProfit
	if !stop && !take {
		return false, nil
	}

	if _, err := c.CloseTrade(accountID, position.ID); err != nil {
		return false, err
	}
	return true, nil
}

// revalued marks every open position to the current bid.
func (c *Context) revalued(portfolio ledger.Account, now time.Time) ledger.Account {
	if len(portfolio.Trades) == 0 {
		return portfolio
	}
	trades := make([]ledger.Trade, len(portfolio.Trades))
	for i, trade := range portfolio.Trades {
		if mid, ok := c.market.Price(trade.Instrument, now); ok {
			trade.UnrealizedPL = (mid - c.halfSpread() - trade.Price) * market.Pippettes(trade.CurrentUnits)
		}
		trades[i] = trade
	}
	portfolio.Trades = trades
	return portfolio
}

func valuationState(portfolio ledger.Account) ledger.ChangesState {
	states := make([]ledger.TradeState, len(portfolio.Trades))
	for i, trade := range portfolio.Trades {
		states[i] = ledger.TradeState{ID: trade.ID, UnrealizedPL: trade.UnrealizedPL}
	}
	return ledger.ChangesState{
		NetAssetValue: portfolio.NetAssetValue(),
		UnrealizedPL:  portfolio.UnrealizedPL(),
		Trades:        states,
	}
}

func (c *Context) nextTransactionID(accountID string) int64 {
	c.sequence[accountID]++
	return c.sequence[accountID]
}

// stagedFor returns the change set being accumulated for the account,
// creating an empty one if needed. Callers must hold the lock.
func (c *Context) stagedFor(accountID string) *ledger.ChangesResponse {
	staged, ok := c.staged[accountID]
	if !ok {
		staged = &ledger.ChangesResponse{LastTransactionID: c.sequence[accountID]}
		c.staged[accountID] = staged
	}
	return staged
}

// OrderFilled applies the spread and settles the fill against the
// account: buys open a position at the ask, sells close the existing
// position at the bid.
func (c *Context) OrderFilled(order *engine.Order, mid market.Pippettes, now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	portfolio, ok := c.portfolios[order.AccountID]
	if !ok {
		return errors.Wrapf(ErrAccountNotFound, "id: %s", order.AccountID)
	}

	if order.Units > 0 {
		return c.fillBuy(portfolio, order, mid+c.halfSpread(), now)
	}
	return c.fillSell(portfolio, order, mid-c.halfSpread(), now)
}

func (c *Context) fillBuy(portfolio ledger.Account, order *engine.Order, ask market.Pippettes, now time.Time) error {
	if _, ok := portfolio.Position(order.Instrument); ok {
		return errors.Wrapf(ErrPositionExists, "instrument: %s", order.Instrument)
	}
	if _, ok := portfolio.Position(order.Instrument.Opposite()); ok {
		return errors.Wrapf(ErrPositionExists, "inverse of: %s", order.Instrument)
	}
	if cost := ask * market.Pippettes(order.Units); cost > portfolio.Balance {
		return errors.Wrapf(ErrInsufficientFunds, "cost: %s, balance: %s", cost.Dollars(), portfolio.Balance.Dollars())
	}

	transactionID := c.nextTransactionID(order.AccountID)
	position := ledger.Trade{
		ID:           transactionID,
		AccountID:    order.AccountID,
		Instrument:   order.Instrument,
		Price:        ask,
		OpenTime:     now,
		InitialUnits: order.Units,
		CurrentUnits: order.Units,
		// down the spread the moment it opens
		UnrealizedPL: -c.spread * market.Pippettes(order.Units),
	}
	order.ExecutionPrice = ask

	next := portfolio.PositionOpened(position, transactionID)
	c.portfolios[order.AccountID] = next
	c.armed[order.AccountID] = c.arming[order.ID]
	delete(c.arming, order.ID)

	staged := c.stagedFor(order.AccountID)
	staged.LastTransactionID = transactionID
	staged.Changes.FilledOrders = append(staged.Changes.FilledOrders, order.ID)
	staged.Changes.TradesOpened = append(staged.Changes.TradesOpened, position)
	staged.State = valuationState(next)
	return nil
}

func (c *Context) fillSell(portfolio ledger.Account, order *engine.Order, bid market.Pippettes, now time.Time) error {
	position, ok := portfolio.Position(order.Instrument)
	if !ok {
		return errors.Wrapf(ErrShortNotSupported, "no open position for %s", order.Instrument)
	}
	units := -order.Units
	if position.CurrentUnits != units {
		return errors.Wrapf(ErrPartialClose, "position units: %d, order units: %d", position.CurrentUnits, units)
	}

	transactionID := c.nextTransactionID(order.AccountID)
	closed := position
	closed.RealizedPL = (bid - position.Price) * market.Pippettes(units)
	closed.UnrealizedPL = 0
	closed.CurrentUnits = 0
	closed.CloseTime = now
	order.ExecutionPrice = bid

	next := portfolio.PositionClosed(closed, transactionID)
	c.portfolios[order.AccountID] = next

	candles, err := c.history.GetCandles(position.Instrument, market.OneMinute, position.OpenTime, now)
	if err != nil {
		logs.Warnf("no candle history for closed trade %d, err: %+v", closed.ID, err)
		candles = market.EmptySeries()
	}
	c.closed[order.AccountID] = append(c.closed[order.AccountID], TradeHistory{Trade: closed, Candles: candles})

	staged := c.stagedFor(order.AccountID)
	staged.LastTransactionID = transactionID
	staged.Changes.FilledOrders = append(staged.Changes.FilledOrders, order.ID)
	staged.Changes.TradesClosed = append(staged.Changes.TradesClosed, closed)
	staged.State = valuationState(next)
	return nil
}

// OrderCancelled records the cancellation for the account's next poll.
func (c *Context) OrderCancelled(order *engine.Order, _ time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.arming, order.ID)
	if _, ok := c.portfolios[order.AccountID]; !ok {
		return
	}
	staged := c.stagedFor(order.AccountID)
	staged.LastTransactionID = c.nextTransactionID(order.AccountID)
	staged.Changes.CancelledOrders = append(staged.Changes.CancelledOrders, order.ID)
}
