package sim

import (
	"time"

	"github.com/pkg/errors"
	"github.com/yanun0323/logs"

	"main/internal/broker"
	"main/internal/market"
	"main/internal/store"
	"main/internal/trader"
)

// Simulation describes one run over historical data.
type Simulation struct {
	Start   time.Time
	End     time.Time
	Spread  market.Pippettes
	Balance market.Pippettes
	// Seed makes every strategy's randomness reproducible.
	Seed int64
	// MinuteDelay slows the run down for watching it live; zero runs flat out.
	MinuteDelay time.Duration
}

func (s Simulation) Validate() error {
	if !s.Start.Before(s.End) {
		return errors.Errorf("start %v must be before end %v", s.Start, s.End)
	}
	if s.Spread <= 0 {
		return errors.Errorf("spread must be positive, got %d", s.Spread)
	}
	if s.Balance <= 0 {
		return errors.Errorf("balance must be positive, got %d", s.Balance)
	}
	return nil
}

// Runner replays the simulation minute by minute. Each minute the broker
// first settles resting orders and armed stop losses, then every trader
// acts, then the broker executes what they submitted and snapshots the
// accounts. One trader failing never stops the others.
type Runner struct {
	simulation Simulation
	clock      *Clock
	context    *broker.Context
	traders    []*trader.Trader
	store      *store.Store
	metrics    *Metrics
}

func NewRunner(simulation Simulation, clock *Clock, context *broker.Context, traders []*trader.Trader) *Runner {
	return &Runner{
		simulation: simulation,
		clock:      clock,
		context:    context,
		traders:    traders,
		metrics:    NewMetrics(),
	}
}

// WithStore persists accounts after every minute. A nil store disables
// persistence entirely.
func (r *Runner) WithStore(s *store.Store) *Runner {
	r.store = s
	return r
}

func (r *Runner) Run() error {
	if err := r.simulation.Validate(); err != nil {
		return err
	}

	for r.clock.Now().Before(r.simulation.End) {
		r.clock.Advance(time.Minute)

		now := r.clock.Now()
		if now.Hour() == 0 && now.Minute() == 0 {
			logs.Infof("time: %v", now)
		}
		if !r.context.Available() {
			r.metrics.IncClosedMinute()
			continue
		}

		tickStart := time.Now()
		if err := r.context.BeforeTraders(); err != nil {
			return errors.Wrap(err, "processing pending orders")
		}
		for _, t := range r.traders {
			r.processTrader(t)
		}
		r.context.AfterTraders()
		r.persist()
		r.metrics.IncMinute()
		r.metrics.ObserveTick(time.Since(tickStart))

		if r.simulation.MinuteDelay > 0 {
			time.Sleep(r.simulation.MinuteDelay)
		}
	}

	r.logResults()
	return nil
}

// persist upserts every account's current state. Failures are logged and
// never stop the run; the store is bookkeeping, not a dependency.
func (r *Runner) persist() {
	if r.store == nil {
		return
	}
	for _, t := range r.traders {
		account, ok := t.Account()
		if !ok {
			continue
		}
		if err := r.store.SaveAccount(account); err != nil {
			logs.Warnf("persist account %s: %+v", t.AccountID(), err)
			continue
		}
		if closed, ok := t.LastClosedTrade(); ok {
			if err := r.store.SaveTrade(closed); err != nil {
				logs.Warnf("persist closed trade for %s: %+v", t.AccountID(), err)
			}
		}
		if err := r.store.SaveOrders(r.context.PendingOrders(t.AccountID())); err != nil {
			logs.Warnf("persist orders for %s: %+v", t.AccountID(), err)
		}
		if snapshots := r.context.Snapshots(t.AccountID()); len(snapshots) != 0 {
			if err := r.store.SaveSnapshot(snapshots[len(snapshots)-1]); err != nil {
				logs.Warnf("persist snapshot for %s: %+v", t.AccountID(), err)
			}
		}
	}
}

// processTrader isolates one trader's cycle so a panic or error in one
// strategy cannot take down the rest of the run.
func (r *Runner) processTrader(t *trader.Trader) {
	defer func() {
		if p := recover(); p != nil {
			r.metrics.IncTraderError()
			logs.Errorf("trader %s panicked: %v", t.AccountID(), p)
		}
	}()
	if err := t.ProcessUpdates(); err != nil {
		r.metrics.IncTraderError()
		logs.Errorf("unable to process trader %s, err: %+v", t.AccountID(), err)
	}
}
