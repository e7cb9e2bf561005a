package sim

import (
	"github.com/yanun0323/logs"

	"main/internal/broker"
	"main/internal/ledger"
	"main/internal/market"
	"main/internal/trader"
)

// Summary aggregates every trader running one strategy.
type Summary struct {
	Strategy         string
	AverageProfit    market.Pippettes
	ProfitableTrades int
	TotalTrades      int
	BestTrade        *broker.TradeHistory
	WorstTrade       *broker.TradeHistory
	Drawdown         ledger.Snapshot
	Peak             ledger.Snapshot
}

// Results summarizes the finished run per strategy.
func (r *Runner) Results() []Summary {
	byStrategy := make(map[string][]*trader.Trader, len(r.traders))
	var order []string
	for _, t := range r.traders {
		name := t.Strategy().Name()
		if _, ok := byStrategy[name]; !ok {
			order = append(order, name)
		}
		byStrategy[name] = append(byStrategy[name], t)
	}

	summaries := make([]Summary, 0, len(order))
	for _, name := range order {
		summaries = append(summaries, r.summarize(name, byStrategy[name]))
	}
	return summaries
}

func (r *Runner) summarize(strategy string, traders []*trader.Trader) Summary {
	summary := Summary{Strategy: strategy}

	var total market.Pippettes
	first := true
	for _, t := range traders {
		snapshots := r.context.Snapshots(t.AccountID())
		for _, snapshot := range snapshots {
			if first {
				summary.Drawdown, summary.Peak = snapshot, snapshot
				first = false
				continue
			}
			if snapshot.Pipettes() < summary.Drawdown.Pipettes() {
				summary.Drawdown = snapshot
			}
			if snapshot.Pipettes() > summary.Peak.Pipettes() {
				summary.Peak = snapshot
			}
		}
		if len(snapshots) > 0 {
			total += snapshots[len(snapshots)-1].Pipettes()
		}

		for _, trade := range r.context.ListTrades(t.AccountID(), 0) {
			summary.TotalTrades++
			if trade.Trade.RealizedPL > 0 {
				summary.ProfitableTrades++
			}
			if summary.BestTrade == nil || trade.Trade.RealizedPL > summary.BestTrade.Trade.RealizedPL {
				summary.BestTrade = &trade
			}
			if summary.WorstTrade == nil || trade.Trade.RealizedPL < summary.WorstTrade.Trade.RealizedPL {
				summary.WorstTrade = &trade
			}
		}
	}
	if len(traders) > 0 {
		summary.AverageProfit = total / market.Pippettes(len(traders))
	}
	return summary
}

// Metrics exposes the run counters, mostly for tests and final reporting.
func (r *Runner) Metrics() MetricsSnapshot {
	return r.metrics.Snapshot()
}

func (r *Runner) logResults() {
	metrics := r.Metrics()
	logs.Infof("simulated %d open minutes, %d closed, %d trader failures, avg tick %v",
		metrics.Minutes, metrics.ClosedMinutes, metrics.TraderErrors, metrics.TickLatency.Avg)

	for _, summary := range r.Results() {
		logs.Infof("%s:", summary.Strategy)
		if summary.WorstTrade != nil {
			logs.Infof("worst trade: %s from %v to %v", summary.WorstTrade.Trade.RealizedPL.Pips(),
				summary.WorstTrade.Trade.OpenTime, summary.WorstTrade.Trade.CloseTime)
		}
		if summary.BestTrade != nil {
			logs.Infof("best trade: %s from %v to %v", summary.BestTrade.Trade.RealizedPL.Pips(),
				summary.BestTrade.Trade.OpenTime, summary.BestTrade.Trade.CloseTime)
		}
		logs.Infof("profitable trades: %d/%d", summary.ProfitableTrades, summary.TotalTrades)
		logs.Infof("highest drawdown: %s at %v", summary.Drawdown.Pipettes().Pips(), summary.Drawdown.Time)
		logs.Infof("highest profit: %s at %v", summary.Peak.Pipettes().Pips(), summary.Peak.Time)
		logs.Infof("average profit: %s from %v to %v", summary.AverageProfit.Pips(),
			r.simulation.Start, r.simulation.End)
	}
}
