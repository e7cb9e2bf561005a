package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"main/internal/market"
	"main/internal/sim"
	"main/internal/store"
	"main/internal/trader"
)

const dateLayout = "2006-01-02"

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Simulation SimulationConfig `json:"simulation"`
	History    HistoryConfig    `json:"history"`
	Store      store.Config     `json:"store"`
	Traders    []TraderConfig   `json:"traders"`
}

// SimulationConfig defines the run window and market parameters. Prices are
// decimal strings, dates are "2006-01-02" in the market time zone.
type SimulationConfig struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	Spread      string `json:"spread"`
	Balance     string `json:"balance"`
	Seed        int64  `json:"seed"`
	MinuteDelay string `json:"minuteDelay"`
}

// HistoryConfig points at the raw candle files.
type HistoryConfig struct {
	DataDir string `json:"dataDir"`
}

// TraderConfig names one account and the strategy that runs it.
type TraderConfig struct {
	Account  string `json:"account"`
	Strategy string `json:"strategy"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Simulation sim.Simulation
	DataDir    string
	Store      store.Config
	Traders    []TraderConfig
}

// Load reads a JSON config file and resolves it.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	return Resolve(cfg)
}

// Resolve validates a parsed config and converts it to runtime types.
func Resolve(cfg FileConfig) (Loaded, error) {
	simulation, err := resolveSimulation(cfg.Simulation)
	if err != nil {
		return Loaded{}, err
	}
	if cfg.History.DataDir == "" {
		return Loaded{}, fmt.Errorf("history dataDir is empty")
	}
	traders, err := resolveTraders(cfg.Traders)
	if err != nil {
		return Loaded{}, err
	}
	return Loaded{
		Simulation: simulation,
		DataDir:    cfg.History.DataDir,
		Store:      cfg.Store,
		Traders:    traders,
	}, nil
}

func resolveSimulation(cfg SimulationConfig) (sim.Simulation, error) {
	start, err := time.ParseInLocation(dateLayout, cfg.Start, market.Zone)
	if err != nil {
		return sim.Simulation{}, fmt.Errorf("invalid start date %q: %w", cfg.Start, err)
	}
	end, err := time.ParseInLocation(dateLayout, cfg.End, market.Zone)
	if err != nil {
		return sim.Simulation{}, fmt.Errorf("invalid end date %q: %w", cfg.End, err)
	}
	spread, err := market.ParsePippettes(cfg.Spread)
	if err != nil {
		return sim.Simulation{}, fmt.Errorf("invalid spread %q: %w", cfg.Spread, err)
	}
	balance, err := market.ParsePippettes(cfg.Balance)
	if err != nil {
		return sim.Simulation{}, fmt.Errorf("invalid balance %q: %w", cfg.Balance, err)
	}

	var minuteDelay time.Duration
	if cfg.MinuteDelay != "" {
		minuteDelay, err = time.ParseDuration(cfg.MinuteDelay)
		if err != nil {
			return sim.Simulation{}, fmt.Errorf("invalid minuteDelay %q: %w", cfg.MinuteDelay, err)
		}
		if minuteDelay < 0 {
			return sim.Simulation{}, fmt.Errorf("minuteDelay must not be negative")
		}
	}

	simulation := sim.Simulation{
		Start:       start,
		End:         end,
		Spread:      spread,
		Balance:     balance,
		Seed:        cfg.Seed,
		MinuteDelay: minuteDelay,
	}
	if err := simulation.Validate(); err != nil {
		return sim.Simulation{}, err
	}
	return simulation, nil
}

func resolveTraders(cfgs []TraderConfig) ([]TraderConfig, error) {
	if len(cfgs) == 0 {
		return nil, fmt.Errorf("at least one trader is required")
	}
	known := make(map[string]bool)
	for _, name := range trader.StrategyNames() {
		known[name] = true
	}
	accounts := make(map[string]bool, len(cfgs))
	for _, cfg := range cfgs {
		if cfg.Account == "" {
			return nil, fmt.Errorf("trader account is empty")
		}
		if accounts[cfg.Account] {
			return nil, fmt.Errorf("duplicate trader account %q", cfg.Account)
		}
		accounts[cfg.Account] = true
		if !known[cfg.Strategy] {
			return nil, fmt.Errorf("unknown strategy %q for account %q", cfg.Strategy, cfg.Account)
		}
	}
	return cfgs, nil
}
