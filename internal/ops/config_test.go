package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"main/internal/market"
)

func validConfig() FileConfig {
	return FileConfig{
		Simulation: SimulationConfig{
			Start:   "2017-01-03",
			End:     "2017-11-30",
			Spread:  "0.002",
			Balance: "100.00",
			Seed:    4,
		},
		History: HistoryConfig{DataDir: "testdata/history"},
		Traders: []TraderConfig{
			{Account: "rand-1", Strategy: "open-random-position"},
			{Account: "smart-1", Strategy: "smarter-random-position-martingale"},
		},
	}
}

func TestResolve(t *testing.T) {
	loaded, err := Resolve(validConfig())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	wantStart := time.Date(2017, time.January, 3, 0, 0, 0, 0, market.Zone)
	if !loaded.Simulation.Start.Equal(wantStart) {
		t.Fatalf("start = %v, want %v", loaded.Simulation.Start, wantStart)
	}
	if loaded.Simulation.Spread != 200 {
		t.Fatalf("spread = %d, want 200", loaded.Simulation.Spread)
	}
	if loaded.Simulation.Balance != 10_000_000 {
		t.Fatalf("balance = %d, want 10000000", loaded.Simulation.Balance)
	}
	if len(loaded.Traders) != 2 {
		t.Fatalf("traders = %d, want 2", len(loaded.Traders))
	}
	if loaded.Store.Enabled() {
		t.Fatal("store should be disabled when unset")
	}
}

func TestResolveRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FileConfig)
	}{
		{"end before start", func(c *FileConfig) { c.Simulation.End = "2016-01-01" }},
		{"bad date", func(c *FileConfig) { c.Simulation.Start = "03/01/2017" }},
		{"bad spread", func(c *FileConfig) { c.Simulation.Spread = "wide" }},
		{"negative delay", func(c *FileConfig) { c.Simulation.MinuteDelay = "-1s" }},
		{"no data dir", func(c *FileConfig) { c.History.DataDir = "" }},
		{"no traders", func(c *FileConfig) { c.Traders = nil }},
		{"unknown strategy", func(c *FileConfig) { c.Traders[0].Strategy = "clairvoyant" }},
		{"duplicate account", func(c *FileConfig) { c.Traders[1].Account = c.Traders[0].Account }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			if _, err := Resolve(cfg); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.json")
	content := `{
		"simulation": {"start": "2017-01-03", "end": "2017-11-30", "spread": "0.002", "balance": "100.00", "seed": 4, "minuteDelay": "5ms"},
		"history": {"dataDir": "testdata/history"},
		"store": {"database": "sim"},
		"traders": [{"account": "rand-1", "strategy": "open-random-position"}]
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Simulation.MinuteDelay != 5*time.Millisecond {
		t.Fatalf("minuteDelay = %v, want 5ms", loaded.Simulation.MinuteDelay)
	}
	if !loaded.Store.Enabled() {
		t.Fatal("store should be enabled")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
