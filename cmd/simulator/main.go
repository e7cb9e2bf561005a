package main

import (
	"flag"
	"log"
	"math/rand"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"

	"main/internal/broker"
	"main/internal/history"
	"main/internal/historydata"
	"main/internal/ops"
	"main/internal/sim"
	"main/internal/store"
	"main/internal/trader"
)

func main() {
	configPath := flag.String("config", "simulation.json", "Path to JSON config")
	pyroscopeAddr := flag.String("pyroscope", "", "Pyroscope server address (empty=disabled)")
	flag.Parse()

	loaded, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if *pyroscopeAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "forex-simulator",
			ServerAddress:   *pyroscopeAddr,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	db, err := store.Open(loaded.Store)
	if err != nil {
		log.Fatalf("store open failed: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logs.Warnf("closing store: %+v", err)
		}
	}()

	if err := run(loaded, db); err != nil {
		log.Fatalf("simulation failed: %v", err)
	}
}

func run(loaded ops.Loaded, db *store.Store) error {
	clock := sim.NewClock(loaded.Simulation.Start)
	service := history.New(clock, historydata.NewCSVSource(loaded.DataDir))
	context := broker.NewContext(clock, service, loaded.Simulation.Spread)

	traders := make([]*trader.Trader, 0, len(loaded.Traders))
	for i, spec := range loaded.Traders {
		if _, err := context.CreateAccount(spec.Account, loaded.Simulation.Balance); err != nil {
			return err
		}

		// One random source per trader, offset by position, so adding a
		// trader never changes the draws the existing ones see.
		rng := rand.New(rand.NewSource(loaded.Simulation.Seed + int64(i)))
		strategy, err := trader.NewStrategyByName(spec.Strategy, rng)
		if err != nil {
			return err
		}
		traders = append(traders, trader.New(spec.Account, context, service, strategy, clock))
		logs.Infof("trader %s runs %s", spec.Account, strategy.Name())
	}

	runner := sim.NewRunner(loaded.Simulation, clock, context, traders).WithStore(db)
	return runner.Run()
}
