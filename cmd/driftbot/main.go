// Command driftbot runs headless bot sessions against a scripted server and
// prints per-run and aggregate reports.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/fennwald/driftbot/internal/scenario"
)

func main() {
	var runs int
	var ticks int
	var seedBase int64
	var seedStep int64
	var behaviorName string
	var enemies int
	var verbose bool

	flag.IntVar(&runs, "runs", 5, "number of headless session runs")
	flag.IntVar(&ticks, "ticks", 6000, "ticks per run")
	flag.Int64Var(&seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&behaviorName, "behavior", "brawler", "behavior to run (brawler, turret)")
	flag.IntVar(&enemies, "enemies", 2, "scripted enemy count")
	flag.BoolVar(&verbose, "verbose", false, "print a sim log summary after each run")
	flag.Parse()

	if runs <= 0 {
		fmt.Println("error: -runs must be > 0")
		os.Exit(1)
	}
	if ticks <= 0 {
		fmt.Println("error: -ticks must be > 0")
		os.Exit(1)
	}
	if behaviorName != "brawler" && behaviorName != "turret" {
		fmt.Printf("error: unsupported behavior %q (supported: brawler, turret)\n", behaviorName)
		os.Exit(1)
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	fmt.Printf("=== Headless Session Report ===\n")
	fmt.Printf("behavior=%s runs=%d ticks=%d enemies=%d seed_base=%d seed_step=%d\n\n",
		behaviorName, runs, ticks, enemies, seedBase, seedStep)

	var total scenario.Report
	total.TreeResults = make(map[string]int)

	for i := 0; i < runs; i++ {
		seed := seedBase + int64(i)*seedStep
		log.Info("starting run", zap.Int("run", i+1), zap.Int64("seed", seed))

		s := scenario.New(scenario.Config{
			Seed:       seed,
			Verbose:    verbose,
			EnemyCount: enemies,
			Behavior:   behaviorName,
		})
		s.Run(ticks)

		r := s.BuildReport()
		fmt.Printf("--- run %d (seed=%d) ---\n%s\n", i+1, seed, r)

		total.Ticks += r.Ticks
		total.PositionsSent += r.PositionsSent
		total.ShipRequests += r.ShipRequests
		total.AttachRequests += r.AttachRequests
		total.Spawns += r.Spawns
		total.Teleports += r.Teleports
		total.Attaches += r.Attaches
		total.Detaches += r.Detaches
		for k, v := range r.TreeResults {
			total.TreeResults[k] += v
		}

		if verbose {
			fmt.Println(s.Sim.SimLog.Summary(s.Sim.Conn.GetCurrentTick(), s.Sim.Players))
		}
	}

	fmt.Printf("=== aggregate over %d runs ===\n%s", runs, total)
}
