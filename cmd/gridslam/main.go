// Command gridslam runs the exploration simulation headless. It can record
// runs to SQLite, serve a live monitor and write PNG plots when it finishes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/gridslam/internal/config"
	"github.com/banshee-data/gridslam/internal/monitoring"
	"github.com/banshee-data/gridslam/internal/timeutil"
	"github.com/banshee-data/gridslam/internal/version"
)

var (
	configPath = flag.String("config", "", "Path to a simulation JSON config (built-in defaults when empty)")
	seed       = flag.Int64("seed", 0, "Random seed (0 uses the config seed, then the wall clock)")
	steps      = flag.Int("steps", 2000, "Number of steps to run (0 runs until interrupted)")
	tick       = flag.Duration("tick", -1, "Tick interval (negative uses the config, 0 runs unpaced)")
	keys       = flag.String("keys", "", "Hold these keys on every step, e.g. \"wa\" (empty wanders)")
	dbPath     = flag.String("db", "", "SQLite database to record the run into")
	listen     = flag.String("listen", "", "Serve the live monitor on this address, e.g. :8081")
	plotsDir   = flag.String("plots", "", "Write PNG plots into this directory when the run ends")
	verbose    = flag.Bool("v", false, "Log per-step diagnostics")
	versionF   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *versionF {
		fmt.Println(version.String())
		return
	}

	if *verbose {
		monitoring.SetDiagLogger(log.Printf)
	}

	cfg := config.EmptySimConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadSimConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := run(ctx, options{
		Config:   cfg,
		Seed:     *seed,
		Steps:    *steps,
		Tick:     tickInterval(*tick, cfg),
		Keys:     *keys,
		DBPath:   *dbPath,
		Listen:   *listen,
		PlotsDir: *plotsDir,
		Clock:    timeutil.RealClock{},
	})
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}

	s := rep.Summary
	fmt.Printf("seed:        %d\n", rep.Seed)
	if rep.RunID != "" {
		fmt.Printf("run:         %s\n", rep.RunID)
	}
	fmt.Printf("steps:       %d\n", rep.Steps)
	fmt.Printf("pose error:  mean %.3f rmse %.3f p95 %.3f max %.3f (%s)\n", s.Mean, s.RMSE, s.P95, s.Max, s.Quality)
	fmt.Printf("corrections: %d\n", s.Corrections)
	fmt.Printf("map:         %d known cells, %.1f%% agree with the world\n",
		rep.Agreement.Known, rep.Agreement.Ratio*100)
}
