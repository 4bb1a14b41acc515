package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"path/filepath"
	"sync"
	"time"

	"github.com/banshee-data/gridslam/internal/config"
	"github.com/banshee-data/gridslam/internal/monitoring"
	"github.com/banshee-data/gridslam/internal/slam/eval"
	"github.com/banshee-data/gridslam/internal/slam/input"
	"github.com/banshee-data/gridslam/internal/slam/monitor"
	"github.com/banshee-data/gridslam/internal/slam/occupancy"
	"github.com/banshee-data/gridslam/internal/slam/params"
	"github.com/banshee-data/gridslam/internal/slam/plot"
	"github.com/banshee-data/gridslam/internal/slam/session"
	"github.com/banshee-data/gridslam/internal/slam/storage/sqlite"
	"github.com/banshee-data/gridslam/internal/timeutil"
)

const (
	recordBatch  = 100
	publishEvery = 10
	logEvery     = 500
)

type options struct {
	Config   *config.SimConfig
	Seed     int64
	Steps    int
	Tick     time.Duration
	Keys     string
	DBPath   string
	Listen   string
	PlotsDir string
	Clock    timeutil.Clock
}

type report struct {
	RunID     string
	Seed      int64
	Steps     int
	Summary   eval.Summary
	Agreement eval.Agreement
}

// tickInterval resolves the -tick flag: negative defers to the config.
func tickInterval(flagValue time.Duration, cfg *config.SimConfig) time.Duration {
	if flagValue >= 0 {
		return flagValue
	}
	return cfg.GetTickInterval()
}

// resolveSeed prefers the flag, then the config, then the clock.
func resolveSeed(flagSeed int64, cfg *config.SimConfig, clock timeutil.Clock) int64 {
	if flagSeed != 0 {
		return flagSeed
	}
	if s := cfg.GetSeed(); s != 0 {
		return s
	}
	return clock.Now().UnixNano()
}

// newDriver returns the key source for each step: a fixed key set when
// keys is non-empty, otherwise a Wanderer.
func newDriver(keys string, rng *rand.Rand) (func() input.KeySet, error) {
	if keys == "" {
		w := input.NewWanderer(rng)
		return w.Next, nil
	}
	held, err := input.ParseKeys(keys)
	if err != nil {
		return nil, err
	}
	return func() input.KeySet { return held }, nil
}

func stepRecord(r session.StepResult, m *occupancy.Map) sqlite.StepRecord {
	return sqlite.StepRecord{
		Step:       r.Step,
		TruthX:     r.Truth.X,
		TruthY:     r.Truth.Y,
		TruthTheta: r.Truth.Theta,
		BeliefX:    r.Belief.X,
		BeliefY:    r.Belief.Y,
		PoseError:  r.PoseError,
		Score:      r.Localize.Best,
		Corrected:  r.Localize.Adopted,
		KnownCells: m.Counts().Known(),
	}
}

func run(ctx context.Context, opts options) (*report, error) {
	if opts.Config == nil {
		opts.Config = config.EmptySimConfig()
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	p := params.FromSimConfig(cfg)
	rep := &report{Seed: resolveSeed(opts.Seed, cfg, opts.Clock)}
	rng := rand.New(rand.NewSource(rep.Seed))

	next, err := newDriver(opts.Keys, rng)
	if err != nil {
		return nil, err
	}

	surface := session.Surface{
		Width:  float64(cfg.GetSurfaceWidth()),
		Height: float64(cfg.GetSurfaceHeight()),
	}
	sess, err := session.New(p, surface, rng)
	if err != nil {
		return nil, err
	}
	monitoring.Logf("gridslam: seed %d, %dx%d grid, %d rooms", rep.Seed, sess.Grid.Width, sess.Grid.Height, len(sess.Grid.Rooms))

	tracker := eval.NewTracker(p.CellSize)
	sess.AddObserver(tracker.Observe)

	var (
		db       *sqlite.DB
		store    *sqlite.RunStore
		recorder *sqlite.Recorder
	)
	if opts.DBPath != "" {
		db, err = sqlite.Open(opts.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		paramsJSON, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("encode params: %w", err)
		}
		rec := &sqlite.Run{
			Seed:       rep.Seed,
			ParamsJSON: paramsJSON,
			Width:      sess.Grid.Width,
			Height:     sess.Grid.Height,
		}
		store = sqlite.NewRunStore(db.DB)
		if err := store.Start(rec); err != nil {
			return nil, fmt.Errorf("start run: %w", err)
		}
		rep.RunID = rec.RunID
		recorder = sqlite.NewRecorder(store, rec.RunID, recordBatch)
		sess.AddObserver(func(r session.StepResult) {
			if err := recorder.Add(stepRecord(r, sess.Map)); err != nil {
				monitoring.Logf("gridslam: record step %d: %v", r.Step, err)
			}
		})
	}

	var tp *plot.TracePlotter
	if opts.PlotsDir != "" {
		tp = plot.NewTracePlotter()
		if err := tp.Start(opts.PlotsDir); err != nil {
			return nil, err
		}
		sess.AddObserver(tp.Observe)
	}

	var ws *monitor.WebServer
	if opts.Listen != "" {
		ws, err = monitor.NewWebServer(monitor.Config{Address: opts.Listen, DB: db, RunID: rep.RunID})
		if err != nil {
			return nil, fmt.Errorf("monitor: %w", err)
		}
		sess.AddObserver(ws.Observe)
		ws.Publish(sess.Grid, sess.Snapshot())

		serveCtx, stopServe := context.WithCancel(ctx)
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ws.Start(serveCtx); err != nil {
				monitoring.Logf("gridslam: monitor: %v", err)
			}
		}()
		defer func() {
			stopServe()
			wg.Wait()
		}()
	}

	var tickC <-chan time.Time
	if opts.Tick > 0 {
		ticker := opts.Clock.NewTicker(opts.Tick)
		defer ticker.Stop()
		tickC = ticker.C()
	}

loop:
	for opts.Steps <= 0 || sess.Steps() < opts.Steps {
		if tickC != nil {
			select {
			case <-ctx.Done():
				break loop
			case <-tickC:
			}
		} else if ctx.Err() != nil {
			break
		}

		r := sess.Step(next())
		if ws != nil && r.Step%publishEvery == 0 {
			ws.Publish(sess.Grid, sess.Snapshot())
		}
		if r.Step%logEvery == 0 {
			monitoring.Logf("gridslam: step %d, pose error %.3f, %.1f%% explored", r.Step, r.PoseError, sess.Map.Coverage()*100)
		}
	}

	rep.Steps = sess.Steps()
	rep.Summary = tracker.Summary()
	rep.Agreement = eval.MapAgreement(sess.Grid, sess.Map)

	if recorder != nil {
		if err := recorder.Flush(); err != nil {
			return nil, fmt.Errorf("flush steps: %w", err)
		}
		if err := store.Finish(rep.RunID, rep.Steps, rep.Summary.RMSE, string(rep.Summary.Quality)); err != nil {
			return nil, fmt.Errorf("finish run: %w", err)
		}
	}

	if tp != nil {
		tp.Stop()
		if _, err := tp.GeneratePlots(); err != nil {
			return nil, fmt.Errorf("generate plots: %w", err)
		}
		if err := plot.WriteGridPNG(filepath.Join(opts.PlotsDir, "truth.png"), sess.Grid); err != nil {
			return nil, err
		}
		if err := plot.WriteBeliefPNG(filepath.Join(opts.PlotsDir, "belief.png"), sess.Map); err != nil {
			return nil, err
		}
		monitoring.Logf("gridslam: plots written to %s", opts.PlotsDir)
	}

	if ws != nil {
		ws.Publish(sess.Grid, sess.Snapshot())
	}
	return rep, nil
}
