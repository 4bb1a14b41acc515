// Command gridslam-view runs the simulation in a raylib window. WASD drives
// the agent, Tab switches between the world and the belief map, R starts a
// new world and Esc quits.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/banshee-data/gridslam/internal/config"
	"github.com/banshee-data/gridslam/internal/monitoring"
	"github.com/banshee-data/gridslam/internal/slam/eval"
	"github.com/banshee-data/gridslam/internal/slam/params"
	"github.com/banshee-data/gridslam/internal/slam/render"
	"github.com/banshee-data/gridslam/internal/slam/session"
	"github.com/banshee-data/gridslam/internal/version"
)

var (
	configPath = flag.String("config", "", "Path to a simulation JSON config (built-in defaults when empty)")
	seed       = flag.Int64("seed", 0, "Random seed (0 uses the config seed, then the wall clock)")
	fps        = flag.Int("fps", 60, "Target frames per second; one step runs per frame")
	verbose    = flag.Bool("v", false, "Log per-step diagnostics")
	versionF   = flag.Bool("version", false, "Print version and exit")
)

// summaryEvery is how many steps the status line reuses a summary before
// recomputing it; Summary sorts the whole error history.
const summaryEvery = 30

type viewer struct {
	params  params.Config
	surface session.Surface
	seed    int64

	sess    *session.Session
	tracker *eval.Tracker
	view    render.View

	summary     eval.Summary
	summaryStep int
}

func (v *viewer) reset() error {
	sess, err := session.New(v.params, v.surface, rand.New(rand.NewSource(v.seed)))
	if err != nil {
		return err
	}
	v.sess = sess
	v.tracker = eval.NewTracker(v.params.CellSize)
	v.summary = v.tracker.Summary()
	v.summaryStep = 0
	sess.AddObserver(v.tracker.Observe)
	monitoring.Logf("gridslam-view: seed %d, %d rooms", v.seed, len(sess.Grid.Rooms))
	return nil
}

// currentSummary returns the cached summary, refreshing it every
// summaryEvery steps.
func (v *viewer) currentSummary() eval.Summary {
	if step := v.sess.Steps(); step-v.summaryStep >= summaryEvery {
		v.summary = v.tracker.Summary()
		v.summaryStep = step
	}
	return v.summary
}

func (v *viewer) status() string {
	s := v.currentSummary()
	return fmt.Sprintf("%s | seed %d | step %d | error %.2f | rmse %.2f (%s) | explored %.0f%%",
		v.view, v.seed, v.sess.Steps(), v.sess.Belief.Distance(v.sess.Truth.Pose),
		s.RMSE, s.Quality, v.sess.Map.Coverage()*100)
}

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

	v := &viewer{
		params: params.FromSimConfig(cfg),
		surface: session.Surface{
			Width:  float64(cfg.GetSurfaceWidth()),
			Height: float64(cfg.GetSurfaceHeight()),
		},
		seed: *seed,
	}
	if v.seed == 0 {
		v.seed = cfg.GetSeed()
	}
	if v.seed == 0 {
		v.seed = time.Now().UnixNano()
	}
	if err := v.reset(); err != nil {
		log.Fatalf("failed to start session: %v", err)
	}

	rl.InitWindow(int32(cfg.GetSurfaceWidth()), int32(cfg.GetSurfaceHeight()), "gridslam")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(*fps))

	surface := rlSurface{}
	for !rl.WindowShouldClose() {
		if rl.IsKeyPressed(rl.KeyTab) {
			v.view = v.view.Toggle()
		}
		if rl.IsKeyPressed(rl.KeyR) {
			v.seed++
			if err := v.reset(); err != nil {
				log.Fatalf("failed to start session: %v", err)
			}
		}

		v.sess.Step(heldKeys(rl.IsKeyDown))

		rl.BeginDrawing()
		render.DrawSession(surface, v.sess, v.view)
		rl.DrawText(v.status(), 8, 8, 16, rl.RayWhite)
		rl.EndDrawing()
	}
}
