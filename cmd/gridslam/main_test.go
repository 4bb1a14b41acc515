package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/gridslam/internal/config"
	"github.com/banshee-data/gridslam/internal/monitoring"
	"github.com/banshee-data/gridslam/internal/slam/occupancy"
	"github.com/banshee-data/gridslam/internal/slam/session"
	"github.com/banshee-data/gridslam/internal/slam/storage/sqlite"
	"github.com/banshee-data/gridslam/internal/timeutil"
)

// testConfig shrinks the sensor and search so runs stay fast.
func testConfig() *config.SimConfig {
	rays, radius := 36, 3
	w, h := 450, 300
	return &config.SimConfig{
		SurfaceWidth:  &w,
		SurfaceHeight: &h,
		NumRays:       &rays,
		SearchRadius:  &radius,
	}
}

func TestTickInterval(t *testing.T) {
	tick := "40ms"
	withTick := &config.SimConfig{TickInterval: &tick}

	tests := []struct {
		name string
		flag time.Duration
		cfg  *config.SimConfig
		want time.Duration
	}{
		{"negative uses default", -1, config.EmptySimConfig(), 16 * time.Millisecond},
		{"negative uses config", -1, withTick, 40 * time.Millisecond},
		{"zero is unpaced", 0, withTick, 0},
		{"flag wins", 5 * time.Millisecond, withTick, 5 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tickInterval(tt.flag, tt.cfg); got != tt.want {
				t.Errorf("tickInterval() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveSeed(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(0, 1234))
	seed := int64(99)
	withSeed := &config.SimConfig{Seed: &seed}

	if got := resolveSeed(7, withSeed, clock); got != 7 {
		t.Errorf("flag seed: got %d, want 7", got)
	}
	if got := resolveSeed(0, withSeed, clock); got != 99 {
		t.Errorf("config seed: got %d, want 99", got)
	}
	if got := resolveSeed(0, config.EmptySimConfig(), clock); got != 1234 {
		t.Errorf("clock seed: got %d, want 1234", got)
	}
}

func TestNewDriver(t *testing.T) {
	next, err := newDriver("wd", nil)
	if err != nil {
		t.Fatalf("newDriver: %v", err)
	}
	if got := next().String(); got != next().String() {
		t.Errorf("fixed driver changed keys: %q", got)
	}
	if _, err := newDriver("wq", nil); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestStepRecord(t *testing.T) {
	m := occupancy.New(3, 1)
	m.Set(0, 0, occupancy.Free)
	m.Set(2, 0, occupancy.Occupied)

	r := session.StepResult{Step: 4, PoseError: 0.25}
	r.Truth.X, r.Truth.Y, r.Truth.Theta = 1, 2, 0.5
	r.Belief.X, r.Belief.Y = 1.25, 2
	r.Localize.Best = 12
	r.Localize.Adopted = true

	want := sqlite.StepRecord{
		Step: 4, TruthX: 1, TruthY: 2, TruthTheta: 0.5,
		BeliefX: 1.25, BeliefY: 2, PoseError: 0.25,
		Score: 12, Corrected: true, KnownCells: 2,
	}
	if diff := cmp.Diff(want, stepRecord(r, m)); diff != "" {
		t.Errorf("stepRecord mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_Deterministic(t *testing.T) {
	t.Cleanup(monitoring.Mute())

	opts := options{Config: testConfig(), Seed: 42, Steps: 40}
	a, err := run(context.Background(), opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	b, err := run(context.Background(), opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if a.Steps != 40 || a.Summary.Count != 40 {
		t.Errorf("steps = %d, summary count = %d, want 40", a.Steps, a.Summary.Count)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed produced different reports (-a +b):\n%s", diff)
	}
}

func TestRun_RecordsAndPlots(t *testing.T) {
	t.Cleanup(monitoring.Mute())
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "runs.db")
	plots := filepath.Join(dir, "plots")

	rep, err := run(context.Background(), options{
		Config:   testConfig(),
		Seed:     5,
		Steps:    25,
		Keys:     "w",
		DBPath:   dbPath,
		PlotsDir: plots,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.RunID == "" {
		t.Fatal("expected a run id")
	}

	db, err := sqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	store := sqlite.NewRunStore(db.DB)

	stored, err := store.Get(rep.RunID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Steps != 25 || stored.Seed != 5 || stored.FinishedUnixNanos == 0 {
		t.Errorf("stored run = %+v", stored)
	}
	if stored.Quality != string(rep.Summary.Quality) {
		t.Errorf("quality = %q, want %q", stored.Quality, rep.Summary.Quality)
	}
	rows, err := store.Steps(rep.RunID)
	if err != nil {
		t.Fatalf("Steps: %v", err)
	}
	if len(rows) != 25 {
		t.Errorf("got %d step rows, want 25", len(rows))
	}

	for _, name := range []string{"error_trace.png", "trajectory.png", "truth.png", "belief.png"} {
		if _, err := os.Stat(filepath.Join(plots, name)); err != nil {
			t.Errorf("missing plot %s: %v", name, err)
		}
	}
}

func TestRun_BadKeys(t *testing.T) {
	t.Cleanup(monitoring.Mute())
	if _, err := run(context.Background(), options{Config: testConfig(), Seed: 1, Steps: 1, Keys: "x"}); err == nil {
		t.Fatal("expected error for bad keys")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	t.Cleanup(monitoring.Mute())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := run(ctx, options{Config: testConfig(), Seed: 1, Steps: 0, Tick: time.Hour})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Steps != 0 {
		t.Errorf("steps = %d, want 0", rep.Steps)
	}
}

func TestRun_PacedByClock(t *testing.T) {
	t.Cleanup(monitoring.Mute())
	clock := timeutil.NewMockClock(time.Unix(1000, 0))

	done := make(chan *report, 1)
	go func() {
		rep, err := run(context.Background(), options{
			Config: testConfig(), Seed: 3, Steps: 3, Tick: 10 * time.Millisecond, Clock: clock,
		})
		if err != nil {
			t.Errorf("run: %v", err)
		}
		done <- rep
	}()

	deadline := time.After(10 * time.Second)
	for {
		select {
		case rep := <-done:
			if rep != nil && rep.Steps != 3 {
				t.Errorf("steps = %d, want 3", rep.Steps)
			}
			return
		case <-deadline:
			t.Fatal("run did not finish")
		default:
			clock.Advance(10 * time.Millisecond)
			time.Sleep(time.Millisecond)
		}
	}
}

func TestRun_StopsMonitorOnError(t *testing.T) {
	t.Cleanup(monitoring.Mute())

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	l.Close()

	// A directory where truth.png should go makes the final plot write fail
	// after the monitor is already serving.
	plots := t.TempDir()
	if err := os.Mkdir(filepath.Join(plots, "truth.png"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	_, err = run(context.Background(), options{
		Config:   testConfig(),
		Seed:     2,
		Steps:    3,
		Listen:   addr,
		PlotsDir: plots,
	})
	if err == nil {
		t.Fatal("expected plot write error")
	}

	client := &http.Client{Timeout: time.Second}
	if resp, err := client.Get("http://" + addr + "/health"); err == nil {
		resp.Body.Close()
		t.Fatal("monitor still serving after run returned")
	}
}
