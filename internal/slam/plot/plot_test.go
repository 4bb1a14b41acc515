package plot

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/gridslam/internal/slam/agent"
	"github.com/banshee-data/gridslam/internal/slam/occupancy"
	"github.com/banshee-data/gridslam/internal/slam/session"
	"github.com/banshee-data/gridslam/internal/slam/world"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func testGrid() *world.Grid {
	return world.FromRows([]string{
		"######",
		"#....#",
		"#.##.#",
		"######",
	}, 1)
}

func TestWritePNG_Belief(t *testing.T) {
	m := occupancy.New(6, 4)
	m.Set(1, 1, occupancy.Free)
	m.Set(0, 0, occupancy.Occupied)

	var buf bytes.Buffer
	if err := WritePNG(&buf, BeliefPlot(m, "test"), 3*vg.Inch, 2*vg.Inch); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
		t.Error("output is not a PNG")
	}
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	g := testGrid()
	if err := WriteGridPNG(filepath.Join(dir, "truth.png"), g); err != nil {
		t.Fatalf("WriteGridPNG: %v", err)
	}
	if err := WriteBeliefPNG(filepath.Join(dir, "belief.png"), occupancy.FromGrid(g)); err != nil {
		t.Fatalf("WriteBeliefPNG: %v", err)
	}
	for _, name := range []string{"truth.png", "belief.png"} {
		if info, err := os.Stat(filepath.Join(dir, name)); err != nil || info.Size() == 0 {
			t.Errorf("%s missing or empty: %v", name, err)
		}
	}
}

func TestCellGrid_FlipsRows(t *testing.T) {
	g := cellGrid{w: 2, h: 3, at: func(x, y int) float64 { return float64(10*y + x) }}
	if c, r := g.Dims(); c != 2 || r != 3 {
		t.Fatalf("Dims() = %d, %d", c, r)
	}
	if z := g.Z(1, 0); z != 21 {
		t.Errorf("Z(1, 0) = %v, want 21 (bottom row is the last tile row)", z)
	}
	if z := g.Z(0, 2); z != 0 {
		t.Errorf("Z(0, 2) = %v, want 0", z)
	}
}

func TestTracePlotter(t *testing.T) {
	tp := NewTracePlotter()
	tp.Observe(session.StepResult{Step: 1})
	if tp.SampleCount() != 0 {
		t.Error("disabled plotter recorded a sample")
	}
	if n, err := tp.GeneratePlots(); n != 0 || err != nil {
		t.Errorf("GeneratePlots() before Start = %d, %v", n, err)
	}

	dir := filepath.Join(t.TempDir(), "plots")
	if err := tp.Start(dir); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 1; i <= 20; i++ {
		tp.Observe(session.StepResult{
			Step:      i,
			Truth:     agent.Pose{X: float64(i), Y: 5},
			Belief:    agent.Pose{X: float64(i) + 0.3, Y: 5.1},
			PoseError: 0.3,
		})
	}
	tp.Stop()
	tp.Observe(session.StepResult{Step: 21})

	if got := tp.SampleCount(); got != 20 {
		t.Errorf("SampleCount() = %d, want 20", got)
	}
	n, err := tp.GeneratePlots()
	if err != nil {
		t.Fatalf("GeneratePlots: %v", err)
	}
	if n != 2 {
		t.Errorf("GeneratePlots() = %d files, want 2", n)
	}
	for _, name := range []string{"error_trace.png", "trajectory.png"} {
		if _, err := os.Stat(filepath.Join(tp.OutputDir(), name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}
