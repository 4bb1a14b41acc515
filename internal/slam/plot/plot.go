// Package plot renders run artefacts as PNG files with gonum/plot: a
// heatmap of the belief map or ground truth, and pose-error and
// trajectory traces accumulated over a run.
package plot

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/gridslam/internal/slam/occupancy"
	"github.com/banshee-data/gridslam/internal/slam/render"
	"github.com/banshee-data/gridslam/internal/slam/session"
	"github.com/banshee-data/gridslam/internal/slam/world"
)

// levels is a fixed palette indexed by cell value.
type levels []color.Color

func (l levels) Colors() []color.Color { return l }

// cellGrid adapts a tile lookup to plotter.GridXYZ. Rows are flipped so row
// zero is drawn at the top.
type cellGrid struct {
	w, h int
	at   func(x, y int) float64
}

func (g cellGrid) Dims() (int, int)   { return g.w, g.h }
func (g cellGrid) Z(c, r int) float64 { return g.at(c, g.h-1-r) }
func (g cellGrid) X(c int) float64    { return float64(c) }
func (g cellGrid) Y(r int) float64    { return float64(r) }

func heatmap(title string, g cellGrid, pal levels) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Column"
	p.Y.Label.Text = "Row (from bottom)"

	hm := plotter.NewHeatMap(g, pal)
	hm.Min, hm.Max = 0, float64(len(pal)-1)
	p.Add(hm)
	return p
}

// BeliefPlot draws m as a three-colour heatmap.
func BeliefPlot(m *occupancy.Map, title string) *plot.Plot {
	g := cellGrid{w: m.Width, h: m.Height, at: func(x, y int) float64 {
		c, _ := m.Cell(x, y)
		return float64(c)
	}}
	return heatmap(title, g, levels{render.ColorUnknown, render.ColorFree, render.ColorOccupied})
}

// GridPlot draws g as a two-colour heatmap.
func GridPlot(g *world.Grid, title string) *plot.Plot {
	cg := cellGrid{w: g.Width, h: g.Height, at: func(x, y int) float64 {
		t, _ := g.Tile(x, y)
		return float64(t)
	}}
	return heatmap(title, cg, levels{render.ColorWall, render.ColorFloor})
}

// WritePNG encodes p as a PNG of the given size in inches.
func WritePNG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("png writer: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// WriteBeliefPNG saves the belief map heatmap to path.
func WriteBeliefPNG(path string, m *occupancy.Map) error {
	return BeliefPlot(m, "Belief map").Save(10*vg.Inch, 7*vg.Inch, path)
}

// WriteGridPNG saves the ground-truth heatmap to path.
func WriteGridPNG(path string, g *world.Grid) error {
	return GridPlot(g, "Ground truth").Save(10*vg.Inch, 7*vg.Inch, path)
}

// TracePlotter records per-step poses and error for plotting after a run.
// Observe may be registered as a session observer.
type TracePlotter struct {
	mu      sync.Mutex
	enabled bool
	dir     string

	errs   plotter.XYs
	truth  plotter.XYs
	belief plotter.XYs
}

// NewTracePlotter returns a disabled plotter.
func NewTracePlotter() *TracePlotter {
	return &TracePlotter{}
}

// Start enables recording into outputDir, creating it and discarding any
// earlier samples.
func (tp *TracePlotter) Start(outputDir string) error {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	tp.dir = outputDir
	tp.enabled = true
	tp.errs, tp.truth, tp.belief = nil, nil, nil
	return nil
}

// Stop disables recording. Samples are kept for GeneratePlots.
func (tp *TracePlotter) Stop() {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	tp.enabled = false
}

// Observe records one step when enabled.
func (tp *TracePlotter) Observe(r session.StepResult) {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	if !tp.enabled {
		return
	}
	tp.errs = append(tp.errs, plotter.XY{X: float64(r.Step), Y: r.PoseError})
	tp.truth = append(tp.truth, plotter.XY{X: r.Truth.X, Y: -r.Truth.Y})
	tp.belief = append(tp.belief, plotter.XY{X: r.Belief.X, Y: -r.Belief.Y})
}

// SampleCount returns how many steps were recorded.
func (tp *TracePlotter) SampleCount() int {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return len(tp.errs)
}

// GeneratePlots writes error_trace.png and trajectory.png into the output
// directory and returns how many files were written. With no samples it
// writes nothing.
func (tp *TracePlotter) GeneratePlots() (int, error) {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if tp.dir == "" || len(tp.errs) == 0 {
		return 0, nil
	}

	pErr := plot.New()
	pErr.Title.Text = "Pose error"
	pErr.X.Label.Text = "Step"
	pErr.Y.Label.Text = "Error (world units)"
	errLine, err := plotter.NewLine(tp.errs)
	if err != nil {
		return 0, fmt.Errorf("error line: %w", err)
	}
	errLine.Width = vg.Points(1)
	errLine.Color = color.RGBA{R: 200, A: 255}
	pErr.Add(errLine, plotter.NewGrid())

	pTraj := plot.New()
	pTraj.Title.Text = "Trajectory"
	pTraj.X.Label.Text = "X"
	pTraj.Y.Label.Text = "-Y"
	truthLine, err := plotter.NewLine(tp.truth)
	if err != nil {
		return 0, fmt.Errorf("truth line: %w", err)
	}
	truthLine.Width = vg.Points(1)
	truthLine.Color = color.RGBA{B: 255, A: 255}
	beliefLine, err := plotter.NewLine(tp.belief)
	if err != nil {
		return 0, fmt.Errorf("belief line: %w", err)
	}
	beliefLine.Width = vg.Points(1)
	beliefLine.Color = color.RGBA{R: 230, G: 160, A: 255}
	beliefLine.Dashes = []vg.Length{vg.Points(3), vg.Points(2)}
	pTraj.Add(truthLine, beliefLine)
	pTraj.Legend.Add("truth", truthLine)
	pTraj.Legend.Add("belief", beliefLine)

	if err := pErr.Save(14*vg.Inch, 6*vg.Inch, filepath.Join(tp.dir, "error_trace.png")); err != nil {
		return 0, fmt.Errorf("save error trace: %w", err)
	}
	if err := pTraj.Save(10*vg.Inch, 7*vg.Inch, filepath.Join(tp.dir, "trajectory.png")); err != nil {
		return 1, fmt.Errorf("save trajectory: %w", err)
	}
	return 2, nil
}

// OutputDir returns the directory passed to Start.
func (tp *TracePlotter) OutputDir() string {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return tp.dir
}
