// Package eval measures how well a run localised: pose-error statistics
// over a run, a quality grade, and agreement of the belief map with truth.
package eval

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/gridslam/internal/slam/occupancy"
	"github.com/banshee-data/gridslam/internal/slam/session"
	"github.com/banshee-data/gridslam/internal/slam/world"
)

// Quality is the assessed localisation quality of a run.
type Quality string

const (
	// QualityExcellent indicates RMSE < 0.1 cell
	QualityExcellent Quality = "excellent"
	// QualityGood indicates RMSE 0.1-0.3 cell
	QualityGood Quality = "good"
	// QualityFair indicates RMSE 0.3-0.6 cell
	QualityFair Quality = "fair"
	// QualityPoor indicates RMSE >= 0.6 cell
	QualityPoor Quality = "poor"
	// QualityUnknown indicates no samples were recorded
	QualityUnknown Quality = "unknown"
)

// RMSE thresholds in cells.
const (
	RMSEThresholdExcellent = 0.1
	RMSEThresholdGood      = 0.3
	RMSEThresholdFair      = 0.6
)

// Grade maps a pose RMSE in world units to a Quality, scaled by cellSize.
func Grade(rmse, cellSize float64, samples int) Quality {
	if samples == 0 || cellSize <= 0 || math.IsNaN(rmse) {
		return QualityUnknown
	}
	cells := rmse / cellSize
	switch {
	case cells < RMSEThresholdExcellent:
		return QualityExcellent
	case cells < RMSEThresholdGood:
		return QualityGood
	case cells < RMSEThresholdFair:
		return QualityFair
	default:
		return QualityPoor
	}
}

// Summary holds pose-error statistics in world units.
type Summary struct {
	Count       int     `json:"count"`
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"stddev"`
	RMSE        float64 `json:"rmse"`
	Max         float64 `json:"max"`
	P95         float64 `json:"p95"`
	Corrections int     `json:"corrections"`
	Quality     Quality `json:"quality"`
}

// Tracker accumulates pose error per step. Use Observe as a session
// observer.
type Tracker struct {
	cellSize    float64
	errs        []float64
	corrections int
}

// NewTracker returns a Tracker grading against cellSize.
func NewTracker(cellSize float64) *Tracker {
	return &Tracker{cellSize: cellSize}
}

// Observe records one step.
func (t *Tracker) Observe(r session.StepResult) {
	t.errs = append(t.errs, r.PoseError)
	if r.Localize.Adopted {
		t.corrections++
	}
}

// Errors returns the recorded pose errors in step order.
func (t *Tracker) Errors() []float64 {
	out := make([]float64, len(t.errs))
	copy(out, t.errs)
	return out
}

// Summary computes statistics over everything observed so far.
func (t *Tracker) Summary() Summary {
	s := Summary{Count: len(t.errs), Corrections: t.corrections}
	if s.Count == 0 {
		s.Quality = QualityUnknown
		return s
	}

	sorted := t.Errors()
	sort.Float64s(sorted)
	sq := make([]float64, len(sorted))
	for i, e := range sorted {
		sq[i] = e * e
	}

	s.Mean = stat.Mean(sorted, nil)
	if s.Count > 1 {
		s.StdDev = stat.StdDev(sorted, nil)
	}
	s.RMSE = math.Sqrt(stat.Mean(sq, nil))
	s.Max = sorted[len(sorted)-1]
	s.P95 = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	s.Quality = Grade(s.RMSE, t.cellSize, s.Count)
	return s
}

// Agreement compares known belief cells with the truth tile at the same
// index.
type Agreement struct {
	Known    int     `json:"known"`
	Agree    int     `json:"agree"`
	Disagree int     `json:"disagree"`
	Ratio    float64 `json:"ratio"`
}

// MapAgreement counts how many known cells of m match g. Free agrees with
// Floor and Occupied with Wall. Ratio is zero when nothing is known.
func MapAgreement(g *world.Grid, m *occupancy.Map) Agreement {
	var a Agreement
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			c, _ := m.Cell(x, y)
			if c == occupancy.Unknown {
				continue
			}
			tile, ok := g.Tile(x, y)
			if !ok {
				continue
			}
			a.Known++
			if (c == occupancy.Free && tile == world.Floor) || (c == occupancy.Occupied && tile == world.Wall) {
				a.Agree++
			} else {
				a.Disagree++
			}
		}
	}
	if a.Known > 0 {
		a.Ratio = float64(a.Agree) / float64(a.Known)
	}
	return a
}
