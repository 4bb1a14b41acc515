// Package localize corrects the belief agent's position by a brute-force
// search over small offsets, scoring each candidate by how well the belief
// map agrees with ground truth along the truth agent's sweep.
package localize

import (
	"github.com/banshee-data/gridslam/internal/slam/agent"
	"github.com/banshee-data/gridslam/internal/slam/occupancy"
	"github.com/banshee-data/gridslam/internal/slam/params"
	"github.com/banshee-data/gridslam/internal/slam/raycast"
	"github.com/banshee-data/gridslam/internal/slam/world"
)

// Score rates how well belief-frame map cells agree with truth tiles for
// the sweep of truth, sampled from belief position (bx, by).
//
// Per sample pair: Wall/Occupied and Floor/Free reward, an Unknown belief
// cell costs a little and any other pairing is a mismatch. A ray ends after
// its first Occupied belief cell. Pairs with either tile out of bounds are
// skipped.
func Score(p params.Config, truth *agent.Truth, bx, by float64, m *occupancy.Map, g *world.Grid) float64 {
	return score(p, truth.Plan(p), truth.X, truth.Y, bx, by, m, g)
}

func score(p params.Config, pl raycast.Plan, tx0, ty0, bx, by float64, m *occupancy.Map, g *world.Grid) float64 {
	total := 0.0
	for i := 0; i < pl.Rays; i++ {
		for j := 0; j < pl.Steps; j++ {
			tile, ok := g.Tile(pl.Tile(tx0, ty0, i, j))
			if !ok {
				continue
			}
			cell, ok := m.Cell(pl.Tile(bx, by, i, j))
			if !ok {
				continue
			}

			switch {
			case tile == world.Wall && cell == occupancy.Occupied:
				total += p.ScoreWallOccupied
			case tile == world.Floor && cell == occupancy.Free:
				total += p.ScoreFloorFree
			case cell == occupancy.Unknown:
				total += p.ScoreUnknown
			default:
				total += p.ScoreMismatch
			}

			if cell == occupancy.Occupied {
				break
			}
		}
	}
	return total
}

// Result describes one localisation pass.
type Result struct {
	// Current is the score of the belief position before correction.
	Current float64 `json:"current"`
	// Best is the highest candidate score.
	Best float64 `json:"best"`
	// BestX, BestY is the winning candidate position.
	BestX float64 `json:"best_x"`
	BestY float64 `json:"best_y"`
	// Adopted is true when Best beat Current by more than the margin.
	Adopted bool `json:"adopted"`
	// DX, DY is the applied position change.
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
	// Evaluated counts scored candidates.
	Evaluated int `json:"evaluated"`
}

// Localize scores a (2r+1)^2 grid of candidate offsets around the belief
// position and, when the best beats the current score by more than
// AdoptMargin, blends the belief position toward it by Blend. The heading
// is never changed.
func Localize(p params.Config, truth *agent.Truth, belief *agent.Belief, m *occupancy.Map, g *world.Grid) Result {
	pl := truth.Plan(p)
	x0, y0 := belief.X, belief.Y

	res := Result{
		Current: score(p, pl, truth.X, truth.Y, x0, y0, m, g),
		BestX:   x0,
		BestY:   y0,
	}
	res.Best = res.Current

	first := true
	r := p.SearchRadius
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			cx := x0 + float64(dx)*p.SearchStep
			cy := y0 + float64(dy)*p.SearchStep
			s := score(p, pl, truth.X, truth.Y, cx, cy, m, g)
			res.Evaluated++
			if first || s > res.Best {
				res.Best, res.BestX, res.BestY = s, cx, cy
				first = false
			}
		}
	}

	if res.Best <= res.Current+p.AdoptMargin {
		return res
	}

	res.Adopted = true
	belief.X = (1-p.Blend)*x0 + p.Blend*res.BestX
	belief.Y = (1-p.Blend)*y0 + p.Blend*res.BestY
	res.DX, res.DY = belief.X-x0, belief.Y-y0
	return res
}
