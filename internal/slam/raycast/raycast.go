// Package raycast marches a fan of rays through a tile map. The same Plan
// drives rendering of what an agent sees, belief-map scans and pose
// scoring, so all three sample identical points.
package raycast

import (
	"math"

	"github.com/banshee-data/gridslam/internal/slam/world"
)

// Occluder is a tile map a ray can be cast through. Tiles outside the map
// carry no information and never stop a ray.
type Occluder interface {
	InBounds(x, y int) bool
	Occludes(x, y int) bool
}

// Plan fixes the ray angles and step distances of one sweep.
//
// Ray i points at heading - fov/2 + i*fov/rays, so the fan covers
// [heading - fov/2, heading + fov/2). Each ray takes Steps samples spaced
// StepSize apart starting at the origin.
type Plan struct {
	Rays     int
	Steps    int
	StepSize float64
	CellSize float64

	angles []float64
	cos    []float64
	sin    []float64
}

// NewPlan builds the sweep for an agent facing heading with the given field
// of view. Samples are one cell apart out to fovRange inclusive.
func NewPlan(heading, fov, fovRange float64, rays int, cellSize float64) Plan {
	if rays < 0 {
		rays = 0
	}
	steps := 0
	if cellSize > 0 && fovRange >= 0 {
		steps = int(fovRange/cellSize) + 1
	}
	pl := Plan{
		Rays:     rays,
		Steps:    steps,
		StepSize: cellSize,
		CellSize: cellSize,
		angles:   make([]float64, rays),
		cos:      make([]float64, rays),
		sin:      make([]float64, rays),
	}
	start := heading - fov/2.0
	inc := fov / float64(rays)
	for i := 0; i < rays; i++ {
		a := start + float64(i)*inc
		pl.angles[i] = a
		pl.cos[i] = math.Cos(a)
		pl.sin[i] = math.Sin(a)
	}
	return pl
}

// Angle returns the absolute angle of ray i in radians.
func (pl Plan) Angle(ray int) float64 {
	return pl.angles[ray]
}

// Distance returns how far sample step lies from the origin.
func (pl Plan) Distance(step int) float64 {
	return float64(step) * pl.StepSize
}

// Point returns the world point of sample (ray, step) relative to origin
// (ox, oy).
func (pl Plan) Point(ox, oy float64, ray, step int) (float64, float64) {
	d := float64(step) * pl.StepSize
	return ox + d*pl.cos[ray], oy + d*pl.sin[ray]
}

// Tile returns the tile containing sample (ray, step) from origin (ox, oy).
func (pl Plan) Tile(ox, oy float64, ray, step int) (int, int) {
	x, y := pl.Point(ox, oy, ray, step)
	return world.TileIndex(x, pl.CellSize), world.TileIndex(y, pl.CellSize)
}

// Sample is one in-bounds tile visited by a ray.
type Sample struct {
	Ray      int
	Step     int
	Angle    float64
	Distance float64
	TileX    int
	TileY    int
}

// Cast marches every ray of pl from (ox, oy) through o. Each ray stops at
// and includes its first occluding tile. Out-of-bounds samples are skipped
// without ending the ray.
func Cast(pl Plan, ox, oy float64, o Occluder) []Sample {
	out := make([]Sample, 0, pl.Rays*pl.Steps)
	for i := 0; i < pl.Rays; i++ {
		for j := 0; j < pl.Steps; j++ {
			tx, ty := pl.Tile(ox, oy, i, j)
			if !o.InBounds(tx, ty) {
				continue
			}
			out = append(out, Sample{
				Ray:      i,
				Step:     j,
				Angle:    pl.angles[i],
				Distance: pl.Distance(j),
				TileX:    tx,
				TileY:    ty,
			})
			if o.Occludes(tx, ty) {
				break
			}
		}
	}
	return out
}

// Reach returns, per ray, the distance of the last sample Cast would keep.
// Rays with no in-bounds sample report zero.
func Reach(samples []Sample, rays int) []float64 {
	reach := make([]float64, rays)
	for _, s := range samples {
		if s.Ray >= 0 && s.Ray < rays && s.Distance > reach[s.Ray] {
			reach[s.Ray] = s.Distance
		}
	}
	return reach
}
