package world

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/banshee-data/gridslam/internal/monitoring"
	"github.com/banshee-data/gridslam/internal/slam/params"
)

// ErrDegenerateBounds is returned when the largest room the configuration
// can draw does not fit the requested grid, which would leave an empty
// placement range.
var ErrDegenerateBounds = errors.New("room bounds exceed grid size")

// Generator carves rooms and corridors into a solid Grid. Rand is the only
// source of randomness; seed it for reproducible worlds.
type Generator struct {
	Params params.Config
	Rand   *rand.Rand
}

// NewGenerator returns a Generator using p and rng.
func NewGenerator(p params.Config, rng *rand.Rand) *Generator {
	return &Generator{Params: p, Rand: rng}
}

// Generate builds a widthCells x heightCells Grid with roomCount rooms.
//
// Rooms are placed without overlap rejection; later rooms may overwrite
// earlier ones. Each room after the first is joined to its predecessor by
// an L-shaped corridor: horizontal along the previous room's centre row,
// then vertical along the new room's centre column. Connectivity is a path
// over placement order.
func (g *Generator) Generate(widthCells, heightCells, roomCount int) (*Grid, error) {
	if err := g.checkBounds(widthCells, heightCells, roomCount); err != nil {
		return nil, err
	}

	p := g.Params
	grid := NewGrid(widthCells, heightCells, p.CellSize)
	grid.Rooms = make([]Room, 0, roomCount)

	for i := 0; i < roomCount; i++ {
		w := g.drawSize(p.RoomWidthMin, p.RoomWidthMax)
		h := g.drawSize(p.RoomHeightMin, p.RoomHeightMax)
		x := g.Rand.Intn(widthCells - w + 1)
		y := g.Rand.Intn(heightCells - h + 1)

		room := Room{X: x, Y: y, Width: w, Height: h}
		grid.carveRoom(room)
		grid.Rooms = append(grid.Rooms, room)
	}

	half := p.HallWidth / 2
	for i := 1; i < len(grid.Rooms); i++ {
		x1, y1 := grid.Rooms[i-1].Center()
		x2, y2 := grid.Rooms[i].Center()
		grid.carveHorizontal(x1, x2, y1, half)
		grid.carveVertical(y1, y2, x2, half)
	}

	monitoring.Logf("generated grid %dx%d rooms=%d floor=%d", widthCells, heightCells, len(grid.Rooms), grid.FloorCount())
	return grid, nil
}

func (g *Generator) checkBounds(widthCells, heightCells, roomCount int) error {
	if err := g.Params.Validate(); err != nil {
		return fmt.Errorf("generator params: %w", err)
	}
	if g.Rand == nil {
		return errors.New("generator has no random source")
	}
	if roomCount < 0 {
		return fmt.Errorf("room count must be non-negative, got %d", roomCount)
	}
	if roomCount == 0 {
		return nil
	}
	// Largest drawable room is max-1 since the upper bound is exclusive.
	maxW, maxH := g.Params.RoomWidthMax-1, g.Params.RoomHeightMax-1
	if widthCells < maxW || heightCells < maxH {
		return fmt.Errorf("%w: grid %dx%d, largest room %dx%d", ErrDegenerateBounds, widthCells, heightCells, maxW, maxH)
	}
	return nil
}

// drawSize draws uniformly from [lo, hi) as a truncated real.
func (g *Generator) drawSize(lo, hi int) int {
	s := int(float64(lo) + g.Rand.Float64()*float64(hi-lo))
	if s >= hi {
		s = hi - 1
	}
	return s
}

func (g *Grid) carveRoom(r Room) {
	for y := r.Y; y < r.Y+r.Height; y++ {
		for x := r.X; x < r.X+r.Width; x++ {
			g.Set(x, y, Floor)
		}
	}
}

// carveHorizontal fills columns [min(x1,x2), max(x1,x2)] on rows row±half,
// clamping rows to the grid.
func (g *Grid) carveHorizontal(x1, x2, row, half int) {
	lo, hi := min(x1, x2), max(x1, x2)
	for x := lo; x <= hi; x++ {
		for d := -half; d <= half; d++ {
			g.Set(x, clampInt(row+d, 0, g.Height-1), Floor)
		}
	}
}

// carveVertical fills rows [min(y1,y2), max(y1,y2)] on columns col±half,
// clamping columns to the grid.
func (g *Grid) carveVertical(y1, y2, col, half int) {
	lo, hi := min(y1, y2), max(y1, y2)
	for y := lo; y <= hi; y++ {
		for d := -half; d <= half; d++ {
			g.Set(clampInt(col+d, 0, g.Width-1), y, Floor)
		}
	}
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
