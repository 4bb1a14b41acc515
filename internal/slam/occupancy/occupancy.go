// Package occupancy is the agent's tri-state belief map. It is a separate
// type from world.Grid so truth and belief can never be confused.
package occupancy

import (
	"fmt"
	"strings"

	"github.com/banshee-data/gridslam/internal/slam/agent"
	"github.com/banshee-data/gridslam/internal/slam/params"
	"github.com/banshee-data/gridslam/internal/slam/world"
)

// Cell is one belief-map entry.
type Cell uint8

const (
	Unknown Cell = iota
	Free
	Occupied
)

func (c Cell) String() string {
	switch c {
	case Unknown:
		return "unknown"
	case Free:
		return "free"
	case Occupied:
		return "occupied"
	default:
		return fmt.Sprintf("cell(%d)", uint8(c))
	}
}

// Map is a Width x Height belief grid, row-major.
type Map struct {
	Width  int
	Height int
	cells  []Cell
}

// New returns a fully Unknown map.
func New(width, height int) *Map {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Map{Width: width, Height: height, cells: make([]Cell, width*height)}
}

// NewFor returns a fully Unknown map the size of g.
func NewFor(g *world.Grid) *Map {
	return New(g.Width, g.Height)
}

// FromGrid returns a fully known map agreeing with g: Floor as Free and
// Wall as Occupied.
func FromGrid(g *world.Grid) *Map {
	m := NewFor(g)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if t, _ := g.Tile(x, y); t == world.Floor {
				m.cells[y*m.Width+x] = Free
			} else {
				m.cells[y*m.Width+x] = Occupied
			}
		}
	}
	return m
}

// InBounds reports whether cell (x, y) exists.
func (m *Map) InBounds(x, y int) bool {
	return x >= 0 && x < m.Width && y >= 0 && y < m.Height
}

// Cell returns cell (x, y) and whether it was in bounds.
func (m *Map) Cell(x, y int) (Cell, bool) {
	if !m.InBounds(x, y) {
		return Unknown, false
	}
	return m.cells[y*m.Width+x], true
}

// Set writes cell (x, y) and reports whether it was in bounds.
func (m *Map) Set(x, y int, c Cell) bool {
	if !m.InBounds(x, y) {
		return false
	}
	m.cells[y*m.Width+x] = c
	return true
}

// Occludes reports whether cell (x, y) is Occupied.
func (m *Map) Occludes(x, y int) bool {
	c, ok := m.Cell(x, y)
	return ok && c == Occupied
}

// Reset marks every cell Unknown.
func (m *Map) Reset() {
	for i := range m.cells {
		m.cells[i] = Unknown
	}
}

// Clone returns an independent copy.
func (m *Map) Clone() *Map {
	c := &Map{Width: m.Width, Height: m.Height, cells: make([]Cell, len(m.cells))}
	copy(c.cells, m.cells)
	return c
}

// Counts tallies cells by state.
type Counts struct {
	Unknown  int `json:"unknown"`
	Free     int `json:"free"`
	Occupied int `json:"occupied"`
}

// Known returns Free + Occupied.
func (c Counts) Known() int {
	return c.Free + c.Occupied
}

// Counts tallies the map.
func (m *Map) Counts() Counts {
	var c Counts
	for _, v := range m.cells {
		switch v {
		case Free:
			c.Free++
		case Occupied:
			c.Occupied++
		default:
			c.Unknown++
		}
	}
	return c
}

// Coverage returns the fraction of cells that are known, in [0, 1].
func (m *Map) Coverage() float64 {
	if len(m.cells) == 0 {
		return 0
	}
	return float64(m.Counts().Known()) / float64(len(m.cells))
}

// String renders the map with '?' Unknown, '.' Free, '#' Occupied.
func (m *Map) String() string {
	var b strings.Builder
	b.Grow((m.Width + 1) * m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			switch m.cells[y*m.Width+x] {
			case Free:
				b.WriteByte('.')
			case Occupied:
				b.WriteByte('#')
			default:
				b.WriteByte('?')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// UpdateWithScan sweeps the truth agent's field of view through g and
// records what it sees at the belief agent's frame.
//
// Each sample's occlusion is decided by the truth tile; the write goes to
// the tile at the same ray and step offset from the belief pose. Walkable
// truth tiles write Free. The first non-walkable one writes Occupied and
// ends the ray. Samples whose truth tile is outside g are skipped without
// ending the ray; belief writes outside m are dropped. Every scan
// overwrites earlier observations.
//
// It returns the number of cells written.
func (m *Map) UpdateWithScan(p params.Config, truth *agent.Truth, belief *agent.Belief, g *world.Grid) int {
	pl := truth.Plan(p)
	writes := 0
	for i := 0; i < pl.Rays; i++ {
		for j := 0; j < pl.Steps; j++ {
			tx, ty := pl.Tile(truth.X, truth.Y, i, j)
			tile, ok := g.Tile(tx, ty)
			if !ok {
				continue
			}
			bx, by := pl.Tile(belief.X, belief.Y, i, j)
			if tile == world.Floor {
				if m.Set(bx, by, Free) {
					writes++
				}
				continue
			}
			if m.Set(bx, by, Occupied) {
				writes++
			}
			break
		}
	}
	return writes
}
