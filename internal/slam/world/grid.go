package world

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrNoRooms is returned by spawn and centering queries on a Grid with no
// rooms. The accompanying position is the world origin.
var ErrNoRooms = errors.New("grid has no rooms")

// Tile is one ground-truth cell.
type Tile uint8

const (
	// Wall is the zero value so a fresh Grid is solid rock.
	Wall Tile = iota
	Floor
)

func (t Tile) String() string {
	switch t {
	case Wall:
		return "wall"
	case Floor:
		return "floor"
	default:
		return fmt.Sprintf("tile(%d)", uint8(t))
	}
}

// Room is an axis-aligned rectangle of Floor tiles, in tile units.
type Room struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the room centre with integer truncation.
func (r Room) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Contains reports whether tile (x, y) lies inside the room.
func (r Room) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Grid is the ground-truth terrain. Rooms are kept in generation order;
// Rooms[0] is the spawn room.
type Grid struct {
	Width  int
	Height int
	Rooms  []Room

	cellSize float64
	tiles    []Tile // row-major, len Width*Height
}

// NewGrid returns a width x height Grid filled with Wall.
func NewGrid(width, height int, cellSize float64) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Grid{
		Width:    width,
		Height:   height,
		cellSize: cellSize,
		tiles:    make([]Tile, width*height),
	}
}

// FromRows builds a Grid from text rows, '#' for Wall and anything else for
// Floor. Rows shorter than the first are padded with Wall. No rooms are
// recorded.
func FromRows(rows []string, cellSize float64) *Grid {
	width := 0
	if len(rows) > 0 {
		width = len(rows[0])
	}
	g := NewGrid(width, len(rows), cellSize)
	for y, row := range rows {
		for x := 0; x < width && x < len(row); x++ {
			if row[x] != '#' {
				g.Set(x, y, Floor)
			}
		}
	}
	return g
}

// GridSize converts surface pixel dimensions into cell dimensions,
// floor(pixels / cellSize) per axis.
func GridSize(surfaceWidth, surfaceHeight, cellSize float64) (int, int) {
	if cellSize <= 0 {
		return 0, 0
	}
	return int(math.Floor(surfaceWidth / cellSize)), int(math.Floor(surfaceHeight / cellSize))
}

// TileIndex converts a world coordinate into a tile index along one axis.
func TileIndex(w, cellSize float64) int {
	return int(math.Floor(w / cellSize))
}

// CellSize returns the world units per tile.
func (g *Grid) CellSize() float64 {
	return g.cellSize
}

// InBounds reports whether tile (x, y) exists.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// Tile returns the tile at (x, y) and whether it was in bounds.
func (g *Grid) Tile(x, y int) (Tile, bool) {
	if !g.InBounds(x, y) {
		return Wall, false
	}
	return g.tiles[y*g.Width+x], true
}

// Set writes tile (x, y); out-of-bounds writes are ignored.
func (g *Grid) Set(x, y int, t Tile) {
	if g.InBounds(x, y) {
		g.tiles[y*g.Width+x] = t
	}
}

// Occludes reports whether tile (x, y) stops a ray. Out-of-bounds tiles do
// not: they carry no information.
func (g *Grid) Occludes(x, y int) bool {
	t, ok := g.Tile(x, y)
	return ok && t == Wall
}

// TileAt converts a world point to tile coordinates.
func (g *Grid) TileAt(wx, wy float64) (int, int) {
	return TileIndex(wx, g.cellSize), TileIndex(wy, g.cellSize)
}

// IsWalkable reports whether world point (wx, wy) lies on a Floor tile.
// Points outside the grid are not walkable.
func (g *Grid) IsWalkable(wx, wy float64) bool {
	t, ok := g.Tile(g.TileAt(wx, wy))
	return ok && t == Floor
}

// FloorCount returns the number of Floor tiles.
func (g *Grid) FloorCount() int {
	n := 0
	for _, t := range g.tiles {
		if t == Floor {
			n++
		}
	}
	return n
}

// SpawnPoint returns the world-space centre of Rooms[0]. With no rooms it
// returns the origin and ErrNoRooms.
func (g *Grid) SpawnPoint() (float64, float64, error) {
	if len(g.Rooms) == 0 {
		return 0, 0, ErrNoRooms
	}
	r := g.Rooms[0]
	x := (float64(r.X) + float64(r.Width)/2.0) * g.cellSize
	y := (float64(r.Y) + float64(r.Height)/2.0) * g.cellSize
	return x, y, nil
}

// String renders the grid as rows of '#' and '.', the inverse of FromRows.
func (g *Grid) String() string {
	var b strings.Builder
	b.Grow((g.Width + 1) * g.Height)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if g.tiles[y*g.Width+x] == Floor {
				b.WriteByte('.')
			} else {
				b.WriteByte('#')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
