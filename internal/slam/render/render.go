// Package render draws a session onto any Surface that can fill
// rectangles, circles and circular sectors.
package render

import (
	"image/color"

	"github.com/banshee-data/gridslam/internal/slam/agent"
	"github.com/banshee-data/gridslam/internal/slam/occupancy"
	"github.com/banshee-data/gridslam/internal/slam/session"
	"github.com/banshee-data/gridslam/internal/slam/world"
)

// Palette
var (
	ColorWall     = color.RGBA{0x33, 0x33, 0x33, 0xff}
	ColorFloor    = color.RGBA{0x99, 0x99, 0x99, 0xff}
	ColorUnknown  = color.RGBA{0x11, 0x11, 0x11, 0xff}
	ColorFree     = color.RGBA{0x66, 0x66, 0x66, 0xff}
	ColorOccupied = color.RGBA{0xcc, 0xcc, 0xcc, 0xff}
	ColorAgent    = color.RGBA{0x00, 0x00, 0xff, 0xff}
	ColorFOV      = color.NRGBA{0xff, 0xff, 0x00, 0x33}
)

// Surface is a 2-D drawing sink in world units.
type Surface interface {
	Size() (width, height float64)
	Clear(c color.Color)
	FillRect(x, y, w, h float64, c color.Color)
	FillCircle(cx, cy, r float64, c color.Color)
	// FillSector fills the pie slice of radius r between angles start and
	// end, in radians, clockwise on screen (y grows downward).
	FillSector(cx, cy, r, start, end float64, c color.Color)
}

// View selects which map DrawSession shows.
type View int

const (
	ViewTruth View = iota
	ViewBelief
)

func (v View) String() string {
	if v == ViewBelief {
		return "belief"
	}
	return "truth"
}

// Toggle returns the other view.
func (v View) Toggle() View {
	if v == ViewBelief {
		return ViewTruth
	}
	return ViewBelief
}

// DrawGrid fills one rectangle per tile.
func DrawGrid(s Surface, g *world.Grid) {
	cs := g.CellSize()
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			c := ColorWall
			if t, _ := g.Tile(x, y); t == world.Floor {
				c = ColorFloor
			}
			s.FillRect(float64(x)*cs, float64(y)*cs, cs, cs, c)
		}
	}
}

// DrawMap fills one rectangle per belief cell.
func DrawMap(s Surface, m *occupancy.Map, cellSize float64) {
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			cell, _ := m.Cell(x, y)
			s.FillRect(float64(x)*cellSize, float64(y)*cellSize, cellSize, cellSize, CellColor(cell))
		}
	}
}

// CellColor returns the palette colour of a belief cell.
func CellColor(c occupancy.Cell) color.Color {
	switch c {
	case occupancy.Free:
		return ColorFree
	case occupancy.Occupied:
		return ColorOccupied
	default:
		return ColorUnknown
	}
}

// DrawAgent draws the body disc and the field-of-view sector.
func DrawAgent(s Surface, a agent.Agent, radius float64) {
	s.FillCircle(a.X, a.Y, radius, ColorAgent)
	s.FillSector(a.X, a.Y, a.FOVRange, a.Theta-a.FOVAngle/2, a.Theta+a.FOVAngle/2, ColorFOV)
}

// DrawSession clears s and draws the selected map with the matching agent.
func DrawSession(s Surface, sess *session.Session, v View) {
	s.Clear(ColorUnknown)
	if v == ViewBelief {
		DrawMap(s, sess.Map, sess.Params.CellSize)
		DrawAgent(s, sess.Belief.Agent, sess.Params.Radius)
		return
	}
	DrawGrid(s, sess.Grid)
	DrawAgent(s, sess.Truth.Agent, sess.Params.Radius)
}
