package render

import (
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gridslam/internal/monitoring"
	"github.com/banshee-data/gridslam/internal/slam/agent"
	"github.com/banshee-data/gridslam/internal/slam/occupancy"
	"github.com/banshee-data/gridslam/internal/slam/params"
	"github.com/banshee-data/gridslam/internal/slam/session"
	"github.com/banshee-data/gridslam/internal/slam/world"
)

// recorder counts calls per primitive.
type recorder struct {
	rects, circles, sectors, clears int
	colors                          map[color.Color]int
}

func (r *recorder) Size() (float64, float64) { return 100, 100 }
func (r *recorder) Clear(color.Color)        { r.clears++ }
func (r *recorder) FillRect(x, y, w, h float64, c color.Color) {
	r.rects++
	if r.colors == nil {
		r.colors = map[color.Color]int{}
	}
	r.colors[c]++
}
func (r *recorder) FillCircle(cx, cy, rad float64, c color.Color)             { r.circles++ }
func (r *recorder) FillSector(cx, cy, rad, start, end float64, c color.Color) { r.sectors++ }

func rgba(c color.Color) color.RGBA {
	r, g, b, a := c.RGBA()
	return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

func TestDrawGrid(t *testing.T) {
	g := world.FromRows([]string{"##", "#."}, 10)
	rec := &recorder{}
	DrawGrid(rec, g)
	assert.Equal(t, 4, rec.rects)
	assert.Equal(t, 3, rec.colors[ColorWall])
	assert.Equal(t, 1, rec.colors[ColorFloor])
}

func TestDrawMap(t *testing.T) {
	m := occupancy.New(3, 1)
	m.Set(1, 0, occupancy.Free)
	m.Set(2, 0, occupancy.Occupied)
	rec := &recorder{}
	DrawMap(rec, m, 5)
	assert.Equal(t, 3, rec.rects)
	for _, c := range []color.Color{ColorUnknown, ColorFree, ColorOccupied} {
		assert.Equal(t, 1, rec.colors[c])
	}
}

func TestDrawSession_Views(t *testing.T) {
	t.Cleanup(monitoring.Mute())
	g := world.FromRows([]string{"###", "#.#", "###"}, 10)
	sess, err := session.NewWithGrid(params.Default(), session.Surface{Width: 30, Height: 30}, g, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	for _, v := range []View{ViewTruth, ViewBelief} {
		rec := &recorder{}
		DrawSession(rec, sess, v)
		assert.Equal(t, 1, rec.clears, v.String())
		assert.Equal(t, 9, rec.rects, v.String())
		assert.Equal(t, 1, rec.circles, v.String())
		assert.Equal(t, 1, rec.sectors, v.String())
	}
	assert.Equal(t, ViewBelief, ViewTruth.Toggle())
	assert.Equal(t, ViewTruth, ViewBelief.Toggle())
}

func TestImageSurface(t *testing.T) {
	s := NewImageSurface(40, 40)
	s.Clear(ColorUnknown)
	assert.Equal(t, ColorUnknown, rgba(s.Img.At(0, 0)))

	s.FillRect(10, 10, 10, 10, ColorFloor)
	assert.Equal(t, ColorFloor, rgba(s.Img.At(15, 15)))
	assert.Equal(t, ColorUnknown, rgba(s.Img.At(20, 20)))

	s.FillCircle(30, 30, 4, ColorAgent)
	assert.Equal(t, ColorAgent, rgba(s.Img.At(30, 30)))
	assert.Equal(t, ColorUnknown, rgba(s.Img.At(30, 36)))

	// Sector facing +x: pixels ahead are filled, pixels behind are not.
	s.Clear(ColorUnknown)
	s.FillSector(20, 20, 15, -math.Pi/4, math.Pi/4, ColorOccupied)
	assert.Equal(t, ColorOccupied, rgba(s.Img.At(30, 20)))
	assert.Equal(t, ColorUnknown, rgba(s.Img.At(10, 20)))
	assert.Equal(t, ColorUnknown, rgba(s.Img.At(20, 30)))
}

func TestDrawAgent_OnImage(t *testing.T) {
	p := params.Default()
	a := agent.New(p)
	a.X, a.Y = 40, 40
	s := NewImageSurface(80, 80)
	s.Clear(ColorWall)
	DrawAgent(s, a, p.Radius)
	assert.Equal(t, ColorAgent, rgba(s.Img.At(37, 40)), "body behind the field of view")
	assert.NotEqual(t, ColorWall, rgba(s.Img.At(55, 40)), "field of view drawn ahead of the agent")
	assert.Equal(t, ColorWall, rgba(s.Img.At(25, 40)))
}
