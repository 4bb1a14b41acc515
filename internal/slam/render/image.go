package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/banshee-data/gridslam/internal/slam/agent"
)

// ImageSurface draws into an RGBA image, one pixel per world unit.
type ImageSurface struct {
	Img *image.RGBA
}

// NewImageSurface returns a width x height surface.
func NewImageSurface(width, height int) *ImageSurface {
	return &ImageSurface{Img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Size implements Surface.
func (s *ImageSurface) Size() (float64, float64) {
	b := s.Img.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

// Clear implements Surface.
func (s *ImageSurface) Clear(c color.Color) {
	draw.Draw(s.Img, s.Img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// FillRect implements Surface.
func (s *ImageSurface) FillRect(x, y, w, h float64, c color.Color) {
	r := image.Rect(int(math.Floor(x)), int(math.Floor(y)), int(math.Floor(x+w)), int(math.Floor(y+h)))
	draw.Draw(s.Img, r.Intersect(s.Img.Bounds()), image.NewUniform(c), image.Point{}, draw.Over)
}

// FillCircle implements Surface.
func (s *ImageSurface) FillCircle(cx, cy, r float64, c color.Color) {
	s.fill(cx, cy, r, c, func(dx, dy float64) bool { return true })
}

// FillSector implements Surface.
func (s *ImageSurface) FillSector(cx, cy, r, start, end float64, c color.Color) {
	span := end - start
	if span >= 2*math.Pi {
		s.FillCircle(cx, cy, r, c)
		return
	}
	s.fill(cx, cy, r, c, func(dx, dy float64) bool {
		a := agent.NormalizeAngle(math.Atan2(dy, dx) - start)
		if a < 0 {
			a += 2 * math.Pi
		}
		return a <= span
	})
}

func (s *ImageSurface) fill(cx, cy, r float64, c color.Color, in func(dx, dy float64) bool) {
	b := s.Img.Bounds()
	x0, x1 := int(math.Floor(cx-r)), int(math.Ceil(cx+r))
	y0, y1 := int(math.Floor(cy-r)), int(math.Ceil(cy+r))
	src := image.NewUniform(c)
	for py := y0; py <= y1; py++ {
		for px := x0; px <= x1; px++ {
			if !(image.Point{px, py}).In(b) {
				continue
			}
			dx, dy := float64(px)+0.5-cx, float64(py)+0.5-cy
			if dx*dx+dy*dy > r*r || !in(dx, dy) {
				continue
			}
			draw.Draw(s.Img, image.Rect(px, py, px+1, py+1), src, image.Point{}, draw.Over)
		}
	}
}
