package main

import (
	"image/color"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/banshee-data/gridslam/internal/slam/input"
)

// sectorSegments is the triangle count used for field-of-view sectors.
const sectorSegments = 32

// rlSurface draws render output into the current raylib frame.
type rlSurface struct{}

func (rlSurface) Size() (float64, float64) {
	return float64(rl.GetScreenWidth()), float64(rl.GetScreenHeight())
}

func (rlSurface) Clear(c color.Color) {
	rl.ClearBackground(toColor(c))
}

func (rlSurface) FillRect(x, y, w, h float64, c color.Color) {
	rl.DrawRectangleV(rl.NewVector2(float32(x), float32(y)), rl.NewVector2(float32(w), float32(h)), toColor(c))
}

func (rlSurface) FillCircle(cx, cy, r float64, c color.Color) {
	rl.DrawCircleV(rl.NewVector2(float32(cx), float32(cy)), float32(r), toColor(c))
}

// FillSector converts radians to the degrees raylib expects. Both measure
// clockwise on screen.
func (rlSurface) FillSector(cx, cy, r, start, end float64, c color.Color) {
	rl.DrawCircleSector(rl.NewVector2(float32(cx), float32(cy)), float32(r),
		float32(start*180/math.Pi), float32(end*180/math.Pi), sectorSegments, toColor(c))
}

func toColor(c color.Color) rl.Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return rl.NewColor(n.R, n.G, n.B, n.A)
}

// heldKeys maps WASD to the keys a session step reads.
func heldKeys(isDown func(key int32) bool) input.KeySet {
	var held input.KeySet
	for _, b := range []struct {
		key  int32
		held input.Key
	}{
		{rl.KeyW, input.Forward},
		{rl.KeyS, input.Backward},
		{rl.KeyA, input.TurnLeft},
		{rl.KeyD, input.TurnRight},
	} {
		if isDown(b.key) {
			held = held.With(b.held)
		}
	}
	return held
}
