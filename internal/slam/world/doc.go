// Package world owns the ground-truth environment: a rectangular Grid of
// Floor/Wall tiles, the rooms carved into it, and the procedural generator
// that produces both.
//
// Coordinates: tiles are addressed (x, y) with 0 <= x < Width and
// 0 <= y < Height, row-major. World (pixel) coordinates map to tiles with
// tile = floor(world / CellSize); negative world coordinates therefore fall
// outside the grid rather than folding onto row or column zero.
//
// Dependency rule: world may depend on params only.
package world
