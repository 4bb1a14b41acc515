// Package agent holds pose state and kinematics for the two agents of a
// session: the ground-truth agent driven by input and the belief agent
// corrected by localisation. The roles are distinct types so they cannot be
// swapped at a call site.
package agent

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/banshee-data/gridslam/internal/slam/input"
	"github.com/banshee-data/gridslam/internal/slam/params"
	"github.com/banshee-data/gridslam/internal/slam/raycast"
	"github.com/banshee-data/gridslam/internal/slam/world"
)

// Pose is a position in world units and a heading in (-π, π].
type Pose struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

// Distance returns the Euclidean distance between the positions of p and q.
func (p Pose) Distance(q Pose) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

func (p Pose) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.4f rad)", p.X, p.Y, p.Theta)
}

// Agent is a pose plus fixed sensor geometry.
type Agent struct {
	Pose
	FOVAngle float64
	FOVRange float64
}

// Truth is the ground-truth agent.
type Truth struct{ Agent }

// Belief is the agent's estimate of its own pose.
type Belief struct{ Agent }

// New returns an Agent at the origin with the sensor geometry of p.
func New(p params.Config) Agent {
	return Agent{FOVAngle: p.FOVAngle, FOVRange: p.FOVRange}
}

// Spawn places a Truth at the centre of the spawn room and a Belief on top
// of it. With no rooms both sit at the origin and world.ErrNoRooms is
// returned alongside them.
func Spawn(p params.Config, g *world.Grid) (*Truth, *Belief, error) {
	x, y, err := g.SpawnPoint()
	t := &Truth{New(p)}
	t.X, t.Y = x, y
	b := &Belief{New(p)}
	b.CopyPose(t.Agent)
	return t, b, err
}

// CopyPose copies position and heading from other.
func (a *Agent) CopyPose(other Agent) {
	a.Pose = other.Pose
}

// CopyHeading copies only the heading from other.
func (a *Agent) CopyHeading(other Agent) {
	a.Theta = other.Theta
}

// AddNoise offsets the position by an independent uniform draw in
// [-amplitude, amplitude) per axis.
func (a *Agent) AddNoise(rng *rand.Rand, amplitude float64) {
	a.X += symmetric(rng, amplitude)
	a.Y += symmetric(rng, amplitude)
}

// Plan returns the ray sweep for the agent's current pose.
func (a Agent) Plan(p params.Config) raycast.Plan {
	return raycast.NewPlan(a.Theta, a.FOVAngle, a.FOVRange, p.NumRays, p.CellSize)
}

// Fits reports whether an agent of radius r centred on (x, y) stands on
// floor: both the (-r, -r) and (+r, +r) corners must be walkable.
func Fits(g *world.Grid, x, y, r float64) bool {
	return g.IsWalkable(x-r, y-r) && g.IsWalkable(x+r, y+r)
}

// UpdateOptions selects per-role behaviour of Update.
type UpdateOptions struct {
	// Jitter is the per-axis actuation noise amplitude. Zero disables it.
	// It is only drawn on steps where a translation key is held, so an
	// idle or turning agent keeps its exact position.
	Jitter float64
	// CheckWalkable rejects moves whose footprint leaves the floor.
	CheckWalkable bool
	// Rand supplies jitter; required when Jitter > 0.
	Rand *rand.Rand
	// SurfaceWidth and SurfaceHeight bound the final position.
	SurfaceWidth  float64
	SurfaceHeight float64
}

var cardinals = [...]float64{0, math.Pi / 2, math.Pi, -math.Pi / 2}

// Update advances the agent one step from the held keys. It returns true
// when a translation key was held, whether or not the move was accepted.
// The position is clamped to the surface on every call, including
// rejected moves.
func (a *Agent) Update(p params.Config, in input.Input, g *world.Grid, opts UpdateOptions) bool {
	defer a.clamp(p.Radius, opts.SurfaceWidth, opts.SurfaceHeight)

	if in.Held(input.TurnLeft) {
		a.Theta = NormalizeAngle(a.Theta - p.TurnSpeed)
	}
	if in.Held(input.TurnRight) {
		a.Theta = NormalizeAngle(a.Theta + p.TurnSpeed)
	}

	nx, ny := a.X, a.Y
	moved := false
	if in.Held(input.Forward) {
		nx += p.Speed * math.Cos(a.Theta)
		ny += p.Speed * math.Sin(a.Theta)
		moved = true
	}
	if in.Held(input.Backward) {
		nx -= p.Speed * math.Cos(a.Theta)
		ny -= p.Speed * math.Sin(a.Theta)
		moved = true
	}
	if moved && opts.Jitter > 0 && opts.Rand != nil {
		nx += symmetric(opts.Rand, opts.Jitter)
		ny += symmetric(opts.Rand, opts.Jitter)
	}

	if opts.CheckWalkable && !Fits(g, nx, ny, p.Radius) {
		a.steerClear(p, g)
		return moved
	}
	a.X, a.Y = nx, ny
	return moved
}

// steerClear turns by at most TurnSpeed toward the walkable cardinal
// direction closest to the current heading. Nothing changes when no
// direction is open.
func (a *Agent) steerClear(p params.Config, g *world.Grid) {
	best, bestDist := 0.0, math.Inf(1)
	for _, dir := range cardinals {
		tx := a.X + p.Speed*math.Cos(dir)
		ty := a.Y + p.Speed*math.Sin(dir)
		if !Fits(g, tx, ty, p.Radius) {
			continue
		}
		if d := AngularDistance(a.Theta, dir); d < bestDist {
			best, bestDist = dir, d
		}
	}
	if math.IsInf(bestDist, 1) {
		return
	}
	step := math.Max(-p.TurnSpeed, math.Min(p.TurnSpeed, ShortestAngleDelta(a.Theta, best)))
	a.Theta = NormalizeAngle(a.Theta + step)
}

// clamp keeps the position inside [r, width] x [r, height]. A non-positive
// surface dimension leaves that axis unbounded.
func (a *Agent) clamp(r, width, height float64) {
	if width > 0 {
		a.X = math.Max(r, math.Min(width, a.X))
	}
	if height > 0 {
		a.Y = math.Max(r, math.Min(height, a.Y))
	}
}

func symmetric(rng *rand.Rand, amplitude float64) float64 {
	if amplitude == 0 || rng == nil {
		return 0
	}
	return (rng.Float64()*2 - 1) * amplitude
}
