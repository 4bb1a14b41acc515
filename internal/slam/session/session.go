// Package session owns one simulation run: the truth grid, the belief map
// and both agents, advanced one step at a time by a single caller.
//
// A Session is not safe for concurrent use. Observers run synchronously
// inside Step and must copy anything they keep.
package session

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/banshee-data/gridslam/internal/monitoring"
	"github.com/banshee-data/gridslam/internal/slam/agent"
	"github.com/banshee-data/gridslam/internal/slam/input"
	"github.com/banshee-data/gridslam/internal/slam/localize"
	"github.com/banshee-data/gridslam/internal/slam/occupancy"
	"github.com/banshee-data/gridslam/internal/slam/params"
	"github.com/banshee-data/gridslam/internal/slam/world"
)

// Surface is the drawing area in world units. Grid dimensions derive from
// it and agents are clamped to it.
type Surface struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// StepResult reports what one Step did.
type StepResult struct {
	Step      int             `json:"step"`
	Moved     bool            `json:"moved"`
	Writes    int             `json:"writes"`
	Localize  localize.Result `json:"localize"`
	Truth     agent.Pose      `json:"truth"`
	Belief    agent.Pose      `json:"belief"`
	PoseError float64         `json:"pose_error"`
}

// Observer is called after every Step.
type Observer func(StepResult)

// Session is one run.
type Session struct {
	Params  params.Config
	Surface Surface
	Grid    *world.Grid
	Map     *occupancy.Map
	Truth   *agent.Truth
	Belief  *agent.Belief

	rng       *rand.Rand
	step      int
	observers []Observer
}

// New generates a world for surface and spawns both agents. The belief
// agent starts on the truth pose offset by PoseNoise. A world with no rooms
// is not an error: the agents start at the origin.
func New(p params.Config, surface Surface, rng *rand.Rand) (*Session, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("session params: %w", err)
	}
	w, h := world.GridSize(surface.Width, surface.Height, p.CellSize)
	g, err := world.NewGenerator(p, rng).Generate(w, h, p.RoomCount)
	if err != nil {
		return nil, fmt.Errorf("generate world: %w", err)
	}
	return NewWithGrid(p, surface, g, rng)
}

// NewWithGrid starts a session on an existing grid.
func NewWithGrid(p params.Config, surface Surface, g *world.Grid, rng *rand.Rand) (*Session, error) {
	if rng == nil {
		return nil, errors.New("session requires a random source")
	}
	truth, belief, err := agent.Spawn(p, g)
	if errors.Is(err, world.ErrNoRooms) {
		monitoring.Logf("session: %v, spawning at origin", err)
	} else if err != nil {
		return nil, err
	}
	belief.AddNoise(rng, p.PoseNoise)

	s := &Session{
		Params:  p,
		Surface: surface,
		Grid:    g,
		Map:     occupancy.NewFor(g),
		Truth:   truth,
		Belief:  belief,
		rng:     rng,
	}
	monitoring.Diagf("session: truth %v belief %v", truth.Pose, belief.Pose)
	return s, nil
}

// AddObserver registers fn to run after every Step.
func (s *Session) AddObserver(fn Observer) {
	if fn != nil {
		s.observers = append(s.observers, fn)
	}
}

// Step advances one tick.
//
// The truth agent moves with collision checking and no jitter. The belief
// agent follows the same keys without collision but with jitter, then takes
// the truth heading. When a translation key was held the truth sweep is
// recorded into the belief map and the belief position is localised.
func (s *Session) Step(in input.Input) StepResult {
	s.step++
	p := s.Params

	moved := s.Truth.Update(p, in, s.Grid, agent.UpdateOptions{
		CheckWalkable: true,
		SurfaceWidth:  s.Surface.Width,
		SurfaceHeight: s.Surface.Height,
	})
	s.Belief.Update(p, in, s.Grid, agent.UpdateOptions{
		Jitter:        p.JitterAmplitude,
		Rand:          s.rng,
		SurfaceWidth:  s.Surface.Width,
		SurfaceHeight: s.Surface.Height,
	})
	s.Belief.CopyHeading(s.Truth.Agent)

	res := StepResult{Step: s.step, Moved: moved}
	if moved {
		res.Writes = s.Map.UpdateWithScan(p, s.Truth, s.Belief, s.Grid)
		res.Localize = localize.Localize(p, s.Truth, s.Belief, s.Map, s.Grid)
		if res.Localize.Adopted {
			monitoring.Diagf("step %d: localised by (%.4f, %.4f) score %.1f -> %.1f",
				s.step, res.Localize.DX, res.Localize.DY, res.Localize.Current, res.Localize.Best)
		}
	}
	res.Truth = s.Truth.Pose
	res.Belief = s.Belief.Pose
	res.PoseError = s.Belief.Distance(s.Truth.Pose)

	for _, fn := range s.observers {
		fn(res)
	}
	return res
}

// Snapshot is a copy of the session state safe to hand to another
// goroutine.
type Snapshot struct {
	Step      int              `json:"step"`
	Width     int              `json:"width"`
	Height    int              `json:"height"`
	CellSize  float64          `json:"cell_size"`
	Rooms     []world.Room     `json:"rooms"`
	Truth     agent.Pose       `json:"truth"`
	Belief    agent.Pose       `json:"belief"`
	PoseError float64          `json:"pose_error"`
	Counts    occupancy.Counts `json:"counts"`
	Coverage  float64          `json:"coverage"`

	Map *occupancy.Map `json:"-"`
}

// Snapshot copies the current state, including a clone of the belief map.
func (s *Session) Snapshot() Snapshot {
	rooms := make([]world.Room, len(s.Grid.Rooms))
	copy(rooms, s.Grid.Rooms)
	return Snapshot{
		Step:      s.step,
		Width:     s.Grid.Width,
		Height:    s.Grid.Height,
		CellSize:  s.Params.CellSize,
		Rooms:     rooms,
		Truth:     s.Truth.Pose,
		Belief:    s.Belief.Pose,
		PoseError: s.Belief.Distance(s.Truth.Pose),
		Counts:    s.Map.Counts(),
		Coverage:  s.Map.Coverage(),
		Map:       s.Map.Clone(),
	}
}

// Steps returns how many times Step has run.
func (s *Session) Steps() int {
	return s.step
}
