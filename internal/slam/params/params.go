// Package params holds the immutable numeric configuration of the
// simulation core. Every constant the world, caster, belief map, agent and
// localiser need lives here so tests can run the core at other scales.
package params

import (
	"fmt"
	"math"

	"github.com/banshee-data/gridslam/internal/config"
)

// Config is passed by value into every constructor of the core. It is
// never mutated after a session starts.
type Config struct {
	// World units per grid cell. tile = floor(world / CellSize).
	CellSize float64

	// Generation
	RoomCount     int
	RoomWidthMin  int // inclusive, cells
	RoomWidthMax  int // exclusive, cells
	RoomHeightMin int
	RoomHeightMax int
	HallWidth     int // corridor width in cells; odd values centre on the room axis

	// Kinematics, world units per step and radians per step
	Speed           float64
	TurnSpeed       float64
	Radius          float64
	JitterAmplitude float64 // actuation jitter, uniform in [-a, a) per axis
	PoseNoise       float64 // AddNoise amplitude, uniform in [-n, n) per axis

	// Sensor
	NumRays  int
	FOVAngle float64 // radians
	FOVRange float64 // world units

	// Localisation
	SearchRadius int     // candidate offsets in [-r, r] per axis
	SearchStep   float64 // world units per candidate offset
	AdoptMargin  float64 // best candidate must beat current score by more than this
	Blend        float64 // exponential smoothing factor toward the best candidate

	// Scoring weights
	ScoreWallOccupied float64
	ScoreFloorFree    float64
	ScoreUnknown      float64
	ScoreMismatch     float64
}

// Default returns the reference configuration.
func Default() Config {
	cell, speed, fovDegrees := 7.5, 0.8, 90.0
	return Config{
		CellSize:          cell,
		RoomCount:         15,
		RoomWidthMin:      2,
		RoomWidthMax:      6,
		RoomHeightMin:     2,
		RoomHeightMax:     6,
		HallWidth:         3,
		Speed:             speed,
		TurnSpeed:         0.025,
		Radius:            5.0,
		JitterAmplitude:   speed / 20.0,
		PoseNoise:         0.5,
		NumRays:           180,
		FOVAngle:          fovDegrees * math.Pi / 180.0,
		FOVRange:          4 * cell,
		SearchRadius:      10,
		SearchStep:        1.0 / 25.0,
		AdoptMargin:       5.0,
		Blend:             0.2,
		ScoreWallOccupied: 3.0,
		ScoreFloorFree:    1.0,
		ScoreUnknown:      -0.2,
		ScoreMismatch:     -2.0,
	}
}

// FromSimConfig builds a Config from a loaded SimConfig. Scoring weights are
// not user-tunable and keep their reference values.
func FromSimConfig(cfg *config.SimConfig) Config {
	c := Default()
	c.CellSize = cfg.GetCellSize()
	c.RoomCount = cfg.GetRoomCount()
	c.RoomWidthMin = cfg.GetRoomWidthMin()
	c.RoomWidthMax = cfg.GetRoomWidthMax()
	c.RoomHeightMin = cfg.GetRoomHeightMin()
	c.RoomHeightMax = cfg.GetRoomHeightMax()
	c.HallWidth = cfg.GetHallWidth()
	c.Speed = cfg.GetSpeed()
	c.TurnSpeed = cfg.GetTurnSpeed()
	c.Radius = cfg.GetAgentRadius()
	c.JitterAmplitude = cfg.GetJitterAmplitude()
	c.PoseNoise = cfg.GetPoseNoise()
	c.NumRays = cfg.GetNumRays()
	c.FOVAngle = cfg.GetFOVDegrees() * math.Pi / 180.0
	c.FOVRange = cfg.GetFOVRangeCells() * c.CellSize
	c.SearchRadius = cfg.GetSearchRadius()
	c.SearchStep = cfg.GetSearchStep()
	c.AdoptMargin = cfg.GetAdoptMargin()
	c.Blend = cfg.GetBlend()
	return c
}

// Validate checks that the configuration is usable by the core.
func (c Config) Validate() error {
	if c.CellSize <= 0 {
		return fmt.Errorf("CellSize must be positive, got %f", c.CellSize)
	}
	if c.RoomCount < 0 {
		return fmt.Errorf("RoomCount must be non-negative, got %d", c.RoomCount)
	}
	if c.RoomWidthMin < 1 || c.RoomWidthMax <= c.RoomWidthMin {
		return fmt.Errorf("room width bounds must satisfy 1 <= min < max, got [%d, %d)", c.RoomWidthMin, c.RoomWidthMax)
	}
	if c.RoomHeightMin < 1 || c.RoomHeightMax <= c.RoomHeightMin {
		return fmt.Errorf("room height bounds must satisfy 1 <= min < max, got [%d, %d)", c.RoomHeightMin, c.RoomHeightMax)
	}
	if c.HallWidth < 1 {
		return fmt.Errorf("HallWidth must be at least 1, got %d", c.HallWidth)
	}
	if c.Speed < 0 || c.TurnSpeed < 0 || c.Radius < 0 {
		return fmt.Errorf("Speed, TurnSpeed and Radius must be non-negative, got %f, %f, %f", c.Speed, c.TurnSpeed, c.Radius)
	}
	if c.JitterAmplitude < 0 || c.PoseNoise < 0 {
		return fmt.Errorf("noise amplitudes must be non-negative, got jitter=%f pose=%f", c.JitterAmplitude, c.PoseNoise)
	}
	if c.NumRays <= 0 {
		return fmt.Errorf("NumRays must be positive, got %d", c.NumRays)
	}
	if c.FOVAngle <= 0 || c.FOVAngle > 2*math.Pi {
		return fmt.Errorf("FOVAngle must be in (0, 2π], got %f", c.FOVAngle)
	}
	if c.FOVRange < 0 {
		return fmt.Errorf("FOVRange must be non-negative, got %f", c.FOVRange)
	}
	if c.SearchRadius < 0 || c.SearchStep < 0 {
		return fmt.Errorf("search grid must be non-negative, got radius=%d step=%f", c.SearchRadius, c.SearchStep)
	}
	if c.Blend < 0 || c.Blend > 1 {
		return fmt.Errorf("Blend must be in [0, 1], got %f", c.Blend)
	}
	return nil
}

// StepsPerRay is the number of samples taken along each ray:
// floor(FOVRange/CellSize) + 1, the origin sample included.
func (c Config) StepsPerRay() int {
	return int(c.FOVRange/c.CellSize) + 1
}

// WithCellSize sets the world units per cell.
func (c Config) WithCellSize(s float64) Config {
	c.CellSize = s
	return c
}

// WithRooms sets the room count and size bounds.
func (c Config) WithRooms(count, wMin, wMax, hMin, hMax int) Config {
	c.RoomCount = count
	c.RoomWidthMin, c.RoomWidthMax = wMin, wMax
	c.RoomHeightMin, c.RoomHeightMax = hMin, hMax
	return c
}

// WithHallWidth sets the corridor width in cells.
func (c Config) WithHallWidth(w int) Config {
	c.HallWidth = w
	return c
}

// WithSensor sets the ray count, field of view (radians) and range (world units).
func (c Config) WithSensor(rays int, fov, rng float64) Config {
	c.NumRays = rays
	c.FOVAngle = fov
	c.FOVRange = rng
	return c
}

// WithMotion sets speed, turn speed and body radius.
func (c Config) WithMotion(speed, turn, radius float64) Config {
	c.Speed, c.TurnSpeed, c.Radius = speed, turn, radius
	return c
}

// WithJitter sets the actuation jitter amplitude.
func (c Config) WithJitter(a float64) Config {
	c.JitterAmplitude = a
	return c
}

// WithSearch sets the localisation search grid and acceptance rules.
func (c Config) WithSearch(radius int, step, margin, blend float64) Config {
	c.SearchRadius = radius
	c.SearchStep = step
	c.AdoptMargin = margin
	c.Blend = blend
	return c
}
