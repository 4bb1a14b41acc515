package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical simulation defaults file.
const DefaultConfigPath = "config/simulation.defaults.json"

// SimConfig is the on-disk simulation configuration. Every field is optional;
// the Get* accessors fall back to the compiled defaults for nil fields so a
// partial file only overrides what it names.
type SimConfig struct {
	// Rendering surface, in pixels. Grid dimensions derive from these.
	SurfaceWidth  *int `json:"surface_width,omitempty"`
	SurfaceHeight *int `json:"surface_height,omitempty"`

	// World generation
	CellSize      *float64 `json:"cell_size,omitempty"`
	RoomCount     *int     `json:"room_count,omitempty"`
	RoomWidthMin  *int     `json:"room_width_min,omitempty"`
	RoomWidthMax  *int     `json:"room_width_max,omitempty"`
	RoomHeightMin *int     `json:"room_height_min,omitempty"`
	RoomHeightMax *int     `json:"room_height_max,omitempty"`
	HallWidth     *int     `json:"hall_width,omitempty"`

	// Kinematics
	Speed           *float64 `json:"speed,omitempty"`
	TurnSpeed       *float64 `json:"turn_speed,omitempty"`
	AgentRadius     *float64 `json:"agent_radius,omitempty"`
	JitterAmplitude *float64 `json:"jitter_amplitude,omitempty"`
	PoseNoise       *float64 `json:"pose_noise,omitempty"`

	// Sensor
	NumRays       *int     `json:"num_rays,omitempty"`
	FOVDegrees    *float64 `json:"fov_degrees,omitempty"`
	FOVRangeCells *float64 `json:"fov_range_cells,omitempty"`

	// Localisation search
	SearchRadius *int     `json:"search_radius,omitempty"`
	SearchStep   *float64 `json:"search_step,omitempty"`
	AdoptMargin  *float64 `json:"adopt_margin,omitempty"`
	Blend        *float64 `json:"blend,omitempty"`

	// Runner
	Seed         *int64  `json:"seed,omitempty"`
	TickInterval *string `json:"tick_interval,omitempty"` // duration string like "16ms"
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }
func ptrString(v string) *string    { return &v }

// EmptySimConfig returns a SimConfig with every field unset.
func EmptySimConfig() *SimConfig {
	return &SimConfig{}
}

// DefaultSimConfig returns a SimConfig with every field populated from the
// compiled defaults. Useful when writing out a template file.
func DefaultSimConfig() *SimConfig {
	e := EmptySimConfig()
	return &SimConfig{
		SurfaceWidth:    ptrInt(e.GetSurfaceWidth()),
		SurfaceHeight:   ptrInt(e.GetSurfaceHeight()),
		CellSize:        ptrFloat64(e.GetCellSize()),
		RoomCount:       ptrInt(e.GetRoomCount()),
		RoomWidthMin:    ptrInt(e.GetRoomWidthMin()),
		RoomWidthMax:    ptrInt(e.GetRoomWidthMax()),
		RoomHeightMin:   ptrInt(e.GetRoomHeightMin()),
		RoomHeightMax:   ptrInt(e.GetRoomHeightMax()),
		HallWidth:       ptrInt(e.GetHallWidth()),
		Speed:           ptrFloat64(e.GetSpeed()),
		TurnSpeed:       ptrFloat64(e.GetTurnSpeed()),
		AgentRadius:     ptrFloat64(e.GetAgentRadius()),
		JitterAmplitude: ptrFloat64(e.GetJitterAmplitude()),
		PoseNoise:       ptrFloat64(e.GetPoseNoise()),
		NumRays:         ptrInt(e.GetNumRays()),
		FOVDegrees:      ptrFloat64(e.GetFOVDegrees()),
		FOVRangeCells:   ptrFloat64(e.GetFOVRangeCells()),
		SearchRadius:    ptrInt(e.GetSearchRadius()),
		SearchStep:      ptrFloat64(e.GetSearchStep()),
		AdoptMargin:     ptrFloat64(e.GetAdoptMargin()),
		Blend:           ptrFloat64(e.GetBlend()),
		Seed:            ptrInt64(e.GetSeed()),
		TickInterval:    ptrString(e.GetTickInterval().String()),
	}
}

// LoadSimConfig loads a SimConfig from a JSON file.
// The path must carry a .json extension and the file must be under 1MB.
func LoadSimConfig(path string) (*SimConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptySimConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching from the current
// directory up through parent directories. Panics if the file cannot be
// loaded; intended for test setup and binaries run from the repo.
func MustLoadDefaultConfig() *SimConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/slam/<pkg>/
		"../../../../" + DefaultConfigPath, // from internal/slam/storage/sqlite/
	}
	for _, path := range candidates {
		if cfg, err := LoadSimConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run from repository root")
}

// Validate checks that the values that are set are usable. Cross-field
// checks (room bounds against the surface) only run when both sides are set
// or defaulted, so a partial file is judged against the defaults.
func (c *SimConfig) Validate() error {
	if c.SurfaceWidth != nil && *c.SurfaceWidth <= 0 {
		return fmt.Errorf("surface_width must be positive, got %d", *c.SurfaceWidth)
	}
	if c.SurfaceHeight != nil && *c.SurfaceHeight <= 0 {
		return fmt.Errorf("surface_height must be positive, got %d", *c.SurfaceHeight)
	}
	if c.CellSize != nil && *c.CellSize <= 0 {
		return fmt.Errorf("cell_size must be positive, got %f", *c.CellSize)
	}
	if c.RoomCount != nil && *c.RoomCount < 0 {
		return fmt.Errorf("room_count must be non-negative, got %d", *c.RoomCount)
	}
	if c.GetRoomWidthMin() < 1 || c.GetRoomWidthMax() <= c.GetRoomWidthMin() {
		return fmt.Errorf("room width bounds must satisfy 1 <= min < max, got [%d, %d)",
			c.GetRoomWidthMin(), c.GetRoomWidthMax())
	}
	if c.GetRoomHeightMin() < 1 || c.GetRoomHeightMax() <= c.GetRoomHeightMin() {
		return fmt.Errorf("room height bounds must satisfy 1 <= min < max, got [%d, %d)",
			c.GetRoomHeightMin(), c.GetRoomHeightMax())
	}
	if c.HallWidth != nil && *c.HallWidth < 1 {
		return fmt.Errorf("hall_width must be at least 1, got %d", *c.HallWidth)
	}
	if c.NumRays != nil && *c.NumRays <= 0 {
		return fmt.Errorf("num_rays must be positive, got %d", *c.NumRays)
	}
	if c.FOVDegrees != nil && (*c.FOVDegrees <= 0 || *c.FOVDegrees > 360) {
		return fmt.Errorf("fov_degrees must be in (0, 360], got %f", *c.FOVDegrees)
	}
	if c.FOVRangeCells != nil && *c.FOVRangeCells < 0 {
		return fmt.Errorf("fov_range_cells must be non-negative, got %f", *c.FOVRangeCells)
	}
	if c.Speed != nil && *c.Speed < 0 {
		return fmt.Errorf("speed must be non-negative, got %f", *c.Speed)
	}
	if c.TurnSpeed != nil && *c.TurnSpeed < 0 {
		return fmt.Errorf("turn_speed must be non-negative, got %f", *c.TurnSpeed)
	}
	if c.SearchRadius != nil && *c.SearchRadius < 0 {
		return fmt.Errorf("search_radius must be non-negative, got %d", *c.SearchRadius)
	}
	if c.Blend != nil && (*c.Blend < 0 || *c.Blend > 1) {
		return fmt.Errorf("blend must be in [0, 1], got %f", *c.Blend)
	}
	if c.TickInterval != nil && *c.TickInterval != "" {
		if _, err := time.ParseDuration(*c.TickInterval); err != nil {
			return fmt.Errorf("invalid tick_interval '%s': %w", *c.TickInterval, err)
		}
	}
	return nil
}

// GetSurfaceWidth returns the surface_width value or the default.
func (c *SimConfig) GetSurfaceWidth() int {
	if c.SurfaceWidth == nil {
		return 900 // default
	}
	return *c.SurfaceWidth
}

// GetSurfaceHeight returns the surface_height value or the default.
func (c *SimConfig) GetSurfaceHeight() int {
	if c.SurfaceHeight == nil {
		return 600 // default
	}
	return *c.SurfaceHeight
}

// GetCellSize returns the cell_size value or the default.
func (c *SimConfig) GetCellSize() float64 {
	if c.CellSize == nil {
		return 7.5 // default
	}
	return *c.CellSize
}

// GetRoomCount returns the room_count value or the default.
func (c *SimConfig) GetRoomCount() int {
	if c.RoomCount == nil {
		return 15 // default
	}
	return *c.RoomCount
}

// GetRoomWidthMin returns the room_width_min value or the default.
func (c *SimConfig) GetRoomWidthMin() int {
	if c.RoomWidthMin == nil {
		return 2 // default
	}
	return *c.RoomWidthMin
}

// GetRoomWidthMax returns the exclusive room_width_max value or the default.
func (c *SimConfig) GetRoomWidthMax() int {
	if c.RoomWidthMax == nil {
		return 6 // default
	}
	return *c.RoomWidthMax
}

// GetRoomHeightMin returns the room_height_min value or the default.
func (c *SimConfig) GetRoomHeightMin() int {
	if c.RoomHeightMin == nil {
		return 2 // default
	}
	return *c.RoomHeightMin
}

// GetRoomHeightMax returns the exclusive room_height_max value or the default.
func (c *SimConfig) GetRoomHeightMax() int {
	if c.RoomHeightMax == nil {
		return 6 // default
	}
	return *c.RoomHeightMax
}

// GetHallWidth returns the hall_width value or the default.
func (c *SimConfig) GetHallWidth() int {
	if c.HallWidth == nil {
		return 3 // default
	}
	return *c.HallWidth
}

// GetSpeed returns the speed value or the default.
func (c *SimConfig) GetSpeed() float64 {
	if c.Speed == nil {
		return 0.8 // default
	}
	return *c.Speed
}

// GetTurnSpeed returns the turn_speed value or the default.
func (c *SimConfig) GetTurnSpeed() float64 {
	if c.TurnSpeed == nil {
		return 0.025 // default
	}
	return *c.TurnSpeed
}

// GetAgentRadius returns the agent_radius value or the default.
func (c *SimConfig) GetAgentRadius() float64 {
	if c.AgentRadius == nil {
		return 5.0 // default
	}
	return *c.AgentRadius
}

// GetJitterAmplitude returns the jitter_amplitude value or the default of
// one twentieth of the configured speed.
func (c *SimConfig) GetJitterAmplitude() float64 {
	if c.JitterAmplitude == nil {
		return c.GetSpeed() / 20.0
	}
	return *c.JitterAmplitude
}

// GetPoseNoise returns the pose_noise value or the default.
func (c *SimConfig) GetPoseNoise() float64 {
	if c.PoseNoise == nil {
		return 0.5 // default
	}
	return *c.PoseNoise
}

// GetNumRays returns the num_rays value or the default.
func (c *SimConfig) GetNumRays() int {
	if c.NumRays == nil {
		return 180 // default
	}
	return *c.NumRays
}

// GetFOVDegrees returns the fov_degrees value or the default.
func (c *SimConfig) GetFOVDegrees() float64 {
	if c.FOVDegrees == nil {
		return 90 // default
	}
	return *c.FOVDegrees
}

// GetFOVRangeCells returns the fov_range_cells value or the default.
func (c *SimConfig) GetFOVRangeCells() float64 {
	if c.FOVRangeCells == nil {
		return 4 // default
	}
	return *c.FOVRangeCells
}

// GetSearchRadius returns the search_radius value or the default.
func (c *SimConfig) GetSearchRadius() int {
	if c.SearchRadius == nil {
		return 10 // default
	}
	return *c.SearchRadius
}

// GetSearchStep returns the search_step value or the default.
func (c *SimConfig) GetSearchStep() float64 {
	if c.SearchStep == nil {
		return 0.04 // default
	}
	return *c.SearchStep
}

// GetAdoptMargin returns the adopt_margin value or the default.
func (c *SimConfig) GetAdoptMargin() float64 {
	if c.AdoptMargin == nil {
		return 5.0 // default
	}
	return *c.AdoptMargin
}

// GetBlend returns the blend value or the default.
func (c *SimConfig) GetBlend() float64 {
	if c.Blend == nil {
		return 0.2 // default
	}
	return *c.Blend
}

// GetSeed returns the seed value or the default. Zero asks the runner to
// seed from the wall clock.
func (c *SimConfig) GetSeed() int64 {
	if c.Seed == nil {
		return 0 // default
	}
	return *c.Seed
}

// GetTickInterval parses and returns the TickInterval as a time.Duration.
func (c *SimConfig) GetTickInterval() time.Duration {
	if c.TickInterval == nil || *c.TickInterval == "" {
		return 16 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.TickInterval)
	if err != nil {
		return 16 * time.Millisecond // default on parse error
	}
	return d
}
