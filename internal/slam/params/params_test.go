package params

import (
	"math"
	"strings"
	"testing"

	"github.com/banshee-data/gridslam/internal/config"
)

func TestDefault_Validates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() should validate: %v", err)
	}
}

func TestDefault_StepsPerRay(t *testing.T) {
	// range is four cells, so samples at 0..4 cells inclusive
	if got := Default().StepsPerRay(); got != 5 {
		t.Errorf("StepsPerRay() = %d, want 5", got)
	}
}

func TestFromSimConfig(t *testing.T) {
	rays := 90
	fov := 60.0
	rangeCells := 6.0
	cell := 10.0
	cfg := &config.SimConfig{
		NumRays:       &rays,
		FOVDegrees:    &fov,
		FOVRangeCells: &rangeCells,
		CellSize:      &cell,
	}

	p := FromSimConfig(cfg)
	if p.NumRays != 90 {
		t.Errorf("NumRays = %d, want 90", p.NumRays)
	}
	if math.Abs(p.FOVAngle-math.Pi/3) > 1e-12 {
		t.Errorf("FOVAngle = %f, want π/3", p.FOVAngle)
	}
	if p.FOVRange != 60 {
		t.Errorf("FOVRange = %f, want 60 (6 cells of 10)", p.FOVRange)
	}
	if p.ScoreWallOccupied != 3.0 || p.ScoreMismatch != -2.0 {
		t.Errorf("scoring weights should keep reference values, got %+v", p)
	}
}

func TestFromSimConfig_EmptyMatchesDefault(t *testing.T) {
	if got, want := FromSimConfig(config.EmptySimConfig()), Default(); got != want {
		t.Errorf("FromSimConfig(empty) = %+v, want %+v", got, want)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(Config) Config
		wantErr string
	}{
		{"zero cell", func(c Config) Config { return c.WithCellSize(0) }, "CellSize"},
		{"inverted widths", func(c Config) Config { return c.WithRooms(3, 5, 5, 2, 4) }, "room width"},
		{"inverted heights", func(c Config) Config { return c.WithRooms(3, 2, 4, 4, 1) }, "room height"},
		{"no hall", func(c Config) Config { return c.WithHallWidth(0) }, "HallWidth"},
		{"no rays", func(c Config) Config { return c.WithSensor(0, 1, 10) }, "NumRays"},
		{"wide fov", func(c Config) Config { return c.WithSensor(10, 7, 10) }, "FOVAngle"},
		{"negative jitter", func(c Config) Config { return c.WithJitter(-1) }, "noise"},
		{"blend above one", func(c Config) Config { return c.WithSearch(1, 1, 0, 2) }, "Blend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mutate(Default()).Validate()
			if err == nil {
				t.Fatalf("expected error mentioning %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestWithSetters_DoNotMutateReceiver(t *testing.T) {
	base := Default()
	_ = base.WithCellSize(1).WithSearch(2, 1, 0.5, 0.5)
	if base != Default() {
		t.Error("With* setters must return a copy and leave the receiver untouched")
	}
}
