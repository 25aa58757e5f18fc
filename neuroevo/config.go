package neuroevo

import (
	"fmt"
	"math"

	"gopkg.in/ini.v1"
)

// Config stores the parameters of an arena simulation.
type Config struct {
	Simulation SimulationConfig
	Agent      AgentConfig
	Evolution  EvolutionConfig
}

// SimulationConfig holds arena and driver parameters.
type SimulationConfig struct {
	Width             float64 `ini:"width"`
	Height            float64 `ini:"height"`
	PopSize           int     `ini:"pop_size"`
	FoodCount         int     `ini:"food_count"`
	FoodRadius        float64 `ini:"food_radius"`
	FoodEnergy        float64 `ini:"food_energy"`        // energy granted per food eaten
	FoodMargin        int     `ini:"food_margin"`        // food keeps this far from the walls
	TimeStep          float64 `ini:"time_step"`          // seconds per tick
	GenerationTimeout float64 `ini:"generation_timeout"` // seconds of simulated time
}

// AgentConfig holds per-agent body and sensor parameters.
type AgentConfig struct {
	Speed              float64 `ini:"speed"`     // units per second
	TurnRate           float64 `ini:"turn_rate"` // radians per second
	Radius             float64 `ini:"radius"`
	InitialEnergy      float64 `ini:"initial_energy"`
	VisionRadius       float64 `ini:"vision_radius"`
	VisionAngleDegrees float64 `ini:"vision_angle_degrees"` // full cone width
}

// VisionAngle returns the full vision cone width in radians.
func (c AgentConfig) VisionAngle() float64 {
	return c.VisionAngleDegrees / 180 * math.Pi
}

// EvolutionConfig holds parameters of the generational loop.
type EvolutionConfig struct {
	CrossoverRate float64 `ini:"crossover_rate"`
	MutationRate  float64 `ini:"mutation_rate"`
	MutationScale float64 `ini:"mutation_scale"`
	SpawnMargin   float64 `ini:"spawn_margin"` // agents spawn this far from the walls
}

// DefaultConfig returns the stock arena: 50 agents and 20 food in a 900x800
// field, stepped at 60 ticks per simulated second.
func DefaultConfig() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Width:             900,
			Height:            800,
			PopSize:           50,
			FoodCount:         20,
			FoodRadius:        5,
			FoodEnergy:        50,
			FoodMargin:        30,
			TimeStep:          1.0 / 60.0,
			GenerationTimeout: 45,
		},
		Agent: AgentConfig{
			Speed:              100,
			TurnRate:           3.0,
			Radius:             10,
			InitialEnergy:      100,
			VisionRadius:       120,
			VisionAngleDegrees: 180,
		},
		Evolution: EvolutionConfig{
			CrossoverRate: 0.7,
			MutationRate:  0.1,
			MutationScale: 0.2,
			SpawnMargin:   50,
		},
	}
}

// LoadConfig loads an INI file on top of DefaultConfig. Keys absent from the
// file keep their default value; malformed values are an error.
func LoadConfig(filePath string) (*Config, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	config := DefaultConfig()
	if err := cfg.Section("Simulation").StrictMapTo(&config.Simulation); err != nil {
		return nil, fmt.Errorf("failed to map [Simulation] section: %w", err)
	}
	if err := cfg.Section("Agent").StrictMapTo(&config.Agent); err != nil {
		return nil, fmt.Errorf("failed to map [Agent] section: %w", err)
	}
	if err := cfg.Section("Evolution").StrictMapTo(&config.Evolution); err != nil {
		return nil, fmt.Errorf("failed to map [Evolution] section: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks that every parameter lies in its usable range.
func (c *Config) Validate() error {
	s, a, e := c.Simulation, c.Agent, c.Evolution

	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("config error: width and height must be positive")
	}
	if s.PopSize < 1 {
		return fmt.Errorf("config error: pop_size must be at least 1")
	}
	if s.FoodCount < 0 {
		return fmt.Errorf("config error: food_count cannot be negative")
	}
	if s.FoodRadius <= 0 {
		return fmt.Errorf("config error: food_radius must be positive")
	}
	if s.FoodEnergy < 0 {
		return fmt.Errorf("config error: food_energy cannot be negative")
	}
	if s.FoodMargin < 0 || float64(2*s.FoodMargin) > math.Min(s.Width, s.Height) {
		return fmt.Errorf("config error: food_margin must leave room inside the arena")
	}
	if s.TimeStep <= 0 {
		return fmt.Errorf("config error: time_step must be positive")
	}
	if s.GenerationTimeout <= 0 {
		return fmt.Errorf("config error: generation_timeout must be positive")
	}

	if a.Speed < 0 || a.TurnRate < 0 {
		return fmt.Errorf("config error: speed and turn_rate cannot be negative")
	}
	if a.Radius <= 0 {
		return fmt.Errorf("config error: radius must be positive")
	}
	if a.InitialEnergy <= 0 {
		return fmt.Errorf("config error: initial_energy must be positive")
	}
	if a.VisionRadius <= 0 {
		return fmt.Errorf("config error: vision_radius must be positive")
	}
	if a.VisionAngleDegrees <= 0 || a.VisionAngleDegrees > 360 {
		return fmt.Errorf("config error: vision_angle_degrees must be in (0, 360]")
	}

	if e.CrossoverRate < 0 || e.CrossoverRate > 1 {
		return fmt.Errorf("config error: crossover_rate must be between 0 and 1")
	}
	if e.MutationRate < 0 || e.MutationRate > 1 {
		return fmt.Errorf("config error: mutation_rate must be between 0 and 1")
	}
	if e.MutationScale <= 0 {
		return fmt.Errorf("config error: mutation_scale must be positive")
	}
	if e.SpawnMargin < 0 || 2*e.SpawnMargin > math.Min(s.Width, s.Height) {
		return fmt.Errorf("config error: spawn_margin must leave room inside the arena")
	}
	return nil
}
