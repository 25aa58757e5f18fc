package neuroevo

import (
	"fmt"
	"log/slog"
	"math/rand"
)

// Status is a read-only view of a simulation for dashboards.
type Status struct {
	Generation     int     `json:"generation" yaml:"generation"`
	BestFitness    float64 `json:"best_fitness" yaml:"best_fitness"`
	AliveCount     int     `json:"alive_count" yaml:"alive_count"`
	StuckCount     int     `json:"stuck_count" yaml:"stuck_count"`
	PopSize        int     `json:"pop_size" yaml:"pop_size"`
	GenerationTime float64 `json:"time" yaml:"time"`
	Ticks          int64   `json:"ticks" yaml:"ticks"`
	Paused         bool    `json:"paused" yaml:"paused"`
}

// Simulation owns the environment, population and food of one run and
// drives them tick by tick. It is not safe for concurrent use.
type Simulation struct {
	Config     *Config
	Env        *Environment
	Population *Population
	Foods      []*Food
	Reporters  []Reporter
	Logger     *slog.Logger

	Generation     int
	BestFitness    float64 // best fitness seen since the last Reset
	GenerationTime float64
	Ticks          int64
	Paused         bool

	rng *rand.Rand
}

// NewSimulation builds a ready-to-step simulation at generation 1.
func NewSimulation(config *Config, rng *rand.Rand, logger *slog.Logger) (*Simulation, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	logger = orDiscard(logger)

	env := &Environment{Width: config.Simulation.Width, Height: config.Simulation.Height}
	pop, err := NewPopulation(config, env, rng, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create population: %w", err)
	}

	s := &Simulation{
		Config:     config,
		Env:        env,
		Population: pop,
		Foods:      make([]*Food, 0, config.Simulation.FoodCount),
		Logger:     logger,
		Generation: 1,
		rng:        rng,
	}
	for i := 0; i < config.Simulation.FoodCount; i++ {
		s.Foods = append(s.Foods, NewFood(env, config.Simulation.FoodRadius, config.Simulation.FoodMargin, rng))
	}
	return s, nil
}

// Reset starts over from generation 1 with fresh agents and food.
func (s *Simulation) Reset() error {
	s.Generation = 1
	s.BestFitness = 0
	s.GenerationTime = 0
	s.Ticks = 0
	if err := s.Population.InitializePopulation(); err != nil {
		return err
	}
	s.respawnFood()
	s.Logger.Info("simulation reset", "pop_size", s.Population.Size, "food", len(s.Foods))
	return nil
}

// Step advances the simulation by dt seconds. Agents that touch food eat
// it, and the generation ends once every agent is dead or the generation
// timeout has passed. A paused simulation does not move.
func (s *Simulation) Step(dt float64) error {
	if s.Paused {
		return nil
	}
	s.GenerationTime += dt
	s.Ticks++

	if err := s.Population.Update(s.Foods, dt); err != nil {
		return err
	}
	s.feed()

	for _, a := range s.Population.Agents {
		if f := a.Fitness(); f > s.BestFitness {
			s.BestFitness = f
		}
	}

	allDead := s.Population.AliveCount() == 0
	timeout := s.GenerationTime > s.Config.Simulation.GenerationTimeout
	if allDead || timeout {
		s.Logger.Debug("generation over", "generation", s.Generation, "all_dead", allDead, "timeout", timeout)
		return s.AdvanceGeneration()
	}
	return nil
}

// feed resolves agent-food collisions: the agent gains energy and the food
// moves elsewhere, possibly into the path of a later agent.
func (s *Simulation) feed() {
	sc := s.Config.Simulation
	for _, a := range s.Population.Agents {
		if !a.Alive {
			continue
		}
		for _, f := range s.Foods {
			if a.CheckFoodCollision(f) {
				a.Energy += sc.FoodEnergy
				a.FoodEaten++
				f.Respawn(s.Env, sc.FoodMargin, s.rng)
			}
		}
	}
}

// AdvanceGeneration ends the current generation immediately: it reports the
// generation's statistics, evolves the population and scatters the food.
func (s *Simulation) AdvanceGeneration() error {
	stats := s.Population.Summarize(s.Generation, s.GenerationTime)

	reinitialized, err := s.Population.Evolve()
	if err != nil {
		return fmt.Errorf("failed to evolve generation %d: %w", s.Generation, err)
	}
	stats.Reinitialized = reinitialized

	s.Logger.Info("generation finished",
		"generation", stats.Generation,
		"best_fitness", stats.BestFitness,
		"mean_fitness", stats.MeanFitness,
		"alive", stats.AliveCount,
		"reinitialized", stats.Reinitialized,
	)
	for _, r := range s.Reporters {
		if err := r.EndGeneration(stats); err != nil {
			return fmt.Errorf("reporter failed for generation %d: %w", stats.Generation, err)
		}
	}

	s.Generation++
	s.GenerationTime = 0
	s.respawnFood()
	return nil
}

// Pause stops Step from advancing the simulation.
func (s *Simulation) Pause() { s.Paused = true }

// Resume undoes Pause.
func (s *Simulation) Resume() { s.Paused = false }

// TogglePause flips between paused and running.
func (s *Simulation) TogglePause() { s.Paused = !s.Paused }

// BestAgent returns the agent to visualise, see Population.BestAgent.
func (s *Simulation) BestAgent() *Agent {
	return s.Population.BestAgent()
}

// Status returns a snapshot of the run counters.
func (s *Simulation) Status() Status {
	return Status{
		Generation:     s.Generation,
		BestFitness:    s.BestFitness,
		AliveCount:     s.Population.AliveCount(),
		StuckCount:     s.Population.StuckCount(),
		PopSize:        s.Population.Size,
		GenerationTime: s.GenerationTime,
		Ticks:          s.Ticks,
		Paused:         s.Paused,
	}
}

func (s *Simulation) respawnFood() {
	for _, f := range s.Foods {
		f.Respawn(s.Env, s.Config.Simulation.FoodMargin, s.rng)
	}
}
