package neuroevo

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Population holds a fixed number of agents sharing one environment.
// It performs no locking; callers serialise Update and Evolve with any
// reader of the agents.
type Population struct {
	Size         int
	Agents       []*Agent
	Env          *Environment
	Reproduction *Reproduction
	Logger       *slog.Logger
}

// NewPopulation creates a population of config.Simulation.PopSize agents
// with fresh brains.
func NewPopulation(config *Config, env *Environment, rng *rand.Rand, logger *slog.Logger) (*Population, error) {
	if config.Simulation.PopSize < 1 {
		return nil, fmt.Errorf("population size must be at least 1, got %d", config.Simulation.PopSize)
	}
	logger = orDiscard(logger)

	p := &Population{
		Size:         config.Simulation.PopSize,
		Env:          env,
		Reproduction: NewReproduction(&config.Evolution, &config.Agent, env, rng, logger),
		Logger:       logger,
	}
	if err := p.InitializePopulation(); err != nil {
		return nil, err
	}
	return p, nil
}

// InitializePopulation replaces every agent with a fresh one.
func (p *Population) InitializePopulation() error {
	agents, err := p.Reproduction.CreateNewPopulation(p.Size)
	if err != nil {
		return fmt.Errorf("failed to initialize population: %w", err)
	}
	p.Agents = agents
	return nil
}

// Update advances every agent by dt, in collection order.
func (p *Population) Update(foods []*Food, dt float64) error {
	for i, a := range p.Agents {
		if err := a.Update(foods, dt); err != nil {
			return fmt.Errorf("update agent %d: %w", i, err)
		}
	}
	return nil
}

// BestAgent returns the living agent with the highest fitness, the first one
// on ties. When no agent is alive it returns the first agent.
func (p *Population) BestAgent() *Agent {
	if len(p.Agents) == 0 {
		return nil
	}

	var best *Agent
	maxFitness := math.Inf(-1)
	for _, a := range p.Agents {
		if a.Alive && a.Fitness() > maxFitness {
			maxFitness = a.Fitness()
			best = a
		}
	}
	if best == nil {
		return p.Agents[0]
	}
	return best
}

// Fitnesses returns a snapshot of every agent's fitness in collection order.
func (p *Population) Fitnesses() []float64 {
	fitnesses := make([]float64, len(p.Agents))
	for i, a := range p.Agents {
		fitnesses[i] = a.Fitness()
	}
	return fitnesses
}

// Evolve replaces the agents with the next generation. It reports whether the
// population was reinitialised instead of bred, which happens when no agent
// scored any fitness.
func (p *Population) Evolve() (bool, error) {
	fitnesses := p.Fitnesses()

	if floats.Sum(fitnesses) == 0 {
		p.Logger.Debug("no fitness in generation, reinitializing population", "size", p.Size)
		if err := p.InitializePopulation(); err != nil {
			return false, err
		}
		return true, nil
	}

	newAgents, err := p.Reproduction.Reproduce(p.Agents, fitnesses, p.Size)
	if err != nil {
		return false, fmt.Errorf("reproduction failed: %w", err)
	}
	p.Agents = newAgents
	return false, nil
}

// AliveCount returns the number of living agents.
func (p *Population) AliveCount() int {
	n := 0
	for _, a := range p.Agents {
		if a.Alive {
			n++
		}
	}
	return n
}

// StuckCount returns the number of living agents flagged as stuck.
func (p *Population) StuckCount() int {
	n := 0
	for _, a := range p.Agents {
		if a.Alive && a.IsStuck {
			n++
		}
	}
	return n
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		// Go 1.21 equivalent of slog.DiscardHandler: all levels disabled, output discarded.
		return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}
	return logger
}
