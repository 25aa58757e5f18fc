package neuroevo

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/donghaxkim/NeuralNetEvoWeb/neuroevo/nn"
)

// Reproduction creates agents, either from scratch or by breeding the
// previous generation.
type Reproduction struct {
	Config      *EvolutionConfig
	AgentConfig *AgentConfig
	Env         *Environment
	Logger      *slog.Logger

	rng *rand.Rand
}

// NewReproduction creates a reproduction manager drawing from rng.
func NewReproduction(config *EvolutionConfig, agentConfig *AgentConfig, env *Environment, rng *rand.Rand, logger *slog.Logger) *Reproduction {
	return &Reproduction{
		Config:      config,
		AgentConfig: agentConfig,
		Env:         env,
		Logger:      orDiscard(logger),
		rng:         rng,
	}
}

// CreateNewPopulation creates size agents with fresh brains at random
// positions inside the spawn margin.
func (r *Reproduction) CreateNewPopulation(size int) ([]*Agent, error) {
	agents := make([]*Agent, 0, size)
	for i := 0; i < size; i++ {
		a, err := r.spawn(nil)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, nil
}

// Reproduce builds the next generation from agents and their fitness
// snapshot. The total fitness must be positive.
//
// Slot 0 holds an unmutated copy of the fittest brain. Every other slot gets
// two parents drawn by fitness-proportional sampling with replacement; the
// child is their crossover with probability CrossoverRate, otherwise a copy
// of the fitter parent, and is mutated before being placed.
func (r *Reproduction) Reproduce(agents []*Agent, fitnesses []float64, size int) ([]*Agent, error) {
	if len(agents) == 0 || len(agents) != len(fitnesses) {
		return nil, fmt.Errorf("cannot reproduce from %d agents with %d fitness values", len(agents), len(fitnesses))
	}
	wheel, err := newRouletteWheel(fitnesses)
	if err != nil {
		return nil, err
	}

	newAgents := make([]*Agent, 0, size)

	bestIdx := floats.MaxIdx(fitnesses)
	elite, err := r.spawn(agents[bestIdx].Brain.Copy())
	if err != nil {
		return nil, err
	}
	newAgents = append(newAgents, elite)
	r.Logger.Debug("elite carried over", "index", bestIdx, "fitness", fitnesses[bestIdx])

	for len(newAgents) < size {
		i1 := wheel.spin(r.rng)
		i2 := wheel.spin(r.rng)
		parent1, parent2 := agents[i1], agents[i2]

		var child *nn.Network
		if r.rng.Float64() < r.Config.CrossoverRate {
			child, err = parent1.Brain.Crossover(parent2.Brain, r.rng)
			if err != nil {
				return nil, fmt.Errorf("crossover of agents %d and %d: %w", i1, i2, err)
			}
		} else if fitnesses[i1] > fitnesses[i2] {
			child = parent1.Brain.Copy()
		} else {
			child = parent2.Brain.Copy()
		}
		child.Mutate(r.Config.MutationRate, r.Config.MutationScale, r.rng)

		a, err := r.spawn(child)
		if err != nil {
			return nil, err
		}
		newAgents = append(newAgents, a)
	}
	return newAgents, nil
}

func (r *Reproduction) spawn(brain *nn.Network) (*Agent, error) {
	x, y := r.Env.RandomPosition(r.Config.SpawnMargin, r.rng)
	a, err := NewAgent(x, y, r.Env, brain, *r.AgentConfig, r.rng)
	if err != nil {
		return nil, fmt.Errorf("failed to spawn agent: %w", err)
	}
	return a, nil
}

// rouletteWheel samples indices with probability proportional to weight.
type rouletteWheel struct {
	cumulative []float64
	weights    []float64
}

func newRouletteWheel(weights []float64) (*rouletteWheel, error) {
	for i, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("negative selection weight %v at index %d", w, i)
		}
	}
	if floats.Sum(weights) <= 0 {
		return nil, fmt.Errorf("selection weights sum to zero")
	}
	return &rouletteWheel{
		cumulative: floats.CumSum(make([]float64, len(weights)), weights),
		weights:    weights,
	}, nil
}

// spin returns an index whose weight is never zero.
func (w *rouletteWheel) spin(rng *rand.Rand) int {
	total := w.cumulative[len(w.cumulative)-1]
	target := rng.Float64() * total
	idx := sort.Search(len(w.cumulative), func(i int) bool { return w.cumulative[i] > target })
	if idx == len(w.cumulative) {
		idx--
	}
	// rounding can leave target on the last running sum; step back to a
	// weighted slot
	for idx > 0 && w.weights[idx] == 0 {
		idx--
	}
	return idx
}
