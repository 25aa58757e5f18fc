package neuroevo

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// GenerationStats summarises one finished generation.
type GenerationStats struct {
	Generation    int     `json:"generation" yaml:"generation"`
	BestFitness   float64 `json:"best_fitness" yaml:"best_fitness"`
	MeanFitness   float64 `json:"mean_fitness" yaml:"mean_fitness"`
	TotalFitness  float64 `json:"total_fitness" yaml:"total_fitness"`
	AliveCount    int     `json:"alive_count" yaml:"alive_count"`
	StuckCount    int     `json:"stuck_count" yaml:"stuck_count"`
	Duration      float64 `json:"duration" yaml:"duration"` // simulated seconds
	Reinitialized bool    `json:"reinitialized" yaml:"reinitialized"`
}

// Summarize computes statistics for the current agents. Reinitialized is
// left for the caller, who knows how Evolve went.
func (p *Population) Summarize(generation int, duration float64) GenerationStats {
	s := GenerationStats{
		Generation: generation,
		AliveCount: p.AliveCount(),
		StuckCount: p.StuckCount(),
		Duration:   duration,
	}
	fitnesses := p.Fitnesses()
	if len(fitnesses) == 0 {
		return s
	}
	s.BestFitness = floats.Max(fitnesses)
	s.MeanFitness = stat.Mean(fitnesses, nil)
	s.TotalFitness = floats.Sum(fitnesses)
	return s
}

// Reporter receives a summary whenever a generation ends.
type Reporter interface {
	EndGeneration(stats GenerationStats) error
}

// ReporterFunc adapts a plain function to the Reporter interface.
type ReporterFunc func(stats GenerationStats) error

// EndGeneration calls f(stats).
func (f ReporterFunc) EndGeneration(stats GenerationStats) error {
	return f(stats)
}
