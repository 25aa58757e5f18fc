// Package history records per-generation statistics of simulation runs.
package history

import (
	"context"

	"github.com/donghaxkim/NeuralNetEvoWeb/neuroevo"
)

// Store persists generation statistics keyed by run ID.
type Store interface {
	Init(ctx context.Context) error
	Record(ctx context.Context, runID string, stats neuroevo.GenerationStats) error
	Generations(ctx context.Context, runID string) ([]neuroevo.GenerationStats, error)
	Runs(ctx context.Context) ([]string, error)
	Close() error
}

// Reporter adapts a store to neuroevo.Reporter for a single run.
func Reporter(ctx context.Context, store Store, runID string) neuroevo.Reporter {
	return neuroevo.ReporterFunc(func(stats neuroevo.GenerationStats) error {
		return store.Record(ctx, runID, stats)
	})
}
