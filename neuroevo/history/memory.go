package history

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/donghaxkim/NeuralNetEvoWeb/neuroevo"
)

// MemoryStore keeps history in process memory; it is lost on exit.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        []string
	generations map[string][]neuroevo.GenerationStats
}

// NewMemoryStore returns an empty store. Call Init before recording.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = nil
	s.generations = make(map[string][]neuroevo.GenerationStats)
	return nil
}

func (s *MemoryStore) Record(_ context.Context, runID string, stats neuroevo.GenerationStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	existing, ok := s.generations[runID]
	if !ok {
		s.runs = append(s.runs, runID)
	}
	for i := range existing {
		if existing[i].Generation == stats.Generation {
			existing[i] = stats
			return nil
		}
	}
	s.generations[runID] = append(existing, stats)
	return nil
}

func (s *MemoryStore) Generations(_ context.Context, runID string) ([]neuroevo.GenerationStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, errors.New("store is not initialized")
	}
	out := slices.Clone(s.generations[runID])
	slices.SortFunc(out, func(a, b neuroevo.GenerationStats) int { return a.Generation - b.Generation })
	return out, nil
}

func (s *MemoryStore) Runs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, errors.New("store is not initialized")
	}
	return slices.Clone(s.runs), nil
}

func (s *MemoryStore) Close() error {
	return nil
}
