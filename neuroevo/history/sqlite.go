package history

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/donghaxkim/NeuralNetEvoWeb/neuroevo"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists history in a SQLite database file.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore returns a store for the database at path. The file is
// opened, and created if needed, by Init.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Record(ctx context.Context, runID string, stats neuroevo.GenerationStats) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO generations (
			run_id, generation, best_fitness, mean_fitness, total_fitness,
			alive_count, stuck_count, duration, reinitialized, recorded_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			best_fitness = excluded.best_fitness,
			mean_fitness = excluded.mean_fitness,
			total_fitness = excluded.total_fitness,
			alive_count = excluded.alive_count,
			stuck_count = excluded.stuck_count,
			duration = excluded.duration,
			reinitialized = excluded.reinitialized
	`, runID, stats.Generation, stats.BestFitness, stats.MeanFitness, stats.TotalFitness,
		stats.AliveCount, stats.StuckCount, stats.Duration, stats.Reinitialized,
		time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (s *SQLiteStore) Generations(ctx context.Context, runID string) ([]neuroevo.GenerationStats, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT generation, best_fitness, mean_fitness, total_fitness,
			alive_count, stuck_count, duration, reinitialized
		FROM generations
		WHERE run_id = ?
		ORDER BY generation
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []neuroevo.GenerationStats
	for rows.Next() {
		var st neuroevo.GenerationStats
		if err := rows.Scan(&st.Generation, &st.BestFitness, &st.MeanFitness, &st.TotalFitness,
			&st.AliveCount, &st.StuckCount, &st.Duration, &st.Reinitialized); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Runs(ctx context.Context) ([]string, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT run_id FROM generations
		GROUP BY run_id
		ORDER BY MIN(recorded_at), run_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		runs = append(runs, id)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			best_fitness REAL NOT NULL,
			mean_fitness REAL NOT NULL,
			total_fitness REAL NOT NULL,
			alive_count INTEGER NOT NULL,
			stuck_count INTEGER NOT NULL,
			duration REAL NOT NULL,
			reinitialized BOOLEAN NOT NULL,
			recorded_at TEXT NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
	`)
	return err
}
