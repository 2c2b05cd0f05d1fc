package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/seanblong/talentmatch/pkg/models"
)

// ErrRunNotFound is returned when a shortlist run id is unknown.
var ErrRunNotFound = errors.New("shortlist run not found")

// Store provides methods to interact with the database.
type Store struct {
	pool *pgxpool.Pool
}

// ShortlistStore defines the methods that the Store must implement.
type ShortlistStore interface {
	Migrate(ctx context.Context, dim int) error
	SaveRun(ctx context.Context, job models.JobSpec, records []models.ScoreRecord, centroids [][]float32) (string, error)
	GetRun(ctx context.Context, runID string) (models.ShortlistRun, error)
	ListRuns(ctx context.Context, limit int) ([]models.ShortlistRun, error)
	SimilarCandidates(ctx context.Context, vec []float32, k int) ([]models.SimilarCandidate, error)
}

// New creates a new Store instance connected to the given database URL.
func New(ctx context.Context, url string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{pool: p}, nil
}

func (s *Store) Close() { s.pool.Close() }

// Migrate applies necessary database migrations and schema setup.
func (s *Store) Migrate(ctx context.Context, dim int) error {
	q := `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS shortlist_runs (
  id              TEXT PRIMARY KEY,
  job_field       TEXT NOT NULL,
  job_description TEXT NOT NULL DEFAULT '',
  created_at      TIMESTAMP WITH TIME ZONE DEFAULT now()
);

CREATE TABLE IF NOT EXISTS shortlist_entries (
  run_id    TEXT NOT NULL REFERENCES shortlist_runs(id) ON DELETE CASCADE,
  rank      INT NOT NULL,
  full_name TEXT NOT NULL,
  email     TEXT NOT NULL,
  score     DOUBLE PRECISION NOT NULL,
  centroid  vector(%d),
  PRIMARY KEY (run_id, rank)
);

CREATE INDEX IF NOT EXISTS shortlist_entries_email_idx
  ON shortlist_entries (email);

CREATE INDEX IF NOT EXISTS shortlist_entries_centroid_idx
  ON shortlist_entries USING ivfflat (centroid vector_cosine_ops) WITH (lists = 100);
`
	_, err := s.pool.Exec(ctx, fmt.Sprintf(q, dim))
	return err
}

// SaveRun writes a run header and its ranked entries in one transaction.
// Records are stored in the order given; rank is the 1-based position.
func (s *Store) SaveRun(
	ctx context.Context,
	job models.JobSpec,
	records []models.ScoreRecord,
	centroids [][]float32,
) (string, error) {
	if len(centroids) != 0 && len(centroids) != len(records) {
		return "", fmt.Errorf("got %d centroids for %d records", len(centroids), len(records))
	}

	runID, err := newRunID()
	if err != nil {
		return "", err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO shortlist_runs (id, job_field, job_description, created_at)
		 VALUES ($1, $2, $3, now())`,
		runID, job.Field, job.Description,
	)
	if err != nil {
		return "", err
	}

	const q = `
		INSERT INTO shortlist_entries (run_id, rank, full_name, email, score, centroid)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for i, rec := range records {
		var cv any
		if len(centroids) > i && centroids[i] != nil {
			cv = pgvector.NewVector(centroids[i])
		} else {
			cv = (*pgvector.Vector)(nil)
		}
		if _, err := tx.Exec(ctx, q, runID, i+1, rec.FullName, rec.Email, rec.Score, cv); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return runID, nil
}

// GetRun returns a run header with its entries in rank order.
func (s *Store) GetRun(ctx context.Context, runID string) (models.ShortlistRun, error) {
	var run models.ShortlistRun
	err := s.pool.QueryRow(ctx,
		`SELECT id, job_field, job_description, created_at
		 FROM shortlist_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.JobField, &run.JobDescription, &run.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ShortlistRun{}, ErrRunNotFound
		}
		return models.ShortlistRun{}, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT full_name, email, score
		 FROM shortlist_entries WHERE run_id = $1 ORDER BY rank`,
		runID,
	)
	if err != nil {
		return models.ShortlistRun{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.ScoreRecord
		if err := rows.Scan(&rec.FullName, &rec.Email, &rec.Score); err != nil {
			return models.ShortlistRun{}, err
		}
		run.Entries = append(run.Entries, rec)
	}
	return run, rows.Err()
}

// ListRuns returns the most recent run headers, newest first, without entries.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]models.ShortlistRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, job_field, job_description, created_at
		 FROM shortlist_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.ShortlistRun
	for rows.Next() {
		var run models.ShortlistRun
		if err := rows.Scan(&run.ID, &run.JobField, &run.JobDescription, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SimilarCandidates finds stored entries closest to the given vector across
// all runs, by cosine similarity of the candidate centroid.
func (s *Store) SimilarCandidates(ctx context.Context, vec []float32, k int) ([]models.SimilarCandidate, error) {
	if k <= 0 {
		k = 10
	}
	rows, err := s.pool.Query(ctx, `
		SELECT run_id, full_name, email, score,
		       LEAST(GREATEST(1.0 - (centroid <=> $1), 0), 1) AS similarity
		FROM shortlist_entries
		WHERE centroid IS NOT NULL
		ORDER BY centroid <=> $1
		LIMIT $2`,
		pgvector.NewVector(vec), k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SimilarCandidate
	for rows.Next() {
		var c models.SimilarCandidate
		if err := rows.Scan(&c.RunID, &c.FullName, &c.Email, &c.Score, &c.Similarity); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Ping checks the database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

func newRunID() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "run-" + hex.EncodeToString(b), nil
}
