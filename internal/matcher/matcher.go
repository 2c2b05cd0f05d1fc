package matcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/seanblong/talentmatch/pkg/models"
)

// Embedder is the slice of the AI client the matcher needs.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dim() int
}

// Sink receives a finished run for durable storage beyond the JSON artifact.
type Sink interface {
	SaveRun(ctx context.Context, job models.JobSpec, records []models.ScoreRecord, centroids [][]float32) (string, error)
}

// Params are the matching knobs, validated once at construction.
type Params struct {
	ChunkSize    int
	Overlap      int
	Threshold    float64
	Workers      int
	EmbedTimeout time.Duration
}

// Matcher screens a batch of profiles against one job and produces the
// ranked, thresholded shortlist. It holds no state between runs.
type Matcher struct {
	Client Embedder
	Store  Sink // optional
	params Params
}

// Skip records one candidate that produced no ScoreRecord and why. Failing
// the threshold is not a skip.
type Skip struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// Report is the outcome of one matching run.
type Report struct {
	Qualified []models.ScoreRecord `json:"qualified"`
	Skipped   []Skip               `json:"skipped,omitempty"`
	RunID     string               `json:"run_id,omitempty"`
}

// New creates a Matcher. Params violating the chunking preconditions are a
// configuration error and rejected here, before any batch work.
func New(client Embedder, p Params) (*Matcher, error) {
	if client == nil {
		return nil, errors.New("embedding client is required")
	}
	if p.ChunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be >= 1, got %d", p.ChunkSize)
	}
	if p.Overlap < 0 || p.Overlap >= p.ChunkSize {
		return nil, fmt.Errorf("overlap must satisfy 0 <= overlap < chunk size, got %d", p.Overlap)
	}
	if p.Threshold < -1 || p.Threshold > 1 {
		return nil, fmt.Errorf("threshold must be within [-1, 1], got %g", p.Threshold)
	}
	if p.Workers < 1 {
		p.Workers = 1
	}
	if p.EmbedTimeout <= 0 {
		p.EmbedTimeout = 20 * time.Second
	}
	return &Matcher{Client: client, params: p}, nil
}

// outcome is the single-writer result slot for one candidate index.
type outcome struct {
	scored   bool
	score    float64
	centroid []float32
	skip     *Skip
}

// Match runs the batch: the job document is chunked and embedded once, each
// candidate is chunked, embedded and scored independently on a bounded worker
// pool, and the thresholded result is ranked and persisted to outputPath.
// The ranked list is returned even when persistence fails; the persistence
// error is surfaced alongside it.
func (m *Matcher) Match(ctx context.Context, profiles []models.Profile, job models.JobSpec, outputPath string) (*Report, error) {
	jobText := strings.TrimSpace(strings.TrimSpace(job.Field) + " " + strings.TrimSpace(job.Description))
	if jobText == "" {
		return nil, errors.New("job spec must contain a field or a description")
	}

	jobChunks := Chunk(jobText, m.params.ChunkSize, m.params.Overlap)
	jobVecs, err := m.embed(ctx, jobChunks)
	if err != nil {
		return nil, fmt.Errorf("embed job description: %w", err)
	}

	log.Info().Int("profiles", len(profiles)).Int("job_chunks", len(jobChunks)).
		Int("workers", m.params.Workers).Msg("starting matching batch")

	slots := make([]outcome, len(profiles))
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < m.params.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				slots[i] = m.processProfile(ctx, profiles[i], jobVecs)
			}
		}()
	}

	for i := range profiles {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	type qualified struct {
		rec      models.ScoreRecord
		centroid []float32
	}
	var picked []qualified
	report := &Report{Qualified: []models.ScoreRecord{}}
	for i, o := range slots {
		if o.skip != nil {
			report.Skipped = append(report.Skipped, *o.skip)
			continue
		}
		if !o.scored || o.score < m.params.Threshold {
			continue
		}
		picked = append(picked, qualified{
			rec: models.ScoreRecord{
				FullName: profiles[i].Name,
				Email:    profiles[i].Contact.Email,
				Score:    o.score,
			},
			centroid: o.centroid,
		})
	}

	// Stable sort keeps first-seen order for equal full-precision scores.
	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].rec.Score > picked[j].rec.Score
	})
	centroids := make([][]float32, len(picked))
	for i, q := range picked {
		report.Qualified = append(report.Qualified, q.rec)
		centroids[i] = q.centroid
	}

	if len(report.Skipped) > 0 {
		log.Warn().Int("skipped", len(report.Skipped)).Msg("some candidates were not scored")
	}
	log.Info().Int("qualified", len(report.Qualified)).Msg("matching batch finished")

	// The file artifact and the store are independent sinks: a failure in one
	// must not stop the other from keeping the run.
	var persistErr error
	if outputPath != "" {
		if err := writeArtifact(outputPath, report.Qualified); err != nil {
			persistErr = fmt.Errorf("persist shortlist: %w", err)
			log.Error().Err(err).Str("path", outputPath).Msg("failed to write shortlist artifact")
		}
	}
	if m.Store != nil {
		runID, err := m.Store.SaveRun(ctx, job, report.Qualified, centroids)
		if err != nil {
			persistErr = errors.Join(persistErr, fmt.Errorf("save run: %w", err))
			log.Error().Err(err).Msg("failed to save run to store")
		} else {
			report.RunID = runID
		}
	}

	return report, persistErr
}

// processProfile is the per-candidate unit of work. Errors here are isolated:
// they mark this candidate as skipped and never abort the batch.
func (m *Matcher) processProfile(ctx context.Context, p models.Profile, jobVecs [][]float32) outcome {
	doc := BuildDocument(p)
	if doc == "" {
		log.Warn().Str("name", p.Name).Msg("profile has no scorable text, skipping")
		return outcome{skip: &Skip{Name: p.Name, Email: p.Contact.Email, Reason: "empty document"}}
	}

	chunks := Chunk(doc, m.params.ChunkSize, m.params.Overlap)
	vecs, err := m.embed(ctx, chunks)
	if err != nil {
		log.Warn().Err(err).Str("name", p.Name).Msg("embedding failed, skipping candidate")
		return outcome{skip: &Skip{Name: p.Name, Email: p.Contact.Email, Reason: "provider error: " + err.Error()}}
	}

	return outcome{
		scored:   true,
		score:    scoreAgainst(vecs, jobVecs),
		centroid: centroid(vecs),
	}
}

func (m *Matcher) embed(ctx context.Context, chunks []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, m.params.EmbedTimeout)
	defer cancel()

	vecs, err := m.Client.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(chunks) {
		return nil, fmt.Errorf("provider returned %d vectors for %d chunks", len(vecs), len(chunks))
	}
	return vecs, nil
}

// writeArtifact serializes the ranked list, rounding scores to 3 decimals
// only at this boundary. An empty shortlist is written as [], not omitted,
// and any previous artifact at path is fully replaced.
func writeArtifact(path string, records []models.ScoreRecord) error {
	out := make([]models.ScoreRecord, len(records))
	for i, r := range records {
		r.Score = math.Round(r.Score*1000) / 1000
		out[i] = r
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
