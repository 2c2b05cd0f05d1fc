package matcher

import (
	"math"
	"math/rand"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCosineSim(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"scaled", []float32{1, 1}, []float32{5, 5}, 1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cosineSim(tt.a, tt.b); !almostEqual(got, tt.want) {
				t.Errorf("cosineSim = %g, want %g", got, tt.want)
			}
		})
	}
}

func TestScoreAgainstSelfSimilarity(t *testing.T) {
	doc := [][]float32{{1, 0, 0}, {0, 1, 0}, {0.5, 0.5, 0}}
	if got := scoreAgainst(doc, doc); !almostEqual(got, 1) {
		t.Errorf("self-similarity = %g, want 1", got)
	}
}

func TestScoreAgainstMaxPerRowMean(t *testing.T) {
	// Row 1 best-matches job chunk 0 (cos 1), row 2 best-matches job chunk 1
	// (cos 4/5 via the 3-4-5 vector, exactly representable in float32).
	cand := [][]float32{{1, 0}, {3, 4}}
	job := [][]float32{{1, 0}, {0, 1}}
	want := (1.0 + 4.0/5.0) / 2
	if got := scoreAgainst(cand, job); !almostEqual(got, want) {
		t.Errorf("scoreAgainst = %g, want %g", got, want)
	}
}

func TestScoreAgainstOrderInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	randVecs := func(n, d int) [][]float32 {
		out := make([][]float32, n)
		for i := range out {
			v := make([]float32, d)
			for j := range v {
				v[j] = rng.Float32()*2 - 1
			}
			out[i] = v
		}
		return out
	}

	cand := randVecs(5, 8)
	job := randVecs(4, 8)
	base := scoreAgainst(cand, job)

	candRev := [][]float32{cand[4], cand[2], cand[0], cand[3], cand[1]}
	jobRev := [][]float32{job[3], job[1], job[2], job[0]}
	if got := scoreAgainst(candRev, jobRev); !almostEqual(got, base) {
		t.Errorf("score changed under chunk reordering: %g vs %g", got, base)
	}
}

func TestScoreAgainstBounded(t *testing.T) {
	cand := [][]float32{{1, 2}, {-3, 4}, {0.1, -0.2}}
	job := [][]float32{{-1, -2}, {5, 6}}
	got := scoreAgainst(cand, job)
	if got < -1 || got > 1 {
		t.Errorf("score %g outside [-1, 1]", got)
	}
}

func TestScoreAgainstIrrelevantChunksNotPenalizedPerRow(t *testing.T) {
	// A candidate chunk unrelated to job chunk 1 still scores via its best
	// match, job chunk 0.
	cand := [][]float32{{1, 0}}
	job := [][]float32{{1, 0}, {0, 1}}
	if got := scoreAgainst(cand, job); !almostEqual(got, 1) {
		t.Errorf("max-per-row should pick the best job aspect, got %g", got)
	}
}

func TestCentroid(t *testing.T) {
	vecs := [][]float32{{1, 3}, {3, 5}}
	got := centroid(vecs)
	if got[0] != 2 || got[1] != 4 {
		t.Errorf("centroid = %v, want [2 4]", got)
	}
	if centroid(nil) != nil {
		t.Error("centroid of no vectors should be nil")
	}
}
