package matcher

import "math"

// cosineSim returns the cosine similarity of two vectors, 0 if either has
// zero magnitude.
func cosineSim(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// scoreAgainst aggregates chunk-level similarities into one document score.
// For every candidate chunk it takes the best-matching job chunk, then
// averages those maxima: a candidate is not penalized for chunks irrelevant
// to any single job aspect, and no single lucky chunk dominates the score.
// The result stays within [-1, 1]. Both inputs must be non-empty.
func scoreAgainst(cand, job [][]float32) float64 {
	var sum float64
	for _, cv := range cand {
		best := math.Inf(-1)
		for _, jv := range job {
			if s := cosineSim(cv, jv); s > best {
				best = s
			}
		}
		sum += best
	}
	return sum / float64(len(cand))
}

// centroid returns the arithmetic mean of the given vectors. Used as the
// document-level vector persisted for similar-candidate lookups.
func centroid(vecs [][]float32) []float32 {
	if len(vecs) == 0 {
		return nil
	}
	out := make([]float32, len(vecs[0]))
	for _, v := range vecs {
		for i := range v {
			out[i] += v[i]
		}
	}
	n := float32(len(vecs))
	for i := range out {
		out[i] /= n
	}
	return out
}
