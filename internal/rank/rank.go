// Package rank scores stored content against a question by cosine similarity
// over sparse n-gram count vectors.
//
// Scoring is restricted to the question's dimensions: only n-grams that occur
// in the question contribute, so candidate vectors are fetched pre-filtered to
// that id set. Selection runs in two stages, first over whole objects, then
// over the sentences of the winning objects.
package rank

import (
	"math"
	"sort"
)

// Vector is a sparse n-gram count vector keyed by n-gram id.
type Vector map[int64]int

// Scored pairs a candidate id with its similarity to the question.
type Scored struct {
	ID         int64
	Similarity float64
}

// Cosine returns the cosine similarity between the question vector and a
// candidate vector over the question's dimensions. It returns 0 when either
// restricted vector has zero norm.
func Cosine(question, candidate Vector) float64 {
	var dot, qNorm, cNorm float64
	for id, qCount := range question {
		q := float64(qCount)
		c := float64(candidate[id])
		dot += q * c
		qNorm += q * q
		cNorm += c * c
	}
	if qNorm == 0 || cNorm == 0 {
		return 0
	}
	return dot / (math.Sqrt(qNorm) * math.Sqrt(cNorm))
}

// TopK scores every candidate against the question and returns the k best in
// descending similarity. Ties keep the candidates' given order, so callers
// that pass candidates in insertion order get deterministic results. k <= 0
// returns nil; fewer candidates than k returns them all.
func TopK(question Vector, candidateIDs []int64, candidates map[int64]Vector, k int) []Scored {
	if k <= 0 || len(candidateIDs) == 0 {
		return nil
	}

	scored := make([]Scored, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		scored = append(scored, Scored{ID: id, Similarity: Cosine(question, candidates[id])})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
