// Package scoring turns per-frame box sets into the leaderboard metric: best
// match IOU per box in both directions, accumulated over the dataset and
// combined into one bidirectional average.
package scoring

import (
	"github.com/banshee-data/bev-grader/internal/bev"
	"gonum.org/v1/gonum/floats"
)

// IOUMatrix returns the dense |queries| x |candidates| IOU matrix.
func IOUMatrix(queries, candidates []bev.OrientedBox) [][]float64 {
	m := make([][]float64, len(queries))
	for i, q := range queries {
		row := make([]float64, len(candidates))
		for j, c := range candidates {
			row[j] = bev.IOU(q, c)
		}
		m[i] = row
	}
	return m
}

// MatchBest returns, for each query, the highest IOU against any candidate.
//
// This is deliberately not a one-to-one assignment: several queries may take
// their best score from the same candidate. With no candidates every query
// scores 0; with no queries the result is empty. The output is in query order.
func MatchBest(queries, candidates []bev.OrientedBox) []float64 {
	scores := make([]float64, len(queries))
	if len(candidates) == 0 {
		return scores
	}
	for i, row := range IOUMatrix(queries, candidates) {
		scores[i] = floats.Max(row)
	}
	return scores
}
