package search

import "screening-onboarding-be/pkg/rag/index"

// MMR orders candidates by maximal marginal relevance against query and
// returns up to k candidate indices in selection order. Each round picks the
// candidate maximising
//
//	lambda*sim(query, c) - (1-lambda)*max(sim(c, s) for s already selected)
//
// and ties go to the lower index. With lambda == 1 the result is exactly
// the stable similarity ranking.
func MMR(query []float32, candidates [][]float32, k int, lambda float64) []int {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	relevance := make([]float64, len(candidates))
	redundancy := make([]float64, len(candidates))
	taken := make([]bool, len(candidates))
	for i, c := range candidates {
		relevance[i] = index.Cosine(query, c)
	}

	selected := make([]int, 0, k)
	for len(selected) < k {
		best := -1
		var bestScore float64
		for i := range candidates {
			if taken[i] {
				continue
			}
			score := lambda * relevance[i]
			if len(selected) > 0 && lambda != 1 {
				score -= (1 - lambda) * redundancy[i]
			}
			if best == -1 || score > bestScore {
				best, bestScore = i, score
			}
		}

		taken[best] = true
		selected = append(selected, best)
		for i, c := range candidates {
			if taken[i] {
				continue
			}
			if sim := index.Cosine(c, candidates[best]); len(selected) == 1 || sim > redundancy[i] {
				redundancy[i] = sim
			}
		}
	}
	return selected
}
