package textutil

import "math"

// JaccardSimilarity computes token-set overlap between two texts. Returns 0
// when either text has no tokens.
func JaccardSimilarity(a, b string) float64 {
	tokensA := TokenSet(a)
	tokensB := TokenSet(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}
	intersection := 0
	for token := range tokensA {
		if _, ok := tokensB[token]; ok {
			intersection++
		}
	}
	union := len(tokensA) + len(tokensB) - intersection
	return float64(intersection) / float64(union)
}

// CosineSimilarity computes the cosine similarity of two vectors, clamped to
// [0,1]. Vectors are not assumed to be pre-normalized. Returns 0 for empty
// or mismatched vectors.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
