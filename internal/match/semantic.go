package match

import (
	"math"

	"fotoprotokoll/internal/textutil"
)

// jaccardFloor keeps token-overlap scores from zeroing out a pairing: absent
// text evidence should weaken a match, not veto it.
const jaccardFloor = 0.1

// jaccardScore computes token-set overlap between two texts, floored so weak
// evidence never fully vetoes a pairing.
func jaccardScore(a, b string) float64 {
	score := textutil.JaccardSimilarity(a, b)
	if score < jaccardFloor {
		return jaccardFloor
	}
	return score
}

// cosineScore computes the cosine similarity of two embedding vectors,
// clamped to [0,1].
func cosineScore(a, b []float64) float64 {
	return textutil.CosineSimilarity(a, b)
}

// round4 rounds a score to four decimal places for stable serialization.
func round4(value float64) float64 {
	return math.Round(value*10000) / 10000
}
