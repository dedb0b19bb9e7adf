package match

import "testing"

func TestJaccardScore(t *testing.T) {
	if got := jaccardScore("Roadmap Ziele", "Roadmap Ziele"); got != 1.0 {
		t.Fatalf("identical texts = %v, want 1.0", got)
	}
	// Two of three union tokens shared.
	if got := jaccardScore("Roadmap Ziele", "Roadmap Ziele Quartal"); got < 0.6 || got > 0.7 {
		t.Fatalf("partial overlap = %v, want ~0.667", got)
	}
	if got := jaccardScore("Roadmap", "Mittagspause"); got != jaccardFloor {
		t.Fatalf("disjoint texts = %v, want floor %v", got, jaccardFloor)
	}
	if got := jaccardScore("", "Roadmap"); got != jaccardFloor {
		t.Fatalf("empty text = %v, want floor %v", got, jaccardFloor)
	}
}

func TestCosineScore(t *testing.T) {
	if got := cosineScore([]float64{1, 0}, []float64{1, 0}); got != 1.0 {
		t.Fatalf("identical vectors = %v, want 1.0", got)
	}
	if got := cosineScore([]float64{1, 0}, []float64{0, 1}); got != 0.0 {
		t.Fatalf("orthogonal vectors = %v, want 0.0", got)
	}
	// Negative similarity clamps to zero.
	if got := cosineScore([]float64{1, 0}, []float64{-1, 0}); got != 0.0 {
		t.Fatalf("opposite vectors = %v, want 0.0", got)
	}
	// Magnitude does not matter.
	if got := cosineScore([]float64{2, 0}, []float64{5, 0}); got != 1.0 {
		t.Fatalf("scaled vectors = %v, want 1.0", got)
	}
	if got := cosineScore(nil, []float64{1}); got != 0.0 {
		t.Fatalf("mismatched vectors = %v, want 0.0", got)
	}
}

func TestRound4(t *testing.T) {
	if got := round4(0.123456); got != 0.1235 {
		t.Fatalf("round4 = %v, want 0.1235", got)
	}
	if got := round4(0.8); got != 0.8 {
		t.Fatalf("round4 = %v, want 0.8", got)
	}
}
