package textutil

import (
	"math"
	"testing"
)

func TestTokenize(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []string
	}{
		{"simple", "Roadmap Planung", []string{"roadmap", "planung"}},
		{"punctuation", "Ziele: Q3, Q4!", []string{"ziele", "q3", "q4"}},
		{"umlauts", "Begrüßung im März", []string{"begrüßung", "im", "märz"}},
		{"short tokens dropped", "a b ab", []string{"ab"}},
		{"empty", "   ", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Tokenize(tc.text)
			if len(got) != len(tc.want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tc.text, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("Tokenize(%q) = %v, want %v", tc.text, got, tc.want)
				}
			}
		})
	}
}

func TestJaccardSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "roadmap planung", "roadmap planung", 1},
		{"half overlap", "roadmap ziele quartal", "roadmap ziele planung", 0.5},
		{"disjoint", "budget review", "pause kaffee", 0},
		{"empty side", "", "roadmap", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := JaccardSimilarity(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("JaccardSimilarity(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2}, []float64{1, 2}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite clamps to zero", []float64{1, 0}, []float64{-1, 0}, 0},
		{"mismatched lengths", []float64{1, 2}, []float64{1}, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 2}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CosineSimilarity(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("CosineSimilarity = %v, want %v", got, tc.want)
			}
		})
	}
}
