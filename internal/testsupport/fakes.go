package testsupport

import (
	"context"
	"sync/atomic"

	"fotoprotokoll/internal/model"
)

// FakeAnalyzer returns canned photo analyses without any network access.
type FakeAnalyzer struct {
	// Analysis is returned for every photo when ByHash has no entry.
	Analysis model.PhotoAnalysis
	// ByHash maps content digests to specific analyses.
	ByHash map[string]model.PhotoAnalysis
	// Err, when set, fails every call.
	Err error

	calls atomic.Int32
}

// AnalyzePhoto implements the vision service contract.
func (f *FakeAnalyzer) AnalyzePhoto(_ context.Context, _ []byte, _ string) (model.PhotoAnalysis, error) {
	f.calls.Add(1)
	if f.Err != nil {
		return model.PhotoAnalysis{}, f.Err
	}
	analysis := f.Analysis
	if analysis.SceneType == "" {
		analysis.SceneType = model.SceneFlipchart
	}
	return analysis, nil
}

// Model identifies the fake in memo keys.
func (f *FakeAnalyzer) Model() string { return "fake-vision" }

// Calls reports how many analyses were requested.
func (f *FakeAnalyzer) Calls() int { return int(f.calls.Load()) }

// FakeEmbedder returns fixed vectors keyed by exact text.
type FakeEmbedder struct {
	Vectors map[string][]float64
	Err     error

	calls atomic.Int32
}

// EmbedTexts implements the embedding service contract. Texts without an
// entry in Vectors get a default vector.
func (f *FakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float64, error) {
	f.calls.Add(1)
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if vec, ok := f.Vectors[text]; ok {
			out[i] = vec
			continue
		}
		out[i] = []float64{1, 0}
	}
	return out, nil
}

// Model identifies the fake in memo keys.
func (f *FakeEmbedder) Model() string { return "fake-embed" }

// Calls reports how many embedding batches were requested.
func (f *FakeEmbedder) Calls() int { return int(f.calls.Load()) }
