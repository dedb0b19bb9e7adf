package match

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"fotoprotokoll/internal/hashing"
	"fotoprotokoll/internal/logging"
	"fotoprotokoll/internal/memo"
	"fotoprotokoll/internal/model"
	"fotoprotokoll/internal/retry"
)

// Embedder produces one vector per input text. *embedding.Client satisfies
// this.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float64, error)
	Model() string
}

// Options tunes the scoring. Weights must sum to 1.
type Options struct {
	ConfidenceThreshold float64
	TemporalWeight      float64
	SemanticWeight      float64
	MaxDecayMinutes     int
	MinNoteConfidence   float64
}

// Engine scores photo-session pairings and builds the content plan.
type Engine struct {
	opts     Options
	embedder Embedder
	memoizer *memo.Store
	policy   retry.Policy
	logger   *slog.Logger
}

// EngineOption customizes the engine.
type EngineOption func(*Engine)

// WithEmbedder enables embedding-based semantic scoring. Without one the
// engine scores text overlap directly.
func WithEmbedder(embedder Embedder) EngineOption {
	return func(e *Engine) { e.embedder = embedder }
}

// WithMemoizer reuses embedding vectors across runs, keyed by text digest.
func WithMemoizer(store *memo.Store) EngineOption {
	return func(e *Engine) { e.memoizer = store }
}

// WithRetryPolicy overrides the retry policy for embedding calls.
func WithRetryPolicy(policy retry.Policy) EngineOption {
	return func(e *Engine) { e.policy = policy }
}

// NewEngine constructs a matching engine.
func NewEngine(opts Options, logger *slog.Logger, engineOpts ...EngineOption) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	e := &Engine{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "match"),
	}
	for _, opt := range engineOpts {
		opt(e)
	}
	return e
}

// BuildPlan assigns every photo to its best-scoring session and every note
// to a session when the evidence is strong enough. Assignment is
// deterministic: score ties break toward the earlier session, then the lower
// session ID.
func (e *Engine) BuildPlan(ctx context.Context, manifest *model.ProjectManifest, enriched *model.EnrichedPhotoSet) (*model.ContentPlan, error) {
	if len(manifest.Sessions) == 0 {
		return nil, fmt.Errorf("build content plan: manifest has no sessions")
	}

	windows := sessionWindows(manifest.Sessions)
	timed := anyTimed(windows)

	semantic, err := e.semanticScorer(ctx, manifest, enriched)
	if err != nil {
		return nil, err
	}

	plan := &model.ContentPlan{}
	type assignment struct {
		photo   model.Photo
		session model.Session
		score   float64
	}
	assignments := make([]assignment, 0, len(manifest.Photos))

	for _, photo := range manifest.Photos {
		photoText := ""
		if record, ok := enriched.ByPhotoID(photo.ID); ok {
			photoText = record.SearchText()
		}
		captured := photo.BestTimestamp()
		hasTimestamp := !captured.IsZero()

		var best *assignment
		for _, session := range manifest.Sessions {
			t := temporalScore(captured, hasTimestamp, windows[session.ID], timed, e.opts.MaxDecayMinutes)
			s := semantic(photoText, session)
			combined := round4(e.opts.TemporalWeight*t + e.opts.SemanticWeight*s)

			plan.Candidates = append(plan.Candidates, model.MatchCandidate{
				PhotoID:   photo.ID,
				SessionID: session.ID,
				Temporal:  round4(t),
				Semantic:  round4(s),
				Combined:  combined,
			})

			candidate := assignment{photo: photo, session: session, score: combined}
			if best == nil || betterAssignment(candidate.session, combined, best.session, best.score, windows) {
				c := candidate
				best = &c
			}
		}
		assignments = append(assignments, *best)

		if best.score < e.opts.ConfidenceThreshold {
			e.logger.Debug("low-confidence assignment",
				logging.String(logging.FieldPhotoID, photo.ID),
				logging.String("session_id", best.session.ID),
				logging.Float64("confidence", best.score))
		}
	}

	sort.SliceStable(assignments, func(i, j int) bool {
		if assignments[i].session.Order != assignments[j].session.Order {
			return assignments[i].session.Order < assignments[j].session.Order
		}
		ti, tj := assignments[i].photo.BestTimestamp(), assignments[j].photo.BestTimestamp()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return assignments[i].photo.ID < assignments[j].photo.ID
	})

	for i, a := range assignments {
		plan.Items = append(plan.Items, model.ContentItem{
			ItemID:      fmt.Sprintf("item_%03d", i+1),
			PhotoID:     a.photo.ID,
			SessionID:   a.session.ID,
			Confidence:  a.score,
			NeedsReview: a.score < e.opts.ConfidenceThreshold,
		})
	}

	e.assignNotes(manifest, semantic, plan, windows)

	return plan, nil
}

// assignNotes places each text snippet with the session it scores best
// against, surfacing snippets whose best score stays below the note floor.
func (e *Engine) assignNotes(manifest *model.ProjectManifest, semantic semanticFunc, plan *model.ContentPlan, windows map[string]window) {
	for _, note := range manifest.TextSnippets {
		var bestSession model.Session
		bestScore := -1.0
		for _, session := range manifest.Sessions {
			score := round4(semantic(note.Content, session))
			if bestScore < 0 || betterAssignment(session, score, bestSession, bestScore, windows) {
				bestSession = session
				bestScore = score
			}
		}
		if bestScore < e.opts.MinNoteConfidence {
			plan.UnassignedNotes = append(plan.UnassignedNotes, model.UnassignedNote{
				Source:         note.Filename,
				Text:           note.Content,
				BestSessionID:  bestSession.ID,
				BestConfidence: bestScore,
			})
			continue
		}
		plan.Notes = append(plan.Notes, model.AssignedNote{
			Source:     note.Filename,
			Text:       note.Content,
			SessionID:  bestSession.ID,
			Confidence: bestScore,
		})
	}
}

// betterAssignment reports whether (session, score) beats the current best.
// Ties go to the session that starts earlier; untimed sessions sort last,
// and equal starts break on session ID.
func betterAssignment(session model.Session, score float64, bestSession model.Session, bestScore float64, windows map[string]window) bool {
	if score != bestScore {
		return score > bestScore
	}
	a, b := windows[session.ID], windows[bestSession.ID]
	startA, startB := a.start, b.start
	if !a.timed {
		startA = 24 * 60
	}
	if !b.timed {
		startB = 24 * 60
	}
	if startA != startB {
		return startA < startB
	}
	return session.ID < bestSession.ID
}

type semanticFunc func(photoText string, session model.Session) float64

// semanticScorer returns the scoring function for this run. With an embedder
// all texts are vectorized up front (reusing memoized vectors); without one,
// or when the embedding service fails outright, token overlap is used.
func (e *Engine) semanticScorer(ctx context.Context, manifest *model.ProjectManifest, enriched *model.EnrichedPhotoSet) (semanticFunc, error) {
	fallback := func(photoText string, session model.Session) float64 {
		return jaccardScore(photoText, session.Name)
	}
	if e.embedder == nil {
		return fallback, nil
	}

	texts := make([]string, 0, len(manifest.Sessions)+len(enriched.EnrichedPhotos)+len(manifest.TextSnippets))
	seen := make(map[string]struct{})
	add := func(text string) {
		if text == "" {
			return
		}
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		texts = append(texts, text)
	}
	for _, session := range manifest.Sessions {
		add(session.Name)
	}
	for _, photo := range enriched.EnrichedPhotos {
		add(photo.SearchText())
	}
	for _, note := range manifest.TextSnippets {
		add(note.Content)
	}

	vectors, err := e.embedAll(ctx, texts)
	if err != nil {
		e.logger.Warn("embedding service unavailable, scoring text overlap instead",
			logging.String(logging.FieldEventType, "embedding_fallback"),
			logging.Error(err))
		return fallback, nil
	}

	return func(photoText string, session model.Session) float64 {
		photoVec, okPhoto := vectors[photoText]
		sessionVec, okSession := vectors[session.Name]
		if !okPhoto || !okSession {
			return fallback(photoText, session)
		}
		return cosineScore(photoVec, sessionVec)
	}, nil
}

// embedAll vectorizes all texts, pulling previously memoized vectors from the
// memo store and persisting fresh ones.
func (e *Engine) embedAll(ctx context.Context, texts []string) (map[string][]float64, error) {
	vectors := make(map[string][]float64, len(texts))
	missing := make([]string, 0, len(texts))

	memoKey := func(text string) string {
		return "embedding:" + e.embedder.Model() + ":" + hashing.HashBytes([]byte(text))
	}

	if e.memoizer != nil {
		for _, text := range texts {
			payload, found, err := e.memoizer.Get(ctx, memoKey(text))
			if err != nil {
				return nil, err
			}
			if !found {
				missing = append(missing, text)
				continue
			}
			var vec []float64
			if err := json.Unmarshal(payload, &vec); err != nil {
				missing = append(missing, text)
				continue
			}
			vectors[text] = vec
		}
	} else {
		missing = texts
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	fresh, err := retry.Do(ctx, e.policy, "embed texts", func(ctx context.Context, _ int) ([][]float64, error) {
		return e.embedder.EmbedTexts(ctx, missing)
	})
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missing) {
		return nil, fmt.Errorf("embed texts: got %d vectors for %d texts", len(fresh), len(missing))
	}

	for i, text := range missing {
		vectors[text] = fresh[i]
		if e.memoizer != nil {
			payload, marshalErr := json.Marshal(fresh[i])
			if marshalErr != nil {
				continue
			}
			if putErr := e.memoizer.Put(ctx, memoKey(text), e.embedder.Model(), payload); putErr != nil {
				e.logger.Warn("failed to memoize embedding",
					logging.Error(putErr))
			}
		}
	}
	return vectors, nil
}

// Scores exposes the pairwise scoring for a single photo, used by the CLI to
// explain an assignment.
func (e *Engine) Scores(captured time.Time, hasTimestamp bool, photoText string, sessions []model.Session) []model.MatchCandidate {
	windows := sessionWindows(sessions)
	timed := anyTimed(windows)
	out := make([]model.MatchCandidate, 0, len(sessions))
	for _, session := range sessions {
		t := temporalScore(captured, hasTimestamp, windows[session.ID], timed, e.opts.MaxDecayMinutes)
		s := jaccardScore(photoText, session.Name)
		out = append(out, model.MatchCandidate{
			SessionID: session.ID,
			Temporal:  round4(t),
			Semantic:  round4(s),
			Combined:  round4(e.opts.TemporalWeight*t + e.opts.SemanticWeight*s),
		})
	}
	return out
}
