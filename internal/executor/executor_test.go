package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"fotoprotokoll/internal/hashing"
	"fotoprotokoll/internal/logging"
	"fotoprotokoll/internal/stagecache"
)

// fakeStage writes a marker artifact and counts executions. Its input digest
// is controlled through the params map.
type fakeStage struct {
	id       stagecache.StageID
	root     string
	params   map[string]any
	execs    int
	failWith error
}

func (f *fakeStage) ID() stagecache.StageID { return f.id }

func (f *fakeStage) Artifact() string { return ".cache/" + f.id.Name() + ".json" }

func (f *fakeStage) Inputs(context.Context) (hashing.InputSet, error) {
	return hashing.InputSet{Root: f.root, Params: f.params}, nil
}

func (f *fakeStage) Execute(context.Context) error {
	f.execs++
	if f.failWith != nil {
		return f.failWith
	}
	path := filepath.Join(f.root, f.Artifact())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(`{}`), 0o644)
}

type fixture struct {
	root   string
	runner *Runner
	store  *stagecache.Store
	stages []*fakeStage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	store := stagecache.NewStore(filepath.Join(root, ".cache", "manifest.json"), logging.NewNop())
	runner := NewRunner(root, filepath.Join(root, ".cache", "run.lock"), store, logging.NewNop())
	stages := []*fakeStage{
		{id: stagecache.StageIngest, root: root, params: map[string]any{"v": 1}},
		{id: stagecache.StageProcess, root: root, params: map[string]any{"v": 1}},
		{id: stagecache.StageEnrich, root: root, params: map[string]any{"v": 1}},
	}
	return &fixture{root: root, runner: runner, store: store, stages: stages}
}

func (f *fixture) asStages() []Stage {
	out := make([]Stage, len(f.stages))
	for i, s := range f.stages {
		out[i] = s
	}
	return out
}

func statuses(results []StageResult) []Status {
	out := make([]Status, len(results))
	for i, r := range results {
		out[i] = r.Status
	}
	return out
}

func wantStatuses(t *testing.T, results []StageResult, want ...Status) {
	t.Helper()
	got := statuses(results)
	if len(got) != len(want) {
		t.Fatalf("statuses = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("statuses = %v, want %v", got, want)
		}
	}
}

func TestRunnerExecutesFreshPipeline(t *testing.T) {
	f := newFixture(t)
	results, err := f.runner.Run(context.Background(), f.asStages(), RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	wantStatuses(t, results, StatusDone, StatusDone, StatusDone)
	for _, s := range f.stages {
		if s.execs != 1 {
			t.Fatalf("stage %s executed %d times, want 1", s.id, s.execs)
		}
		if _, found := f.store.Get(s.id); !found {
			t.Fatalf("stage %s has no manifest entry", s.id)
		}
	}
}

func TestRunnerSkipsUnchangedStages(t *testing.T) {
	f := newFixture(t)
	if _, err := f.runner.Run(context.Background(), f.asStages(), RunOptions{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	results, err := f.runner.Run(context.Background(), f.asStages(), RunOptions{})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	wantStatuses(t, results, StatusSkipped, StatusSkipped, StatusSkipped)
	for _, s := range f.stages {
		if s.execs != 1 {
			t.Fatalf("stage %s executed %d times across two runs, want 1", s.id, s.execs)
		}
	}
}

func TestRunnerChangedInputCascades(t *testing.T) {
	f := newFixture(t)
	if _, err := f.runner.Run(context.Background(), f.asStages(), RunOptions{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	// Change the middle stage's inputs: it and everything after it re-run,
	// the stage before it stays cached.
	f.stages[1].params["v"] = 2
	results, err := f.runner.Run(context.Background(), f.asStages(), RunOptions{})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	wantStatuses(t, results, StatusSkipped, StatusDone, StatusDone)
	if f.stages[0].execs != 1 || f.stages[1].execs != 2 || f.stages[2].execs != 2 {
		t.Fatalf("exec counts = %d/%d/%d, want 1/2/2",
			f.stages[0].execs, f.stages[1].execs, f.stages[2].execs)
	}
}

func TestRunnerFailureHaltsAndResumes(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("vision service exploded")
	f.stages[1].failWith = boom

	results, err := f.runner.Run(context.Background(), f.asStages(), RunOptions{})
	if !errors.Is(err, boom) {
		t.Fatalf("Run err = %v, want wrapped failure", err)
	}
	wantStatuses(t, results, StatusDone, StatusFailed)

	// The completed stage keeps its entry; the failed one records nothing.
	if _, found := f.store.Get(stagecache.StageIngest); !found {
		t.Fatal("completed stage lost its manifest entry")
	}
	if _, found := f.store.Get(stagecache.StageProcess); found {
		t.Fatal("failed stage recorded a manifest entry")
	}

	// Fixing the failure resumes at the failed stage.
	f.stages[1].failWith = nil
	results, err = f.runner.Run(context.Background(), f.asStages(), RunOptions{})
	if err != nil {
		t.Fatalf("resume Run: %v", err)
	}
	wantStatuses(t, results, StatusSkipped, StatusDone, StatusDone)
	if f.stages[0].execs != 1 {
		t.Fatalf("first stage executed %d times, want 1", f.stages[0].execs)
	}
}

func TestRunnerFromStageForcesRerun(t *testing.T) {
	f := newFixture(t)
	if _, err := f.runner.Run(context.Background(), f.asStages(), RunOptions{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	from := stagecache.StageProcess
	results, err := f.runner.Run(context.Background(), f.asStages(), RunOptions{FromStage: &from})
	if err != nil {
		t.Fatalf("forced Run: %v", err)
	}
	wantStatuses(t, results, StatusSkipped, StatusDone, StatusDone)
}

func TestRunnerCachedOnly(t *testing.T) {
	f := newFixture(t)

	// Stale pipeline: cached-only must refuse to execute.
	_, err := f.runner.Run(context.Background(), f.asStages(), RunOptions{CachedOnly: true})
	if err == nil {
		t.Fatal("cached-only run executed a stale stage")
	}
	if f.stages[0].execs != 0 {
		t.Fatal("cached-only run executed a stage")
	}

	// Fresh pipeline: cached-only passes without executing anything.
	if _, err := f.runner.Run(context.Background(), f.asStages(), RunOptions{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	results, err := f.runner.Run(context.Background(), f.asStages(), RunOptions{CachedOnly: true})
	if err != nil {
		t.Fatalf("cached-only Run on fresh pipeline: %v", err)
	}
	wantStatuses(t, results, StatusSkipped, StatusSkipped, StatusSkipped)
}

func TestRunnerRerunsWhenArtifactMissing(t *testing.T) {
	f := newFixture(t)
	if _, err := f.runner.Run(context.Background(), f.asStages(), RunOptions{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	if err := os.Remove(filepath.Join(f.root, f.stages[2].Artifact())); err != nil {
		t.Fatalf("remove artifact: %v", err)
	}
	results, err := f.runner.Run(context.Background(), f.asStages(), RunOptions{})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	wantStatuses(t, results, StatusSkipped, StatusSkipped, StatusDone)
}

func TestRunnerRefusesConcurrentRun(t *testing.T) {
	f := newFixture(t)
	lockPath := filepath.Join(f.root, ".cache", "run.lock")
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	held := flock.New(lockPath)
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("pre-acquire lock: locked=%v err=%v", locked, err)
	}
	defer held.Unlock()

	_, err = f.runner.Run(context.Background(), f.asStages(), RunOptions{})
	if err == nil {
		t.Fatal("Run proceeded despite held project lock")
	}
}
