package executor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"fotoprotokoll/internal/hashing"
	"fotoprotokoll/internal/logging"
	"fotoprotokoll/internal/services"
	"fotoprotokoll/internal/stagecache"
)

// Stage is one unit of pipeline work. Inputs describes everything the
// stage's output depends on; Execute must write the artifact at Artifact
// (relative to the project directory).
type Stage interface {
	ID() stagecache.StageID
	Artifact() string
	Inputs(ctx context.Context) (hashing.InputSet, error)
	Execute(ctx context.Context) error
}

// Status describes the outcome of one stage within a run.
type Status string

const (
	StatusPending Status = "pending"
	StatusSkipped Status = "skipped"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// StageResult records what happened to one stage during a run.
type StageResult struct {
	Stage     stagecache.StageID
	Status    Status
	InputHash string
	Duration  time.Duration
	Err       error
}

// RunOptions controls a single pipeline run.
type RunOptions struct {
	// FromStage forces this stage and everything after it to re-run even
	// when their input digests are unchanged.
	FromStage *stagecache.StageID

	// CachedOnly fails instead of executing any stage: useful for verifying
	// a project is fully up to date.
	CachedOnly bool
}

// Runner executes stages against a cache manifest.
type Runner struct {
	projectDir string
	lockPath   string
	store      *stagecache.Store
	logger     *slog.Logger
}

// NewRunner constructs a runner for one project.
func NewRunner(projectDir, lockPath string, store *stagecache.Store, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		projectDir: projectDir,
		lockPath:   lockPath,
		store:      store,
		logger:     logging.NewComponentLogger(logger, "executor"),
	}
}

// Run executes the stages in order. It stops at the first failure and
// returns the per-stage results alongside the error; already-completed
// stages keep their manifest entries, so the next run resumes at the failed
// stage.
func (r *Runner) Run(ctx context.Context, stages []Stage, opts RunOptions) ([]StageResult, error) {
	unlock, err := r.acquireLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	runID := uuid.NewString()
	ctx = services.WithRequestID(ctx, runID)
	logger := r.logger.With(logging.String(logging.FieldCorrelationID, runID))

	if opts.FromStage != nil {
		if err := r.store.InvalidateFrom(*opts.FromStage); err != nil {
			return nil, fmt.Errorf("invalidate from stage %s: %w", opts.FromStage.Name(), err)
		}
		logger.Info("forcing re-run",
			logging.String(logging.FieldStage, opts.FromStage.Name()))
	}

	results := make([]StageResult, 0, len(stages))
	for _, stage := range stages {
		result, err := r.runStage(ctx, logger, stage, opts)
		results = append(results, result)
		if err != nil {
			return results, err
		}
	}

	return results, nil
}

func (r *Runner) runStage(ctx context.Context, logger *slog.Logger, stage Stage, opts RunOptions) (StageResult, error) {
	id := stage.ID()
	result := StageResult{Stage: id, Status: StatusPending}
	stageLogger := logger.With(logging.String(logging.FieldStage, id.Name()))

	if err := ctx.Err(); err != nil {
		result.Status = StatusFailed
		result.Err = err
		return result, err
	}

	inputs, err := stage.Inputs(ctx)
	if err != nil {
		result.Status = StatusFailed
		result.Err = fmt.Errorf("stage %s: compute inputs: %w", id.Name(), err)
		return result, result.Err
	}
	inputHash, err := hashing.HashInputSet(inputs)
	if err != nil {
		result.Status = StatusFailed
		result.Err = fmt.Errorf("stage %s: hash inputs: %w", id.Name(), err)
		return result, result.Err
	}
	result.InputHash = inputHash

	if r.canSkip(id, inputHash, stage.Artifact()) {
		result.Status = StatusSkipped
		stageLogger.Info("stage up to date",
			logging.String(logging.FieldEventType, "stage_skipped"),
			logging.String(logging.FieldInputHash, inputHash))
		return result, nil
	}

	if opts.CachedOnly {
		result.Status = StatusFailed
		result.Err = fmt.Errorf("stage %s is stale and --cached forbids execution", id.Name())
		return result, result.Err
	}

	result.Status = StatusRunning
	stageLogger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_started"),
		logging.String(logging.FieldInputHash, inputHash))

	started := time.Now()
	execErr := stage.Execute(services.WithStage(ctx, id.Name()))
	result.Duration = time.Since(started)

	if execErr != nil {
		// The manifest keeps its pre-run entries: everything completed before
		// this stage stays valid for the next attempt.
		result.Status = StatusFailed
		result.Err = fmt.Errorf("stage %s: %w", id.Name(), execErr)
		stageLogger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failed"),
			logging.Duration("duration", result.Duration),
			logging.Error(execErr))
		return result, result.Err
	}

	if err := r.store.Put(stagecache.Entry{
		Stage:     id,
		InputHash: inputHash,
		Artifact:  stage.Artifact(),
	}); err != nil {
		result.Status = StatusFailed
		result.Err = fmt.Errorf("stage %s: record completion: %w", id.Name(), err)
		return result, result.Err
	}
	if err := r.store.InvalidateDownstream(id); err != nil {
		result.Status = StatusFailed
		result.Err = fmt.Errorf("stage %s: invalidate downstream: %w", id.Name(), err)
		return result, result.Err
	}

	result.Status = StatusDone
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_completed"),
		logging.Duration("duration", result.Duration))

	return result, nil
}

// canSkip reports whether a stage's recorded run still covers the current
// inputs. The artifact must still exist: a deleted artifact forces a re-run
// even with a matching digest.
func (r *Runner) canSkip(id stagecache.StageID, inputHash, artifact string) bool {
	entry, found := r.store.Get(id)
	if !found || entry.InputHash != inputHash {
		return false
	}
	if _, err := os.Stat(filepath.Join(r.projectDir, artifact)); err != nil {
		return false
	}
	return true
}

// acquireLock takes the project run lock without blocking: two concurrent
// runs against the same project would corrupt each other's caches.
func (r *Runner) acquireLock() (func(), error) {
	if r.lockPath == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(r.lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(r.lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire project lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("project is locked by another run (%s)", r.lockPath)
	}
	return func() { _ = lock.Unlock() }, nil
}
