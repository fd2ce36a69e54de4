package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"playpack/internal/fileutil"
	"playpack/internal/index"
	"playpack/internal/logging"
	"playpack/internal/plan"
	"playpack/internal/playlist"
	"playpack/internal/resolve"
	"playpack/internal/services/ffmpeg"
	"playpack/internal/state"
	"playpack/internal/tags"
)

// Tagger propagates metadata from a source file onto a destination.
type Tagger interface {
	Propagate(src, dst string) (tags.Report, error)
}

// Recorder is the slice of the state store the pipeline writes to.
type Recorder interface {
	Put(ctx context.Context, rec state.Record) error
}

// Deps collects the collaborators a Pipeline runs with. Resolver and
// Planner are required; the rest degrade gracefully when nil.
type Deps struct {
	Resolver   *resolve.Resolver
	Planner    *plan.Planner
	Transcoder ffmpeg.Transcoder
	Tagger     Tagger
	Store      Recorder
	Logger     *slog.Logger
	Workers    int
	RunID      string
	// OnResult is invoked after each entry completes, from worker
	// goroutines. Used for progress reporting.
	OnResult func(Result)
}

// Pipeline processes playlist entries against an immutable source index.
type Pipeline struct {
	deps Deps
	// locks serializes entries whose plans share a destination. That covers
	// duplicate references to one source and distinct sources that sanitize
	// to the same name; the waiter re-plans under the lock and usually
	// finds the destination already satisfied.
	locks sync.Map
}

// New validates deps and constructs a Pipeline.
func New(deps Deps) (*Pipeline, error) {
	if deps.Resolver == nil {
		return nil, errors.New("pipeline: resolver is required")
	}
	if deps.Planner == nil {
		return nil, errors.New("pipeline: planner is required")
	}
	if deps.Workers < 1 {
		deps.Workers = 1
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	return &Pipeline{deps: deps}, nil
}

// Run processes every entry and returns results indexed by input position.
// The snapshot must be fully built before Run is called; workers share it
// read-only.
func (p *Pipeline) Run(ctx context.Context, snap *index.Snapshot, entries []playlist.Entry) []Result {
	results := make([]Result, len(entries))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.deps.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = p.process(ctx, snap, i, entries[i])
				if p.deps.OnResult != nil {
					p.deps.OnResult(results[i])
				}
			}
		}()
	}

dispatch:
	for i := range entries {
		if ctx.Err() != nil {
			break
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	return results
}

func (p *Pipeline) process(ctx context.Context, snap *index.Snapshot, i int, entry playlist.Entry) Result {
	result := Result{Index: i, Entry: entry}
	log := p.deps.Logger.With(
		logging.String("entry", entry.Raw),
		logging.Int("line", entry.Line),
	)

	rel, err := p.deps.Resolver.Resolve(entry.Raw, snap)
	if err != nil {
		var ambiguous *resolve.AmbiguousError
		if errors.As(err, &ambiguous) {
			result.Status = StatusSkipped
			result.Reason = ReasonAmbiguous
			result.Candidates = ambiguous.Candidates
			result.Err = err
			log.Warn("ambiguous reference", logging.Any("candidates", ambiguous.Candidates))
			return result
		}
		result.Status = StatusSkipped
		result.Reason = ReasonNotFound
		result.Err = err
		log.Warn("no matching source file", logging.Error(err))
		return result
	}

	lock := p.lockFor(p.deps.Planner.DestinationRel(rel))
	lock.Lock()
	defer lock.Unlock()

	pl, err := p.deps.Planner.Plan(ctx, snap.Root(), rel)
	if err != nil {
		result.Status = StatusFailed
		result.Reason = ReasonTranscode
		result.Err = err
		log.Error("planning failed", logging.Error(err))
		return result
	}
	result.Plan = pl

	if pl.Satisfied {
		result.Status = StatusDone
		log.Debug("destination up to date", logging.String("dest", pl.DestRel))
		return result
	}

	if err := p.execute(ctx, pl); err != nil {
		result.Status = StatusFailed
		result.Reason = ReasonTranscode
		result.Err = err
		log.Error("conversion failed",
			logging.String("action", string(pl.Action)),
			logging.Error(err))
		return result
	}

	result.Status = StatusDone
	if pl.Action == plan.ActionTranscode && p.deps.Tagger != nil {
		report, tagErr := p.deps.Tagger.Propagate(pl.SourceAbs, pl.DestAbs)
		switch {
		case tagErr != nil:
			result.Reason = ReasonTagPartial
			result.Warning = tagErr.Error()
			log.Warn("tag propagation failed", logging.Error(tagErr))
		case report.Partial:
			result.Reason = ReasonTagPartial
			result.Warning = report.Detail
			log.Warn("tag propagation incomplete", logging.String("detail", report.Detail))
		}
	}

	p.record(ctx, pl)
	log.Info("entry converted",
		logging.String("action", string(pl.Action)),
		logging.String("dest", pl.DestRel))
	return result
}

func (p *Pipeline) lockFor(destRel string) *sync.Mutex {
	actual, _ := p.locks.LoadOrStore(destRel, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

func (p *Pipeline) execute(ctx context.Context, pl plan.Plan) error {
	switch pl.Action {
	case plan.ActionCopy:
		if err := fileutil.CopyFileVerified(pl.SourceAbs, pl.DestAbs); err != nil {
			return fmt.Errorf("copy %s: %w", pl.SourceRel, err)
		}
		return nil
	case plan.ActionTranscode:
		if p.deps.Transcoder == nil {
			return errors.New("no transcoder configured")
		}
		if err := os.MkdirAll(filepath.Dir(pl.DestAbs), 0o755); err != nil {
			return fmt.Errorf("create destination directory: %w", err)
		}
		if err := p.deps.Transcoder.Transcode(ctx, pl.SourceAbs, pl.DestAbs, pl.BitrateKbps); err != nil {
			return fmt.Errorf("transcode %s: %w", pl.SourceRel, err)
		}
		return nil
	default:
		return fmt.Errorf("unknown action %q", pl.Action)
	}
}

// record persists the skip-rule row. A write failure costs at most one
// redundant conversion next run, so it only logs.
func (p *Pipeline) record(ctx context.Context, pl plan.Plan) {
	if p.deps.Store == nil {
		return
	}
	rec := state.Record{
		DestPath:      pl.DestRel,
		SourcePath:    pl.SourceRel,
		SourceSize:    pl.SourceSize,
		SourceMtimeNS: pl.SourceMtimeNS,
		Action:        string(pl.Action),
		BitrateKbps:   pl.BitrateKbps,
		RunID:         p.deps.RunID,
		CompletedAt:   time.Now().UTC(),
	}
	if err := p.deps.Store.Put(ctx, rec); err != nil {
		p.deps.Logger.Warn("state record write failed",
			logging.String("dest", pl.DestRel),
			logging.Error(err))
	}
}
