// Package pipeline wires the source tasks, the mapper and the persist
// boundary into the dependency graph of one academic year.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"nusmods-scraper/internal/components/alert"
	"nusmods-scraper/internal/components/assert"
	"nusmods-scraper/internal/components/chrono"
	"nusmods-scraper/internal/components/telemetry"
	"nusmods-scraper/internal/config"
	"nusmods-scraper/internal/fetch"
	"nusmods-scraper/internal/mapper"
	"nusmods-scraper/internal/persist"
	"nusmods-scraper/internal/sources"
	"nusmods-scraper/internal/sources/bidding"
	"nusmods-scraper/internal/sources/cors"
	"nusmods-scraper/internal/task"
)

const (
	report_task_failed = "task.failed"
	report_run_failed  = "run.failed"
	report_alert       = "run.alert"
	report_empty_sem   = "consolidate.empty"
)

// StoreFactory opens the canonical store of an academic year.
type StoreFactory func(ctx context.Context, acadYear int) (persist.Persist, error)

type Deps struct {
	Config  config.Config
	Fetcher fetch.Fetcher
	Files   *persist.Files
	Store   StoreFactory
	// Archive receives closed bidding rounds, it may be nil.
	Archive bidding.Archive
	Alert   alert.API
	Clock   chrono.API
	Tel     telemetry.API
}

type Pipeline struct {
	deps   Deps
	env    sources.Env
	mapper mapper.Mapper
}

func New(deps Deps) Pipeline {
	assert.NotNil(deps.Fetcher)
	assert.NotNil(deps.Tel)
	if deps.Alert == nil {
		deps.Alert = alert.Noop{}
	}

	return Pipeline{
		deps: deps,
		env: sources.Env{
			Fetcher: deps.Fetcher,
			Files:   deps.Files,
			Tel:     deps.Tel,
		},
		mapper: mapper.New(deps.Tel),
	}
}

// Summary describes a finished run.
type Summary struct {
	RunID    string
	AcadYear int
	Duration time.Duration
	// Records counts what each graph node produced.
	Records map[string]int
	Modules int
}

// run holds the state of one invocation of the graph.
type run struct {
	Pipeline
	acadYear int
	store    persist.Persist

	mutex        sync.Mutex
	records      map[string]int
	cors         map[string]cors.Output
	consolidated map[int]mapper.SemesterOutput
}

func (r *run) record(name string, n int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.records[name] = n
}

// semesters are the semesters every per semester task runs for.
func (p Pipeline) semesters() []int {
	semesters := slices.Clone(p.deps.Config.Bulletin.Semesters)
	slices.Sort(semesters)
	return slices.Compact(semesters)
}

// Run scrapes every source for acadYear and collates the result. Nothing
// is persisted unless the whole graph succeeds.
func (p Pipeline) Run(ctx context.Context, acadYear int) (Summary, error) {
	return p.execute(ctx, acadYear, func(r *run) *task.Graph {
		graph := task.NewGraph()
		r.addSources(graph)
		r.addMapping(graph, true)
		return graph
	})
}

// Collate re-runs consolidation and collation from the raw dumps already
// on disk.
func (p Pipeline) Collate(ctx context.Context, acadYear int) (Summary, error) {
	return p.execute(ctx, acadYear, func(r *run) *task.Graph {
		graph := task.NewGraph()
		r.addMapping(graph, false)
		return graph
	})
}

// runScoped is implemented by fetchers that deduplicate requests per run.
type runScoped interface {
	BeginRun()
}

func (p Pipeline) execute(ctx context.Context, acadYear int, build func(r *run) *task.Graph) (Summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	tel := telemetry.NewScopedAPI(runID[:8], p.deps.Tel)

	if fetcher, ok := p.deps.Fetcher.(runScoped); ok {
		fetcher.BeginRun()
	}

	store, err := p.deps.Store(ctx, acadYear)
	if err != nil {
		return Summary{}, fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	err = p.deps.Files.Begin(runID)
	if err != nil {
		return Summary{}, err
	}

	r := &run{
		Pipeline:     p,
		acadYear:     acadYear,
		store:        store,
		records:      map[string]int{},
		cors:         map[string]cors.Output{},
		consolidated: map[int]mapper.SemesterOutput{},
	}
	err = build(r).Run(ctx)
	if err != nil {
		p.fail(ctx, tel, runID, acadYear, store, err)
		return Summary{}, err
	}

	if tx, ok := store.(persist.Transaction); ok {
		err = tx.Commit()
		if err != nil {
			p.fail(ctx, tel, runID, acadYear, store, err)
			return Summary{}, fmt.Errorf("commit store: %w", err)
		}
	}
	err = p.deps.Files.Commit()
	if err != nil {
		return Summary{}, fmt.Errorf("commit files: %w", err)
	}

	return Summary{
		RunID:    runID,
		AcadYear: acadYear,
		Duration: time.Since(start),
		Records:  r.records,
		Modules:  r.records["collate"],
	}, nil
}

// fail drops everything the run staged and notifies a human.
func (p Pipeline) fail(ctx context.Context, tel telemetry.API, runID string, acadYear int, store persist.Persist, cause error) {
	tel.ReportBroken(report_run_failed, cause)

	var discardErrs []error
	if tx, ok := store.(persist.Transaction); ok {
		discardErrs = append(discardErrs, tx.Discard())
	}
	discardErrs = append(discardErrs, p.deps.Files.Discard())
	if err := errors.Join(discardErrs...); err != nil {
		tel.ReportBroken(report_run_failed, fmt.Errorf("discard: %w", err))
	}

	stage := "unknown"
	var fatal *task.FatalError
	if errors.As(cause, &fatal) {
		stage = fatal.Source
	}
	at := time.Now()
	if p.deps.Clock != nil {
		at = p.deps.Clock.Now()
	}
	err := p.deps.Alert.Notify(ctx, alert.Incident{
		RunID:    runID,
		AcadYear: fmt.Sprintf("%d/%d", acadYear, acadYear+1),
		Stage:    stage,
		Err:      cause,
		At:       at,
	})
	if err != nil {
		tel.ReportBroken(report_alert, err)
	}
}

// tolerate turns a non fatal task failure into a report, the tasks that
// read its output then proceed with what is on disk.
func (r *run) tolerate(name string, fn func(ctx context.Context) (int, error)) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		n, err := fn(ctx)
		if err != nil {
			if task.IsFatal(err) || ctx.Err() != nil {
				return err
			}
			r.deps.Tel.ReportBroken(report_task_failed, err, name)
			return nil
		}
		r.record(name, n)
		return nil
	}
}
