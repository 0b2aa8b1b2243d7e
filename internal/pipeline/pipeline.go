package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"neowatch/internal/export"
	"neowatch/internal/feed"
	"neowatch/internal/store"
	"neowatch/internal/transform"
)

// Stage tags attached to failures so callers can map them to exit
// codes.
const (
	StageFetch     = "fetch"
	StageTransform = "transform"
	StageLoad      = "load"
)

// StageError wraps a failure with the pipeline stage it happened in.
// Stages are isolated: a later failure never rolls back work already
// committed by an earlier stage (a written CSV stays in place when
// the load fails).
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Result summarizes a completed feed run.
type Result struct {
	Fetched int
	Rows    int
	Written int64
	CSVPath string
}

// Pipeline wires a feed source, the flattener, the CSV writer and the
// warehouse loader into one linear batch run.
type Pipeline struct {
	Source  feed.Source
	Store   store.Store
	CSVPath string
	Table   string
	Log     *slog.Logger
}

// RunFeed executes fetch -> flatten -> sort -> CSV -> load for an
// already-validated date window. Any error is a *StageError.
func (p *Pipeline) RunFeed(ctx context.Context, startDate, endDate string) (Result, error) {
	log := p.logger()
	log.Info("running feed ETL", "source", p.Source.Name(), "start", startDate, "end", endDate)

	rawFeed, err := p.Source.FetchFeed(ctx, startDate, endDate)
	if err != nil {
		return Result{}, &StageError{Stage: StageFetch, Err: err}
	}
	log.Info("feed fetched", "element_count", rawFeed.ElementCount)

	rows, err := transform.Flatten(rawFeed)
	if err != nil {
		return Result{}, &StageError{Stage: StageTransform, Err: err}
	}
	if len(rows) == 0 {
		log.Warn("transform produced an empty dataset")
	}
	transform.SortByDate(rows)

	if err := export.Write(p.CSVPath, rows); err != nil {
		return Result{}, &StageError{Stage: StageTransform, Err: err}
	}
	log.Info("csv written", "path", p.CSVPath, "rows", len(rows))

	written, err := p.Store.LoadApproaches(ctx, rows, store.LoadOptions{
		Mode:        store.ModeAppend,
		DeleteFirst: true,
		StartDate:   startDate,
		EndDate:     endDate,
	})
	if err != nil {
		return Result{}, &StageError{Stage: StageLoad, Err: err}
	}
	log.Info("rows loaded", "rows", written, "table", p.Table)

	return Result{
		Fetched: rawFeed.ElementCount,
		Rows:    len(rows),
		Written: written,
		CSVPath: p.CSVPath,
	}, nil
}

// RunLoadCSV loads an existing transform CSV into the warehouse with
// the delete window inferred from the rows themselves.
func (p *Pipeline) RunLoadCSV(ctx context.Context, csvPath string) (Result, error) {
	log := p.logger()
	log.Info("loading csv into warehouse", "path", csvPath)

	rows, err := export.Read(csvPath)
	if err != nil {
		return Result{}, &StageError{Stage: StageTransform, Err: err}
	}

	written, err := p.Store.LoadApproaches(ctx, rows, store.LoadOptions{
		Mode:        store.ModeAppend,
		DeleteFirst: true,
	})
	if err != nil {
		return Result{}, &StageError{Stage: StageLoad, Err: err}
	}
	log.Info("rows loaded", "rows", written, "table", p.Table)

	return Result{Rows: len(rows), Written: written, CSVPath: csvPath}, nil
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Log != nil {
		return p.Log
	}
	return slog.Default()
}
