package store

import (
	"context"

	"neowatch/internal/model"
)

// Mode controls what happens when the destination table already
// exists: append leaves rows outside the touched window alone, fail
// refuses to load, replace drops the table first.
type Mode string

const (
	ModeAppend  Mode = "append"
	ModeFail    Mode = "fail"
	ModeReplace Mode = "replace"
)

// LoadOptions scope one load call. When DeleteFirst is set and a
// bound is empty, that bound is inferred from the batch's own
// close_approach_date values.
type LoadOptions struct {
	Mode        Mode
	DeleteFirst bool
	StartDate   string
	EndDate     string
}

type Store interface {
	EnsureSchema(ctx context.Context) error
	DeleteRange(ctx context.Context, startDate, endDate string) (int64, error)
	LoadApproaches(ctx context.Context, rows []model.Approach, opts LoadOptions) (int64, error)
	Close() error
}

// NopStore discards all writes. Used when persistence is disabled
// with an empty database path.
type NopStore struct{}

func (s *NopStore) EnsureSchema(ctx context.Context) error {
	_ = ctx
	return nil
}

func (s *NopStore) DeleteRange(ctx context.Context, startDate, endDate string) (int64, error) {
	_ = ctx
	_ = startDate
	_ = endDate
	return 0, nil
}

func (s *NopStore) LoadApproaches(ctx context.Context, rows []model.Approach, opts LoadOptions) (int64, error) {
	_ = ctx
	_ = opts
	return int64(len(rows)), nil
}

func (s *NopStore) Close() error {
	return nil
}
