package feed

import (
	"context"
	"errors"

	"neowatch/internal/model"
)

// ErrMissingFeed marks a response that decoded without the
// near_earth_objects grouping key. The orchestrator treats it as a
// fetch-stage failure, upstream of flattening.
var ErrMissingFeed = errors.New("feed: response missing near_earth_objects")

// Source supplies a raw feed for an inclusive date window
// (YYYY-MM-DD bounds).
type Source interface {
	Name() string
	FetchFeed(ctx context.Context, startDate, endDate string) (*model.Feed, error)
}
