package sample

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"neowatch/internal/feed"
	"neowatch/internal/model"
)

const defaultPath = "sample_data/feed_sample.json"

// Source serves a static local fixture instead of calling the live
// API. The requested date window is ignored; the fixture is returned
// as-is.
type Source struct {
	path string
}

var _ feed.Source = (*Source)(nil)

func New(path string) *Source {
	if path == "" {
		path = defaultPath
	}
	return &Source{path: path}
}

func (s *Source) Name() string {
	return "sample"
}

func (s *Source) FetchFeed(ctx context.Context, startDate, endDate string) (*model.Feed, error) {
	_ = ctx
	_ = startDate
	_ = endDate

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("sample: read %s: %w", s.path, err)
	}

	var decoded model.Feed
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("sample: decode %s: %w", s.path, err)
	}
	if decoded.NearEarthObjects == nil {
		return nil, fmt.Errorf("sample: %w", feed.ErrMissingFeed)
	}
	return &decoded, nil
}
