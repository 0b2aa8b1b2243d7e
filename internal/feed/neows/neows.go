package neows

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"neowatch/internal/feed"
	"neowatch/internal/model"
)

const (
	defaultBaseURL        = "https://api.nasa.gov/neo/rest/v1"
	defaultFeedPath       = "feed"
	defaultAPIKey         = "DEMO_KEY"
	defaultAPIKeyParam    = "api_key"
	defaultTimeoutSeconds = 15
	defaultMaxRetries     = 4
	defaultBackoffBase    = 500 * time.Millisecond
	defaultUserAgent      = "neowatch/0.1"
)

type Config struct {
	BaseURL     string
	FeedPath    string
	APIKey      string
	APIKeyParam string
	Timeout     time.Duration
	MaxRetries  int
	BackoffBase time.Duration
	UserAgent   string
}

// Source is the live NeoWs feed client. Rate-limited and server-side
// failures are retried with exponential backoff; client errors fail
// immediately.
type Source struct {
	config Config
	client *http.Client
}

var _ feed.Source = (*Source)(nil)

func New() (*Source, error) {
	return NewWithConfig(ConfigFromEnv())
}

func NewWithConfig(cfg Config) (*Source, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(cfg.FeedPath) == "" {
		cfg.FeedPath = defaultFeedPath
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		cfg.APIKey = defaultAPIKey
	}
	if strings.TrimSpace(cfg.APIKeyParam) == "" {
		cfg.APIKeyParam = defaultAPIKeyParam
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeoutSeconds * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	return &Source{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func ConfigFromEnv() Config {
	return Config{
		BaseURL:     getenv("NASA_API_BASE_URL", defaultBaseURL),
		FeedPath:    getenv("NASA_FEED_PATH", defaultFeedPath),
		APIKey:      getenv("NASA_API_KEY", defaultAPIKey),
		APIKeyParam: getenv("NASA_API_KEY_PARAM", defaultAPIKeyParam),
		Timeout:     time.Duration(getenvInt("NASA_TIMEOUT_SECONDS", defaultTimeoutSeconds)) * time.Second,
		MaxRetries:  getenvInt("NASA_MAX_RETRIES", defaultMaxRetries),
		BackoffBase: defaultBackoffBase,
	}
}

func (s *Source) Name() string {
	return "neows"
}

func (s *Source) FetchFeed(ctx context.Context, startDate, endDate string) (*model.Feed, error) {
	params := url.Values{}
	params.Set("start_date", startDate)
	params.Set("end_date", endDate)
	params.Set(s.config.APIKeyParam, s.config.APIKey)

	body, err := s.doRequest(ctx, s.feedURL(), params)
	if err != nil {
		return nil, err
	}

	var decoded model.Feed
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("neows: decode feed: %w", err)
	}
	if decoded.NearEarthObjects == nil {
		return nil, fmt.Errorf("neows: %w", feed.ErrMissingFeed)
	}
	return &decoded, nil
}

func (s *Source) feedURL() string {
	return strings.TrimRight(s.config.BaseURL, "/") + "/" + strings.TrimLeft(s.config.FeedPath, "/")
}

func (s *Source) doRequest(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	attempts := s.config.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		body, status, retryAfter, err := s.doAttempt(ctx, endpoint, params)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !retryable(status) {
			return nil, err
		}
		if attempt == attempts-1 {
			break
		}

		delay := s.config.BackoffBase << uint(attempt)
		if retryAfter > delay {
			delay = retryAfter
		}
		if err := sleepWithContext(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("neows: request failed after %d attempts: %w", attempts, lastErr)
}

func (s *Source) doAttempt(ctx context.Context, endpoint string, params url.Values) ([]byte, int, time.Duration, error) {
	uri := endpoint
	if len(params) > 0 {
		uri += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, 0, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if s.config.UserAgent != "" {
		req.Header.Set("User-Agent", s.config.UserAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, 0, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, resp.StatusCode, parseRetryAfter(resp),
			fmt.Errorf("neows: request failed (%s): %s", resp.Status, strings.TrimSpace(string(body)))
	}

	return body, resp.StatusCode, 0, nil
}

// retryable reports whether a status warrants another attempt:
// rate-limit responses and server-side failures only.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

func parseRetryAfter(resp *http.Response) time.Duration {
	value := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := time.Parse(http.TimeFormat, value); err == nil {
		if wait := time.Until(when); wait > 0 {
			return wait
		}
	}
	return 0
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
