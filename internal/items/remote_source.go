package items

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/dynlinks/internal/foundation/errors"
	"git.home.luguber.info/inful/dynlinks/internal/logfields"
	"git.home.luguber.info/inful/dynlinks/internal/metrics"
	"git.home.luguber.info/inful/dynlinks/internal/retry"
	"git.home.luguber.info/inful/dynlinks/internal/rewrite"
)

// maxCatalogBytes bounds the size of a fetched catalog.
const maxCatalogBytes = 8 << 20

// RemoteSource fetches the catalog as JSON from the application server that owns
// the items, and refreshes it periodically. A failed refresh keeps the last
// good catalog.
type RemoteSource struct {
	url      string
	client   *http.Client
	interval time.Duration
	policy   retry.Policy
	recorder metrics.Recorder

	scheduler gocron.Scheduler

	mu        sync.RWMutex
	documents map[string][]rewrite.Item
	loaded    bool
}

// NewRemoteSource creates an unstarted remote source.
func NewRemoteSource(url string, interval, timeout time.Duration, recorder metrics.Recorder) *RemoteSource {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &RemoteSource{
		url:      url,
		client:   &http.Client{Timeout: timeout},
		interval: interval,
		policy:   retry.NoRetry(),
		recorder: recorder,
	}
}

// WithRetry sets the backoff applied when a fetch fails.
func (s *RemoteSource) WithRetry(p retry.Policy) *RemoteSource {
	s.policy = p
	return s
}

// Start performs an initial fetch and schedules periodic refreshes.
// An unreachable upstream at startup is logged, not fatal.
func (s *RemoteSource) Start(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		slog.Warn("Initial item catalog fetch failed", logfields.URL(s.url), logfields.Error(err))
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to create scheduler").Build()
	}
	_, err = sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			if err := s.Refresh(ctx); err != nil {
				slog.Warn("Item catalog refresh failed", logfields.URL(s.url), logfields.Error(err))
			}
		}),
		gocron.WithName("item-catalog-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return errors.WrapError(err, errors.CategoryRuntime, "failed to schedule item catalog refresh").Build()
	}
	s.scheduler = sched
	sched.Start()
	slog.Info("Item catalog refresh scheduled", logfields.URL(s.url), slog.Duration("interval", s.interval))
	return nil
}

// Stop shuts down the refresh scheduler.
func (s *RemoteSource) Stop() error {
	if s.scheduler == nil {
		return nil
	}
	return s.scheduler.Shutdown()
}

// Refresh fetches the catalog, retrying per the source's policy.
func (s *RemoteSource) Refresh(ctx context.Context) error {
	var (
		docs map[string][]rewrite.Item
		err  error
	)
	for attempt := 0; ; attempt++ {
		docs, err = s.fetch(ctx)
		s.recorder.IncItemFetch("http", err == nil)
		if err == nil || attempt >= s.policy.MaxRetries {
			break
		}
		delay := s.policy.Delay(attempt + 1)
		slog.Debug("Retrying item catalog fetch", logfields.URL(s.url), slog.Int("attempt", attempt+1), slog.Duration("delay", delay))
		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
	}
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.documents = docs
	s.loaded = true
	s.mu.Unlock()
	slog.Debug("Fetched item catalog", logfields.URL(s.url), logfields.Count(len(docs)))
	return nil
}

func (s *RemoteSource) fetch(ctx context.Context) (map[string][]rewrite.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryItems, "invalid item catalog request").
			WithContext("url", s.url).Build()
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "item catalog fetch failed").
			Retryable().WithContext("url", s.url).Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.ItemsError(fmt.Sprintf("item catalog fetch returned %d", resp.StatusCode)).
			WithContext("url", s.url).Build()
	}

	var cat Catalog
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxCatalogBytes)).Decode(&cat); err != nil {
		return nil, errors.WrapError(err, errors.CategoryItems, "failed to decode item catalog").
			WithContext("url", s.url).Build()
	}
	return cat.index(), nil
}

// Items implements Source. It fails only while no catalog has ever been fetched.
func (s *RemoteSource) Items(_ context.Context, document string) ([]rewrite.Item, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil, false, errors.ItemsError("item catalog not available").WithContext("url", s.url).Build()
	}
	items, ok := s.documents[document]
	return items, ok, nil
}
