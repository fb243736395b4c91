package gtfsrt

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
)

// DefaultPollInterval is how long Latest waits between polls of a stale feed.
const DefaultPollInterval = 5 * time.Second

// FeedSource polls up to three GTFS-RT endpoints and remembers the newest
// header timestamp it has handed out.
type FeedSource struct {
	endpoints    Endpoints
	client       *Client
	pollInterval time.Duration
	logger       *slog.Logger

	mu              sync.Mutex
	latestTimestamp uint64
}

// Option configures a FeedSource.
type Option func(*FeedSource)

// WithHTTPClient sets the HTTP client reused for every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *FeedSource) { s.client = NewClient(hc) }
}

// WithPollInterval overrides DefaultPollInterval. Non-positive values are ignored.
func WithPollInterval(d time.Duration) Option {
	return func(s *FeedSource) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithLogger sets the logger used for polling traces.
func WithLogger(l *slog.Logger) Option {
	return func(s *FeedSource) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewFeedSourceFromURL builds a source with a single vehicle positions feed.
func NewFeedSourceFromURL(url string, opts ...Option) *FeedSource {
	return NewFeedSourceWithEndpoints(Endpoints{VehiclePositionsURL: url}, opts...)
}

// NewFeedSource builds a source with all three feeds.
func NewFeedSource(tripUpdatesURL, vehiclePositionsURL, alertsURL string, opts ...Option) *FeedSource {
	return NewFeedSourceWithEndpoints(Endpoints{
		TripUpdatesURL:      tripUpdatesURL,
		VehiclePositionsURL: vehiclePositionsURL,
		ServiceAlertsURL:    alertsURL,
	}, opts...)
}

// NewFeedSourceWithEndpoints builds a source from any subset of endpoints.
func NewFeedSourceWithEndpoints(ep Endpoints, opts ...Option) *FeedSource {
	s := &FeedSource{
		endpoints:    ep,
		pollInterval: DefaultPollInterval,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = NewClient(nil)
	}
	return s
}

// Endpoints returns the configured endpoints.
func (s *FeedSource) Endpoints() Endpoints { return s.endpoints }

// LatestTimestamp returns the watermark: the largest header timestamp returned
// by Latest so far, or zero.
func (s *FeedSource) LatestTimestamp() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latestTimestamp
}

// Fetch performs a single fetch of the feed of the given kind. It does not
// retry and does not touch the watermark.
func (s *FeedSource) Fetch(ctx context.Context, kind FeedKind) (*gtfsrtpb.FeedMessage, error) {
	url, ok := s.endpoints.URL(kind)
	if !ok {
		return nil, MissingFeedError{Kind: kind}
	}
	return s.client.Fetch(ctx, url)
}

// Latest returns the first message of the given kind whose header timestamp is
// newer than the watermark, polling every poll interval until one appears.
//
// A message without a header timestamp is returned at once and leaves the
// watermark alone. Fetch errors are returned without retry. Cancelling ctx
// stops the wait with ctx.Err().
func (s *FeedSource) Latest(ctx context.Context, kind FeedKind) (*gtfsrtpb.FeedMessage, error) {
	for {
		fm, err := s.Fetch(ctx, kind)
		if err != nil {
			return nil, err
		}

		header := fm.GetHeader()
		if header == nil || header.Timestamp == nil {
			s.logger.Debug("feed has no header timestamp", "kind", kind.String())
			return fm, nil
		}

		ts := header.GetTimestamp()
		if s.advance(ts) {
			return fm, nil
		}

		s.logger.Debug("feed not updated yet, waiting",
			"kind", kind.String(), "timestamp", ts, "watermark", s.LatestTimestamp(), "interval", s.pollInterval)
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
	}
}

// advance moves the watermark to ts when ts is strictly newer.
func (s *FeedSource) advance(ts uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ts <= s.latestTimestamp {
		return false
	}
	s.latestTimestamp = ts
	return true
}

func (s *FeedSource) wait(ctx context.Context) error {
	t := time.NewTimer(s.pollInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
