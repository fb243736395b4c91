// Package locator drives a feed source and the nearest-entity resolver: it
// waits for fresh GTFS-RT data, resolves the vehicle nearest a reference point,
// labels it from the static store and publishes the result.
package locator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/theoremus-urban-solutions/gtfsrt-locator/gtfs"
	"github.com/theoremus-urban-solutions/gtfsrt-locator/gtfsrt"
	"github.com/theoremus-urban-solutions/gtfsrt-locator/nearest"
	"github.com/theoremus-urban-solutions/gtfsrt-locator/publish"
)

// Locator ties a FeedSource to the resolver. Source is required; the other
// collaborators are optional.
type Locator struct {
	Source    *gtfsrt.FeedSource
	Kind      gtfsrt.FeedKind
	Reference nearest.Coordinate
	Store     gtfs.Store
	Publisher publish.Publisher
	State     *State
	Logger    *slog.Logger

	// NewBackOff builds the retry policy of Run. Nil means exponential backoff
	// capped at one minute between attempts, retrying forever.
	NewBackOff func() backoff.BackOff
}

func (l *Locator) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

// Step waits for the next fresh message and resolves it. Feed errors are
// returned; a resolver miss is a Result with Found=false.
func (l *Locator) Step(ctx context.Context) (Result, error) {
	fm, err := l.Source.Latest(ctx, l.Kind)
	if err != nil {
		return Result{}, err
	}
	if l.State != nil {
		l.State.SetMessage(fm, l.Source.LatestTimestamp())
	}

	res := Resolve(ctx, fm, l.Reference, l.Store, l.logger())
	if l.State != nil {
		l.State.SetResult(res)
	}
	return res, nil
}

// Run calls Step until ctx is done, publishing every result. Transport and
// decode failures are retried with backoff; a missing feed is returned at once.
func (l *Locator) Run(ctx context.Context) error {
	logger := l.logger()
	for {
		res, err := backoff.RetryNotifyWithData(func() (Result, error) {
			res, err := l.Step(ctx)
			if err == nil {
				return res, nil
			}
			if errors.Is(err, gtfsrt.ErrMissingFeed) || ctx.Err() != nil {
				return res, backoff.Permanent(err)
			}
			return res, err
		}, backoff.WithContext(l.backOff(), ctx), func(err error, next time.Duration) {
			logger.Warn("feed step failed, retrying", "kind", l.Kind.String(), "error", err, "retry_in", next)
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		if res.Found {
			logger.Info("nearest vehicle",
				"vehicle", res.Key(), "distance_km", res.DistanceKM, "feed_timestamp", res.FeedTimestamp)
		} else {
			logger.Info("no nearest vehicle", "reason", res.Reason, "entities", res.EntityCount)
		}

		if l.Publisher != nil {
			if err := l.Publisher.Publish(ctx, res.Key(), res); err != nil {
				logger.Warn("failed to publish result", "id", res.ID, "error", err)
			}
		}
	}
}

func (l *Locator) backOff() backoff.BackOff {
	if l.NewBackOff != nil {
		return l.NewBackOff()
	}
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 0
	return b
}
