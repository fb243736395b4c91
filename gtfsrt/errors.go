package gtfsrt

import (
	"errors"
	"fmt"
)

// ErrMissingFeed matches any MissingFeedError via errors.Is.
var ErrMissingFeed = errors.New("missing feed url")

// MissingFeedError reports a query for a feed kind that has no endpoint.
// It is a configuration error and is never retried.
type MissingFeedError struct {
	Kind FeedKind
}

func (e MissingFeedError) Error() string {
	return fmt.Sprintf("cannot query %s feed, missing feed url", e.Kind)
}

func (e MissingFeedError) Is(target error) bool { return target == ErrMissingFeed }

// TransportError wraps a failure to obtain the feed body: connection errors,
// timeouts, non-2xx responses and body read failures.
type TransportError struct {
	URL        string
	StatusCode int // zero unless the server answered with a non-2xx status
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("error obtaining real-time feed from %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("error obtaining real-time feed from %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports a response body that is not a valid FeedMessage.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("error decoding protocol-buffer: %v", e.Err)
	}
	return fmt.Sprintf("error decoding protocol-buffer from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
