package gtfsrt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// DefaultTimeout bounds a single feed request made with the default client.
const DefaultTimeout = 15 * time.Second

// Client fetches raw GTFS-RT protobuf bodies over HTTP.
type Client struct {
	httpClient *http.Client
}

// NewClient wraps hc. A nil hc gets a client with DefaultTimeout.
func NewClient(hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{httpClient: hc}
}

// FetchBytes performs one GET against url and returns the full response body.
// Every failure is reported as a *TransportError.
func (c *Client) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/x-protobuf, application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &TransportError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: url, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	return body, nil
}

// Fetch performs one GET against url and decodes the body as a FeedMessage.
func (c *Client) Fetch(ctx context.Context, url string) (*gtfsrtpb.FeedMessage, error) {
	body, err := c.FetchBytes(ctx, url)
	if err != nil {
		return nil, err
	}
	fm := &gtfsrtpb.FeedMessage{}
	if err := proto.Unmarshal(body, fm); err != nil {
		return nil, &DecodeError{URL: url, Err: err}
	}
	return fm, nil
}

// DecodeFeedMessage parses a GTFS-RT protobuf body. Failures are *DecodeError.
func DecodeFeedMessage(b []byte) (*gtfsrtpb.FeedMessage, error) {
	fm := &gtfsrtpb.FeedMessage{}
	if err := proto.Unmarshal(b, fm); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return fm, nil
}

// FetchFeedMessage is a one-shot fetch with the default client. It keeps no
// watermark; use a FeedSource to wait for fresh data.
func FetchFeedMessage(ctx context.Context, url string) (*gtfsrtpb.FeedMessage, error) {
	return defaultClient.Fetch(ctx, url)
}

var defaultClient = NewClient(nil)
