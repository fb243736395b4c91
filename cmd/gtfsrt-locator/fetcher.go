package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"

	"github.com/theoremus-urban-solutions/gtfsrt-locator/gtfsrt"
)

// fetcher loads a single feed message from a URL or a local file. Local
// files let the oneshot mode run against saved snapshots.
type fetcher struct {
	client *gtfsrt.Client
}

func newFetcher(hc *http.Client) *fetcher {
	return &fetcher{client: gtfsrt.NewClient(hc)}
}

func (f *fetcher) fetch(ctx context.Context, urlOrPath string) (*gtfsrtpb.FeedMessage, error) {
	if urlOrPath == "" {
		return nil, fmt.Errorf("no feed url or path given")
	}
	if strings.HasPrefix(urlOrPath, "http://") || strings.HasPrefix(urlOrPath, "https://") {
		return f.client.Fetch(ctx, urlOrPath)
	}

	b, err := os.ReadFile(urlOrPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", urlOrPath, err)
	}
	fm, err := gtfsrt.DecodeFeedMessage(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", urlOrPath, err)
	}
	return fm, nil
}
