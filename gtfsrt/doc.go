// Package gtfsrt fetches GTFS-Realtime protobuf feeds and detects when they carry new data.
//
// It supports three feed kinds:
//   - Trip Updates: real-time arrival/departure predictions
//   - Vehicle Positions: current vehicle locations
//   - Service Alerts: disruptions and service changes
//
// The main type is FeedSource, which owns up to one endpoint per kind and a header
// timestamp watermark. FeedSource.Fetch performs a single fetch-and-decode attempt;
// FeedSource.Latest polls until the feed producer publishes a header timestamp newer
// than the watermark.
//
// A FeedSource is meant to be driven by a single caller. Calls on the same instance
// must not overlap.
package gtfsrt
