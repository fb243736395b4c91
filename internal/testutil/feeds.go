// Package testutil builds GTFS-RT fixtures and fake feed servers for tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// VehicleAt builds a vehicle position entity at lat/lon.
func VehicleAt(id string, lat, lon float32) *gtfsrtpb.FeedEntity {
	return &gtfsrtpb.FeedEntity{
		Id: proto.String(id),
		Vehicle: &gtfsrtpb.VehiclePosition{
			Trip:     &gtfsrtpb.TripDescriptor{TripId: proto.String("trip-" + id), RouteId: proto.String("route-" + id)},
			Vehicle:  &gtfsrtpb.VehicleDescriptor{Id: proto.String("veh-" + id), Label: proto.String("Vehicle " + id)},
			Position: &gtfsrtpb.Position{Latitude: proto.Float32(lat), Longitude: proto.Float32(lon)},
		},
	}
}

// VehicleWithoutPosition builds a vehicle entity that carries no position.
func VehicleWithoutPosition(id string) *gtfsrtpb.FeedEntity {
	return &gtfsrtpb.FeedEntity{
		Id:      proto.String(id),
		Vehicle: &gtfsrtpb.VehiclePosition{Vehicle: &gtfsrtpb.VehicleDescriptor{Id: proto.String("veh-" + id)}},
	}
}

// FeedMessage wraps entities in a message. A zero ts leaves the header
// timestamp unset.
func FeedMessage(ts uint64, entities ...*gtfsrtpb.FeedEntity) *gtfsrtpb.FeedMessage {
	h := &gtfsrtpb.FeedHeader{GtfsRealtimeVersion: proto.String("2.0")}
	if ts != 0 {
		h.Timestamp = proto.Uint64(ts)
	}
	return &gtfsrtpb.FeedMessage{Header: h, Entity: entities}
}

// Marshal encodes fm, failing the test on error.
func Marshal(t testing.TB, fm *gtfsrtpb.FeedMessage) []byte {
	t.Helper()
	b, err := proto.Marshal(fm)
	if err != nil {
		t.Fatalf("marshal feed message: %v", err)
	}
	return b
}

// FeedServer serves a scripted sequence of feed bodies. Once the script is
// exhausted the last body is repeated.
type FeedServer struct {
	*httptest.Server

	hits atomic.Int64

	mu     sync.Mutex
	bodies [][]byte
	status int
}

// NewFeedServer starts a server replaying msgs in order.
func NewFeedServer(t testing.TB, msgs ...*gtfsrtpb.FeedMessage) *FeedServer {
	t.Helper()
	fs := &FeedServer{status: http.StatusOK}
	for _, m := range msgs {
		fs.bodies = append(fs.bodies, Marshal(t, m))
	}
	fs.Server = httptest.NewServer(http.HandlerFunc(fs.serve))
	t.Cleanup(fs.Close)
	return fs
}

// NewRawServer starts a server that always answers status with body.
func NewRawServer(t testing.TB, status int, body []byte) *FeedServer {
	t.Helper()
	fs := &FeedServer{status: status, bodies: [][]byte{body}}
	fs.Server = httptest.NewServer(http.HandlerFunc(fs.serve))
	t.Cleanup(fs.Close)
	return fs
}

// Hits reports how many requests the server has answered.
func (fs *FeedServer) Hits() int { return int(fs.hits.Load()) }

func (fs *FeedServer) serve(w http.ResponseWriter, _ *http.Request) {
	n := fs.hits.Add(1)
	fs.mu.Lock()
	var body []byte
	if len(fs.bodies) > 0 {
		i := int(n) - 1
		if i >= len(fs.bodies) {
			i = len(fs.bodies) - 1
		}
		body = fs.bodies[i]
	}
	status := fs.status
	fs.mu.Unlock()

	w.Header().Set("Content-Type", "application/x-protobuf")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
