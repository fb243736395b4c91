package server_test

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"github.com/theoremus-urban-solutions/gtfsrt-locator/gtfs"
	"github.com/theoremus-urban-solutions/gtfsrt-locator/internal/testutil"
	"github.com/theoremus-urban-solutions/gtfsrt-locator/locator"
	"github.com/theoremus-urban-solutions/gtfsrt-locator/nearest"
	"github.com/theoremus-urban-solutions/gtfsrt-locator/server"
)

func populatedState(t *testing.T) (*locator.State, *gtfs.Index) {
	t.Helper()
	idx := gtfs.NewIndex()
	idx.Routes["route-b"] = gtfs.Route{ID: "route-b", ShortName: "444"}

	fm := testutil.FeedMessage(1700000000,
		testutil.VehicleAt("a", 0.09, 0),
		testutil.VehicleAt("b", 0.027, 0),
		testutil.VehicleAt("c", 0.063, 0),
	)
	state := locator.NewState()
	state.SetMessage(fm, 1700000000)
	state.SetResult(locator.Resolve(context.Background(), fm, nearest.Coordinate{}, idx, nil))
	return state, idx
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := server.New(server.Options{State: locator.NewState()}).Handler()

	rec := get(t, h, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "waiting", body["status"])
	assert.EqualValues(t, 0, body["latest_gtfsrt_epoch"])

	state, _ := populatedState(t)
	h = server.New(server.Options{State: state}).Handler()
	rec = get(t, h, "/api/health")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 1700000000, body["latest_gtfsrt_epoch"])
	t.Logf("✓ health reports the watermark once a message is recorded")
}

func TestNearest_LatestResult(t *testing.T) {
	state, idx := populatedState(t)
	h := server.New(server.Options{State: state, Store: idx, Producer: "TEST"}).Handler()

	rec := get(t, h, "/api/nearest")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		ProducerRef    string
		NearestVehicle locator.Result
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "TEST", body.ProducerRef)
	require.True(t, body.NearestVehicle.Found)
	assert.Equal(t, "b", body.NearestVehicle.Vehicle.EntityID)
	require.NotNil(t, body.NearestVehicle.Route)
	assert.Equal(t, "444", body.NearestVehicle.Route.ShortName)
	t.Logf("✓ latest result served as JSON")
}

func TestNearest_Recompute(t *testing.T) {
	state, idx := populatedState(t)
	h := server.New(server.Options{State: state, Store: idx}).Handler()

	// Closest to c among b and c, with a seeding the watermark.
	rec := get(t, h, "/api/nearest?lat=0.065&lon=0")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct{ NearestVehicle locator.Result }
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.NearestVehicle.Found)
	assert.Equal(t, "c", body.NearestVehicle.Vehicle.EntityID)
	assert.InDelta(t, 0.065, body.NearestVehicle.Reference.Latitude, 1e-9)
	t.Logf("✓ lat/lon recomputes against the latest message")
}

func TestNearest_Formats(t *testing.T) {
	state, _ := populatedState(t)
	h := server.New(server.Options{State: state}).Handler()

	rec := get(t, h, "/api/nearest?format=xml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<LocatorDelivery")

	rec = get(t, h, "/api/nearest?format=text")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))

	rec = get(t, h, "/api/nearest?format=yaml")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	t.Logf("✓ format selection and unsupported format rejection")
}

func TestNearest_Errors(t *testing.T) {
	h := server.New(server.Options{State: locator.NewState()}).Handler()

	rec := get(t, h, "/api/nearest")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = get(t, h, "/api/nearest?lat=1&lon=2")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	for _, q := range []string{"lat=abc&lon=0", "lat=0", "lat=91&lon=0", "lat=0&lon=-181", "lat=NaN&lon=0", "lat=0&lon=Inf", "lat=-Inf&lon=0"} {
		rec = get(t, h, "/api/nearest?"+q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		assert.Contains(t, rec.Body.String(), "invalid", q)
	}
	t.Logf("✓ missing state and bad coordinates are reported")
}

func TestNearest_NonFiniteBearingInFeed(t *testing.T) {
	near := testutil.VehicleAt("b", 0.027, 0)
	near.Vehicle.Position.Bearing = proto.Float32(float32(math.NaN()))
	fm := testutil.FeedMessage(1700000000, testutil.VehicleAt("a", 0.09, 0), near)

	state := locator.NewState()
	state.SetMessage(fm, 1700000000)
	state.SetResult(locator.Resolve(context.Background(), fm, nearest.Coordinate{}, nil, nil))
	h := server.New(server.Options{State: state}).Handler()

	for _, target := range []string{"/api/nearest", "/api/nearest?lat=0&lon=0", "/api/nearest?format=siri"} {
		rec := get(t, h, target)
		require.Equal(t, http.StatusOK, rec.Code, target)
		require.NotEmpty(t, rec.Body.Bytes(), target)
		assert.True(t, json.Valid(rec.Body.Bytes()), target)
	}
	t.Logf("✓ a NaN bearing in the feed still renders a body")
}

func TestNearest_EncodeFailureIsServerError(t *testing.T) {
	state, _ := populatedState(t)
	res, ok := state.Result()
	require.True(t, ok)
	res.DistanceKM = math.NaN()
	state.SetResult(res)
	h := server.New(server.Options{State: state}).Handler()

	rec := get(t, h, "/api/nearest")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "encode")
	t.Logf("✓ unencodable results answer 500 instead of an empty 200")
}

func TestNearest_Siri(t *testing.T) {
	state, idx := populatedState(t)
	h := server.New(server.Options{State: state, Store: idx, Producer: "TL"}).Handler()

	rec := get(t, h, "/api/nearest?format=siri")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Siri struct {
			ServiceDelivery struct {
				VehicleMonitoringDelivery []struct {
					VehicleActivity []struct {
						MonitoredVehicleJourney struct {
							LineRef           string
							PublishedLineName string
							VehicleRef        string
						}
					}
				}
			}
		}
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	vmd := body.Siri.ServiceDelivery.VehicleMonitoringDelivery
	require.Len(t, vmd, 1)
	require.Len(t, vmd[0].VehicleActivity, 1)
	mvj := vmd[0].VehicleActivity[0].MonitoredVehicleJourney
	assert.Equal(t, "route-b", mvj.LineRef)
	assert.Equal(t, "444", mvj.PublishedLineName)
	assert.Equal(t, "veh-b", mvj.VehicleRef)

	rec = get(t, h, "/api/nearest?format=siri-xml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<VehicleMonitoringDelivery>")
	t.Logf("✓ SIRI renderings served")
}

func TestFeedText(t *testing.T) {
	h := server.New(server.Options{State: locator.NewState()}).Handler()
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/feed.txt").Code)

	state, _ := populatedState(t)
	h = server.New(server.Options{State: state}).Handler()
	rec := get(t, h, "/api/feed.txt")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gtfs_realtime_version")
	assert.Contains(t, rec.Body.String(), "1700000000")
	t.Logf("✓ feed dump rendered as prototext")
}

func TestCORS(t *testing.T) {
	h := server.New(server.Options{State: locator.NewState(), AllowedOrigins: []string{"https://example.org"}}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://example.org")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://example.org", rec.Header().Get("Access-Control-Allow-Origin"))
	t.Logf("✓ CORS headers applied")
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.New(server.Options{Port: port, State: locator.NewState()}).Run(ctx)
	}()

	url := "http://127.0.0.1:" + strconv.Itoa(port) + "/api/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	t.Logf("✓ server stops when its context is cancelled")
}
