package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/gtfsrt-locator/gtfsrt"
)

const sampleConfig = `
server:
  port: 8080
gtfsrt:
  vehiclePositionsURL: https://example.com/vp.pb
  pollIntervalMS: 2500
locator:
  latitude: 41.38
  longitude: 2.17
static:
  driver: sqlite
  sqlitePath: /tmp/static.db
feeds:
  - name: metro
    gtfsrt:
      feedURL: https://example.com/metro.pb
  - name: bus
    gtfsrt:
      tripUpdatesURL: https://example.com/bus-tu.pb
      vehiclePositionsURL: https://example.com/bus-vp.pb
      timeoutMS: 1000
    static:
      driver: redis
      redisAddr: localhost:6379
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2500*time.Millisecond, cfg.GTFSRT.PollInterval())
	assert.Equal(t, gtfsrt.DefaultTimeout, cfg.GTFSRT.Timeout())
	assert.InDelta(t, 41.38, cfg.Locator.Latitude, 1e-9)
	assert.Equal(t, "vp", cfg.Locator.FeedKind)
	assert.Equal(t, "sqlite", cfg.Static.Driver)
	assert.Equal(t, DefaultKafkaTopic, cfg.Publish.KafkaTopic)
	assert.Len(t, cfg.Feeds, 2)
	t.Logf("✓ Loaded config with %d feeds", len(cfg.Feeds))
}

func TestLoadFromFile_Defaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, "gtfsrt:\n  feedURL: https://example.com/vp.pb\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultStaticDriver, cfg.Static.Driver)
	assert.Equal(t, gtfsrt.DefaultPollInterval, cfg.GTFSRT.PollInterval())
	assert.InDelta(t, -27.52423, cfg.Locator.Latitude, 1e-9)
	assert.InDelta(t, 152.81618, cfg.Locator.Longitude, 1e-9)
}

func TestLoadFromFile_ExplicitZeroLocator(t *testing.T) {
	body := "gtfsrt:\n  feedURL: https://example.com/vp.pb\nlocator:\n  latitude: 0\n  longitude: 0\n"
	cfg, err := LoadFromFile(writeConfig(t, body))
	require.NoError(t, err)

	assert.Equal(t, 0.0, cfg.Locator.Latitude)
	assert.Equal(t, 0.0, cfg.Locator.Longitude)

	// Only one coordinate set: the other still takes its default.
	cfg, err = LoadFromFile(writeConfig(t, "locator:\n  latitude: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Locator.Latitude)
	assert.InDelta(t, 152.81618, cfg.Locator.Longitude, 1e-9)
	t.Logf("✓ Explicit (0,0) locator kept")
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad url":       "gtfsrt:\n  feedURL: not a url\n",
		"bad driver":    "static:\n  driver: mongo\n",
		"bad latitude":  "locator:\n  latitude: 123\n  longitude: 1\n",
		"unnamed feed":  "feeds:\n  - gtfsrt:\n      feedURL: https://example.com/a.pb\n",
		"invalid yaml":  "server: [",
		"bad feed kind": "locator:\n  feedKind: shapes\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GTFS_VEHICLE_POSITIONS_URL", "https://env.example.com/vp.pb")
	t.Setenv("POLL_INTERVAL_MS", "100")
	t.Setenv("LOCATOR_LAT", "1.5")
	t.Setenv("STATIC_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/gtfs")
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("PORT", "9000")

	cfg, err := LoadFromFile(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com/vp.pb", cfg.GTFSRT.VehiclePositionsURL)
	assert.Equal(t, 100*time.Millisecond, cfg.GTFSRT.PollInterval())
	assert.InDelta(t, 1.5, cfg.Locator.Latitude, 1e-9)
	assert.Equal(t, "postgres", cfg.Static.Driver)
	assert.Equal(t, "postgres://localhost/gtfs", cfg.Static.PostgresURL)
	assert.Equal(t, "localhost:9092", cfg.Publish.KafkaBrokers)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoadAppConfig_SearchPaths(t *testing.T) {
	origConfig, origPaths := Config, SearchPaths
	defer func() { Config, SearchPaths = origConfig, origPaths }()

	SearchPaths = []string{filepath.Join(t.TempDir(), "missing.yml"), writeConfig(t, sampleConfig)}
	require.NoError(t, LoadAppConfig())
	assert.Equal(t, 8080, Config.Server.Port)

	SearchPaths = []string{filepath.Join(t.TempDir(), "missing.yml")}
	require.NoError(t, LoadAppConfig())
	assert.Equal(t, DefaultPort, Config.Server.Port)
}

func TestSelectFeed(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	rt, st := cfg.SelectFeed("bus")
	assert.Equal(t, "https://example.com/bus-tu.pb", rt.TripUpdatesURL)
	assert.Equal(t, time.Second, rt.Timeout())
	assert.Equal(t, 2500*time.Millisecond, rt.PollInterval(), "poll interval inherited")
	assert.Equal(t, "redis", st.Driver)

	rt, st = cfg.SelectFeed("unknown")
	assert.Equal(t, "https://example.com/metro.pb", rt.FeedURL)
	assert.Equal(t, "sqlite", st.Driver, "static section inherited")

	cfg.Feeds = nil
	rt, _ = cfg.SelectFeed("metro")
	assert.Equal(t, "https://example.com/vp.pb", rt.VehiclePositionsURL)
}

func TestEndpoints(t *testing.T) {
	ep := GTFSRTConfig{FeedURL: "https://example.com/a.pb"}.Endpoints()
	assert.Equal(t, gtfsrt.Endpoints{VehiclePositionsURL: "https://example.com/a.pb"}, ep)

	ep = GTFSRTConfig{FeedURL: "https://example.com/a.pb", VehiclePositionsURL: "https://example.com/vp.pb"}.Endpoints()
	assert.Equal(t, "https://example.com/vp.pb", ep.VehiclePositionsURL)
}
