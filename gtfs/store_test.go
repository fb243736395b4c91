package gtfs

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/gtfsrt-locator/config"
)

// exerciseBackend imports the sample feed into b and checks lookups.
func exerciseBackend(t *testing.T, b Importer) {
	t.Helper()
	ctx := context.Background()
	idx := sampleIndex(t)
	require.NoError(t, b.Import(ctx, idx))

	r, err := b.Route(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, idx.Routes["R1"], r)

	s, err := b.Stop(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, idx.Stops["S1"], s)

	tr, err := b.Trip(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, idx.Trips["T1"], tr)

	_, err = b.Trip(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	// a second import replaces the first
	smaller := NewIndex()
	smaller.Routes["R9"] = Route{ID: "R9", ShortName: "9", Type: 0}
	require.NoError(t, b.Import(ctx, smaller))
	_, err = b.Route(ctx, "R1")
	assert.ErrorIs(t, err, ErrNotFound)
	r, err = b.Route(ctx, "R9")
	require.NoError(t, err)
	assert.Equal(t, "9", r.ShortName)
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	defer s.Close()

	exerciseBackend(t, s)
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	s, err := OpenPostgres(context.Background(), url)
	require.NoError(t, err)
	defer s.Close()

	exerciseBackend(t, s)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	s, err := OpenRedis(context.Background(), addr, "", 0)
	require.NoError(t, err)
	defer s.Close()
	s.prefix = "gtfs-test:" + t.Name() + ":"

	exerciseBackend(t, s)
}

// countingStore counts lookups reaching the wrapped store.
type countingStore struct {
	*Index
	calls int
}

func (c *countingStore) Route(ctx context.Context, id string) (Route, error) {
	c.calls++
	return c.Index.Route(ctx, id)
}

func TestCachedStore(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Index: sampleIndex(t)}
	cs := NewCachedStore(inner, 16, time.Minute)

	for i := 0; i < 3; i++ {
		r, err := cs.Route(ctx, "R1")
		require.NoError(t, err)
		assert.Equal(t, "444", r.ShortName)
	}
	assert.Equal(t, 1, inner.calls)

	for i := 0; i < 2; i++ {
		_, err := cs.Route(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, 3, inner.calls, "misses are not cached")

	// import purges the cache
	replacement := NewIndex()
	replacement.Routes["R1"] = Route{ID: "R1", ShortName: "new"}
	require.NoError(t, cs.Import(ctx, replacement))
	r, err := cs.Route(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, "new", r.ShortName)
}

func TestCachedStore_Expiry(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Index: sampleIndex(t)}
	cs := NewCachedStore(inner, 16, 10*time.Millisecond)

	_, err := cs.Route(ctx, "R1")
	require.NoError(t, err)
	time.Sleep(30 * time.Millisecond)
	_, err = cs.Route(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	b, err := Open(ctx, config.StaticConfig{Driver: "memory", GTFSPath: writeZip(t, sampleFeed)})
	require.NoError(t, err)
	defer b.Close()
	r, err := b.Route(ctx, "R2")
	require.NoError(t, err)
	assert.Equal(t, "445", r.ShortName)

	b, err = Open(ctx, config.StaticConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	defer b.Close()
	_, err = b.Route(ctx, "R2")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Open(ctx, config.StaticConfig{Driver: "postgres"})
	assert.Error(t, err)

	_, err = Open(ctx, config.StaticConfig{Driver: "mongo"})
	assert.Error(t, err)
}

func TestLoadDataset_URLCacheWriteFailureIsLogged(t *testing.T) {
	zipBytes := buildZip(t, "", sampleFeed)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(zipBytes)
	}))
	defer srv.Close()

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	defer slog.SetDefault(prev)

	cachePath := filepath.Join(t.TempDir(), "missing-dir", "index.gob")
	idx, err := LoadDataset(context.Background(), srv.URL+"/gtfs.zip", cachePath)
	require.NoError(t, err)
	assert.Len(t, idx.Routes, 2)
	assert.Contains(t, logs.String(), "failed to write GTFS index cache")
	assert.Contains(t, logs.String(), "missing-dir")

	logs.Reset()
	okPath := filepath.Join(t.TempDir(), "index.gob")
	_, err = LoadDataset(context.Background(), srv.URL+"/gtfs.zip", okPath)
	require.NoError(t, err)
	assert.NotContains(t, logs.String(), "failed to write")
	_, err = os.Stat(okPath)
	assert.NoError(t, err)
	t.Logf("✓ cache write failures are logged, not dropped")
}
