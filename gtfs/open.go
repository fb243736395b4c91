package gtfs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/theoremus-urban-solutions/gtfsrt-locator/config"
)

// Backend is a store opened from configuration.
type Backend interface {
	Importer
	Close() error
}

type memoryBackend struct{ *Index }

func (memoryBackend) Close() error { return nil }

// Open builds the store selected by cfg.Driver. The memory driver loads
// cfg.GTFSPath when set; the remote drivers are fronted by a CachedStore.
func Open(ctx context.Context, cfg config.StaticConfig) (Backend, error) {
	switch cfg.Driver {
	case "", "memory":
		idx := NewIndex()
		if cfg.GTFSPath != "" {
			loaded, err := LoadDataset(ctx, cfg.GTFSPath, cfg.IndexCachePath)
			if err != nil {
				return nil, err
			}
			idx = loaded
		}
		return memoryBackend{idx}, nil
	case "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			path = "gtfs.db"
		}
		return OpenSQLite(ctx, path)
	case "postgres":
		if cfg.PostgresURL == "" {
			return nil, fmt.Errorf("static driver postgres needs a postgres URL")
		}
		pg, err := OpenPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		return NewCachedStore(pg, cfg.CacheEntries(), cfg.CacheTTL()), nil
	case "redis":
		addr := cfg.RedisAddr
		if addr == "" {
			addr = "127.0.0.1:6379"
		}
		rs, err := OpenRedis(ctx, addr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return NewCachedStore(rs, cfg.CacheEntries(), cfg.CacheTTL()), nil
	}
	return nil, fmt.Errorf("unknown static driver %q", cfg.Driver)
}

// LoadDataset parses a GTFS zip from a local path or an http(s) URL. Local
// files go through the gob cache at cachePath when it is set.
func LoadDataset(ctx context.Context, pathOrURL, cachePath string) (*Index, error) {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		data, err := FetchGTFSData(ctx, pathOrURL)
		if err != nil {
			return nil, err
		}
		idx, err := NewIndexFromBytes(data)
		if err != nil {
			return nil, err
		}
		if cachePath != "" {
			if err := SerializeIndexToFile(idx, cachePath); err != nil {
				slog.Warn("failed to write GTFS index cache", "path", cachePath, "error", err)
			}
		}
		return idx, nil
	}
	return LoadIndex(pathOrURL, cachePath)
}
