package gtfs

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema_postgres.sql
var postgresSchema string

// PostgresStore is a Store backed by a PostgreSQL database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to databaseURL and ensures the schema.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Route(ctx context.Context, id string) (Route, error) {
	var r Route
	var agency, short, long, desc, url, color, textColor *string
	err := s.pool.QueryRow(ctx, `
		SELECT route_id, agency_id, route_short_name, route_long_name, route_desc,
		       route_type, route_url, route_color, route_text_color
		FROM routes WHERE route_id = $1`, id,
	).Scan(&r.ID, &agency, &short, &long, &desc, &r.Type, &url, &color, &textColor)
	if errors.Is(err, pgx.ErrNoRows) {
		return Route{}, notFound("route", id)
	}
	if err != nil {
		return Route{}, fmt.Errorf("failed to query route %q: %w", id, err)
	}
	r.AgencyID, r.ShortName, r.LongName, r.Desc = deref(agency), deref(short), deref(long), deref(desc)
	r.URL, r.Color, r.TextColor = deref(url), deref(color), deref(textColor)
	return r, nil
}

func (s *PostgresStore) Stop(ctx context.Context, id string) (Stop, error) {
	var st Stop
	var code, desc, zone, url, parent, platform *string
	err := s.pool.QueryRow(ctx, `
		SELECT stop_id, stop_code, stop_name, stop_desc, stop_lat, stop_lon,
		       zone_id, stop_url, location_type, parent_station, platform_code
		FROM stops WHERE stop_id = $1`, id,
	).Scan(&st.ID, &code, &st.Name, &desc, &st.Lat, &st.Lon, &zone, &url, &st.LocationType, &parent, &platform)
	if errors.Is(err, pgx.ErrNoRows) {
		return Stop{}, notFound("stop", id)
	}
	if err != nil {
		return Stop{}, fmt.Errorf("failed to query stop %q: %w", id, err)
	}
	st.Code, st.Desc, st.ZoneID, st.URL = deref(code), deref(desc), deref(zone), deref(url)
	st.ParentStation, st.PlatformCode = deref(parent), deref(platform)
	return st, nil
}

func (s *PostgresStore) Trip(ctx context.Context, id string) (Trip, error) {
	var t Trip
	var headsign, block, shape *string
	err := s.pool.QueryRow(ctx, `
		SELECT trip_id, route_id, service_id, trip_headsign, direction_id, block_id, shape_id
		FROM trips WHERE trip_id = $1`, id,
	).Scan(&t.ID, &t.RouteID, &t.ServiceID, &headsign, &t.DirectionID, &block, &shape)
	if errors.Is(err, pgx.ErrNoRows) {
		return Trip{}, notFound("trip", id)
	}
	if err != nil {
		return Trip{}, fmt.Errorf("failed to query trip %q: %w", id, err)
	}
	t.Headsign, t.BlockID, t.ShapeID = deref(headsign), deref(block), deref(shape)
	return t, nil
}

// Import replaces every static table with the contents of idx in a single
// transaction, bulk loading rows with COPY.
func (s *PostgresStore) Import(ctx context.Context, idx *Index) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tables := importTables(idx)
	for _, t := range tables {
		if _, err := tx.Exec(ctx, "TRUNCATE "+t.name); err != nil {
			return fmt.Errorf("failed to clear %s: %w", t.name, err)
		}
	}
	for _, t := range tables {
		if len(t.rows) == 0 {
			continue
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{t.name}, t.columns, pgx.CopyFromRows(t.rows)); err != nil {
			return fmt.Errorf("failed to copy into %s: %w", t.name, err)
		}
	}

	stats := idx.Stats()
	importID := uuid.NewString()
	if _, err := tx.Exec(ctx,
		"INSERT INTO static_imports (import_id, imported_at, routes, stops, trips) VALUES ($1, $2, $3, $4, $5)",
		importID, time.Now().UTC(), stats.Routes, stats.Stops, stats.Trips,
	); err != nil {
		return fmt.Errorf("failed to record import: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	slog.Info("imported static dataset into Postgres", "import_id", importID, "routes", stats.Routes, "stops", stats.Stops, "trips", stats.Trips)
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
