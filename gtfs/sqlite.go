package gtfs

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// SQLiteStore is a Store backed by a SQLite database.
type SQLiteStore struct {
	conn    *sql.DB
	writeMu sync.Mutex
}

// OpenSQLite opens (creating if needed) the database at path and ensures the
// schema. Use ":memory:" for a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// a single connection keeps :memory: databases alive and serialises writers
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := conn.ExecContext(ctx, sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	slog.Debug("connected to SQLite static store", "path", path)
	return &SQLiteStore{conn: conn}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) Route(ctx context.Context, id string) (Route, error) {
	var r Route
	var agency, short, long, desc, url, color, textColor sql.NullString
	err := s.conn.QueryRowContext(ctx, `
		SELECT route_id, agency_id, route_short_name, route_long_name, route_desc,
		       route_type, route_url, route_color, route_text_color
		FROM routes WHERE route_id = ?`, id,
	).Scan(&r.ID, &agency, &short, &long, &desc, &r.Type, &url, &color, &textColor)
	if errors.Is(err, sql.ErrNoRows) {
		return Route{}, notFound("route", id)
	}
	if err != nil {
		return Route{}, fmt.Errorf("failed to query route %q: %w", id, err)
	}
	r.AgencyID, r.ShortName, r.LongName, r.Desc = agency.String, short.String, long.String, desc.String
	r.URL, r.Color, r.TextColor = url.String, color.String, textColor.String
	return r, nil
}

func (s *SQLiteStore) Stop(ctx context.Context, id string) (Stop, error) {
	var st Stop
	var code, desc, zone, url, parent, platform sql.NullString
	err := s.conn.QueryRowContext(ctx, `
		SELECT stop_id, stop_code, stop_name, stop_desc, stop_lat, stop_lon,
		       zone_id, stop_url, location_type, parent_station, platform_code
		FROM stops WHERE stop_id = ?`, id,
	).Scan(&st.ID, &code, &st.Name, &desc, &st.Lat, &st.Lon, &zone, &url, &st.LocationType, &parent, &platform)
	if errors.Is(err, sql.ErrNoRows) {
		return Stop{}, notFound("stop", id)
	}
	if err != nil {
		return Stop{}, fmt.Errorf("failed to query stop %q: %w", id, err)
	}
	st.Code, st.Desc, st.ZoneID, st.URL = code.String, desc.String, zone.String, url.String
	st.ParentStation, st.PlatformCode = parent.String, platform.String
	return st, nil
}

func (s *SQLiteStore) Trip(ctx context.Context, id string) (Trip, error) {
	var t Trip
	var headsign, block, shape sql.NullString
	err := s.conn.QueryRowContext(ctx, `
		SELECT trip_id, route_id, service_id, trip_headsign, direction_id, block_id, shape_id
		FROM trips WHERE trip_id = ?`, id,
	).Scan(&t.ID, &t.RouteID, &t.ServiceID, &headsign, &t.DirectionID, &block, &shape)
	if errors.Is(err, sql.ErrNoRows) {
		return Trip{}, notFound("trip", id)
	}
	if err != nil {
		return Trip{}, fmt.Errorf("failed to query trip %q: %w", id, err)
	}
	t.Headsign, t.BlockID, t.ShapeID = headsign.String, block.String, shape.String
	return t, nil
}

// Import replaces every static table with the contents of idx in a single
// transaction.
func (s *SQLiteStore) Import(ctx context.Context, idx *Index) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	tables := importTables(idx)
	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+t.name); err != nil {
			return fmt.Errorf("failed to clear %s: %w", t.name, err)
		}
	}

	for _, t := range tables {
		stmt, err := tx.PrepareContext(ctx, t.insertSQL(func(int) string { return "?" }))
		if err != nil {
			return fmt.Errorf("failed to prepare %s insert: %w", t.name, err)
		}
		for _, args := range t.rows {
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				stmt.Close()
				return fmt.Errorf("failed to insert into %s: %w", t.name, err)
			}
		}
		stmt.Close()
	}

	stats := idx.Stats()
	importID := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO static_imports (import_id, imported_at, routes, stops, trips) VALUES (?, ?, ?, ?, ?)",
		importID, time.Now().UTC().Format(time.RFC3339), stats.Routes, stats.Stops, stats.Trips,
	); err != nil {
		return fmt.Errorf("failed to record import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	slog.Info("imported static dataset into SQLite", "import_id", importID, "routes", stats.Routes, "stops", stats.Stops, "trips", stats.Trips)
	return nil
}
