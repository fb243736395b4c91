/*
Package gtfs provides the static schedule store used to label real-time vehicles.

A GTFS zip is parsed into an Index (agencies, routes, stops, trips, calendars and
calendar dates). The Index is itself a Store; it can also be imported into one of
the persistent backends:

  - SQLiteStore (modernc.org/sqlite)
  - PostgresStore (pgx)
  - RedisStore (JSON values keyed by entity id)

Remote backends are usually wrapped in a CachedStore, an LRU cache with TTL.
Open builds the backend named by the static configuration section.

# Basic Usage

	idx, err := gtfs.LoadIndex("gtfs.zip", "gtfs-index.gob")
	if err != nil {
	    log.Fatal(err)
	}
	if err := gtfs.ValidateCalendar(idx, time.Now()); err != nil {
	    log.Printf("warning: %v", err)
	}
	route, err := idx.Route(ctx, "R1")
	if errors.Is(err, gtfs.ErrNotFound) {
	    // unknown route
	}

# Caching the Index

Parse GTFS once and keep the index in memory, or persist it with
SerializeIndexToFile. LoadIndex reuses a gob cache that is newer than the zip.

# Calendar Validation

ValidateCalendar reports an *ExpiredDatasetError when the last service day of
the dataset (latest calendar end date or added calendar date) is before today.
*/
package gtfs
