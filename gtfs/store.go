package gtfs

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Store lookups for unknown identifiers.
var ErrNotFound = errors.New("not found")

// Store is a keyed store of schedule entities.
type Store interface {
	Route(ctx context.Context, id string) (Route, error)
	Stop(ctx context.Context, id string) (Stop, error)
	Trip(ctx context.Context, id string) (Trip, error)
}

// Importer is a Store that can be (re)populated from a parsed dataset.
type Importer interface {
	Store
	Import(ctx context.Context, idx *Index) error
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}
