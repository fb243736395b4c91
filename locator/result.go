package locator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/google/uuid"

	"github.com/theoremus-urban-solutions/gtfsrt-locator/gtfs"
	"github.com/theoremus-urban-solutions/gtfsrt-locator/gtfsrt"
	"github.com/theoremus-urban-solutions/gtfsrt-locator/nearest"
)

// Result is the outcome of one resolution against one feed message.
type Result struct {
	ID            string             `json:"id"`
	Found         bool               `json:"found"`
	Reason        string             `json:"reason,omitempty"`
	FeedTimestamp uint64             `json:"feedTimestamp"`
	ResolvedAt    time.Time          `json:"resolvedAt"`
	Reference     nearest.Coordinate `json:"reference"`
	EntityCount   int                `json:"entityCount"`
	Vehicle       *gtfsrt.Vehicle    `json:"vehicle,omitempty"`
	DistanceKM    float64            `json:"distanceKm,omitempty"`
	Route         *gtfs.Route        `json:"route,omitempty"`
	Trip          *gtfs.Trip         `json:"trip,omitempty"`
}

// Key identifies the vehicle of a result for partitioned publishing.
func (r Result) Key() string {
	if r.Vehicle == nil {
		return "none"
	}
	if r.Vehicle.VehicleID != "" {
		return r.Vehicle.VehicleID
	}
	return r.Vehicle.EntityID
}

// Resolve picks the entity of fm nearest ref and labels it from store, which
// may be nil. A resolver miss yields Found=false with the reason set. Store
// failures only drop the label.
func Resolve(ctx context.Context, fm *gtfsrtpb.FeedMessage, ref nearest.Coordinate, store gtfs.Store, logger *slog.Logger) Result {
	res := Result{
		ID:            uuid.NewString(),
		FeedTimestamp: fm.GetHeader().GetTimestamp(),
		ResolvedAt:    time.Now().UTC(),
		Reference:     ref,
		EntityCount:   len(fm.GetEntity()),
	}

	m, err := nearest.Closest(fm.GetEntity(), ref)
	if err != nil {
		res.Reason = err.Error()
		return res
	}
	v := gtfsrt.DescribeVehicle(m.Entity)
	res.Found = true
	res.Vehicle = &v
	res.DistanceKM = m.DistanceKM

	if store == nil {
		return res
	}
	if logger == nil {
		logger = slog.Default()
	}

	routeID := v.RouteID
	if v.TripID != "" {
		trip, err := store.Trip(ctx, v.TripID)
		switch {
		case err == nil:
			res.Trip = &trip
			if routeID == "" {
				routeID = trip.RouteID
			}
		case !errors.Is(err, gtfs.ErrNotFound):
			logger.Warn("trip lookup failed", "trip_id", v.TripID, "error", err)
		}
	}
	if routeID != "" {
		route, err := store.Route(ctx, routeID)
		switch {
		case err == nil:
			res.Route = &route
		case !errors.Is(err, gtfs.ErrNotFound):
			logger.Warn("route lookup failed", "route_id", routeID, "error", err)
		}
	}
	return res
}
