package gtfsrt

import (
	"math"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
)

// Vehicle is a flattened view of a vehicle position entity.
type Vehicle struct {
	EntityID    string  `json:"entityId"`
	VehicleID   string  `json:"vehicleId,omitempty"`
	Label       string  `json:"label,omitempty"`
	TripID      string  `json:"tripId,omitempty"`
	RouteID     string  `json:"routeId,omitempty"`
	StartDate   string  `json:"startDate,omitempty"`
	HasPosition bool    `json:"hasPosition"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Bearing     float64 `json:"bearing,omitempty"`
	Timestamp   int64   `json:"timestamp,omitempty"`
}

// DescribeVehicle flattens e. Entities without a vehicle payload yield only
// the entity id.
func DescribeVehicle(e *gtfsrtpb.FeedEntity) Vehicle {
	v := Vehicle{EntityID: e.GetId()}
	vp := e.GetVehicle()
	if vp == nil {
		return v
	}
	v.VehicleID = vp.GetVehicle().GetId()
	v.Label = vp.GetVehicle().GetLabel()
	v.TripID = vp.GetTrip().GetTripId()
	v.RouteID = vp.GetTrip().GetRouteId()
	v.StartDate = vp.GetTrip().GetStartDate()
	v.Timestamp = int64(vp.GetTimestamp())
	if pos := vp.GetPosition(); pos != nil {
		lat, lon := float64(pos.GetLatitude()), float64(pos.GetLongitude())
		v.HasPosition = isFinite(lat) && isFinite(lon)
		if v.HasPosition {
			v.Latitude, v.Longitude = lat, lon
		}
		// non-finite bearings are dropped; they cannot be encoded as JSON
		if b := float64(pos.GetBearing()); isFinite(b) {
			v.Bearing = b
		}
	}
	return v
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
