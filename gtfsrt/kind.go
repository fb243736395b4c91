package gtfsrt

import (
	"fmt"
	"strings"
)

// FeedKind identifies one of the three GTFS-RT feed categories.
type FeedKind int

const (
	TripUpdate FeedKind = iota
	VehiclePosition
	Alert
)

// FeedKinds lists every kind in a stable order.
var FeedKinds = []FeedKind{TripUpdate, VehiclePosition, Alert}

func (k FeedKind) String() string {
	switch k {
	case TripUpdate:
		return "trip update"
	case VehiclePosition:
		return "vehicle position"
	case Alert:
		return "alert"
	default:
		return fmt.Sprintf("FeedKind(%d)", int(k))
	}
}

// ParseFeedKind accepts the module names used by the CLI and config files
// (tu, vp, alerts) as well as the long forms.
func ParseFeedKind(s string) (FeedKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tu", "tripupdate", "tripupdates", "trip_updates", "trip update":
		return TripUpdate, nil
	case "vp", "vehicleposition", "vehiclepositions", "vehicle_positions", "vehicle position", "":
		return VehiclePosition, nil
	case "alert", "alerts", "sa", "servicealerts", "service_alerts":
		return Alert, nil
	}
	return 0, fmt.Errorf("unknown feed kind %q (want tu|vp|alerts)", s)
}

// Endpoints holds the optional URL of each feed kind. An empty string means the
// kind is not configured; that is a valid state until the kind is queried.
type Endpoints struct {
	TripUpdatesURL      string
	VehiclePositionsURL string
	ServiceAlertsURL    string
}

// URL returns the endpoint configured for kind and whether one is present.
func (e Endpoints) URL(kind FeedKind) (string, bool) {
	var u string
	switch kind {
	case TripUpdate:
		u = e.TripUpdatesURL
	case VehiclePosition:
		u = e.VehiclePositionsURL
	case Alert:
		u = e.ServiceAlertsURL
	}
	return u, u != ""
}
