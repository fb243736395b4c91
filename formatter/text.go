package formatter

import (
	"fmt"
	"strings"
)

// BuildText renders a response for terminals, one fact per line.
func (rb *responseBuilder) BuildText(res *Response) []byte {
	var b strings.Builder
	if res.FeedTimestamp != "" {
		fmt.Fprintf(&b, "feed timestamp: %s\n", res.FeedTimestamp)
	}
	if r := res.NearestVehicle; r != nil {
		fmt.Fprintf(&b, "reference:      %.5f, %.5f\n", r.Reference.Latitude, r.Reference.Longitude)
		if !r.Found {
			fmt.Fprintf(&b, "nearest:        none (%s, %d entities)\n", r.Reason, r.EntityCount)
		} else {
			v := r.Vehicle
			fmt.Fprintf(&b, "nearest:        %s at %.3f km\n", r.Key(), r.DistanceKM)
			fmt.Fprintf(&b, "position:       %.5f, %.5f\n", v.Latitude, v.Longitude)
			if v.TripID != "" {
				fmt.Fprintf(&b, "trip:           %s\n", v.TripID)
			}
		}
		if r.Route != nil {
			fmt.Fprintf(&b, "route:          %s %s\n", r.Route.ShortName, r.Route.LongName)
		}
		if r.Trip != nil && r.Trip.Headsign != "" {
			fmt.Fprintf(&b, "headsign:       %s\n", r.Trip.Headsign)
		}
	}
	for _, a := range res.Alerts {
		fmt.Fprintf(&b, "alert %s: %s", a.ID, a.Header)
		if a.Effect != "" {
			fmt.Fprintf(&b, " [%s]", a.Effect)
		}
		b.WriteString("\n")
	}
	return []byte(b.String())
}
