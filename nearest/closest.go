package nearest

import (
	"errors"
	"fmt"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
)

// ErrNoEntityFound is returned when no entity qualifies as the closest.
var ErrNoEntityFound = errors.New("no entity found")

// ErrNoCandidate is returned when entities with positions exist but none was
// selected. It matches ErrNoEntityFound under errors.Is.
var ErrNoCandidate = fmt.Errorf("%w: no positioned entity after the first", ErrNoEntityFound)

// Match is the selected entity with its distance to the reference point and its
// index in the input slice.
type Match struct {
	Entity     *gtfsrtpb.FeedEntity
	DistanceKM float64
	Index      int
}

// FindClosest returns the entity closest to (lat, lon) among those carrying a
// vehicle position.
//
// The first entity with a position only seeds the running minimum distance; it
// is never itself returned. A later entity becomes the candidate when its
// distance is strictly smaller than the minimum so far, so ties keep the earlier
// candidate. A list holding a single positioned entity, or one whose first
// positioned entity is the nearest, therefore yields ErrNoCandidate.
func FindClosest(entities []*gtfsrtpb.FeedEntity, lat, lon float32) (*gtfsrtpb.FeedEntity, error) {
	m, err := Closest(entities, Coordinate{Latitude: float64(lat), Longitude: float64(lon)})
	if err != nil {
		return nil, err
	}
	return m.Entity, nil
}

// Closest is FindClosest returning the distance and index of the match as well.
func Closest(entities []*gtfsrtpb.FeedEntity, ref Coordinate) (Match, error) {
	var (
		best    = Match{Index: -1}
		minDist float64
		seeded  bool
	)
	for i, e := range entities {
		pos := e.GetVehicle().GetPosition()
		if pos == nil {
			continue
		}
		d := Haversine(ref, Coordinate{
			Latitude:  float64(pos.GetLatitude()),
			Longitude: float64(pos.GetLongitude()),
		})
		if !seeded {
			minDist, seeded = d, true
			continue
		}
		if d < minDist {
			minDist = d
			best = Match{Entity: e, DistanceKM: d, Index: i}
		}
	}

	switch {
	case !seeded:
		return Match{Index: -1}, ErrNoEntityFound
	case best.Entity == nil:
		return Match{Index: -1}, ErrNoCandidate
	}
	return best, nil
}
