package nearest_test

import (
	"errors"
	"testing"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/gtfsrt-locator/internal/testutil"
	"github.com/theoremus-urban-solutions/gtfsrt-locator/nearest"
)

// kmNorth places an entity roughly km kilometres north of (0, 0).
func kmNorth(id string, km float64) *gtfsrtpb.FeedEntity {
	return testutil.VehicleAt(id, float32(km/111.195), 0)
}

func TestFindClosest(t *testing.T) {
	tests := []struct {
		name     string
		entities []*gtfsrtpb.FeedEntity
		wantID   string
		wantErr  error
	}{
		{
			name:    "empty list",
			wantErr: nearest.ErrNoEntityFound,
		},
		{
			name:     "only entities without position",
			entities: []*gtfsrtpb.FeedEntity{testutil.VehicleWithoutPosition("a"), {Id: new(string)}},
			wantErr:  nearest.ErrNoEntityFound,
		},
		{
			name:     "single positioned entity is never promoted",
			entities: []*gtfsrtpb.FeedEntity{kmNorth("a", 1)},
			wantErr:  nearest.ErrNoCandidate,
		},
		{
			name:     "first positioned entity nearest",
			entities: []*gtfsrtpb.FeedEntity{kmNorth("a", 3), kmNorth("b", 10), kmNorth("c", 7)},
			wantErr:  nearest.ErrNoCandidate,
		},
		{
			name:     "10 3 7 picks 3",
			entities: []*gtfsrtpb.FeedEntity{kmNorth("a", 10), kmNorth("b", 3), kmNorth("c", 7)},
			wantID:   "b",
		},
		{
			name:     "position-less entities skipped",
			entities: []*gtfsrtpb.FeedEntity{testutil.VehicleWithoutPosition("x"), kmNorth("a", 10), testutil.VehicleWithoutPosition("y"), kmNorth("b", 5)},
			wantID:   "b",
		},
		{
			name:     "tie keeps earlier candidate",
			entities: []*gtfsrtpb.FeedEntity{kmNorth("a", 10), kmNorth("b", 4), kmNorth("c", 4)},
			wantID:   "b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := nearest.FindClosest(tt.entities, 0, 0)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.GetId())
		})
	}
}

func TestNoCandidateIsNoEntityFound(t *testing.T) {
	assert.True(t, errors.Is(nearest.ErrNoCandidate, nearest.ErrNoEntityFound))
	assert.False(t, errors.Is(nearest.ErrNoEntityFound, nearest.ErrNoCandidate))
}

func TestClosest_ReportsDistanceAndIndex(t *testing.T) {
	entities := []*gtfsrtpb.FeedEntity{kmNorth("a", 10), testutil.VehicleWithoutPosition("x"), kmNorth("b", 3), kmNorth("c", 7)}

	m, err := nearest.Closest(entities, nearest.Coordinate{})
	require.NoError(t, err)
	assert.Equal(t, "b", m.Entity.GetId())
	assert.Equal(t, 2, m.Index)
	assert.InDelta(t, 3.0, m.DistanceKM, 0.01)
}

func TestHaversine(t *testing.T) {
	brisbane := nearest.Coordinate{Latitude: -27.52423, Longitude: 152.81618}
	sydney := nearest.Coordinate{Latitude: -33.8688, Longitude: 151.2093}

	assert.Equal(t, 0.0, nearest.Haversine(brisbane, brisbane))
	assert.InDelta(t, nearest.Haversine(brisbane, sydney), nearest.Haversine(sydney, brisbane), 1e-9)
	assert.InDelta(t, 10007.5, nearest.Haversine(nearest.Coordinate{}, nearest.Coordinate{Latitude: 0, Longitude: 90}), 1)
	assert.InDelta(t, 720, nearest.Haversine(brisbane, sydney), 20)
}
